package ingest

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type candidate struct {
	name string
	enc  encoding.Encoding
}

// decodeChain is tried in order; utf-8 has no decoder and is checked for validity instead.
var decodeChain = []candidate{
	{name: "utf-8"},
	{name: "latin-1", enc: charmap.ISO8859_1},
	{name: "iso-8859-1", enc: charmap.ISO8859_1},
	{name: "cp1252", enc: charmap.Windows1252},
	{name: "mac_roman", enc: charmap.Macintosh},
}

// Decode converts raw input to a string, returning the name of the encoding that worked.
// A single-byte decode that produces C1 control characters or replacement runes is
// rejected in favour of the next encoding; mac_roman maps every byte and always ends the chain.
func Decode(raw []byte) (string, string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)

	var lastErr error
	for i, c := range decodeChain {
		if c.enc == nil {
			if utf8.Valid(raw) {
				return string(raw), c.name, nil
			}
			continue
		}

		out, err := c.enc.NewDecoder().Bytes(raw)
		if err != nil {
			lastErr = fmt.Errorf("decode as %s: %w", c.name, err)
			continue
		}
		text := string(out)
		if i < len(decodeChain)-1 && suspicious(text) {
			continue
		}
		return text, c.name, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no encoding in chain accepted the input")
	}
	return "", "", lastErr
}

func suspicious(text string) bool {
	return strings.ContainsFunc(text, func(r rune) bool {
		return r == utf8.RuneError || (r >= 0x80 && r <= 0x9F)
	})
}
