package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"PaperScanner/internal/domain"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		raw      []byte
		want     string
		encoding string
	}{
		{name: "utf-8", raw: []byte("café"), want: "café", encoding: "utf-8"},
		{name: "utf-8 bom", raw: append([]byte{0xEF, 0xBB, 0xBF}, "url"...), want: "url", encoding: "utf-8"},
		{name: "latin-1", raw: []byte{'c', 'a', 'f', 0xE9}, want: "café", encoding: "latin-1"},
		{name: "cp1252 quotes", raw: []byte{0x93, 'h', 'i', 0x94}, want: "“hi”", encoding: "cp1252"},
		{name: "mac roman", raw: []byte{0x81, 'x'}, want: "Åx", encoding: "mac_roman"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, enc, err := Decode(tc.raw)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
			require.Equal(t, tc.encoding, enc)
		})
	}
}

func TestParseRows(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"URL, Domain ,Comment,extra",
		"https://www.nature.com/articles/x,nature.com,,1",
		`https://example.com/a,,"see https://doi.org/10.1/xyz, for more",2`,
		"https://arxiv.org/abs/1",
		",,",
		`https://bad.example/"quoted,bad.example,`,
	}, "\n")

	rows, skipped, err := ParseRows(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 1, skipped)
	require.Equal(t, []domain.Row{
		{Index: 0, URL: "https://www.nature.com/articles/x", Domain: "nature.com"},
		{Index: 1, URL: "https://example.com/a", Domain: "example.com", Comment: "see https://doi.org/10.1/xyz, for more"},
		{Index: 2, URL: "https://arxiv.org/abs/1", Domain: "arxiv.org"},
		{Index: 3, URL: `https://bad.example/"quoted`, Domain: "bad.example"},
	}, rows)
}

func TestParseRowsRequiresURLColumn(t *testing.T) {
	t.Parallel()

	_, _, err := ParseRows(strings.NewReader("domain,comment\nnature.com,\n"))
	require.ErrorContains(t, err, "no url column")

	_, _, err = ParseRows(strings.NewReader(""))
	require.Error(t, err)
}

func TestCSVSourceRows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "urls.csv")
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("url,domain,comment\nhttps://www.bbc.co.uk/news/1,bbc.co.uk,caf\xc3\xa9\n")...)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	rows, err := NewCSVSource(path, nil).Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "café", rows[0].Comment)

	_, err = NewCSVSource(filepath.Join(t.TempDir(), "missing.csv"), nil).Rows(context.Background())
	require.Error(t, err)
}
