package publisher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := DefaultRegistry()
	cases := map[string]Kind{
		"www.nature.com":          KindNature,
		"WWW.Science.org":         KindScience,
		"advances.sciencemag.org": KindScience,
		"pubmed.ncbi.nlm.nih.gov": KindPubMed,
		"www.ncbi.nlm.nih.gov":    KindPubMed,
		"www.sciencedirect.com":   KindScienceDirect,
		"link.springer.com":       KindSpringer,
		"journals.plos.org":       KindPLOS,
		"www.pnas.org":            KindPNAS,
		"academic.oup.com":        KindOxford,
		"jamanetwork.com":         KindJAMA,
		"onlinelibrary.wiley.com": KindWiley,
		"arxiv.org":               KindArxiv,
		"www.sciencealert.com":    KindScienceAlert,
		"www.tandfonline.com":     KindTaylorFrancis,
		"example.com":             KindGeneric,
		"":                        KindGeneric,
		"   ":                     KindGeneric,
	}

	for host, want := range cases {
		got := reg.Resolve(host)
		require.NotNil(t, got, host)
		require.Equal(t, want, got.Kind, host)
		require.Same(t, got, reg.Resolve(host), "resolve must be deterministic for %q", host)
	}
}

func TestRegistryResolveURL(t *testing.T) {
	t.Parallel()

	reg := DefaultRegistry()
	require.Equal(t, KindNature, reg.ResolveURL("https://www.nature.com:443/articles/x").Kind)
	require.Equal(t, KindGeneric, reg.ResolveURL("::not a url").Kind)
}

func TestRegistryInsertionOrder(t *testing.T) {
	t.Parallel()

	broad := profile{kind: "broad", name: "Broad", aliases: []string{"example.org"}}.build()
	narrow := profile{kind: "narrow", name: "Narrow", aliases: []string{"journals.example.org"}}.build()

	reg := NewRegistry(nil)
	reg.Register(broad)
	reg.Register(narrow)
	require.Equal(t, "Broad", reg.Resolve("journals.example.org").Name)

	replacement := profile{kind: "broad", name: "Broad v2", aliases: []string{"other.net"}}.build()
	reg.Register(replacement)
	require.Len(t, reg.Handlers(), 2)
	require.Equal(t, "Broad v2", reg.Handlers()[0].Name)
	require.Equal(t, "Narrow", reg.Resolve("journals.example.org").Name)
	require.Equal(t, KindGeneric, reg.Resolve("unrelated.io").Kind)
}

func TestRegistryLookup(t *testing.T) {
	t.Parallel()

	reg := DefaultRegistry()

	h, err := reg.Lookup(KindCell)
	require.NoError(t, err)
	require.Equal(t, "Cell", h.Name)

	h, err = reg.Lookup(KindGeneric)
	require.NoError(t, err)
	require.Equal(t, "Generic", h.Name)

	_, err = reg.Lookup("missing")
	require.Error(t, err)
}
