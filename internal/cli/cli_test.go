package cli

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCategorizeCommand(t *testing.T) {
	out, err := execute(t, "categorize", "arxiv.org", "https://www.cnn.com/2024/story", "youtube.com", "example.org")
	require.NoError(t, err)
	require.Contains(t, out, "arxiv.org")
	require.Contains(t, out, "repo")
	require.Contains(t, out, "cnn.com")
	require.Contains(t, out, "news")
	require.Contains(t, out, "social_media")
	require.Contains(t, out, "unknown")
}

func TestCategorizeCommandWithRulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	require.NoError(t, os.WriteFile(path, []byte("news:\n  - example\n"), 0o600))

	out, err := execute(t, "--categories", path, "categorize", "example.org")
	require.NoError(t, err)
	require.Contains(t, out, "news")
}

func TestCategorizeRequiresArgs(t *testing.T) {
	_, err := execute(t, "categorize")
	require.Error(t, err)
}

func TestExtractCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><meta name="citation_doi" content="10.5555/cli.test"></head><body></body></html>`)
	}))
	defer srv.Close()

	out, err := execute(t, "--rate-interval", "1s", "--no-idconv", "extract", srv.URL+"/paper")
	require.NoError(t, err)
	require.Contains(t, out, "10.5555/cli.test")
	require.Contains(t, out, "meta:citation_doi")
}

func TestExtractCommandReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	out, err := execute(t, "--rate-interval", "1s", "--no-idconv", "extract", srv.URL+"/gone")
	require.Error(t, err)
	require.Contains(t, err.Error(), "http_status")
	require.Contains(t, out, "success")
}

func TestRejectsSubSecondRateInterval(t *testing.T) {
	_, err := execute(t, "--rate-interval", "0s", "extract", "https://example.org/paper")
	require.Error(t, err)
	require.Contains(t, err.Error(), "fetch.rateInterval")
}

func TestRunsWithoutDatabase(t *testing.T) {
	_, err := execute(t, "runs")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no database configured")
}
