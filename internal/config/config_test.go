package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(databaseDSNEnv, "")
	t.Setenv(logLevelEnv, "")
	t.Setenv(outputDirEnv, "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, defaultConfig(), cfg)
	require.False(t, cfg.Analysis.Testing)
	require.Equal(t, 50, cfg.Analysis.TopN)
	require.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	require.Equal(t, "scraping_results", cfg.Output.Dir)
	require.True(t, cfg.Output.Enabled(FormatHTML))
	require.False(t, cfg.Output.Enabled(FormatPDF))
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
fetch:
  timeout: 5s
  rateInterval: 2s
analysis:
  testing: true
  sampleInterval: 10
output:
  formats: [pdf]
`)
	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDSNEnv, "postgres://user:pass@db:5432/papers")
	t.Setenv(logLevelEnv, "warn")
	t.Setenv(outputDirEnv, "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.Logging.Level)
	require.Equal(t, "console", cfg.Logging.Format)
	require.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
	require.Equal(t, 2*time.Second, cfg.Fetch.RateInterval)
	require.Equal(t, DefaultUserAgent, cfg.Fetch.UserAgent)
	require.True(t, cfg.Analysis.Testing)
	require.Equal(t, 10, cfg.Analysis.SampleInterval)
	require.Equal(t, 50, cfg.Analysis.TopN)
	require.Equal(t, []string{FormatPDF}, cfg.Output.Formats)
	require.Equal(t, "postgres://user:pass@db:5432/papers", cfg.Database.DSN)
}

func TestLoadRejectsBrokenFiles(t *testing.T) {
	t.Setenv(configPathEnv, "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "cannot read")

	_, err = Load(writeConfig(t, "fetch: [not, a, map]"))
	require.ErrorContains(t, err, "cannot parse")
}

func TestValidateJoinsErrors(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Logging.Format = "xml"
	cfg.Output.Formats = []string{"docx"}
	cfg.Analysis.Workers = 0
	cfg.Fetch.Timeout = 0

	err := cfg.Validate()
	require.Error(t, err)
	require.ErrorContains(t, err, "logging.format")
	require.ErrorContains(t, err, "output.formats")
	require.ErrorContains(t, err, "analysis.workers")
	require.ErrorContains(t, err, "fetch.timeout")
}

func TestValidateRateIntervals(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		fetch    time.Duration
		enrich   time.Duration
		contains []string
	}{
		{name: "defaults", fetch: time.Second, enrich: time.Second},
		{name: "slower is fine", fetch: 3 * time.Second, enrich: 2 * time.Second},
		{name: "zero fetch", fetch: 0, enrich: time.Second, contains: []string{"fetch.rateInterval"}},
		{name: "sub-second fetch", fetch: 500 * time.Millisecond, enrich: time.Second, contains: []string{"fetch.rateInterval"}},
		{name: "negative fetch", fetch: -time.Second, enrich: time.Second, contains: []string{"fetch.rateInterval"}},
		{name: "zero enrichment", fetch: time.Second, enrich: 0, contains: []string{"enrichment.rateInterval"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := defaultConfig()
			cfg.Fetch.RateInterval = tc.fetch
			cfg.Enrichment.RateInterval = tc.enrich

			err := cfg.Validate()
			if len(tc.contains) == 0 {
				require.NoError(t, err)
				return
			}
			for _, want := range tc.contains {
				require.ErrorContains(t, err, want)
			}
		})
	}
}

func TestLoadRejectsFastRateFromFile(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(databaseDSNEnv, "")
	t.Setenv(logLevelEnv, "")
	t.Setenv(outputDirEnv, "")

	_, err := Load(writeConfig(t, "fetch:\n  rateInterval: 100ms\n"))
	require.ErrorContains(t, err, "fetch.rateInterval: must be at least 1s")
}

func TestLoadDisablesIDConv(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(databaseDSNEnv, "")
	t.Setenv(logLevelEnv, "")
	t.Setenv(outputDirEnv, "")

	cfg, err := Load(writeConfig(t, "enrichment:\n  disableIdConv: true\n"))
	require.NoError(t, err)
	require.True(t, cfg.Enrichment.DisableIDConv)
	require.Equal(t, defaultIDConvEndpoint, cfg.Enrichment.IDConvEndpoint)
}

func TestOverride(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	require.NoError(t, cfg.Override(Config{
		Input:    InputConfig{Path: "rows.csv"},
		Analysis: AnalysisConfig{TopN: 5},
	}))
	require.Equal(t, "rows.csv", cfg.Input.Path)
	require.Equal(t, 5, cfg.Analysis.TopN)
	require.Equal(t, 1, cfg.Analysis.SampleInterval)
}
