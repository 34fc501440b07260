package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "PAPER_SCANNER_CONFIG"
	databaseDSNEnv = "DATABASE_DSN"
	logLevelEnv    = "LOG_LEVEL"
	outputDirEnv   = "OUTPUT_DIR"

	DefaultUserAgent = "Mozilla/5.0 (compatible; ResearchScraper/1.0)"

	// MinRateInterval is the smallest delay allowed between requests to one service.
	MinRateInterval = time.Second

	defaultIDConvEndpoint = "https://www.ncbi.nlm.nih.gov/pmc/utils/idconv/v1.0/"
)

// Report formats besides the CSV files, which are always written.
const (
	FormatConsole = "console"
	FormatHTML    = "html"
	FormatPDF     = "pdf"
)

var knownFormats = []string{FormatConsole, FormatHTML, FormatPDF}

// Config holds high-level settings required across the application.
type Config struct {
	Logging        LoggingConfig    `yaml:"logging"`
	Input          InputConfig      `yaml:"input"`
	Output         OutputConfig     `yaml:"output"`
	Fetch          FetchConfig      `yaml:"fetch"`
	Analysis       AnalysisConfig   `yaml:"analysis"`
	Database       DatabaseConfig   `yaml:"database"`
	Enrichment     EnrichmentConfig `yaml:"enrichment"`
	CategoriesFile string           `yaml:"categoriesFile"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// InputConfig points at the table of URLs.
type InputConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig describes where reports go and which optional formats are rendered.
type OutputConfig struct {
	Dir     string   `yaml:"dir"`
	Formats []string `yaml:"formats"`
}

// Enabled reports whether an optional report format is requested.
func (o OutputConfig) Enabled(format string) bool {
	return slices.Contains(o.Formats, format)
}

// FetchConfig tunes the HTTP client.
type FetchConfig struct {
	UserAgent        string        `yaml:"userAgent"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxRedirects     int           `yaml:"maxRedirects"`
	RateInterval     time.Duration `yaml:"rateInterval"`
	CacheSize        int           `yaml:"cacheSize"`
	CacheTTL         time.Duration `yaml:"cacheTtl"`
	BypassCloudflare bool          `yaml:"bypassCloudflare"`
}

// AnalysisConfig bounds how much of the input is processed.
type AnalysisConfig struct {
	Testing        bool `yaml:"testing"`
	SampleInterval int  `yaml:"sampleInterval"`
	TopN           int  `yaml:"topN"`
	Workers        int  `yaml:"workers"`
}

// DatabaseConfig enables the result store. An empty DSN disables it.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// EnrichmentConfig controls lookups for rows missing a DOI, abstract or title.
// Semantic Scholar is opt-in; the PubMed ID converter is on unless disabled.
type EnrichmentConfig struct {
	SemanticScholar bool          `yaml:"semanticScholar"`
	Endpoint        string        `yaml:"endpoint"`
	RateInterval    time.Duration `yaml:"rateInterval"`
	DisableIDConv   bool          `yaml:"disableIdConv"`
	IDConvEndpoint  string        `yaml:"idConvEndpoint"`
}

// Load builds the configuration from defaults, the YAML file at path (or the file named by
// PAPER_SCANNER_CONFIG) and environment overrides, then validates it.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		fileCfg, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := mergo.Merge(&cfg, fileCfg, mergo.WithOverride); err != nil {
			return Config{}, fmt.Errorf("config: merge %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Override layers non-zero fields of o over c.
func (c *Config) Override(o Config) error {
	return mergo.Merge(c, o, mergo.WithOverride)
}

func readFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: cannot read %s: %w", path, err)
	}
	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return Config{}, fmt.Errorf("config: cannot parse %s: %w", path, err)
	}
	return fileCfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(outputDirEnv); v != "" {
		c.Output.Dir = v
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Logging.Format) {
	case "console", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}
	if c.Output.Dir == "" {
		errs = append(errs, errors.New("output.dir: must not be empty"))
	}
	for _, f := range c.Output.Formats {
		if !slices.Contains(knownFormats, f) {
			errs = append(errs, fmt.Errorf("output.formats: unknown format %q", f))
		}
	}
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, errors.New("fetch.timeout: must be positive"))
	}
	if c.Fetch.MaxRedirects < 1 {
		errs = append(errs, errors.New("fetch.maxRedirects: must be at least 1"))
	}
	if c.Fetch.RateInterval < MinRateInterval {
		errs = append(errs, fmt.Errorf("fetch.rateInterval: must be at least %s", MinRateInterval))
	}
	if c.Enrichment.RateInterval < MinRateInterval {
		errs = append(errs, fmt.Errorf("enrichment.rateInterval: must be at least %s", MinRateInterval))
	}
	if c.Fetch.CacheSize < 0 {
		errs = append(errs, errors.New("fetch.cacheSize: must not be negative"))
	}
	if c.Analysis.SampleInterval < 1 {
		errs = append(errs, errors.New("analysis.sampleInterval: must be at least 1"))
	}
	if c.Analysis.TopN < 0 {
		errs = append(errs, errors.New("analysis.topN: must not be negative"))
	}
	if c.Analysis.Workers < 1 {
		errs = append(errs, errors.New("analysis.workers: must be at least 1"))
	}

	return errors.Join(errs...)
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Input:   InputConfig{Path: "links.csv"},
		Output: OutputConfig{
			Dir:     "scraping_results",
			Formats: []string{FormatConsole, FormatHTML},
		},
		Fetch: FetchConfig{
			UserAgent:    DefaultUserAgent,
			Timeout:      30 * time.Second,
			MaxRedirects: 5,
			RateInterval: time.Second,
			CacheSize:    256,
			CacheTTL:     10 * time.Minute,
		},
		Analysis: AnalysisConfig{
			Testing:        false,
			SampleInterval: 1,
			TopN:           50,
			Workers:        1,
		},
		Enrichment: EnrichmentConfig{
			Endpoint:       "https://api.semanticscholar.org/graph/v1",
			RateInterval:   time.Second,
			IDConvEndpoint: defaultIDConvEndpoint,
		},
	}
}
