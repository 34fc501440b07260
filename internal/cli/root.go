// Package cli holds the cobra commands of the paperscanner binary.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"PaperScanner/internal/app"
	"PaperScanner/internal/config"
)

const envPrefix = "PAPERSCANNER"

// Execute runs the root command. This is called by main.main().
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

// NewRootCommand builds the command tree with its own viper instance.
func NewRootCommand() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "paperscanner",
		Short: "Extract DOIs and abstracts from a table of article links",
		Long: `PaperScanner reads a table of URLs, labels every link by origin
(repository, scientific, news, social media, scam), fetches the links of the
article-bearing categories and extracts the DOI and abstract with a
publisher-specific handler. It writes per-row results and per-category and
per-publisher statistics.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	registerFlags(flags)

	cobra.CheckErr(v.BindPFlags(flags))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root.AddCommand(
		newRunCommand(v),
		newExtractCommand(v),
		newCategorizeCommand(v),
		newRunsCommand(v),
	)
	return root
}

// registerFlags declares the flags that map onto config.Config.
func registerFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "config file (default $PAPER_SCANNER_CONFIG)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (console, text, json)")
	flags.String("input", "", "input CSV with url, domain and comment columns")
	flags.String("output-dir", "", "directory for reports")
	flags.StringSlice("format", nil, "optional report formats (console, html, pdf)")
	flags.Bool("testing", false, "process every Nth selected row only")
	flags.Int("sample-interval", 0, "row interval used in testing mode")
	flags.Int("top-n", 0, "number of most frequent domains kept per category")
	flags.Int("workers", 0, "number of concurrent fetch workers")
	flags.Duration("timeout", 0, "per-request timeout")
	flags.Duration("rate-interval", 0, "minimum delay between requests (at least 1s)")
	flags.String("user-agent", "", "User-Agent header sent with every request")
	flags.Bool("bypass-cloudflare", false, "wrap the transport with cloudflare bypass headers")
	flags.String("database-dsn", "", "postgres:// URL or SQLite path for the result store")
	flags.Bool("enrich", false, "look up missing abstracts and titles on Semantic Scholar")
	flags.Bool("no-idconv", false, "do not resolve PubMed identifiers to DOIs")
	flags.String("categories", "", "YAML file overriding category tokens")
}

// loadConfig layers flags and PAPERSCANNER_* variables over the file configuration.
func loadConfig(v *viper.Viper) (config.Config, error) {
	cfg, err := config.Load(v.GetString("config"))
	if err != nil {
		return config.Config{}, err
	}

	var o config.Config
	if v.IsSet("log-level") {
		o.Logging.Level = v.GetString("log-level")
	}
	if v.IsSet("log-format") {
		o.Logging.Format = v.GetString("log-format")
	}
	if v.IsSet("input") {
		o.Input.Path = v.GetString("input")
	}
	if v.IsSet("output-dir") {
		o.Output.Dir = v.GetString("output-dir")
	}
	if v.IsSet("format") {
		o.Output.Formats = v.GetStringSlice("format")
	}
	if v.IsSet("sample-interval") {
		o.Analysis.SampleInterval = v.GetInt("sample-interval")
	}
	if v.IsSet("top-n") {
		o.Analysis.TopN = v.GetInt("top-n")
	}
	if v.IsSet("workers") {
		o.Analysis.Workers = v.GetInt("workers")
	}
	if v.IsSet("timeout") {
		o.Fetch.Timeout = v.GetDuration("timeout")
	}
	if v.IsSet("user-agent") {
		o.Fetch.UserAgent = v.GetString("user-agent")
	}
	if v.IsSet("database-dsn") {
		o.Database.DSN = v.GetString("database-dsn")
	}
	if v.IsSet("categories") {
		o.CategoriesFile = v.GetString("categories")
	}
	if err := cfg.Override(o); err != nil {
		return config.Config{}, fmt.Errorf("apply flags: %w", err)
	}

	// zero values are meaningful for these, so they bypass the merge
	if v.IsSet("testing") {
		cfg.Analysis.Testing = v.GetBool("testing")
	}
	if v.IsSet("rate-interval") {
		cfg.Fetch.RateInterval = v.GetDuration("rate-interval")
	}
	if v.IsSet("bypass-cloudflare") {
		cfg.Fetch.BypassCloudflare = v.GetBool("bypass-cloudflare")
	}
	if v.IsSet("enrich") {
		cfg.Enrichment.SemanticScholar = v.GetBool("enrich")
	}
	if v.IsSet("no-idconv") {
		cfg.Enrichment.DisableIDConv = v.GetBool("no-idconv")
	}

	return cfg, cfg.Validate()
}

func newApplication(cmd *cobra.Command, v *viper.Viper) (*app.Application, config.Config, error) {
	cfg, err := loadConfig(v)
	if err != nil {
		return nil, config.Config{}, err
	}
	application, err := app.New(cmd.Context(), cfg, app.Options{Console: cmd.OutOrStdout()})
	if err != nil {
		return nil, config.Config{}, err
	}
	return application, cfg, nil
}

func closeApplication(cmd *cobra.Command, application *app.Application) {
	if err := application.Close(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "close:", err)
	}
}
