package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"PaperScanner/internal/app"
	"PaperScanner/internal/categorize"
)

func newTable(cmd *cobra.Command) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(cmd.OutOrStdout())
	return t
}

func newRunCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Analyze the input table and write reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			application, cfg, err := newApplication(cmd, v)
			if err != nil {
				return err
			}
			defer closeApplication(cmd, application)

			report, err := application.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d urls processed, reports in %s\n",
				report.RunID, report.Stats.Totals().Processed, cfg.Output.Dir)
			return nil
		},
	}
}

func newExtractCommand(v *viper.Viper) *cobra.Command {
	var comment string

	cmd := &cobra.Command{
		Use:   "extract <url>",
		Short: "Fetch one URL and print the extracted DOI, title and abstract",
		Example: `  paperscanner extract https://www.nature.com/articles/s41586-020-1234-5
  paperscanner extract https://example.org/post --comment "see https://doi.org/10.1/xyz"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := newApplication(cmd, v)
			if err != nil {
				return err
			}
			defer closeApplication(cmd, application)

			r := application.Extract(cmd.Context(), args[0], comment)

			t := newTable(cmd)
			t.AppendHeader(table.Row{"field", "value"})
			t.AppendRows([]table.Row{
				{"url", r.URL},
				{"requested_url", r.RequestedURL},
				{"source", r.Source},
				{"category", r.Category},
				{"success", r.Success},
				{"extraction_method", r.ExtractionMethod},
				{"pattern", r.Pattern},
				{"doi", r.DOI},
				{"title", r.Title},
				{"pmid", r.PMID},
				{"pmcid", r.PMCID},
				{"paper_url", r.PaperURL},
				{"abstract", r.Abstract},
				{"enriched", r.Enriched},
				{"error", r.Error},
			})
			t.Render()

			if !r.Success {
				return fmt.Errorf("extract %s: %s", args[0], r.ErrorKind)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&comment, "comment", "", "free-text comment that may contain a better URL")
	return cmd
}

func newCategorizeCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "categorize <domain-or-url>...",
		Short: "Print the category of each domain",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			rules := categorize.DefaultRules()
			if cfg.CategoriesFile != "" {
				if rules, err = categorize.LoadRules(cfg.CategoriesFile); err != nil {
					return err
				}
			}
			c := categorize.New(rules)

			t := newTable(cmd)
			t.AppendHeader(table.Row{"domain", "category"})
			for _, arg := range args {
				d := categorize.DomainFromURL(arg)
				t.AppendRow(table.Row{d, c.Categorize(d)})
			}
			t.Render()
			return nil
		},
	}
}

func newRunsCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List stored runs, or the results of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := newApplication(cmd, v)
			if err != nil {
				return err
			}
			defer closeApplication(cmd, application)

			t := newTable(cmd)
			if len(args) == 1 {
				results, err := application.Results(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				t.AppendHeader(table.Row{"#", "category", "url", "doi", "abstract", "method", "error"})
				for i, r := range results {
					t.AppendRow(table.Row{i + 1, r.Category, r.URL, r.DOI, r.AbstractFound, r.ExtractionMethod, r.ErrorKind})
				}
				t.Render()
				return nil
			}

			runs, err := application.Runs(cmd.Context())
			if errors.Is(err, app.ErrNoDatabase) {
				return fmt.Errorf("%w: set --database-dsn or DATABASE_DSN", err)
			}
			if err != nil {
				return err
			}
			t.AppendHeader(table.Row{"run", "started", "finished", "processed", "doi %", "abstract %"})
			for _, r := range runs {
				t.AppendRow(table.Row{
					r.RunID, r.StartedAt, r.FinishedAt, r.Totals.Processed,
					strconv.FormatFloat(r.Totals.DOIPercent(), 'f', 1, 64),
					strconv.FormatFloat(r.Totals.AbstractPercent(), 'f', 1, 64),
				})
			}
			t.Render()
			return nil
		},
	}
}
