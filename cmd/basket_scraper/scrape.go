package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jonathan/basket-scraper/internal/config"
	"github.com/jonathan/basket-scraper/internal/db"
	"github.com/jonathan/basket-scraper/internal/extract"
	"github.com/jonathan/basket-scraper/internal/fetch"
	"github.com/jonathan/basket-scraper/internal/observability"
	"github.com/jonathan/basket-scraper/internal/pipeline"
	"github.com/jonathan/basket-scraper/internal/sink"
)

var scrapeCommand = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch the basket archive and write its records",
	Long: `Fetches the source document over HTTP, falling back to a headless browser when --use-browser is set,
extracts its date/price records and writes them to the output file.

Configuration can be loaded from a JSON or YAML file using --config. Command-line arguments override config file values.
Without --strict a document with no records leaves the existing output untouched and exits successfully.`,
	RunE: runScrapeCmd,
}

var (
	scrapeOutput  outputFlags
	scrapeBrowser browserFlags
)

func init() {
	scrapeOutput.register(scrapeCommand)
	scrapeBrowser.register(scrapeCommand)

	rootCmd.AddCommand(scrapeCommand)
}

func runScrapeCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(scrapeOutput.configPath,
		func(c *config.Config) error { return scrapeOutput.apply(cmd, c) },
		func(c *config.Config) error { return scrapeBrowser.apply(cmd, c) },
	)
	if err != nil {
		return err
	}

	logger, err := setupLogger(os.Stderr, cfg.LogLevel, cfg.Verbose)
	if err != nil {
		return err
	}
	if scrapeOutput.configPath != "" {
		logger.Debug().Str("path", scrapeOutput.configPath).Msg("loaded config")
	}

	var renderer fetch.Renderer
	browserOpts := cfg.BrowserOptions()
	if cfg.UseBrowser {
		renderer = fetch.NewChromeRenderer(browserOpts, logger)
	}
	acquirer := fetch.NewAcquirer(fetch.AcquirerConfig{
		HTTP:     cfg.HTTPOptions(),
		Renderer: renderer,
		PreWait:  browserOpts.EffectivePreWait(),
		Logger:   logger,
	})

	return runPipeline(ctx, cmd, cfg, cfg.URL, acquirer, logger)
}

// runPipeline wires the extractor, writer and optional run history around acquirer and runs one pass.
func runPipeline(ctx context.Context, cmd *cobra.Command, cfg config.Config, source string, acquirer pipeline.Acquirer, logger zerolog.Logger) error {
	writer, err := sink.NewWriter(cfg.Format, sink.Layout(cfg.Layout))
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		Source:   source,
		Output:   cfg.Output,
		Strict:   cfg.Strict,
		Acquirer: acquirer,
		Extractor: extract.New(extract.Options{
			Currency: cfg.Currency,
			Names:    cfg.Shapes,
			Logger:   logger,
		}),
		Writer: writer,
		Logger: logger,
		OnProgress: func(e pipeline.ProgressEvent) {
			logger.Debug().Str("stage", e.Stage).Msg(e.Message)
		},
	}

	// Run history is optional; a database that cannot be reached is reported and skipped
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to connect to database; continuing without run history")
		} else {
			defer database.Close()
			if err := database.Migrate(ctx); err != nil {
				logger.Warn().Err(err).Msg("failed to migrate database; continuing without run history")
			} else {
				opts.Store = database
			}
		}
	}

	result, err := pipeline.Run(ctx, opts)
	if cfg.Verbose {
		printer := observability.NewPrinter(cmd.OutOrStdout())
		printer.PrintRunSummary(result)
		if result != nil {
			printer.PrintRecords(result.Records)
		}
	}
	if err != nil {
		return err
	}

	switch result.Outcome.Status {
	case sink.StatusWritten:
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records to %s\n", result.Outcome.Rows, result.Outcome.Path)
	case sink.StatusSkippedEmpty:
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No records extracted; %s left unchanged\n", result.Outcome.Path)
	}
	return nil
}
