package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/basket-scraper/internal/config"
	"github.com/jonathan/basket-scraper/internal/fetch"
)

var extractCommand = &cobra.Command{
	Use:   "extract",
	Short: "Extract records from a saved XML document",
	Long: `Reads a previously downloaded document (raw XML or a browser's XML viewer page) from disk,
extracts its date/price records and writes them to the output file.`,
	RunE: runExtractCmd,
}

var (
	extractInput  string
	extractOutput outputFlags
)

func init() {
	extractCommand.Flags().StringVarP(&extractInput, "in", "i", "", "Path to the saved document (required)")
	extractOutput.register(extractCommand)

	_ = extractCommand.MarkFlagRequired("in")

	rootCmd.AddCommand(extractCommand)
}

func runExtractCmd(cmd *cobra.Command, _ []string) error {
	if extractInput == "" {
		return fmt.Errorf("--in is required")
	}

	cfg, err := loadConfig(extractOutput.configPath,
		func(c *config.Config) error { return extractOutput.apply(cmd, c) },
	)
	if err != nil {
		return err
	}

	logger, err := setupLogger(os.Stderr, cfg.LogLevel, cfg.Verbose)
	if err != nil {
		return err
	}

	return runPipeline(context.Background(), cmd, cfg, extractInput, fetch.FileSource{}, logger)
}
