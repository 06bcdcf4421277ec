// Package main provides the entry point for the basket scraper CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "basket_scraper",
	Short: "OPEC Reference Basket price scraper",
	Long: `basket_scraper retrieves the OPEC Reference Basket daily archive, extracts its date/price
records and writes them to CSV (or Parquet/JSON). Runs can optionally be recorded in PostgreSQL.`,
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
