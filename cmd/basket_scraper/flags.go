package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/basket-scraper/internal/config"
)

// outputFlags are shared by every command that writes a batch.
type outputFlags struct {
	configPath  string
	output      string
	format      string
	layout      string
	currency    string
	strict      bool
	verbose     bool
	logLevel    string
	databaseURL string
}

func (f *outputFlags) register(cmd *cobra.Command) {
	// Config file flag (processed first)
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to a .json/.yaml config file (values can be overridden by other flags)")

	cmd.Flags().StringVarP(&f.output, "out", "o", "", "Output file path (default "+config.DefaultOutput+")")
	cmd.Flags().StringVar(&f.format, "format", "", "Output format: csv, parquet, json (default csv)")
	cmd.Flags().StringVar(&f.layout, "layout", "", "Column layout: full (Date,Price,Currency) or pair (date,price)")
	cmd.Flags().StringVar(&f.currency, "currency", "", "Currency code attached to every record (default USD)")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Fail when no records are extracted")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Print detailed debug information")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	// Database URL for run history
	cmd.Flags().StringVar(&f.databaseURL, "db-url", "", "PostgreSQL connection URL for run history (optional, defaults to DATABASE_URL env var)")
}

// apply copies explicitly set flags over cfg.
func (f *outputFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("out") {
		cfg.Output = f.output
	}
	if cmd.Flags().Changed("format") {
		cfg.Format = f.format
	}
	if cmd.Flags().Changed("layout") {
		cfg.Layout = f.layout
	}
	if cmd.Flags().Changed("currency") {
		cfg.Currency = strings.ToUpper(f.currency)
	}
	if cmd.Flags().Changed("strict") {
		cfg.Strict = f.strict
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = f.verbose
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = f.databaseURL
	}
	return nil
}

// browserFlags configure the HTTP and headless browser strategies of the scrape command.
type browserFlags struct {
	url                    string
	useBrowser             bool
	headless               bool
	noSandbox              bool
	disableDevShmUsage     bool
	windowSize             string
	preWaitSeconds         int
	navigateTimeoutSeconds int
	httpTimeoutSeconds     int
}

func (f *browserFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.url, "url", "u", "", "Source URL (default "+config.DefaultURL+")")
	cmd.Flags().IntVar(&f.httpTimeoutSeconds, "http-timeout", 0, "HTTP request timeout in seconds (default 30)")
	cmd.Flags().BoolVar(&f.useBrowser, "use-browser", false, "Fall back to a headless browser when plain HTTP fails (requires Chrome)")
	cmd.Flags().BoolVar(&f.headless, "headless", true, "Run the browser without a window")
	cmd.Flags().BoolVar(&f.noSandbox, "no-sandbox", true, "Disable the browser sandbox")
	cmd.Flags().BoolVar(&f.disableDevShmUsage, "disable-dev-shm-usage", true, "Do not use /dev/shm for browser shared memory")
	cmd.Flags().StringVar(&f.windowSize, "window-size", "", "Browser window size as WIDTH,HEIGHT (default 1920,1080)")
	cmd.Flags().IntVar(&f.preWaitSeconds, "pre-wait", 0, "Seconds to wait for the XML viewer's <pre> element (max 10)")
	cmd.Flags().IntVar(&f.navigateTimeoutSeconds, "navigate-timeout", 0, "Browser navigation timeout in seconds (default 30)")
}

func (f *browserFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("url") {
		cfg.URL = f.url
	}
	if cmd.Flags().Changed("http-timeout") {
		cfg.HTTPTimeoutSeconds = f.httpTimeoutSeconds
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = f.useBrowser
	}
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = boolPtr(f.headless)
	}
	if cmd.Flags().Changed("no-sandbox") {
		cfg.Browser.NoSandbox = boolPtr(f.noSandbox)
	}
	if cmd.Flags().Changed("disable-dev-shm-usage") {
		cfg.Browser.DisableDevShmUsage = boolPtr(f.disableDevShmUsage)
	}
	if cmd.Flags().Changed("window-size") {
		width, height, err := parseWindowSize(f.windowSize)
		if err != nil {
			return err
		}
		cfg.Browser.WindowWidth = width
		cfg.Browser.WindowHeight = height
	}
	if cmd.Flags().Changed("pre-wait") {
		cfg.Browser.PreWaitSeconds = f.preWaitSeconds
	}
	if cmd.Flags().Changed("navigate-timeout") {
		cfg.Browser.NavigateTimeoutSeconds = f.navigateTimeoutSeconds
	}
	return nil
}

// loadConfig reads the optional config file and applies explicitly set flags over it.
// The database URL falls back to DATABASE_URL, then defaults fill the rest and the result is validated.
func loadConfig(path string, overrides ...func(*config.Config) error) (config.Config, error) {
	var cfg config.Config
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	for _, override := range overrides {
		if err := override(&cfg); err != nil {
			return config.Config{}, err
		}
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func parseWindowSize(s string) (int, int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid --window-size %q: expected WIDTH,HEIGHT", s)
	}
	width, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("invalid --window-size %q: width must be a positive integer", s)
	}
	height, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("invalid --window-size %q: height must be a positive integer", s)
	}
	return width, height, nil
}

func boolPtr(b bool) *bool {
	return &b
}
