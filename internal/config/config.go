// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/basket-scraper/internal/extract"
	"github.com/jonathan/basket-scraper/internal/fetch"
	"github.com/jonathan/basket-scraper/internal/schemas"
)

// DefaultURL is the published OPEC Reference Basket daily archive.
const DefaultURL = "https://www.opec.org/basket/basketDayArchives.xml"

// DefaultOutput is the CSV file written when no output is configured.
const DefaultOutput = "opec_basket_data.csv"

// Config represents the CLI configuration that can be loaded from a JSON or YAML file.
// All fields are optional in the file; missing values use defaults or CLI flags.
type Config struct {
	// Source and destination
	URL    string `json:"url,omitempty" yaml:"url,omitempty" validate:"required,url"`
	Output string `json:"output,omitempty" yaml:"output,omitempty" validate:"required"`
	Format string `json:"format,omitempty" yaml:"format,omitempty" validate:"omitempty,oneof=csv parquet json"`
	Layout string `json:"layout,omitempty" yaml:"layout,omitempty" validate:"omitempty,oneof=full pair"`

	// Records
	Currency string             `json:"currency,omitempty" yaml:"currency,omitempty" validate:"omitempty,alpha,len=3"`
	Shapes   extract.ShapeNames `json:"shapes,omitempty" yaml:"shapes,omitempty"`

	// Behavior
	Strict             bool          `json:"strict,omitempty" yaml:"strict,omitempty"`                             // Zero records fails the run
	UseBrowser         bool          `json:"use_browser,omitempty" yaml:"use_browser,omitempty"`                   // Enable headless browser strategies
	HTTPTimeoutSeconds int           `json:"http_timeout_seconds,omitempty" yaml:"http_timeout_seconds,omitempty" validate:"gte=0"`
	Browser            BrowserConfig `json:"browser,omitempty" yaml:"browser,omitempty"`
	DatabaseURL        string        `json:"database_url,omitempty" yaml:"database_url,omitempty"` // PostgreSQL URL for run history
	Verbose            bool          `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	LogLevel           string        `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
}

// BrowserConfig holds the headless browser knobs. Nil booleans mean "use the default" (true).
type BrowserConfig struct {
	Headless               *bool `json:"headless,omitempty" yaml:"headless,omitempty"`
	NoSandbox              *bool `json:"no_sandbox,omitempty" yaml:"no_sandbox,omitempty"`
	DisableDevShmUsage     *bool `json:"disable_dev_shm_usage,omitempty" yaml:"disable_dev_shm_usage,omitempty"`
	WindowWidth            int   `json:"window_width,omitempty" yaml:"window_width,omitempty" validate:"gte=0"`
	WindowHeight           int   `json:"window_height,omitempty" yaml:"window_height,omitempty" validate:"gte=0"`
	PreWaitSeconds         int   `json:"pre_wait_seconds,omitempty" yaml:"pre_wait_seconds,omitempty" validate:"gte=0,lte=10"`
	NavigateTimeoutSeconds int   `json:"navigate_timeout_seconds,omitempty" yaml:"navigate_timeout_seconds,omitempty" validate:"gte=0"`
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// The raw document is checked against the configuration schema before decoding.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(data)
	default:
		return parseJSON(data)
	}
}

func parseJSON(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := schemas.ValidateConfigJSON(data); err != nil {
		return nil, fmt.Errorf("config does not match schema: %w", err)
	}
	return &cfg, nil
}

func parseYAML(data []byte) (*Config, error) {
	// Expand ${VAR} environment variables
	expanded := []byte(os.ExpandEnv(string(data)))

	var raw map[string]any
	if err := yaml.Unmarshal(expanded, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	// An empty value (often an unset ${VAR}) decodes as null; treat it as absent
	dropNulls(raw)
	if err := schemas.ValidateConfigValue(raw); err != nil {
		return nil, fmt.Errorf("config does not match schema: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return &cfg, nil
}

func dropNulls(m map[string]any) {
	for k, v := range m {
		switch vv := v.(type) {
		case nil:
			delete(m, k)
		case map[string]any:
			dropNulls(vv)
		}
	}
}

// Validate checks that the configuration has valid values.
// Call it after merging defaults; url and output are required.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("'%s' failed '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config error: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// Defaults returns the values used for anything neither the file nor the flags set.
func Defaults() Config {
	return Config{
		URL:                DefaultURL,
		Output:             DefaultOutput,
		Format:             "csv",
		Layout:             "full",
		Currency:           "USD",
		HTTPTimeoutSeconds: int(fetch.DefaultTimeout / time.Second),
		Browser: BrowserConfig{
			WindowWidth:            1920,
			WindowHeight:           1080,
			PreWaitSeconds:         int(fetch.MaxPreWait / time.Second),
			NavigateTimeoutSeconds: int(fetch.DefaultNavigateTimeout / time.Second),
		},
		LogLevel: "info",
	}
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.URL == "" {
		result.URL = defaults.URL
	}
	if result.Output == "" {
		result.Output = defaults.Output
	}
	if result.Format == "" {
		result.Format = defaults.Format
	}
	if result.Layout == "" {
		result.Layout = defaults.Layout
	}
	if result.Currency == "" {
		result.Currency = defaults.Currency
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}

	// Int fields: use default if zero
	if result.HTTPTimeoutSeconds == 0 {
		result.HTTPTimeoutSeconds = defaults.HTTPTimeoutSeconds
	}
	if result.Browser.WindowWidth == 0 {
		result.Browser.WindowWidth = defaults.Browser.WindowWidth
	}
	if result.Browser.WindowHeight == 0 {
		result.Browser.WindowHeight = defaults.Browser.WindowHeight
	}
	if result.Browser.PreWaitSeconds == 0 {
		result.Browser.PreWaitSeconds = defaults.Browser.PreWaitSeconds
	}
	if result.Browser.NavigateTimeoutSeconds == 0 {
		result.Browser.NavigateTimeoutSeconds = defaults.Browser.NavigateTimeoutSeconds
	}

	// Pointer bools: nil means unset
	if result.Browser.Headless == nil {
		result.Browser.Headless = defaults.Browser.Headless
	}
	if result.Browser.NoSandbox == nil {
		result.Browser.NoSandbox = defaults.Browser.NoSandbox
	}
	if result.Browser.DisableDevShmUsage == nil {
		result.Browser.DisableDevShmUsage = defaults.Browser.DisableDevShmUsage
	}

	// Plain bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// HTTPOptions converts the configuration into fetch options.
func (c *Config) HTTPOptions() *fetch.Options {
	opts := fetch.DefaultOptions()
	if c.HTTPTimeoutSeconds > 0 {
		opts.Timeout = time.Duration(c.HTTPTimeoutSeconds) * time.Second
	}
	return opts
}

// BrowserOptions converts the configuration into renderer options.
func (c *Config) BrowserOptions() fetch.BrowserOptions {
	opts := fetch.DefaultBrowserOptions()
	b := c.Browser
	if b.Headless != nil {
		opts.Headless = *b.Headless
	}
	if b.NoSandbox != nil {
		opts.NoSandbox = *b.NoSandbox
	}
	if b.DisableDevShmUsage != nil {
		opts.DisableDevShmUsage = *b.DisableDevShmUsage
	}
	if b.WindowWidth > 0 {
		opts.WindowWidth = b.WindowWidth
	}
	if b.WindowHeight > 0 {
		opts.WindowHeight = b.WindowHeight
	}
	if b.PreWaitSeconds > 0 {
		opts.PreWait = time.Duration(b.PreWaitSeconds) * time.Second
	}
	if b.NavigateTimeoutSeconds > 0 {
		opts.NavigateTimeout = time.Duration(b.NavigateTimeoutSeconds) * time.Second
	}
	return opts
}
