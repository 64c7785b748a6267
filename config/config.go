// Package config loads the dashboard configuration from defaults, an optional YAML file and
// FORECASTBOARD_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aouyang1/go-forecastboard/dashboard"
	"github.com/aouyang1/go-forecastboard/event"
	"github.com/aouyang1/go-forecastboard/sheet"
	"gopkg.in/yaml.v2"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const (
	envPrefix = "FORECASTBOARD_"

	DefaultAddr          = ":8080"
	DefaultSpreadsheetID = "1pjRKmpjqwIkV41Q0DOS3x0QgLGO13LDQNJJyo3kR2fM"
)

type Config struct {
	Addr       string `yaml:"addr"`
	Title      string `yaml:"title"`
	AssetsHost string `yaml:"assetsHost"`

	// HolidayMarkers names the Indonesian national holidays drawn on the forecast chart, see
	// event.Names. Only fixed-date and Easter-based holidays are available.
	HolidayMarkers []string `yaml:"holidayMarkers"`

	Sheets SheetsConfig `yaml:"sheets"`

	// Modes maps a mode id to its spreadsheet tabs. A mode given in the file replaces its
	// default entry as a whole.
	Modes map[string]DatasetConfig `yaml:"modes"`
}

type SheetsConfig struct {
	BaseURL      string        `yaml:"baseURL"`
	Timeout      time.Duration `yaml:"timeout"`
	Retries      int           `yaml:"retries"`
	RetryBackoff time.Duration `yaml:"retryBackoff"`
	UserAgent    string        `yaml:"userAgent"`
}

type DatasetConfig struct {
	SpreadsheetID string     `yaml:"spreadsheetId"`
	Tabs          TabsConfig `yaml:"tabs"`
}

type TabsConfig struct {
	Actual   string `yaml:"actual"`
	Train    string `yaml:"train"`
	Test     string `yaml:"test"`
	Forecast string `yaml:"forecast"`
}

// Default returns the configuration of the ship dataset with no holiday markers.
func Default() *Config {
	return &Config{
		Addr:  DefaultAddr,
		Title: dashboard.DefaultTitle,
		Sheets: SheetsConfig{
			BaseURL:      sheet.DefaultBaseURL,
			Timeout:      30 * time.Second,
			Retries:      1,
			RetryBackoff: 500 * time.Millisecond,
			UserAgent:    sheet.DefaultUserAgent,
		},
		Modes: map[string]DatasetConfig{
			string(dashboard.ModeShip): {
				SpreadsheetID: DefaultSpreadsheetID,
				Tabs: TabsConfig{
					Actual:   "542042387",
					Train:    "1217230565",
					Test:     "1677129148",
					Forecast: "0",
				},
			},
		},
	}
}

// Load applies the YAML file at path, when given, and the environment over the defaults and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	slog.Debug("loaded configuration",
		"addr", cfg.Addr,
		"sheetsBaseURL", cfg.Sheets.BaseURL,
		"modes", len(cfg.Modes),
		"holidayMarkers", cfg.HolidayMarkers,
	)
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read config file %s, %w", path, err)
	}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return fmt.Errorf("unable to parse config file %s, %v, %w", path, err, ErrInvalidConfig)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

// applyEnv overrides fields from FORECASTBOARD_* variables. The spreadsheet and tab variables
// apply to the ship mode. Malformed numbers and durations keep the current value.
func (c *Config) applyEnv(lookup lookupFunc) {
	env := func(key string) (string, bool) {
		v, exists := lookup(envPrefix + key)
		v = strings.TrimSpace(v)
		return v, exists && v != ""
	}

	if v, ok := env("ADDR"); ok {
		c.Addr = v
	}
	if v, ok := env("TITLE"); ok {
		c.Title = v
	}
	if v, ok := env("ASSETS_HOST"); ok {
		c.AssetsHost = v
	}
	if v, ok := env("HOLIDAY_MARKERS"); ok {
		c.HolidayMarkers = splitList(v)
	}
	if v, ok := env("SHEETS_BASE_URL"); ok {
		c.Sheets.BaseURL = v
	}
	if v, ok := env("FETCH_TIMEOUT"); ok {
		c.Sheets.Timeout = durationOr(envPrefix+"FETCH_TIMEOUT", v, c.Sheets.Timeout)
	}
	if v, ok := env("FETCH_RETRIES"); ok {
		c.Sheets.Retries = intOr(envPrefix+"FETCH_RETRIES", v, c.Sheets.Retries)
	}

	ship := string(dashboard.ModeShip)
	ds := c.Modes[ship]
	changed := false
	for key, dst := range map[string]*string{
		"SPREADSHEET_ID": &ds.SpreadsheetID,
		"TAB_ACTUAL":     &ds.Tabs.Actual,
		"TAB_TRAIN":      &ds.Tabs.Train,
		"TAB_TEST":       &ds.Tabs.Test,
		"TAB_FORECAST":   &ds.Tabs.Forecast,
	} {
		if v, ok := env(key); ok {
			*dst = v
			changed = true
		}
	}
	if changed {
		if c.Modes == nil {
			c.Modes = make(map[string]DatasetConfig)
		}
		c.Modes[ship] = ds
	}
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func durationOr(key, v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration value, using current", "key", key, "value", v, "current", def)
		return def
	}
	return d
}

func intOr(key, v string, def int) int {
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer value, using current", "key", key, "value", v, "current", def)
		return def
	}
	return i
}

// Validate reports every problem found, each wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format+", %w", append(args, ErrInvalidConfig)...))
	}

	if c.Addr == "" {
		invalid("addr is empty")
	}
	if u, err := url.Parse(c.Sheets.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		invalid("sheets base url %q is not an http(s) url", c.Sheets.BaseURL)
	}
	if c.Sheets.Timeout <= 0 {
		invalid("sheets timeout %s must be positive", c.Sheets.Timeout)
	}
	if c.Sheets.Retries < 0 {
		invalid("sheets retries %d must not be negative", c.Sheets.Retries)
	}
	if c.Sheets.RetryBackoff < 0 {
		invalid("sheets retry backoff %s must not be negative", c.Sheets.RetryBackoff)
	}

	for _, name := range c.HolidayMarkers {
		if _, err := event.Lookup(name); err != nil {
			invalid("holiday marker %q, known markers are %v", name, event.Names())
		}
	}

	ids := make([]string, 0, len(c.Modes))
	for id := range c.Modes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, err := dashboard.ParseMode(id); err != nil {
			invalid("mode %q is not one of %v", id, dashboard.Modes())
			continue
		}
		ds := c.Modes[id]
		tabs := []string{ds.Tabs.Actual, ds.Tabs.Train, ds.Tabs.Test, ds.Tabs.Forecast}
		anyTab := false
		for _, tab := range tabs {
			anyTab = anyTab || tab != ""
		}
		if anyTab && ds.SpreadsheetID == "" {
			invalid("mode %q has tabs but no spreadsheet id", id)
		}
	}
	return errors.Join(errs...)
}

// Holidays returns the configured holiday marker names.
func (c *Config) Holidays() []string {
	out := make([]string, len(c.HolidayMarkers))
	copy(out, c.HolidayMarkers)
	return out
}

// DatasetsByMode resolves the configured modes into dashboard datasets. Unknown modes are
// skipped; Validate reports them.
func (c *Config) DatasetsByMode() map[dashboard.Mode]dashboard.Dataset {
	out := make(map[dashboard.Mode]dashboard.Dataset, len(c.Modes))
	for id, ds := range c.Modes {
		mode, err := dashboard.ParseMode(id)
		if err != nil {
			continue
		}
		source := func(tab string) sheet.Source {
			if tab == "" {
				return sheet.Source{}
			}
			return sheet.Source{SpreadsheetID: ds.SpreadsheetID, TabID: tab}
		}
		out[mode] = dashboard.Dataset{
			Actual:   source(ds.Tabs.Actual),
			Train:    source(ds.Tabs.Train),
			Test:     source(ds.Tabs.Test),
			Forecast: source(ds.Tabs.Forecast),
		}
	}
	return out
}

// SheetOptions builds the sheet client options from the configuration.
func (c *Config) SheetOptions() []sheet.ClientOption {
	opts := []sheet.ClientOption{
		sheet.WithBaseURL(c.Sheets.BaseURL),
		sheet.WithTimeout(c.Sheets.Timeout),
		sheet.WithRetries(c.Sheets.Retries, c.Sheets.RetryBackoff),
	}
	if c.Sheets.UserAgent != "" {
		opts = append(opts, sheet.WithUserAgent(c.Sheets.UserAgent))
	}
	return opts
}

// DashboardOptions builds the dashboard options from the configuration.
func (c *Config) DashboardOptions() []dashboard.Option {
	opts := []dashboard.Option{
		dashboard.WithHolidays(c.Holidays()...),
	}
	if c.Title != "" {
		opts = append(opts, dashboard.WithTitle(c.Title))
	}
	if c.AssetsHost != "" {
		opts = append(opts, dashboard.WithAssetsHost(c.AssetsHost))
	}
	return opts
}
