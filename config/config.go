// Package config holds the capture configuration. Values come from
// defaults, then ~/.newscapture/config.yaml (or an explicit file), then
// NEWSCAPTURE_* environment variables, with later sources taking priority.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Archive modes.
const (
	ArchiveDrive = "drive"
	ArchiveDir   = "dir"
	ArchiveNone  = "none"
)

// Duration is a time.Duration written as "90s" or "2m" in YAML.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// BrowserConfig configures the rendering engine.
type BrowserConfig struct {
	Headless        bool     `yaml:"headless"`
	RemoteURL       string   `yaml:"remote_url"`
	ViewportWidth   int      `yaml:"viewport_width"`
	ViewportHeight  int      `yaml:"viewport_height"`
	HomepageTimeout Duration `yaml:"homepage_timeout"`
	ArticleTimeout  Duration `yaml:"article_timeout"`
	ProfileTimeout  Duration `yaml:"profile_timeout"`
	Settle          Duration `yaml:"settle"`
}

// CaptureConfig configures sessions.
type CaptureConfig struct {
	// Sites limits which registered sites run. Empty means all.
	Sites    []string `yaml:"sites"`
	Workers  int      `yaml:"workers"`
	Keywords []string `yaml:"keywords"`
	// Interval is the watch period.
	Interval Duration `yaml:"interval"`
}

// GoogleConfig configures credentials and the Sheets sink.
type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
	Sheets          bool   `yaml:"sheets"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	SheetName       string `yaml:"sheet_name"`
}

// ArchiveConfig configures where snapshots go.
type ArchiveConfig struct {
	Mode string `yaml:"mode"`
	Dir  string `yaml:"dir"`
	// Folders maps a site name to its parent folder id.
	Folders map[string]string `yaml:"folders"`
}

// StorageConfig configures the run ledger.
type StorageConfig struct {
	// DSN is the sqlite path. Empty disables the ledger.
	DSN        string   `yaml:"dsn"`
	StaleAfter Duration `yaml:"stale_after"`
}

// OutputConfig configures local tabular output.
type OutputConfig struct {
	// CSVFile receives the same rows as the spreadsheet. Empty disables it.
	CSVFile string `yaml:"csv_file"`
}

// APIConfig configures the status server.
type APIConfig struct {
	Addr string `yaml:"addr"`
}

// SiteConfig extends a built-in site adapter.
type SiteConfig struct {
	Exclude []string `yaml:"exclude"`
	FeedURL string   `yaml:"feed_url"`
}

// Config is the complete configuration.
type Config struct {
	Browser  BrowserConfig         `yaml:"browser"`
	Capture  CaptureConfig         `yaml:"capture"`
	Google   GoogleConfig          `yaml:"google"`
	Archive  ArchiveConfig         `yaml:"archive"`
	Storage  StorageConfig         `yaml:"storage"`
	Output   OutputConfig          `yaml:"output"`
	API      APIConfig             `yaml:"api"`
	Sites    map[string]SiteConfig `yaml:"sites"`
	LogLevel string                `yaml:"log_level"`
}

// Default returns the configuration used when nothing is set. Paths live
// under dir, normally ~/.newscapture.
func Default(dir string) *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:        true,
			ViewportWidth:   1600,
			ViewportHeight:  4000,
			HomepageTimeout: Duration(120 * time.Second),
			ArticleTimeout:  Duration(60 * time.Second),
			ProfileTimeout:  Duration(60 * time.Second),
			Settle:          Duration(2 * time.Second),
		},
		Capture: CaptureConfig{
			Workers:  1,
			Interval: Duration(6 * time.Hour),
		},
		Google: GoogleConfig{
			CredentialsFile: filepath.Join(dir, "credentials.json"),
			TokenFile:       filepath.Join(dir, "token.json"),
			SheetName:       "Sheet1",
		},
		Archive: ArchiveConfig{
			Mode: ArchiveDir,
			Dir:  filepath.Join(dir, "archive"),
		},
		Storage: StorageConfig{
			DSN:        filepath.Join(dir, "runs.db"),
			StaleAfter: Duration(6 * time.Hour),
		},
		API:      APIConfig{Addr: "localhost:8082"},
		LogLevel: "info",
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Archive.Mode {
	case ArchiveDrive, ArchiveDir, ArchiveNone:
	default:
		errs = append(errs, fmt.Errorf("unknown archive mode %q (want drive, dir or none)", c.Archive.Mode))
	}
	if c.Archive.Mode == ArchiveDir && c.Archive.Dir == "" {
		errs = append(errs, errors.New("archive.dir is required when archive mode is dir"))
	}
	if c.Capture.Workers < 1 {
		errs = append(errs, fmt.Errorf("capture.workers must be at least 1, got %d", c.Capture.Workers))
	}
	if c.Google.Sheets && c.Google.SpreadsheetID == "" {
		errs = append(errs, errors.New("google.spreadsheet_id is required when sheets are enabled"))
	}
	if c.NeedsGoogle() && c.Google.CredentialsFile == "" {
		errs = append(errs, errors.New("google.credentials_file is required for drive archiving or sheets"))
	}
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		errs = append(errs, errors.New("browser viewport must be positive"))
	}
	for name, d := range map[string]Duration{
		"browser.homepage_timeout": c.Browser.HomepageTimeout,
		"browser.article_timeout":  c.Browser.ArticleTimeout,
		"browser.profile_timeout":  c.Browser.ProfileTimeout,
		"capture.interval":         c.Capture.Interval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// NeedsGoogle reports whether any Google collaborator is enabled.
func (c *Config) NeedsGoogle() bool {
	return c.Archive.Mode == ArchiveDrive || c.Google.Sheets
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return level, nil
}
