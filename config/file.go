package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NEWSCAPTURE_"

// Dir returns ~/.newscapture.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".newscapture"), nil
}

// Load builds the configuration with precedence:
// 1. Environment variables (highest priority)
// 2. Configuration file (path, or ~/.newscapture/config.yaml when empty)
// 3. Default values (lowest priority)
//
// A missing default file is not an error; a missing explicit file is.
func Load(path string, getenv func(string) string) (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	cfg := Default(dir)

	explicit := path != ""
	if !explicit {
		path = filepath.Join(dir, "config.yaml")
	}
	if err := LoadConfigFile(cfg, path, explicit); err != nil {
		return nil, err
	}

	if getenv == nil {
		getenv = os.Getenv
	}
	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadConfigFile overlays the YAML file at path onto cfg. A file that does
// not exist is skipped unless required is set. Returns an error if the file
// exists but cannot be parsed.
func LoadConfigFile(cfg *Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// applyEnv overlays NEWSCAPTURE_* variables onto cfg.
func applyEnv(cfg *Config, getenv func(string) string) error {
	strs := map[string]*string{
		"REMOTE_URL":       &cfg.Browser.RemoteURL,
		"CREDENTIALS_FILE": &cfg.Google.CredentialsFile,
		"TOKEN_FILE":       &cfg.Google.TokenFile,
		"SPREADSHEET_ID":   &cfg.Google.SpreadsheetID,
		"SHEET_NAME":       &cfg.Google.SheetName,
		"ARCHIVE_MODE":     &cfg.Archive.Mode,
		"ARCHIVE_DIR":      &cfg.Archive.Dir,
		"STORAGE_DSN":      &cfg.Storage.DSN,
		"API_ADDR":         &cfg.API.Addr,
		"CSV_FILE":         &cfg.Output.CSVFile,
		"LOG_LEVEL":        &cfg.LogLevel,
	}
	for key, dst := range strs {
		if val := getenv(EnvPrefix + key); val != "" {
			*dst = val
		}
	}

	durations := map[string]*Duration{
		"HOMEPAGE_TIMEOUT": &cfg.Browser.HomepageTimeout,
		"ARTICLE_TIMEOUT":  &cfg.Browser.ArticleTimeout,
		"PROFILE_TIMEOUT":  &cfg.Browser.ProfileTimeout,
		"SETTLE":           &cfg.Browser.Settle,
		"INTERVAL":         &cfg.Capture.Interval,
		"STALE_AFTER":      &cfg.Storage.StaleAfter,
	}
	for key, dst := range durations {
		if val := getenv(EnvPrefix + key); val != "" {
			d, err := time.ParseDuration(val)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
			}
			*dst = Duration(d)
		}
	}

	if val := getenv(EnvPrefix + "WORKERS"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %sWORKERS: %w", EnvPrefix, err)
		}
		cfg.Capture.Workers = n
	}

	bools := map[string]*bool{
		"HEADLESS": &cfg.Browser.Headless,
		"SHEETS":   &cfg.Google.Sheets,
	}
	for key, dst := range bools {
		if val := getenv(EnvPrefix + key); val != "" {
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
			}
			*dst = b
		}
	}

	if val := getenv(EnvPrefix + "SITES"); val != "" {
		cfg.Capture.Sites = splitList(val)
	}
	if val := getenv(EnvPrefix + "KEYWORDS"); val != "" {
		cfg.Capture.Keywords = splitList(val)
	}
	return nil
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
