// ABOUTME: Application configuration stored at XDG paths with .env and environment overrides
// ABOUTME: Chooses the store backend, log destination, retry policy and Google credentials
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

const (
	AppName = "contactshq"

	StoreSQLite = "sqlite"
	StoreBadger = "badger"
)

var ErrUnknownStore = errors.New("unknown store backend")

type Config struct {
	Store         string `json:"store"`
	DBPath        string `json:"db_path"`
	BadgerDir     string `json:"badger_dir"`
	LogLevel      string `json:"log_level"`
	LogFile       string `json:"log_file,omitempty"`
	RetryAttempts uint64 `json:"retry_attempts"`
	// RetryBackoffMS is the first backoff step; later steps double.
	RetryBackoffMS int    `json:"retry_backoff_ms"`
	VCardPath      string `json:"vcard_path,omitempty"`

	GoogleClientID     string `json:"google_client_id,omitempty"`
	GoogleClientSecret string `json:"google_client_secret,omitempty"`
	GoogleTokenPath    string `json:"google_token_path"`
}

// DataDir holds the database, the Badger directory and OAuth tokens.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Path is the default config file location.
func Path() string {
	return filepath.Join(ConfigDir(), "config.json")
}

func Default() *Config {
	return &Config{
		Store:           StoreSQLite,
		DBPath:          filepath.Join(DataDir(), "contacts.db"),
		BadgerDir:       filepath.Join(DataDir(), "badger"),
		LogLevel:        "info",
		LogFile:         filepath.Join(xdg.StateHome, AppName, "contactshq.log"),
		RetryAttempts:   3,
		RetryBackoffMS:  25,
		GoogleTokenPath: filepath.Join(DataDir(), "google-credentials.json"),
	}
}

// Load reads the config file at path (Path() when empty), then applies .env files
// and CONTACTSHQ_* environment overrides. A missing file yields defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	cfg := Default()

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer func() { _ = f.Close() }()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	if err := loadEnvFiles(".env", filepath.Join(ConfigDir(), ".env")); err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFiles loads each existing file; variables already set in the environment win.
func loadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("CONTACTSHQ_STORE"); v != "" {
		cfg.Store = v
	}
	if v := os.Getenv("CONTACTSHQ_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("CONTACTSHQ_BADGER_DIR"); v != "" {
		cfg.BadgerDir = v
	}
	if v := os.Getenv("CONTACTSHQ_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv("CONTACTSHQ_LOG_FILE"); ok {
		cfg.LogFile = v
	}
	if v := os.Getenv("CONTACTSHQ_VCARD"); v != "" {
		cfg.VCardPath = v
	}
	if v := os.Getenv("CONTACTSHQ_RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid CONTACTSHQ_RETRY_ATTEMPTS: %w", err)
		}
		cfg.RetryAttempts = n
	}
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.GoogleClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.GoogleClientSecret = v
	}
	return nil
}

func (c *Config) Validate() error {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	switch c.Store {
	case StoreSQLite, StoreBadger:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownStore, c.Store)
}

func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMS) * time.Millisecond
}

// Save writes the config with owner-only permissions.
func (c *Config) Save(path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
