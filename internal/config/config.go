// Package config loads climbd configuration.
//
// Configuration comes from a single optional YAML file, selected by the
// --config flag or the CLIMBD_CONFIG environment variable. There is no
// discovery. Environment variables override values from the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"climbd/internal/oauth"
)

const (
	// DefaultScope lets the relay create activities on the athlete's behalf.
	DefaultScope = "activity:write"

	// DefaultRedirectURI is the loopback address the OAuth receiver binds.
	DefaultRedirectURI = "http://localhost:8081/exchange_token"

	DefaultAuthorizeURL = oauth.StravaAuthorizeURL

	// DefaultServiceAccountFile is read when no inline key is configured.
	DefaultServiceAccountFile = "service-account.json"
)

var (
	ErrMissingClientID   = errors.New("strava.client_id is required")
	ErrMissingRelayURL   = errors.New("relay.url is required")
	ErrMissingRelayKey   = errors.New("relay.key is required")
	ErrInvalidRedirect   = errors.New("strava.redirect_uri must be a loopback http URL with a port")
	ErrInvalidLogLevel   = errors.New("log.level must be one of debug, info, warn, error")
	ErrNegativeTimeout   = errors.New("relay.timeout must not be negative")
	ErrMissingServiceKey = errors.New("calendar.service_account or calendar.service_account_file is required when calendar.id is set")
)

// Config is the complete climbd configuration.
type Config struct {
	Strava   StravaConfig   `yaml:"strava"`
	Relay    RelayConfig    `yaml:"relay"`
	Storage  StorageConfig  `yaml:"storage"`
	Calendar CalendarConfig `yaml:"calendar"`
	Export   ExportConfig   `yaml:"export"`
	Log      LogConfig      `yaml:"log"`
}

// StravaConfig configures the OAuth authorize request.
type StravaConfig struct {
	ClientID     string `yaml:"client_id"`
	AuthorizeURL string `yaml:"authorize_url"`
	Scope        string `yaml:"scope"`
	RedirectURI  string `yaml:"redirect_uri"`
}

// RelayConfig points at the Supabase project hosting the auth and upload
// functions.
type RelayConfig struct {
	URL string `yaml:"url"`
	Key string `yaml:"key"`
	// Timeout bounds each relay call. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

// CalendarConfig enables the Google Calendar mirror when ID is set.
type CalendarConfig struct {
	ID string `yaml:"id"`
	// ServiceAccount is an inline service account JSON key. It takes
	// precedence over ServiceAccountFile.
	ServiceAccount     string `yaml:"service_account"`
	ServiceAccountFile string `yaml:"service_account_file"`
	// Timezone is the IANA zone activities are recorded in. Empty means
	// the system zone.
	Timezone string `yaml:"timezone"`
}

// ExportConfig enables ICS export when ICSDir is set.
type ExportConfig struct {
	ICSDir string `yaml:"ics_dir"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// File receives logs. In TUI mode logs are discarded when it is empty.
	File string `yaml:"file"`
}

// Default returns the configuration used before the file and environment
// are applied.
func Default() Config {
	return Config{
		Strava: StravaConfig{
			AuthorizeURL: DefaultAuthorizeURL,
			Scope:        DefaultScope,
			RedirectURI:  DefaultRedirectURI,
		},
		Storage: StorageConfig{Path: defaultStoragePath()},
		Log:     LogConfig{Level: "info"},
	}
}

func defaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".climbd", "storage.json")
	}
	return filepath.Join(dir, "climbd", "storage.json")
}

// Load reads the YAML file at path, if any, and applies environment
// overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Strava.ClientID = getEnv("STRAVA_CLIENT_ID", c.Strava.ClientID)
	c.Strava.Scope = getEnv("STRAVA_SCOPE", c.Strava.Scope)
	c.Strava.RedirectURI = getEnv("STRAVA_REDIRECT_URI", c.Strava.RedirectURI)
	c.Relay.URL = getEnv("CLIMBD_RELAY_URL", c.Relay.URL)
	c.Relay.Key = getEnv("CLIMBD_RELAY_KEY", c.Relay.Key)
	c.Storage.Path = getEnv("CLIMBD_STORAGE_PATH", c.Storage.Path)
	c.Calendar.ID = getEnv("GOOGLE_CALENDAR_ID", c.Calendar.ID)
	c.Calendar.ServiceAccount = getEnv("GOOGLE_SERVICE_ACCOUNT", c.Calendar.ServiceAccount)
	c.Export.ICSDir = getEnv("CLIMBD_ICS_DIR", c.Export.ICSDir)
	c.Log.Level = getEnv("CLIMBD_LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("CLIMBD_LOG_FILE", c.Log.File)

	if value, ok := os.LookupEnv("CLIMBD_RELAY_TIMEOUT"); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("CLIMBD_RELAY_TIMEOUT: %w", err)
		}
		c.Relay.Timeout = d
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// Validate reports every problem with the configuration, joined.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Strava.ClientID) == "" {
		errs = append(errs, ErrMissingClientID)
	}
	if strings.TrimSpace(c.Relay.URL) == "" {
		errs = append(errs, ErrMissingRelayURL)
	}
	if strings.TrimSpace(c.Relay.Key) == "" {
		errs = append(errs, ErrMissingRelayKey)
	}
	if c.Relay.Timeout < 0 {
		errs = append(errs, ErrNegativeTimeout)
	}
	if !isLoopbackHTTP(c.Strava.RedirectURI) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidRedirect, c.Strava.RedirectURI))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Calendar.ID != "" && c.Calendar.ServiceAccount == "" && c.Calendar.ServiceAccountFile == "" {
		errs = append(errs, ErrMissingServiceKey)
	}
	if c.Calendar.Timezone != "" {
		if _, err := time.LoadLocation(c.Calendar.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("calendar.timezone: %w", err))
		}
	}
	return errors.Join(errs...)
}

func isLoopbackHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "http" || u.Port() == "" {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// LogLevel parses Log.Level. An empty level is info.
func (c Config) LogLevel() (slog.Level, error) {
	switch strings.ToLower(c.Log.Level) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
}

// ServiceAccountKey returns the Google service account JSON key, inline
// or read from ServiceAccountFile.
func (c Config) ServiceAccountKey() ([]byte, error) {
	if c.Calendar.ServiceAccount != "" {
		return []byte(c.Calendar.ServiceAccount), nil
	}
	path := c.Calendar.ServiceAccountFile
	if path == "" {
		path = DefaultServiceAccountFile
	}
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read service account key (tried GOOGLE_SERVICE_ACCOUNT and %s): %w", path, err)
	}
	return key, nil
}

// Location resolves Calendar.Timezone, defaulting to time.Local.
func (c Config) Location() (*time.Location, error) {
	if c.Calendar.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Calendar.Timezone)
}
