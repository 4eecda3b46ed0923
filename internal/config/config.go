// Package config handles the configuration directory, file paths and settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// AppName is the application directory name.
	AppName = "tasktrack"

	// TokenFile is the stored credential filename (file store).
	TokenFile = "token.json"

	// DatabaseFile is the credential database filename (sqlite store).
	DatabaseFile = "tasktrack.db"

	// ConfigFile is the optional settings file.
	ConfigFile = "config.yaml"

	// EnvFile is the optional dotenv file.
	EnvFile = ".env"

	// DefaultAPIURL is the base URL of the task-tracking API.
	DefaultAPIURL = "https://invigorating-forgiveness-production.up.railway.app/api"

	// DefaultMaxLength is the default limit for task titles and descriptions.
	DefaultMaxLength = 40

	// DefaultTimeout bounds every API call.
	DefaultTimeout = 5 * time.Second
)

// Credential store kinds.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Environment variables that override file settings.
const (
	EnvAPIURL         = "TASKTRACK_API_URL"
	EnvStore          = "TASKTRACK_CREDENTIAL_STORE"
	EnvTitleMax       = "TASKTRACK_TITLE_MAX"
	EnvDescriptionMax = "TASKTRACK_DESCRIPTION_MAX"
	EnvTimeout        = "TASKTRACK_TIMEOUT"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// APIURL is the base URL of the remote API.
	APIURL string `mapstructure:"api_url"`

	// CredentialStore selects where the credential is persisted: "file" or "sqlite".
	CredentialStore string `mapstructure:"credential_store"`

	// TitleMaxLen and DescriptionMaxLen bound task fields, in characters.
	TitleMaxLen       int `mapstructure:"title_max_length"`
	DescriptionMaxLen int `mapstructure:"description_max_length"`

	// Timeout bounds each API call.
	Timeout time.Duration `mapstructure:"timeout"`
}

// Default returns a Config with defaults for dir.
func Default(dir string) *Config {
	return &Config{
		Dir:               dir,
		APIURL:            DefaultAPIURL,
		CredentialStore:   StoreFile,
		TitleMaxLen:       DefaultMaxLength,
		DescriptionMaxLen: DefaultMaxLength,
		Timeout:           DefaultTimeout,
	}
}

// New creates a Config for the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/tasktrack or $HOME/.config/tasktrack.
// Settings are layered: defaults, then config.yaml, then .env and the environment.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := Default(dir)

	if err := cfg.loadFile(); err != nil {
		return nil, err
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

func (c *Config) loadFile() error {
	path := filepath.Join(c.Dir, ConfigFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("invalid %s: %w", ConfigFile, err)
	}
	if err := v.Unmarshal(c); err != nil {
		return fmt.Errorf("invalid %s: %w", ConfigFile, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(filepath.Join(c.Dir, EnvFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("invalid %s: %w", EnvFile, err)
	}

	if v := os.Getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv(EnvStore); v != "" {
		c.CredentialStore = v
	}
	if v := os.Getenv(EnvTitleMax); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %s", EnvTitleMax, v)
		}
		c.TitleMaxLen = n
	}
	if v := os.Getenv(EnvDescriptionMax); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %s", EnvDescriptionMax, v)
		}
		c.DescriptionMaxLen = n
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %s", EnvTimeout, v)
		}
		c.Timeout = d
	}
	return nil
}

// Validate checks that settings are usable.
func (c *Config) Validate() error {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if c.APIURL == "" {
		return errors.New("api_url must not be empty")
	}
	switch c.CredentialStore {
	case StoreFile, StoreSQLite:
	default:
		return fmt.Errorf("unknown credential store: %s", c.CredentialStore)
	}
	if c.TitleMaxLen < 1 || c.DescriptionMaxLen < 1 {
		return errors.New("field length limits must be positive")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

// TokenPath returns the path to the stored credential file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// DatabasePath returns the path to the credential database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Dir, DatabaseFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}
