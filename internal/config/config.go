package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"typeahead/internal/eventbus"
)

// FileName is the config file looked up in the working directory
const FileName = "typeahead.toml"

// Config represents the application configuration
type Config struct {
	Version        int           `toml:"version"`
	APIURL         string        `toml:"api_url"`
	MinQueryLength int           `toml:"min_query_length"`
	Debounce       Duration      `toml:"debounce"`
	MaxResults     int           `toml:"max_results"`
	CacheTTL       Duration      `toml:"cache_ttl"`
	CacheCapacity  int           `toml:"cache_capacity"`
	RequestTimeout Duration      `toml:"request_timeout"`
	RateLimit      float64       `toml:"rate_limit"` // requests per second, 0 = unlimited
	Retry          RetrySettings `toml:"retry"`
	UISettings     UISettings    `toml:"ui"`
	Log            LogSettings   `toml:"log"`
}

// RetrySettings controls how transient fetch failures are retried
type RetrySettings struct {
	MaxAttempts    int      `toml:"max_attempts"` // total attempts, including the first
	InitialBackoff Duration `toml:"initial_backoff"`
	MaxBackoff     Duration `toml:"max_backoff"`
}

// UISettings represents UI-related configuration
type UISettings struct {
	ShowDescriptions bool   `toml:"show_descriptions"`
	Placeholder      string `toml:"placeholder"`
	Prompt           string `toml:"prompt"`
}

// LogSettings controls the log file
type LogSettings struct {
	Path  string `toml:"path"`
	Level string `toml:"level"`
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

// configService is the concrete implementation
type configService struct {
	bus      eventbus.EventBus
	filePath string
}

// NewConfigService creates a config service rooted at the user config dir
func NewConfigService() ConfigService {
	return &configService{filePath: DefaultPath()}
}

// NewConfigServiceWithBus creates a config service with event bus support
func NewConfigServiceWithBus(bus eventbus.EventBus, path string) ConfigService {
	if path == "" {
		path = DefaultPath()
	}
	return &configService{bus: bus, filePath: path}
}

// DefaultPath returns typeahead.toml in the working directory when present,
// otherwise the file under the user config dir
func DefaultPath() string {
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}
	return filepath.Join(configDir, "typeahead", "config.toml")
}

// Path returns the file Load and Save operate on
func (cs *configService) Path() string {
	return cs.filePath
}

// Load loads the configuration from file, falling back to defaults when the
// file does not exist
func (cs *configService) Load() (*Config, error) {
	var (
		cfg  *Config
		err  error
		from string
	)
	if _, statErr := os.Stat(cs.filePath); os.IsNotExist(statErr) {
		cfg = DefaultConfig()
	} else {
		cfg, err = cs.LoadFromPath(cs.filePath)
		if err != nil {
			return nil, err
		}
		from = cs.filePath
	}

	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigLoadedEvent{Path: from, APIURL: cfg.APIURL})
	}
	return cfg, nil
}

// Save saves the configuration to file
func (cs *configService) Save(config *Config) error {
	return cs.SaveToPath(config, cs.filePath)
}

// LoadFromPath loads configuration from a specific path. Keys missing from
// the file keep their default values.
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:        1,
		APIURL:         "http://localhost:8080/api/search",
		MinQueryLength: 3,
		Debounce:       Duration(300 * time.Millisecond),
		MaxResults:     10,
		CacheTTL:       Duration(60 * time.Second),
		CacheCapacity:  100,
		RequestTimeout: Duration(5 * time.Second),
		Retry: RetrySettings{
			MaxAttempts:    3,
			InitialBackoff: Duration(500 * time.Millisecond),
			MaxBackoff:     Duration(4 * time.Second),
		},
		UISettings: UISettings{
			ShowDescriptions: true,
			Placeholder:      "Type to search...",
			Prompt:           "> ",
		},
		Log: LogSettings{
			Path:  "typeahead.log",
			Level: "info",
		},
	}
}

// Environment variables recognised by ApplyEnv
const (
	EnvAPIURL         = "TYPEAHEAD_API_URL"
	EnvMinQueryLength = "TYPEAHEAD_MIN_QUERY_LENGTH"
	EnvDebounce       = "TYPEAHEAD_DEBOUNCE"
	EnvMaxResults     = "TYPEAHEAD_MAX_RESULTS"
	EnvRequestTimeout = "TYPEAHEAD_REQUEST_TIMEOUT"
	EnvLogLevel       = "TYPEAHEAD_LOG_LEVEL"
)

// LoadEnvFile loads variables from a dotenv file into the process
// environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg with values from getenv
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv(EnvAPIURL); v != "" {
		cfg.APIURL = v
	}
	if v := getenv(EnvMinQueryLength); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMinQueryLength, err)
		}
		cfg.MinQueryLength = n
	}
	if v := getenv(EnvDebounce); v != "" {
		if err := cfg.Debounce.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("invalid %s: %w", EnvDebounce, err)
		}
	}
	if v := getenv(EnvMaxResults); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxResults, err)
		}
		cfg.MaxResults = n
	}
	if v := getenv(EnvRequestTimeout); v != "" {
		if err := cfg.RequestTimeout.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("invalid %s: %w", EnvRequestTimeout, err)
		}
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error

	if c.APIURL == "" {
		errs = append(errs, errors.New("api_url is required"))
	} else if u, err := url.Parse(c.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("api_url %q is not an absolute URL", c.APIURL))
	}
	if c.MinQueryLength < 1 {
		errs = append(errs, errors.New("min_query_length must be at least 1"))
	}
	if c.Debounce < 0 {
		errs = append(errs, errors.New("debounce must not be negative"))
	}
	if c.MaxResults < 1 {
		errs = append(errs, errors.New("max_results must be at least 1"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	if c.RateLimit < 0 {
		errs = append(errs, errors.New("rate_limit must not be negative"))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry.max_attempts must be at least 1"))
	}
	if c.Retry.InitialBackoff < 0 || c.Retry.MaxBackoff < 0 {
		errs = append(errs, errors.New("retry backoff must not be negative"))
	}
	if c.Retry.MaxBackoff > 0 && c.Retry.InitialBackoff > c.Retry.MaxBackoff {
		errs = append(errs, errors.New("retry.initial_backoff exceeds retry.max_backoff"))
	}

	return errors.Join(errs...)
}
