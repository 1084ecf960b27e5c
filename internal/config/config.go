package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	BackendURL     string        `yaml:"backend_url"`
	LogLevel       string        `yaml:"log_level"`
	LogFile        string        `yaml:"log_file"`
	NarrowWidth    int           `yaml:"narrow_width"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Push           PushConfig    `yaml:"push"`
	Metrics        MetricsConfig `yaml:"metrics"`
	DevServer      DevServer     `yaml:"devserver"`
}

// PushConfig tunes the reconnect policy of the push channel
type PushConfig struct {
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	Multiplier   float64       `yaml:"multiplier"`
	Jitter       float64       `yaml:"jitter"`
	MaxRetries   int           `yaml:"max_retries"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
}

// MetricsConfig controls the optional prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// DevServer configures the local stand-in backend
type DevServer struct {
	Port           int    `yaml:"port"`
	DatabaseDriver string `yaml:"database_driver"`
	DatabaseURL    string `yaml:"database_url"`
	SeedOnStart    bool   `yaml:"seed_on_start"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		BackendURL:     "http://localhost:8001",
		LogLevel:       "info",
		LogFile:        "cafe.log",
		NarrowWidth:    100,
		PollInterval:   5 * time.Second,
		RequestTimeout: 10 * time.Second,
		Push: PushConfig{
			InitialDelay: 3 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2,
			Jitter:       0.2,
			MaxRetries:   50,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9091,
			Path:    "/metrics",
		},
		DevServer: DevServer{
			Port:           8001,
			DatabaseDriver: "sqlite3",
			DatabaseURL:    ":memory:",
		},
	}
}

// Load reads the YAML file at path on top of the defaults, then applies
// .env and environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	_ = godotenv.Load() // load .env if it exists

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("CAFE_BACKEND_URL"); v != "" {
		cfg.BackendURL = v
	}
	if v := os.Getenv("CAFE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv("CAFE_LOG_FILE"); ok {
		cfg.LogFile = v
	}
	if v := os.Getenv("CAFE_DB_DRIVER"); v != "" {
		cfg.DevServer.DatabaseDriver = v
	}
	if v := os.Getenv("CAFE_DB_URL"); v != "" {
		cfg.DevServer.DatabaseURL = v
	}
	if v := os.Getenv("CAFE_NARROW_WIDTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CAFE_NARROW_WIDTH %q: %w", v, err)
		}
		cfg.NarrowWidth = n
	}
	return nil
}

// Validate checks the values the client cannot run without.
func (c Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return fmt.Errorf("invalid backend_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend_url must use http or https, got %q", c.BackendURL)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if c.Push.InitialDelay <= 0 {
		return fmt.Errorf("push.initial_delay must be positive")
	}
	if c.Push.Multiplier < 1 {
		return fmt.Errorf("push.multiplier must be at least 1")
	}
	if c.Push.Jitter < 0 || c.Push.Jitter >= 1 {
		return fmt.Errorf("push.jitter must be in [0, 1)")
	}
	if c.Push.MaxRetries < 0 {
		return fmt.Errorf("push.max_retries must not be negative")
	}
	return nil
}
