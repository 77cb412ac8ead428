package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/paragor/answer-store/pkg/logging"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	FileBackend   = "file"
	S3Backend     = "s3"
	MemoryBackend = "memory"

	DefaultPort        = 3001
	DefaultPlaceholder = "No data received yet"
)

type Config struct {
	Port            int            `yaml:"port" env:"PORT"`
	APIURL          string         `yaml:"apiURL" env:"API_URL"`
	Placeholder     string         `yaml:"placeholder" env:"PLACEHOLDER"`
	PollInterval    time.Duration  `yaml:"pollInterval" env:"POLL_INTERVAL"`
	MaxPollInterval time.Duration  `yaml:"maxPollInterval" env:"MAX_POLL_INTERVAL"`
	RequestLogging  bool           `yaml:"requestLogging" env:"REQUEST_LOGGING"`
	Storage         StorageConfig  `yaml:"storage"`
	Log             logging.Config `yaml:"log"`
}

type StorageConfig struct {
	Backend string `yaml:"backend" env:"STORAGE_BACKEND"`
	Dir     string `yaml:"dir" env:"DATA_DIR"`
	Bucket  string `yaml:"bucket" env:"S3_BUCKET"`
	Prefix  string `yaml:"prefix" env:"S3_PREFIX"`
}

func Default() *Config {
	return &Config{
		Port:            DefaultPort,
		Placeholder:     DefaultPlaceholder,
		PollInterval:    5 * time.Second,
		MaxPollInterval: time.Minute,
		Storage: StorageConfig{
			Backend: FileBackend,
			Dir:     ".",
		},
		Log: logging.Config{Format: string(logging.TextFormat)},
	}
}

// Load starts from the defaults, applies the yaml file at path and then the
// environment. An empty path skips the file; so does a missing file unless
// required is set.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !required:
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

// AddFlags registers command line overrides bound to c, using the current
// values of c as defaults.
func (c *Config) AddFlags(flags *pflag.FlagSet) {
	flags.IntVar(&c.Port, "port", c.Port, "Port to listen on")
	flags.StringVar(&c.APIURL, "api-url", c.APIURL, "Base URL of the answer API, e.g. http://localhost:3001/api")
	flags.StringVar(&c.Placeholder, "placeholder", c.Placeholder, "Value served before anything has been submitted")
	flags.DurationVar(&c.PollInterval, "poll-interval", c.PollInterval, "How often the display polls for the latest answer")
	flags.DurationVar(&c.MaxPollInterval, "max-poll-interval", c.MaxPollInterval, "Upper bound for the poll interval after failures")
	flags.BoolVar(&c.RequestLogging, "log-http-requests", c.RequestLogging, "Log every HTTP request")
	flags.StringVar(&c.Storage.Backend, "storage", c.Storage.Backend, "Storage backend: file, s3 or memory")
	flags.StringVar(&c.Storage.Dir, "data-dir", c.Storage.Dir, "Directory holding the answer file (file storage)")
	flags.StringVar(&c.Storage.Bucket, "s3-bucket", c.Storage.Bucket, "Bucket holding the answer object (s3 storage)")
	flags.StringVar(&c.Storage.Prefix, "s3-prefix", c.Storage.Prefix, "Key prefix for the answer object (s3 storage)")
	c.Log.AddFlags(flags)
}

// ApplyFlags copies every flag the user explicitly set in parsed onto c, so
// flags take precedence over the file and the environment.
func (c *Config) ApplyFlags(parsed *pflag.FlagSet) error {
	overrides := pflag.NewFlagSet("overrides", pflag.ContinueOnError)
	c.AddFlags(overrides)

	var err error
	parsed.Visit(func(f *pflag.Flag) {
		if err != nil || overrides.Lookup(f.Name) == nil {
			return
		}
		if serr := overrides.Set(f.Name, f.Value.String()); serr != nil {
			err = fmt.Errorf("apply flag --%s: %w", f.Name, serr)
		}
	})
	return err
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.APIURL != "" {
		if _, err := url.Parse(c.APIURL); err != nil {
			return fmt.Errorf("apiURL is invalid: %w", err)
		}
	}
	if c.Placeholder == "" {
		return fmt.Errorf("placeholder is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("pollInterval must be positive")
	}
	if c.MaxPollInterval < c.PollInterval {
		return fmt.Errorf("maxPollInterval must not be less than pollInterval")
	}

	switch c.Storage.Backend {
	case FileBackend:
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage.dir is required when storage.backend is %s", FileBackend)
		}
	case S3Backend:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required when storage.backend is %s", S3Backend)
		}
	case MemoryBackend:
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}

	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	return nil
}

// PageAPIURL is the API base used by the served web page. Without an explicit
// setting the page talks to the server that served it.
func (c *Config) PageAPIURL() string {
	if c.APIURL != "" {
		return c.APIURL
	}
	return "/api"
}

// ClientAPIURL is the API base used by the command line clients.
func (c *Config) ClientAPIURL() string {
	if c.APIURL != "" {
		return c.APIURL
	}
	return fmt.Sprintf("http://localhost:%d/api", c.Port)
}
