package logging

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/go-logr/logr"
	"github.com/spf13/pflag"
)

const (
	TextFormat Format = "text"
	JSONFormat Format = "json"
)

type (
	Config struct {
		Verbosity int    `yaml:"verbosity" env:"LOG_VERBOSITY"`
		Format    string `yaml:"format" env:"LOG_FORMAT"`
	}

	Format string
)

// AddFlags registers the logging flags. Defaults are taken from cfg so that
// values loaded from a file or the environment show up in --help.
func (c *Config) AddFlags(flags *pflag.FlagSet) {
	flags.IntVarP(&c.Verbosity, "v", "v", c.Verbosity, "Logging level")
	flags.StringVar(&c.Format, "log-format", c.Format, "Logging format: text or json")
}

func (c Config) Validate() error {
	switch Format(c.Format) {
	case TextFormat, JSONFormat, "":
		return nil
	default:
		return fmt.Errorf("unrecognised logging format: %s", c.Format)
	}
}

// New constructs a logr logger writing slog records to w.
func New(w io.Writer, cfg Config) (logr.Logger, error) {
	opts := &slog.HandlerOptions{Level: toSlogLevel(cfg.Verbosity)}

	var h slog.Handler
	switch Format(cfg.Format) {
	case TextFormat, "":
		h = slog.NewTextHandler(w, opts)
	case JSONFormat:
		h = slog.NewJSONHandler(w, opts)
	default:
		return logr.Logger{}, fmt.Errorf("unrecognised logging format: %s", cfg.Format)
	}
	return logr.FromSlogHandler(h), nil
}

// toSlogLevel converts a logr v-level to a slog level.
func toSlogLevel(verbosity int) slog.Level {
	if verbosity <= 0 {
		return slog.LevelInfo
	}
	return slog.Level(-verbosity)
}
