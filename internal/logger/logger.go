// Package logger configures the process-wide zerolog logger.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the process-wide logger. Components should derive from it with For.
var Logger = log.Logger

// Config controls log level and output format
type Config struct {
	Level        string `json:"level,omitempty"`         // debug, info, warn, error
	Format       string `json:"format,omitempty"`        // json or pretty
	TimeFormat   string `json:"time_format,omitempty"`   // defaults to RFC3339
	ReportCaller bool   `json:"report_caller,omitempty"` // add file:line to each entry
}

// Init replaces the global logger according to config. Output goes to stderr so
// that stdout stays free for command results.
func Init(config Config) zerolog.Logger {
	return InitWriter(config, os.Stderr)
}

// InitWriter is Init with an explicit destination.
func InitWriter(config Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(config.Level)
	if err != nil || config.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if config.TimeFormat == "" {
		zerolog.TimeFieldFormat = time.RFC3339
	} else {
		zerolog.TimeFieldFormat = config.TimeFormat
	}

	output := out
	if config.Format == "pretty" {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: zerolog.TimeFieldFormat,
		}
	}

	ctx := zerolog.New(output).Level(level).With().Timestamp()
	if config.ReportCaller {
		ctx = ctx.Caller()
	}

	Logger = ctx.Logger()
	log.Logger = Logger
	return Logger
}

// For returns a child logger tagged with a component name
func For(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// Ctx returns the logger stored in ctx, falling back to the global logger.
func Ctx(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &Logger
}

// WithContext stores l in ctx
func WithContext(ctx context.Context, l zerolog.Logger) context.Context {
	return l.WithContext(ctx)
}
