// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Component names attached to loggers via NewLogger.
const (
	ComponentServer = "server"
	ComponentAPI    = "api"
	ComponentCache  = "cache"
	ComponentSearch = "search"
	ComponentStore  = "store"
)

// ServiceName is attached to every log line.
const ServiceName = "products-api"

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().
		Timestamp().
		Str("service", ServiceName).
		Logger()

	// Set as global logger
	log.Logger = logger
	zerolog.DefaultContextLogger = &log.Logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Cache operations (hit/miss, key)
//   - Predicate counts and page parameters of a search
//   - Undecodable cached values
//
// Info: Normal operation events
//   - Served requests
//   - Cache tier selection
//   - Store selection and catalog size
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Redis unreachable at startup (in-process tier used)
//   - Cache read/write failures (treated as miss or dropped write)
//
// Error: Error conditions requiring attention
//   - Record store failures (request answered with 500)
//   - Configuration errors
//
// Context Fields:
//   - request_id: Request id (X-Request-Id)
//   - route: Route template
//   - status_code: HTTP status code
//   - duration: Request or search duration
//   - cache_key: Derived cache key
//   - cache_status: HIT, MISS or BYPASS
//   - layer: Cache tier (redis, memory)
//   - total_count: Products matching a search
