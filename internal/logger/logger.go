package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string // trace, debug, info, warn, error, fatal, panic
	Format     string // json, console
	TimeFormat string // RFC3339, Unix, or custom format
	Output     string // stdout, stderr, or file path
}

// DefaultConfig returns a sensible default logging configuration
func DefaultConfig() LogConfig {
	return LogConfig{
		Level:      "info",
		Format:     "console",
		TimeFormat: time.RFC3339,
		Output:     "stdout",
	}
}

// logFile is the file opened by the last Setup, if any.
var logFile *os.File

// Setup initializes the global logger with the provided configuration.
// A previously opened log file is closed.
func Setup(config LogConfig) error {
	// Set log level
	level, err := zerolog.ParseLevel(strings.ToLower(config.Level))
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)

	// Configure output
	var (
		output io.Writer
		file   *os.File
	)
	switch config.Output {
	case "stdout", "":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		// Assume it's a file path
		file, err = os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		output = file
	}

	// Configure format. Files never get color escapes.
	if strings.ToLower(config.Format) != "json" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: config.TimeFormat,
			NoColor:    file != nil,
		}
	}

	// Set global logger
	log.Logger = zerolog.New(output).With().
		Timestamp().
		Caller().
		Logger()

	// Configure time format
	if config.TimeFormat != "" {
		zerolog.TimeFieldFormat = config.TimeFormat
	}

	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = file

	return nil
}

// Close closes the log file opened by Setup, if any, and points the global
// logger at stderr.
func Close() error {
	if logFile == nil {
		return nil
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	err := logFile.Close()
	logFile = nil
	return err
}

// WithComponent returns a logger with a component field
func WithComponent(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}

// WithInvoiceID returns a logger with an invoice ID field
func WithInvoiceID(invoiceID string) zerolog.Logger {
	return log.Logger.With().Str("invoice_id", invoiceID).Logger()
}
