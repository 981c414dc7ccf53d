package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/medhub/medhub-api/config"
)

type LoggingService struct {
	Logger   *slog.Logger
	rotating *RotatingLogger
}

var DefaultLoggingService *LoggingService

// Options configures InitLogger
type Options struct {
	Dir            string
	Env            config.Environment
	Level          string
	RetentionWeeks int
	MaxFileSize    int64
	Verbose        bool // keep info logs on the console in test runs
}

// InitLogger initializes the global logger instance
func InitLogger(opts Options) {
	logger, rotating := SetupLoggerWithOptions(opts)
	DefaultLoggingService = &LoggingService{
		Logger:   logger,
		rotating: rotating,
	}
	slog.SetDefault(DefaultLoggingService.Logger)
}

// Close flushes and closes the rotating log file, if any
func Close() error {
	if DefaultLoggingService == nil || DefaultLoggingService.rotating == nil {
		return nil
	}
	return DefaultLoggingService.rotating.Close()
}

// parseLogLevel maps LOG_LEVEL values to slog levels, defaulting to info
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetConsoleLogLevel picks the console level. An explicit LOG_LEVEL wins,
// except in tests where the console stays quiet unless verbose is set.
func GetConsoleLogLevel(env config.Environment, logLevel string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}

	if logLevel != "" {
		return parseLogLevel(logLevel)
	}

	switch env {
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel returns the level of the rotating file, which keeps everything
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

var (
	fallbackOnce   sync.Once
	fallbackLogger *slog.Logger
)

// logger returns the configured logger or a console fallback when InitLogger
// has not been called (tests, early startup)
func logger() *slog.Logger {
	if DefaultLoggingService != nil && DefaultLoggingService.Logger != nil {
		return DefaultLoggingService.Logger
	}
	fallbackOnce.Do(func() {
		fallbackLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	})
	return fallbackLogger
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	logger().Info(msg, args...)
}

func Error(msg string, args ...any) {
	logger().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	logger().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	logger().Debug(msg, args...)
}
