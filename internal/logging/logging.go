// Package logging provides structured logging configuration.
package logging

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration options.
type Config struct {
	Level  string // debug|info|warn|error
	Format string // json|console
}

// New creates a new configured zap logger.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(strings.ToLower(cfg.Level)); err != nil {
			return nil, err
		}
	}

	format := strings.ToLower(cfg.Format)
	if format == "" {
		format = "json"
	}

	var zcfg zap.Config
	if format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.LevelKey = "level"
	zcfg.EncoderConfig.MessageKey = "msg"
	zcfg.EncoderConfig.CallerKey = "caller"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zcfg.Build(zap.AddCaller())
	if err != nil {
		return nil, err
	}

	logger = logger.With(zap.String("service", "vcm"))

	return logger, nil
}

// Sync flushes any buffered log entries.
func Sync(logger *zap.Logger) {
	_ = logger.Sync()
}

// FromEnv creates a Config from environment variables.
func FromEnv() Config {
	return Config{
		Level:  getenv("VCM_LOG_LEVEL", "info"),
		Format: getenv("VCM_LOG_FORMAT", "json"),
	}
}

func getenv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// Component returns a zap field for the component name.
func Component(name string) zap.Field { return zap.String("component", name) }

// Port returns a zap field for the port number.
func Port(port int) zap.Field { return zap.Int("port", port) }

// Endpoint returns a zap field for an API endpoint path.
func Endpoint(endpoint string) zap.Field { return zap.String("endpoint", endpoint) }

// Method returns a zap field for an HTTP method.
func Method(method string) zap.Field { return zap.String("method", method) }

// Source returns a zap field for the request source class.
func Source(source string) zap.Field { return zap.String("source", source) }

// RemoteIP returns a zap field for a remote IP address.
func RemoteIP(ip string) zap.Field { return zap.String("remote_ip", ip) }

// Status returns a zap field for an HTTP status code.
func Status(status int) zap.Field { return zap.Int("status", status) }

// Duration returns a zap field for a request duration.
func Duration(d time.Duration) zap.Field { return zap.Int64("duration_ms", d.Milliseconds()) }

// TypeID returns a zap field for a credential type ID.
func TypeID(id string) zap.Field { return zap.String("type_id", id) }

// CredentialID returns a zap field for an issued credential ID.
func CredentialID(id string) zap.Field { return zap.String("credential_id", id) }

// Count returns a zap field for a record count.
func Count(n int) zap.Field { return zap.Int("count", n) }

// Candidate returns a zap field for a sync candidate URL.
func Candidate(url string) zap.Field { return zap.String("candidate", url) }

// Action returns a zap field for a sync action.
func Action(action string) zap.Field { return zap.String("action", action) }

// Mode returns a zap field for a sync result mode.
func Mode(mode string) zap.Field { return zap.String("mode", mode) }
