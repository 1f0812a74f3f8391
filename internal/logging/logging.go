// Package logging builds the process logger and carries request correlation
// through context.
package logging

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the minimum level and the encoder.
type Config struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func DefaultConfig() Config {
	return Config{Level: "info", Format: "json"}
}

func (c Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Format)
	}
}

// New builds a zap logger writing to stderr.
func New(cfg Config) (*zap.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid log config: %w", err)
	}
	level, _ := zapcore.ParseLevel(cfg.Level)

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.Encoding = cfg.Format
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Format == "console" {
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zcfg.Build()
}

type requestCtxKey struct{}

var requestIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,128}$`)

// ValidRequestID reports whether id may be echoed into logs and headers.
func ValidRequestID(id string) bool {
	return requestIDPattern.MatchString(id)
}

// WithRequestID stores id in ctx. Invalid ids are dropped.
func WithRequestID(ctx context.Context, id string) context.Context {
	if !ValidRequestID(id) {
		return ctx
	}
	return context.WithValue(ctx, requestCtxKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestCtxKey{}).(string); ok {
		return id
	}
	return ""
}

// ContextFields extracts correlation data from ctx.
func ContextFields(ctx context.Context) []zap.Field {
	if id := RequestIDFromContext(ctx); id != "" {
		return []zap.Field{zap.String("request_id", id)}
	}
	return nil
}

// For returns logger annotated with the correlation fields carried by ctx.
func For(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}
