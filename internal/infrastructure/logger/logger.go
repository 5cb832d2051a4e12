// Package logger builds the zap loggers used by the server and the CLIs, and
// carries request scoped loggers through context and gin.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Config selects level, encoding and destination. Output is "stdout",
// "stderr" or a file path.
type Config struct {
	Level      string
	Format     string // json or console
	Output     string
	TimeFormat string
	Service    string // added as a "service" field on every entry when set
}

// Preset returns json logs for production and colored console logs otherwise
func Preset(env string) *Config {
	cfg := &Config{Level: "info", Format: "console", Output: "stdout", TimeFormat: isoMillis}
	if env == "production" {
		cfg.Format = "json"
	}
	return cfg
}

// New builds a logger from cfg, or from the development preset when cfg is
// nil. A file output that cannot be opened is an error.
func New(cfg *Config) (*zap.Logger, error) {
	if cfg == nil {
		cfg = Preset("development")
	}
	output := strings.TrimSpace(cfg.Output)
	if output == "" {
		output = "stdout"
	}

	zc := zap.Config{
		Level:             zap.NewAtomicLevelAt(ParseLevel(cfg.Level)),
		Encoding:          "json",
		EncoderConfig:     encoderConfig(cfg.TimeFormat),
		OutputPaths:       []string{output},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}
	if cfg.Format == "console" {
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if cfg.Service != "" {
		zc.InitialFields = map[string]any{"service": cfg.Service}
	}
	return zc.Build(zap.AddStacktrace(zapcore.ErrorLevel))
}

// ParseLevel accepts zap level names plus "warning", defaulting to info
func ParseLevel(level string) zapcore.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}
	parsed, err := zapcore.ParseLevel(name)
	if err != nil {
		return zapcore.InfoLevel
	}
	return parsed
}

func encoderConfig(timeFormat string) zapcore.EncoderConfig {
	if timeFormat == "" {
		timeFormat = isoMillis
	}
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(timeFormat)
	ec.EncodeDuration = zapcore.MillisDurationEncoder
	return ec
}
