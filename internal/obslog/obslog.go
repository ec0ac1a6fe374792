// Package obslog is the structured logging facade used across udl.
// It wraps go.uber.org/zap so call sites never import zap directly.
package obslog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global *zap.SugaredLogger

func init() {
	// Safe no-op logger so early use before Initialize never panics.
	global = zap.NewNop().Sugar()
}

// Initialize sets up the global logger. jsonOutput selects structured JSON
// (for log aggregation) versus a plain console encoder (for local dev).
func Initialize(jsonOutput bool) error {
	var zapLogger *zap.Logger
	var err error

	if jsonOutput {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		zapLogger, err = cfg.Build()
	} else {
		encoderCfg := zap.NewDevelopmentEncoderConfig()
		encoderCfg.TimeKey = "ts"
		zapLogger = zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderCfg),
			zapcore.AddSync(os.Stdout),
			zap.InfoLevel,
		))
	}
	if err != nil {
		return err
	}

	global = zapLogger.Sugar()
	return nil
}

// Get returns the process-wide logger.
func Get() *zap.SugaredLogger { return global }

// Named returns a child logger tagged with the given component name.
func Named(component string) *zap.SugaredLogger {
	return global.With(FieldComponent, component)
}

// Sync flushes buffered log entries. Errors from Sync on stdout/stderr are
// routinely EINVAL on Linux/macOS and are safe to ignore by callers.
func Sync() error {
	return global.Sync()
}
