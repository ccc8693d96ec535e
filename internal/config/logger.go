package config

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// MustInitLogger creates a zap logger for the given environment and level.
// It panics when logger construction fails, which only happens with an
// invalid output path.
func MustInitLogger(env, level string) *zap.Logger {
	logger, err := InitLogger(env, level)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger
}

// InitLogger creates a zap logger. Development and test environments get the
// human-readable console encoder; everything else gets production JSON.
func InitLogger(env, level string) (*zap.Logger, error) {
	var cfg zap.Config
	switch env {
	case "development", "test":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
	}

	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	return cfg.Build()
}

// parseLevel maps a level string to a zap level, defaulting to info
func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
