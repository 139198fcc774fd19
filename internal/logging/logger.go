// Package logging provides the shared zap logger for habitloop. Components
// take named child loggers per category so log lines stay attributable when
// many subscriptions run concurrently.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log categories used across the codebase.
const (
	CategoryBoot    = "boot"
	CategoryCore    = "core"    // combiner, loaders, snapshot store
	CategoryCascade = "cascade" // completion cascade steps
	CategoryOverlay = "overlay" // overlay mediator decisions
	CategoryStore   = "store"   // SQLite repositories
	CategoryCoach   = "coach"   // AI commentary
	CategoryAudio   = "audio"   // audio reinforcement
)

// Config controls logger construction.
type Config struct {
	Level       string `yaml:"level"`       // debug, info, warn, error
	Development bool   `yaml:"development"` // console encoder, caller info
	Dir         string `yaml:"dir"`         // when set, also log to Dir/habitloop.log
}

var (
	mu   sync.RWMutex
	root = zap.NewNop()
)

// Init builds the process logger from cfg and installs it as the package
// root. Safe to call once at startup; before Init every Named logger is a
// no-op, which keeps tests quiet by default.
func Init(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var encCfg zapcore.EncoderConfig
	var encoder zapcore.Encoder
	if cfg.Development {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encCfg = zap.NewProductionEncoderConfig()
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level),
	}

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		path := filepath.Join(cfg.Dir, "habitloop.log")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		fileEnc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(fileEnc, zapcore.Lock(f), level))
	}

	opts := []zap.Option{}
	if cfg.Development {
		opts = append(opts, zap.AddCaller(), zap.Development())
	}

	logger := zap.New(zapcore.NewTee(cores...), opts...)

	mu.Lock()
	root = logger
	mu.Unlock()

	return logger, nil
}

// Named returns a child logger for the given category.
func Named(category string) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root.Named(category)
}

// Root returns the current process logger.
func Root() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// Sync flushes buffered log entries. Call at shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = root.Sync()
}
