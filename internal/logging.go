package internal

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger = newLogger(zapcore.InfoLevel)
)

// stdout carries the MCP stdio protocol, so everything logs to stderr.
func newLogger(level zapcore.Level) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		level,
	)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

// SetLevel rebuilds the logger at the named level ("debug", "info", ...).
func SetLevel(name string) error {
	var level zapcore.Level
	if name == "" {
		name = "info"
	}
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	mu.Lock()
	defer mu.Unlock()
	_ = logger.Sync()
	logger = newLogger(level)
	return nil
}

// Logger returns the process logger for components that take a *zap.Logger.
func Logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger.WithOptions(zap.AddCallerSkip(-1))
}

func Logf(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	logger.Info(fmt.Sprintf(format, args...))
}

func Errorf(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	logger.Error(fmt.Sprintf(format, args...))
}

// Sync flushes buffered entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = logger.Sync()
}
