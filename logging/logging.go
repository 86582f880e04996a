// Package logging defines the Logger interface used by the metrics logger and the command line tool.
// It also includes functions for setting the global log level and a per-package log level.
package logging

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logLevel      zapcore.Level
	packageLevels = make(map[string]zapcore.Level)
	mut           sync.RWMutex
)

// ParseLevel converts a level name to a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zap.DebugLevel, nil
	case "info", "":
		return zap.InfoLevel, nil
	case "warn":
		return zap.WarnLevel, nil
	case "error":
		return zap.ErrorLevel, nil
	case "panic":
		return zap.PanicLevel, nil
	case "fatal":
		return zap.FatalLevel, nil
	default:
		return 0, fmt.Errorf("invalid log level '%s'", level)
	}
}

// SetLogLevel sets the global log level.
func SetLogLevel(levelStr string) error {
	level, err := ParseLevel(levelStr)
	if err != nil {
		return err
	}
	mut.Lock()
	logLevel = level
	mut.Unlock()
	return nil
}

// SetPackageLogLevel sets a log level for a package, overriding the global level.
func SetPackageLogLevel(packageName, levelStr string) error {
	level, err := ParseLevel(levelStr)
	if err != nil {
		return err
	}
	mut.Lock()
	packageLevels[packageName] = level
	mut.Unlock()
	return nil
}

// Logger is the logging interface used throughout the module. It is a subset of zap.SugaredLogger.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
}

type wrapper struct {
	inner Logger
	level zap.AtomicLevel
	mut   sync.Mutex
}

// updateLevel picks the level of the package that called the wrapper, if one was set.
func (wr *wrapper) updateLevel() {
	mut.RLock()
	defer mut.RUnlock()

	if len(packageLevels) < 1 {
		return
	}

	_, file, _, ok := runtime.Caller(2)
	if ok {
		for k, v := range packageLevels {
			if strings.Contains(file, k) {
				wr.level.SetLevel(v)
				return
			}
		}
	}

	wr.level.SetLevel(logLevel)
}

func (wr *wrapper) Debug(args ...interface{}) {
	wr.mut.Lock()
	defer wr.mut.Unlock()
	wr.updateLevel()
	wr.inner.Debug(args...)
}

func (wr *wrapper) Debugf(template string, args ...interface{}) {
	wr.mut.Lock()
	defer wr.mut.Unlock()
	wr.updateLevel()
	wr.inner.Debugf(template, args...)
}

func (wr *wrapper) Info(args ...interface{}) {
	wr.mut.Lock()
	defer wr.mut.Unlock()
	wr.updateLevel()
	wr.inner.Info(args...)
}

func (wr *wrapper) Infof(template string, args ...interface{}) {
	wr.mut.Lock()
	defer wr.mut.Unlock()
	wr.updateLevel()
	wr.inner.Infof(template, args...)
}

func (wr *wrapper) Warn(args ...interface{}) {
	wr.mut.Lock()
	defer wr.mut.Unlock()
	wr.updateLevel()
	wr.inner.Warn(args...)
}

func (wr *wrapper) Warnf(template string, args ...interface{}) {
	wr.mut.Lock()
	defer wr.mut.Unlock()
	wr.updateLevel()
	wr.inner.Warnf(template, args...)
}

func (wr *wrapper) Error(args ...interface{}) {
	wr.mut.Lock()
	defer wr.mut.Unlock()
	wr.updateLevel()
	wr.inner.Error(args...)
}

func (wr *wrapper) Errorf(template string, args ...interface{}) {
	wr.mut.Lock()
	defer wr.mut.Unlock()
	wr.updateLevel()
	wr.inner.Errorf(template, args...)
}

// New returns a new logger for stderr with the given name.
// Setting AMPLIFICATION_LOG_TYPE=json selects the production JSON encoder.
func New(name string) Logger {
	var config zap.Config
	if strings.ToLower(os.Getenv("AMPLIFICATION_LOG_TYPE")) == "json" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
			config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
	}
	mut.RLock()
	config.Level.SetLevel(logLevel)
	mut.RUnlock()
	l, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	return &wrapper{inner: l.Sugar().Named(name), level: config.Level}
}

// NewWithDest returns a new logger for the given destination with the given name.
func NewWithDest(dest io.Writer, name string) Logger {
	mut.RLock()
	atom := zap.NewAtomicLevelAt(logLevel)
	mut.RUnlock()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.AddSync(dest), atom)
	l := zap.New(core, zap.AddCallerSkip(1))
	return &wrapper{inner: l.Sugar().Named(name), level: atom}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return zap.NewNop().Sugar()
}
