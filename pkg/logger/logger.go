// Package logger provides component-scoped structured logging for
// sorrycast, backed by zap.
package logger

import (
	"os"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level = zapcore.Level

const (
	DEBUG = zapcore.DebugLevel
	INFO  = zapcore.InfoLevel
	WARN  = zapcore.WarnLevel
	ERROR = zapcore.ErrorLevel
)

var (
	atom = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	log  = newLogger()
)

func newLogger() *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		atom,
	)
	return zap.New(core)
}

// SetLevel adjusts the minimum level for all subsequent log calls.
func SetLevel(l Level) {
	atom.SetLevel(l)
}

// ParseLevel maps a config string onto a Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

func DebugCF(component, msg string, fields map[string]any) {
	log.Debug(msg, zapFields(component, fields)...)
}

func InfoCF(component, msg string, fields map[string]any) {
	log.Info(msg, zapFields(component, fields)...)
}

func WarnCF(component, msg string, fields map[string]any) {
	log.Warn(msg, zapFields(component, fields)...)
}

func ErrorCF(component, msg string, fields map[string]any) {
	log.Error(msg, zapFields(component, fields)...)
}

// zapFields flattens the field map in key order so output is stable.
func zapFields(component string, fields map[string]any) []zap.Field {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fs := make([]zap.Field, 0, len(fields)+1)
	fs = append(fs, zap.String("component", component))
	for _, k := range keys {
		fs = append(fs, zap.Any(k, fields[k]))
	}
	return fs
}
