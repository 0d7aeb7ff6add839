// Package logger configures the zap logger shared by the command-line
// tools. The codec packages never log; everything here exists for cmd/.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the tool logger. It is a no-op until Init is called, so packages
// under test can import callers of it without producing output.
var Log = zap.NewNop()

// Sugar is the sugared form of Log.
var Sugar = Log.Sugar()

// FileConfig bounds the rotating log file.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DefaultFileConfig returns rotation settings suited to short-lived tools.
func DefaultFileConfig(path string) FileConfig {
	return FileConfig{
		Path:       path,
		MaxSizeMB:  10,
		MaxBackups: 2,
		MaxAgeDays: 28,
	}
}

// Init routes tool logging to stderr at the given level. Results go to
// stdout, so the console core must not. When path is not empty, output is
// duplicated into a rotating file there.
func Init(level, path string) {
	if path != "" {
		InitFile(level, DefaultFileConfig(path), true)
		return
	}
	InitFile(level, FileConfig{}, true)
}

// InitFile is Init with explicit rotation settings. Set console to false to
// log only to the file.
func InitFile(level string, cfg FileConfig, console bool) {
	lvl := parseLevel(level)

	var cores []zapcore.Core
	if console {
		enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			TimeKey:          "time",
			LevelKey:         "level",
			MessageKey:       "msg",
			EncodeTime:       zapcore.TimeEncoderOfLayout("15:04:05"),
			EncodeLevel:      zapcore.CapitalLevelEncoder,
			ConsoleSeparator: "\t",
		})
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(os.Stderr), lvl))
	}
	if cfg.Path != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			LocalTime:  true,
		}
		enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			TimeKey:          "time",
			LevelKey:         "level",
			MessageKey:       "msg",
			EncodeTime:       zapcore.ISO8601TimeEncoder,
			EncodeLevel:      zapcore.CapitalLevelEncoder,
			ConsoleSeparator: "\t",
		})
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(file), lvl))
	}

	Log = zap.New(zapcore.NewTee(cores...))
	Sugar = Log.Sugar()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Sync flushes any buffered entries. Tools defer this from main.
func Sync() {
	_ = Log.Sync()
}
