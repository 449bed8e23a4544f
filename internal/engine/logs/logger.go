// Package logs sets up the structured logger of the node from the log
// section of the configuration. It uses the standard library's slog package
// for structured logging and lumberjack for file rotation.
package logs

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cmpt-474-edu-monitor/sdk/internal/engine/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

var GlobalLevel slog.Level

type levelsStruct struct {
	Available []string
	Fallback  string
}

var Levels = levelsStruct{
	Available: []string{
		"debug", "info", "warn", "error",
	},
	Fallback: "info",
}

// SlogWriter adapts a slog logger to io.Writer, so it can back a log.Logger
// such as http.Server.ErrorLog.
type SlogWriter struct {
	Logger *slog.Logger
	Level  slog.Level
}

func (w *SlogWriter) Write(p []byte) (n int, err error) {
	msg := string(bytes.TrimSpace(p))
	w.Logger.Log(context.TODO(), w.Level, msg)
	return len(p), nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Output resolves the log.output value. "%1%" and "stdout" select stdout,
// "%2%" and "stderr" stderr; anything else is a directory that receives a
// rotated event.log.
func Output(out string) io.Writer {
	switch out {
	case "%1%", "stdout":
		return os.Stdout
	case "%2%", "stderr", "":
		return os.Stderr
	default:
		return &lumberjack.Logger{
			Filename:   filepath.Join(out, "event.log"),
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}
	}
}

// SetupLogger initializes and returns a logger based on the provided log config.
func SetupLogger(o *config.Log) (*slog.Logger, error) {
	var handlerOpts = slog.HandlerOptions{}

	level := Levels.Fallback
	if o.Level != nil {
		level = *o.Level
	}
	GlobalLevel = parseLevel(level)
	handlerOpts.Level = GlobalLevel

	out := ""
	if o.OutPath != nil {
		out = *o.OutPath
	}
	writer := Output(out)
	if dir, ok := writer.(*lumberjack.Logger); ok {
		if err := os.MkdirAll(filepath.Dir(dir.Filename), 0o755); err != nil {
			return nil, err
		}
	}

	if o.JSON != nil && *o.JSON {
		return slog.New(slog.NewJSONHandler(writer, &handlerOpts)), nil
	}
	return slog.New(slog.NewTextHandler(writer, &handlerOpts)), nil
}
