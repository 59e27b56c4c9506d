// Package logging builds the zap logger shared by the CLI, the terminal
// viewer and the preview server.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel maps debug, info, warn(ing) and error to a zap level. Anything
// else is info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// SinkPath maps a sink setting to a zap output path: "stderr", "stdout" or
// "file:<path>".
func SinkPath(sink string) (string, error) {
	switch {
	case sink == "" || sink == "stderr":
		return "stderr", nil
	case sink == "stdout":
		return "stdout", nil
	case strings.HasPrefix(sink, "file:"):
		path := strings.TrimPrefix(sink, "file:")
		if path == "" {
			return "", fmt.Errorf("log sink %q: empty file path", sink)
		}
		return path, nil
	default:
		return "", fmt.Errorf("log sink %q: want stderr, stdout or file:<path>", sink)
	}
}

// New builds a JSON production logger at level writing to sink.
func New(level, sink string) (*zap.Logger, error) {
	path, err := SinkPath(sink)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Sampling = nil
	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return log.Named("chatview"), nil
}
