package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseLevel maps a level name to a slog level. Besides the slog names it
// accepts warning, critical and fatal. An empty name is the default level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		name = DefaultLogLevel
	case "warning":
		return slog.LevelWarn, nil
	case "critical", "fatal":
		return slog.LevelError, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("invalid log-level %q: must be debug, info, warn or error", name)
	}
	return level, nil
}

// NewLogger creates a text logger writing to w at the given level.
func NewLogger(level string, w io.Writer) (*slog.Logger, error) {
	l, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})), nil
}

// Log logs the resolved settings in a granular way, skipping irrelevant ones
func Log(s *Settings) {
	LogWithLogger(s, slog.Default())
}

// LogWithLogger logs the resolved settings using the provided logger
func LogWithLogger(s *Settings, logger *slog.Logger) {
	ctx := context.Background()
	if s.Serve.Table != "" {
		logger.InfoContext(ctx, "Config: serve.table", "value", s.Serve.Table)
		logger.InfoContext(ctx, "Config: serve.max_results", "value", s.Serve.MaxResults)
		return
	}

	logger.InfoContext(ctx, "Config: fasta", "value", s.Fasta)
	logger.InfoContext(ctx, "Config: control_file", "value", s.ControlFile)
	logger.InfoContext(ctx, "Config: out_file", "value", s.OutFile)
	if s.SprotMap != "" {
		logger.InfoContext(ctx, "Config: sprot_map", "value", s.SprotMap)
	}
	if s.SummaryFile != "" {
		logger.InfoContext(ctx, "Config: summary_file", "value", s.SummaryFile)
	}
	logger.InfoContext(ctx, "Config: missing_token", "value", s.MissingToken)
	logger.InfoContext(ctx, "Config: lock_timeout", "value", s.LockTimeout)
}

// SettingsLogValue returns a slog.Value for Settings
func SettingsLogValue(s Settings) slog.Value {
	return slog.GroupValue(
		slog.String("fasta", s.Fasta),
		slog.String("control_file", s.ControlFile),
		slog.String("out_file", s.OutFile),
		slog.String("sprot_map", s.SprotMap),
		slog.String("log_level", s.LogLevel),
		slog.Group("serve",
			slog.String("table", s.Serve.Table),
			slog.Int("max_results", s.Serve.MaxResults),
		),
	)
}
