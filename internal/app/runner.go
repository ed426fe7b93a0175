package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/sha1n/pandannotate/internal/config"
	"github.com/sha1n/pandannotate/internal/control"
	"github.com/sha1n/pandannotate/internal/enrich"
	"github.com/sha1n/pandannotate/internal/fasta"
	"github.com/sha1n/pandannotate/internal/merge"
	"github.com/sha1n/pandannotate/internal/parser"
	"github.com/sha1n/pandannotate/internal/table"
	"github.com/sha1n/pandannotate/internal/textio"
	"github.com/spf13/pflag"
)

// RunParams contains dependencies for the build run
type RunParams struct {
	LoadSettings  func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings func(*config.Settings) error
	Annotate      func(context.Context, *config.Settings, *slog.Logger) (*merge.Summary, error)
	LogOutput     io.Writer // Optional: defaults to stderr
}

// DefaultRunParams returns production dependencies
func DefaultRunParams() RunParams {
	return RunParams{
		LoadSettings:  config.LoadSettingsWithFlags,
		ValidSettings: config.ValidateSettings,
		Annotate:      Annotate,
	}
}

// RunWithDeps executes a build run with the provided dependencies
func RunWithDeps(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if err := params.ValidSettings(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(settings, params.LogOutput)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info("Starting pandannotate", "version", version)
	config.LogWithLogger(settings, logger)

	_, err = params.Annotate(ctx, settings, logger)
	return err
}

// newLogger configures logging - always stderr unless a writer is given,
// to keep stdout free for data.
func newLogger(settings *config.Settings, w io.Writer) (*slog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	logger, err := config.NewLogger(settings.LogLevel, w)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

// Annotate builds the annotation table described by settings and writes
// it. Unreadable FASTA or control input and an unwritable output are
// returned as errors; failing sources only show up in the summary.
func Annotate(ctx context.Context, settings *config.Settings, logger *slog.Logger) (*merge.Summary, error) {
	universe, dups, err := fasta.LoadUniverse(settings.Fasta)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference fasta: %w", err)
	}
	if dups > 0 {
		logger.Warn("Duplicate FASTA identifiers ignored", "count", dups)
	}
	logger.Info("Loaded query universe", "file", settings.Fasta, "queries", universe.Len())

	spec, err := control.Load(settings.ControlFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read control file: %w", err)
	}
	logger.Info("Loaded control file", "file", settings.ControlFile, "sources", spec.Len())

	registry := parser.DefaultRegistry(loadEnricher(settings.SprotMap, logger), logger)
	engine := merge.NewEngine(registry, logger)

	out, summary, err := engine.Run(ctx, universe, spec)
	if err != nil {
		return nil, err
	}

	err = textio.WriteFileAtomic(ctx, settings.OutFile, settings.LockTimeout, func(w io.Writer) error {
		return table.WriteTSV(w, out, settings.MissingToken)
	})
	if err != nil {
		if errors.Is(err, textio.ErrLockTimeout) {
			return nil, fmt.Errorf("another run is writing %s: %w", settings.OutFile, err)
		}
		return nil, fmt.Errorf("failed to write annotation table: %w", err)
	}

	summary.Output = settings.OutFile
	summary.FinishedAt = time.Now().UTC()
	summary.Log(logger)

	if settings.SummaryFile != "" {
		if err := summary.Save(ctx, settings.SummaryFile, settings.LockTimeout); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// loadEnricher returns nil when no map is configured or it cannot be read;
// sources that ask for enrichment then fail on their own.
func loadEnricher(path string, logger *slog.Logger) parser.Enricher {
	if path == "" {
		return nil
	}
	m, err := enrich.LoadSwissProtMap(path)
	if err != nil {
		logger.Error("Unable to load SwissProt map, enrichment disabled", "file", path, "error", err)
		return nil
	}
	logger.Info("Loaded SwissProt map", "file", path, "entries", m.Len())
	return m
}
