package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Exporter periodically writes the reconciliation log to a spreadsheet so
// managers get an offline copy, and prunes exports past retention.
type Exporter struct {
	store         *Store
	dir           string
	retentionDays int
	interval      time.Duration
	logger        zerolog.Logger
}

func NewExporter(store *Store, dir string, retentionDays int, logger zerolog.Logger) *Exporter {
	return &Exporter{
		store:         store,
		dir:           dir,
		retentionDays: retentionDays,
		interval:      24 * time.Hour,
		logger:        logger.With().Str("component", "audit-export").Logger(),
	}
}

// Start runs the export loop until ctx is cancelled. The first export happens
// immediately so a fresh deployment produces a file without waiting a day.
func (e *Exporter) Start(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	if err := e.ExportOnce(ctx); err != nil {
		e.logger.Error().Err(err).Msg("initial export failed")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.ExportOnce(ctx); err != nil {
				e.logger.Error().Err(err).Msg("scheduled export failed")
			}
			e.pruneOld()
		}
	}
}

// ExportOnce writes one timestamped spreadsheet with the full log.
func (e *Exporter) ExportOnce(ctx context.Context) error {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	path := filepath.Join(e.dir, fmt.Sprintf("reconciliations_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := e.store.ExportXLSX(ctx, path, 10000); err != nil {
		return err
	}

	e.logger.Info().Str("path", path).Msg("reconciliation log exported")
	return nil
}

func (e *Exporter) pruneOld() {
	if e.retentionDays <= 0 {
		return
	}

	files, err := os.ReadDir(e.dir)
	if err != nil {
		e.logger.Error().Err(err).Msg("read export directory")
		return
	}

	cutoff := time.Now().AddDate(0, 0, -e.retentionDays)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			e.logger.Info().Str("file", file.Name()).Msg("removing expired export")
			_ = os.Remove(filepath.Join(e.dir, file.Name()))
		}
	}
}
