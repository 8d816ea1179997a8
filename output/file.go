package output

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"teamform-scraper/log"
	"teamform-scraper/types"
)

const artifactSuffix = ".csv.gz"

// FileWriter stores one gzip-compressed csv artifact per period under
// <data_dir>/<category>/.
type FileWriter struct {
	writerConfig *WriterConfig
	dir          string
}

// NewFileWriter returns a new FileWriter rooted at the writer's data
// directory, one subdirectory per category.
func NewFileWriter(wc *WriterConfig, category types.Category) *FileWriter {
	return &FileWriter{
		writerConfig: wc,
		dir:          filepath.Join(wc.DataDir, string(category)),
	}
}

// ArtifactPath returns where the given period's artifact is stored.
func (fw *FileWriter) ArtifactPath(p types.Period) string {
	return filepath.Join(fw.dir, p.Key()+artifactSuffix)
}

// Write stores the record set, replacing any previous artifact for the
// period so re-runs are idempotent.
func (fw *FileWriter) Write(ctx context.Context, p types.Period, rs types.RecordSet) error {
	logger := log.LoggerFromContext(ctx).With(slog.String("writer", FILE_WRITER_TYPE))
	if err := os.MkdirAll(fw.dir, 0755); err != nil {
		return fmt.Errorf("creating data directory %s: %w", fw.dir, err)
	}
	path := fw.ArtifactPath(p)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating artifact %s: %w", path, err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	w := csv.NewWriter(gz)
	if err := w.Write(rs.Columns); err != nil {
		return fmt.Errorf("writing artifact %s: %w", path, err)
	}
	row := make([]string, len(rs.Columns))
	for _, rec := range rs.Records {
		for i, col := range rs.Columns {
			row[i] = rec[col]
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing artifact %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing artifact %s: %w", path, err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("compressing artifact %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing artifact %s: %w", path, err)
	}
	logger.Info(fmt.Sprintf("wrote %d records to %s", len(rs.Records), path))
	return nil
}

// AlreadyProcessed returns the period keys that already have an artifact on
// disk, so completed periods can be skipped on a re-run.
func (fw *FileWriter) AlreadyProcessed() map[string]bool {
	done := map[string]bool{}
	matches, err := filepath.Glob(filepath.Join(fw.dir, "*"+artifactSuffix))
	if err != nil {
		return done
	}
	for _, m := range matches {
		done[strings.TrimSuffix(filepath.Base(m), artifactSuffix)] = true
	}
	return done
}
