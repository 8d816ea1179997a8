// Package output provides the interface and configuration for writers
package output

import (
	"context"
	"fmt"

	"teamform-scraper/types"
)

// Writer defines the interface for all writers that are responsible for
// persisting one period's record set. A failed write must only affect its
// period, so implementations return errors instead of exiting.
type Writer interface {
	Write(ctx context.Context, p types.Period, rs types.RecordSet) error
}

// WriterConfig defines the necessary parameters to make a new writer
// which is responsible for writing the scraped data to a specific output
// eg. a file tree of per-period artifacts.
type WriterConfig struct {
	Type     string `yaml:"type" env:"WRITER_TYPE" env-default:"file"`
	DataDir  string `yaml:"data_dir" env:"WRITER_DATA_DIR" env-default:"_data"`
	Uri      string `yaml:"uri" env:"WRITER_URI"`
	User     string `yaml:"user" env:"WRITER_USER"`
	Password string `yaml:"password" env:"WRITER_PASSWORD"`
}

const (
	STDOUT_WRITER_TYPE = "stdout"
	FILE_WRITER_TYPE   = "file"
	API_WRITER_TYPE    = "api"
)

// New returns the writer matching wc.Type.
func New(wc *WriterConfig, category types.Category) (Writer, error) {
	switch wc.Type {
	case FILE_WRITER_TYPE, "":
		return NewFileWriter(wc, category), nil
	case STDOUT_WRITER_TYPE:
		return NewStdoutWriter(wc), nil
	case API_WRITER_TYPE:
		return NewAPIWriter(wc), nil
	}
	return nil, fmt.Errorf("writer of type %s not implemented", wc.Type)
}
