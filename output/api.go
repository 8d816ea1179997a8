package output

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"teamform-scraper/log"
	"teamform-scraper/types"
	"teamform-scraper/utils"
)

// APIWriter uploads one JSON document per period to a ranking API. The
// document is PUT under the period key, so re-runs replace the previous
// upload the same way the file writer overwrites its artifact.
type APIWriter struct {
	writerConfig *WriterConfig
	client       *resty.Client
}

// NewAPIWriter returns a new APIWriter
func NewAPIWriter(wc *WriterConfig) *APIWriter {
	client := resty.New().SetTimeout(10 * time.Second)
	if wc.User != "" {
		client.SetBasicAuth(wc.User, wc.Password)
	}
	return &APIWriter{
		writerConfig: wc,
		client:       client,
	}
}

func (w *APIWriter) Write(ctx context.Context, p types.Period, rs types.RecordSet) error {
	logger := log.LoggerFromContext(ctx).With(slog.String("writer", API_WRITER_TYPE))
	doc := map[string]any{
		"period":  p.Key(),
		"columns": rs.Columns,
		"records": rs.Records,
	}
	url := fmt.Sprintf("%s/%s", strings.TrimRight(w.writerConfig.Uri, "/"), p.Key())
	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(doc).
		Put(url)
	if err != nil {
		return fmt.Errorf("uploading period %s: %w", p, err)
	}
	if resp.StatusCode() >= 300 {
		return fmt.Errorf("uploading period %s: status code %d: %s", p, resp.StatusCode(), utils.ShortenString(resp.String(), 200))
	}
	logger.Info(fmt.Sprintf("uploaded %d records to %s", len(rs.Records), url))
	return nil
}
