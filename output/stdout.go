package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"teamform-scraper/types"
)

// StdoutWriter represents a writer that writes to stdout
type StdoutWriter struct{}

// NewStdoutWriter returns a new StdoutWriter
func NewStdoutWriter(wc *WriterConfig) *StdoutWriter {
	return &StdoutWriter{}
}

func (w *StdoutWriter) Write(ctx context.Context, p types.Period, rs types.RecordSet) error {
	doc := map[string]any{
		"period":  p.Key(),
		"columns": rs.Columns,
		"records": rs.Records,
	}
	// We cannot use json.MarshalIndent directly because it automatically
	// replaces certain html characters with the corresponding Unicode
	// replacement rune. See
	// https://stackoverflow.com/questions/28595664/how-to-stop-json-marshal-from-escaping-and
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encoding period %s: %w", p, err)
	}

	var indentBuffer bytes.Buffer
	if err := json.Indent(&indentBuffer, buffer.Bytes(), "", "  "); err != nil {
		return fmt.Errorf("indenting period %s: %w", p, err)
	}
	fmt.Print(indentBuffer.String())
	return nil
}
