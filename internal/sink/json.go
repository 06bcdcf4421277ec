package sink

import (
	"encoding/json"
	"io"

	"github.com/jonathan/basket-scraper/internal/types"
)

// JSONWriter writes the batch as an indented JSON array.
type JSONWriter struct {
	Layout Layout
}

// Extension returns the file extension for JSON output.
func (JSONWriter) Extension() string { return "json" }

// Write replaces destination with the batch encoded as JSON, or does nothing for an empty batch.
func (w JSONWriter) Write(batch types.RecordBatch, destination string) (Outcome, error) {
	return writeBatch(batch, destination, func(out io.Writer) error {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if w.Layout == LayoutPair {
			return enc.Encode(pairRows(batch))
		}
		return enc.Encode(fullRows(batch))
	})
}
