package sink

import (
	"encoding/csv"
	"io"

	"github.com/jonathan/basket-scraper/internal/types"
)

// CSVWriter writes a header row followed by one row per record.
type CSVWriter struct {
	Layout Layout
}

// Extension returns the file extension for CSV output.
func (CSVWriter) Extension() string { return "csv" }

// Write replaces destination with the batch encoded as CSV, or does nothing for an empty batch.
func (w CSVWriter) Write(batch types.RecordBatch, destination string) (Outcome, error) {
	return writeBatch(batch, destination, func(out io.Writer) error {
		cw := csv.NewWriter(out)
		if err := cw.Write(w.Layout.Header()); err != nil {
			return err
		}
		for _, r := range batch {
			if err := cw.Write(w.Layout.Row(r)); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}
