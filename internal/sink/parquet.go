package sink

import (
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/jonathan/basket-scraper/internal/types"
)

// ParquetWriter writes the batch as a Parquet file with string columns.
type ParquetWriter struct {
	Layout Layout
}

// Extension returns the file extension for Parquet output.
func (ParquetWriter) Extension() string { return "parquet" }

// Write replaces destination with the batch encoded as Parquet, or does nothing for an empty batch.
func (w ParquetWriter) Write(batch types.RecordBatch, destination string) (Outcome, error) {
	return writeBatch(batch, destination, func(out io.Writer) error {
		if w.Layout == LayoutPair {
			return parquet.Write(out, pairRows(batch))
		}
		return parquet.Write(out, fullRows(batch))
	})
}
