// Package sink serializes record batches to flat files.
// An empty batch never touches the filesystem, so a previously good output survives an empty run.
package sink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/basket-scraper/internal/types"
)

// Status is the outcome of a Write call.
type Status string

// Write statuses
const (
	StatusWritten      Status = "written"
	StatusSkippedEmpty Status = "skipped-empty"
)

// Outcome describes what a Write call did.
type Outcome struct {
	Status Status
	Path   string
	Rows   int
}

// Writer persists a batch to a destination path.
type Writer interface {
	Write(batch types.RecordBatch, destination string) (Outcome, error)
	Extension() string
}

// Layout selects the column set and casing of the output.
type Layout string

// Supported layouts
const (
	LayoutFull Layout = "full"
	LayoutPair Layout = "pair"
)

// Header returns the column names in output order.
func (l Layout) Header() []string {
	if l == LayoutPair {
		return []string{"date", "price"}
	}
	return []string{"Date", "Price", "Currency"}
}

// Row returns the record's fields in Header order.
func (l Layout) Row(r types.PriceRecord) []string {
	if l == LayoutPair {
		return []string{r.Date, r.Price}
	}
	return []string{r.Date, r.Price, r.Currency}
}

// NewWriter returns the writer for format (csv, parquet, json).
func NewWriter(format string, layout Layout) (Writer, error) {
	if layout == "" {
		layout = LayoutFull
	}
	if layout != LayoutFull && layout != LayoutPair {
		return nil, fmt.Errorf("sink: unsupported layout %q (use: full, pair)", layout)
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "csv":
		return CSVWriter{Layout: layout}, nil
	case "parquet":
		return ParquetWriter{Layout: layout}, nil
	case "json":
		return JSONWriter{Layout: layout}, nil
	default:
		return nil, fmt.Errorf("sink: unsupported format %q (use: csv, parquet, json)", format)
	}
}

// writeBatch applies the empty-batch guard, then replaces destination atomically with encode's output.
func writeBatch(batch types.RecordBatch, destination string, encode func(io.Writer) error) (Outcome, error) {
	if batch.Empty() {
		return Outcome{Status: StatusSkippedEmpty, Path: destination}, nil
	}

	dir := filepath.Dir(destination)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Outcome{}, &WriteError{Path: destination, Message: "failed to create output directory", Cause: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(destination)+".*.tmp")
	if err != nil {
		return Outcome{}, &WriteError{Path: destination, Message: "failed to create temporary file", Cause: err}
	}
	tmpPath := tmp.Name()
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := encode(tmp); err != nil {
		_ = tmp.Close()
		return Outcome{}, &WriteError{Path: destination, Message: "failed to encode records", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return Outcome{}, &WriteError{Path: destination, Message: "failed to flush output", Cause: err}
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return Outcome{}, &WriteError{Path: destination, Message: "failed to set file mode", Cause: err}
	}
	if err := os.Rename(tmpPath, destination); err != nil {
		return Outcome{}, &WriteError{Path: destination, Message: "failed to replace output file", Cause: err}
	}
	renamed = true

	return Outcome{Status: StatusWritten, Path: destination, Rows: batch.Len()}, nil
}
