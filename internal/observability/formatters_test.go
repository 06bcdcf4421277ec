package observability

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/basket-scraper/internal/db"
	"github.com/jonathan/basket-scraper/internal/pipeline"
	"github.com/jonathan/basket-scraper/internal/sink"
	"github.com/jonathan/basket-scraper/internal/types"
)

func TestPrintRunSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	result := &pipeline.Result{
		RunID:      uuid.MustParse("6f1c2d3e-4b5a-4c6d-8e7f-901234567890"),
		Source:     "https://example.com/basket.xml",
		Provenance: types.ProvenanceBrowserPre,
		Shape:      types.ShapeChildElements,
		Records:    types.RecordBatch{{Date: "2024-01-02", Price: "77.53", Currency: "USD"}},
		Outcome:    sink.Outcome{Status: sink.StatusWritten, Path: "out.csv", Rows: 1},
	}

	p.PrintRunSummary(result)
	output := buf.String()

	assert.Contains(t, output, "SCRAPE RUN")
	assert.Contains(t, output, "6f1c2d3e-4b5a-4c6d-8e7f-901234567890")
	assert.Contains(t, output, "browser-pre")
	assert.Contains(t, output, "child-elements")
	assert.Contains(t, output, "Namespace:  -")
	assert.Contains(t, output, "out.csv (written)")
}

func TestPrintRunSummary_NotWritten(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRunSummary(&pipeline.Result{Source: "x"})

	assert.Contains(t, buf.String(), "not written")
}

func TestPrintRunSummary_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRunSummary(nil)

	assert.Empty(t, buf.String())
}

func TestPrintRecords(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	var batch types.RecordBatch
	for i := 1; i <= 8; i++ {
		batch = append(batch, types.PriceRecord{Date: fmt.Sprintf("2024-01-%02d", i), Price: "77.00", Currency: "USD"})
	}

	p.PrintRecords(batch)
	output := buf.String()

	assert.Contains(t, output, "EXTRACTED RECORDS")
	assert.Contains(t, output, "Total records: 8")
	assert.Contains(t, output, "2024-01-05")
	assert.NotContains(t, output, "2024-01-06")
	assert.Contains(t, output, "... and 3 more records")
}

func TestPrintRecords_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRecords(nil)

	assert.Empty(t, buf.String())
}

func TestPrintRuns(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	shape := "attribute-pair"
	detail := "acquire stage failed: no content obtained"
	runs := []db.Run{
		{ID: uuid.New(), Status: db.RunStatusSucceeded, Shape: &shape, RecordCount: 42, CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{ID: uuid.New(), Status: db.RunStatusFailed, Detail: &detail, CreatedAt: time.Date(2024, 1, 1, 3, 4, 5, 0, time.UTC)},
	}

	p.PrintRuns(runs)
	output := buf.String()

	assert.Contains(t, output, "RUN HISTORY")
	assert.Contains(t, output, "2024-01-02 03:04:05  succeeded")
	assert.Contains(t, output, "records: 42  shape: attribute-pair")
	assert.Contains(t, output, "failed")
	assert.Contains(t, output, "detail:")
}

func TestPrintRuns_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRuns(nil)

	assert.Contains(t, buf.String(), "No runs recorded")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("x", 100))

	assert.Contains(t, buf.String(), "...")
	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)))
	}
}
