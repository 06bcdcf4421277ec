// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/basket-scraper/internal/db"
	"github.com/jonathan/basket-scraper/internal/pipeline"
	"github.com/jonathan/basket-scraper/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRunSummary outputs where the payload came from, how it was read and what was written.
func (p *Printer) PrintRunSummary(result *pipeline.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:        %s\n", result.RunID))
	sb.WriteString(fmt.Sprintf("Source:     %s\n", result.Source))
	sb.WriteString(fmt.Sprintf("Provenance: %s\n", orDash(string(result.Provenance))))
	sb.WriteString(fmt.Sprintf("Shape:      %s\n", orDash(string(result.Shape))))
	sb.WriteString(fmt.Sprintf("Namespace:  %s\n", orDash(result.Namespace)))
	sb.WriteString(fmt.Sprintf("Records:    %d\n", result.Records.Len()))
	if result.Outcome.Status != "" {
		sb.WriteString(fmt.Sprintf("Output:     %s (%s)", result.Outcome.Path, result.Outcome.Status))
	} else {
		sb.WriteString("Output:     not written")
	}

	p.printBox("SCRAPE RUN", sb.String())
}

// PrintRecords outputs the first few records of a batch, followed by a count of the rest.
func (p *Printer) PrintRecords(batch types.RecordBatch) {
	if batch.Empty() {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total records: %d\n\n", batch.Len()))

	count := min(batch.Len(), maxItemsToShow)
	for i := 0; i < count; i++ {
		r := batch[i]
		sb.WriteString(fmt.Sprintf("%-12s %10s %s", r.Date, r.Price, r.Currency))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if batch.Len() > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more records", batch.Len()-maxItemsToShow))
	}

	p.printBox("EXTRACTED RECORDS", sb.String())
}

// PrintRuns outputs a table of recorded runs, newest first.
func (p *Printer) PrintRuns(runs []db.Run) {
	if len(runs) == 0 {
		p.printBox("RUN HISTORY", "No runs recorded")
		return
	}

	var sb strings.Builder
	for i, run := range runs {
		sb.WriteString(fmt.Sprintf("%s  %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"), run.Status))
		sb.WriteString(fmt.Sprintf("    %s\n", run.ID))
		sb.WriteString(fmt.Sprintf("    records: %d", run.RecordCount))
		if run.Shape != nil && *run.Shape != "" {
			sb.WriteString(fmt.Sprintf("  shape: %s", *run.Shape))
		}
		if run.Provenance != nil && *run.Provenance != "" {
			sb.WriteString(fmt.Sprintf("  via: %s", *run.Provenance))
		}
		if run.Detail != nil && *run.Detail != "" {
			sb.WriteString(fmt.Sprintf("\n    detail: %s", *run.Detail))
		}
		if i < len(runs)-1 {
			sb.WriteString("\n\n")
		}
	}

	p.printBox("RUN HISTORY", sb.String())
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
