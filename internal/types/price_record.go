// Package types provides type definitions for structured data used throughout the basket-scraper system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// DefaultCurrency is appended to every record; the source document never carries one.
const DefaultCurrency = "USD"

// PriceRecord is a single normalized date/price observation.
// Fields stay strings because the source guarantees neither a date nor a number format.
type PriceRecord struct {
	Date     string `json:"date"`
	Price    string `json:"price"`
	Currency string `json:"currency"`
}

// Valid reports whether the record may be placed in an output batch.
func (r PriceRecord) Valid() bool {
	return r.Date != "" && r.Price != ""
}

// RecordBatch is an ordered sequence of records in document order.
// Duplicates are kept.
type RecordBatch []PriceRecord

// Len returns the number of records in the batch.
func (b RecordBatch) Len() int {
	return len(b)
}

// Empty reports whether the batch holds no records.
func (b RecordBatch) Empty() bool {
	return len(b) == 0
}
