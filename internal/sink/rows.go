package sink

import "github.com/jonathan/basket-scraper/internal/types"

// fullRow and pairRow fix column names and order for the columnar and JSON writers.
type fullRow struct {
	Date     string `json:"Date" parquet:"Date"`
	Price    string `json:"Price" parquet:"Price"`
	Currency string `json:"Currency" parquet:"Currency"`
}

type pairRow struct {
	Date  string `json:"date" parquet:"date"`
	Price string `json:"price" parquet:"price"`
}

func fullRows(batch types.RecordBatch) []fullRow {
	rows := make([]fullRow, 0, len(batch))
	for _, r := range batch {
		rows = append(rows, fullRow{Date: r.Date, Price: r.Price, Currency: r.Currency})
	}
	return rows
}

func pairRows(batch types.RecordBatch) []pairRow {
	rows := make([]pairRow, 0, len(batch))
	for _, r := range batch {
		rows = append(rows, pairRow{Date: r.Date, Price: r.Price})
	}
	return rows
}
