package stats

import (
	"github.com/orbidefence/fraud-detector/internal/models"
)

// Provider resolves a customer identifier to their precomputed statistics.
type Provider interface {
	Lookup(customerID int64) models.CustomerStatistics
}

// CustomerRecord pairs a customer identifier with their statistics, as stored
// in the model artifact or the customer_statistics table.
type CustomerRecord struct {
	CustomerID       int64   `json:"customer_id"`
	TransactionCount int     `json:"transaction_count"`
	AvgAmount        float64 `json:"avg_amount"`
	MaxAmount        float64 `json:"max_amount"`
	MinAmount        float64 `json:"min_amount"`
	TotalAmount      float64 `json:"total_amount"`
}

// Table is an immutable in-memory statistics table. It is built once at
// startup and safe for concurrent reads.
type Table struct {
	records map[int64]models.CustomerStatistics
}

// NewTable builds a table from customer records. When a customer id appears
// more than once, the first record wins.
func NewTable(records []CustomerRecord) *Table {
	t := &Table{records: make(map[int64]models.CustomerStatistics, len(records))}
	for _, r := range records {
		if _, ok := t.records[r.CustomerID]; ok {
			continue
		}
		t.records[r.CustomerID] = models.CustomerStatistics{
			TransactionCount: r.TransactionCount,
			AvgAmount:        r.AvgAmount,
			MaxAmount:        r.MaxAmount,
			MinAmount:        r.MinAmount,
			TotalAmount:      r.TotalAmount,
		}
	}
	return t
}

// Lookup returns the statistics for a customer. An unknown customer, or a nil
// table (statistics never loaded), yields the zero record: absence is the
// valid "new customer" state, not an error.
func (t *Table) Lookup(customerID int64) models.CustomerStatistics {
	if t == nil {
		return models.CustomerStatistics{}
	}
	return t.records[customerID]
}

// Size returns the number of customers in the table.
func (t *Table) Size() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}
