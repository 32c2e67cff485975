package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/orbidefence/fraud-detector/internal/stats"
)

var ErrCustomerStatsNotFound = errors.New("customer statistics not found")

// StatsRepository reads the precomputed customer_statistics table. The table
// is produced out of band (batch aggregation or the seed tool); this service
// only ever reads it.
type StatsRepository struct {
	db *Database
}

// NewStatsRepository creates a new statistics repository.
func NewStatsRepository(db *Database) *StatsRepository {
	return &StatsRepository{db: db}
}

// LoadAll reads the full statistics table, used to build the in-memory
// lookup table at startup.
func (r *StatsRepository) LoadAll(ctx context.Context) ([]stats.CustomerRecord, error) {
	query := `
		SELECT customer_id, transaction_count, avg_amount, max_amount, min_amount, total_amount
		FROM customer_statistics
		ORDER BY customer_id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []stats.CustomerRecord
	for rows.Next() {
		var rec stats.CustomerRecord
		if err := rows.Scan(
			&rec.CustomerID,
			&rec.TransactionCount,
			&rec.AvgAmount,
			&rec.MaxAmount,
			&rec.MinAmount,
			&rec.TotalAmount,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetByCustomerID reads a single customer's statistics.
func (r *StatsRepository) GetByCustomerID(ctx context.Context, customerID int64) (*stats.CustomerRecord, error) {
	query := `
		SELECT customer_id, transaction_count, avg_amount, max_amount, min_amount, total_amount
		FROM customer_statistics
		WHERE customer_id = $1
	`

	rec := &stats.CustomerRecord{}
	err := r.db.Pool.QueryRow(ctx, query, customerID).Scan(
		&rec.CustomerID,
		&rec.TransactionCount,
		&rec.AvgAmount,
		&rec.MaxAmount,
		&rec.MinAmount,
		&rec.TotalAmount,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerStatsNotFound
		}
		return nil, err
	}

	return rec, nil
}

// UpsertBatch writes customer statistics records. Only the seed tool uses
// this; the server never mutates the table.
func (r *StatsRepository) UpsertBatch(ctx context.Context, records []stats.CustomerRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO customer_statistics (
			customer_id, transaction_count, avg_amount, max_amount, min_amount, total_amount
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (customer_id) DO UPDATE SET
			transaction_count = EXCLUDED.transaction_count,
			avg_amount = EXCLUDED.avg_amount,
			max_amount = EXCLUDED.max_amount,
			min_amount = EXCLUDED.min_amount,
			total_amount = EXCLUDED.total_amount
	`

	for _, rec := range records {
		batch.Queue(query,
			rec.CustomerID,
			rec.TransactionCount,
			rec.AvgAmount,
			rec.MaxAmount,
			rec.MinAmount,
			rec.TotalAmount,
		)
	}

	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}

	return nil
}
