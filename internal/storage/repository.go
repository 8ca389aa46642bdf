package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	insertConversionSQL = `INSERT INTO conversions (
        from_currency,
        to_currency,
        amount,
        converted,
        rate,
        stale,
        rates_as_of,
        source
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8
    )
    RETURNING id, created_at;`

	listRecentConversionsSQL = `SELECT
        id,
        from_currency,
        to_currency,
        amount::text,
        converted::text,
        rate::text,
        stale,
        rates_as_of,
        source,
        created_at
    FROM conversions
    ORDER BY created_at DESC, id DESC
    LIMIT $1;`

	countConversionsSQL = `SELECT COUNT(*) FROM conversions;`

	deleteConversionsBeforeSQL = `DELETE FROM conversions WHERE created_at < $1;`
)

// ConversionJournal records completed conversions. It is write-mostly and
// never consulted for rates.
type ConversionJournal interface {
	InsertConversion(ctx context.Context, rec ConversionRecord) (ConversionRecord, error)
	ListRecentConversions(ctx context.Context, limit int) ([]ConversionRecord, error)
	CountConversions(ctx context.Context) (int64, error)
	DeleteConversionsBefore(ctx context.Context, olderThan time.Time) (int64, error)
}

// Store is the PostgreSQL-backed journal.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertConversion appends a record and returns it with ID and CreatedAt set.
func (s *Store) InsertConversion(ctx context.Context, rec ConversionRecord) (ConversionRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return ConversionRecord{}, err
	}

	var asOf interface{}
	if rec.RatesAsOf != nil {
		asOf = *rec.RatesAsOf
	}

	row := pool.QueryRow(ctx, insertConversionSQL,
		rec.FromCurrency,
		rec.ToCurrency,
		rec.Amount.String(),
		rec.Converted.String(),
		rec.Rate.String(),
		rec.Stale,
		asOf,
		rec.Source,
	)
	if scanErr := row.Scan(&rec.ID, &rec.CreatedAt); scanErr != nil {
		return ConversionRecord{}, fmt.Errorf("insert conversion: %w", scanErr)
	}
	return rec, nil
}

// ListRecentConversions lists the newest records first.
func (s *Store) ListRecentConversions(ctx context.Context, limit int) ([]ConversionRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentConversionsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent conversions: %w", queryErr)
	}
	defer rows.Close()

	records := make([]ConversionRecord, 0, limit)
	for rows.Next() {
		rec, scanErr := scanConversion(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

// CountConversions counts journaled records.
func (s *Store) CountConversions(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countConversionsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count conversions: %w", scanErr)
	}
	return count, nil
}

// DeleteConversionsBefore prunes old records and reports how many were removed.
func (s *Store) DeleteConversionsBefore(ctx context.Context, olderThan time.Time) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	tag, execErr := pool.Exec(ctx, deleteConversionsBeforeSQL, olderThan)
	if execErr != nil {
		return 0, fmt.Errorf("delete conversions before: %w", execErr)
	}
	return tag.RowsAffected(), nil
}

func scanConversion(rows pgx.Rows) (ConversionRecord, error) {
	var (
		rec          ConversionRecord
		amountStr    string
		convertedStr string
		rateStr      string
		asOf         *time.Time
	)

	if err := rows.Scan(
		&rec.ID,
		&rec.FromCurrency,
		&rec.ToCurrency,
		&amountStr,
		&convertedStr,
		&rateStr,
		&rec.Stale,
		&asOf,
		&rec.Source,
		&rec.CreatedAt,
	); err != nil {
		return ConversionRecord{}, err
	}

	var err error
	if rec.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return ConversionRecord{}, fmt.Errorf("parse amount: %w", err)
	}
	if rec.Converted, err = decimal.NewFromString(convertedStr); err != nil {
		return ConversionRecord{}, fmt.Errorf("parse converted: %w", err)
	}
	if rec.Rate, err = decimal.NewFromString(rateStr); err != nil {
		return ConversionRecord{}, fmt.Errorf("parse rate: %w", err)
	}
	rec.RatesAsOf = asOf

	return rec, nil
}

var _ ConversionJournal = (*Store)(nil)
