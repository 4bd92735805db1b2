package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tissrecon/internal/model"
	embedsql "tissrecon/internal/store/sql"
)

// Result tables.
var (
	ReconciledTable = pgx.Identifier{"recon", "reconciled_items"}
	UnmatchedTable  = pgx.Identifier{"recon", "unmatched_items"}
)

// Store wraps a pgx pool with the run lifecycle operations.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store over an existing pool. The caller owns the pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// RegisterRun inserts the runs row before any result row is loaded, so a
// crashed run is visible as status 'running' with no completion timestamp.
func (s *Store) RegisterRun(ctx context.Context, runID uuid.UUID, fingerprint string, tolerance float64, descFallback, stripZeros bool) error {
	_, err := s.pool.Exec(ctx, embedsql.RegisterRun,
		runID, fingerprint, tolerance, descFallback, stripZeros)
	if err != nil {
		return fmt.Errorf("register run: %w", err)
	}
	return nil
}

// CopyRows streams result rows into the given table via COPY and returns the
// number of rows written.
func (s *Store) CopyRows(ctx context.Context, table pgx.Identifier, rows <-chan *model.ResultRow) (int64, error) {
	n, err := s.pool.CopyFrom(ctx, table, model.ResultColumns(), NewChannelSource(rows))
	if err != nil {
		return n, fmt.Errorf("copy into %s: %w", table.Sanitize(), err)
	}
	return n, nil
}

// CompleteRun records final counts and timings for the run.
func (s *Store) CompleteRun(ctx context.Context, runID uuid.UUID, status string, sum *model.RunSummary) error {
	_, err := s.pool.Exec(ctx, embedsql.CompleteRun,
		runID, status,
		sum.DocumentsParsed, sum.DocumentsFailed,
		sum.BilledItems, sum.PaymentItems,
		sum.MatchedProvider, sum.MatchedPayer, sum.MatchedFallback,
		sum.UnmatchedItems,
		sum.DurationParse.Milliseconds(),
		sum.DurationMatch.Milliseconds(),
		sum.DurationTotal.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

// Totals are the loaded-value aggregates of one run, read back after the
// COPY as a cheap consistency check against the in-memory summary.
type Totals struct {
	ReconciledRows int64
	PresentedTotal float64
	PaidTotal      float64
	DeniedTotal    float64
}

// RunTotals aggregates the reconciled rows loaded for a run.
func (s *Store) RunTotals(ctx context.Context, runID uuid.UUID) (*Totals, error) {
	var t Totals
	err := s.pool.QueryRow(ctx, embedsql.RunTotals, runID).
		Scan(&t.ReconciledRows, &t.PresentedTotal, &t.PaidTotal, &t.DeniedTotal)
	if err != nil {
		return nil, fmt.Errorf("run totals: %w", err)
	}
	return &t, nil
}
