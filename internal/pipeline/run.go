// Package pipeline orchestrates a full reconciliation run: parse the claim
// guides, read the payment statement, match, then export and persist the
// results.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"tissrecon/internal/config"
	"tissrecon/internal/export"
	"tissrecon/internal/model"
	"tissrecon/internal/normalize"
	"tissrecon/internal/recon"
	"tissrecon/internal/statement"
	"tissrecon/internal/store"
	"tissrecon/internal/tiss"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Output is everything a run produced. Reconciled and Unmatched are the
// flattened row forms, in the order they were numbered.
type Output struct {
	RunID   uuid.UUID
	Summary *model.RunSummary
	Result  *recon.Result

	Reconciled []*model.ResultRow
	Unmatched  []*model.ResultRow

	ExportPaths []string
}

// Run executes the pipeline. pool may be nil (or cfg.DryRun set) to skip
// persistence; cfg.ExportDir empty skips the Parquet export.
func Run(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, cfg *config.Config) (*Output, error) {
	totalStart := time.Now()
	runID := uuid.New()
	log = log.With().Str("run_id", runID.String()).Logger()

	// Phase 1: Parse claim guides
	log.Info().Str("dir", cfg.ClaimDir).Msg("parsing claim guides")
	parseStart := time.Now()

	inputs, hashes, err := loadClaimFiles(cfg.ClaimDir)
	if err != nil {
		return nil, &PipelineError{Phase: "parse", Err: err}
	}
	if len(inputs) == 0 {
		return nil, &PipelineError{Phase: "parse", Err: fmt.Errorf("no XML files in %s", cfg.ClaimDir)}
	}

	items := tiss.ParseBatch(log, inputs)
	billed := recon.BuildBilledTable(items, cfg.StripZeros)

	failedDocs := map[string]struct{}{}
	for i := range billed {
		if billed[i].ParseError != "" {
			failedDocs[billed[i].SourceFile] = struct{}{}
		}
	}
	parseDur := time.Since(parseStart)

	// Phase 2: Read payment statement
	log.Info().Str("statement", cfg.StatementPath).Msg("reading payment statement")
	payments, err := statement.ReadFile(cfg.StatementPath, cfg.Statement, cfg.StripZeros)
	if err != nil {
		return nil, &PipelineError{Phase: "statement", Err: err}
	}
	stmtHash, err := normalize.FileHash(cfg.StatementPath)
	if err != nil {
		return nil, &PipelineError{Phase: "statement", Err: err}
	}
	hashes = append(hashes, stmtHash)
	fingerprint := normalize.RunFingerprint(hashes, cfg.Tolerance, cfg.DescriptionFallback, cfg.StripZeros)

	// Phase 3: Match
	log.Info().
		Int("billed_items", len(billed)).
		Int("payment_items", len(payments)).
		Msg("matching")
	matchStart := time.Now()
	result := recon.Reconcile(log, billed, payments, recon.Options{
		Tolerance:           cfg.Tolerance,
		DescriptionFallback: cfg.DescriptionFallback,
	})
	matchDur := time.Since(matchStart)

	out := &Output{RunID: runID, Result: result}
	for i := range result.Reconciled {
		out.Reconciled = append(out.Reconciled,
			model.ReconciledToRow(runID, int64(i+1), &result.Reconciled[i]))
	}
	for i := range result.Unmatched {
		out.Unmatched = append(out.Unmatched,
			model.UnmatchedToRow(runID, int64(i+1), &result.Unmatched[i]))
	}

	// Phase 4: Export
	if cfg.ExportDir != "" {
		dir := filepath.Join(cfg.ExportDir, runID.String())
		log.Info().Str("dir", dir).Msg("writing parquet export")
		paths, err := export.WriteRun(dir, out.Reconciled, out.Unmatched)
		if err != nil {
			return nil, &PipelineError{Phase: "export", Err: err}
		}
		out.ExportPaths = paths
	}

	out.Summary = &model.RunSummary{
		RunID:            runID.String(),
		InputFingerprint: fingerprint,
		DocumentsParsed:  len(inputs) - len(failedDocs),
		DocumentsFailed:  len(failedDocs),
		BilledItems:      len(billed),
		PaymentItems:     len(payments),
		MatchedProvider:  result.MatchedProvider,
		MatchedPayer:     result.MatchedPayer,
		MatchedFallback:  result.MatchedFallback,
		UnmatchedItems:   len(result.Unmatched),
		DurationParse:    parseDur,
		DurationMatch:    matchDur,
	}

	// Phase 5: Persist
	if pool != nil && !cfg.DryRun {
		log.Info().Msg("persisting results")
		if err := persist(ctx, pool, out, cfg); err != nil {
			return nil, &PipelineError{Phase: "persist", Err: err}
		}
	}

	out.Summary.DurationTotal = time.Since(totalStart)
	log.Info().
		Int("matched", out.Summary.Matched()).
		Int("unmatched", out.Summary.UnmatchedItems).
		Dur("total", out.Summary.DurationTotal).
		Msg("run complete")
	return out, nil
}

// loadClaimFiles reads every XML file in dir, sorted by name so run
// fingerprints are stable, and returns the inputs plus their content hashes.
func loadClaimFiles(dir string) ([]tiss.Input, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read claims dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var inputs []tiss.Input
	var hashes []string
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("read claim file %s: %w", name, err)
		}
		sha, err := normalize.FileHash(path)
		if err != nil {
			return nil, nil, fmt.Errorf("hash claim file %s: %w", name, err)
		}
		inputs = append(inputs, tiss.Input{Name: name, Data: data})
		hashes = append(hashes, sha)
	}
	return inputs, hashes, nil
}

func persist(ctx context.Context, pool *pgxpool.Pool, out *Output, cfg *config.Config) error {
	s := store.New(pool)

	// Cancelling on any error branch releases the channel producers should
	// a COPY stop draining mid-stream.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := s.RegisterRun(ctx, out.RunID, out.Summary.InputFingerprint,
		cfg.Tolerance, cfg.DescriptionFallback, cfg.StripZeros); err != nil {
		return err
	}

	if _, err := s.CopyRows(ctx, store.ReconciledTable, rowChannel(ctx, out.Reconciled)); err != nil {
		return err
	}
	if _, err := s.CopyRows(ctx, store.UnmatchedTable, rowChannel(ctx, out.Unmatched)); err != nil {
		return err
	}

	return s.CompleteRun(ctx, out.RunID, "complete", out.Summary)
}

// rowChannel streams rows to a channel the COPY source drains. The producer
// selects on ctx so it exits (closing the channel) when the consumer stops
// reading early.
func rowChannel(ctx context.Context, rows []*model.ResultRow) <-chan *model.ResultRow {
	ch := make(chan *model.ResultRow, 256)
	go func() {
		defer close(ch)
		for _, r := range rows {
			select {
			case ch <- r:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
