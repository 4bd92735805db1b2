package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"tissrecon/internal/analytics"
	"tissrecon/internal/exitcode"
	"tissrecon/internal/logging"
	"tissrecon/internal/model"
	"tissrecon/internal/normalize"
	"tissrecon/internal/pipeline"
	"tissrecon/internal/store"
)

// minPresentedForPctRank keeps low-volume items out of the percentage
// ranking.
const minPresentedForPctRank = 100.0

var simulateFactors []string

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Match billed claim-guide items against a payment statement",
	RunE:  runReconcile,
}

func init() {
	f := reconcileCmd.Flags()
	f.StringVar(&cfg.ClaimDir, "claims", "", "Directory of TISS claim-guide XML files (required)")
	f.StringVar(&cfg.StatementPath, "statement", "", "Payment statement CSV (required)")
	f.Float64Var(&cfg.Tolerance, "tolerance", cfg.Tolerance, "Max value difference for the description fallback tier")
	f.BoolVar(&cfg.DescriptionFallback, "description-fallback", false, "Enable the description+value fallback tier")
	f.BoolVar(&cfg.StripZeros, "strip-leading-zeros", false, "Strip leading zeros when normalizing procedure codes")
	f.StringVar(&cfg.ExportDir, "export-dir", "", "Write Parquet results under this directory")
	f.BoolVar(&cfg.DryRun, "dry-run", false, "Reconcile and report without persisting to the database")
	f.StringSliceVar(&simulateFactors, "simulate", nil, "What-if denial reduction, e.g. 1801=0.5 halves reason 1801 (repeatable)")
	_ = reconcileCmd.MarkFlagRequired("claims")
	_ = reconcileCmd.MarkFlagRequired("statement")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, verbose)
	ctx := context.Background()

	if err := cfg.ValidateReconcile(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	var pool *pgxpool.Pool
	if cfg.DSN != "" && !cfg.DryRun {
		var err error
		pool, err = store.NewPool(ctx, cfg.DSN)
		if err != nil {
			log.Error().Err(err).Msg("database connection failed")
			os.Exit(exitcode.DBConnError)
		}
		defer pool.Close()
	} else {
		log.Info().Msg("no DSN configured, results will not be persisted")
	}

	out, err := pipeline.Run(ctx, pool, log, &cfg)
	if err != nil {
		var pe *pipeline.PipelineError
		if errors.As(err, &pe) {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("reconciliation failed")
			switch pe.Phase {
			case "parse":
				os.Exit(exitcode.ParseError)
			case "statement":
				os.Exit(exitcode.ValidationError)
			case "export":
				os.Exit(exitcode.ExportError)
			default:
				os.Exit(exitcode.ReconcileError)
			}
		}
		log.Error().Err(err).Msg("reconciliation failed")
		os.Exit(exitcode.ReconcileError)
	}

	printReport(out)
	return nil
}

func printReport(out *pipeline.Output) {
	sum := out.Summary
	fmt.Println("=== tissrecon reconcile ===")
	fmt.Printf("Run:        %s\n", sum.RunID)
	fmt.Printf("Documents:  %d parsed, %d failed\n", sum.DocumentsParsed, sum.DocumentsFailed)
	fmt.Printf("Billed:     %d items\n", sum.BilledItems)
	fmt.Printf("Statement:  %d items\n", sum.PaymentItems)
	fmt.Printf("Matched:    %d (provider %d, payer %d, fallback %d)\n",
		sum.Matched(), sum.MatchedProvider, sum.MatchedPayer, sum.MatchedFallback)
	fmt.Printf("Unmatched:  %d\n", sum.UnmatchedItems)
	fmt.Printf("Duration:   %.1fs\n", sum.DurationTotal.Seconds())

	rows := out.Result.Reconciled

	if kpis := analytics.PeriodKPIs(rows); len(kpis) > 0 {
		fmt.Println("\nBy competence period:")
		for _, k := range kpis {
			fmt.Printf("  %-8s presented %-14s paid %-14s denied %-14s (%.1f%%)\n",
				k.Period, normalize.FormatBRL(k.Presented), normalize.FormatBRL(k.Paid),
				normalize.FormatBRL(k.Denied), k.DenialRatio*100)
		}
	}

	byValue, byPct := analytics.RankItems(rows, minPresentedForPctRank, cfg.TopN)
	if len(byValue) > 0 {
		fmt.Println("\nTop denied procedures by value:")
		for _, r := range byValue {
			fmt.Printf("  %-12s %-40.40s %s\n",
				r.ProcedureCode, r.Description, normalize.FormatBRL(r.Denied))
		}
	}
	if len(byPct) > 0 {
		fmt.Printf("\nTop denied procedures by rate (presented >= %s):\n",
			normalize.FormatBRL(minPresentedForPctRank))
		for _, r := range byPct {
			fmt.Printf("  %-12s %-40.40s %5.1f%% of %s\n",
				r.ProcedureCode, r.Description, r.DenialPct, normalize.FormatBRL(r.Presented))
		}
	}

	if reasons := analytics.ReasonBreakdown(rows, ""); len(reasons) > 0 {
		fmt.Println("\nDenial reasons:")
		for _, g := range reasons {
			fmt.Printf("  %-6s %-32.32s %-28s %s (%.1f%%)\n",
				g.Code, g.Description, g.Category, normalize.FormatBRL(g.Denied), g.SharePct)
		}
	}

	if outliers := analytics.Outliers(rows, cfg.OutlierK); len(outliers) > 0 {
		fmt.Printf("\nPresented-value outliers: %d\n", len(outliers))
		for i, o := range outliers {
			if i == cfg.TopN {
				fmt.Printf("  ... and %d more\n", len(outliers)-cfg.TopN)
				break
			}
			fmt.Printf("  %-12s %-40.40s %s (median %s)\n",
				o.ProcedureCode, o.Description,
				normalize.FormatBRL(o.Presented), normalize.FormatBRL(o.Median))
		}
	}

	if factors, err := parseFactors(simulateFactors); err != nil {
		fmt.Printf("\nSimulation skipped: %v\n", err)
	} else if len(factors) > 0 {
		printSimulation(rows, factors)
	}

	for _, p := range out.ExportPaths {
		fmt.Printf("\nWrote %s\n", p)
	}
}

// parseFactors turns repeated "reason=factor" flags into the simulation map.
func parseFactors(specs []string) (map[string]float64, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	factors := make(map[string]float64, len(specs))
	for _, s := range specs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("bad --simulate %q, want reason=factor", s)
		}
		f, err := strconv.ParseFloat(parts[1], 64)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("bad factor in --simulate %q", s)
		}
		factors[strings.TrimSpace(parts[0])] = f
	}
	return factors, nil
}

func printSimulation(rows []model.ReconciledItem, factors map[string]float64) {
	var deniedBefore, deniedAfter, paidBefore, paidAfter float64
	for i := range rows {
		deniedBefore += rows[i].Payment.DenialValue
		paidBefore += rows[i].Payment.PaidValue
	}
	for _, s := range analytics.Simulate(rows, factors) {
		deniedAfter += s.SimulatedDenied
		paidAfter += s.SimulatedPaid
	}

	fmt.Println("\nWhat-if simulation:")
	for reason, f := range factors {
		fmt.Printf("  reason %s x %.2f\n", reason, f)
	}
	fmt.Printf("  denied %s -> %s\n",
		normalize.FormatBRL(deniedBefore), normalize.FormatBRL(deniedAfter))
	fmt.Printf("  paid   %s -> %s (recovers %s)\n",
		normalize.FormatBRL(paidBefore), normalize.FormatBRL(paidAfter),
		normalize.FormatBRL(deniedBefore-deniedAfter))
}
