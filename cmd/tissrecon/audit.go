package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"tissrecon/internal/exitcode"
	"tissrecon/internal/logging"
	"tissrecon/internal/normalize"
	"tissrecon/internal/recon"
	"tissrecon/internal/tiss"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Dry-run parse of claim guides with per-guide totals (no statement, no writes)",
	RunE:  runAudit,
}

func init() {
	auditCmd.Flags().StringVar(&cfg.ClaimDir, "claims", "", "Directory of TISS claim-guide XML files (required)")
	_ = auditCmd.MarkFlagRequired("claims")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, verbose)

	if cfg.ClaimDir == "" {
		log.Error().Msg("--claims is required")
		os.Exit(exitcode.UsageError)
	}

	entries, err := os.ReadDir(cfg.ClaimDir)
	if err != nil {
		log.Error().Err(err).Msg("reading claims directory failed")
		os.Exit(exitcode.ValidationError)
	}

	var inputs []tiss.Input
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(cfg.ClaimDir, name))
		if err != nil {
			log.Error().Err(err).Str("file", name).Msg("reading claim file failed")
			os.Exit(exitcode.ValidationError)
		}
		inputs = append(inputs, tiss.Input{Name: name, Data: data})
	}
	if len(inputs) == 0 {
		log.Error().Str("dir", cfg.ClaimDir).Msg("no XML files found")
		os.Exit(exitcode.ValidationError)
	}

	items := tiss.ParseBatch(log, inputs)
	billed := recon.BuildBilledTable(items, cfg.StripZeros)
	guides := recon.AuditGuides(billed)

	var total float64
	var itemCount int
	for _, g := range guides {
		total += g.TotalValue
		itemCount += g.ItemCount
	}

	fmt.Println("=== tissrecon audit ===")
	fmt.Printf("Files:   %d\n", len(inputs))
	fmt.Printf("Guides:  %d\n", len(guides))
	fmt.Printf("Items:   %d\n", itemCount)
	fmt.Printf("Billed:  %s\n", normalize.FormatBRL(total))
	fmt.Println()
	for _, g := range guides {
		fmt.Printf("  %-14s %-12s %3d items  %-14s %s\n",
			g.GuideKey, g.GuideType, g.ItemCount,
			normalize.FormatBRL(g.TotalValue), g.PatientName)
	}

	var failed int
	for _, it := range items {
		if it.ParseError != "" {
			failed++
		}
	}
	if failed > 0 {
		fmt.Printf("\nParse failures: %d (see log)\n", failed)
	}
	return nil
}
