package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tissrecon/internal/exitcode"
	"tissrecon/internal/glosas"
	"tissrecon/internal/logging"
	"tissrecon/internal/normalize"
)

var glosasCmd = &cobra.Command{
	Use:   "glosas [report.csv ...]",
	Short: "Summarize payer denial reports",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGlosas,
}

func init() {
	rootCmd.AddCommand(glosasCmd)
}

func runGlosas(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, verbose)

	cfg.ReportPaths = args
	if err := cfg.ValidateGlosas(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	rows, err := glosas.ReadFiles(cfg.ReportPaths, cfg.Glosas)
	if err != nil {
		log.Error().Err(err).Msg("reading denial reports failed")
		os.Exit(exitcode.ParseError)
	}
	log.Info().Int("rows", len(rows)).Int("files", len(cfg.ReportPaths)).Msg("reports read")

	a := glosas.BuildAnalytics(rows)
	printGlosasReport(a)
	return nil
}

func printGlosasReport(a *glosas.Analytics) {
	k := a.KPIs
	fmt.Println("=== tissrecon glosas ===")
	fmt.Printf("Rows:       %d (%d with denials)\n", k.Rows, k.DenialRows)
	if k.PeriodStart != "" {
		fmt.Printf("Period:     %s to %s\n", k.PeriodStart, k.PeriodEnd)
	}
	fmt.Printf("Payers:     %d\n", k.Payers)
	fmt.Printf("Providers:  %d\n", k.Providers)
	fmt.Printf("Billed:     %s\n", normalize.FormatBRL(k.BilledValue))
	fmt.Printf("Denied:     %s (%.1f%%)\n", normalize.FormatBRL(k.DeniedValue), k.DenialRate*100)

	printGroups := func(title string, groups []glosas.Group) {
		if len(groups) == 0 {
			return
		}
		fmt.Printf("\n%s:\n", title)
		for i, g := range groups {
			if i == cfg.TopN {
				break
			}
			label := g.Key
			if g.Description != "" {
				label = fmt.Sprintf("%s %.40s", g.Key, g.Description)
			}
			fmt.Printf("  %-48.48s %-14s (%d rows)\n", label, normalize.FormatBRL(g.Denied), g.Count)
		}
	}
	printGroups("Top denial reasons", a.TopReasons)
	printGroups("By denial type", a.ByType)
	printGroups("Top denied items", a.TopItems)
	printGroups("By payer", a.ByPayer)
}
