package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"tissrecon/internal/config"
)

// cfg is initialized before any command's flag registration so flag
// defaults pick up the stock values.
var (
	cfg        = config.Default()
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "tissrecon",
	Short: "TISS claim-guide vs payment-statement reconciliation",
	Long: "Parses TISS claim-guide XML batches, matches billed items against payer\n" +
		"payment statements, and reports denial analytics.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			return cfg.LoadFromFile(configPath)
		}
		return nil
	},
}

func init() {
	// .env is optional; flags and real env still win
	_ = godotenv.Load()

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("DATABASE_URL"), "Postgres connection string (or set DATABASE_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&configPath, "config", "", "Path to YAML config file (matching knobs and column mappings)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
