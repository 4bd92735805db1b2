package config

import (
	"fmt"
	"os"

	"tissrecon/internal/glosas"
	"tissrecon/internal/statement"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration for a reconciliation run.
type Config struct {
	DSN       string
	LogFormat string // "text" or "json"

	ClaimDir      string   // directory of TISS claim-guide XML files
	StatementPath string   // payment statement CSV
	ReportPaths   []string // denial-report CSVs (glosas subcommand)

	Tolerance           float64 `yaml:"tolerance"`
	DescriptionFallback bool    `yaml:"description_fallback"`
	StripZeros          bool    `yaml:"strip_leading_zeros"`

	TopN     int     `yaml:"top_n"`
	OutlierK float64 `yaml:"outlier_k"`

	ExportDir string // parquet output directory, empty disables export
	DryRun    bool   // reconcile and report without persisting

	Statement statement.Mapping `yaml:"statement"`
	Glosas    glosas.Mapping    `yaml:"glosas"`
}

// yamlConfig is the on-disk YAML structure. Flags cover the run-shaped
// fields; the file covers matching knobs and column mappings.
type yamlConfig struct {
	Tolerance           *float64 `yaml:"tolerance"`
	DescriptionFallback *bool    `yaml:"description_fallback"`
	StripZeros          *bool    `yaml:"strip_leading_zeros"`
	TopN                *int     `yaml:"top_n"`
	OutlierK            *float64 `yaml:"outlier_k"`

	Statement *statement.Mapping `yaml:"statement"`
	Glosas    *glosas.Mapping    `yaml:"glosas"`
}

// Default returns a Config with the stock matching parameters and the
// default column mappings.
func Default() Config {
	return Config{
		LogFormat: "text",
		Tolerance: 0.02,
		TopN:      10,
		OutlierK:  1.5,
		Statement: statement.DefaultMapping(),
		Glosas:    glosas.DefaultMapping(),
	}
}

// LoadFromFile reads a YAML config file and merges its values into Config.
// Only keys present in the file override the current values.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if yc.Tolerance != nil {
		c.Tolerance = *yc.Tolerance
	}
	if yc.DescriptionFallback != nil {
		c.DescriptionFallback = *yc.DescriptionFallback
	}
	if yc.StripZeros != nil {
		c.StripZeros = *yc.StripZeros
	}
	if yc.TopN != nil {
		c.TopN = *yc.TopN
	}
	if yc.OutlierK != nil {
		c.OutlierK = *yc.OutlierK
	}
	if yc.Statement != nil {
		c.Statement = *yc.Statement
	}
	if yc.Glosas != nil {
		c.Glosas = *yc.Glosas
	}
	return nil
}

// Validate checks the fields every subcommand depends on.
func (c *Config) Validate() error {
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance must be >= 0, got %v", c.Tolerance)
	}
	if c.TopN <= 0 {
		return fmt.Errorf("top_n must be positive, got %d", c.TopN)
	}
	if c.OutlierK <= 0 {
		return fmt.Errorf("outlier_k must be positive, got %v", c.OutlierK)
	}
	return nil
}

// ValidateReconcile checks the inputs of the reconcile subcommand.
func (c *Config) ValidateReconcile() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ClaimDir == "" {
		return fmt.Errorf("--claims is required")
	}
	if fi, err := os.Stat(c.ClaimDir); err != nil {
		return fmt.Errorf("claims directory not accessible: %w", err)
	} else if !fi.IsDir() {
		return fmt.Errorf("--claims must be a directory: %s", c.ClaimDir)
	}
	if c.StatementPath == "" {
		return fmt.Errorf("--statement is required")
	}
	if _, err := os.Stat(c.StatementPath); err != nil {
		return fmt.Errorf("statement not accessible: %w", err)
	}
	return c.Statement.Validate()
}

// ValidateGlosas checks the inputs of the glosas subcommand.
func (c *Config) ValidateGlosas() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.ReportPaths) == 0 {
		return fmt.Errorf("at least one report file is required")
	}
	for _, p := range c.ReportPaths {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("report not accessible: %w", err)
		}
	}
	return nil
}

// ValidateWithDSN additionally requires a database connection string.
func (c *Config) ValidateWithDSN() error {
	if c.DSN == "" {
		return fmt.Errorf("--dsn or DATABASE_URL is required")
	}
	return nil
}
