package model

import "time"

// RunSummary captures metrics from a single reconciliation run.
type RunSummary struct {
	RunID            string
	InputFingerprint string

	DocumentsParsed int
	DocumentsFailed int
	BilledItems     int
	PaymentItems    int

	MatchedProvider int
	MatchedPayer    int
	MatchedFallback int
	UnmatchedItems  int

	DurationParse time.Duration
	DurationMatch time.Duration
	DurationTotal time.Duration
}

// Matched returns the total reconciled row count across all tiers.
func (s *RunSummary) Matched() int {
	return s.MatchedProvider + s.MatchedPayer + s.MatchedFallback
}
