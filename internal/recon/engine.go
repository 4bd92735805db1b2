package recon

import (
	"math"
	"strings"

	"github.com/rs/zerolog"

	"tissrecon/internal/model"
)

// DefaultTolerance is the currency tolerance for the description+value
// fallback tier.
const DefaultTolerance = 0.02

// Options configures one reconciliation run.
type Options struct {
	// Tolerance is the maximum absolute difference (inclusive) between the
	// billed total and the presented value for a fallback match.
	Tolerance float64
	// DescriptionFallback enables the third matching tier. Off by default
	// because repeated descriptions across cases can produce false positives.
	DescriptionFallback bool
}

// Result is the output of one reconciliation run, owned by the caller.
type Result struct {
	Reconciled []model.ReconciledItem
	Unmatched  []model.BilledItem

	MatchedProvider int
	MatchedPayer    int
	MatchedFallback int
}

// Reconcile matches billed items against payment items in three strict
// tiers, each consuming only the leftovers of the previous one:
//
//  1. provider-guide key == statement join key
//  2. payer-guide key == statement join key
//  3. (guide number, procedure description) with the presented value within
//     Tolerance of the billed total, only when DescriptionFallback is set
//
// A billed item matches a tier when at least one candidate payment row has a
// non-nil presented value; every such candidate produces a reconciled row
// (key fan-out is preserved, as the statement can legitimately split one
// item). Missing presented values never match and are never treated as zero.
//
// The fallback tier's billed-side guide number is the provider number or,
// when blank, the payer number; the statement side always uses its own
// provider guide number. The asymmetry is inherited input behavior and is
// kept intentionally.
func Reconcile(log zerolog.Logger, billed []model.BilledItem, payments []model.PaymentItem, opts Options) *Result {
	res := &Result{}
	if len(billed) == 0 {
		return res
	}

	byKey := make(map[string][]*model.PaymentItem)
	for i := range payments {
		p := &payments[i]
		byKey[p.JoinKey] = append(byKey[p.JoinKey], p)
	}

	// Tier 1: provider-guide key.
	leftover := matchTier(res, billed, byKey, model.MatchProvider)
	// Tier 2: payer-guide key.
	leftover = matchTier(res, leftover, byKey, model.MatchPayer)

	// Tier 3: description + value within tolerance.
	resolved := map[string]bool{}
	if opts.DescriptionFallback && len(leftover) > 0 {
		resolved = matchFallback(res, leftover, payments, opts.Tolerance)
	}

	unmatched := leftover[:0:0]
	for _, b := range leftover {
		if resolved[b.KeyByProviderGuide] {
			continue
		}
		unmatched = append(unmatched, b)
	}
	res.Unmatched = dedupUnmatched(unmatched)

	log.Info().
		Int("billed", len(billed)).
		Int("payments", len(payments)).
		Int("matched_provider", res.MatchedProvider).
		Int("matched_payer", res.MatchedPayer).
		Int("matched_fallback", res.MatchedFallback).
		Int("unmatched", len(res.Unmatched)).
		Msg("reconciliation complete")

	return res
}

// matchTier joins items to payments on one of the two guide keys and returns
// the items no candidate with a presented value was found for.
func matchTier(res *Result, items []model.BilledItem, byKey map[string][]*model.PaymentItem, tier model.MatchTier) []model.BilledItem {
	var leftover []model.BilledItem
	for _, b := range items {
		key := b.KeyByProviderGuide
		if tier == model.MatchPayer {
			key = b.KeyByPayerGuide
		}

		matched := false
		if b.ParseError == "" && key != "" {
			for _, p := range byKey[key] {
				if p.PresentedValue == nil {
					continue
				}
				res.add(b, p, tier)
				matched = true
			}
		}
		if !matched {
			leftover = append(leftover, b)
		}
	}
	return leftover
}

type descKey struct {
	guide       string
	description string
}

// matchFallback runs the description+value tier over the tier-2 leftovers and
// returns the provider-guide keys it resolved, so the unmatched report can
// drop every leftover sharing a resolved key.
func matchFallback(res *Result, items []model.BilledItem, payments []model.PaymentItem, tolerance float64) map[string]bool {
	byDesc := make(map[descKey][]*model.PaymentItem)
	for i := range payments {
		p := &payments[i]
		k := descKey{strings.TrimSpace(p.ProviderGuideNumber), p.ProcedureDescription}
		byDesc[k] = append(byDesc[k], p)
	}

	resolved := make(map[string]bool)
	for _, b := range items {
		if b.ParseError != "" {
			continue
		}
		guide := strings.TrimSpace(b.ProviderGuideNumber)
		if guide == "" {
			guide = strings.TrimSpace(b.PayerGuideNumber)
		}
		for _, p := range byDesc[descKey{guide, b.ProcedureDescription}] {
			if p.PresentedValue == nil {
				continue
			}
			if math.Abs(b.TotalValue-*p.PresentedValue) > tolerance {
				continue
			}
			res.add(b, p, model.MatchDescValue)
			resolved[b.KeyByProviderGuide] = true
		}
	}
	return resolved
}

// add appends one reconciled row with its derived discrepancy metrics.
func (r *Result) add(b model.BilledItem, p *model.PaymentItem, tier model.MatchTier) {
	it := model.ReconciledItem{
		BilledItem: b,
		Payment:    *p,
		MatchedOn:  tier,
	}
	if p.PresentedValue != nil {
		it.ValueDifference = b.TotalValue - *p.PresentedValue
		if *p.PresentedValue > 0 {
			it.DenialRatio = p.DenialValue / *p.PresentedValue
		}
	}
	r.Reconciled = append(r.Reconciled, it)

	switch tier {
	case model.MatchProvider:
		r.MatchedProvider++
	case model.MatchPayer:
		r.MatchedPayer++
	case model.MatchDescValue:
		r.MatchedFallback++
	}
}

type unmatchedKey struct {
	sourceFile    string
	providerGuide string
	procedureCode string
	totalValue    float64
}

// dedupUnmatched collapses leftovers that describe the same physical line
// item, which join fan-out would otherwise duplicate in the report.
func dedupUnmatched(items []model.BilledItem) []model.BilledItem {
	seen := make(map[unmatchedKey]bool, len(items))
	out := items[:0:0]
	for _, b := range items {
		k := unmatchedKey{b.SourceFile, b.ProviderGuideNumber, b.ProcedureCode, b.TotalValue}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, b)
	}
	return out
}
