package analytics

import (
	"sort"

	"tissrecon/internal/model"
)

// ReasonGroup is the denial aggregate for one (reason code, description) pair.
type ReasonGroup struct {
	Code        string
	Description string
	Category    model.ReasonCategory

	Denied float64
	Items  int

	// SharePct is this group's percentage of the total denied value.
	SharePct float64
}

// ReasonBreakdown filters to rows with a positive denied value (optionally
// within one competence period), groups them by denial reason, categorizes
// each reason into the fixed ANS taxonomy, and computes each group's share
// of the total denied value. Sorted by denied value descending.
func ReasonBreakdown(rows []model.ReconciledItem, period string) []ReasonGroup {
	type key struct{ code, desc string }

	groups := make(map[key]*ReasonGroup)
	var totalDenied float64
	for i := range rows {
		r := &rows[i]
		if r.Payment.DenialValue <= 0 {
			continue
		}
		if period != "" && r.Payment.CompetencePeriod != period {
			continue
		}
		k := key{r.Payment.DenialReasonCode, r.Payment.DenialReasonDescription}
		g := groups[k]
		if g == nil {
			g = &ReasonGroup{
				Code:        k.code,
				Description: k.desc,
				Category:    model.CategorizeReason(k.code),
			}
			groups[k] = g
		}
		g.Denied += r.Payment.DenialValue
		g.Items++
		totalDenied += r.Payment.DenialValue
	}
	if len(groups) == 0 {
		return nil
	}

	out := make([]ReasonGroup, 0, len(groups))
	for _, g := range groups {
		g.SharePct = safeRatio(g.Denied, totalDenied) * 100
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Denied != out[j].Denied {
			return out[i].Denied > out[j].Denied
		}
		return out[i].Code < out[j].Code
	})
	return out
}
