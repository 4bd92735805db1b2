// Package analytics computes aggregate views over reconciled billing data:
// per-period KPIs, denial rankings and breakdowns, outlier detection, and
// what-if simulation. Every function is a pure, order-independent
// aggregation over its input slice.
package analytics

import (
	"sort"

	"tissrecon/internal/model"
)

// PeriodKPI summarizes one competence period.
type PeriodKPI struct {
	Period    string
	Presented float64
	Paid      float64
	Denied    float64
	// DenialRatio = Denied/Presented, 0 when Presented <= 0.
	DenialRatio float64
}

// PeriodKPIs groups reconciled rows by competence period and sums their
// financial values, sorted by period ascending.
func PeriodKPIs(rows []model.ReconciledItem) []PeriodKPI {
	if len(rows) == 0 {
		return nil
	}

	byPeriod := make(map[string]*PeriodKPI)
	for i := range rows {
		r := &rows[i]
		kpi := byPeriod[r.Payment.CompetencePeriod]
		if kpi == nil {
			kpi = &PeriodKPI{Period: r.Payment.CompetencePeriod}
			byPeriod[r.Payment.CompetencePeriod] = kpi
		}
		kpi.Presented += presented(r)
		kpi.Paid += r.Payment.PaidValue
		kpi.Denied += r.Payment.DenialValue
	}

	out := make([]PeriodKPI, 0, len(byPeriod))
	for _, kpi := range byPeriod {
		kpi.DenialRatio = safeRatio(kpi.Denied, kpi.Presented)
		out = append(out, *kpi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

func presented(r *model.ReconciledItem) float64 {
	if r.Payment.PresentedValue == nil {
		return 0
	}
	return *r.Payment.PresentedValue
}

// safeRatio divides num by den, returning 0 instead of NaN/Inf when den is
// not positive.
func safeRatio(num, den float64) float64 {
	if den > 0 {
		return num / den
	}
	return 0
}
