package analytics

import (
	"math"
	"sort"

	"tissrecon/internal/model"
)

// DefaultFenceK is the standard Tukey fence multiplier.
const DefaultFenceK = 1.5

// Outlier is a reconciled row whose presented value falls outside its
// procedure group's Tukey fence, together with the group statistics.
type Outlier struct {
	ProcedureCode string
	Description   string
	Presented     float64

	Median float64
	Q1     float64
	Q3     float64
	IQR    float64
}

// Outliers flags rows whose presented value lies outside
// [Q1 - k*IQR, Q3 + k*IQR] within their (procedure code, description) group.
// Bounds are exclusive: a value sitting exactly on a fence is not flagged.
// Rows missing the procedure code or the presented value are excluded before
// grouping. Output is sorted by (code, description, value) for determinism.
func Outliers(rows []model.ReconciledItem, k float64) []Outlier {
	type key struct{ code, desc string }

	values := make(map[key][]float64)
	for i := range rows {
		r := &rows[i]
		if r.ProcedureCode == "" || r.Payment.PresentedValue == nil {
			continue
		}
		g := key{r.ProcedureCode, r.ProcedureDescription}
		values[g] = append(values[g], *r.Payment.PresentedValue)
	}

	var out []Outlier
	for g, vals := range values {
		sorted := make([]float64, len(vals))
		copy(sorted, vals)
		sort.Float64s(sorted)

		q1 := quantile(sorted, 0.25)
		q3 := quantile(sorted, 0.75)
		iqr := q3 - q1
		lo := q1 - k*iqr
		hi := q3 + k*iqr
		med := quantile(sorted, 0.5)

		for _, v := range vals {
			if v > hi || v < lo {
				out = append(out, Outlier{
					ProcedureCode: g.code,
					Description:   g.desc,
					Presented:     v,
					Median:        med,
					Q1:            q1,
					Q3:            q3,
					IQR:           iqr,
				})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ProcedureCode != out[j].ProcedureCode {
			return out[i].ProcedureCode < out[j].ProcedureCode
		}
		if out[i].Description != out[j].Description {
			return out[i].Description < out[j].Description
		}
		return out[i].Presented < out[j].Presented
	})
	return out
}

// quantile computes the q-quantile of an ascending-sorted slice with linear
// interpolation between closest ranks, matching the conventional
// spreadsheet/statistics definition.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return 0
	case n == 1:
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
