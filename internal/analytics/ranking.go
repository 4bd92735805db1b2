package analytics

import (
	"sort"

	"tissrecon/internal/model"
)

// ItemRank is the per-procedure denial aggregate used by both rankings.
type ItemRank struct {
	ProcedureCode string
	Description   string

	Presented   float64
	Denied      float64
	Paid        float64
	DeniedCount int

	// DenialPct = Denied/Presented * 100, 0 when Presented <= 0.
	DenialPct float64
}

// RankItems groups reconciled rows by (procedure code, description),
// restricts to groups with a positive denied value, and returns two top-N
// rankings: by absolute denied value, and by denial percentage among groups
// whose presented total meets minPresented (the floor keeps low-volume items
// from dominating the percentage ranking).
func RankItems(rows []model.ReconciledItem, minPresented float64, topN int) (byValue, byPct []ItemRank) {
	type key struct{ code, desc string }

	groups := make(map[key]*ItemRank)
	for i := range rows {
		r := &rows[i]
		k := key{r.ProcedureCode, r.ProcedureDescription}
		g := groups[k]
		if g == nil {
			g = &ItemRank{ProcedureCode: k.code, Description: k.desc}
			groups[k] = g
		}
		g.Presented += presented(r)
		g.Denied += r.Payment.DenialValue
		g.Paid += r.Payment.PaidValue
		if r.Payment.DenialValue > 0 {
			g.DeniedCount++
		}
	}

	denied := make([]ItemRank, 0, len(groups))
	for _, g := range groups {
		if g.Denied <= 0 {
			continue
		}
		g.DenialPct = safeRatio(g.Denied, g.Presented) * 100
		denied = append(denied, *g)
	}
	if len(denied) == 0 {
		return nil, nil
	}

	byValue = topSorted(denied, topN, func(a, b ItemRank) bool { return a.Denied > b.Denied })

	floored := make([]ItemRank, 0, len(denied))
	for _, g := range denied {
		if g.Presented >= minPresented {
			floored = append(floored, g)
		}
	}
	byPct = topSorted(floored, topN, func(a, b ItemRank) bool { return a.DenialPct > b.DenialPct })
	return byValue, byPct
}

// topSorted returns up to n entries sorted by less, breaking ties by
// procedure code for deterministic output.
func topSorted(in []ItemRank, n int, less func(a, b ItemRank) bool) []ItemRank {
	out := make([]ItemRank, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool {
		if less(out[i], out[j]) != less(out[j], out[i]) {
			return less(out[i], out[j])
		}
		return out[i].ProcedureCode < out[j].ProcedureCode
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
