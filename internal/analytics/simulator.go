package analytics

import "tissrecon/internal/model"

// SimulatedItem is one reconciled row with its hypothetical values under a
// denial-factor scenario.
type SimulatedItem struct {
	model.ReconciledItem

	SimulatedDenied float64
	SimulatedPaid   float64
	SimulatedRatio  float64
}

// Simulate applies a what-if scenario: factors maps a denial-reason code to
// a multiplicative factor in [0,1] applied to that reason's denied value;
// rows with unlisted reason codes keep their original denied value. The
// hypothetical paid value is recomputed for every row as presented minus
// simulated denied, both clamped at zero. The input is never mutated.
func Simulate(rows []model.ReconciledItem, factors map[string]float64) []SimulatedItem {
	if len(rows) == 0 {
		return nil
	}

	out := make([]SimulatedItem, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		sim := SimulatedItem{ReconciledItem: *r}

		denied := r.Payment.DenialValue
		if factor, ok := factors[r.Payment.DenialReasonCode]; ok {
			denied *= factor
		}
		if denied < 0 {
			denied = 0
		}

		pres := presented(r)
		paid := pres - denied
		if paid < 0 {
			paid = 0
		}

		sim.SimulatedDenied = denied
		sim.SimulatedPaid = paid
		sim.SimulatedRatio = safeRatio(denied, pres)
		out = append(out, sim)
	}
	return out
}
