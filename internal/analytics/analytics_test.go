package analytics

import (
	"math"
	"testing"

	"tissrecon/internal/model"
)

func row(code, desc, period, reason string, presented, paid, denied float64) model.ReconciledItem {
	p := presented
	return model.ReconciledItem{
		BilledItem: model.BilledItem{
			ProcedureCode:        code,
			ProcedureDescription: desc,
		},
		Payment: model.PaymentItem{
			PresentedValue:          &p,
			PaidValue:               paid,
			DenialValue:             denied,
			DenialReasonCode:        reason,
			CompetencePeriod:        period,
			DenialReasonDescription: "reason " + reason,
		},
		MatchedOn: model.MatchProvider,
	}
}

func TestPeriodKPIs(t *testing.T) {
	rows := []model.ReconciledItem{
		row("A", "a", "2024-02", "1001", 100, 90, 10),
		row("B", "b", "2024-01", "1001", 200, 200, 0),
		row("C", "c", "2024-02", "1802", 50, 25, 25),
	}

	kpis := PeriodKPIs(rows)
	if len(kpis) != 2 {
		t.Fatalf("expected 2 periods, got %d", len(kpis))
	}
	if kpis[0].Period != "2024-01" || kpis[1].Period != "2024-02" {
		t.Fatalf("not sorted ascending: %+v", kpis)
	}
	feb := kpis[1]
	if feb.Presented != 150 || feb.Denied != 35 || feb.Paid != 115 {
		t.Errorf("feb sums = %+v", feb)
	}
	want := 35.0 / 150.0
	if math.Abs(feb.DenialRatio-want) > 1e-12 {
		t.Errorf("feb ratio = %v, want %v", feb.DenialRatio, want)
	}
}

func TestPeriodKPIsZeroPresented(t *testing.T) {
	rows := []model.ReconciledItem{row("A", "a", "p", "1001", 0, 0, 10)}
	kpis := PeriodKPIs(rows)
	if r := kpis[0].DenialRatio; r != 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		t.Errorf("ratio = %v, want 0", r)
	}
}

func TestRankItems(t *testing.T) {
	rows := []model.ReconciledItem{
		row("P1", "big denial", "", "1001", 1000, 500, 500),
		row("P1", "big denial", "", "1001", 1000, 800, 200),
		row("P2", "high pct", "", "1001", 100, 10, 90),
		row("P3", "no denial", "", "", 300, 300, 0),
	}

	byValue, byPct := RankItems(rows, 0, 10)

	// groups with zero denied are excluded entirely
	for _, g := range byValue {
		if g.ProcedureCode == "P3" {
			t.Error("zero-denial group present in ranking")
		}
	}
	if len(byValue) != 2 {
		t.Fatalf("byValue size = %d", len(byValue))
	}
	if byValue[0].ProcedureCode != "P1" || byValue[0].Denied != 700 {
		t.Errorf("byValue[0] = %+v", byValue[0])
	}
	if byValue[0].DeniedCount != 2 {
		t.Errorf("denied count = %d", byValue[0].DeniedCount)
	}
	if byPct[0].ProcedureCode != "P2" || byPct[0].DenialPct != 90 {
		t.Errorf("byPct[0] = %+v", byPct[0])
	}
}

func TestRankItemsPresentedFloor(t *testing.T) {
	rows := []model.ReconciledItem{
		row("LOW", "tiny volume", "", "1001", 10, 0, 10),    // 100% but tiny
		row("BIG", "real volume", "", "1001", 1000, 900, 100), // 10%
	}
	_, byPct := RankItems(rows, 500, 10)
	if len(byPct) != 1 || byPct[0].ProcedureCode != "BIG" {
		t.Fatalf("floor not applied: %+v", byPct)
	}
}

func TestRankItemsTopN(t *testing.T) {
	rows := []model.ReconciledItem{
		row("A", "", "", "1", 10, 0, 1),
		row("B", "", "", "1", 10, 0, 2),
		row("C", "", "", "1", 10, 0, 3),
	}
	byValue, _ := RankItems(rows, 0, 2)
	if len(byValue) != 2 || byValue[0].ProcedureCode != "C" {
		t.Fatalf("topN = %+v", byValue)
	}
}

func TestReasonBreakdown(t *testing.T) {
	rows := []model.ReconciledItem{
		row("A", "a", "2024-01", "1001", 100, 40, 60),
		row("B", "b", "2024-01", "2001", 100, 60, 40),
		row("C", "c", "2024-02", "1001", 100, 100, 0), // not denied
	}

	groups := ReasonBreakdown(rows, "")
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Code != "1001" || groups[0].Denied != 60 {
		t.Errorf("groups[0] = %+v", groups[0])
	}
	if groups[0].Category != model.CategoryEligibility {
		t.Errorf("category = %q", groups[0].Category)
	}
	if groups[1].Category != model.CategoryMedicalAudit {
		t.Errorf("category = %q", groups[1].Category)
	}
	if math.Abs(groups[0].SharePct-60) > 1e-12 || math.Abs(groups[1].SharePct-40) > 1e-12 {
		t.Errorf("shares = %v / %v", groups[0].SharePct, groups[1].SharePct)
	}
}

func TestReasonBreakdownPeriodFilter(t *testing.T) {
	rows := []model.ReconciledItem{
		row("A", "a", "2024-01", "1001", 100, 40, 60),
		row("B", "b", "2024-02", "1801", 100, 60, 40),
	}
	groups := ReasonBreakdown(rows, "2024-02")
	if len(groups) != 1 || groups[0].Code != "1801" {
		t.Fatalf("period filter broken: %+v", groups)
	}
	if groups[0].SharePct != 100 {
		t.Errorf("share = %v", groups[0].SharePct)
	}
}

func TestCategorizeReason(t *testing.T) {
	cases := map[string]model.ReasonCategory{
		"1001": model.CategoryEligibility,
		"1209": model.CategoryAuthorization,
		"1806": model.CategoryPricingTable,
		"2012": model.CategoryMedicalAudit,
		"2290": model.CategoryMedicalAudit,
		"2505": model.CategoryDocumentation,
		"9999": model.CategoryOther,
		"":     model.CategoryOther,
	}
	for code, want := range cases {
		if got := model.CategorizeReason(code); got != want {
			t.Errorf("CategorizeReason(%q) = %q, want %q", code, got, want)
		}
	}
}

func TestOutlierFence(t *testing.T) {
	// Each base is chosen so that, with the extra value included (9 total),
	// the interpolated quartile ranks land on whole indices and give
	// Q1=100, Q3=200 exactly: k=1.5 fences at -50 and 350.
	baseHigh := []float64{90, 95, 100, 120, 150, 180, 200, 200} // extra value sorts last
	baseLow := []float64{95, 100, 110, 150, 180, 200, 200, 210} // extra value sorts first

	mk := func(base []float64, extra float64) []model.ReconciledItem {
		var rows []model.ReconciledItem
		for _, v := range base {
			rows = append(rows, row("X", "exam", "", "", v, v, 0))
		}
		rows = append(rows, row("X", "exam", "", "", extra, extra, 0))
		return rows
	}

	cases := []struct {
		base    []float64
		value   float64
		flagged bool
	}{
		{baseHigh, 349, false},
		{baseHigh, 351, true},
		{baseLow, -51, true},
		{baseLow, -49, false},
	}
	for _, c := range cases {
		out := Outliers(mk(c.base, c.value), DefaultFenceK)
		flagged := false
		for _, o := range out {
			if o.Presented == c.value {
				flagged = true
				if o.Q1 != 100 || o.Q3 != 200 || o.IQR != 100 {
					t.Errorf("group stats for %v = Q1 %v Q3 %v IQR %v", c.value, o.Q1, o.Q3, o.IQR)
				}
			}
		}
		if flagged != c.flagged {
			t.Errorf("value %v flagged=%v, want %v", c.value, flagged, c.flagged)
		}
	}
}

func TestOutliersExcludeIncompleteRows(t *testing.T) {
	rows := []model.ReconciledItem{
		row("", "no code", "", "", 1e9, 0, 0),
	}
	noPresented := row("X", "x", "", "", 0, 0, 0)
	noPresented.Payment.PresentedValue = nil
	rows = append(rows, noPresented)

	if out := Outliers(rows, DefaultFenceK); len(out) != 0 {
		t.Fatalf("incomplete rows grouped: %+v", out)
	}
}

func TestQuantileInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	if q := quantile(sorted, 0.25); q != 1.75 {
		t.Errorf("q1 = %v, want 1.75", q)
	}
	if q := quantile(sorted, 0.5); q != 2.5 {
		t.Errorf("median = %v, want 2.5", q)
	}
	if q := quantile(sorted, 0.75); q != 3.25 {
		t.Errorf("q3 = %v, want 3.25", q)
	}
	if q := quantile([]float64{7}, 0.5); q != 7 {
		t.Errorf("single = %v", q)
	}
	if q := quantile(nil, 0.5); q != 0 {
		t.Errorf("empty = %v", q)
	}
}

func TestSimulateZeroFactor(t *testing.T) {
	rows := []model.ReconciledItem{
		row("A", "a", "", "1001", 100, 40, 60),
		row("B", "b", "", "1801", 200, 150, 50),
	}
	sim := Simulate(rows, map[string]float64{"1001": 0, "1801": 0})
	for _, s := range sim {
		if s.SimulatedDenied != 0 {
			t.Errorf("%s simulated denied = %v", s.ProcedureCode, s.SimulatedDenied)
		}
		if s.SimulatedPaid != presented(&s.ReconciledItem) {
			t.Errorf("%s simulated paid = %v", s.ProcedureCode, s.SimulatedPaid)
		}
		if s.SimulatedRatio != 0 {
			t.Errorf("%s simulated ratio = %v", s.ProcedureCode, s.SimulatedRatio)
		}
	}
}

func TestSimulateIdentityFactor(t *testing.T) {
	rows := []model.ReconciledItem{row("A", "a", "", "1001", 100, 40, 60)}
	sim := Simulate(rows, map[string]float64{"1001": 1})
	if sim[0].SimulatedDenied != 60 {
		t.Errorf("simulated denied = %v, want original 60", sim[0].SimulatedDenied)
	}
	if sim[0].SimulatedPaid != 40 {
		t.Errorf("simulated paid = %v", sim[0].SimulatedPaid)
	}
	if math.Abs(sim[0].SimulatedRatio-0.6) > 1e-12 {
		t.Errorf("simulated ratio = %v", sim[0].SimulatedRatio)
	}
}

func TestSimulateUnlistedReasonKeepsDenied(t *testing.T) {
	rows := []model.ReconciledItem{row("A", "a", "", "2222", 100, 40, 60)}
	sim := Simulate(rows, map[string]float64{"1001": 0})
	if sim[0].SimulatedDenied != 60 {
		t.Errorf("unlisted reason changed: %v", sim[0].SimulatedDenied)
	}
}

func TestSimulateDoesNotMutateInput(t *testing.T) {
	rows := []model.ReconciledItem{row("A", "a", "", "1001", 100, 40, 60)}
	_ = Simulate(rows, map[string]float64{"1001": 0})
	if rows[0].Payment.DenialValue != 60 || rows[0].Payment.PaidValue != 40 {
		t.Fatalf("input mutated: %+v", rows[0].Payment)
	}
}

func TestSimulateClampsPaid(t *testing.T) {
	// Denied larger than presented: paid clamps at zero.
	rows := []model.ReconciledItem{row("A", "a", "", "9999", 50, 0, 80)}
	sim := Simulate(rows, nil)
	if sim[0].SimulatedPaid != 0 {
		t.Errorf("paid = %v, want 0", sim[0].SimulatedPaid)
	}
}
