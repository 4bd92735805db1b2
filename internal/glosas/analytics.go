package glosas

import (
	"sort"

	"tissrecon/internal/normalize"
)

// KPIs are the headline figures of one report set.
type KPIs struct {
	Rows       int
	DenialRows int

	// PeriodStart and PeriodEnd bound the service dates, "dd/mm/yyyy".
	PeriodStart string
	PeriodEnd   string

	Payers    int
	Providers int

	BilledValue float64
	DeniedValue float64
	// DenialRate is DeniedValue over BilledValue, 0 when nothing was billed.
	DenialRate float64
}

// Group is one aggregate bucket of denial rows.
type Group struct {
	Key         string
	Description string
	Count       int
	Denied      float64
}

// Analytics is the full report summary.
type Analytics struct {
	KPIs KPIs

	TopReasons []Group
	ByType     []Group
	TopItems   []Group
	ByPayer    []Group
}

// BuildAnalytics aggregates a cleaned report. Groupings count only denial
// rows and sum AbsDenial; each is sorted by denied value, then count, then
// key, descending on the values so the heaviest bucket comes first.
func BuildAnalytics(rows []Record) *Analytics {
	a := &Analytics{}
	a.KPIs.Rows = len(rows)

	payers := map[string]struct{}{}
	providers := map[string]struct{}{}
	var minDate, maxDate *Record

	reasons := map[string]*Group{}
	types := map[string]*Group{}
	items := map[string]*Group{}
	byPayer := map[string]*Group{}

	for i := range rows {
		r := &rows[i]
		if r.PayerName != "" {
			payers[r.PayerName] = struct{}{}
		}
		if r.ProviderName != "" {
			providers[r.ProviderName] = struct{}{}
		}
		if r.ServiceDate != nil {
			if minDate == nil || r.ServiceDate.Before(*minDate.ServiceDate) {
				minDate = r
			}
			if maxDate == nil || r.ServiceDate.After(*maxDate.ServiceDate) {
				maxDate = r
			}
		}
		a.KPIs.BilledValue += r.BilledValue
		if !r.IsDenial {
			continue
		}
		a.KPIs.DenialRows++
		a.KPIs.DeniedValue += r.AbsDenial

		// reasons group on the (code, description) pair: the same code under
		// two report wordings stays two buckets
		bump(reasons, r.ReasonCode+"\x00"+r.ReasonDescription, r.ReasonCode, r.ReasonDescription, r.AbsDenial)
		bump(types, r.DenialType, r.DenialType, "", r.AbsDenial)
		bump(items, r.ItemDescription, r.ItemDescription, "", r.AbsDenial)
		bump(byPayer, r.PayerName, r.PayerName, "", r.AbsDenial)
	}

	a.KPIs.Payers = len(payers)
	a.KPIs.Providers = len(providers)
	if minDate != nil {
		a.KPIs.PeriodStart = normalize.FormatDateBR(minDate.ServiceDate)
		a.KPIs.PeriodEnd = normalize.FormatDateBR(maxDate.ServiceDate)
	}
	if a.KPIs.BilledValue > 0 {
		a.KPIs.DenialRate = a.KPIs.DeniedValue / a.KPIs.BilledValue
	}

	a.TopReasons = sorted(reasons)
	a.ByType = sorted(types)
	a.TopItems = sorted(items)
	a.ByPayer = sorted(byPayer)
	return a
}

func bump(m map[string]*Group, bucket, key, desc string, denied float64) {
	g, ok := m[bucket]
	if !ok {
		g = &Group{Key: key, Description: desc}
		m[bucket] = g
	}
	g.Count++
	g.Denied += denied
}

func sorted(m map[string]*Group) []Group {
	out := make([]Group, 0, len(m))
	for _, g := range m {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Denied != out[j].Denied {
			return out[i].Denied > out[j].Denied
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Key != out[j].Key {
			return out[i].Key < out[j].Key
		}
		return out[i].Description < out[j].Description
	})
	return out
}
