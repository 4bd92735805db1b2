package recon

import (
	"sort"
	"strings"
	"time"

	"tissrecon/internal/model"
	"tissrecon/internal/normalize"
)

// GuideAudit aggregates the billed items of one claim guide.
type GuideAudit struct {
	GuideType           model.GuideType
	ProviderGuideNumber string
	PayerGuideNumber    string
	PatientName         string
	PhysicianName       string

	SourceFiles  []string
	BatchNumbers []string

	ServiceDate *time.Time // earliest parseable service date in the guide
	ItemCount   int
	TotalValue  float64

	// GuideKey is the provider guide number or, when blank, the payer guide
	// number; empty for unrecognized guide types.
	GuideKey string
}

// GuideKeyFor derives the audit key for a guide. Only consultation and SADT
// guides carry an auditable key.
func GuideKeyFor(gt model.GuideType, providerGuide, payerGuide string) string {
	if gt != model.GuideConsultation && gt != model.GuideSADT {
		return ""
	}
	key := strings.TrimSpace(providerGuide)
	if key == "" {
		key = strings.TrimSpace(payerGuide)
	}
	return key
}

// AuditGuides groups billed items into per-guide summaries, sorted by
// (guide type, provider number, payer number) for deterministic output.
// Parse-error records carry no guide identity and are skipped.
func AuditGuides(items []model.BilledItem) []GuideAudit {
	type groupKey struct {
		guideType     model.GuideType
		providerGuide string
		payerGuide    string
		patient       string
		physician     string
	}

	groups := make(map[groupKey]*GuideAudit)
	files := make(map[groupKey]map[string]bool)
	batches := make(map[groupKey]map[string]bool)

	for _, b := range items {
		if b.ParseError != "" {
			continue
		}
		k := groupKey{b.GuideType, b.ProviderGuideNumber, b.PayerGuideNumber, b.PatientName, b.PhysicianName}
		g := groups[k]
		if g == nil {
			g = &GuideAudit{
				GuideType:           b.GuideType,
				ProviderGuideNumber: b.ProviderGuideNumber,
				PayerGuideNumber:    b.PayerGuideNumber,
				PatientName:         b.PatientName,
				PhysicianName:       b.PhysicianName,
				GuideKey:            GuideKeyFor(b.GuideType, b.ProviderGuideNumber, b.PayerGuideNumber),
			}
			groups[k] = g
			files[k] = make(map[string]bool)
			batches[k] = make(map[string]bool)
		}

		g.ItemCount++
		g.TotalValue += b.TotalValue
		if f := strings.TrimSpace(b.SourceFile); f != "" {
			files[k][f] = true
		}
		if n := strings.TrimSpace(b.BatchNumber); n != "" {
			batches[k][n] = true
		}
		if d := normalize.ParseDate(b.ServiceDate); d != nil {
			if g.ServiceDate == nil || d.Before(*g.ServiceDate) {
				g.ServiceDate = d
			}
		}
	}

	out := make([]GuideAudit, 0, len(groups))
	for k, g := range groups {
		g.SourceFiles = sortedKeys(files[k])
		g.BatchNumbers = sortedKeys(batches[k])
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.GuideType != b.GuideType {
			return a.GuideType < b.GuideType
		}
		if a.ProviderGuideNumber != b.ProviderGuideNumber {
			return a.ProviderGuideNumber < b.ProviderGuideNumber
		}
		return a.PayerGuideNumber < b.PayerGuideNumber
	})
	return out
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
