// Package recon builds the billed-item table from parsed claim documents and
// matches it against payer payment statements.
package recon

import (
	"tissrecon/internal/model"
	"tissrecon/internal/normalize"
)

// BuildBilledTable converts parsed guide items into match-ready billed items:
// cents become float64 values (the single decimal-to-float boundary), the
// procedure code is normalized, and both join keys are derived. Parse-error
// records pass through so they surface as diagnostic rows downstream.
// An empty input yields an empty table; callers check emptiness before
// invoking the engine.
func BuildBilledTable(items []model.GuideItem, stripZeros bool) []model.BilledItem {
	if len(items) == 0 {
		return nil
	}

	out := make([]model.BilledItem, 0, len(items))
	for _, it := range items {
		b := model.BilledItem{
			SourceFile:           it.SourceFile,
			BatchNumber:          it.BatchNumber,
			GuideType:            it.GuideType,
			ProviderGuideNumber:  it.ProviderGuideNumber,
			PayerGuideNumber:     it.PayerGuideNumber,
			PatientName:          it.PatientName,
			PhysicianName:        it.PhysicianName,
			ServiceDate:          it.ServiceDate,
			ItemKind:             it.ItemKind,
			ExpenseIdentifier:    it.ExpenseIdentifier,
			TableCode:            it.TableCode,
			ProcedureCode:        it.ProcedureCode,
			ProcedureDescription: it.ProcedureDescription,
			Quantity:             it.Quantity,
			UnitValue:            normalize.CentsToValue(it.UnitValueCents),
			TotalValue:           normalize.CentsToValue(it.TotalValueCents),
			ParseError:           it.ParseError,
		}
		if b.ParseError == "" {
			b.ProcedureCodeNorm = normalize.NormalizeCode(b.ProcedureCode, stripZeros)
			b.KeyByProviderGuide = normalize.JoinKey(b.ProviderGuideNumber, b.ProcedureCodeNorm)
			b.KeyByPayerGuide = normalize.JoinKey(b.PayerGuideNumber, b.ProcedureCodeNorm)
		}
		out = append(out, b)
	}
	return out
}
