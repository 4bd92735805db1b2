package model

import "github.com/google/uuid"

// ResultRow is the flat, serialization-ready form of a reconciled (or
// unmatched) item. The same shape backs both the Parquet export and the
// COPY load into recon.reconciled_items / recon.unmatched_items.
type ResultRow struct {
	RunID     string `parquet:"run_id"`
	RowNumber int64  `parquet:"row_number"`

	SourceFile  string `parquet:"source_file"`
	BatchNumber string `parquet:"batch_number"`
	GuideType   string `parquet:"guide_type"`

	ProviderGuideNumber string `parquet:"provider_guide_number"`
	PayerGuideNumber    string `parquet:"payer_guide_number"`

	PatientName   string `parquet:"patient_name,optional"`
	PhysicianName string `parquet:"physician_name,optional"`
	ServiceDate   string `parquet:"service_date,optional"`

	ItemKind          string `parquet:"item_kind"`
	ExpenseIdentifier string `parquet:"expense_identifier,optional"`

	TableCode            string `parquet:"table_code,optional"`
	ProcedureCode        string `parquet:"procedure_code"`
	ProcedureCodeNorm    string `parquet:"procedure_code_norm"`
	ProcedureDescription string `parquet:"procedure_description,optional"`

	Quantity   float64 `parquet:"quantity"`
	UnitValue  float64 `parquet:"unit_value"`
	TotalValue float64 `parquet:"total_value"`

	MatchedOn string `parquet:"matched_on"`

	PresentedValue          *float64 `parquet:"presented_value,optional"`
	PaidValue               float64  `parquet:"paid_value"`
	DenialValue             float64  `parquet:"denial_value"`
	DenialReasonCode        string   `parquet:"denial_reason_code,optional"`
	DenialReasonDescription string   `parquet:"denial_reason_description,optional"`
	CompetencePeriod        string   `parquet:"competence_period,optional"`

	ValueDifference float64 `parquet:"value_difference"`
	DenialRatio     float64 `parquet:"denial_ratio"`

	ParseError string `parquet:"parse_error,optional"`
}

// ReconciledToRow flattens a ReconciledItem for export/persistence.
func ReconciledToRow(runID uuid.UUID, rowNum int64, it *ReconciledItem) *ResultRow {
	r := billedToRow(runID, rowNum, &it.BilledItem)
	r.MatchedOn = string(it.MatchedOn)
	r.PresentedValue = it.Payment.PresentedValue
	r.PaidValue = it.Payment.PaidValue
	r.DenialValue = it.Payment.DenialValue
	r.DenialReasonCode = it.Payment.DenialReasonCode
	r.DenialReasonDescription = it.Payment.DenialReasonDescription
	r.CompetencePeriod = it.Payment.CompetencePeriod
	r.ValueDifference = it.ValueDifference
	r.DenialRatio = it.DenialRatio
	return r
}

// UnmatchedToRow flattens a leftover BilledItem. Payment-side fields stay zero
// and MatchedOn stays empty.
func UnmatchedToRow(runID uuid.UUID, rowNum int64, it *BilledItem) *ResultRow {
	return billedToRow(runID, rowNum, it)
}

func billedToRow(runID uuid.UUID, rowNum int64, it *BilledItem) *ResultRow {
	return &ResultRow{
		RunID:                runID.String(),
		RowNumber:            rowNum,
		SourceFile:           it.SourceFile,
		BatchNumber:          it.BatchNumber,
		GuideType:            string(it.GuideType),
		ProviderGuideNumber:  it.ProviderGuideNumber,
		PayerGuideNumber:     it.PayerGuideNumber,
		PatientName:          it.PatientName,
		PhysicianName:        it.PhysicianName,
		ServiceDate:          it.ServiceDate,
		ItemKind:             string(it.ItemKind),
		ExpenseIdentifier:    it.ExpenseIdentifier,
		TableCode:            it.TableCode,
		ProcedureCode:        it.ProcedureCode,
		ProcedureCodeNorm:    it.ProcedureCodeNorm,
		ProcedureDescription: it.ProcedureDescription,
		Quantity:             it.Quantity,
		UnitValue:            it.UnitValue,
		TotalValue:           it.TotalValue,
		ParseError:           it.ParseError,
	}
}

// ResultColumns returns the ordered column names for COPY into the result
// tables.
func ResultColumns() []string {
	return []string{
		"run_id",
		"row_number",
		"source_file",
		"batch_number",
		"guide_type",
		"provider_guide_number",
		"payer_guide_number",
		"patient_name",
		"physician_name",
		"service_date",
		"item_kind",
		"expense_identifier",
		"table_code",
		"procedure_code",
		"procedure_code_norm",
		"procedure_description",
		"quantity",
		"unit_value",
		"total_value",
		"matched_on",
		"presented_value",
		"paid_value",
		"denial_value",
		"denial_reason_code",
		"denial_reason_description",
		"competence_period",
		"value_difference",
		"denial_ratio",
		"parse_error",
	}
}

// CopyValues returns the row values in the same order as ResultColumns(),
// suitable for pgx CopyFromSource.
func (r *ResultRow) CopyValues() []any {
	return []any{
		r.RunID,
		r.RowNumber,
		r.SourceFile,
		r.BatchNumber,
		r.GuideType,
		r.ProviderGuideNumber,
		r.PayerGuideNumber,
		r.PatientName,
		r.PhysicianName,
		r.ServiceDate,
		r.ItemKind,
		r.ExpenseIdentifier,
		r.TableCode,
		r.ProcedureCode,
		r.ProcedureCodeNorm,
		r.ProcedureDescription,
		r.Quantity,
		r.UnitValue,
		r.TotalValue,
		r.MatchedOn,
		r.PresentedValue,
		r.PaidValue,
		r.DenialValue,
		r.DenialReasonCode,
		r.DenialReasonDescription,
		r.CompetencePeriod,
		r.ValueDifference,
		r.DenialRatio,
		r.ParseError,
	}
}
