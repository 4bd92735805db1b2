package model

// GuideType identifies the kind of TISS claim guide a line item came from.
type GuideType string

const (
	GuideConsultation GuideType = "CONSULTATION"
	GuideSADT         GuideType = "SADT"
)

// ItemKind distinguishes executed procedures from itemized ancillary expenses.
type ItemKind string

const (
	KindProcedure    ItemKind = "procedure"
	KindOtherExpense ItemKind = "other_expense"
)

// GuideItem is a single line item as extracted from a claim document.
// Money values are held as int64 cents at this stage so currency arithmetic
// stays exact; conversion to float64 happens once, in BuildBilledTable.
type GuideItem struct {
	SourceFile  string
	BatchNumber string
	GuideType   GuideType

	ProviderGuideNumber string
	PayerGuideNumber    string

	PatientName   string
	PhysicianName string
	ServiceDate   string

	ItemKind          ItemKind
	ExpenseIdentifier string

	TableCode            string
	ProcedureCode        string
	ProcedureDescription string

	Quantity        float64
	UnitValueCents  int64
	TotalValueCents int64

	// ParseError is set (with SourceFile) on the single record emitted for a
	// document whose root could not be parsed. All other fields are zero.
	ParseError string
}

// BilledItem is a GuideItem after numeric coercion and key derivation,
// ready to be matched against a payment statement.
type BilledItem struct {
	SourceFile  string
	BatchNumber string
	GuideType   GuideType

	ProviderGuideNumber string
	PayerGuideNumber    string

	PatientName   string
	PhysicianName string
	ServiceDate   string

	ItemKind          ItemKind
	ExpenseIdentifier string

	TableCode            string
	ProcedureCode        string
	ProcedureCodeNorm    string
	ProcedureDescription string

	Quantity   float64
	UnitValue  float64
	TotalValue float64

	// Join keys: guide number + "__" + normalized procedure code.
	KeyByProviderGuide string
	KeyByPayerGuide    string

	ParseError string
}

// PaymentItem is one row of a payer-issued payment statement. The statement
// itself is built by an external collaborator; this is the assumed schema.
type PaymentItem struct {
	JoinKey             string
	ProviderGuideNumber string

	PresentedValue *float64
	PaidValue      float64
	DenialValue    float64

	DenialReasonCode        string
	DenialReasonDescription string

	ProcedureDescription string
	CompetencePeriod     string
	Table                string
}

// MatchTier records which matching tier resolved a reconciled item.
type MatchTier string

const (
	MatchProvider  MatchTier = "provider"
	MatchPayer     MatchTier = "payer"
	MatchDescValue MatchTier = "description+value"
	MatchNone      MatchTier = ""
)

// ReconciledItem is a billed item joined with its matched payment row plus
// the derived discrepancy metrics.
type ReconciledItem struct {
	BilledItem
	Payment PaymentItem

	MatchedOn MatchTier

	// ValueDifference = TotalValue - PresentedValue.
	ValueDifference float64
	// DenialRatio = DenialValue / PresentedValue, 0 when PresentedValue <= 0.
	DenialRatio float64
}
