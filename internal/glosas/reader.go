// Package glosas ingests payer denial reports ("faturas glosadas") and
// computes their KPIs and breakdowns. This pipeline is independent of the
// claim-guide reconciliation: its input is a flat report keyed by the
// payer's own billing rows, not by TISS guides.
package glosas

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"tissrecon/internal/normalize"
)

// Record is one cleaned denial-report row. DenialValue keeps the report's
// sign convention (denials are negative); IsDenial and AbsDenial carry the
// derived flag and magnitude used by every aggregate.
type Record struct {
	ClaimNumber   string
	ProcedureCode string
	ItemDescription string

	PayerName    string
	ProviderName string

	BilledValue   float64
	DenialValue   float64
	AppealedValue float64

	ReasonCode        string
	ReasonDescription string
	DenialType        string

	ServiceDate *time.Time
	PaymentDate *time.Time
	// PaymentMonth is the "mm/yyyy" bucket of PaymentDate, "" when unknown.
	PaymentMonth string

	IsDenial  bool
	AbsDenial float64
}

// Mapping names the report's columns. Reports vary by payer; the mapping is
// explicit configuration, with every column optional: unmapped or absent
// columns yield zero values for their fields.
type Mapping struct {
	ClaimNumber     string `yaml:"claim_number"`
	ProcedureCode   string `yaml:"procedure_code"`
	ItemDescription string `yaml:"item_description"`

	PayerName    string `yaml:"payer_name"`
	ProviderName string `yaml:"provider_name"`

	BilledValue   string `yaml:"billed_value"`
	DenialValue   string `yaml:"denial_value"`
	AppealedValue string `yaml:"appealed_value"`

	ReasonCode        string `yaml:"reason_code"`
	ReasonDescription string `yaml:"reason_description"`
	DenialType        string `yaml:"denial_type"`

	ServiceDate string `yaml:"service_date"`
	PaymentDate string `yaml:"payment_date"`

	Comma string `yaml:"delimiter"`
}

// DefaultMapping matches the AMHP-style report headers.
func DefaultMapping() Mapping {
	return Mapping{
		ClaimNumber:       "Amhptiss",
		ProcedureCode:     "Procedimento",
		ItemDescription:   "Descricao",
		PayerName:         "Convenio",
		ProviderName:      "Prestador",
		BilledValue:       "Valor Original",
		DenialValue:       "Valor Glosa",
		AppealedValue:     "Valor Recursado",
		ReasonCode:        "Motivo Glosa",
		ReasonDescription: "Descricao Glosa",
		DenialType:        "Tipo de Glosa",
		ServiceDate:       "Realizado",
		PaymentDate:       "Pagamento",
	}
}

// Read parses one denial report stream. Reason codes are cleaned to
// digits-only text (report exports frequently format them as numbers,
// producing "2,012"), claim numbers likewise, and dates are parsed
// day-first.
func Read(r io.Reader, m Mapping) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if m.Comma != "" {
		cr.Comma = rune(m.Comma[0])
	}

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read report header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	field := func(rec []string, name string) string {
		if strings.TrimSpace(name) == "" {
			return ""
		}
		i, ok := idx[strings.ToLower(strings.TrimSpace(name))]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	money := func(rec []string, name string) float64 {
		return normalize.CentsToValue(normalize.ParseMoneyCents(field(rec, name)))
	}

	var out []Record
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read report row %d: %w", len(out)+2, err)
		}

		rw := Record{
			ClaimNumber:       normalize.DigitsOnly(field(rec, m.ClaimNumber)),
			ProcedureCode:     field(rec, m.ProcedureCode),
			ItemDescription:   field(rec, m.ItemDescription),
			PayerName:         field(rec, m.PayerName),
			ProviderName:      field(rec, m.ProviderName),
			BilledValue:       money(rec, m.BilledValue),
			DenialValue:       money(rec, m.DenialValue),
			AppealedValue:     money(rec, m.AppealedValue),
			ReasonCode:        normalize.DigitsOnly(field(rec, m.ReasonCode)),
			ReasonDescription: field(rec, m.ReasonDescription),
			DenialType:        field(rec, m.DenialType),
			ServiceDate:       normalize.ParseDate(field(rec, m.ServiceDate)),
			PaymentDate:       normalize.ParseDate(field(rec, m.PaymentDate)),
		}
		rw.PaymentMonth = normalize.MonthKey(rw.PaymentDate)
		// denial rows carry a negative denial value in this report family
		rw.IsDenial = rw.DenialValue < 0
		if rw.IsDenial {
			rw.AbsDenial = -rw.DenialValue
		}
		out = append(out, rw)
	}
	return out, nil
}

// ReadFiles reads and concatenates 1..N report files.
func ReadFiles(paths []string, m Mapping) ([]Record, error) {
	var all []Record
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open report: %w", err)
		}
		rows, err := Read(f, m)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		all = append(all, rows...)
	}
	return all, nil
}
