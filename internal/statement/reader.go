// Package statement reads payer payment statements from delimited files into
// the payment table consumed by the reconciliation engine.
package statement

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"tissrecon/internal/model"
	"tissrecon/internal/normalize"
)

// Mapping names the statement's columns. Statements come from many payer
// portals with no standard header set, so the mapping is explicit
// configuration rather than guessed.
type Mapping struct {
	GuideNumber             string `yaml:"guide_number"`
	ProcedureCode           string `yaml:"procedure_code"`
	ProcedureDescription    string `yaml:"procedure_description"`
	PresentedValue          string `yaml:"presented_value"`
	PaidValue               string `yaml:"paid_value"`
	DenialValue             string `yaml:"denial_value"`
	DenialReasonCode        string `yaml:"denial_reason_code"`
	DenialReasonDescription string `yaml:"denial_reason_description"`
	CompetencePeriod        string `yaml:"competence_period"` // optional
	Table                   string `yaml:"table"`             // optional

	// Comma is the field delimiter; defaults to ','. Payer exports in
	// pt-BR locales frequently use ';'.
	Comma string `yaml:"delimiter"`
}

// DefaultMapping matches the headers of the most common payer statement
// export.
func DefaultMapping() Mapping {
	return Mapping{
		GuideNumber:             "numeroGuiaPrestador",
		ProcedureCode:           "codigoProcedimento",
		ProcedureDescription:    "descricao_procedimento",
		PresentedValue:          "valor_apresentado",
		PaidValue:               "valor_pago",
		DenialValue:             "valor_glosa",
		DenialReasonCode:        "motivo_glosa_codigo",
		DenialReasonDescription: "motivo_glosa_descricao",
		CompetencePeriod:        "competencia",
		Table:                   "tabela",
	}
}

// Validate checks that every required column is mapped.
func (m *Mapping) Validate() error {
	required := map[string]string{
		"guide_number":              m.GuideNumber,
		"procedure_code":            m.ProcedureCode,
		"procedure_description":     m.ProcedureDescription,
		"presented_value":           m.PresentedValue,
		"paid_value":                m.PaidValue,
		"denial_value":              m.DenialValue,
		"denial_reason_code":        m.DenialReasonCode,
		"denial_reason_description": m.DenialReasonDescription,
	}
	for name, col := range required {
		if strings.TrimSpace(col) == "" {
			return fmt.Errorf("statement mapping: %s column is required", name)
		}
	}
	return nil
}

// Read parses one statement stream into payment items. The join key is
// composed from the guide number and the normalized procedure code with the
// same normalization flag used on the billed side, so both sides key
// identically. Blank or unparseable presented values become nil (missing),
// never zero.
func Read(r io.Reader, m Mapping, stripZeros bool) ([]model.PaymentItem, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if m.Comma != "" {
		cr.Comma = rune(m.Comma[0])
	}

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read statement header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}

	col := func(name string) (int, bool) {
		i, ok := idx[strings.ToLower(strings.TrimSpace(name))]
		return i, ok
	}
	for _, required := range []string{
		m.GuideNumber, m.ProcedureCode, m.ProcedureDescription,
		m.PresentedValue, m.PaidValue, m.DenialValue,
		m.DenialReasonCode, m.DenialReasonDescription,
	} {
		if _, ok := col(required); !ok {
			return nil, fmt.Errorf("statement missing required column %q", required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := col(name)
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var items []model.PaymentItem
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read statement row %d: %w", len(items)+2, err)
		}

		guide := field(rec, m.GuideNumber)
		codeNorm := normalize.NormalizeCode(field(rec, m.ProcedureCode), stripZeros)

		it := model.PaymentItem{
			JoinKey:                 normalize.JoinKey(guide, codeNorm),
			ProviderGuideNumber:     guide,
			PaidValue:               normalize.CentsToValue(normalize.ParseMoneyCents(field(rec, m.PaidValue))),
			DenialValue:             normalize.CentsToValue(normalize.ParseMoneyCents(field(rec, m.DenialValue))),
			DenialReasonCode:        normalize.DigitsOnly(field(rec, m.DenialReasonCode)),
			DenialReasonDescription: field(rec, m.DenialReasonDescription),
			ProcedureDescription:    field(rec, m.ProcedureDescription),
			CompetencePeriod:        field(rec, m.CompetencePeriod),
			Table:                   field(rec, m.Table),
		}
		if cents, ok := normalize.MoneyCents(field(rec, m.PresentedValue)); ok {
			v := normalize.CentsToValue(cents)
			it.PresentedValue = &v
		}
		items = append(items, it)
	}
	return items, nil
}

// ReadFile reads a statement from disk.
func ReadFile(path string, m Mapping, stripZeros bool) ([]model.PaymentItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open statement: %w", err)
	}
	defer f.Close()
	return Read(f, m, stripZeros)
}
