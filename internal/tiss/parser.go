// Package tiss extracts billable line items from TISS claim documents
// (guias de consulta and SP-SADT) in the ANS interchange schema. Elements
// are matched by local name, so documents using any prefix (or none) for
// the ANS namespace parse the same way.
package tiss

import (
	"fmt"
	"math"
	"strings"

	"github.com/beevik/etree"

	"tissrecon/internal/model"
	"tissrecon/internal/normalize"
)

// Input is one claim document handed to the parser: a display name (usually
// the file name) and the raw document bytes. Reading files or upload streams
// is the caller's concern.
type Input struct {
	Name string
	Data []byte
}

// ParseDocument extracts all line items from a single claim document.
// A malformed document root returns an error; missing optional elements do
// not, they yield empty-string/zero fields.
func ParseDocument(name string, data []byte) ([]model.GuideItem, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("parse %s: document has no root element", name)
	}

	batch := batchNumber(root)
	var out []model.GuideItem

	for _, guide := range descendants(root, "guiaConsulta") {
		hdr := guideHeader(guide, name, batch, model.GuideConsultation)
		hdr.ProviderGuideNumber = childText(guide, "numeroGuiaPrestador")
		hdr.PayerGuideNumber = childText(guide, "numeroGuiaOperadora")
		if hdr.PayerGuideNumber == "" {
			hdr.PayerGuideNumber = hdr.ProviderGuideNumber
		}
		out = append(out, consultationItems(guide, hdr)...)
	}

	for _, guide := range descendants(root, "guiaSP-SADT") {
		hdr := guideHeader(guide, name, batch, model.GuideSADT)
		header := child(guide, "cabecalhoGuia")
		auth := child(guide, "dadosAutorizacao")

		hdr.ProviderGuideNumber = childText(guide, "numeroGuiaPrestador")
		if hdr.ProviderGuideNumber == "" && header != nil {
			hdr.ProviderGuideNumber = childText(header, "numeroGuiaPrestador")
		}

		if auth != nil {
			hdr.PayerGuideNumber = childText(auth, "numeroGuiaOperadora")
		}
		if hdr.PayerGuideNumber == "" && header != nil {
			hdr.PayerGuideNumber = childText(header, "numeroGuiaOperadora")
		}
		if hdr.PayerGuideNumber == "" {
			hdr.PayerGuideNumber = hdr.ProviderGuideNumber
		}

		out = append(out, sadtItems(guide, hdr)...)
	}

	return out, nil
}

// batchNumber reads the submission batch number, preferring the regular lot
// path and falling back to the denial-appeal path.
func batchNumber(root *etree.Element) string {
	for _, p := range descendants(root, "prestadorParaOperadora") {
		if lot := child(p, "loteGuias", "numeroLote"); text(lot) != "" {
			return text(lot)
		}
	}
	for _, p := range descendants(root, "prestadorParaOperadora") {
		if lot := child(p, "recursoGlosa", "guiaRecursoGlosa", "numeroLote"); text(lot) != "" {
			return text(lot)
		}
	}
	return ""
}

// guideHeader builds the fields shared by every item in one guide.
func guideHeader(guide *etree.Element, file, batch string, gt model.GuideType) model.GuideItem {
	return model.GuideItem{
		SourceFile:    file,
		BatchNumber:   batch,
		GuideType:     gt,
		PatientName:   firstDescendantText(guide, "dadosBeneficiario", "nomeBeneficiario"),
		PhysicianName: firstDescendantText(guide, "dadosProfissionaisResponsaveis", "nomeProfissional"),
		ServiceDate:   descendantText(guide, "dataAtendimento"),
	}
}

// consultationItems yields the single procedure of a consultation guide,
// quantity fixed at 1.
func consultationItems(guide *etree.Element, hdr model.GuideItem) []model.GuideItem {
	it := hdr
	it.ItemKind = model.KindProcedure
	it.Quantity = 1

	if proc := firstDescendant(guide, "procedimento"); proc != nil {
		it.TableCode = childText(proc, "codigoTabela")
		it.ProcedureCode = childText(proc, "codigoProcedimento")
		it.ProcedureDescription = childText(proc, "descricaoProcedimento")
		v := normalize.ParseMoneyCents(childText(proc, "valorProcedimento"))
		it.UnitValueCents = v
		it.TotalValueCents = v
	}
	return []model.GuideItem{it}
}

// sadtItems yields every executed procedure and every itemized ancillary
// expense of an SP-SADT guide.
func sadtItems(guide *etree.Element, hdr model.GuideItem) []model.GuideItem {
	var out []model.GuideItem

	for _, exec := range descendantPath(guide, "procedimentosExecutados", "procedimentoExecutado") {
		it := hdr
		it.ItemKind = model.KindProcedure
		if proc := child(exec, "procedimento"); proc != nil {
			it.TableCode = childText(proc, "codigoTabela")
			it.ProcedureCode = childText(proc, "codigoProcedimento")
			it.ProcedureDescription = childText(proc, "descricaoProcedimento")
		}
		fillValues(&it,
			normalize.ParseQuantity(childText(exec, "quantidadeExecutada")),
			normalize.ParseMoneyCents(childText(exec, "valorUnitario")),
			normalize.ParseMoneyCents(childText(exec, "valorTotal")))
		out = append(out, it)
	}

	for _, exp := range descendantPath(guide, "outrasDespesas", "despesa") {
		it := hdr
		it.ItemKind = model.KindOtherExpense
		it.ExpenseIdentifier = childText(exp, "identificadorDespesa")

		var qty float64
		var unit, total int64
		if svc := child(exp, "servicosExecutados"); svc != nil {
			it.TableCode = childText(svc, "codigoTabela")
			it.ProcedureCode = childText(svc, "codigoProcedimento")
			it.ProcedureDescription = childText(svc, "descricaoProcedimento")
			qty = normalize.ParseQuantity(childText(svc, "quantidadeExecutada"))
			unit = normalize.ParseMoneyCents(childText(svc, "valorUnitario"))
			total = normalize.ParseMoneyCents(childText(svc, "valorTotal"))
		}
		fillValues(&it, qty, unit, total)
		out = append(out, it)
	}

	return out
}

// fillValues applies the quantity/value defaulting rules: a zero total with
// positive unit and quantity is back-computed as unit x quantity (never the
// reverse), quantity defaults to 1 when not positive, and unit falls back to
// the total when not positive.
func fillValues(it *model.GuideItem, qty float64, unitCents, totalCents int64) {
	if totalCents == 0 && unitCents > 0 && qty > 0 {
		totalCents = int64(math.Round(float64(unitCents) * qty))
	}
	if qty <= 0 {
		qty = 1
	}
	if unitCents <= 0 {
		unitCents = totalCents
	}
	it.Quantity = qty
	it.UnitValueCents = unitCents
	it.TotalValueCents = totalCents
}

// ---- element helpers (local-name matching, prefix-agnostic) ----

func text(el *etree.Element) string {
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}

// child walks a chain of direct children by local tag name.
func child(el *etree.Element, names ...string) *etree.Element {
	for _, name := range names {
		if el == nil {
			return nil
		}
		var next *etree.Element
		for _, c := range el.ChildElements() {
			if c.Tag == name {
				next = c
				break
			}
		}
		el = next
	}
	return el
}

func childText(el *etree.Element, names ...string) string {
	return text(child(el, names...))
}

// descendants collects every element with the given local tag at any depth,
// in document order.
func descendants(el *etree.Element, name string) []*etree.Element {
	var out []*etree.Element
	var walk func(*etree.Element)
	walk = func(e *etree.Element) {
		for _, c := range e.ChildElements() {
			if c.Tag == name {
				out = append(out, c)
			}
			walk(c)
		}
	}
	if el != nil {
		walk(el)
	}
	return out
}

func firstDescendant(el *etree.Element, name string) *etree.Element {
	if all := descendants(el, name); len(all) > 0 {
		return all[0]
	}
	return nil
}

func descendantText(el *etree.Element, name string) string {
	return text(firstDescendant(el, name))
}

// firstDescendantText finds the first descendant with the given tag, then
// reads a direct child's text under it.
func firstDescendantText(el *etree.Element, name, childName string) string {
	return childText(firstDescendant(el, name), childName)
}

// descendantPath finds every container with the first tag at any depth and
// returns their direct children with the second tag.
func descendantPath(el *etree.Element, container, item string) []*etree.Element {
	var out []*etree.Element
	for _, c := range descendants(el, container) {
		for _, e := range c.ChildElements() {
			if e.Tag == item {
				out = append(out, e)
			}
		}
	}
	return out
}
