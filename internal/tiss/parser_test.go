package tiss

import (
	"testing"

	"github.com/rs/zerolog"

	"tissrecon/internal/model"
)

const consultationXML = `<?xml version="1.0" encoding="UTF-8"?>
<ans:mensagemTISS xmlns:ans="http://www.ans.gov.br/padroes/tiss/schemas">
  <ans:prestadorParaOperadora>
    <ans:loteGuias>
      <ans:numeroLote>L-77</ans:numeroLote>
      <ans:guiasTISS>
        <ans:guiaConsulta>
          <ans:numeroGuiaPrestador>A100</ans:numeroGuiaPrestador>
          <ans:dadosBeneficiario>
            <ans:nomeBeneficiario>MARIA DAS DORES</ans:nomeBeneficiario>
          </ans:dadosBeneficiario>
          <ans:dadosProfissionaisResponsaveis>
            <ans:nomeProfissional>DR JOAO</ans:nomeProfissional>
          </ans:dadosProfissionaisResponsaveis>
          <ans:dadosAtendimento>
            <ans:dataAtendimento>2024-03-15</ans:dataAtendimento>
            <ans:procedimento>
              <ans:codigoTabela>22</ans:codigoTabela>
              <ans:codigoProcedimento>85.010-0</ans:codigoProcedimento>
              <ans:descricaoProcedimento>CONSULTA EM CONSULTORIO</ans:descricaoProcedimento>
              <ans:valorProcedimento>150.00</ans:valorProcedimento>
            </ans:procedimento>
          </ans:dadosAtendimento>
        </ans:guiaConsulta>
      </ans:guiasTISS>
    </ans:loteGuias>
  </ans:prestadorParaOperadora>
</ans:mensagemTISS>`

const sadtXML = `<?xml version="1.0" encoding="UTF-8"?>
<ans:mensagemTISS xmlns:ans="http://www.ans.gov.br/padroes/tiss/schemas">
  <ans:prestadorParaOperadora>
    <ans:recursoGlosa>
      <ans:guiaRecursoGlosa>
        <ans:numeroLote>L-APPEAL</ans:numeroLote>
      </ans:guiaRecursoGlosa>
    </ans:recursoGlosa>
    <ans:guiasTISS>
      <ans:guiaSP-SADT>
        <ans:cabecalhoGuia>
          <ans:numeroGuiaPrestador>B200</ans:numeroGuiaPrestador>
          <ans:numeroGuiaOperadora>OP-9</ans:numeroGuiaOperadora>
        </ans:cabecalhoGuia>
        <ans:dadosBeneficiario>
          <ans:nomeBeneficiario>JOSE SILVA</ans:nomeBeneficiario>
        </ans:dadosBeneficiario>
        <ans:procedimentosExecutados>
          <ans:procedimentoExecutado>
            <ans:procedimento>
              <ans:codigoTabela>22</ans:codigoTabela>
              <ans:codigoProcedimento>40.30.10-40</ans:codigoProcedimento>
              <ans:descricaoProcedimento>HEMOGRAMA</ans:descricaoProcedimento>
            </ans:procedimento>
            <ans:quantidadeExecutada>3</ans:quantidadeExecutada>
            <ans:valorUnitario>10.50</ans:valorUnitario>
            <ans:valorTotal>0</ans:valorTotal>
          </ans:procedimentoExecutado>
          <ans:procedimentoExecutado>
            <ans:procedimento>
              <ans:codigoProcedimento>40.00.00-01</ans:codigoProcedimento>
            </ans:procedimento>
            <ans:quantidadeExecutada>0</ans:quantidadeExecutada>
            <ans:valorUnitario>0</ans:valorUnitario>
            <ans:valorTotal>99.90</ans:valorTotal>
          </ans:procedimentoExecutado>
        </ans:procedimentosExecutados>
        <ans:outrasDespesas>
          <ans:despesa>
            <ans:identificadorDespesa>02</ans:identificadorDespesa>
            <ans:servicosExecutados>
              <ans:codigoTabela>19</ans:codigoTabela>
              <ans:codigoProcedimento>70.14.90-38</ans:codigoProcedimento>
              <ans:descricaoProcedimento>AGULHA DESCARTAVEL</ans:descricaoProcedimento>
              <ans:quantidadeExecutada>2</ans:quantidadeExecutada>
              <ans:valorUnitario>1.25</ans:valorUnitario>
              <ans:valorTotal>2.50</ans:valorTotal>
            </ans:servicosExecutados>
          </ans:despesa>
        </ans:outrasDespesas>
      </ans:guiaSP-SADT>
    </ans:guiasTISS>
  </ans:prestadorParaOperadora>
</ans:mensagemTISS>`

func TestParseConsultation(t *testing.T) {
	items, err := ParseDocument("consulta.xml", []byte(consultationXML))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	it := items[0]
	if it.GuideType != model.GuideConsultation {
		t.Errorf("guide type = %q", it.GuideType)
	}
	if it.BatchNumber != "L-77" {
		t.Errorf("batch = %q", it.BatchNumber)
	}
	if it.ProviderGuideNumber != "A100" {
		t.Errorf("provider guide = %q", it.ProviderGuideNumber)
	}
	// payer number absent -> defaults to provider number
	if it.PayerGuideNumber != "A100" {
		t.Errorf("payer guide = %q", it.PayerGuideNumber)
	}
	if it.PatientName != "MARIA DAS DORES" || it.PhysicianName != "DR JOAO" {
		t.Errorf("patient/physician = %q / %q", it.PatientName, it.PhysicianName)
	}
	if it.ServiceDate != "2024-03-15" {
		t.Errorf("service date = %q", it.ServiceDate)
	}
	if it.ProcedureCode != "85.010-0" || it.TableCode != "22" {
		t.Errorf("codes = %q / %q", it.ProcedureCode, it.TableCode)
	}
	if it.Quantity != 1 || it.UnitValueCents != 15000 || it.TotalValueCents != 15000 {
		t.Errorf("values = %v / %d / %d", it.Quantity, it.UnitValueCents, it.TotalValueCents)
	}
}

func TestParseSADT(t *testing.T) {
	items, err := ParseDocument("sadt.xml", []byte(sadtXML))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	// batch number came from the appeal fallback path
	for _, it := range items {
		if it.BatchNumber != "L-APPEAL" {
			t.Errorf("batch = %q", it.BatchNumber)
		}
		if it.ProviderGuideNumber != "B200" {
			t.Errorf("provider guide = %q", it.ProviderGuideNumber)
		}
		if it.PayerGuideNumber != "OP-9" {
			t.Errorf("payer guide = %q", it.PayerGuideNumber)
		}
	}

	// zero total back-computed as unit x quantity
	first := items[0]
	if first.ItemKind != model.KindProcedure {
		t.Errorf("kind = %q", first.ItemKind)
	}
	if first.TotalValueCents != 3150 {
		t.Errorf("back-filled total = %d, want 3150", first.TotalValueCents)
	}

	// zero quantity defaults to 1, zero unit falls back to total
	second := items[1]
	if second.Quantity != 1 {
		t.Errorf("defaulted quantity = %v", second.Quantity)
	}
	if second.UnitValueCents != 9990 || second.TotalValueCents != 9990 {
		t.Errorf("unit/total = %d / %d", second.UnitValueCents, second.TotalValueCents)
	}

	// ancillary expense carries its identifier
	third := items[2]
	if third.ItemKind != model.KindOtherExpense {
		t.Errorf("kind = %q", third.ItemKind)
	}
	if third.ExpenseIdentifier != "02" {
		t.Errorf("expense id = %q", third.ExpenseIdentifier)
	}
	if third.TotalValueCents != 250 {
		t.Errorf("expense total = %d", third.TotalValueCents)
	}
}

func TestParseGuideNumberInvariant(t *testing.T) {
	for _, src := range []string{consultationXML, sadtXML} {
		items, err := ParseDocument("doc.xml", []byte(src))
		if err != nil {
			t.Fatalf("ParseDocument: %v", err)
		}
		for i, it := range items {
			if it.ProviderGuideNumber == "" && it.PayerGuideNumber == "" {
				t.Errorf("item %d has no guide number at all", i)
			}
		}
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := ParseDocument("bad.xml", []byte("<unclosed")); err == nil {
		t.Fatal("expected error for malformed document")
	}
}

func TestParseBatchRecordsErrors(t *testing.T) {
	log := zerolog.Nop()
	items := ParseBatch(log, []Input{
		{Name: "good.xml", Data: []byte(consultationXML)},
		{Name: "bad.xml", Data: []byte("not xml at all <")},
		{Name: "also-good.xml", Data: []byte(sadtXML)},
	})
	if len(items) != 5 {
		t.Fatalf("expected 5 records (1 + error + 3), got %d", len(items))
	}

	var errRecords int
	for _, it := range items {
		if it.ParseError != "" {
			errRecords++
			if it.SourceFile != "bad.xml" {
				t.Errorf("error record file = %q", it.SourceFile)
			}
		}
	}
	if errRecords != 1 {
		t.Errorf("expected exactly 1 error record, got %d", errRecords)
	}
}
