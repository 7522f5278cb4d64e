package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/correspondente/dossie-engine/constants"
)

const payslipText = `DEMONSTRATIVO DE PAGAMENTO DE SALÁRIO
EMPREGADOR: CONSTRUTORA HORIZONTE LTDA
CNPJ: 12.345.678/0001-90
NOME DO TRABALHADOR: WALACE BARBINO
CARGO: TÉCNICO DE EDIFICAÇÕES
DATA DE ADMISSÃO: 07/10/2025

VENCIMENTOS                      DESCONTOS
SALÁRIO BASE      8.500,00
HORAS EXTRAS      1.571,63
ADIANTAMENTO                     2.246,05

TOTAL DE VENCIMENTOS: 10.071,63
LÍQUIDO A RECEBER: 5.243,52
DATA DE PAGAMENTO: 05/12/2025
`

const identityText = `REPÚBLICA FEDERATIVA DO BRASIL
CARTEIRA DE IDENTIDADE
NOME: WALACE BARBINO
DATA DE NASCIMENTO: 12/03/1991
CPF: 095.900.717-24
VALIDADE: 20/08/2030
`

const fundStatementText = `CAIXA ECONÔMICA FEDERAL
EXTRATO DE CONTA VINCULADA FGTS
NOME DO TRABALHADOR: WALACE BARBINO

EMPREGADOR: CONSTRUTORA HORIZONTE LTDA
CNPJ: 12.345.678/0001-90
DATA BASE: 10/11/2025
SALDO TOTAL: 2.437,78
`

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	ex, err := NewExtractor(nil)
	require.NoError(t, err)
	return ex
}

func TestExtractPayslip(t *testing.T) {
	rec := newTestExtractor(t).Extract(payslipText, constants.IncomeProof)

	name, ok := rec.Text(FieldFullName)
	require.True(t, ok)
	assert.Equal(t, "WALACE BARBINO", name)

	// later mentions of payslip totals are the authoritative ones
	gross, ok := rec.Amount(FieldGrossIncome)
	require.True(t, ok)
	assert.Equal(t, "10071.63", gross.String())
	assert.Equal(t, PolicyLast, rec.Fields[FieldGrossIncome].Provenance.Policy)

	net, ok := rec.Amount(FieldNetIncome)
	require.True(t, ok)
	assert.Equal(t, "5243.52", net.String())

	advance, ok := rec.Amount(FieldAdvance)
	require.True(t, ok)
	assert.Equal(t, "2246.05", advance.String())

	hire, ok := rec.Date(FieldHireDate)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 10, 7, 0, 0, 0, 0, time.UTC), hire)

	cnpj, ok := rec.Text(FieldEmployerCNPJ)
	require.True(t, ok)
	assert.Equal(t, "12.345.678/0001-90", cnpj)

	title, ok := rec.Text(FieldJobTitle)
	require.True(t, ok)
	assert.Equal(t, "TECNICO DE EDIFICACOES", title)

	// employer block must not leak into the applicant's name
	assert.NotContains(t, name, "CONSTRUTORA")
}

func TestExtractIdentity(t *testing.T) {
	rec := newTestExtractor(t).Extract(identityText, constants.Identity)

	name, ok := rec.Text(FieldFullName)
	require.True(t, ok)
	assert.Equal(t, "WALACE BARBINO", name)

	cpf, ok := rec.Text(FieldCPF)
	require.True(t, ok)
	assert.Equal(t, "095.900.717-24", cpf)

	birth, ok := rec.Date(FieldBirthDate)
	require.True(t, ok)
	assert.Equal(t, time.Date(1991, 3, 12, 0, 0, 0, 0, time.UTC), birth)

	expiry, ok := rec.Date(FieldExpiryDate)
	require.True(t, ok)
	assert.Equal(t, time.Date(2030, 8, 20, 0, 0, 0, 0, time.UTC), expiry)
}

func TestExtractRejectsGarbledCPF(t *testing.T) {
	rec := newTestExtractor(t).Extract("CPF: 095.900.717-42\n", constants.Identity)
	_, ok := rec.Text(FieldCPF)
	assert.False(t, ok, "checksum-invalid CPF must stay absent, not stored")
}

func TestExtractNameRejectsLetterheadNoise(t *testing.T) {
	text := "NOME: CEMIG DISTRIBUIÇÃO S.A\nNOME: WALACE BARBINO\n"
	rec := newTestExtractor(t).Extract(text, constants.ResidenceProof)

	name, ok := rec.Text(FieldFullName)
	require.True(t, ok)
	assert.Equal(t, "WALACE BARBINO", name)
}

func TestExtractNameSkipsParentLines(t *testing.T) {
	text := "NOME DA MÃE: MARIA BARBINO\nNOME: WALACE BARBINO\n"
	rec := newTestExtractor(t).Extract(text, constants.Identity)

	name, ok := rec.Text(FieldFullName)
	require.True(t, ok)
	assert.Equal(t, "WALACE BARBINO", name)
}

func TestPostalCodePrefersNameParagraph(t *testing.T) {
	text := `REMETENTE
CEP: 04567-000

NOME DO TITULAR: WALACE BARBINO
RUA DAS ACÁCIAS 45
CEP: 31270-901

OUTRA REFERÊNCIA
CEP: 99999-000
`
	rec := newTestExtractor(t).Extract(text, constants.ResidenceProof)

	cep, ok := rec.Text(FieldPostalCode)
	require.True(t, ok)
	assert.Equal(t, "31270-901", cep)
	assert.Equal(t, "(anchor)", rec.Fields[FieldPostalCode].Provenance.Label)
}

func TestPostalCodeFallsBackPastUtilitySender(t *testing.T) {
	text := "CEMIG DISTRIBUIÇÃO S.A\nCEP: 30190-131\nENTREGA: CEP: 31270-901\n"
	rec := newTestExtractor(t).Extract(text, constants.ResidenceProof)

	cep, ok := rec.Text(FieldPostalCode)
	require.True(t, ok)
	assert.Equal(t, "31270-901", cep)
}

func TestExtractFundBalances(t *testing.T) {
	rec := newTestExtractor(t).Extract(fundStatementText, constants.FundStatement)

	require.Len(t, rec.FundBalances, 1)
	b := rec.FundBalances[0]
	assert.Equal(t, "12.345.678/0001-90", b.EmployerCNPJ)
	assert.Equal(t, "CONSTRUTORA HORIZONTE LTDA", b.EmployerName)
	assert.Equal(t, "2437.78", b.Amount.String())
}

func TestExtractFundBalancesDedupesIdenticalEntries(t *testing.T) {
	text := fundStatementText + "\n\nEMPREGADOR: CONSTRUTORA HORIZONTE LTDA\nCNPJ: 12.345.678/0001-90\nSALDO TOTAL: 2.437,78\n"
	rec := newTestExtractor(t).Extract(text, constants.FundStatement)
	assert.Len(t, rec.FundBalances, 1, "byte-identical (employer, amount) pairs collapse")
}

func TestExtractMissingFieldsStayAbsent(t *testing.T) {
	rec := newTestExtractor(t).Extract("TEXTO SEM NENHUM CAMPO RECONHECÍVEL", constants.Identity)
	assert.Empty(t, rec.Fields)
	assert.Empty(t, rec.FundBalances)
}

func TestValidCPF(t *testing.T) {
	tests := []struct {
		cpf  string
		want bool
	}{
		{"095.900.717-24", true},
		{"09590071724", true},
		{"095.900.717-42", false}, // swapped check digits
		{"111.111.111-11", false}, // repeated digits
		{"123.456.789-00", false},
		{"095.900.717", false}, // too short
	}
	for _, tt := range tests {
		t.Run(tt.cpf, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidCPF(tt.cpf))
		})
	}
}

func TestLoadTableRejectsMalformedConfig(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not an array", raw: `{"field": "x"}`},
		{name: "missing labels", raw: `[{"field": "x", "kind": "TEXT"}]`},
		{name: "unknown kind", raw: `[{"field": "x", "labels": ["X"], "kind": "REGEX"}]`},
		{name: "unknown key", raw: `[{"field": "x", "labels": ["X"], "kind": "TEXT", "pattern": ".*"}]`},
		{name: "empty table", raw: `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTable([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestLoadTableAppliesDefaults(t *testing.T) {
	table, err := LoadTable([]byte(`[{"field": "x", "labels": ["ALGUM CAMPO"], "kind": "TEXT"}]`))
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, PolicyFirst, table[0].Policy)
	assert.Equal(t, 64, table[0].Window)
}
