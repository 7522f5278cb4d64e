// Package docs infers a document's category and checks extracted dates
// against the category's freshness policy.
package docs

import (
	"strings"

	"github.com/correspondente/dossie-engine/constants"
	"github.com/correspondente/dossie-engine/internal/brl"
)

// Content keyword sets, checked in order of specificity. FGTS terms beat
// income terms because statements also mention remuneration columns.
var (
	fundTerms = []string{"FGTS", "FUNDO DE GARANTIA"}
	taxTerms  = []string{"IMPOSTO DE RENDA", "DECLARACAO DE AJUSTE ANUAL", "IRPF", "RECEITA FEDERAL"}
	incomeTerms = []string{
		"HOLERITE", "CONTRACHEQUE", "DEMONSTRATIVO DE PAGAMENTO",
		"RECIBO DE PAGAMENTO", "FOLHA DE PAGAMENTO", "VENCIMENTOS",
	}
	residenceTerms = []string{
		"CONTA DE ENERGIA", "CONTA DE AGUA", "CONTA DE LUZ", "FATURA DE ENERGIA",
		"CONSUMO FATURADO", "KWH", "UNIDADE CONSUMIDORA", "COMPROVANTE DE RESIDENCIA",
	}
)

// Classify picks a category for one document. A caller-declared category
// always wins; otherwise content keywords decide, with the filename as a weak
// hint; identity is the default.
func Classify(text, filenameHint string, declared constants.Category) constants.Category {
	if declared != constants.Unknown {
		return declared
	}

	norm := brl.Normalize(text)
	switch {
	case containsAny(norm, fundTerms):
		return constants.FundStatement
	case containsAny(norm, taxTerms):
		return constants.TaxFiling
	case containsAny(norm, incomeTerms):
		return constants.IncomeProof
	case containsAny(norm, residenceTerms):
		return constants.ResidenceProof
	}

	if cat := hintCategory(filenameHint); cat != constants.Unknown {
		return cat
	}
	return constants.Identity
}

func containsAny(norm string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(norm, t) {
			return true
		}
	}
	return false
}

func hintCategory(filename string) constants.Category {
	hint := strings.ToLower(filename)
	for token, cat := range map[string]constants.Category{
		"fgts":         constants.FundStatement,
		"holerite":     constants.IncomeProof,
		"contracheque": constants.IncomeProof,
		"renda":        constants.IncomeProof,
		"conta":        constants.ResidenceProof,
		"comprovante":  constants.ResidenceProof,
		"endereco":     constants.ResidenceProof,
		"irpf":         constants.TaxFiling,
		"rg":           constants.Identity,
		"cnh":          constants.Identity,
	} {
		if strings.Contains(hint, token) {
			return cat
		}
	}
	return constants.Unknown
}
