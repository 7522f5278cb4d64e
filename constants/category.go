package constants

import (
	"strings"
)

// Category is the document category used to pick field recognizers and
// the expiry policy for one submitted document.
type Category string

const (
	Identity       Category = "IDENTIDADE"
	ResidenceProof Category = "COMPROVANTE_RESIDENCIA"
	IncomeProof    Category = "COMPROVANTE_RENDA"
	FundStatement  Category = "EXTRATO_FGTS"
	TaxFiling      Category = "DECLARACAO_IR"
	Unknown        Category = ""
)

var allCategories = []Category{
	Identity,
	ResidenceProof,
	IncomeProof,
	FundStatement,
	TaxFiling,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps a caller-declared label (UI dropdown values, filename
// shorthand, portuguese synonyms) onto a canonical Category.
func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Unknown, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]Category{
		"rg":                          Identity,
		"cnh":                         Identity,
		"identidade":                  Identity,
		"documento de identidade":     Identity,
		"holerite":                    IncomeProof,
		"contracheque":                IncomeProof,
		"demonstrativo de pagamento":  IncomeProof,
		"payslip":                     IncomeProof,
		"renda":                       IncomeProof,
		"conta de luz":                ResidenceProof,
		"conta de energia":            ResidenceProof,
		"conta de agua":               ResidenceProof,
		"comprovante de endereco":     ResidenceProof,
		"comprovante de residencia":   ResidenceProof,
		"fgts":                        FundStatement,
		"extrato fgts":                FundStatement,
		"extrato de fgts":             FundStatement,
		"imposto de renda":            TaxFiling,
		"declaracao ir":               TaxFiling,
		"irpf":                        TaxFiling,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	// check if it matches any category string
	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return Unknown, false
}
