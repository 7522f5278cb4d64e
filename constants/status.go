package constants

import "strings"

// DossierStatus is the canonical workflow status for rows in dossiers.
type DossierStatus string

// Stable values (store these exact strings in DB).
const (
	StatusTriagem        DossierStatus = "TRIAGEM"         // just submitted, automatic screening done
	StatusAnaliseManual  DossierStatus = "ANALISE_MANUAL"  // needs a human reviewer
	StatusMontagemPAC    DossierStatus = "MONTAGEM_PAC"    // assembling the credit file for the bank
	StatusInconformidade DossierStatus = "INCONFORMIDADE"  // blocked on flagged non-conformities
	StatusAprovado       DossierStatus = "APROVADO"        // approved by the lender
	StatusPago           DossierStatus = "PAGO"            // disbursed
)

var allStatuses = []DossierStatus{
	StatusTriagem,
	StatusAnaliseManual,
	StatusMontagemPAC,
	StatusInconformidade,
	StatusAprovado,
	StatusPago,
}

func StatusStrings() []string {
	result := make([]string, len(allStatuses))
	for i, s := range allStatuses {
		result[i] = string(s)
	}
	return result
}

// ParseStatus accepts canonical values and the accented labels the old
// spreadsheet used ("Análise Manual", "Triagem", ...).
func ParseStatus(input string) (DossierStatus, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(input))
	normalized = strings.NewReplacer("Á", "A", "Ã", "A", "Ç", "C", "É", "E", " ", "_").Replace(normalized)
	for _, s := range allStatuses {
		if normalized == string(s) {
			return s, true
		}
	}
	return "", false
}
