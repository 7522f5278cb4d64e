package extract

import (
	"regexp"
	"strings"
)

// A label can match inside an unrelated organization's letterhead (the utility
// company on a residence proof, the employer block on a payslip). Candidate
// name/address values carrying these tokens are rejected even when the label
// pattern matched.
var corporateTokens = []string{
	"LTDA", "EIRELI", "S/A", "S.A", " SA ", " ME ", " EPP",
	"CNPJ", "INSCRICAO ESTADUAL", "RAZAO SOCIAL",
}

// Known utility / carrier companies whose letterheads show up on residence
// proofs. Matches inside these lines are never the applicant.
var utilityNames = []string{
	"CEMIG", "COPASA", "SABESP", "ENEL", "LIGHT", "EQUATORIAL",
	"NEOENERGIA", "CELESC", "SANEPAR", "EMBASA", "CAESB",
	"VIVO", "CLARO", "TIM", "OI S", "TELEFONICA", "ALGAR",
}

// Sender postal codes printed on utility letterheads. The fallback CEP rule
// skips these so the utility's own address never becomes the applicant's.
var utilitySenderCEPs = map[string]struct{}{
	"30190-131": {}, // CEMIG billing center
	"01310-100": {}, // Telefonica/Vivo headquarters
	"20091-005": {}, // Light
	"41186-900": {}, // Embasa
}

var (
	cpfRe  = regexp.MustCompile(`\d{3}\.?\d{3}\.?\d{3}-?\d{2}`)
	cnpjRe = regexp.MustCompile(`\d{2}\.?\d{3}\.?\d{3}/\d{4}-?\d{2}`)
	cepRe  = regexp.MustCompile(`\d{5}-\d{3}`)
)

func isNoiseCandidate(candidate string) bool {
	padded := " " + candidate + " "
	for _, tok := range corporateTokens {
		if strings.Contains(padded, tok) {
			return true
		}
	}
	for _, name := range utilityNames {
		if strings.Contains(padded, name) {
			return true
		}
	}
	return false
}

func isUtilitySenderCEP(cep string) bool {
	_, ok := utilitySenderCEPs[cep]
	return ok
}

// mostlyDigits guards TEXT fields against capturing barcode/registry noise.
func mostlyDigits(s string) bool {
	if s == "" {
		return true
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits*10 >= len(s)*6
}

// ValidCPF checks the two mod-11 verification digits, so an OCR-garbled CPF
// is dropped rather than stored.
func ValidCPF(cpf string) bool {
	digits := make([]int, 0, 11)
	for _, r := range cpf {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) != 11 {
		return false
	}
	allSame := true
	for _, d := range digits[1:] {
		if d != digits[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}
	for _, pos := range []int{9, 10} {
		sum := 0
		for i := 0; i < pos; i++ {
			sum += digits[i] * (pos + 1 - i)
		}
		check := 11 - sum%11
		if check >= 10 {
			check = 0
		}
		if digits[pos] != check {
			return false
		}
	}
	return true
}

// FormatCPF renders eleven digits in the canonical 000.000.000-00 shape.
func FormatCPF(cpf string) string {
	var b strings.Builder
	for _, r := range cpf {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	d := b.String()
	if len(d) != 11 {
		return cpf
	}
	return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
}
