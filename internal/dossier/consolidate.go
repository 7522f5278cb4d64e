// Package dossier merges the per-document partial records of one applicant
// into a single consolidated profile.
package dossier

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/correspondente/dossie-engine/constants"
	"github.com/correspondente/dossie-engine/internal/extract"
)

// Scalar identity/address fields resolve first-non-absent in submission
// order: earlier documents (identity cards) outrank later ones (utility bills).
var scalarTextFields = []string{
	extract.FieldFullName,
	extract.FieldCPF,
	extract.FieldRG,
	extract.FieldMaritalStatus,
	extract.FieldPostalCode,
	extract.FieldStreetLine,
	extract.FieldJobTitle,
	extract.FieldEmployerCNPJ,
}

// Consolidate merges partial records in submission order. Results must be in
// the order the documents were submitted; the first/last-wins tie-breaks
// depend on it.
func Consolidate(applicantID uuid.UUID, results []DocumentResult, logger *slog.Logger) ApplicantProfile {
	if logger == nil {
		logger = slog.Default()
	}

	p := ApplicantProfile{ApplicantID: applicantID}

	for _, res := range results {
		p.Documents = append(p.Documents, DocumentSummary{
			Source:     res.Source,
			Category:   res.Record.Category,
			Verdict:    res.Verdict,
			Unreadable: res.Unreadable,
		})
	}

	for _, res := range results {
		if res.Unreadable {
			continue
		}
		rec := res.Record

		mergeScalars(&p, rec)

		if isIncomeRecord(rec.Category) {
			if gross, ok := rec.Amount(extract.FieldGrossIncome); ok {
				p.GrossIncomeSamples = append(p.GrossIncomeSamples, gross)
			}
		}

		if hire, ok := rec.Date(extract.FieldHireDate); ok {
			if p.HireDate == nil || hire.After(*p.HireDate) {
				h := hire
				p.HireDate = &h
			}
		}

		// Additive across documents: every distinct (employer, amount) pair
		// is kept, duplicates only when byte-identical.
		p.FundBalances = appendBalances(p.FundBalances, rec.FundBalances)
	}

	mergeIncome(&p, results)

	logger.Info("dossier.consolidated",
		"applicant_id", applicantID,
		"documents", len(results),
		"fund_balances", len(p.FundBalances),
		"income_samples", len(p.GrossIncomeSamples),
		"has_cpf", p.CPF != nil,
	)
	return p
}

func mergeScalars(p *ApplicantProfile, rec extract.PartialRecord) {
	for _, field := range scalarTextFields {
		dst := scalarSlot(p, field)
		if *dst != nil {
			continue
		}
		if v, ok := rec.Text(field); ok {
			val := v
			*dst = &val
		}
	}
	if p.BirthDate == nil {
		if d, ok := rec.Date(extract.FieldBirthDate); ok {
			bd := d
			p.BirthDate = &bd
		}
	}
}

func scalarSlot(p *ApplicantProfile, field string) **string {
	switch field {
	case extract.FieldFullName:
		return &p.FullName
	case extract.FieldCPF:
		return &p.CPF
	case extract.FieldRG:
		return &p.RG
	case extract.FieldMaritalStatus:
		return &p.MaritalStatus
	case extract.FieldPostalCode:
		return &p.PostalCode
	case extract.FieldStreetLine:
		return &p.StreetLine
	case extract.FieldJobTitle:
		return &p.JobTitle
	case extract.FieldEmployerCNPJ:
		return &p.EmployerCNPJ
	}
	return new(*string)
}

// mergeIncome picks the most recent payslip (newest in-document date, later
// submission wins ties) and applies the reincorporation rule: advances are
// deducted from the printed net figure but are real disposable income, so
// adjusted net = stated net + stated advance.
func mergeIncome(p *ApplicantProfile, results []DocumentResult) {
	latestIdx := -1
	var latestDate time.Time
	for i, res := range results {
		if res.Unreadable || !isIncomeRecord(res.Record.Category) {
			continue
		}
		if _, hasNet := res.Record.Amount(extract.FieldNetIncome); !hasNet {
			if _, hasGross := res.Record.Amount(extract.FieldGrossIncome); !hasGross {
				continue
			}
		}
		newest, _ := res.Record.NewestDate()
		if latestIdx == -1 || !newest.Before(latestDate) {
			latestIdx = i
			latestDate = newest
		}
	}
	if latestIdx == -1 {
		return
	}

	rec := results[latestIdx].Record
	if gross, ok := rec.Amount(extract.FieldGrossIncome); ok {
		g := gross
		p.GrossIncome = &g
	} else if n := len(p.GrossIncomeSamples); n > 0 {
		g := p.GrossIncomeSamples[n-1]
		p.GrossIncome = &g
	}

	net, hasNet := rec.Amount(extract.FieldNetIncome)
	if !hasNet {
		return
	}
	n := net
	p.NetIncome = &n

	adjusted := net
	if adv, ok := rec.Amount(extract.FieldAdvance); ok {
		a := adv
		p.AdvancePayment = &a
		adjusted = adjusted.Add(adv)
	}
	adj := adjusted
	p.AdjustedNetIncome = &adj
}

func isIncomeRecord(cat constants.Category) bool {
	return cat == constants.IncomeProof || cat == constants.TaxFiling
}

func appendBalances(existing []extract.FundBalance, incoming []extract.FundBalance) []extract.FundBalance {
	seen := make(map[string]struct{}, len(existing))
	key := func(b extract.FundBalance) string {
		return b.EmployerCNPJ + "|" + b.EmployerName + "|" + b.Amount.String()
	}
	for _, b := range existing {
		seen[key(b)] = struct{}{}
	}
	for _, b := range incoming {
		k := key(b)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		existing = append(existing, b)
	}
	return existing
}
