package dossier

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/correspondente/dossie-engine/constants"
	"github.com/correspondente/dossie-engine/internal/docs"
	"github.com/correspondente/dossie-engine/internal/extract"
)

// DocumentResult pairs one document's extraction output with its classifier
// and freshness verdicts, in submission order.
type DocumentResult struct {
	Source     string
	Record     extract.PartialRecord
	Verdict    docs.Verdict
	Unreadable bool
}

// DocumentSummary is the per-document trace kept on the consolidated profile
// so the rule engine and reviewers can see which document caused which flag.
type DocumentSummary struct {
	Source     string             `json:"source,omitempty"`
	Category   constants.Category `json:"category"`
	Verdict    docs.Verdict       `json:"verdict"`
	Unreadable bool               `json:"unreadable,omitempty"`
}

// ApplicantProfile is the consolidated record for one applicant. Built once
// from N PartialRecords and read-only afterward. Optional fields stay nil
// when no document provided them; they are never defaulted to a false zero.
type ApplicantProfile struct {
	ApplicantID uuid.UUID `json:"applicant_id"`

	FullName      *string    `json:"full_name,omitempty"`
	CPF           *string    `json:"cpf,omitempty"`
	RG            *string    `json:"rg,omitempty"`
	BirthDate     *time.Time `json:"birth_date,omitempty"`
	MaritalStatus *string    `json:"marital_status,omitempty"`

	PostalCode *string `json:"postal_code,omitempty"`
	StreetLine *string `json:"street_line,omitempty"`

	GrossIncome        *decimal.Decimal  `json:"gross_income,omitempty"`
	GrossIncomeSamples []decimal.Decimal `json:"gross_income_samples,omitempty"`
	NetIncome          *decimal.Decimal  `json:"net_income,omitempty"`
	AdvancePayment     *decimal.Decimal  `json:"advance_payment,omitempty"`
	AdjustedNetIncome  *decimal.Decimal  `json:"adjusted_net_income,omitempty"`

	JobTitle     *string    `json:"job_title,omitempty"`
	HireDate     *time.Time `json:"hire_date,omitempty"`
	EmployerCNPJ *string    `json:"employer_cnpj,omitempty"`

	FundBalances []extract.FundBalance `json:"fund_balances,omitempty"`

	Documents []DocumentSummary `json:"documents"`
}

// FundBalanceTotal sums every retained fund account. Total disposable balance
// is the quantity of interest, not any single statement's figure.
func (p ApplicantProfile) FundBalanceTotal() decimal.Decimal {
	total := decimal.Zero
	for _, b := range p.FundBalances {
		total = total.Add(b.Amount)
	}
	return total
}

// AverageGrossIncome averages the retained income samples, used when a single
// payslip is not representative.
func (p ApplicantProfile) AverageGrossIncome() (decimal.Decimal, bool) {
	if len(p.GrossIncomeSamples) == 0 {
		return decimal.Decimal{}, false
	}
	total := decimal.Zero
	for _, s := range p.GrossIncomeSamples {
		total = total.Add(s)
	}
	return total.Div(decimal.NewFromInt(int64(len(p.GrossIncomeSamples)))).Round(2), true
}

// TenureMonths derives employment tenure from the hire date at a reference
// time. ok is false when no hire date was found; tenure is never zero-filled.
func (p ApplicantProfile) TenureMonths(ref time.Time) (int, bool) {
	if p.HireDate == nil || p.HireDate.After(ref) {
		return 0, p.HireDate != nil
	}
	months := int(ref.Year()-p.HireDate.Year())*12 + int(ref.Month()) - int(p.HireDate.Month())
	if ref.Day() < p.HireDate.Day() {
		months--
	}
	if months < 0 {
		months = 0
	}
	return months, true
}
