package extract

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/correspondente/dossie-engine/constants"
)

// FieldKind selects how the text after a matched label is interpreted.
type FieldKind string

const (
	KindText   FieldKind = "TEXT"
	KindID     FieldKind = "ID"
	KindAmount FieldKind = "AMOUNT"
	KindDate   FieldKind = "DATE"
	KindCPF    FieldKind = "CPF"
	KindCNPJ   FieldKind = "CNPJ"
	KindCEP    FieldKind = "CEP"
)

// MatchPolicy resolves multiple matches for the same field within one document.
// Payslip totals repeat and the later mention is authoritative (LAST);
// employer identifiers are taken from the header (FIRST).
type MatchPolicy string

const (
	PolicyFirst MatchPolicy = "FIRST"
	PolicyLast  MatchPolicy = "LAST"
)

// Provenance records which recognizer produced a field value and under which
// priority and tie-break policy, so reviewers can trace extraction decisions.
type Provenance struct {
	Rule     string      `json:"rule"`
	Label    string      `json:"label"`
	Priority int         `json:"priority"`
	Policy   MatchPolicy `json:"policy"`
}

// Value is one extracted field. Exactly one of Text/Amount/Date is set,
// according to the recognizer kind. Absent fields are simply not present in
// PartialRecord.Fields; there are no placeholder values.
type Value struct {
	Text       string           `json:"text,omitempty"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Date       *time.Time       `json:"date,omitempty"`
	Provenance Provenance       `json:"provenance"`
}

// FundBalance is one FGTS account found on a fund statement: employer
// identifier (when readable) plus balance. An applicant may hold balances
// from several past employers at once, so entries are never overwritten.
type FundBalance struct {
	EmployerCNPJ string          `json:"employer_cnpj,omitempty"`
	EmployerName string          `json:"employer_name,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
}

// PartialRecord is the extraction output for a single document. It is produced
// once, consumed by consolidation and then discarded.
type PartialRecord struct {
	Category     constants.Category `json:"category"`
	Source       string             `json:"source,omitempty"`
	Fields       map[string]Value   `json:"fields"`
	FundBalances []FundBalance      `json:"fund_balances,omitempty"`
	Dates        []time.Time        `json:"dates,omitempty"`
}

// Field names shared with the consolidator.
const (
	FieldFullName      = "full_name"
	FieldCPF           = "cpf"
	FieldRG            = "rg"
	FieldBirthDate     = "birth_date"
	FieldMaritalStatus = "marital_status"
	FieldPostalCode    = "postal_code"
	FieldStreetLine    = "street_line"
	FieldGrossIncome   = "gross_income"
	FieldNetIncome     = "net_income"
	FieldAdvance       = "advance_payment"
	FieldJobTitle      = "job_title"
	FieldHireDate      = "hire_date"
	FieldEmployerCNPJ  = "employer_cnpj"
	FieldExpiryDate    = "expiry_date"
)

func (r PartialRecord) Text(field string) (string, bool) {
	v, ok := r.Fields[field]
	if !ok || v.Text == "" {
		return "", false
	}
	return v.Text, true
}

func (r PartialRecord) Amount(field string) (decimal.Decimal, bool) {
	v, ok := r.Fields[field]
	if !ok || v.Amount == nil {
		return decimal.Decimal{}, false
	}
	return *v.Amount, true
}

func (r PartialRecord) Date(field string) (time.Time, bool) {
	v, ok := r.Fields[field]
	if !ok || v.Date == nil {
		return time.Time{}, false
	}
	return *v.Date, true
}

// NewestDate returns the most recent in-document date, used by expiry checks.
func (r PartialRecord) NewestDate() (time.Time, bool) {
	var newest time.Time
	for _, d := range r.Dates {
		if d.After(newest) {
			newest = d
		}
	}
	return newest, !newest.IsZero()
}
