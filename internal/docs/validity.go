package docs

import (
	"time"

	"github.com/correspondente/dossie-engine/constants"
	"github.com/correspondente/dossie-engine/internal/extract"
)

// Verdict is the freshness outcome for one document. A document whose dates
// cannot be read is never silently valid nor silently invalid: it goes to a
// human reviewer.
type Verdict string

const (
	VerdictValid        Verdict = "VALIDO"
	VerdictExpired      Verdict = "VENCIDO"
	VerdictManualReview Verdict = "REVISAO_MANUAL"
)

// Rule is the freshness policy for one category. Identity documents are
// judged by their stated expiry date; most proofs by a rolling window over
// the newest in-text date; tax filings have no window at all.
type Rule struct {
	UseStatedExpiry bool
	WindowDays      int
	Unbounded       bool
}

type PolicySet map[constants.Category]Rule

func DefaultPolicies() PolicySet {
	return PolicySet{
		constants.Identity:       {UseStatedExpiry: true},
		constants.IncomeProof:    {WindowDays: 90},
		constants.ResidenceProof: {WindowDays: 90},
		constants.FundStatement:  {WindowDays: 365},
		constants.TaxFiling:      {Unbounded: true},
	}
}

// CheckValidity evaluates one extracted document against the policy for its
// category at the given reference time.
func CheckValidity(rec extract.PartialRecord, ref time.Time, policies PolicySet) Verdict {
	rule, ok := policies[rec.Category]
	if !ok {
		return VerdictManualReview
	}

	if rule.UseStatedExpiry {
		expiry, ok := rec.Date(extract.FieldExpiryDate)
		if !ok {
			return VerdictManualReview
		}
		if expiry.Before(ref) {
			return VerdictExpired
		}
		return VerdictValid
	}

	newest, ok := rec.NewestDate()
	if !ok {
		return VerdictManualReview
	}
	if rule.Unbounded {
		return VerdictValid
	}

	if ref.Sub(newest) > time.Duration(rule.WindowDays)*24*time.Hour {
		return VerdictExpired
	}
	return VerdictValid
}
