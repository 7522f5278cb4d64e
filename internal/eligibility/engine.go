// Package eligibility computes the program bracket, subsidy estimate and
// affordability ceiling for a consolidated applicant profile. Evaluation is a
// pure function: it always returns a decision, and gaps in the profile become
// flagged non-conformities instead of errors or silent zeros.
package eligibility

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/correspondente/dossie-engine/constants"
	"github.com/correspondente/dossie-engine/internal/brl"
	"github.com/correspondente/dossie-engine/internal/docs"
	"github.com/correspondente/dossie-engine/internal/dossier"
)

// Bracket is the program tier (enquadramento), ordinal by gross income.
type Bracket string

const (
	Faixa1 Bracket = "FAIXA_1"
	Faixa2 Bracket = "FAIXA_2"
	Faixa3 Bracket = "FAIXA_3"
	SBPE   Bracket = "SBPE" // market rate, above the regulated ceiling
)

// Threshold ladder on gross monthly income. Strictly ordered, no overlap, no
// gap: a boundary value belongs to the lower band.
var (
	faixa1Ceiling = decimal.RequireFromString("2850.00")
	faixa2Ceiling = decimal.RequireFromString("4700.00")
	faixa3Ceiling = decimal.RequireFromString("8000.00")

	affordabilityRate = decimal.RequireFromString("0.30")

	subsidyByBracket = map[Bracket]decimal.Decimal{
		Faixa1: decimal.RequireFromString("55000.00"),
		Faixa2: decimal.RequireFromString("35000.00"),
		Faixa3: decimal.RequireFromString("15000.00"),
		SBPE:   decimal.Zero,
	}
)

const minTenureMonths = 6

// NonConformity is a flagged gap or risk that does not block evaluation but
// must be surfaced to a reviewer.
type NonConformity struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	CodeIncomeNotFound    = "RENDA_NAO_IDENTIFICADA"
	CodeNetIncomeNotFound = "RENDA_LIQUIDA_NAO_IDENTIFICADA"
	CodeMissingCPF        = "CPF_NAO_IDENTIFICADO"
	CodeStaleDocument     = "DOCUMENTO_VENCIDO"
	CodeManualReview      = "DOCUMENTO_REVISAO_MANUAL"
	CodeUnreadable        = "DOCUMENTO_ILEGIVEL"
	CodeShortTenure       = "VINCULO_RECENTE"
)

// Decision is the derived, stateless output for one profile. Never persisted
// by this package; recomputed on demand.
type Decision struct {
	Bracket           Bracket                 `json:"bracket,omitempty"`
	GrossIncome       *decimal.Decimal        `json:"gross_income,omitempty"`
	AdjustedNetIncome *decimal.Decimal        `json:"adjusted_net_income,omitempty"`
	SubsidyEstimate   decimal.Decimal         `json:"subsidy_estimate"`
	MaxInstallment    *decimal.Decimal        `json:"max_installment,omitempty"`
	FundBalanceTotal  decimal.Decimal         `json:"fund_balance_total"`
	NonConformities   []NonConformity         `json:"non_conformities"`
	SuggestedStatus   constants.DossierStatus `json:"suggested_status"`
	ReferenceDate     time.Time               `json:"reference_date"`
}

// BracketFor maps gross monthly income onto the ladder. Total: every
// non-negative income lands in exactly one bracket.
func BracketFor(gross decimal.Decimal) Bracket {
	switch {
	case gross.LessThanOrEqual(faixa1Ceiling):
		return Faixa1
	case gross.LessThanOrEqual(faixa2Ceiling):
		return Faixa2
	case gross.LessThanOrEqual(faixa3Ceiling):
		return Faixa3
	default:
		return SBPE
	}
}

// SubsidyFor is a fixed lookup per bracket; brackets above the regulated
// ceiling receive zero subsidy.
func SubsidyFor(b Bracket) decimal.Decimal {
	return subsidyByBracket[b]
}

// Evaluate derives the eligibility decision for a profile at a reference
// time. Checks accumulate; they never short-circuit one another.
func Evaluate(p dossier.ApplicantProfile, ref time.Time) Decision {
	d := Decision{
		SubsidyEstimate:  decimal.Zero,
		FundBalanceTotal: p.FundBalanceTotal(),
		ReferenceDate:    ref,
	}

	if p.GrossIncome != nil {
		gross := *p.GrossIncome
		d.GrossIncome = &gross
		d.Bracket = BracketFor(gross)
		d.SubsidyEstimate = SubsidyFor(d.Bracket)
	} else {
		d.flag(CodeIncomeNotFound, "renda bruta não identificada nos documentos; decisão não pode assumir R$ 0,00")
	}

	if p.AdjustedNetIncome != nil {
		adjusted := *p.AdjustedNetIncome
		d.AdjustedNetIncome = &adjusted
		max := adjusted.Mul(affordabilityRate).Round(2)
		d.MaxInstallment = &max
	} else {
		d.flag(CodeNetIncomeNotFound, "renda líquida ajustada não identificada; parcela máxima não calculada")
	}

	if p.CPF == nil {
		d.flag(CodeMissingCPF, "CPF não identificado nos documentos")
	}

	if months, ok := p.TenureMonths(ref); ok && months < minTenureMonths {
		d.flag(CodeShortTenure, fmt.Sprintf("vínculo empregatício de %d meses (mínimo %d)", months, minTenureMonths))
	}

	for _, doc := range p.Documents {
		switch {
		case doc.Unreadable:
			d.flag(CodeUnreadable, fmt.Sprintf("documento ilegível: %s", doc.Source))
		case doc.Verdict == docs.VerdictExpired:
			d.flag(CodeStaleDocument, fmt.Sprintf("documento fora do prazo de validade: %s (%s)", doc.Source, doc.Category))
		case doc.Verdict == docs.VerdictManualReview:
			d.flag(CodeManualReview, fmt.Sprintf("validade não determinável, revisão manual: %s (%s)", doc.Source, doc.Category))
		}
	}

	d.SuggestedStatus = suggestStatus(d.NonConformities)
	return d
}

func (d *Decision) flag(code, message string) {
	d.NonConformities = append(d.NonConformities, NonConformity{Code: code, Message: message})
}

func suggestStatus(ncs []NonConformity) constants.DossierStatus {
	if len(ncs) == 0 {
		return constants.StatusTriagem
	}
	onlyReview := true
	for _, nc := range ncs {
		if nc.Code != CodeManualReview {
			onlyReview = false
			break
		}
	}
	if onlyReview {
		return constants.StatusAnaliseManual
	}
	return constants.StatusInconformidade
}

// Summary renders the decision for terminal output and logs, with amounts in
// the Brazilian convention.
func (d Decision) Summary() string {
	gross := "não identificada"
	if d.GrossIncome != nil {
		gross = brl.FormatAmount(*d.GrossIncome)
	}
	installment := "não calculada"
	if d.MaxInstallment != nil {
		installment = brl.FormatAmount(*d.MaxInstallment)
	}
	bracket := string(d.Bracket)
	if bracket == "" {
		bracket = "indefinido"
	}
	return fmt.Sprintf("enquadramento=%s renda_bruta=%s subsídio=%s parcela_máxima=%s fgts=%s inconformidades=%d",
		bracket, gross, brl.FormatAmount(d.SubsidyEstimate), installment,
		brl.FormatAmount(d.FundBalanceTotal), len(d.NonConformities))
}
