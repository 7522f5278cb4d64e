// Package extract turns one document's normalized OCR text into a
// PartialRecord by running an ordered table of label-proximity recognizers.
package extract

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/correspondente/dossie-engine/constants"
	"github.com/correspondente/dossie-engine/internal/brl"
)

type Extractor struct {
	table  []Recognizer
	logger *slog.Logger
}

// NewExtractor builds an extractor over the embedded default recognizer table.
func NewExtractor(logger *slog.Logger) (*Extractor, error) {
	table, err := DefaultTable()
	if err != nil {
		return nil, err
	}
	return NewExtractorWithTable(table, logger), nil
}

func NewExtractorWithTable(table []Recognizer, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{table: table, logger: logger}
}

type candidate struct {
	pos   int
	label string
	value Value
}

// Extract runs every recognizer, in table order, over the normalized text.
// Recognizers run independently; a failure leaves the field absent. A later
// recognizer never overwrites a field set by an earlier one.
func (e *Extractor) Extract(text string, category constants.Category) PartialRecord {
	norm := brl.Normalize(text)
	rec := PartialRecord{
		Category: category,
		Fields:   make(map[string]Value),
		Dates:    brl.FindDates(norm),
	}

	namePos := -1
	for i, r := range e.table {
		if _, exists := rec.Fields[r.Field]; exists {
			continue
		}

		var cands []candidate
		if r.Kind == KindCEP {
			cands = e.cepCandidates(norm, namePos)
		} else {
			cands = e.labelCandidates(norm, r)
		}
		if len(cands) == 0 {
			continue
		}

		sort.SliceStable(cands, func(a, b int) bool { return cands[a].pos < cands[b].pos })
		chosen := cands[0]
		if r.Policy == PolicyLast {
			chosen = cands[len(cands)-1]
		}

		chosen.value.Provenance = Provenance{
			Rule:     r.Field,
			Label:    chosen.label,
			Priority: i,
			Policy:   r.Policy,
		}
		rec.Fields[r.Field] = chosen.value

		if r.Field == FieldFullName {
			namePos = chosen.pos
		}
	}

	// CPF often appears without a label near it on identity cards; fall back
	// to a checksum-validated document-wide scan before giving up.
	if _, ok := rec.Fields[FieldCPF]; !ok {
		if cpf := cpfRe.FindString(norm); cpf != "" && ValidCPF(cpf) {
			rec.Fields[FieldCPF] = Value{
				Text:       FormatCPF(cpf),
				Provenance: Provenance{Rule: FieldCPF, Label: "(pattern)", Priority: len(e.table), Policy: PolicyFirst},
			}
		}
	}

	if category == constants.FundStatement || strings.Contains(norm, "FGTS") {
		rec.FundBalances = extractFundBalances(norm)
	}

	e.logger.Debug("extract.done",
		"category", string(category),
		"fields", len(rec.Fields),
		"fund_balances", len(rec.FundBalances),
		"dates", len(rec.Dates),
	)
	return rec
}

func (e *Extractor) labelCandidates(norm string, r Recognizer) []candidate {
	var cands []candidate
	for _, label := range r.Labels {
		from := 0
		for {
			idx := strings.Index(norm[from:], label)
			if idx < 0 {
				break
			}
			idx += from
			from = idx + len(label)
			if !labelBoundary(norm, idx, len(label)) {
				continue
			}

			seg := window(norm, idx+len(label), r.Window)
			seg = strings.TrimLeft(seg, " \t:.-")
			if r.Field == FieldFullName && (strings.HasPrefix(seg, "DA MAE") || strings.HasPrefix(seg, "DO PAI")) {
				continue
			}

			if v, ok := interpret(seg, r.Kind); ok {
				cands = append(cands, candidate{pos: idx, label: label, value: v})
			}
		}
	}
	return cands
}

func interpret(seg string, kind FieldKind) (Value, bool) {
	switch kind {
	case KindText:
		line := cutLine(seg)
		if len(line) < 3 || mostlyDigits(line) || isNoiseCandidate(line) {
			return Value{}, false
		}
		return Value{Text: line}, true
	case KindID:
		line := cutLine(seg)
		if len(line) < 4 || !strings.ContainsAny(line, "0123456789") {
			return Value{}, false
		}
		return Value{Text: line}, true
	case KindAmount:
		amounts := brl.FindAmounts(seg)
		if len(amounts) == 0 {
			return Value{}, false
		}
		return Value{Amount: &amounts[0]}, true
	case KindDate:
		dates := brl.FindDates(seg)
		if len(dates) == 0 {
			return Value{}, false
		}
		return Value{Date: &dates[0]}, true
	case KindCPF:
		cpf := cpfRe.FindString(seg)
		if cpf == "" || !ValidCPF(cpf) {
			return Value{}, false
		}
		return Value{Text: FormatCPF(cpf)}, true
	case KindCNPJ:
		cnpj := cnpjRe.FindString(seg)
		if cnpj == "" {
			return Value{}, false
		}
		return Value{Text: cnpj}, true
	}
	return Value{}, false
}

// cepCandidates scans the whole document for postal codes. A code in the same
// paragraph as the applicant's name wins; otherwise the first code that is not
// a known utility sender code.
func (e *Extractor) cepCandidates(norm string, namePos int) []candidate {
	locs := cepRe.FindAllStringIndex(norm, -1)
	if len(locs) == 0 {
		return nil
	}

	if namePos >= 0 {
		pStart, pEnd := paragraphBounds(norm, namePos)
		for _, loc := range locs {
			if loc[0] >= pStart && loc[0] < pEnd {
				return []candidate{{pos: loc[0], label: "(anchor)", value: Value{Text: norm[loc[0]:loc[1]]}}}
			}
		}
	}
	for _, loc := range locs {
		cep := norm[loc[0]:loc[1]]
		if !isUtilitySenderCEP(cep) {
			return []candidate{{pos: loc[0], label: "(first)", value: Value{Text: cep}}}
		}
	}
	return nil
}

var balanceLabels = []string{"SALDO PARA FINS RESCISORIOS", "SALDO TOTAL", "VALOR DO SALDO", "SALDO"}

// extractFundBalances collects every (employer, balance) pair from a fund
// statement. Entries are additive: one applicant may hold FGTS balances from
// several past employers and every distinct pair must survive consolidation.
func extractFundBalances(norm string) []FundBalance {
	var out []FundBalance
	for _, block := range splitBlocks(norm) {
		labelIdx := -1
		for _, bl := range balanceLabels {
			if i := strings.Index(block, bl); i >= 0 {
				labelIdx = i + len(bl)
				break
			}
		}
		if labelIdx < 0 {
			continue
		}

		amounts := brl.FindAmounts(block[labelIdx:])
		if len(amounts) == 0 {
			amounts = brl.FindAmounts(block)
			if len(amounts) == 0 {
				continue
			}
			amounts = amounts[len(amounts)-1:]
		}

		entry := FundBalance{Amount: amounts[0]}
		if cnpj := cnpjRe.FindString(block); cnpj != "" {
			entry.EmployerCNPJ = cnpj
		}
		for _, lbl := range []string{"EMPREGADOR", "RAZAO SOCIAL"} {
			if i := strings.Index(block, lbl); i >= 0 {
				name := cutLine(strings.TrimLeft(block[i+len(lbl):], " \t:.-"))
				if len(name) >= 3 && !mostlyDigits(name) {
					entry.EmployerName = name
					break
				}
			}
		}
		out = append(out, entry)
	}
	return dedupBalances(out)
}

// dedupBalances drops entries only when employer identifier and amount are
// both byte-identical; anything else is a distinct account.
func dedupBalances(in []FundBalance) []FundBalance {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, b := range in {
		key := b.EmployerCNPJ + "|" + b.EmployerName + "|" + b.Amount.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, b)
	}
	return out
}

// labelBoundary ensures the label is not a substring of a longer word.
func labelBoundary(norm string, idx, length int) bool {
	if idx > 0 {
		prev := norm[idx-1]
		if prev >= 'A' && prev <= 'Z' || prev >= '0' && prev <= '9' {
			return false
		}
	}
	end := idx + length
	if end < len(norm) {
		next := norm[end]
		if next >= 'A' && next <= 'Z' || next >= '0' && next <= '9' {
			return false
		}
	}
	return true
}

func window(norm string, start, size int) string {
	end := start + size
	if end > len(norm) {
		end = len(norm)
	}
	if start >= end {
		return ""
	}
	return norm[start:end]
}

func cutLine(seg string) string {
	line, _, _ := strings.Cut(seg, "\n")
	line = strings.Trim(line, " \t:.-*")
	return strings.Join(strings.Fields(line), " ")
}

func splitBlocks(norm string) []string {
	return strings.Split(norm, "\n\n")
}

func paragraphBounds(norm string, pos int) (int, int) {
	start := 0
	if i := strings.LastIndex(norm[:pos], "\n\n"); i >= 0 {
		start = i + 2
	}
	end := len(norm)
	if i := strings.Index(norm[pos:], "\n\n"); i >= 0 {
		end = pos + i
	}
	return start, end
}
