// Package brl parses and formats Brazilian-locale monetary values and dates
// found in free OCR text. Absence is always reported as ok=false, never as a
// zero value: downstream rules must tell "income not found" apart from
// "income confirmed as zero".
package brl

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Monetary values must carry a two-digit fraction after a comma; the optional
// thousands groups are dot-separated ("10.071,63"). "10071.63" does not match.
var amountRe = regexp.MustCompile(`\d{1,3}(?:\.\d{3})+,\d{2}|\d+,\d{2}`)

var dateRe = regexp.MustCompile(`(\d{2})/(\d{2})/(\d{4})`)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize upper-cases text and strips diacritics so recognizer labels match
// accented and unaccented OCR output alike ("ADMISSÃO" == "ADMISSAO").
func Normalize(text string) string {
	folded, _, err := transform.String(foldTransformer, text)
	if err != nil {
		folded = text
	}
	return strings.ToUpper(folded)
}

// ParseAmount converts the first Brazilian-formatted monetary substring in
// fragment into a decimal. ok is false when no valid substring is present.
func ParseAmount(fragment string) (decimal.Decimal, bool) {
	m := amountRe.FindString(fragment)
	if m == "" {
		return decimal.Decimal{}, false
	}
	return toDecimal(m)
}

// FindAmounts returns every monetary value in text, in order of appearance.
func FindAmounts(text string) []decimal.Decimal {
	matches := amountRe.FindAllString(text, -1)
	out := make([]decimal.Decimal, 0, len(matches))
	for _, m := range matches {
		if d, ok := toDecimal(m); ok {
			out = append(out, d)
		}
	}
	return out
}

func toDecimal(br string) (decimal.Decimal, bool) {
	canonical := strings.ReplaceAll(br, ".", "")
	canonical = strings.ReplaceAll(canonical, ",", ".")
	d, err := decimal.NewFromString(canonical)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// ParseDate converts the first dd/mm/yyyy substring into a date. Calendar
// impossibilities (31/02/2024) are rejected, not rounded to a nearby day.
func ParseDate(fragment string) (time.Time, bool) {
	m := dateRe.FindStringSubmatch(fragment)
	if m == nil {
		return time.Time{}, false
	}
	return toDate(m)
}

// FindDates returns every valid dd/mm/yyyy date in text, in order of appearance.
func FindDates(text string) []time.Time {
	matches := dateRe.FindAllStringSubmatch(text, -1)
	out := make([]time.Time, 0, len(matches))
	for _, m := range matches {
		if t, ok := toDate(m); ok {
			out = append(out, t)
		}
	}
	return out
}

func toDate(m []string) (time.Time, bool) {
	day := atoi2(m[1])
	month := atoi2(m[2])
	year := atoi4(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (31/02 -> 02/03); round-trips only for real dates.
	if t.Day() != day || t.Month() != time.Month(month) || t.Year() != year {
		return time.Time{}, false
	}
	return t, true
}

func atoi2(s string) int {
	return int(s[0]-'0')*10 + int(s[1]-'0')
}

func atoi4(s string) int {
	n := 0
	for i := 0; i < 4; i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}

// FormatAmount renders a decimal as "R$ 1.234,56".
func FormatAmount(d decimal.Decimal) string {
	fixed := d.StringFixed(2)
	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, fracPart, _ := strings.Cut(fixed, ".")
	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := "R$ " + strings.Join(groups, ".") + "," + fracPart
	if neg {
		out = "R$ -" + strings.TrimPrefix(out, "R$ ")
	}
	return out
}

// FormatDate renders a date in the dd/mm/yyyy convention used on reports.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}
