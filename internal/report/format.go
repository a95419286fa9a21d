package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	DefaultCurrencySymbol = "$"
	DisplayDateLayout     = "02 Jan 2006"
	blankCell             = "-"
)

// Formatter renders values for table cells. It is immutable once built and
// safe to share between requests.
type Formatter struct {
	currency string
}

func NewFormatter(currencySymbol string) Formatter {
	if currencySymbol == "" {
		currencySymbol = DefaultCurrencySymbol
	}
	return Formatter{currency: currencySymbol}
}

// Money formats d with two decimals and thousands separators, e.g. "$1,234.50".
func (f Formatter) Money(d decimal.Decimal) string {
	rounded := d.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	whole, frac, _ := strings.Cut(rounded.StringFixed(2), ".")
	return sign + f.currency + groupThousands(whole) + "." + frac
}

// groupThousands inserts commas into a string of decimal digits.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func (f Formatter) Count(n int64) string {
	return humanize.Comma(n)
}

// Percent formats p with one decimal place, e.g. "60.0%".
func (f Formatter) Percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

func (f Formatter) Date(t time.Time) string {
	if t.IsZero() {
		return blankCell
	}
	return t.Format(DisplayDateLayout)
}

// Label title-cases enum-like values: "ACTIVE" becomes "Active".
func (f Formatter) Label(s string) string {
	return cases.Title(language.English).String(strings.ToLower(s))
}

// Text returns s, or a dash for blank values.
func (f Formatter) Text(s string) string {
	if strings.TrimSpace(s) == "" {
		return blankCell
	}
	return s
}
