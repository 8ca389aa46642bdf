package format

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"fxconvert/internal/currency"
)

// Formatter renders amounts with currency symbols and grouped digits.
type Formatter struct {
	registry *currency.Registry
}

// New constructs a formatter over the given registry.
func New(registry *currency.Registry) *Formatter {
	return &Formatter{registry: registry}
}

// Format renders amount as the currency symbol followed by the digits, e.g.
// "€1,000.00" or "¥1,000,000". Unknown codes fall back to the bare code.
func (f *Formatter) Format(amount float64, code string) string {
	code = currency.Normalize(code)
	return f.registry.Symbol(code) + Number(amount, f.registry.Decimals(code))
}

// Number renders amount rounded half-to-even to places fraction digits with
// comma thousands separators. NaN and infinities render as "NaN", "+Inf"
// and "-Inf".
func Number(amount float64, places int) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return strconv.FormatFloat(amount, 'f', -1, 64)
	}
	fixed := decimal.NewFromFloat(amount).RoundBank(int32(places)).StringFixed(int32(places))

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}

	whole, frac, hasFrac := strings.Cut(fixed, ".")
	out := sign + group(whole)
	if hasFrac {
		out += "." + frac
	}
	return out
}

func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
