package currency

import (
	"errors"
	"strings"
)

// ErrUnsupported is returned when a code is not present in the registry.
var ErrUnsupported = errors.New("unsupported currency")

// DefaultDecimals is the display precision used for most currencies.
const DefaultDecimals = 2

// Currency describes a supported currency.
type Currency struct {
	Code     string
	Name     string
	Symbol   string
	Decimals int
}

var defaultCurrencies = []Currency{
	{Code: "USD", Name: "US Dollar", Symbol: "$", Decimals: 2},
	{Code: "EUR", Name: "Euro", Symbol: "€", Decimals: 2},
	{Code: "GBP", Name: "British Pound", Symbol: "£", Decimals: 2},
	{Code: "JPY", Name: "Japanese Yen", Symbol: "¥", Decimals: 0},
	{Code: "CAD", Name: "Canadian Dollar", Symbol: "C$", Decimals: 2},
	{Code: "AUD", Name: "Australian Dollar", Symbol: "A$", Decimals: 2},
	{Code: "CHF", Name: "Swiss Franc", Symbol: "CHF", Decimals: 2},
	{Code: "CNY", Name: "Chinese Yuan", Symbol: "¥", Decimals: 2},
	{Code: "INR", Name: "Indian Rupee", Symbol: "₹", Decimals: 2},
	{Code: "BRL", Name: "Brazilian Real", Symbol: "R$", Decimals: 2},
	{Code: "MXN", Name: "Mexican Peso", Symbol: "$", Decimals: 2},
	{Code: "KRW", Name: "South Korean Won", Symbol: "₩", Decimals: 0},
	{Code: "SGD", Name: "Singapore Dollar", Symbol: "S$", Decimals: 2},
	{Code: "NZD", Name: "New Zealand Dollar", Symbol: "NZ$", Decimals: 2},
	{Code: "SEK", Name: "Swedish Krona", Symbol: "kr", Decimals: 2},
	{Code: "NOK", Name: "Norwegian Krone", Symbol: "kr", Decimals: 2},
	{Code: "DKK", Name: "Danish Krone", Symbol: "kr", Decimals: 2},
	{Code: "PLN", Name: "Polish Złoty", Symbol: "zł", Decimals: 2},
	{Code: "CZK", Name: "Czech Koruna", Symbol: "Kč", Decimals: 2},
	{Code: "HUF", Name: "Hungarian Forint", Symbol: "Ft", Decimals: 2},
}

// Registry is an immutable table of supported currencies.
type Registry struct {
	ordered []Currency
	byCode  map[string]Currency
}

// NewRegistry builds the registry with the default currency table.
func NewRegistry() *Registry {
	return newRegistry(defaultCurrencies)
}

func newRegistry(list []Currency) *Registry {
	r := &Registry{
		ordered: make([]Currency, 0, len(list)),
		byCode:  make(map[string]Currency, len(list)),
	}
	for _, c := range list {
		c.Code = Normalize(c.Code)
		if _, dup := r.byCode[c.Code]; dup {
			continue
		}
		r.ordered = append(r.ordered, c)
		r.byCode[c.Code] = c
	}
	return r
}

// Normalize trims and upper-cases a currency code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsSupported reports whether code is registered.
func (r *Registry) IsSupported(code string) bool {
	_, ok := r.byCode[Normalize(code)]
	return ok
}

// Name returns the display name, or an empty string for unknown codes.
func (r *Registry) Name(code string) string {
	return r.byCode[Normalize(code)].Name
}

// Symbol returns the presentation symbol. Unknown codes, or codes without a
// symbol, yield the code itself.
func (r *Registry) Symbol(code string) string {
	if c, ok := r.byCode[Normalize(code)]; ok && c.Symbol != "" {
		return c.Symbol
	}
	return code
}

// Decimals returns the number of fraction digits shown for code.
func (r *Registry) Decimals(code string) int {
	if c, ok := r.byCode[Normalize(code)]; ok {
		return c.Decimals
	}
	return DefaultDecimals
}

// List returns all currencies in registry order.
func (r *Registry) List() []Currency {
	out := make([]Currency, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Codes returns all codes in registry order.
func (r *Registry) Codes() []string {
	out := make([]string, len(r.ordered))
	for i, c := range r.ordered {
		out[i] = c.Code
	}
	return out
}
