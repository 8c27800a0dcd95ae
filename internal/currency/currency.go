// Package currency provides the fixed exchange-rate table and conversion
// between the supported currencies and the reference crypto unit.
//
// Rates are static configuration: each supported currency is priced in terms
// of one ETH. Conversion goes through the reference unit:
//
//	amount / rate[from] * rate[to]
//
// There is no temporal variation and no external rate feed.
package currency

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

// ErrUnsupportedCurrency is returned when a currency code is outside the
// closed supported set.
var ErrUnsupportedCurrency = errors.New("unsupported currency")

// Supported currency codes.
const (
	USD = "USD"
	INR = "INR"
	GBP = "GBP"
	EUR = "EUR"
	ETH = "ETH"
)

// DefaultCode is the coercion target used by ConvertOrDefault for unknown
// codes found in pre-existing data.
const DefaultCode = USD

// rates price one ETH in each supported currency.
var rates = map[string]decimal.Decimal{
	USD: decimal.NewFromFloat(2243.52),
	INR: decimal.NewFromFloat(192065.03),
	GBP: decimal.NewFromFloat(1694.35),
	EUR: decimal.NewFromFloat(1994.49),
	ETH: decimal.NewFromInt(1),
}

// symbols are the display prefixes per currency.
var symbols = map[string]string{
	USD: "$",
	INR: "₹",
	GBP: "£",
	EUR: "€",
	ETH: "Ξ",
}

// Codes returns the supported currency codes.
func Codes() []string {
	return []string{USD, INR, GBP, EUR, ETH}
}

// Supported reports whether the code is in the supported set.
func Supported(code string) bool {
	_, ok := rates[code]
	return ok
}

// Convert converts amount from one supported currency to another.
// Unknown codes are rejected with ErrUnsupportedCurrency; this is the entry
// point for all write paths so unsupported codes never enter the ledger.
func Convert(amount float64, from, to string) (float64, error) {
	fromRate, ok := rates[from]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, from)
	}
	toRate, ok := rates[to]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, to)
	}

	inEth := decimal.NewFromFloat(amount).Div(fromRate)
	result, _ := inEth.Mul(toRate).Float64()
	return result, nil
}

// ConvertOrDefault converts like Convert but coerces unknown codes to
// DefaultCode instead of failing. This is a deliberate fallback for
// read/display paths over data recorded before strict validation existed;
// every coercion is logged so drift stays observable.
func ConvertOrDefault(amount float64, from, to string) float64 {
	if !Supported(from) {
		slog.Warn("coercing unsupported currency to default", "code", from, "default", DefaultCode)
		from = DefaultCode
	}
	if !Supported(to) {
		slog.Warn("coercing unsupported currency to default", "code", to, "default", DefaultCode)
		to = DefaultCode
	}
	result, _ := Convert(amount, from, to)
	return result
}

// Format renders an amount with the currency's display symbol and two decimal
// places, e.g. "$12.50". Unknown codes render with the code itself as prefix.
func Format(amount float64, code string) string {
	symbol, ok := symbols[code]
	if !ok {
		symbol = code + " "
	}
	return symbol + decimal.NewFromFloat(amount).StringFixed(2)
}

// Round2 rounds an amount to the currency minor unit (two decimals, half-up).
func Round2(amount float64) float64 {
	result, _ := decimal.NewFromFloat(amount).Round(2).Float64()
	return result
}
