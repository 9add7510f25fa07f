// Package pricing normalizes prices and sizes into the exchange's accepted
// formats. Everything here is pure: no I/O, no side effects.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// The exchange accepts at most 5 significant figures AND at most
// (maxDecimals - szDecimals) fractional digits per price.
const (
	SigFigs = 5

	maxDecimalsSpot = 8
	maxDecimalsPerp = 6
)

// ErrOrderBelowMinimum is returned when an order's notional falls below
// the venue minimum.
var ErrOrderBelowMinimum = errors.New("order value below minimum")

// RoundToSignificantFigures rounds v to sigFigs significant decimal
// digits. Integers and zero pass through unchanged.
func RoundToSignificantFigures(v float64, sigFigs int) float64 {
	if v == 0 {
		return 0
	}
	if v == math.Trunc(v) {
		return v
	}
	digits := math.Floor(math.Log10(math.Abs(v))) + 1
	factor := math.Pow(10, float64(sigFigs)-digits)
	return math.Round(v*factor) / factor
}

// FormatPrice applies the venue's dual price constraint: 5 significant
// figures, then at most maxDecimals-szDecimals fractional digits.
// szDecimals is exchange-supplied metadata, never hard-coded per asset.
func FormatPrice(price float64, szDecimals int, isSpot bool) float64 {
	if price == math.Trunc(price) {
		return price
	}

	rounded := RoundToSignificantFigures(price, SigFigs)

	maxDecimals := maxDecimalsPerp
	if isSpot {
		maxDecimals = maxDecimalsSpot
	}
	allowed := maxDecimals - szDecimals
	if allowed < 0 {
		allowed = 0
	}

	out, err := strconv.ParseFloat(strconv.FormatFloat(rounded, 'f', allowed, 64), 64)
	if err != nil {
		return rounded
	}
	return out
}

// CalculateOrderSize converts a notional amount into an asset quantity
// string with exactly szDecimals fractional digits, fixed-point.
func CalculateOrderSize(notional, formattedPrice float64, szDecimals int) string {
	size := decimal.NewFromFloat(notional).Div(decimal.NewFromFloat(formattedPrice))
	return size.StringFixed(int32(szDecimals))
}

// ValidateOrderValue fails iff size*price is strictly below minNotional;
// an order exactly at the minimum passes.
func ValidateOrderValue(orderSize string, price float64, minNotional decimal.Decimal) error {
	size, err := decimal.NewFromString(orderSize)
	if err != nil {
		return fmt.Errorf("parse order size %q: %w", orderSize, err)
	}
	notional := size.Mul(decimal.NewFromFloat(price))
	if notional.LessThan(minNotional) {
		return fmt.Errorf("%w: $%s < $%s", ErrOrderBelowMinimum,
			notional.StringFixed(2), minNotional.String())
	}
	return nil
}

// PriceString renders a formatted price the way the order wire format
// expects: plain decimal notation without a trailing fractional part for
// integral prices.
func PriceString(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}
