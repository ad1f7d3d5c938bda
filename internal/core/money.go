// Package core holds the domain model shared by the importer, the
// summary aggregator, storage, and the HTTP layer.
//
// Amounts are stored as int64 milliunits (1 unit = 1/1000 of the display
// currency) so that aggregation never touches floating point. That
// convention is the one bit-exact contract every boundary must preserve.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var thousand = decimal.NewFromInt(1000)

// ToMilliunits parses a decimal amount string and converts it to
// milliunits, rounding half away from zero on the fourth fractional
// digit. The sign is kept: "-14.53" -> -14530, "100" -> 100000.
func ToMilliunits(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return d.Mul(thousand).Round(0).IntPart(), nil
}

// FromMilliunits converts a stored amount back to display units. Display
// only; calculations stay in milliunits.
func FromMilliunits(amount int64) float64 {
	return float64(amount) / 1000.0
}
