package report

import (
	"math"
	"strconv"

	"github.com/agrisense/cropscan/api/schemas"
)

// DisplayRule selects how a raw predicted value is rendered. The set is
// closed; anything the store carries outside the three named units maps to
// RuleDefault.
type DisplayRule int

const (
	// RuleDefault renders the value as-is with no precision coercion.
	RuleDefault DisplayRule = iota
	// RulePercentage renders up to 3 decimals, trailing zeros stripped, with
	// a " %" suffix.
	RulePercentage
	// RuleFloat2 renders with exactly 2 decimal places.
	RuleFloat2
	// RuleFloat1 renders with exactly 1 decimal place.
	RuleFloat1
)

// RuleForUnit maps a widget param_config unit token to its display rule.
// Unknown tokens (including the empty string) map to RuleDefault.
func RuleForUnit(unit string) DisplayRule {
	switch unit {
	case schemas.UnitPercentage:
		return RulePercentage
	case schemas.UnitFloat2Dig:
		return RuleFloat2
	case schemas.UnitFloat1Dig:
		return RuleFloat1
	default:
		return RuleDefault
	}
}

// Format renders a predicted value according to the given display rule.
// Callers must not pass NaN or infinities; the builder screens those out
// before formatting.
func Format(value float64, rule DisplayRule) string {
	switch rule {
	case RulePercentage:
		// Round half-to-even at 3 decimals, then let the shortest 'f'
		// representation strip trailing zeros. Integral values render with no
		// decimals ("16 %"), non-integral ones keep at least one ("16.5 %").
		rounded := math.RoundToEven(value*1000) / 1000
		return strconv.FormatFloat(rounded, 'f', -1, 64) + " %"
	case RuleFloat2:
		return strconv.FormatFloat(value, 'f', 2, 64)
	case RuleFloat1:
		return strconv.FormatFloat(value, 'f', 1, 64)
	default:
		return strconv.FormatFloat(value, 'g', -1, 64)
	}
}
