package wage

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Won is an amount of Korean won. The currency has no minor unit.
type Won int64

// maxWon bounds float amounts that can be converted without overflow.
const maxWon = float64(math.MaxInt64 / 2)

// RoundWon rounds a float amount to the nearest whole won, halves away from
// zero. Every amount this package produces goes through here.
func RoundWon(field string, v float64) (Won, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > maxWon {
		return 0, &InvalidInputError{Field: field, Value: v, Reason: "amount out of range"}
	}
	return Won(decimal.NewFromFloat(v).Round(0).IntPart()), nil
}

// Decimal returns the amount as a decimal for display arithmetic.
func (w Won) Decimal() decimal.Decimal { return decimal.NewFromInt(int64(w)) }

// String formats with thousands separators, e.g. "1,738,000".
func (w Won) String() string {
	s := w.Decimal().Abs().String()
	var b strings.Builder
	if w < 0 {
		b.WriteByte('-')
	}
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
