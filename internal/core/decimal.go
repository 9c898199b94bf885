package core

import (
	"math"

	"github.com/cockroachdb/apd/v3"
)

var decimalCtx = apd.BaseContext.WithPrecision(34)

// Decimal is an exact decimal used to accumulate amounts so that totals do
// not drift with the order records arrive in.
type Decimal struct {
	value apd.Decimal
}

// DecimalFromFloat converts f through its shortest decimal representation,
// so 0.1 becomes exactly 0.1. NaN and infinities become zero.
func DecimalFromFloat(f float64) Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Decimal{}
	}
	var d apd.Decimal
	if _, err := d.SetFloat64(f); err != nil {
		return Decimal{}
	}
	return Decimal{value: d}
}

// Add returns the sum of d and other.
func (d Decimal) Add(other Decimal) Decimal {
	var result apd.Decimal
	decimalCtx.Add(&result, &d.value, &other.value)
	return Decimal{value: result}
}

// AddFloat is shorthand for d.Add(DecimalFromFloat(f)).
func (d Decimal) AddFloat(f float64) Decimal {
	return d.Add(DecimalFromFloat(f))
}

// Float64 returns the closest float64, or 0 when d does not fit one.
func (d Decimal) Float64() float64 {
	f, err := d.value.Float64()
	if err != nil {
		return 0
	}
	return f
}

func (d Decimal) String() string {
	return d.value.String()
}
