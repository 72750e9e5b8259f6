// Package core holds the domain model and the pure aggregation logic.
//
// This file contains the Money representation and conversions between the
// integer cents used internally and the decimal base-unit values exposed
// on the API.
package core

import "math"

// Money is a currency amount in integer cents. Calculations stay in cents
// to avoid floating point accumulation drift; conversion to base units
// happens only at the API boundary.
type Money struct {
	Cents int64
}

// CentsFromFloat converts a base-unit decimal value (as decoded from JSON)
// to cents with half-up rounding. It rejects NaN and infinities.
//
// Examples:
//
//	CentsFromFloat(12.34)  -> 1234, nil
//	CentsFromFloat(12.345) -> 1235, nil (rounds half away from zero)
//	CentsFromFloat(math.NaN()) -> 0, ErrInvalidAmount
func CentsFromFloat(v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when scaling to cents
	const maxSafe = float64(1<<62) / 100
	if v > maxSafe || v < -maxSafe {
		return 0, ErrInvalidAmount
	}
	return int64(math.Round(v * 100)), nil
}

// Units returns the base-unit value as a float64 for API responses and
// display. Use cents for arithmetic.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}
