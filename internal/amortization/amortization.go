// Package amortization computes fixed-rate annuity amortization schedules
// using fixed-precision decimal arithmetic, so results are bit-for-bit
// reproducible across platforms.
package amortization

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// calcPrecision is the number of fractional digits kept by every division
// inside the engine. It is passed explicitly to DivRound so the engine never
// depends on the package-global decimal.DivisionPrecision.
const calcPrecision = 28

var (
	one     = decimal.NewFromInt(1)
	twelve  = decimal.NewFromInt(12)
	hundred = decimal.NewFromInt(100)
)

// Terms describes a fixed-rate, fixed-term, equal-payment loan.
type Terms struct {
	Principal         decimal.Decimal
	AnnualRatePercent decimal.Decimal
	TermMonths        int
}

// Validate reports whether the terms are within the engine's contract.
// Callers are expected to validate before invoking the engine; the
// computation functions themselves assume valid terms.
func (t Terms) Validate() error {
	if !t.Principal.IsPositive() {
		return fmt.Errorf("principal must be positive, got %s", t.Principal)
	}
	if t.AnnualRatePercent.IsNegative() {
		return fmt.Errorf("annual interest rate must not be negative, got %s", t.AnnualRatePercent)
	}
	if t.TermMonths < 1 {
		return fmt.Errorf("term must be at least 1 month, got %d", t.TermMonths)
	}
	return nil
}

// monthlyRate converts the nominal annual percentage rate to a monthly
// decimal rate: rate / 100 / 12.
func (t Terms) monthlyRate() decimal.Decimal {
	return t.AnnualRatePercent.
		DivRound(hundred, calcPrecision).
		DivRound(twelve, calcPrecision)
}

// ToMoney rounds a decimal to 2 fractional digits, half up. It is applied
// wherever a value crosses the engine's output boundary; intermediate values
// keep full precision.
func ToMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// MonthlyPayment computes the single fixed monthly payment for the terms.
// A zero rate is an even split; otherwise the standard annuity formula
// payment = P * r * (1+r)^n / ((1+r)^n - 1).
func MonthlyPayment(t Terms) decimal.Decimal {
	n := decimal.NewFromInt(int64(t.TermMonths))
	r := t.monthlyRate()

	if r.IsZero() {
		return ToMoney(t.Principal.DivRound(n, calcPrecision))
	}

	// (1+r)^n is exact for integer n, only the final division rounds.
	compound := one.Add(r).Pow(n)
	numerator := t.Principal.Mul(r).Mul(compound)
	denominator := compound.Sub(one)
	return ToMoney(numerator.DivRound(denominator, calcPrecision))
}

// step advances the recurrence by one month. It is the single source of
// truth for the interest/principal split, shared by BuildSchedule and
// Summarize so the two can never drift apart.
//
// The clamp keeps the final month(s) from overshooting: rounding the fixed
// payment to whole cents means the sum of payments can exceed the true
// amortized total by a few cents, and clamping redistributes that residual
// into the last month instead of letting the balance go negative.
func step(remaining, rate, payment decimal.Decimal) (interest, principal, newRemaining decimal.Decimal) {
	interest = decimal.Zero
	if !rate.IsZero() {
		interest = remaining.Mul(rate)
	}
	principal = payment.Sub(interest)
	if principal.GreaterThan(remaining) {
		principal = remaining
	}
	return interest, principal, remaining.Sub(principal)
}
