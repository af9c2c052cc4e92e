// Package tax computes per-line and aggregate VAT for postings.
//
// All money rounding in the engine funnels through Round2 so a single
// rounding policy (half-up to two decimals, ties away from zero) applies
// everywhere.
package tax

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// Round2 rounds to two decimal places, half-up with ties away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Compute returns the tax for one line amount at ratePercent. Non-taxable
// lines tax to zero. The sign of amount propagates so credit and reversal
// amounts carry negative tax.
func Compute(amount, ratePercent decimal.Decimal, taxable bool) decimal.Decimal {
	if !taxable || ratePercent.Sign() <= 0 {
		return decimal.Zero
	}
	return Round2(amount.Mul(ratePercent).Div(oneHundred))
}

// ComputeTotal sums Compute over line amounts sharing one rate. Each line is
// rounded individually, matching how the per-line tax is journaled.
func ComputeTotal(amounts []decimal.Decimal, ratePercent decimal.Decimal, taxable bool) decimal.Decimal {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(Compute(amount, ratePercent, taxable))
	}
	return total
}
