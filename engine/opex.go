package engine

import "github.com/shopspring/decimal"

// AverageAnnualOpex returns the average undiscounted yearly operating cost:
// the nominal O&M and battery replacement cash flows over the horizon,
// divided by the horizon length. Same replacement schedule as the
// annuitizer, no discounting.
func AverageAnnualOpex(cb CapitalBreakdown, p ParameterSet) decimal.Decimal {
	if p.PVLifetimeYears <= 0 || p.BatteryLifetimeYears <= 0 {
		return decimal.Zero
	}

	annualOM := p.OMFraction.Mul(cb.Total())
	acc := decimal.Zero
	for year := 1; year <= p.PVLifetimeYears; year++ {
		acc = acc.Add(annualOM)
		if year%p.BatteryLifetimeYears == 0 && year != p.PVLifetimeYears {
			acc = acc.Add(cb.BatteryCapital)
		}
	}
	return acc.Div(decimal.NewFromInt(int64(p.PVLifetimeYears)))
}
