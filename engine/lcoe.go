package engine

import "github.com/shopspring/decimal"

// =============================================================================
// LCOE - Discounted cost over discounted energy
// =============================================================================

// AggregateLCOE combines the discounted lifecycle cost with the discounted
// energy delivered into a single cost-per-kWh figure.
//
// Energy is the demand tier repeated every year of the horizon (constant
// demand assumption) and discounted at the same rate as costs, so numerator
// and denominator are time-consistent:
//
//	discounted_energy = sum_{y=1..T} tier / (1 + r)^y
//	lcoe              = discounted_lifecycle_cost / discounted_energy
//
// A zero or negative demand tier makes the ratio undefined and is reported
// as a data error, never silently coerced.
func AggregateLCOE(lifecycleCost, demandTier decimal.Decimal, p ParameterSet) (energy, lcoe decimal.Decimal, err error) {
	if demandTier.Sign() <= 0 {
		return decimal.Zero, decimal.Zero, &UndefinedResultError{
			Op:     "lcoe",
			Reason: "demand tier is not positive",
		}
	}

	onePlusR := decimal.NewFromInt(1).Add(p.DiscountRate)
	for year := 1; year <= p.PVLifetimeYears; year++ {
		energy = energy.Add(demandTier.Div(onePlusR.Pow(decimal.NewFromInt(int64(year)))))
	}

	// energy > 0 is guaranteed here: tier > 0, r in (0,1), T >= 1.
	return energy, lifecycleCost.Div(energy), nil
}
