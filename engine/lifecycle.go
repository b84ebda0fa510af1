/*
lifecycle.go - Present value of O&M and battery replacement cash flows

PURPOSE:
  Converts the capital breakdown plus the shared parameters into the total
  discounted lifecycle cost of a site over the project horizon.

CASH FLOW MODEL:
  Year 0:      full capital cost (not discounted)
  Years 1..T:  annual O&M = om_fraction * total capital
  Year k*L:    battery replacement = battery_capital, for every k >= 1 with
               k*L < T. The initial battery is already in the capital cost;
               the final year triggers no replacement since no service
               period follows. Replacement count is ceil(T/L) - 1.

  Every cash flow at year y is discounted by (1 + r)^y. Accumulation is in
  ascending year order to keep the floating/decimal error bounded and the
  result reproducible.

SEE ALSO:
  - capital.go: produces the CapitalBreakdown consumed here
  - opex.go:    the undiscounted annual average of the same cash flows
*/
package engine

import "github.com/shopspring/decimal"

// ReplacementYears returns the years at which a battery replacement cost is
// incurred: every multiple of the battery lifetime strictly inside the
// project horizon.
func ReplacementYears(p ParameterSet) []int {
	var years []int
	for y := p.BatteryLifetimeYears; y < p.PVLifetimeYears; y += p.BatteryLifetimeYears {
		years = append(years, y)
	}
	return years
}

// AnnuitizeLifecycleCost computes the present value of the full cost stream:
// upfront capital plus discounted O&M and battery replacements.
//
// O&M accrues on the full capital stack (PV + battery + BOS), the
// conservative reading of the parameter naming.
func AnnuitizeLifecycleCost(cb CapitalBreakdown, p ParameterSet) (decimal.Decimal, error) {
	if p.PVLifetimeYears <= 0 {
		return decimal.Zero, &ParameterError{Name: "pv_lifetime_years", Reason: "must be > 0"}
	}
	if p.BatteryLifetimeYears <= 0 {
		return decimal.Zero, &ParameterError{Name: "battery_lifetime_years", Reason: "must be > 0"}
	}

	total := cb.Total()
	annualOM := p.OMFraction.Mul(total)
	onePlusR := decimal.NewFromInt(1).Add(p.DiscountRate)

	pv := total
	for year := 1; year <= p.PVLifetimeYears; year++ {
		cash := annualOM
		if year%p.BatteryLifetimeYears == 0 && year != p.PVLifetimeYears {
			cash = cash.Add(cb.BatteryCapital)
		}
		divisor := onePlusR.Pow(decimal.NewFromInt(int64(year)))
		pv = pv.Add(cash.Div(divisor))
	}
	return pv, nil
}
