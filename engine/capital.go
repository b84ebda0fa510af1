package engine

import "github.com/shopspring/decimal"

// =============================================================================
// CAPITAL COST - Upfront expenditure for PV, battery and balance-of-system
// =============================================================================

// EstimateCapital computes the upfront capital expenditure for one site,
// broken down by subsystem:
//
//	pv_capital      = pv_kw  * pv_unit_cost  * pv_infra_factor  * soft_cost_factor
//	battery_capital = bat_kwh * bat_unit_cost * bat_infra_factor * soft_cost_factor
//	bos_capital     = bat_kwh * bos_unit_cost
//
// BOS is scoped to the storage subsystem (the unit cost is currency per
// kWh). That scoping is a documented assumption; it lives only here so a
// future per-kW-of-PV definition touches a single line.
//
// Pure function. The result is >= 0 whenever inputs are >= 0 and the
// factors satisfy ParameterSet.Validate.
func EstimateCapital(pvCapacityKW, batteryCapacityKWh decimal.Decimal, p ParameterSet) CapitalBreakdown {
	return CapitalBreakdown{
		PVCapital: pvCapacityKW.
			Mul(p.PVUnitCost).
			Mul(p.PVInfraFactor).
			Mul(p.SoftCostFactor),
		BatteryCapital: batteryCapacityKWh.
			Mul(p.BatteryUnitCost).
			Mul(p.BatteryInfraFactor).
			Mul(p.SoftCostFactor),
		BOSCapital: batteryCapacityKWh.Mul(p.BOSUnitCost),
	}
}
