package engine

import "github.com/shopspring/decimal"

// =============================================================================
// AVOIDED EMISSIONS - CO2 saved relative to a diesel-generation baseline
// =============================================================================

// EstimateAvoidedCO2 computes the annual CO2 emissions avoided by serving
// the demand tier from PV instead of diesel:
//
//	co2_avoided = demand_tier * (diesel_emission_factor - pv_emission_factor)
//
// The result is negative only when the PV lifecycle factor exceeds the
// diesel factor. That is a legitimate parameter combination, surfaced as a
// warning by the batch driver rather than an error.
func EstimateAvoidedCO2(demandTier decimal.Decimal, p ParameterSet) decimal.Decimal {
	return demandTier.Mul(p.DieselEmissionFactor.Sub(p.PVEmissionFactor))
}

// EmissionsAnomalous reports whether the configured factors make every
// avoided-emissions estimate negative.
func EmissionsAnomalous(p ParameterSet) bool {
	return p.PVEmissionFactor.GreaterThan(p.DieselEmissionFactor)
}
