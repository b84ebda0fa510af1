package engine

import "github.com/shopspring/decimal"

// =============================================================================
// DEMAND CLASSIFICATION - Population size -> annual energy demand tier
// =============================================================================

// ClassifyDemand maps a site's population to an annual energy-demand tier.
// The policy is a step function, first match wins, boundaries inclusive on
// the lower tier:
//
//	population <= low threshold            -> DemandLow
//	low threshold < population <= high     -> DemandMedium
//	population > high threshold            -> DemandHigh
//
// Monotonic non-decreasing in population. Negative populations are rejected
// by SiteRecord.Validate before this is reached.
func ClassifyDemand(population int, p ParameterSet) decimal.Decimal {
	switch {
	case population <= p.PopulationLowThreshold:
		return p.DemandLow
	case population <= p.PopulationHighThreshold:
		return p.DemandMedium
	default:
		return p.DemandHigh
	}
}
