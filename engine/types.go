/*
Package engine implements the LCOE calculation core for hybrid PV + battery
micro-generation systems.

PURPOSE:
  This package contains the pure, deterministic formulas that turn one site's
  sizing inputs (population, installed PV capacity, installed battery
  capacity) plus a shared ParameterSet into capital cost, annuitized lifecycle
  cost, a levelized cost-per-kWh figure, and avoided CO2 emissions.

KEY CONCEPTS IN THIS FILE (types.go):
  - ParameterSet: economic/technical/demand constants, loaded once per run
  - SiteRecord:   one site's sizing inputs (one CSV row)
  - SiteResult:   one site's computed outputs, immutable once produced
  - CapitalBreakdown: per-component capital expenditure (PV, battery, BOS)

DESIGN PRINCIPLES:
  1. Purity: every function is a deterministic function of its arguments,
     no I/O, no shared mutable state
  2. Precision: uses decimal.Decimal so money never touches float64 until
     the serialization edge
  3. Immutability: ParameterSet is validated once and never mutated, so it
     is safe to share across concurrent site evaluations without locking

USAGE:
  params, err := ...            // built by config.Load
  result, err := engine.EvaluateSite(rec, params)

SEE ALSO:
  - demand.go:    population -> demand tier classification
  - capital.go:   upfront capital expenditure
  - lifecycle.go: O&M + battery replacement present value
  - lcoe.go:      discounted energy and the LCOE ratio
  - batch.go:     the per-site pipeline and batch drivers
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// PARAMETER SET - Shared economic/technical/demand constants
// =============================================================================

// ParameterSet holds every global constant the engine needs. It is
// constructed once at process start, validated, and treated as read-only
// for the remainder of the run.
type ParameterSet struct {
	// Cost parameters.
	PVUnitCost         decimal.Decimal // currency per kW of PV
	BatteryUnitCost    decimal.Decimal // currency per kWh of storage
	BOSUnitCost        decimal.Decimal // currency per kWh, balance-of-system
	SoftCostFactor     decimal.Decimal // dimensionless, > 1
	PVInfraFactor      decimal.Decimal // dimensionless, > 1
	BatteryInfraFactor decimal.Decimal // dimensionless, > 1

	// Technical parameters.
	OMFraction           decimal.Decimal // annual O&M as fraction of capital, [0, 1)
	PVLifetimeYears      int             // project horizon, > 0
	DiscountRate         decimal.Decimal // (0, 1)
	BatteryLifetimeYears int             // (0, PVLifetimeYears]

	// Lifecycle-emission factors (CO2 mass per kWh).
	DieselEmissionFactor decimal.Decimal
	PVEmissionFactor     decimal.Decimal

	// Demand parameters.
	PopulationLowThreshold  int
	PopulationHighThreshold int
	DemandLow               decimal.Decimal // kWh per year
	DemandMedium            decimal.Decimal
	DemandHigh              decimal.Decimal
}

// Validate checks every ParameterSet invariant. The first violation is
// returned as a *ParameterError (a ConfigError: fatal for the whole run).
func (p ParameterSet) Validate() error {
	type check struct {
		name string
		ok   bool
		why  string
	}
	one := decimal.NewFromInt(1)

	checks := []check{
		{"pv_unit_cost", p.PVUnitCost.IsPositive(), "must be > 0"},
		{"bat_unit_cost", p.BatteryUnitCost.IsPositive(), "must be > 0"},
		{"bos_unit_cost", p.BOSUnitCost.IsPositive(), "must be > 0"},
		{"soft_cost_factor", p.SoftCostFactor.GreaterThan(one), "must be > 1"},
		{"pv_infra_factor", p.PVInfraFactor.GreaterThan(one), "must be > 1"},
		{"bat_infra_factor", p.BatteryInfraFactor.GreaterThan(one), "must be > 1"},
		{"om_fraction", !p.OMFraction.IsNegative() && p.OMFraction.LessThan(one), "must be in [0, 1)"},
		{"pv_lifetime_years", p.PVLifetimeYears > 0, "must be > 0"},
		{"discount_rate", p.DiscountRate.IsPositive() && p.DiscountRate.LessThan(one), "must be in (0, 1)"},
		{"battery_lifetime_years", p.BatteryLifetimeYears > 0 && p.BatteryLifetimeYears <= p.PVLifetimeYears,
			"must be in (0, pv_lifetime_years]"},
		{"diesel_emission_factor", !p.DieselEmissionFactor.IsNegative(), "must be >= 0"},
		{"pv_emission_factor", !p.PVEmissionFactor.IsNegative(), "must be >= 0"},
		{"population_thresholds", p.PopulationLowThreshold < p.PopulationHighThreshold,
			"low threshold must be < high threshold"},
		{"demand_low", p.DemandLow.IsPositive(), "must be > 0"},
		{"demand_medium", p.DemandMedium.GreaterThan(p.DemandLow), "must be > demand_low"},
		{"demand_high", p.DemandHigh.GreaterThan(p.DemandMedium), "must be > demand_medium"},
	}

	for _, c := range checks {
		if !c.ok {
			return &ParameterError{Name: c.name, Reason: c.why}
		}
	}
	return nil
}

// =============================================================================
// SITE RECORD - One site's sizing inputs
// =============================================================================

// SiteRecord is one row of the input table: the sizing data for a single
// institution. Produced by the dataset reader, read-only afterwards.
type SiteRecord struct {
	SiteID             string
	Population         int
	PVCapacityKW       decimal.Decimal
	BatteryCapacityKWh decimal.Decimal
}

// Validate rejects per-site inputs the engine cannot price. Violations are
// *SiteError values (DataErrors: the site is skipped, the batch continues).
func (r SiteRecord) Validate() error {
	if r.Population < 0 {
		return &SiteError{SiteID: r.SiteID, Field: "population", Reason: "must be >= 0"}
	}
	if r.PVCapacityKW.IsNegative() {
		return &SiteError{SiteID: r.SiteID, Field: "pv_capacity_kw", Reason: "must be >= 0"}
	}
	if r.BatteryCapacityKWh.IsNegative() {
		return &SiteError{SiteID: r.SiteID, Field: "battery_capacity_kwh", Reason: "must be >= 0"}
	}
	return nil
}

// =============================================================================
// CAPITAL BREAKDOWN - Per-component capital expenditure
// =============================================================================

// CapitalBreakdown carries capital cost per subsystem. The battery component
// is kept separate because the lifecycle annuitizer re-incurs exactly that
// amount at each battery replacement.
type CapitalBreakdown struct {
	PVCapital      decimal.Decimal
	BatteryCapital decimal.Decimal
	BOSCapital     decimal.Decimal
}

// Total returns the full upfront capital expenditure.
func (c CapitalBreakdown) Total() decimal.Decimal {
	return c.PVCapital.Add(c.BatteryCapital).Add(c.BOSCapital)
}

// =============================================================================
// SITE RESULT - One site's computed outputs
// =============================================================================

// SiteResult is the engine's output for one site. Every field is always
// populated; NaN/undefined values cannot occur (decimal arithmetic plus
// explicit zero-divisor checks). Immutable once produced.
type SiteResult struct {
	SiteID     string
	DemandTier decimal.Decimal // kWh per year

	Capital      CapitalBreakdown
	CapitalCost  decimal.Decimal // Capital.Total(), denormalized for output

	DiscountedLifecycleCost decimal.Decimal
	DiscountedEnergy        decimal.Decimal
	LCOE                    decimal.Decimal // currency per kWh

	AnnualOpex decimal.Decimal // average undiscounted yearly O&M + replacement
	CO2Avoided decimal.Decimal // vs. diesel baseline; may be negative

	// Warnings carries non-fatal anomalies (e.g. negative avoided
	// emissions). Never blocks output.
	Warnings []string
}
