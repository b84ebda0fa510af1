/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupled from the engine's
  decimal-based domain model. Decimals become rounded floats only here, at
  the serialization edge: money to 2 decimal places, LCOE to 4.

NAMING CONVENTION:
  - *Request: request body types from clients
  - *DTO:     response types returned to clients
  - *Response: wrappers combining several DTOs

SEE ALSO:
  - handlers.go: uses these types
  - engine/types.go: the exact-decimal originals
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/gridwatt/lcoe-engine/engine"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// SiteRequest is one site's sizing inputs as submitted by a client.
type SiteRequest struct {
	SiteID             string  `json:"site_id"`
	Population         int     `json:"population"`
	PVCapacityKW       float64 `json:"pv_capacity_kw"`
	BatteryCapacityKWh float64 `json:"battery_capacity_kwh"`
}

func (r SiteRequest) toRecord() engine.SiteRecord {
	return engine.SiteRecord{
		SiteID:             r.SiteID,
		Population:         r.Population,
		PVCapacityKW:       decimal.NewFromFloat(r.PVCapacityKW),
		BatteryCapacityKWh: decimal.NewFromFloat(r.BatteryCapacityKWh),
	}
}

// CreateRunRequest is the batch submission body.
type CreateRunRequest struct {
	Sites []SiteRequest `json:"sites"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// SiteResultDTO is one site's computed outputs.
type SiteResultDTO struct {
	SiteID                  string   `json:"site_id"`
	DemandTier              float64  `json:"demand_tier"`
	PVCapital               float64  `json:"pv_capital"`
	BatteryCapital          float64  `json:"battery_capital"`
	BOSCapital              float64  `json:"bos_capital"`
	CapitalCost             float64  `json:"capital_cost"`
	DiscountedLifecycleCost float64  `json:"discounted_lifecycle_cost"`
	DiscountedEnergy        float64  `json:"discounted_energy"`
	LCOE                    float64  `json:"lcoe"`
	AnnualOpex              float64  `json:"annual_opex"`
	CO2Avoided              float64  `json:"co2_avoided"`
	Warnings                []string `json:"warnings,omitempty"`
}

func toSiteResultDTO(res engine.SiteResult) SiteResultDTO {
	money := func(v decimal.Decimal) float64 { return v.Round(2).InexactFloat64() }
	return SiteResultDTO{
		SiteID:                  res.SiteID,
		DemandTier:              money(res.DemandTier),
		PVCapital:               money(res.Capital.PVCapital),
		BatteryCapital:          money(res.Capital.BatteryCapital),
		BOSCapital:              money(res.Capital.BOSCapital),
		CapitalCost:             money(res.CapitalCost),
		DiscountedLifecycleCost: money(res.DiscountedLifecycleCost),
		DiscountedEnergy:        money(res.DiscountedEnergy),
		LCOE:                    res.LCOE.Round(4).InexactFloat64(),
		AnnualOpex:              money(res.AnnualOpex),
		CO2Avoided:              money(res.CO2Avoided),
		Warnings:                res.Warnings,
	}
}

// SiteFailureDTO reports a site excluded from a batch.
type SiteFailureDTO struct {
	Index  int    `json:"index"`
	SiteID string `json:"site_id"`
	Error  string `json:"error"`
}

// RunSummaryDTO is one stored run's metadata.
type RunSummaryDTO struct {
	ID           string  `json:"id"`
	StartedAt    string  `json:"started_at"`
	FinishedAt   *string `json:"finished_at,omitempty"`
	ConfigDigest string  `json:"config_digest,omitempty"`
	SiteCount    int     `json:"site_count"`
	FailureCount int     `json:"failure_count"`
}

// BatchResponse is returned when a submitted batch completes.
type BatchResponse struct {
	RunID    string           `json:"run_id"`
	Results  []SiteResultDTO  `json:"results"`
	Failures []SiteFailureDTO `json:"failures,omitempty"`
	Warnings int              `json:"warning_count"`
}

// ParametersDTO echoes the loaded parameter set.
type ParametersDTO struct {
	PVUnitCost         float64 `json:"pv_unit_cost"`
	BatteryUnitCost    float64 `json:"bat_unit_cost"`
	BOSUnitCost        float64 `json:"bos_unit_cost"`
	SoftCostFactor     float64 `json:"soft_cost_factor"`
	PVInfraFactor      float64 `json:"pv_infra_factor"`
	BatteryInfraFactor float64 `json:"bat_infra_factor"`

	OMFraction           float64 `json:"om_fraction"`
	PVLifetimeYears      int     `json:"pv_lifetime_years"`
	DiscountRate         float64 `json:"discount_rate"`
	BatteryLifetimeYears int     `json:"battery_lifetime_years"`

	DieselEmissionFactor float64 `json:"diesel_emission_factor"`
	PVEmissionFactor     float64 `json:"pv_emission_factor"`

	PopulationLowThreshold  int     `json:"population_low_threshold"`
	PopulationHighThreshold int     `json:"population_high_threshold"`
	DemandLow               float64 `json:"demand_low"`
	DemandMedium            float64 `json:"demand_medium"`
	DemandHigh              float64 `json:"demand_high"`
}

func toParametersDTO(p engine.ParameterSet) ParametersDTO {
	return ParametersDTO{
		PVUnitCost:         p.PVUnitCost.InexactFloat64(),
		BatteryUnitCost:    p.BatteryUnitCost.InexactFloat64(),
		BOSUnitCost:        p.BOSUnitCost.InexactFloat64(),
		SoftCostFactor:     p.SoftCostFactor.InexactFloat64(),
		PVInfraFactor:      p.PVInfraFactor.InexactFloat64(),
		BatteryInfraFactor: p.BatteryInfraFactor.InexactFloat64(),

		OMFraction:           p.OMFraction.InexactFloat64(),
		PVLifetimeYears:      p.PVLifetimeYears,
		DiscountRate:         p.DiscountRate.InexactFloat64(),
		BatteryLifetimeYears: p.BatteryLifetimeYears,

		DieselEmissionFactor: p.DieselEmissionFactor.InexactFloat64(),
		PVEmissionFactor:     p.PVEmissionFactor.InexactFloat64(),

		PopulationLowThreshold:  p.PopulationLowThreshold,
		PopulationHighThreshold: p.PopulationHighThreshold,
		DemandLow:               p.DemandLow.InexactFloat64(),
		DemandMedium:            p.DemandMedium.InexactFloat64(),
		DemandHigh:              p.DemandHigh.InexactFloat64(),
	}
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
