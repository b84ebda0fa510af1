/*
Package config loads and validates the run configuration document.

PURPOSE:
  Parses the YAML configuration (file locations, input column bindings, and
  every economic/technical/demand constant) and converts it into a validated
  engine.ParameterSet. Any failure here is a config error that aborts the
  run before the engine is invoked.

DOCUMENT LAYOUT:
  input:
    path: ./data
    file_name: schools.csv
  output:
    path: ./out
    file_name: lcoe.csv
  data_columns:
    site_id: school_id
    population: student_count
    pv_capacity_kw: pv_kw_t
    battery_capacity_kwh: bat_kw_t
  pv_parameters:
    costs: {pv_unit_cost, bat_unit_cost, bos_unit_cost,
            soft_cost_factor, pv_infra_factor, bat_infra_factor}
    om:    {om_fraction, pv_lifetime_years, discount_rate,
            battery_lifetime_years}
    lca:   {diesel, pv}
  demand_parameters:
    population_thresholds: {low, high}
    demand: {low, medium, high}

SEE ALSO:
  - engine/types.go: ParameterSet and its invariants
  - dataset/reader.go: consumes the column bindings
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/gridwatt/lcoe-engine/engine"
)

// =============================================================================
// DOCUMENT TYPES - Mirror the YAML layout
// =============================================================================

// Document is the full configuration file.
type Document struct {
	Input            FileRef          `yaml:"input"`
	Output           FileRef          `yaml:"output"`
	DataColumns      Columns          `yaml:"data_columns"`
	PVParameters     PVParameters     `yaml:"pv_parameters"`
	DemandParameters DemandParameters `yaml:"demand_parameters"`
}

// FileRef locates a tabular file as a directory plus file name, the way the
// configuration document spells it.
type FileRef struct {
	Path     string `yaml:"path"`
	FileName string `yaml:"file_name"`
}

// File returns the joined path, or "" when the reference is empty.
func (f FileRef) File() string {
	if f.Path == "" && f.FileName == "" {
		return ""
	}
	return filepath.Join(f.Path, f.FileName)
}

// Columns binds input CSV header names to SiteRecord fields. Empty entries
// fall back to the canonical names.
type Columns struct {
	SiteID             string `yaml:"site_id"`
	Population         string `yaml:"population"`
	PVCapacityKW       string `yaml:"pv_capacity_kw"`
	BatteryCapacityKWh string `yaml:"battery_capacity_kwh"`
}

func (c Columns) withDefaults() Columns {
	def := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}
	return Columns{
		SiteID:             def(c.SiteID, "site_id"),
		Population:         def(c.Population, "population"),
		PVCapacityKW:       def(c.PVCapacityKW, "pv_capacity_kw"),
		BatteryCapacityKWh: def(c.BatteryCapacityKWh, "battery_capacity_kwh"),
	}
}

// PVParameters groups the economic and technical constants.
type PVParameters struct {
	Costs struct {
		PVUnitCost      float64 `yaml:"pv_unit_cost"`
		BatteryUnitCost float64 `yaml:"bat_unit_cost"`
		BOSUnitCost     float64 `yaml:"bos_unit_cost"`
		SoftCostFactor  float64 `yaml:"soft_cost_factor"`
		PVInfraFactor   float64 `yaml:"pv_infra_factor"`
		BatInfraFactor  float64 `yaml:"bat_infra_factor"`
	} `yaml:"costs"`
	OM struct {
		OMFraction           float64 `yaml:"om_fraction"`
		PVLifetimeYears      int     `yaml:"pv_lifetime_years"`
		DiscountRate         float64 `yaml:"discount_rate"`
		BatteryLifetimeYears int     `yaml:"battery_lifetime_years"`
	} `yaml:"om"`
	LCA struct {
		Diesel float64 `yaml:"diesel"`
		PV     float64 `yaml:"pv"`
	} `yaml:"lca"`
}

// DemandParameters groups population thresholds and demand magnitudes.
type DemandParameters struct {
	PopulationThresholds struct {
		Low  int `yaml:"low"`
		High int `yaml:"high"`
	} `yaml:"population_thresholds"`
	Demand struct {
		Low    float64 `yaml:"low"`
		Medium float64 `yaml:"medium"`
		High   float64 `yaml:"high"`
	} `yaml:"demand"`
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads and parses the configuration document, then validates the
// parameter set it carries. The returned document is ready for use; any
// error is fatal for the run.
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a configuration document from raw YAML bytes.
func Parse(raw []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	doc.DataColumns = doc.DataColumns.withDefaults()

	// Surface parameter problems at load time, not mid-batch.
	if _, err := doc.ParameterSet(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ParameterSet converts the document's constants into a validated
// engine.ParameterSet.
func (d *Document) ParameterSet() (engine.ParameterSet, error) {
	p := engine.ParameterSet{
		PVUnitCost:         decimal.NewFromFloat(d.PVParameters.Costs.PVUnitCost),
		BatteryUnitCost:    decimal.NewFromFloat(d.PVParameters.Costs.BatteryUnitCost),
		BOSUnitCost:        decimal.NewFromFloat(d.PVParameters.Costs.BOSUnitCost),
		SoftCostFactor:     decimal.NewFromFloat(d.PVParameters.Costs.SoftCostFactor),
		PVInfraFactor:      decimal.NewFromFloat(d.PVParameters.Costs.PVInfraFactor),
		BatteryInfraFactor: decimal.NewFromFloat(d.PVParameters.Costs.BatInfraFactor),

		OMFraction:           decimal.NewFromFloat(d.PVParameters.OM.OMFraction),
		PVLifetimeYears:      d.PVParameters.OM.PVLifetimeYears,
		DiscountRate:         decimal.NewFromFloat(d.PVParameters.OM.DiscountRate),
		BatteryLifetimeYears: d.PVParameters.OM.BatteryLifetimeYears,

		DieselEmissionFactor: decimal.NewFromFloat(d.PVParameters.LCA.Diesel),
		PVEmissionFactor:     decimal.NewFromFloat(d.PVParameters.LCA.PV),

		PopulationLowThreshold:  d.DemandParameters.PopulationThresholds.Low,
		PopulationHighThreshold: d.DemandParameters.PopulationThresholds.High,
		DemandLow:               decimal.NewFromFloat(d.DemandParameters.Demand.Low),
		DemandMedium:            decimal.NewFromFloat(d.DemandParameters.Demand.Medium),
		DemandHigh:              decimal.NewFromFloat(d.DemandParameters.Demand.High),
	}
	if err := p.Validate(); err != nil {
		return engine.ParameterSet{}, err
	}
	return p, nil
}
