package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridwatt/lcoe-engine/engine"
)

func testRecords() []engine.SiteRecord {
	return []engine.SiteRecord{
		{SiteID: "school-001", Population: 40, PVCapacityKW: d("5"), BatteryCapacityKWh: d("3")},
		{SiteID: "school-002", Population: 120, PVCapacityKW: d("12"), BatteryCapacityKWh: d("8")},
		{SiteID: "school-003", Population: 900, PVCapacityKW: d("30"), BatteryCapacityKWh: d("20")},
	}
}

func TestEvaluateSite_WorkedScenario(t *testing.T) {
	// GIVEN: population 40 (<= low threshold 50), 5 kW PV, 3 kWh battery
	// THEN:  demand tier 12, capital breakdown per the cost formulas,
	//        all output fields populated and positive
	p := testParams()
	rec := testRecords()[0]

	result, err := engine.EvaluateSite(rec, p)
	require.NoError(t, err)

	require.Equal(t, "school-001", result.SiteID)
	require.True(t, result.DemandTier.Equal(d("12")), "tier = %v, want 12", result.DemandTier)
	require.InDelta(t, 6656.65, result.Capital.PVCapital.InexactFloat64(), 1e-2)
	require.InDelta(t, 1759.59, result.Capital.BatteryCapital.InexactFloat64(), 1e-2)
	require.InDelta(t, 3000.00, result.Capital.BOSCapital.InexactFloat64(), 1e-2)
	require.InDelta(t, 11416.24, result.CapitalCost.InexactFloat64(), 1e-2)

	require.True(t, result.DiscountedLifecycleCost.GreaterThan(result.CapitalCost),
		"lifecycle cost must exceed upfront capital")
	require.True(t, result.DiscountedEnergy.IsPositive())
	require.True(t, result.LCOE.IsPositive())
	require.True(t, result.AnnualOpex.IsPositive())
	require.True(t, result.CO2Avoided.IsPositive())
	require.Empty(t, result.Warnings)
}

func TestEvaluateSite_Deterministic(t *testing.T) {
	// Calling the engine twice with identical inputs must produce
	// bit-identical results.
	p := testParams()
	rec := testRecords()[1]

	a, err := engine.EvaluateSite(rec, p)
	require.NoError(t, err)
	b, err := engine.EvaluateSite(rec, p)
	require.NoError(t, err)

	require.Equal(t, a, b)
}

func TestEvaluateSite_NegativeAvoidedEmissionsIsWarningNotError(t *testing.T) {
	p := testParams()
	p.PVEmissionFactor = d("0.50")

	result, err := engine.EvaluateSite(testRecords()[0], p)
	require.NoError(t, err, "anomalous emission factors are a warning, not an error")
	require.True(t, result.CO2Avoided.IsNegative())
	require.Len(t, result.Warnings, 1)
}

func TestRunBatch_SkipsBadSitesKeepsOrder(t *testing.T) {
	p := testParams()
	records := []engine.SiteRecord{
		testRecords()[0],
		{SiteID: "bad-pop", Population: -3, PVCapacityKW: d("5"), BatteryCapacityKWh: d("3")},
		testRecords()[1],
		{SiteID: "bad-cap", Population: 40, PVCapacityKW: d("-1"), BatteryCapacityKWh: d("3")},
		testRecords()[2],
	}

	report, err := engine.RunBatch(context.Background(), records, p)
	require.NoError(t, err, "data errors must not abort the batch")

	require.Len(t, report.Results, 3)
	require.Equal(t, "school-001", report.Results[0].SiteID)
	require.Equal(t, "school-002", report.Results[1].SiteID)
	require.Equal(t, "school-003", report.Results[2].SiteID)

	require.Len(t, report.Failures, 2)
	require.Equal(t, 1, report.Failures[0].Index)
	require.Equal(t, "bad-pop", report.Failures[0].SiteID)
	require.True(t, engine.IsDataError(report.Failures[0].Err))
	require.Equal(t, 3, report.Failures[1].Index)
	require.Equal(t, "bad-cap", report.Failures[1].SiteID)
}

func TestRunBatch_ConfigErrorAbortsBeforeAnySite(t *testing.T) {
	p := testParams()
	p.DiscountRate = d("0") // violates (0, 1)

	report, err := engine.RunBatch(context.Background(), testRecords(), p)
	require.Error(t, err)
	require.True(t, engine.IsConfigError(err))
	require.Empty(t, report.Results)
	require.Empty(t, report.Failures)
}

func TestRunBatchParallel_MatchesSequential(t *testing.T) {
	p := testParams()

	// A larger batch so the pool actually interleaves.
	var records []engine.SiteRecord
	for i := 0; i < 50; i++ {
		base := testRecords()[i%3]
		base.SiteID = base.SiteID + "-x"
		base.Population = base.Population + i
		records = append(records, base)
	}
	records[7].Population = -1 // one data failure mid-batch

	sequential, err := engine.RunBatch(context.Background(), records, p)
	require.NoError(t, err)

	for _, workers := range []int{1, 4, 0} {
		parallel, err := engine.RunBatchParallel(context.Background(), records, p, workers)
		require.NoError(t, err)

		require.Equal(t, len(sequential.Results), len(parallel.Results))
		for i := range sequential.Results {
			require.Equal(t, sequential.Results[i], parallel.Results[i],
				"result %d must match sequential run (workers=%d)", i, workers)
		}
		require.Len(t, parallel.Failures, 1)
		require.Equal(t, 7, parallel.Failures[0].Index)
	}
}

func TestRunBatchParallel_ConfigErrorAborts(t *testing.T) {
	p := testParams()
	p.SoftCostFactor = d("0.5") // must be > 1

	_, err := engine.RunBatchParallel(context.Background(), testRecords(), p, 4)
	require.Error(t, err)
	require.True(t, engine.IsConfigError(err))
}

func TestParameterSet_ValidateNamesOffendingParameter(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*engine.ParameterSet)
	}{
		{"pv_unit_cost", func(p *engine.ParameterSet) { p.PVUnitCost = d("0") }},
		{"soft_cost_factor", func(p *engine.ParameterSet) { p.SoftCostFactor = d("1") }},
		{"om_fraction", func(p *engine.ParameterSet) { p.OMFraction = d("1") }},
		{"discount_rate", func(p *engine.ParameterSet) { p.DiscountRate = d("1") }},
		{"battery_lifetime_years", func(p *engine.ParameterSet) { p.BatteryLifetimeYears = 25 }},
		{"population_thresholds", func(p *engine.ParameterSet) { p.PopulationHighThreshold = 10 }},
		{"demand_medium", func(p *engine.ParameterSet) { p.DemandMedium = d("5") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			require.NoError(t, p.Validate())

			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			require.True(t, engine.IsConfigError(err))

			var perr *engine.ParameterError
			require.ErrorAs(t, err, &perr)
			require.Equal(t, tt.name, perr.Name)
		})
	}
}
