package sqlite_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gridwatt/lcoe-engine/engine"
	"github.com/gridwatt/lcoe-engine/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testParams() engine.ParameterSet {
	return engine.ParameterSet{
		PVUnitCost:         d("715"),
		BatteryUnitCost:    d("245"),
		BOSUnitCost:        d("1000"),
		SoftCostFactor:     d("1.33"),
		PVInfraFactor:      d("1.4"),
		BatteryInfraFactor: d("1.8"),

		OMFraction:           d("0.02"),
		PVLifetimeYears:      20,
		DiscountRate:         d("0.08"),
		BatteryLifetimeYears: 10,

		DieselEmissionFactor: d("0.35"),
		PVEmissionFactor:     d("0.02"),

		PopulationLowThreshold:  50,
		PopulationHighThreshold: 150,
		DemandLow:               d("12"),
		DemandMedium:            d("20"),
		DemandHigh:              d("35"),
	}
}

func sampleResults(t *testing.T) []engine.SiteResult {
	t.Helper()

	records := []engine.SiteRecord{
		{SiteID: "school-001", Population: 40, PVCapacityKW: d("5"), BatteryCapacityKWh: d("3")},
		{SiteID: "school-002", Population: 120, PVCapacityKW: d("12"), BatteryCapacityKWh: d("8")},
	}

	params := testParams()
	var results []engine.SiteResult
	for _, rec := range records {
		res, err := engine.EvaluateSite(rec, params)
		require.NoError(t, err)
		results = append(results, res)
	}
	return results
}

// =============================================================================
// RUN TESTS
// =============================================================================

func TestRunLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run, err := store.CreateRun(ctx, "digest-abc")
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	require.Nil(t, run.FinishedAt)

	require.NoError(t, store.FinishRun(ctx, run.ID, 2, 1))

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, "digest-abc", got.ConfigDigest)
	require.Equal(t, 2, got.SiteCount)
	require.Equal(t, 1, got.FailureCount)
	require.NotNil(t, got.FinishedAt)
}

func TestGetRun_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetRun(context.Background(), "run-absent")
	require.ErrorIs(t, err, sqlite.ErrRunNotFound)

	err = store.FinishRun(context.Background(), "run-absent", 0, 0)
	require.ErrorIs(t, err, sqlite.ErrRunNotFound)
}

func TestListRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateRun(ctx, "first")
	require.NoError(t, err)
	_, err = store.CreateRun(ctx, "second")
	require.NoError(t, err)

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
}

// =============================================================================
// SITE RESULT TESTS
// =============================================================================

func TestAppendAndLoadResults_RoundTripInInputOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run, err := store.CreateRun(ctx, "")
	require.NoError(t, err)

	results := sampleResults(t)
	require.NoError(t, store.AppendResults(ctx, run.ID, results))

	loaded, err := store.LoadResults(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, loaded, len(results))

	for i := range results {
		require.Equal(t, results[i].SiteID, loaded[i].SiteID)
		require.True(t, loaded[i].DemandTier.Equal(results[i].DemandTier))
		require.True(t, loaded[i].CapitalCost.Equal(results[i].CapitalCost))
		require.True(t, loaded[i].DiscountedLifecycleCost.Equal(results[i].DiscountedLifecycleCost))
		require.True(t, loaded[i].LCOE.Equal(results[i].LCOE),
			"stored decimals must survive exactly: %v vs %v", loaded[i].LCOE, results[i].LCOE)
		require.True(t, loaded[i].CO2Avoided.Equal(results[i].CO2Avoided))
		require.Equal(t, results[i].Warnings, loaded[i].Warnings)
	}
}

func TestAppendResults_WarningsSurvive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	params := testParams()
	params.PVEmissionFactor = d("0.50") // anomalous: negative avoided CO2

	res, err := engine.EvaluateSite(
		engine.SiteRecord{SiteID: "s", Population: 40, PVCapacityKW: d("5"), BatteryCapacityKWh: d("3")},
		params)
	require.NoError(t, err)
	require.NotEmpty(t, res.Warnings)

	run, err := store.CreateRun(ctx, "")
	require.NoError(t, err)
	require.NoError(t, store.AppendResults(ctx, run.ID, []engine.SiteResult{res}))

	loaded, err := store.LoadResults(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, res.Warnings, loaded[0].Warnings)
}
