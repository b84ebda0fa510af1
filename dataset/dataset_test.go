package dataset_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gridwatt/lcoe-engine/config"
	"github.com/gridwatt/lcoe-engine/dataset"
	"github.com/gridwatt/lcoe-engine/engine"
)

func boundColumns() config.Columns {
	return config.Columns{
		SiteID:             "school_id",
		Population:         "student_count",
		PVCapacityKW:       "pv_kw_t",
		BatteryCapacityKWh: "bat_kw_t",
	}
}

func TestReader_BindsConfiguredColumns(t *testing.T) {
	// Columns in a different order than the bindings, plus an extra
	// column the reader must ignore.
	input := strings.Join([]string{
		"region,pv_kw_t,school_id,student_count,bat_kw_t",
		"north,5,school-001,40,3",
		"south,12.5,school-002,120,8",
	}, "\n")

	records, rowErrs, err := dataset.NewReader(boundColumns()).Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Empty(t, rowErrs)
	require.Len(t, records, 2)

	require.Equal(t, "school-001", records[0].SiteID)
	require.Equal(t, 40, records[0].Population)
	require.True(t, records[0].PVCapacityKW.Equal(decimal.RequireFromString("5")))
	require.True(t, records[0].BatteryCapacityKWh.Equal(decimal.RequireFromString("3")))
	require.True(t, records[1].PVCapacityKW.Equal(decimal.RequireFromString("12.5")))
}

func TestReader_SkipsBadRowsAndReportsThem(t *testing.T) {
	input := strings.Join([]string{
		"school_id,student_count,pv_kw_t,bat_kw_t",
		"ok-1,40,5,3",
		"bad-pop,forty,5,3",
		"bad-cap,40,,3",
		"neg-pop,-2,5,3",
		"ok-2,120,12,8",
	}, "\n")

	records, rowErrs, err := dataset.NewReader(boundColumns()).Read(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, records, 2)
	require.Equal(t, "ok-1", records[0].SiteID)
	require.Equal(t, "ok-2", records[1].SiteID)

	require.Len(t, rowErrs, 3)
	for _, re := range rowErrs {
		require.True(t, engine.IsDataError(re.Err), "row %d: %v must be a data error", re.Line, re.Err)
	}
	require.Equal(t, 3, rowErrs[0].Line)
	require.Equal(t, 4, rowErrs[1].Line)
	require.Equal(t, 5, rowErrs[2].Line)
}

func TestReader_MissingRequiredColumnIsFatal(t *testing.T) {
	input := "school_id,student_count,pv_kw_t\nx,40,5\n"

	_, _, err := dataset.NewReader(boundColumns()).Read(strings.NewReader(input))
	require.Error(t, err)
	require.Contains(t, err.Error(), "bat_kw_t")
}

func TestReader_MissingIDColumnFallsBackToRowNumber(t *testing.T) {
	cols := boundColumns()
	input := "student_count,pv_kw_t,bat_kw_t\n40,5,3\n"

	records, rowErrs, err := dataset.NewReader(cols).Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Empty(t, rowErrs)
	require.Len(t, records, 1)
	require.Equal(t, "row-2", records[0].SiteID)
}

func TestReader_AcceptsIntegralFloatPopulation(t *testing.T) {
	input := "school_id,student_count,pv_kw_t,bat_kw_t\nx,40.0,5,3\n"

	records, rowErrs, err := dataset.NewReader(boundColumns()).Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Empty(t, rowErrs)
	require.Equal(t, 40, records[0].Population)
}

func TestWrite_RoundsAtTheEdge(t *testing.T) {
	res := engine.SiteResult{
		SiteID:     "school-001",
		DemandTier: decimal.RequireFromString("12"),
		Capital: engine.CapitalBreakdown{
			PVCapital:      decimal.RequireFromString("6656.65"),
			BatteryCapital: decimal.RequireFromString("1759.59"),
			BOSCapital:     decimal.RequireFromString("3000"),
		},
		CapitalCost:             decimal.RequireFromString("11416.24"),
		DiscountedLifecycleCost: decimal.RequireFromString("14857.123456"),
		DiscountedEnergy:        decimal.RequireFromString("117.81776"),
		LCOE:                    decimal.RequireFromString("126.102934"),
		AnnualOpex:              decimal.RequireFromString("316.304444"),
		CO2Avoided:              decimal.RequireFromString("3.96"),
	}

	var buf bytes.Buffer
	require.NoError(t, dataset.Write(&buf, []engine.SiteResult{res}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Equal(t,
		"site_id,demand_tier,pv_capital,battery_capital,bos_capital,capital_cost,"+
			"discounted_lifecycle_cost,discounted_energy,lcoe,annual_opex,co2_avoided,warnings",
		lines[0])
	require.Equal(t,
		"school-001,12.00,6656.65,1759.59,3000.00,11416.24,14857.12,117.82,126.1029,316.30,3.96,",
		lines[1])
}

func TestWriteFile_CreatesOutputDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out", "lcoe.csv")

	require.NoError(t, dataset.WriteFile(path, nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "site_id,demand_tier")
}
