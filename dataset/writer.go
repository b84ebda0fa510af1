package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gridwatt/lcoe-engine/engine"
)

// Output column order. Money columns round to 2 decimal places, LCOE to 4;
// the engine keeps exact values, rounding happens only here.
var outputHeader = []string{
	"site_id",
	"demand_tier",
	"pv_capital",
	"battery_capital",
	"bos_capital",
	"capital_cost",
	"discounted_lifecycle_cost",
	"discounted_energy",
	"lcoe",
	"annual_opex",
	"co2_avoided",
	"warnings",
}

// WriteFile writes results as CSV, creating the output directory first.
func WriteFile(path string, results []engine.SiteResult) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output %s: %w", path, err)
	}
	defer f.Close()

	if err := Write(f, results); err != nil {
		return err
	}
	return f.Close()
}

// Write emits the header plus one row per result, in the order given.
func Write(dst io.Writer, results []engine.SiteResult) error {
	cw := csv.NewWriter(dst)

	if err := cw.Write(outputHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, res := range results {
		row := []string{
			res.SiteID,
			res.DemandTier.StringFixed(2),
			res.Capital.PVCapital.StringFixed(2),
			res.Capital.BatteryCapital.StringFixed(2),
			res.Capital.BOSCapital.StringFixed(2),
			res.CapitalCost.StringFixed(2),
			res.DiscountedLifecycleCost.StringFixed(2),
			res.DiscountedEnergy.StringFixed(2),
			res.LCOE.StringFixed(4),
			res.AnnualOpex.StringFixed(2),
			res.CO2Avoided.StringFixed(2),
			strings.Join(res.Warnings, "; "),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row for site %s: %w", res.SiteID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
