/*
batch.go - Per-site pipeline and batch drivers

PURPOSE:
  Wires the pure components (demand -> capital -> lifecycle -> lcoe, plus
  emissions) into a per-site pipeline, and iterates that pipeline over a
  whole input table. This is the only code in the package with cross-site
  scope, and it holds no shared mutable state between sites.

FAILURE BOUNDARY:
  - Data errors (bad site input, undefined per-site computation) are
    recorded against the offending site; the batch continues.
  - Config errors abort the whole run: the shared parameters are invalid
    for every site.

CONCURRENCY:
  Per-site computation depends on nothing outside its own SiteRecord and
  the immutable ParameterSet, so RunBatchParallel fans out with an errgroup
  and writes each result into its own input-index slot. Output order is
  input order by construction, not by arrival.

SEE ALSO:
  - errors.go: the ConfigError/DataError classification applied here
*/
package engine

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// =============================================================================
// PER-SITE PIPELINE
// =============================================================================

// EvaluateSite runs the full calculation pipeline for one site. Pure and
// deterministic: identical inputs produce identical results.
func EvaluateSite(rec SiteRecord, p ParameterSet) (SiteResult, error) {
	if err := rec.Validate(); err != nil {
		return SiteResult{}, err
	}

	tier := ClassifyDemand(rec.Population, p)
	capital := EstimateCapital(rec.PVCapacityKW, rec.BatteryCapacityKWh, p)

	lifecycle, err := AnnuitizeLifecycleCost(capital, p)
	if err != nil {
		return SiteResult{}, err
	}

	energy, lcoe, err := AggregateLCOE(lifecycle, tier, p)
	if err != nil {
		if u, ok := err.(*UndefinedResultError); ok {
			u.SiteID = rec.SiteID
		}
		return SiteResult{}, err
	}

	result := SiteResult{
		SiteID:                  rec.SiteID,
		DemandTier:              tier,
		Capital:                 capital,
		CapitalCost:             capital.Total(),
		DiscountedLifecycleCost: lifecycle,
		DiscountedEnergy:        energy,
		LCOE:                    lcoe,
		AnnualOpex:              AverageAnnualOpex(capital, p),
		CO2Avoided:              EstimateAvoidedCO2(tier, p),
	}

	if result.CO2Avoided.IsNegative() {
		result.Warnings = append(result.Warnings,
			"negative avoided emissions: pv emission factor exceeds diesel baseline")
	}

	return result, nil
}

// =============================================================================
// BATCH DRIVERS
// =============================================================================

// SiteFailure records a site excluded from the output and why.
type SiteFailure struct {
	Index  int // position in the input
	SiteID string
	Err    error
}

// BatchReport is the outcome of one batch run. Results are in input order
// and contain only the sites that evaluated successfully.
type BatchReport struct {
	Results  []SiteResult
	Failures []SiteFailure
}

// WarningCount returns the number of results carrying at least one warning.
func (r BatchReport) WarningCount() int {
	n := 0
	for _, res := range r.Results {
		if len(res.Warnings) > 0 {
			n++
		}
	}
	return n
}

// RunBatch evaluates every site sequentially, in input order. The shared
// parameters are validated once up front; an invalid set aborts before any
// site is processed.
func RunBatch(ctx context.Context, records []SiteRecord, p ParameterSet) (BatchReport, error) {
	if err := p.Validate(); err != nil {
		return BatchReport{}, err
	}

	var report BatchReport
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return BatchReport{}, err
		}
		result, err := EvaluateSite(rec, p)
		if err != nil {
			if IsConfigError(err) {
				return BatchReport{}, err
			}
			report.Failures = append(report.Failures, SiteFailure{Index: i, SiteID: rec.SiteID, Err: err})
			continue
		}
		report.Results = append(report.Results, result)
	}
	return report, nil
}

// RunBatchParallel evaluates sites across a bounded worker pool. Results
// are index-stamped and merged back into input order, so the output is
// identical to RunBatch for the same inputs. workers <= 0 means NumCPU.
func RunBatchParallel(ctx context.Context, records []SiteRecord, p ParameterSet, workers int) (BatchReport, error) {
	if err := p.Validate(); err != nil {
		return BatchReport{}, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]*SiteResult, len(records))
	siteErrs := make([]error, len(records))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := EvaluateSite(rec, p)
			if err != nil {
				if IsConfigError(err) {
					return err // cancels the group: fatal for every site
				}
				siteErrs[i] = err
				return nil
			}
			results[i] = &result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return BatchReport{}, err
	}

	// Merge in input order.
	var report BatchReport
	for i := range records {
		switch {
		case results[i] != nil:
			report.Results = append(report.Results, *results[i])
		case siteErrs[i] != nil:
			report.Failures = append(report.Failures, SiteFailure{
				Index:  i,
				SiteID: records[i].SiteID,
				Err:    siteErrs[i],
			})
		default:
			// Unreachable unless a worker exited without reporting.
			report.Failures = append(report.Failures, SiteFailure{
				Index:  i,
				SiteID: records[i].SiteID,
				Err:    fmt.Errorf("site %d not evaluated", i),
			})
		}
	}
	return report, nil
}
