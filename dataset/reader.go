/*
Package dataset reads site records from CSV and writes site results back.

PURPOSE:
  The thin tabular-I/O collaborators around the engine. The reader binds
  configured column names to SiteRecord fields via the header row and flags
  unparseable rows as data errors without stopping the file. The writer
  emits one row per SiteResult in input order, rounding only at this edge.

ERROR MODEL:
  - A missing required column is fatal: the file cannot be interpreted.
  - A bad cell is a per-row data error: the row is reported and skipped,
    matching the engine's per-site recovery boundary.

SEE ALSO:
  - config/config.go: the column bindings consumed here
  - engine/batch.go:  the same skip-and-continue failure boundary
*/
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gridwatt/lcoe-engine/config"
	"github.com/gridwatt/lcoe-engine/engine"
)

// RowError records a row that could not be turned into a SiteRecord.
type RowError struct {
	Line int // 1-based physical line in the file (header is line 1)
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

// Reader parses site records out of a CSV stream.
type Reader struct {
	cols config.Columns
}

// NewReader creates a reader bound to the configured column names.
func NewReader(cols config.Columns) *Reader {
	return &Reader{cols: cols}
}

// ReadFile opens and parses a CSV file. See Read.
func (r *Reader) ReadFile(path string) ([]engine.SiteRecord, []RowError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input %s: %w", path, err)
	}
	defer f.Close()
	return r.Read(f)
}

// Read parses every data row. Rows with unparseable or missing required
// cells are returned as RowErrors, not as a fatal error; the caller decides
// how loudly to report them. The returned records preserve file order.
func (r *Reader) Read(src io.Reader) ([]engine.SiteRecord, []RowError, error) {
	cr := csv.NewReader(src)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	idx, err := r.bindColumns(header)
	if err != nil {
		return nil, nil, err
	}

	var (
		records []engine.SiteRecord
		rowErrs []RowError
		line    = 1
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}

		rec, err := r.parseRow(row, idx, line)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		records = append(records, rec)
	}
	return records, rowErrs, nil
}

// columnIndex holds the resolved position of each bound column.
// siteID is -1 when the input carries no ID column.
type columnIndex struct {
	siteID     int
	population int
	pvKW       int
	batKWh     int
}

func (r *Reader) bindColumns(header []string) (columnIndex, error) {
	find := func(name string) int {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
		return -1
	}

	idx := columnIndex{
		siteID:     find(r.cols.SiteID),
		population: find(r.cols.Population),
		pvKW:       find(r.cols.PVCapacityKW),
		batKWh:     find(r.cols.BatteryCapacityKWh),
	}

	// The ID column is optional (rows fall back to their position);
	// the numeric columns are not.
	for _, req := range []struct {
		name string
		pos  int
	}{
		{r.cols.Population, idx.population},
		{r.cols.PVCapacityKW, idx.pvKW},
		{r.cols.BatteryCapacityKWh, idx.batKWh},
	} {
		if req.pos < 0 {
			return columnIndex{}, fmt.Errorf("input is missing required column %q", req.name)
		}
	}
	return idx, nil
}

func (r *Reader) parseRow(row []string, idx columnIndex, line int) (engine.SiteRecord, error) {
	cell := func(i int) (string, bool) {
		if i < 0 || i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}

	siteID := fmt.Sprintf("row-%d", line)
	if v, ok := cell(idx.siteID); ok && v != "" {
		siteID = v
	}

	pop, err := parsePopulation(cell(idx.population))
	if err != nil {
		return engine.SiteRecord{}, &engine.SiteError{SiteID: siteID, Field: r.cols.Population, Reason: err.Error()}
	}
	pvKW, err := parseDecimalCell(cell(idx.pvKW))
	if err != nil {
		return engine.SiteRecord{}, &engine.SiteError{SiteID: siteID, Field: r.cols.PVCapacityKW, Reason: err.Error()}
	}
	batKWh, err := parseDecimalCell(cell(idx.batKWh))
	if err != nil {
		return engine.SiteRecord{}, &engine.SiteError{SiteID: siteID, Field: r.cols.BatteryCapacityKWh, Reason: err.Error()}
	}

	rec := engine.SiteRecord{
		SiteID:             siteID,
		Population:         pop,
		PVCapacityKW:       pvKW,
		BatteryCapacityKWh: batKWh,
	}
	if err := rec.Validate(); err != nil {
		return engine.SiteRecord{}, err
	}
	return rec, nil
}

// parsePopulation accepts integers and integral floats ("40", "40.0").
func parsePopulation(v string, ok bool) (int, error) {
	if !ok || v == "" {
		return 0, fmt.Errorf("is missing")
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("is not numeric: %q", v)
	}
	n := int(f)
	if float64(n) != f {
		return 0, fmt.Errorf("is not a whole number: %q", v)
	}
	return n, nil
}

func parseDecimalCell(v string, ok bool) (decimal.Decimal, error) {
	if !ok || v == "" {
		return decimal.Zero, fmt.Errorf("is missing")
	}
	dec, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("is not numeric: %q", v)
	}
	return dec, nil
}
