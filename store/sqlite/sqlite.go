/*
Package sqlite persists batch runs and their per-site results.

PURPOSE:
  Append-only run history for the LCOE engine. Each batch execution is one
  row in `runs`; every successfully evaluated site is one row in
  `site_results`, keyed by its input index so stored results replay in
  input order.

APPEND-ONLY ENFORCEMENT:
  - site_results rows are inserted once and never updated or deleted
  - the only UPDATE in the package stamps a run's completion counters

DECIMAL STORAGE:
  All money/energy columns are TEXT holding exact decimal strings. SQLite
  REAL would reintroduce the float rounding the engine avoids.

WAL MODE:
  Opened with WAL for better concurrency: readers don't block the single
  writer, and crash recovery is cleaner.

USAGE:
  store, err := sqlite.New("./data/lcoe.db")   // or ":memory:" in tests
  defer store.Close()
  run, _ := store.CreateRun(ctx, digest)
  _ = store.AppendResults(ctx, run.ID, report.Results)
  _ = store.FinishRun(ctx, run.ID, len(report.Results), len(report.Failures))

SEE ALSO:
  - engine/batch.go: produces the BatchReport persisted here
  - api/handlers.go: serves stored runs over HTTP
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/gridwatt/lcoe-engine/engine"
)

// ErrRunNotFound is returned when a referenced run doesn't exist.
var ErrRunNotFound = errors.New("run not found")

// Run is one batch execution's metadata.
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   *time.Time
	ConfigDigest string
	SiteCount    int
	FailureCount int
}

// Store persists runs and site results using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a store backed by the database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Batch executions
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		config_digest TEXT,
		site_count INTEGER NOT NULL DEFAULT 0,
		failure_count INTEGER NOT NULL DEFAULT 0
	);

	-- Per-site outputs (append-only); input_index preserves input order
	CREATE TABLE IF NOT EXISTS site_results (
		run_id TEXT NOT NULL,
		input_index INTEGER NOT NULL,
		site_id TEXT NOT NULL,
		demand_tier TEXT NOT NULL,
		pv_capital TEXT NOT NULL,
		battery_capital TEXT NOT NULL,
		bos_capital TEXT NOT NULL,
		capital_cost TEXT NOT NULL,
		discounted_lifecycle_cost TEXT NOT NULL,
		discounted_energy TEXT NOT NULL,
		lcoe TEXT NOT NULL,
		annual_opex TEXT NOT NULL,
		co2_avoided TEXT NOT NULL,
		warnings TEXT,
		PRIMARY KEY (run_id, input_index),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_site_results_run
		ON site_results(run_id);
	CREATE INDEX IF NOT EXISTS idx_site_results_site
		ON site_results(site_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RUNS
// =============================================================================

// CreateRun opens a new run record.
func (s *Store) CreateRun(ctx context.Context, configDigest string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run := &Run{
		ID:           fmt.Sprintf("run-%d", time.Now().UnixNano()),
		StartedAt:    time.Now().UTC(),
		ConfigDigest: configDigest,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, config_digest) VALUES (?, ?, ?)`,
		run.ID, run.StartedAt.Format(time.RFC3339Nano), run.ConfigDigest)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// FinishRun stamps a run's completion time and counters.
func (s *Store) FinishRun(ctx context.Context, runID string, siteCount, failureCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, site_count = ?, failure_count = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), siteCount, failureCount, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// GetRun returns one run's metadata.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, config_digest, site_count, failure_count
		 FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return run, err
}

// ListRuns returns all runs, most recent first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, config_digest, site_count, failure_count
		 FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run        Run
		startedAt  string
		finishedAt sql.NullString
	)
	if err := row.Scan(&run.ID, &startedAt, &finishedAt, &run.ConfigDigest,
		&run.SiteCount, &run.FailureCount); err != nil {
		return nil, err
	}

	var err error
	run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if finishedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		run.FinishedAt = &t
	}
	return &run, nil
}

// =============================================================================
// SITE RESULTS
// =============================================================================

// AppendResults inserts every result atomically, stamped with its input
// index. Either all rows are written or none.
func (s *Store) AppendResults(ctx context.Context, runID string, results []engine.SiteResult) error {
	if len(results) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO site_results (
			run_id, input_index, site_id, demand_tier,
			pv_capital, battery_capital, bos_capital, capital_cost,
			discounted_lifecycle_cost, discounted_energy, lcoe,
			annual_opex, co2_avoided, warnings
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, res := range results {
		_, err := stmt.ExecContext(ctx,
			runID, i, res.SiteID, res.DemandTier.String(),
			res.Capital.PVCapital.String(),
			res.Capital.BatteryCapital.String(),
			res.Capital.BOSCapital.String(),
			res.CapitalCost.String(),
			res.DiscountedLifecycleCost.String(),
			res.DiscountedEnergy.String(),
			res.LCOE.String(),
			res.AnnualOpex.String(),
			res.CO2Avoided.String(),
			strings.Join(res.Warnings, "; "),
		)
		if err != nil {
			return fmt.Errorf("append result for site %s: %w", res.SiteID, err)
		}
	}
	return tx.Commit()
}

// LoadResults returns a run's results in input order.
func (s *Store) LoadResults(ctx context.Context, runID string) ([]engine.SiteResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT site_id, demand_tier,
		       pv_capital, battery_capital, bos_capital, capital_cost,
		       discounted_lifecycle_cost, discounted_energy, lcoe,
		       annual_opex, co2_avoided, warnings
		FROM site_results WHERE run_id = ? ORDER BY input_index ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []engine.SiteResult
	for rows.Next() {
		var (
			res      engine.SiteResult
			warnings string
			fields   = make([]string, 10)
		)
		if err := rows.Scan(&res.SiteID, &fields[0],
			&fields[1], &fields[2], &fields[3], &fields[4],
			&fields[5], &fields[6], &fields[7],
			&fields[8], &fields[9], &warnings); err != nil {
			return nil, err
		}

		decs := make([]decimal.Decimal, len(fields))
		for i, f := range fields {
			var err error
			decs[i], err = decimal.NewFromString(f)
			if err != nil {
				return nil, fmt.Errorf("corrupt decimal column for site %s: %w", res.SiteID, err)
			}
		}
		res.DemandTier = decs[0]
		res.Capital = engine.CapitalBreakdown{
			PVCapital:      decs[1],
			BatteryCapital: decs[2],
			BOSCapital:     decs[3],
		}
		res.CapitalCost = decs[4]
		res.DiscountedLifecycleCost = decs[5]
		res.DiscountedEnergy = decs[6]
		res.LCOE = decs[7]
		res.AnnualOpex = decs[8]
		res.CO2Avoided = decs[9]
		if warnings != "" {
			res.Warnings = strings.Split(warnings, "; ")
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
