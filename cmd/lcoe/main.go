/*
main.go - Application entry point

PURPOSE:
  Runs the LCOE engine either as a one-shot batch over a CSV file or as an
  HTTP service.

MODES:
  Batch (default):
    Load config -> read input CSV -> evaluate every site -> write output
    CSV. A config error aborts before any output; per-site data errors are
    logged and the batch continues. With -db set, the run and its results
    are also persisted.

  Serve (-serve):
    Starts the chi HTTP server with graceful shutdown.

COMMAND-LINE FLAGS:
  -config   Configuration YAML (default: config.yaml)
  -in       Input CSV, overrides the config's input path
  -out      Output CSV, overrides the config's output path
  -workers  Batch parallelism (default: 0 = NumCPU)
  -db       SQLite database path ("" disables persistence in batch mode;
            ":memory:" works for throwaway serving)
  -serve    Run the HTTP server instead of a batch
  -port     HTTP server port (default: 8080)

EXAMPLES:
  # One-shot batch
  ./lcoe -config=config.yaml

  # Batch with explicit files and run history
  ./lcoe -config=config.yaml -in=schools.csv -out=lcoe.csv -db=./data/lcoe.db

  # HTTP service
  ./lcoe -serve -config=config.yaml -db=./data/lcoe.db -port=3000

SEE ALSO:
  - api/server.go: router configuration
  - engine/batch.go: the batch drivers invoked here
*/
package main

import (
	"context"
	"crypto/sha256"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gridwatt/lcoe-engine/api"
	"github.com/gridwatt/lcoe-engine/config"
	"github.com/gridwatt/lcoe-engine/dataset"
	"github.com/gridwatt/lcoe-engine/engine"
	"github.com/gridwatt/lcoe-engine/metrics"
	"github.com/gridwatt/lcoe-engine/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "config.yaml", "configuration YAML path")
	inPath := flag.String("in", "", "input CSV (overrides config)")
	outPath := flag.String("out", "", "output CSV (overrides config)")
	workers := flag.Int("workers", 0, "batch parallelism (0 = NumCPU)")
	dbPath := flag.String("db", "", "SQLite database path (empty disables persistence)")
	serve := flag.Bool("serve", false, "run the HTTP server instead of a batch")
	port := flag.Int("port", 8080, "HTTP server port")
	flag.Parse()

	doc, err := config.Load(*configPath)
	if err != nil {
		// A config error is fatal before any site is touched.
		log.Fatalf("Configuration rejected: %v", err)
	}
	params, err := doc.ParameterSet()
	if err != nil {
		log.Fatalf("Configuration rejected: %v", err)
	}

	if *serve {
		runServer(doc, params, *dbPath, *port, *workers)
		return
	}
	runBatch(doc, params, *inPath, *outPath, *dbPath, *workers)
}

// =============================================================================
// BATCH MODE
// =============================================================================

func runBatch(doc *config.Document, params engine.ParameterSet, inPath, outPath, dbPath string, workers int) {
	if inPath == "" {
		inPath = doc.Input.File()
	}
	if outPath == "" {
		outPath = doc.Output.File()
	}
	if inPath == "" || outPath == "" {
		log.Fatal("No input/output files: set them in the config or via -in/-out")
	}

	records, rowErrs, err := dataset.NewReader(doc.DataColumns).ReadFile(inPath)
	if err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}
	for _, re := range rowErrs {
		log.Printf("Skipping input row %d: %v", re.Line, re.Err)
	}
	log.Printf("Loaded %d site records from %s", len(records), inPath)

	if engine.EmissionsAnomalous(params) {
		log.Printf("Warning: pv emission factor exceeds diesel baseline; avoided CO2 will be negative")
	}

	start := time.Now()
	report, err := engine.RunBatchParallel(context.Background(), records, params, workers)
	if err != nil {
		log.Fatalf("Batch aborted: %v", err)
	}

	for _, f := range report.Failures {
		log.Printf("Site %q excluded: %v", f.SiteID, f.Err)
	}

	if err := dataset.WriteFile(outPath, report.Results); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}

	if dbPath != "" {
		if err := persistRun(doc, report, dbPath); err != nil {
			log.Fatalf("Failed to persist run: %v", err)
		}
	}

	log.Printf("Wrote %d results to %s (%d excluded, %d warnings, %s elapsed)",
		len(report.Results), outPath, len(report.Failures)+len(rowErrs),
		report.WarningCount(), time.Since(start).Round(time.Millisecond))
}

func persistRun(doc *config.Document, report engine.BatchReport, dbPath string) error {
	store, err := sqlite.New(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	run, err := store.CreateRun(ctx, configDigest(doc))
	if err != nil {
		return err
	}
	if err := store.AppendResults(ctx, run.ID, report.Results); err != nil {
		return err
	}
	if err := store.FinishRun(ctx, run.ID, len(report.Results), len(report.Failures)); err != nil {
		return err
	}
	log.Printf("Persisted run %s to %s", run.ID, dbPath)
	return nil
}

// configDigest fingerprints the loaded parameters so stored runs can be
// traced back to the configuration that produced them.
func configDigest(doc *config.Document) string {
	params, err := doc.ParameterSet()
	if err != nil {
		return ""
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%+v", params)))
	return fmt.Sprintf("%x", sum[:8])
}

// =============================================================================
// SERVE MODE
// =============================================================================

func runServer(doc *config.Document, params engine.ParameterSet, dbPath string, port, workers int) {
	if dbPath == "" {
		dbPath = "lcoe.db"
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	handler := api.NewHandler(store, params, metrics.NewCollector("lcoe"))
	handler.Workers = workers
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%d", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
