package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"homely-price-discovery/config"
	"homely-price-discovery/services"
	"homely-price-discovery/storage"
)

var batchFlags struct {
	csvPath    string
	suburb     string
	out        string
	refine     bool
	maxResults int
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Discover price brackets for every property in a CSV file",
	Long: `Read properties from a CSV file with the header
address,bedrooms,bathrooms,carspaces and run discovery for each one in order.

Results are written to a CSV file (default: $OUTPUT_DIR/price_discovery_<Suburb><timestamp>.csv)
and, when PERSIST_RESULTS is set, to PostgreSQL under a fresh run ID.`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.StringVarP(&batchFlags.csvPath, "csv", "f", "", "Input CSV path (required)")
	f.StringVarP(&batchFlags.suburb, "suburb", "s", config.DefaultSuburb, "Suburb all properties are searched in")
	f.StringVarP(&batchFlags.out, "out", "o", "", "Result CSV path")
	f.BoolVar(&batchFlags.refine, "refine", true, "Refine each bracket to a $10,000 window")
	f.IntVar(&batchFlags.maxResults, "max-results", 0, "Listings scanned per search, 100-1000 (default: $MAX_RESULTS or 500)")
}

func runBatch(cmd *cobra.Command, _ []string) error {
	if batchFlags.csvPath == "" {
		return errors.New("--csv is required")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	maxResults := batchFlags.maxResults
	if maxResults == 0 {
		maxResults = a.cfg.MaxResults
	}
	if err := validateMaxResults(maxResults); err != nil {
		return err
	}
	suburb, err := resolveSuburb(a.market, batchFlags.suburb)
	if err != nil {
		return err
	}

	rows, err := storage.ReadInputFile(batchFlags.csvPath)
	if err != nil {
		return err
	}
	queries, warnings := services.NewCleaner(a.logger).Clean(rows, suburb, maxResults)
	for _, w := range warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), w)
	}
	if len(queries) == 0 {
		return errors.New("no valid properties in input file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, err := a.runWriter(ctx)
	if err != nil {
		return err
	}

	out := batchFlags.out
	if out == "" {
		out = filepath.Join(a.cfg.OutputDir, storage.ResultFileName(suburb.Name, time.Now()))
	}
	csvWriter, err := storage.NewCSVWriter(out)
	if err != nil {
		return err
	}

	a.logger.Info("[batch] %d properties in %s", len(queries), suburb.Name)
	runner := services.NewBatchRunner(a.discoverer(ctx), a.cfg.BatchDelay, a.logger)
	results, runErr := runner.Run(ctx, queries, batchFlags.refine, a.progressLogger())

	// Partial results from an interrupted run are still exported.
	if err := exportResults(csvWriter, results); err != nil {
		return err
	}
	a.logger.Info("[batch] results saved to %s", csvWriter.Path())

	if sink != nil {
		runID := storage.NewRunID()
		if err := sink.WriteRun(context.Background(), runID, results); err != nil {
			a.logger.Error("[batch] PostgreSQL write failed: %v", err)
		} else {
			a.logger.Info("[batch] stored %d results under run %s (view with: show-run %s)", len(results), runID, runID)
		}
	}

	services.NewReporter(cmd.OutOrStdout()).PrintBatch(results)
	return runErr
}
