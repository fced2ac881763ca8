package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"homely-price-discovery/models"
	"homely-price-discovery/services"
	"homely-price-discovery/storage"
)

var showRunFlags struct {
	out string
}

var showRunCmd = &cobra.Command{
	Use:   "show-run <run-id>",
	Short: "Print a batch run stored in PostgreSQL",
	Long: `Load the results a batch stored under a run ID and print the batch report.
With --out the results are also exported to CSV.`,
	Args: cobra.ExactArgs(1),
	RunE: runShowRun,
}

func init() {
	showRunCmd.Flags().StringVarP(&showRunFlags.out, "out", "o", "", "Also export the run to this CSV path")
}

func runShowRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pw, err := storage.NewPostgresWriter(ctx, a.cfg.DSN(), a.retry())
	if err != nil {
		return err
	}
	defer pw.Close()

	results, err := pw.FetchRun(ctx, args[0])
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no results stored for run %s", args[0])
	}

	if showRunFlags.out != "" {
		w, err := storage.NewCSVWriter(showRunFlags.out)
		if err != nil {
			return err
		}
		if err := exportResults(w, results); err != nil {
			return err
		}
		a.logger.Info("[show-run] %d results saved to %s", len(results), showRunFlags.out)
	}

	services.NewReporter(cmd.OutOrStdout()).PrintBatch(results)
	return nil
}

// exportResults writes results through w and closes it.
func exportResults(w storage.ResultWriter, results []*models.DiscoveryResult) error {
	if err := w.Write(results); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
