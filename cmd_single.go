package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"homely-price-discovery/config"
	"homely-price-discovery/models"
	"homely-price-discovery/services"
)

var singleFlags struct {
	address    string
	suburb     string
	beds       int
	baths      int
	cars       int
	refine     bool
	maxResults int
}

var singleCmd = &cobra.Command{
	Use:   "single",
	Short: "Discover the price bracket of one property",
	Long: `Run the existence check and ladder bracket search for one property,
then refine the bracket to a $10,000 window unless --refine=false.

Filters of 0 match any number of bedrooms, bathrooms or car spaces.`,
	Args: cobra.NoArgs,
	RunE: runSingle,
}

func init() {
	f := singleCmd.Flags()
	f.StringVarP(&singleFlags.address, "address", "a", "", "Full property address as listed (required)")
	f.StringVarP(&singleFlags.suburb, "suburb", "s", config.DefaultSuburb, "Suburb to search in")
	f.IntVar(&singleFlags.beds, "beds", 0, "Bedrooms (0 = any)")
	f.IntVar(&singleFlags.baths, "baths", 0, "Bathrooms (0 = any)")
	f.IntVar(&singleFlags.cars, "cars", 0, "Car spaces (0 = any)")
	f.BoolVar(&singleFlags.refine, "refine", true, "Refine the bracket to a $10,000 window")
	f.IntVar(&singleFlags.maxResults, "max-results", 0, "Listings scanned per search, 100-1000 (default: $MAX_RESULTS or 500)")
}

func runSingle(cmd *cobra.Command, _ []string) error {
	address := strings.TrimSpace(singleFlags.address)
	if address == "" {
		return errors.New("--address is required")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	q, err := buildQuery(a, address, singleFlags.suburb, models.SearchFilters{
		Bedrooms:  singleFlags.beds,
		Bathrooms: singleFlags.baths,
		Carspaces: singleFlags.cars,
	}, singleFlags.maxResults)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := a.discoverer(ctx)
	res := d.Discover(ctx, q, singleFlags.refine, a.progressLogger())
	services.NewReporter(cmd.OutOrStdout()).PrintResult(res)
	return ctx.Err()
}

func buildQuery(a *app, address, suburbName string, filters models.SearchFilters, maxResults int) (*models.PropertyQuery, error) {
	if maxResults == 0 {
		maxResults = a.cfg.MaxResults
	}
	if err := validateMaxResults(maxResults); err != nil {
		return nil, err
	}
	suburb, err := resolveSuburb(a.market, suburbName)
	if err != nil {
		return nil, err
	}
	return &models.PropertyQuery{
		Address:    address,
		Suburb:     suburb,
		Filters:    filters,
		MaxResults: maxResults,
	}, nil
}
