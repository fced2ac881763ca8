package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"homely-price-discovery/config"
	"homely-price-discovery/services"
)

var suburbsCmd = &cobra.Command{
	Use:   "suburbs",
	Short: "List the suburbs and price ladder searches run against",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return printMarket(cmd.OutOrStdout(), a.market)
	},
}

func printMarket(w io.Writer, m *config.Market) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SUBURB\tLOCATION ID")
	for _, s := range m.Suburbs {
		fmt.Fprintf(tw, "%s\t%d\n", s.Name, s.ID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nPrice ladder: %d points, %s to %s\n", m.Ladder.Len(),
		services.FormatDollars(m.Ladder.First()), services.FormatDollars(m.Ladder.Last()))
	return nil
}
