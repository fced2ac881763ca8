// homely-price-discovery finds the hidden sold price window of a property by
// asking Homely's sold-listing search which price ranges contain it.
//
// Usage:
//
//	homely-price-discovery single --address "G01/79 Gerrale Street, Cronulla NSW 2230" --beds 3
//	homely-price-discovery batch --csv properties.csv --suburb Caringbah
//	homely-price-discovery suburbs
//	homely-price-discovery show-run 7b0e4f0a-3c1d-4a8e-9f55-2d7c1e6b9a10
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "homely-price-discovery",
	Short: "Discover hidden sold prices through Homely's price-range search",
	Long: "Narrows the hidden sold price of a property to a bracket on the price\n" +
		"ladder, then optionally to a $10,000 window, using only yes/no answers\n" +
		"from the sold-listing search.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(singleCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(suburbsCmd)
	rootCmd.AddCommand(showRunCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
