package services

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"homely-price-discovery/models"
)

// Reporter renders discovery results for a terminal.
type Reporter struct {
	w io.Writer
}

func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// PrintResult renders a single-property result.
func (r *Reporter) PrintResult(res *models.DiscoveryResult) {
	if !res.Found {
		fmt.Fprintf(r.w, "\n\033[1;31m  Property not found with the given address/filters.\033[0m\n")
		fmt.Fprintf(r.w, "  Try loosening filters or double-checking the address.\n")
		if res.Message != "" {
			fmt.Fprintf(r.w, "  %s\n", res.Message)
		}
		fmt.Fprintf(r.w, "  API queries: %d\n\n", res.Calls)
		return
	}

	label := "Discovered price bracket"
	if res.Exact {
		label = "10K PRICE WINDOW"
	}
	fmt.Fprintf(r.w, "\n\033[1;32m  %s: %s - %s\033[0m\n", label,
		FormatDollars(res.Bracket.MinPrice), FormatDollars(res.Bracket.MaxPrice))
	fmt.Fprintf(r.w, "  Suburb: %s  |  Bracket width: %s  |  API queries: %d\n",
		res.Suburb, FormatDollars(res.Bracket.Width()), res.Calls)
	if res.Degraded > 0 {
		fmt.Fprintf(r.w, "\033[33m  %d probe(s) degraded by oracle faults; the bracket may be wider than the truth.\033[0m\n", res.Degraded)
	}
	if res.Cached {
		fmt.Fprintf(r.w, "  (cached result)\n")
	}
	fmt.Fprintln(r.w)
}

// PrintBatch renders the results table and summary for a batch run.
func (r *Reporter) PrintBatch(results []*models.DiscoveryResult) {
	sep := strings.Repeat("═", 72)
	thin := strings.Repeat("─", 72)
	s := models.Summarize(results)

	fmt.Fprintf(r.w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(r.w, "\033[1;35m  📊 PRICE DISCOVERY RESULTS\033[0m\n")
	fmt.Fprintf(r.w, "\033[1;35m%s\033[0m\n\n", sep)

	if len(results) == 0 {
		fmt.Fprintf(r.w, "  No properties processed\n")
	}
	for i, res := range results {
		addr := truncate(res.Address, 40)
		if res.Found {
			fmt.Fprintf(r.w, "  \033[1m%d.\033[0m %-40s \033[1;32m%s - %s\033[0m (%d)\n",
				i+1, addr, FormatDollars(res.Bracket.MinPrice), FormatDollars(res.Bracket.MaxPrice), res.Calls)
		} else {
			fmt.Fprintf(r.w, "  \033[1m%d.\033[0m %-40s \033[1;31mnot found\033[0m (%d)\n", i+1, addr, res.Calls)
		}
	}
	fmt.Fprintln(r.w)

	fmt.Fprintf(r.w, "\033[1;33m  Summary\033[0m\n")
	fmt.Fprintf(r.w, "  %s\n", thin)
	fmt.Fprintf(r.w, "  Properties        : \033[1m%d\033[0m\n", s.Total)
	fmt.Fprintf(r.w, "  Found             : \033[1m%d\033[0m (%d refined to 10K)\n", s.Found, s.Exact)
	fmt.Fprintf(r.w, "  Total API queries : \033[1m%d\033[0m\n", s.TotalCalls)
	fmt.Fprintf(r.w, "  Average per prop. : \033[1m%.1f\033[0m\n", s.AverageCalls)
	if s.Degraded > 0 {
		fmt.Fprintf(r.w, "  Degraded probes   : \033[1;33m%d\033[0m\n", s.Degraded)
	}
	fmt.Fprintf(r.w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

// FormatDollars renders n as $1,234,567.
func FormatDollars(n int) string {
	neg := n < 0
	if neg {
		n = -n
	}
	digits := strconv.Itoa(n)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
