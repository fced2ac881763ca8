package models

import (
	"fmt"
	"strings"
	"time"
)

// InputRow holds one unvalidated batch record as read from the input CSV.
// Cleaning turns it into a PropertyQuery.
type InputRow struct {
	Line      int
	Address   string
	Bedrooms  string
	Bathrooms string
	Carspaces string

	// Spilled is set when an unquoted address was rebuilt from extra fields.
	Spilled bool
}

// SearchFilters narrows the oracle search. A zero count means unconstrained.
type SearchFilters struct {
	Bedrooms  int
	Bathrooms int
	Carspaces int
}

// String renders the filters the way batch status lines show them.
func (f SearchFilters) String() string {
	return fmt.Sprintf("Beds: %s, Baths: %s, Cars: %s",
		countOrAny(f.Bedrooms), countOrAny(f.Bathrooms), countOrAny(f.Carspaces))
}

func countOrAny(n int) string {
	if n <= 0 {
		return "any"
	}
	return fmt.Sprintf("%d", n)
}

// Suburb is one entry of the suburb scope table.
type Suburb struct {
	Name string `yaml:"name"`
	ID   int    `yaml:"id"`
}

// PropertyQuery is a single discovery request. It is read-only once built.
type PropertyQuery struct {
	Address    string
	Suburb     Suburb
	Filters    SearchFilters
	MaxResults int
}

// NormalizedAddress is the case-folded, trimmed target used for matching.
func (q *PropertyQuery) NormalizedAddress() string {
	return NormalizeAddress(q.Address)
}

// NormalizeAddress lower-cases and trims a display address.
func NormalizeAddress(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Bracket is a price interval believed to contain the sold price.
type Bracket struct {
	MinPrice int
	MaxPrice int
}

func (b Bracket) Width() int { return b.MaxPrice - b.MinPrice }

// DiscoveryResult is the outcome of one property's discovery run.
type DiscoveryResult struct {
	Address string
	Suburb  string
	Found   bool
	Exact   bool
	Bracket Bracket
	Calls   int
	Message string
	Cached  bool

	// RefineRequested records whether a $10,000 window was asked for.
	RefineRequested bool

	// Degraded counts probes whose answer was "not observed" only because
	// the oracle faulted on at least one page.
	Degraded int

	FinishedAt time.Time
}

// ProgressEvent is emitted by the discovery driver and batch runner.
// It carries no control-flow meaning.
type ProgressEvent struct {
	Stage   string
	Message string
	Index   int
	Total   int
}

// BatchSummary is derived from a result list; see Summarize.
type BatchSummary struct {
	Total        int
	Found        int
	Exact        int
	TotalCalls   int
	AverageCalls float64
	Degraded     int
}

// Summarize computes the batch statistics over results.
func Summarize(results []*DiscoveryResult) BatchSummary {
	var s BatchSummary
	s.Total = len(results)
	for _, r := range results {
		if r.Found {
			s.Found++
		}
		if r.Exact {
			s.Exact++
		}
		s.TotalCalls += r.Calls
		s.Degraded += r.Degraded
	}
	if s.Total > 0 {
		s.AverageCalls = float64(s.TotalCalls) / float64(s.Total)
	}
	return s
}
