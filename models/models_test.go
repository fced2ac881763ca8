package models

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewPriceLadder(t *testing.T) {
	tests := map[string]struct {
		points  []int
		wantErr bool
	}{
		"valid":      {[]int{100, 200, 400}, false},
		"single":     {[]int{100}, true},
		"empty":      {nil, true},
		"duplicate":  {[]int{100, 200, 200}, true},
		"descending": {[]int{300, 200}, true},
	}
	for name, tt := range tests {
		_, err := NewPriceLadder(tt.points)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v, wantErr %v", name, err, tt.wantErr)
		}
	}
}

func TestPriceLadderCopiesInput(t *testing.T) {
	in := []int{100, 200, 300}
	l := MustPriceLadder(in)
	in[0] = 999
	pts := l.Points()
	pts[1] = 999

	if l.First() != 100 || l.At(1) != 200 || l.Last() != 300 || l.Len() != 3 {
		t.Errorf("ladder mutated: %v", l.Points())
	}
	if !l.Contains(200) || l.Contains(250) {
		t.Error("Contains mismatch")
	}
	if !(PriceLadder{}).IsZero() || l.IsZero() {
		t.Error("IsZero mismatch")
	}
}

func TestSummarize(t *testing.T) {
	results := []*DiscoveryResult{
		{Found: true, Exact: true, Calls: 15},
		{Found: true, Calls: 11, Degraded: 2},
		{Calls: 1},
		{Calls: 1, Degraded: 1},
	}
	want := BatchSummary{Total: 4, Found: 2, Exact: 1, TotalCalls: 28, AverageCalls: 7, Degraded: 3}
	if diff := cmp.Diff(want, Summarize(results)); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(BatchSummary{}, Summarize(nil)); diff != "" {
		t.Errorf("empty summary mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordStrings(t *testing.T) {
	found := &DiscoveryResult{
		Address: "1 A St", Suburb: "Cronulla", Found: true,
		Bracket: Bracket{MinPrice: 1100000, MaxPrice: 1200000}, Calls: 11,
	}
	missing := &DiscoveryResult{Address: "2 B St", Suburb: "Cronulla", Calls: 1}

	tests := []struct {
		name string
		in   *DiscoveryResult
		want []string
	}{
		{"found", found, []string{"1 A St", "Cronulla", "true", "false", "", "1100000", "1200000", "100000", "11", "0", ""}},
		{"not found after refine request", &DiscoveryResult{Address: "3 C St", Suburb: "Cronulla", Calls: 1, RefineRequested: true, Message: "Property not found"},
			[]string{"3 C St", "Cronulla", "false", "true", "", "", "", "", "1", "0", "Property not found"}},
		{"coarse found ignores request", &DiscoveryResult{Address: "4 D St", Suburb: "Cronulla", Found: true, RefineRequested: true,
			Bracket: Bracket{MinPrice: 1100000, MaxPrice: 1105000}, Calls: 11},
			[]string{"4 D St", "Cronulla", "true", "false", "", "1100000", "1105000", "5000", "11", "0", ""}},
		{"not found", missing, []string{"2 B St", "Cronulla", "false", "false", "", "", "", "", "1", "0", "Not found"}},
	}
	for _, tt := range tests {
		got := tt.in.Record().Strings()
		if len(got) != len(ResultRecordHeader) {
			t.Fatalf("%s: %d columns, header has %d", tt.name, len(got), len(ResultRecordHeader))
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%s: row mismatch (-want +got):\n%s", tt.name, diff)
		}
	}
}

func TestSearchFiltersString(t *testing.T) {
	got := SearchFilters{Bedrooms: 3, Carspaces: 2}.String()
	if got != "Beds: 3, Baths: any, Cars: 2" {
		t.Errorf("String: got %q", got)
	}
}
