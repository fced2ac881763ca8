package services

import (
	"context"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"homely-price-discovery/config"
	"homely-price-discovery/models"
	"homely-price-discovery/oracle"
	"homely-price-discovery/utils"
)

func newTestLogger() *utils.Logger { return utils.NewDiscardLogger() }

// hiddenPrice answers true iff p lies in the probed range.
func hiddenPrice(p int) oracle.Func {
	return func(_ context.Context, _ *models.PropertyQuery, minPrice, maxPrice int) (bool, error) {
		return minPrice <= p && p <= maxPrice, nil
	}
}

// countingOracle records every probe made through it.
type countingOracle struct {
	inner  oracle.Oracle
	mu     sync.Mutex
	probes [][2]int
}

func (c *countingOracle) Contains(ctx context.Context, q *models.PropertyQuery, minPrice, maxPrice int) (bool, error) {
	c.mu.Lock()
	c.probes = append(c.probes, [2]int{minPrice, maxPrice})
	c.mu.Unlock()
	return c.inner.Contains(ctx, q, minPrice, maxPrice)
}

func (c *countingOracle) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.probes)
}

func sampleQuery(address string) *models.PropertyQuery {
	return &models.PropertyQuery{
		Address:    address,
		Suburb:     models.Suburb{Name: "Cronulla", ID: 5710793},
		MaxResults: 500,
	}
}

func ladder() models.PriceLadder { return config.DefaultMarket().Ladder }

func TestBracketScenarioHiddenPrice(t *testing.T) {
	o := &countingOracle{inner: hiddenPrice(1150000)}
	s := NewBracketSearcher(o, ladder(), newTestLogger())

	out := s.Find(context.Background(), sampleQuery("G01/79 Gerrale Street"), nil)
	if !out.Found {
		t.Fatal("expected found")
	}
	want := models.Bracket{MinPrice: 1100000, MaxPrice: 1200000}
	if diff := cmp.Diff(want, out.Bracket); diff != "" {
		t.Errorf("bracket mismatch (-want +got):\n%s", diff)
	}
	if out.Calls != 11 {
		t.Errorf("Calls: got %d, want 11", out.Calls)
	}
	if out.Calls != o.calls() {
		t.Errorf("reported calls %d != oracle calls %d", out.Calls, o.calls())
	}
}

func TestBracketNotFoundCostsOneCall(t *testing.T) {
	o := &countingOracle{inner: oracle.Func(func(context.Context, *models.PropertyQuery, int, int) (bool, error) {
		return false, nil
	})}
	s := NewBracketSearcher(o, ladder(), newTestLogger())

	out := s.Find(context.Background(), sampleQuery("nowhere"), nil)
	if out.Found {
		t.Error("expected not found")
	}
	if out.Calls != 1 || o.calls() != 1 {
		t.Errorf("Calls: got %d (oracle %d), want 1", out.Calls, o.calls())
	}
	if diff := cmp.Diff([][2]int{{200000, 10000000}}, o.probes); diff != "" {
		t.Errorf("existence probe mismatch (-want +got):\n%s", diff)
	}
}

func TestBracketContainsHiddenPriceAcrossLadder(t *testing.T) {
	l := ladder()
	maxCalls := 1 + 2*int(math.Ceil(math.Log2(float64(l.Len()+1))))

	for p := l.First(); p <= l.Last(); p += 37000 {
		s := NewBracketSearcher(hiddenPrice(p), l, newTestLogger())
		out := s.Find(context.Background(), sampleQuery("x"), nil)
		if !out.Found {
			t.Fatalf("p=%d: expected found", p)
		}
		b := out.Bracket
		if !(b.MinPrice <= p && p <= b.MaxPrice) {
			t.Errorf("p=%d: bracket [%d, %d] does not contain price", p, b.MinPrice, b.MaxPrice)
		}
		if !l.Contains(b.MinPrice) || !l.Contains(b.MaxPrice) {
			t.Errorf("p=%d: bracket [%d, %d] not drawn from ladder", p, b.MinPrice, b.MaxPrice)
		}
		if out.Calls > maxCalls {
			t.Errorf("p=%d: %d calls exceeds bound %d", p, out.Calls, maxCalls)
		}
	}
}

func TestBracketOnLadderPointIsDegenerate(t *testing.T) {
	s := NewBracketSearcher(hiddenPrice(1000000), ladder(), newTestLogger())
	out := s.Find(context.Background(), sampleQuery("x"), nil)
	if out.Bracket.MinPrice != 1000000 || out.Bracket.MaxPrice != 1000000 {
		t.Errorf("bracket: got %+v, want [1000000, 1000000]", out.Bracket)
	}
}

func TestBracketEndpointsFallBack(t *testing.T) {
	// Only the full-span probe is ever observed.
	l := ladder()
	o := oracle.Func(func(_ context.Context, _ *models.PropertyQuery, minPrice, maxPrice int) (bool, error) {
		return minPrice == l.First() && maxPrice == l.Last(), nil
	})
	s := NewBracketSearcher(o, l, newTestLogger())
	out := s.Find(context.Background(), sampleQuery("x"), nil)
	if !out.Found {
		t.Fatal("expected found")
	}
	want := models.Bracket{MinPrice: l.First(), MaxPrice: l.Last()}
	if diff := cmp.Diff(want, out.Bracket); diff != "" {
		t.Errorf("bracket mismatch (-want +got):\n%s", diff)
	}
}

func TestBracketIsIdempotent(t *testing.T) {
	s := NewBracketSearcher(hiddenPrice(2345678), ladder(), newTestLogger())
	a := s.Find(context.Background(), sampleQuery("x"), nil)
	b := s.Find(context.Background(), sampleQuery("x"), nil)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
}

func TestBracketDegradedProbesCounted(t *testing.T) {
	o := oracle.Func(func(context.Context, *models.PropertyQuery, int, int) (bool, error) {
		return false, &oracle.Fault{Kind: oracle.FaultTimeout, Pages: 1}
	})
	s := NewBracketSearcher(o, ladder(), newTestLogger())
	out := s.Find(context.Background(), sampleQuery("x"), nil)
	if out.Found || out.Calls != 1 || out.Degraded != 1 {
		t.Errorf("got %+v, want not found with 1 degraded call", out)
	}
}

func TestBracketPlainErrorsCountAsDegraded(t *testing.T) {
	o := oracle.Func(func(context.Context, *models.PropertyQuery, int, int) (bool, error) {
		return false, context.DeadlineExceeded
	})
	s := NewBracketSearcher(o, ladder(), newTestLogger())
	out := s.Find(context.Background(), sampleQuery("x"), nil)
	if out.Found || out.Degraded != 1 {
		t.Errorf("got %+v, want not found with 1 degraded call", out)
	}
}

func TestRefineScenario(t *testing.T) {
	o := &countingOracle{inner: hiddenPrice(1163000)}
	r := NewWindowRefiner(o, newTestLogger())

	out := r.Refine(context.Background(), sampleQuery("x"), models.Bracket{MinPrice: 1100000, MaxPrice: 1200000})
	want := models.Bracket{MinPrice: 1160000, MaxPrice: 1170000}
	if diff := cmp.Diff(want, out.Bracket); diff != "" {
		t.Errorf("band mismatch (-want +got):\n%s", diff)
	}
	if out.Calls != 4 || o.calls() != 4 {
		t.Errorf("Calls: got %d (oracle %d), want 4", out.Calls, o.calls())
	}
	for _, p := range o.probes {
		if p[0] < 1100000 {
			t.Errorf("probe %v below the coarse lower bound", p)
		}
	}
}

func TestRefineCallCountAndBandShape(t *testing.T) {
	tests := []struct {
		lo, hi int
		calls  int
	}{
		{1100000, 1200000, 4},
		{1000000, 1500000, 6},
		{2000000, 2250000, 5},
	}
	for _, tt := range tests {
		for p := tt.lo; p <= tt.hi; p += 7919 {
			r := NewWindowRefiner(hiddenPrice(p), newTestLogger())
			out := r.Refine(context.Background(), sampleQuery("x"), models.Bracket{MinPrice: tt.lo, MaxPrice: tt.hi})
			if out.Calls != tt.calls {
				t.Errorf("[%d, %d] p=%d: calls %d, want %d", tt.lo, tt.hi, p, out.Calls, tt.calls)
			}
			b := out.Bracket
			if b.Width() != models.BandWidth || b.MinPrice%models.BandWidth != 0 {
				t.Errorf("p=%d: band %+v is not an aligned 10K band", p, b)
			}
			// The snapped band sits within one band of the true price.
			if p < b.MinPrice-models.BandWidth || p >= b.MaxPrice+models.BandWidth {
				t.Errorf("p=%d: band %+v too far from price", p, b)
			}
		}
	}
}

func TestSnapToBand(t *testing.T) {
	tests := []struct{ in, want int }{
		{1146875, 1140000},
		{1150000, 1150000},
		{9999, 0},
	}
	for _, tt := range tests {
		if got := SnapToBand(tt.in); got != tt.want {
			t.Errorf("SnapToBand(%d) = %d; want %d", tt.in, got, tt.want)
		}
	}
}

func TestDiscoverCoarseAndRefined(t *testing.T) {
	d := NewDiscoverer(hiddenPrice(1163000), ladder(), newTestLogger())
	q := sampleQuery("12 Smith St")

	coarse := d.Discover(context.Background(), q, false, nil)
	if !coarse.Found || coarse.Exact {
		t.Fatalf("coarse: got found=%t exact=%t", coarse.Found, coarse.Exact)
	}
	if coarse.Bracket != (models.Bracket{MinPrice: 1100000, MaxPrice: 1200000}) || coarse.Calls != 11 {
		t.Errorf("coarse: got %+v in %d calls", coarse.Bracket, coarse.Calls)
	}

	fine := d.Discover(context.Background(), q, true, nil)
	if !fine.Exact {
		t.Error("refined result should be exact")
	}
	if fine.Bracket != (models.Bracket{MinPrice: 1160000, MaxPrice: 1170000}) {
		t.Errorf("refined bracket: got %+v", fine.Bracket)
	}
	if fine.Calls != 15 {
		t.Errorf("refined calls: got %d, want 11+4", fine.Calls)
	}
	if fine.Address != "12 Smith St" || fine.Suburb != "Cronulla" {
		t.Errorf("echo fields: got %q / %q", fine.Address, fine.Suburb)
	}
}

func TestDiscoverSkipsRefineForNarrowBracket(t *testing.T) {
	d := NewDiscoverer(hiddenPrice(1000000), ladder(), newTestLogger())
	res := d.Discover(context.Background(), sampleQuery("x"), true, nil)
	if res.Exact {
		t.Error("zero-width bracket should not be refined")
	}
}

func TestDiscoverNotFound(t *testing.T) {
	d := NewDiscoverer(hiddenPrice(50000), ladder(), newTestLogger())
	var stages []string
	res := d.Discover(context.Background(), sampleQuery("x"), true, func(ev models.ProgressEvent) {
		stages = append(stages, ev.Stage)
	})
	if res.Found {
		t.Fatal("expected not found")
	}
	if res.Message != NotFoundMessage || res.Calls != 1 {
		t.Errorf("got message %q calls %d", res.Message, res.Calls)
	}
	if diff := cmp.Diff([]string{StageExistence, StageNotFound}, stages); diff != "" {
		t.Errorf("stages mismatch (-want +got):\n%s", diff)
	}
	if !res.RefineRequested || !res.Record().WindowMode {
		t.Errorf("not-found result should keep the requested window mode: %+v", res)
	}
}

func TestDiscoverDegradedNotFoundSaysSo(t *testing.T) {
	o := oracle.Func(func(context.Context, *models.PropertyQuery, int, int) (bool, error) {
		return false, &oracle.Fault{Kind: oracle.FaultConnection, Pages: 3}
	})
	d := NewDiscoverer(o, ladder(), newTestLogger())
	res := d.Discover(context.Background(), sampleQuery("x"), false, nil)
	if res.Found || res.Degraded != 1 {
		t.Fatalf("got found=%t degraded=%d", res.Found, res.Degraded)
	}
	if !strings.Contains(res.Message, "degraded") {
		t.Errorf("message should mention degradation: %q", res.Message)
	}
}

func TestDiscoverEmptyAddress(t *testing.T) {
	o := &countingOracle{inner: hiddenPrice(1)}
	d := NewDiscoverer(o, ladder(), newTestLogger())
	res := d.Discover(context.Background(), sampleQuery("  "), false, nil)
	if res.Found || o.calls() != 0 {
		t.Errorf("got found=%t after %d calls, want not found with no calls", res.Found, o.calls())
	}
}

func TestDiscoverProgressStages(t *testing.T) {
	d := NewDiscoverer(hiddenPrice(1163000), ladder(), newTestLogger())
	seen := map[string]bool{}
	d.Discover(context.Background(), sampleQuery("x"), true, func(ev models.ProgressEvent) {
		seen[ev.Stage] = true
	})
	for _, st := range []string{StageExistence, StageBracket, StageRefine, StageDone} {
		if !seen[st] {
			t.Errorf("stage %q not emitted", st)
		}
	}
}

type mapCache struct {
	mu   sync.Mutex
	data map[string]models.DiscoveryResult
}

func (m *mapCache) Get(_ context.Context, key string) (*models.DiscoveryResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return &r, true, nil
}

func (m *mapCache) Put(_ context.Context, key string, r *models.DiscoveryResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = *r
	return nil
}

func TestDiscoverUsesCache(t *testing.T) {
	o := &countingOracle{inner: hiddenPrice(1163000)}
	d := NewDiscoverer(o, ladder(), newTestLogger())
	cache := &mapCache{data: map[string]models.DiscoveryResult{}}
	d.UseCache(cache)

	first := d.Discover(context.Background(), sampleQuery("12 Smith St"), true, nil)
	calls := o.calls()
	second := d.Discover(context.Background(), sampleQuery("12 SMITH ST "), true, nil)

	if o.calls() != calls {
		t.Errorf("cached lookup made %d extra oracle calls", o.calls()-calls)
	}
	if !second.Cached || second.Bracket != first.Bracket {
		t.Errorf("second: got cached=%t bracket %+v, want cached %+v", second.Cached, second.Bracket, first.Bracket)
	}

	// A different refine mode is a different request.
	d.Discover(context.Background(), sampleQuery("12 Smith St"), false, nil)
	if o.calls() == calls {
		t.Error("coarse request should not hit the refined cache entry")
	}
}

func TestCachedResultEchoesCurrentRequest(t *testing.T) {
	o := &countingOracle{inner: hiddenPrice(1163000)}
	d := NewDiscoverer(o, ladder(), newTestLogger())
	d.UseCache(&mapCache{data: map[string]models.DiscoveryResult{}})
	runner := NewBatchRunner(d, 0, newTestLogger())

	queries := []*models.PropertyQuery{sampleQuery("12 Smith St"), sampleQuery("12 SMITH ST")}
	results, err := runner.Run(context.Background(), queries, true, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	second := results[1]
	if second.Address != "12 SMITH ST" || !second.Cached {
		t.Errorf("second: got address %q cached=%t", second.Address, second.Cached)
	}
	if second.Calls != 0 {
		t.Errorf("second calls: got %d, want 0", second.Calls)
	}
	if second.Bracket != results[0].Bracket || !second.Found || !second.Exact {
		t.Errorf("second: got %+v, want bracket %+v", second, results[0].Bracket)
	}
	if got := models.Summarize(results).TotalCalls; got != o.calls() {
		t.Errorf("summary calls: got %d, oracle saw %d", got, o.calls())
	}
}
