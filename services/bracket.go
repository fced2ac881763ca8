package services

import (
	"context"
	"fmt"

	"homely-price-discovery/models"
	"homely-price-discovery/oracle"
	"homely-price-discovery/utils"
)

// BracketOutcome is the result of a coarse ladder search.
type BracketOutcome struct {
	Found    bool
	Bracket  models.Bracket
	Calls    int
	Degraded int
}

// BracketSearcher finds a coarse price bracket by running two binary
// searches over the price ladder. Both searches assume that a listing seen
// in a range is also seen in every wider range.
type BracketSearcher struct {
	oracle oracle.Oracle
	ladder models.PriceLadder
	logger *utils.Logger
}

// NewBracketSearcher creates a BracketSearcher over ladder.
func NewBracketSearcher(o oracle.Oracle, ladder models.PriceLadder, logger *utils.Logger) *BracketSearcher {
	return &BracketSearcher{oracle: o, ladder: ladder, logger: logger}
}

// Find checks that the listing exists anywhere on the ladder, then locates
// the largest threshold at or below its price and the smallest threshold at
// or above it.
func (s *BracketSearcher) Find(ctx context.Context, q *models.PropertyQuery, progress ProgressFunc) BracketOutcome {
	p := &prober{oracle: s.oracle, logger: s.logger, query: q}
	first, last := s.ladder.First(), s.ladder.Last()

	progress.emit(StageExistence, fmt.Sprintf("Checking %q exists between $%d and $%d", q.Address, first, last))
	if !p.contains(ctx, first, last) {
		return BracketOutcome{Calls: p.calls, Degraded: p.degraded}
	}

	progress.emit(StageBracket, "Searching for lower bound")
	lower := s.lowerBound(ctx, p)
	progress.emit(StageBracket, fmt.Sprintf("Lower bound $%d, searching for upper bound", lower))
	upper := s.upperBound(ctx, p)

	if lower > upper {
		s.logger.Warn("[bracket] inverted bracket [%d, %d] for %q, oracle answers are not monotonic",
			lower, upper, q.Address)
		lower, upper = upper, lower
	}

	s.logger.Debug("[bracket] %q -> [%d, %d] in %d calls", q.Address, lower, upper, p.calls)
	return BracketOutcome{
		Found:    true,
		Bracket:  models.Bracket{MinPrice: lower, MaxPrice: upper},
		Calls:    p.calls,
		Degraded: p.degraded,
	}
}

// lowerBound returns the largest threshold T with the listing observed in
// [T, last], or the first threshold if none is.
func (s *BracketSearcher) lowerBound(ctx context.Context, p *prober) int {
	last := s.ladder.Last()
	lo, hi := 0, s.ladder.Len()-1
	idx := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if p.contains(ctx, s.ladder.At(mid), last) {
			idx = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return s.ladder.At(idx)
}

// upperBound returns the smallest threshold T with the listing observed in
// [first, T], or the last threshold if none is.
func (s *BracketSearcher) upperBound(ctx context.Context, p *prober) int {
	first := s.ladder.First()
	lo, hi := 0, s.ladder.Len()-1
	idx := s.ladder.Len() - 1
	for lo <= hi {
		mid := (lo + hi) / 2
		if p.contains(ctx, first, s.ladder.At(mid)) {
			idx = mid
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return s.ladder.At(idx)
}
