package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"homely-price-discovery/models"
	"homely-price-discovery/oracle"
	"homely-price-discovery/utils"
)

// NotFoundMessage is reported when the existence check fails.
const NotFoundMessage = "Property not found in database or address/filters are incorrect"

// ResultCache stores finished discovery results between runs.
type ResultCache interface {
	Get(ctx context.Context, key string) (*models.DiscoveryResult, bool, error)
	Put(ctx context.Context, key string, r *models.DiscoveryResult) error
}

// CacheKey identifies a discovery request for caching.
func CacheKey(q *models.PropertyQuery, refine bool) string {
	return fmt.Sprintf("pricefind:v1:%d|%s|%d/%d/%d|%d|%t",
		q.Suburb.ID, q.NormalizedAddress(),
		q.Filters.Bedrooms, q.Filters.Bathrooms, q.Filters.Carspaces,
		q.MaxResults, refine)
}

// Discoverer runs the existence check, bracket search and optional
// refinement for one property.
type Discoverer struct {
	bracket *BracketSearcher
	refiner *WindowRefiner
	cache   ResultCache
	logger  *utils.Logger
	now     func() time.Time
}

// NewDiscoverer wires a bracket searcher and window refiner over o.
func NewDiscoverer(o oracle.Oracle, ladder models.PriceLadder, logger *utils.Logger) *Discoverer {
	return &Discoverer{
		bracket: NewBracketSearcher(o, ladder, logger),
		refiner: NewWindowRefiner(o, logger),
		logger:  logger,
		now:     time.Now,
	}
}

// UseCache makes the Discoverer consult c before searching and store clean
// found results in it afterwards.
func (d *Discoverer) UseCache(c ResultCache) {
	d.cache = c
}

// Discover produces the result record for q. It never fails: every fault
// degrades to a not-found result or a possibly wider bracket.
func (d *Discoverer) Discover(ctx context.Context, q *models.PropertyQuery, refine bool, progress ProgressFunc) *models.DiscoveryResult {
	res := &models.DiscoveryResult{Address: q.Address, Suburb: q.Suburb.Name, RefineRequested: refine}
	if strings.TrimSpace(q.Address) == "" {
		res.Message = "address is required"
		res.FinishedAt = d.now()
		progress.emit(StageNotFound, res.Message)
		return res
	}

	key := CacheKey(q, refine)
	if cached := d.lookup(ctx, key); cached != nil {
		// The stored answer applies; the echo fields and call count are this request's.
		res.Found = cached.Found
		res.Exact = cached.Exact
		res.Bracket = cached.Bracket
		res.Message = cached.Message
		res.Cached = true
		res.FinishedAt = d.now()
		progress.emit(StageCached, fmt.Sprintf("Using cached result for %q", q.Address))
		return res
	}

	coarse := d.bracket.Find(ctx, q, progress)
	res.Calls = coarse.Calls
	res.Degraded = coarse.Degraded

	if !coarse.Found {
		res.Message = NotFoundMessage
		if coarse.Degraded > 0 {
			res.Message += " (oracle degraded, consider re-running)"
		}
		res.FinishedAt = d.now()
		progress.emit(StageNotFound, res.Message)
		d.logger.Info("[discovery] %q not found after %d calls", q.Address, res.Calls)
		return res
	}

	res.Found = true
	res.Bracket = coarse.Bracket
	progress.emit(StageBracket, fmt.Sprintf("Coarse bracket $%d - $%d", coarse.Bracket.MinPrice, coarse.Bracket.MaxPrice))

	if refine && coarse.Bracket.Width() > models.BandWidth {
		progress.emit(StageRefine, fmt.Sprintf("Refining $%d - $%d to a $%d window",
			coarse.Bracket.MinPrice, coarse.Bracket.MaxPrice, models.BandWidth))
		fine := d.refiner.Refine(ctx, q, coarse.Bracket)
		res.Bracket = fine.Bracket
		res.Exact = true
		res.Calls += fine.Calls
		res.Degraded += fine.Degraded
	}

	res.FinishedAt = d.now()
	progress.emit(StageDone, fmt.Sprintf("$%d - $%d in %d queries", res.Bracket.MinPrice, res.Bracket.MaxPrice, res.Calls))
	d.logger.Info("[discovery] %q -> $%d - $%d (exact=%t, calls=%d, degraded=%d)",
		q.Address, res.Bracket.MinPrice, res.Bracket.MaxPrice, res.Exact, res.Calls, res.Degraded)

	if res.Degraded == 0 {
		d.store(ctx, key, res)
	}
	return res
}

func (d *Discoverer) lookup(ctx context.Context, key string) *models.DiscoveryResult {
	if d.cache == nil {
		return nil
	}
	r, ok, err := d.cache.Get(ctx, key)
	if err != nil {
		d.logger.Warn("[discovery] cache get %s: %v", key, err)
		return nil
	}
	if !ok {
		return nil
	}
	return r
}

func (d *Discoverer) store(ctx context.Context, key string, r *models.DiscoveryResult) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Put(ctx, key, r); err != nil {
		d.logger.Warn("[discovery] cache put %s: %v", key, err)
	}
}
