package services

import (
	"context"
	"fmt"
	"time"

	"homely-price-discovery/models"
	"homely-price-discovery/utils"
)

// BatchRunner runs properties through a Discoverer one at a time.
type BatchRunner struct {
	discoverer *Discoverer
	delay      time.Duration
	logger     *utils.Logger
}

// NewBatchRunner creates a runner that waits delay between properties.
func NewBatchRunner(d *Discoverer, delay time.Duration, logger *utils.Logger) *BatchRunner {
	return &BatchRunner{discoverer: d, delay: delay, logger: logger}
}

// Run processes queries in input order and returns one result per query.
// A property that is not found does not stop the batch. If ctx is cancelled
// between properties, the results gathered so far are returned with ctx.Err().
func (b *BatchRunner) Run(ctx context.Context, queries []*models.PropertyQuery, refine bool, progress ProgressFunc) ([]*models.DiscoveryResult, error) {
	results := make([]*models.DiscoveryResult, 0, len(queries))
	total := len(queries)

	for i, q := range queries {
		if i > 0 {
			if err := utils.Sleep(ctx, b.delay); err != nil {
				b.logger.Warn("[batch] interrupted after %d/%d properties", i, total)
				return results, err
			}
		} else if err := ctx.Err(); err != nil {
			return results, err
		}

		if progress != nil {
			progress(models.ProgressEvent{
				Stage:   StageProperty,
				Message: fmt.Sprintf("Processing %d/%d: %s (%s)", i+1, total, q.Address, q.Filters),
				Index:   i + 1,
				Total:   total,
			})
		}

		// Per-property stage events are tagged with the batch position.
		inner := func(ev models.ProgressEvent) {
			if progress == nil {
				return
			}
			ev.Index, ev.Total = i+1, total
			progress(ev)
		}
		results = append(results, b.discoverer.Discover(ctx, q, refine, inner))
	}

	s := models.Summarize(results)
	b.logger.Info("[batch] complete: %d/%d found, %d queries (avg %.1f)",
		s.Found, s.Total, s.TotalCalls, s.AverageCalls)
	return results, nil
}
