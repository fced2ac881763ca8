package services

import (
	"context"

	"homely-price-discovery/models"
	"homely-price-discovery/oracle"
	"homely-price-discovery/utils"
)

// RefineOutcome is a band produced by the WindowRefiner.
type RefineOutcome struct {
	Bracket  models.Bracket
	Calls    int
	Degraded int
}

// WindowRefiner narrows a coarse bracket to a band of models.BandWidth.
type WindowRefiner struct {
	oracle oracle.Oracle
	logger *utils.Logger
}

func NewWindowRefiner(o oracle.Oracle, logger *utils.Logger) *WindowRefiner {
	return &WindowRefiner{oracle: o, logger: logger}
}

// Refine bisects [b.MinPrice, b.MaxPrice] by probing only the lower half:
// an observed [lo, mid] moves hi to mid, otherwise lo moves past mid. It
// stops once hi-lo is at most one band, then snaps the centre of what is
// left down to a band boundary.
func (r *WindowRefiner) Refine(ctx context.Context, q *models.PropertyQuery, b models.Bracket) RefineOutcome {
	p := &prober{oracle: r.oracle, logger: r.logger, query: q}
	lo, hi := b.MinPrice, b.MaxPrice

	for hi-lo > models.BandWidth {
		mid := (lo + hi) / 2
		if p.contains(ctx, lo, mid) {
			hi = mid
		} else {
			lo = mid + 1
		}
	}

	low := SnapToBand((lo + hi) / 2)
	r.logger.Debug("[refine] %q [%d, %d] -> terminal [%d, %d], band %d in %d calls",
		q.Address, b.MinPrice, b.MaxPrice, lo, hi, low, p.calls)

	return RefineOutcome{
		Bracket:  models.Bracket{MinPrice: low, MaxPrice: low + models.BandWidth},
		Calls:    p.calls,
		Degraded: p.degraded,
	}
}

// SnapToBand rounds price down to a multiple of models.BandWidth.
func SnapToBand(price int) int {
	return (price / models.BandWidth) * models.BandWidth
}
