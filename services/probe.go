package services

import (
	"context"

	"homely-price-discovery/models"
	"homely-price-discovery/oracle"
	"homely-price-discovery/utils"
)

// ProgressFunc receives progress notifications. It may be nil.
type ProgressFunc func(models.ProgressEvent)

func (p ProgressFunc) emit(stage, message string) {
	if p != nil {
		p(models.ProgressEvent{Stage: stage, Message: message})
	}
}

// Progress stages.
const (
	StageExistence = "existence"
	StageBracket   = "bracket"
	StageRefine    = "refine"
	StageDone      = "done"
	StageNotFound  = "not_found"
	StageCached    = "cached"
	StageProperty  = "property"
)

// prober wraps an oracle and counts the calls made through it. A degraded
// answer is taken as "not observed" and counted separately.
type prober struct {
	oracle   oracle.Oracle
	logger   *utils.Logger
	query    *models.PropertyQuery
	calls    int
	degraded int
}

func (p *prober) contains(ctx context.Context, minPrice, maxPrice int) bool {
	p.calls++
	ok, err := p.oracle.Contains(ctx, p.query, minPrice, maxPrice)
	if err != nil {
		p.degraded++
		if oracle.IsDegraded(err) {
			p.logger.Warn("[probe] [%d, %d] for %q degraded, treating as not observed: %v",
				minPrice, maxPrice, p.query.Address, err)
		} else {
			p.logger.Error("[probe] [%d, %d] for %q failed, treating as not observed: %v",
				minPrice, maxPrice, p.query.Address, err)
		}
		return false
	}
	return ok
}
