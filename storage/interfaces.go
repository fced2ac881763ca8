package storage

import (
	"context"

	"homely-price-discovery/models"
)

// ResultWriter is the interface any result export backend must satisfy.
type ResultWriter interface {
	Write(results []*models.DiscoveryResult) error
	Close() error
}

// RunWriter persists a batch run under a run identifier.
type RunWriter interface {
	WriteRun(ctx context.Context, runID string, results []*models.DiscoveryResult) error
	Close() error
}
