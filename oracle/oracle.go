// Package oracle defines the containment predicate the price searches are
// built on: "does the target listing appear among sold results priced in
// [min, max]?".
package oracle

import (
	"context"
	"errors"
	"fmt"

	"homely-price-discovery/models"
)

// Oracle answers containment questions for a property query.
//
// A (true, nil) answer means the listing was observed. (false, nil) means it
// was not observed and every page was read. (false, *Fault) means it was not
// observed but at least one page could not be read, so the answer is unknown.
type Oracle interface {
	Contains(ctx context.Context, query *models.PropertyQuery, minPrice, maxPrice int) (bool, error)
}

// Func adapts a plain function to the Oracle interface.
type Func func(ctx context.Context, query *models.PropertyQuery, minPrice, maxPrice int) (bool, error)

func (f Func) Contains(ctx context.Context, query *models.PropertyQuery, minPrice, maxPrice int) (bool, error) {
	return f(ctx, query, minPrice, maxPrice)
}

// FaultKind classifies a transient transport fault.
type FaultKind int

const (
	FaultTimeout FaultKind = iota + 1
	FaultConnection
	FaultStatus
	FaultMalformed
	FaultCanceled
)

func (k FaultKind) String() string {
	switch k {
	case FaultTimeout:
		return "timeout"
	case FaultConnection:
		return "connection"
	case FaultStatus:
		return "status"
	case FaultMalformed:
		return "malformed"
	case FaultCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Fault reports that an oracle answer is degraded. Kind and Err describe the
// last page failure; Pages counts how many pages failed.
type Fault struct {
	Kind       FaultKind
	Page       int
	Pages      int
	StatusCode int
	Err        error
}

func (f *Fault) Error() string {
	msg := fmt.Sprintf("oracle: %s fault on page %d", f.Kind, f.Page)
	if f.Pages > 1 {
		msg += fmt.Sprintf(" (%d pages failed)", f.Pages)
	}
	if f.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", f.StatusCode)
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Fault) Unwrap() error { return f.Err }

// IsDegraded reports whether err carries a Fault.
func IsDegraded(err error) bool {
	var f *Fault
	return errors.As(err, &f)
}
