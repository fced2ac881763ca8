package models

import (
	"errors"
	"fmt"
)

// BandWidth is the width of a refined price window.
const BandWidth = 10000

// PriceLadder is an immutable, strictly ascending list of price thresholds
// used by the coarse bracket search.
type PriceLadder struct {
	points []int
}

// NewPriceLadder copies points into a ladder after validating that it has at
// least two strictly increasing values.
func NewPriceLadder(points []int) (PriceLadder, error) {
	if len(points) < 2 {
		return PriceLadder{}, errors.New("ladder: need at least 2 price points")
	}
	for i := 1; i < len(points); i++ {
		if points[i] <= points[i-1] {
			return PriceLadder{}, fmt.Errorf("ladder: point %d (%d) is not above %d", i, points[i], points[i-1])
		}
	}
	cp := make([]int, len(points))
	copy(cp, points)
	return PriceLadder{points: cp}, nil
}

// MustPriceLadder is NewPriceLadder for compile-time constant ladders.
func MustPriceLadder(points []int) PriceLadder {
	l, err := NewPriceLadder(points)
	if err != nil {
		panic(err)
	}
	return l
}

func (l PriceLadder) Len() int { return len(l.points) }
func (l PriceLadder) At(i int) int { return l.points[i] }
func (l PriceLadder) First() int { return l.points[0] }
func (l PriceLadder) Last() int { return l.points[len(l.points)-1] }
func (l PriceLadder) IsZero() bool { return len(l.points) == 0 }

// Points returns a copy of the thresholds.
func (l PriceLadder) Points() []int {
	cp := make([]int, len(l.points))
	copy(cp, l.points)
	return cp
}

// Contains reports whether price is one of the ladder thresholds.
func (l PriceLadder) Contains(price int) bool {
	for _, p := range l.points {
		if p == price {
			return true
		}
	}
	return false
}
