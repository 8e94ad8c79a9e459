package pipeline

import (
	"math"
	"sort"
)

// largestRemainder apportions an integer number of units across
// proportional shares: each share takes the floor of its exact
// fractional allocation, then the leftover units go one-by-one to the
// shares with the largest fractional remainder. Ties break by share
// order. Shares that sum to zero split equally.
//
// The allocations always sum to units (for units >= 0).
func largestRemainder(units int, shares []float64) []int {
	n := len(shares)
	out := make([]int, n)
	if units <= 0 || n == 0 {
		return out
	}

	var sum float64
	for _, s := range shares {
		if s > 0 {
			sum += s
		}
	}
	if sum <= 0 {
		// Degenerate shares: split equally.
		shares = make([]float64, n)
		for i := range shares {
			shares[i] = 1
		}
		sum = float64(n)
	}

	type remainder struct {
		idx  int
		frac float64
	}
	rems := make([]remainder, n)
	allocated := 0
	for i, s := range shares {
		if s < 0 {
			s = 0
		}
		exact := float64(units) * s / sum
		fl := math.Floor(exact)
		out[i] = int(fl)
		allocated += int(fl)
		rems[i] = remainder{idx: i, frac: exact - fl}
	}

	// Stable sort keeps index order on equal remainders.
	sort.SliceStable(rems, func(a, b int) bool {
		return rems[a].frac > rems[b].frac
	})
	for k := 0; k < units-allocated; k++ {
		out[rems[k%n].idx]++
	}
	return out
}
