// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package reputation maps a participant's lifetime counters to a vote weight.
package reputation

const (
	MinWeight uint8 = 1
	MaxWeight uint8 = 19
)

// step is the inclusive upper bound of revealed+correct for a weight.
type step struct {
	upTo   uint64
	weight uint8
}

var staircase = []step{
	{1, 1},
	{2, 2},
	{3, 3},
	{4, 4},
	{5, 5},
	{6, 6},
	{9, 7},
	{12, 8},
	{17, 9},
	{25, 10},
	{34, 11},
	{46, 12},
	{62, 13},
	{87, 14},
	{118, 15},
	{163, 16},
	{224, 17},
	{308, 18},
}

// Weight returns the reputation weight for the given counters.
// The result is non-decreasing in revealed+correct and always within
// [MinWeight, MaxWeight].
func Weight(revealed, correct uint64) uint8 {
	sum := revealed + correct
	if sum < revealed {
		// wrapped
		return MaxWeight
	}
	for _, s := range staircase {
		if sum <= s.upTo {
			return s.weight
		}
	}
	return MaxWeight
}
