// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import "math/bits"

// Settle computes one claimant's payout from a fixed reward snapshot.
//
// A claim whose weight completes totalWeight is final and receives exactly
// the undistributed remainder, so the payouts of a round sum to reward.
// Other claims receive floor(reward * weight / totalWeight).
func Settle(reward, totalWeight, claimedWeight, distributed, weight uint64) (share uint64, final bool, err error) {
	if totalWeight == 0 {
		return 0, false, ErrNoEligibleVoters
	}
	if weight == 0 {
		return 0, false, ErrNotEligible
	}
	next, ok := add64(claimedWeight, weight)
	if !ok {
		return 0, false, ErrOverflow
	}
	if next > totalWeight || distributed > reward {
		return 0, false, ErrInsufficientFunds
	}
	if next == totalWeight {
		return reward - distributed, true, nil
	}

	share, err = mulDiv(reward, weight, totalWeight)
	if err != nil {
		return 0, false, err
	}
	if share > reward-distributed {
		return 0, false, ErrInsufficientFunds
	}
	return share, false, nil
}

// Fee returns the protocol fee on pool.
func Fee(pool, percent uint64) (uint64, error) {
	return mulDiv(pool, percent, 100)
}

// mulDiv returns floor(a*b/d) without intermediate overflow.
func mulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrOverflow
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= d {
		return 0, ErrOverflow
	}
	q, _ := bits.Div64(hi, lo, d)
	return q, nil
}

func add64(a, b uint64) (uint64, bool) {
	v, carry := bits.Add64(a, b, 0)
	return v, carry == 0
}

func sub64(a, b uint64) (uint64, bool) {
	v, borrow := bits.Sub64(a, b, 0)
	return v, borrow == 0
}
