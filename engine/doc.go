// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package engine implements the question lifecycle and reward settlement of a
commit-reveal prediction poll.

# Lifecycle

An asker initializes a counter once, then creates questions that escrow a
reward into a per-question vault. Participants join (locking a stake),
commit a Keccak-256 digest of their choice and secret before the commit
deadline, and reveal the secret before the reveal deadline. Each reveal adds
the voter's reputation weight to the tally of the chosen option.

# Settlement

The winner is resolved lazily by the first operation after the reveal
deadline and never recomputed. The first claim takes a protocol fee and
fixes the reward snapshot:

	available := vault.Balance - vault.MinBalance
	fee := available * FeePercent / 100
	snapshot := available - fee

Each eligible claim is paid by Settle; the claim that completes the eligible
weight receives the exact remainder.

# Recovery

DrainUnclaimedReward, ReclaimBallotRent and DeleteExpiredQuestion unwind
rounds that attracted no commitments or no revealed votes and return
storage deposits.

# Atomicity

Every operation runs inside Store.Atomic. A returned error rolls back every
record and ledger write of that operation.
*/
package engine
