// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

// Record sizes in bytes, used to size storage deposits.
const (
	VaultSize           = 8
	UserRecordSize      = 8 + 80
	CounterSize         = 8 + 40
	QuestionRecordSize  = 450
	BallotRecordSize    = 8 + 200
	accountOverhead     = 128
	depositPerByteEpoch = 6960
)

// MinimumBalance is the storage deposit that keeps a record of size bytes
// alive.
func MinimumBalance(size uint64) uint64 {
	return (accountOverhead + size) * depositPerByteEpoch
}

// Params are the protocol constants of an engine.
type Params struct {
	// Account that receives protocol fees and drained rewards.
	FeeReceiver string
	// Percentage of the reward pool skimmed on the first claim.
	FeePercent uint64
	MinReward  uint64
	// Stake each participant locks on join.
	JoinStake  uint64
	MinTextLen int
	MaxTextLen int
	// Seconds after rent expiration before a question may be deleted.
	DeleteGrace int64
}

func DefaultParams() Params {
	return Params{
		FeeReceiver: "fee_receiver",
		FeePercent:  2,
		MinReward:   50_000_000,
		JoinStake:   500_000_000,
		MinTextLen:  10,
		MaxTextLen:  150,
		DeleteGrace: 86400,
	}
}
