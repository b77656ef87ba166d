// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/danielhkuo/truthpoll/models"
)

type ClaimResult struct {
	Payout    uint64
	Final     bool
	Reference models.ClaimReference
}

// ClaimReward pays voter's weighted share of the reward pool.
//
// The first successful claim on a question takes the protocol fee and fixes
// the reward snapshot inside the same transaction, so later claims all see
// the same denominator.
func (e *Engine) ClaimReward(ctx context.Context, voter, questionKey, reference string) (ClaimResult, error) {
	if reference == "" {
		reference = uuid.NewString()
	}
	if len(reference) > models.ClaimReferenceSize {
		return ClaimResult{}, ErrClaimReferenceTooLong
	}

	var res ClaimResult
	var q models.Question
	err := e.store.Atomic(ctx, func(tx Tx) error {
		var err error
		q, err = loadQuestion(ctx, tx, questionKey)
		if err != nil {
			return err
		}
		now := e.unixNow()
		if now < q.RevealEndTime {
			return ErrRevealPhaseNotOver
		}
		resolveWinner(&q, now)
		if q.Stage == models.StageDrained || q.NoVotesRevealed() {
			return ErrNoEligibleVoters
		}

		b, err := loadBallot(ctx, tx, questionKey, voter)
		if err != nil {
			return err
		}
		if b.Claimed {
			return ErrAlreadyClaimed
		}
		if b.Status == models.BallotReclaimed {
			return ErrAlreadyClosed
		}
		user, err := loadUser(ctx, tx, voter)
		if err != nil {
			return err
		}

		tie := q.WinningOption == models.OptionTie
		if !b.Revealed || (!tie && b.SelectedOption != q.WinningOption) {
			return ErrNotEligible
		}

		vaultKey := QuestionVaultAccount(questionKey)
		vault, err := tx.Account(ctx, vaultKey)
		if err != nil {
			return ledgerErr(err)
		}
		available := vault.Spendable()

		if q.Stage == models.StageResolved {
			fee, err := e.takeSnapshot(ctx, tx, &q, available)
			if err != nil {
				return err
			}
			available -= fee
		}
		if q.Stage != models.StageDistributing {
			return ErrNoEligibleVoters
		}

		share, final, err := Settle(q.SnapshotReward, q.SnapshotTotalWeight, q.ClaimedWeight, q.TotalDistributed, b.VoteWeight)
		if err != nil {
			return err
		}
		share = min(share, available)

		var ok bool
		if q.TotalDistributed, ok = add64(q.TotalDistributed, share); !ok {
			return ErrOverflow
		}
		q.ClaimedWeight += b.VoteWeight
		q.ClaimedVotersCount++
		q.VoterRecordsClosed++
		if final {
			q.Stage = models.StageSettled
		}

		if err := ledgerErr(tx.Transfer(ctx, vaultKey, WalletAccount(voter), share)); err != nil {
			return err
		}

		b.Claimed = true
		b.Status = models.BallotClaimed
		b.ClaimReference = models.NewClaimReference(reference)
		b.Payout = share
		if _, err := refund(ctx, tx, ballotDepositAccount(questionKey, voter), voter); err != nil {
			return err
		}

		if user.TotalEarnings, ok = add64(user.TotalEarnings, share); !ok {
			return ErrOverflow
		}
		if !tie {
			user.RecordOutcome(false, true)
		}

		if err := tx.UpdateBallot(ctx, b); err != nil {
			return fmt.Errorf("update ballot: %w", err)
		}
		if err := tx.UpdateQuestion(ctx, q); err != nil {
			return fmt.Errorf("update question: %w", err)
		}
		if err := tx.UpdateUser(ctx, user); err != nil {
			return fmt.Errorf("update user: %w", err)
		}

		res = ClaimResult{Payout: share, Final: final, Reference: b.ClaimReference}
		return nil
	})
	if err != nil {
		return ClaimResult{}, err
	}

	slog.Info("reward claimed",
		"question", questionKey,
		"voter", voter,
		"payout", humanize.Comma(int64(res.Payout)),
		"distributed", humanize.Comma(int64(q.TotalDistributed)),
		"snapshot", humanize.Comma(int64(q.SnapshotReward)),
		"final", res.Final,
	)
	return res, nil
}

// takeSnapshot skims the protocol fee from the escrow and fixes the reward
// pool and eligible weight. It moves q from resolved to distributing.
func (e *Engine) takeSnapshot(ctx context.Context, tx Tx, q *models.Question, available uint64) (uint64, error) {
	fee, err := Fee(available, e.params.FeePercent)
	if err != nil {
		return 0, err
	}
	if err := ledgerErr(tx.Transfer(ctx, QuestionVaultAccount(q.Key), e.params.FeeReceiver, fee)); err != nil {
		return 0, err
	}

	var weight uint64
	switch q.WinningOption {
	case models.OptionTie:
		var ok bool
		if weight, ok = add64(q.VotesOption1, q.VotesOption2); !ok {
			return 0, ErrOverflow
		}
	case models.Option1:
		weight = q.VotesOption1
	default:
		weight = q.VotesOption2
	}

	q.OriginalReward = available
	q.SnapshotReward = available - fee
	q.SnapshotTotalWeight = weight
	q.ClaimedWeight = 0
	q.ClaimedVotersCount = 0
	q.TotalDistributed = 0
	q.Stage = models.StageDistributing

	slog.Debug("reward snapshot taken",
		"question", q.Key,
		"fee", humanize.Comma(int64(fee)),
		"snapshot", humanize.Comma(int64(q.SnapshotReward)),
		"total_weight", weight,
	)
	return fee, nil
}
