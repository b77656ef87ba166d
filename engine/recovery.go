// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/truthpoll/models"
)

// DrainUnclaimedReward sends the escrow of a question nobody took part in to
// the fee receiver. Allowed once the commit phase ended with no commitments
// or the reveal phase ended with no revealed votes.
func (e *Engine) DrainUnclaimedReward(ctx context.Context, questionKey string) (uint64, error) {
	var drained uint64
	err := e.store.Atomic(ctx, func(tx Tx) error {
		q, err := loadQuestion(ctx, tx, questionKey)
		if err != nil {
			return err
		}
		if q.RewardDrained() {
			return ErrAlreadyDrained
		}

		now := e.unixNow()
		resolveWinner(&q, now)
		noCommit := now >= q.CommitEndTime && q.CommittedVoters == 0
		noReveal := now >= q.RevealEndTime && q.NoVotesRevealed()
		if !noCommit && !noReveal {
			return ErrCannotDrainReward
		}

		vaultKey := QuestionVaultAccount(questionKey)
		vault, err := tx.Account(ctx, vaultKey)
		if err != nil {
			return ledgerErr(err)
		}
		drained = vault.Spendable()
		if drained == 0 {
			return ErrInsufficientFunds
		}
		if err := ledgerErr(tx.Transfer(ctx, vaultKey, e.params.FeeReceiver, drained)); err != nil {
			return err
		}

		q.Stage = models.StageDrained
		if err := tx.UpdateQuestion(ctx, q); err != nil {
			return fmt.Errorf("update question: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Info("unclaimed reward drained",
		"question", questionKey,
		"amount", humanize.Comma(int64(drained)),
		"receiver", e.params.FeeReceiver,
	)
	return drained, nil
}

// ReclaimBallotRent closes a ballot that can never be paid (never revealed,
// tie, or losing side) and refunds its deposit.
func (e *Engine) ReclaimBallotRent(ctx context.Context, voter, questionKey string) (uint64, error) {
	var refunded uint64
	err := e.store.Atomic(ctx, func(tx Tx) error {
		q, err := loadQuestion(ctx, tx, questionKey)
		if err != nil {
			return err
		}
		now := e.unixNow()
		if now < q.RevealEndTime {
			return ErrRevealPhaseNotOver
		}
		resolveWinner(&q, now)

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

		canReclaim := !b.Revealed ||
			q.WinningOption == models.OptionTie ||
			b.SelectedOption != q.WinningOption
		if !canReclaim {
			return ErrAlreadyEligibleOrWinner
		}

		refunded, err = refund(ctx, tx, ballotDepositAccount(questionKey, voter), voter)
		if err != nil {
			return err
		}
		b.Status = models.BallotReclaimed
		q.VoterRecordsClosed++

		if err := tx.UpdateBallot(ctx, b); err != nil {
			return fmt.Errorf("update ballot: %w", err)
		}
		if err := tx.UpdateQuestion(ctx, q); err != nil {
			return fmt.Errorf("update question: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Info("ballot rent reclaimed", "question", questionKey, "voter", voter, "refunded", humanize.Comma(int64(refunded)))
	return refunded, nil
}

// DeleteExpiredQuestion closes a fully settled question and refunds its
// deposits to the asker.
func (e *Engine) DeleteExpiredQuestion(ctx context.Context, asker, questionKey string) (uint64, error) {
	var refunded uint64
	err := e.store.Atomic(ctx, func(tx Tx) error {
		q, err := loadQuestion(ctx, tx, questionKey)
		if err != nil {
			return err
		}
		if q.Asker != asker {
			return ErrNotAsker
		}

		now := e.unixNow()
		if now < q.RentExpiration+e.params.DeleteGrace {
			return ErrRentNotExpired
		}

		noCommit := q.CommittedVoters == 0 && now >= q.CommitEndTime
		revealOver := now >= q.RevealEndTime
		allClaimed := q.TotalDistributed >= q.SnapshotReward
		allClosed := q.VoterRecordsClosed == q.VoterRecordsCount
		if !noCommit && !(revealOver && q.NoVotesRevealed()) && !(revealOver && allClaimed && allClosed) {
			return ErrCannotDeleteQuestion
		}

		vaultKey := QuestionVaultAccount(questionKey)
		vault, err := tx.Account(ctx, vaultKey)
		if err != nil {
			return ledgerErr(err)
		}
		if vault.Balance > vault.MinBalance {
			return ErrRemainingRewardExists
		}

		for _, account := range []string{vaultKey, questionDepositAccount(questionKey)} {
			n, err := refund(ctx, tx, account, asker)
			if err != nil {
				return err
			}
			refunded += n
		}

		// Deposits of ballots that were never closed go back to their voters.
		ballots, err := tx.ListBallots(ctx, questionKey)
		if err != nil {
			return fmt.Errorf("list ballots: %w", err)
		}
		for _, b := range ballots {
			if b.Closed() {
				continue
			}
			if _, err := refund(ctx, tx, ballotDepositAccount(questionKey, b.Voter), b.Voter); err != nil {
				return err
			}
		}

		if err := tx.DeleteQuestion(ctx, questionKey); err != nil {
			return fmt.Errorf("delete question: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Info("expired question deleted", "question", questionKey, "asker", asker, "refunded", humanize.Comma(int64(refunded)))
	return refunded, nil
}
