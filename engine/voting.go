// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/truthpoll/commitment"
	"github.com/danielhkuo/truthpoll/models"
)

// CommitVote records a hidden vote. The first commit creates the ballot and
// pays its deposit; a later commit before the deadline replaces the digest.
func (e *Engine) CommitVote(ctx context.Context, voter, questionKey string, digest commitment.Digest) (models.Ballot, error) {
	if digest.IsZero() {
		return models.Ballot{}, ErrInvalidCommitment
	}

	var b models.Ballot
	err := e.store.Atomic(ctx, func(tx Tx) error {
		q, err := loadQuestion(ctx, tx, questionKey)
		if err != nil {
			return err
		}
		now := e.unixNow()
		if now >= q.CommitEndTime {
			return ErrCommitPhaseEnded
		}
		if _, err := loadUser(ctx, tx, voter); err != nil {
			return err
		}

		b, err = tx.GetBallot(ctx, questionKey, voter)
		switch {
		case err == nil:
			if b.Revealed {
				return ErrAlreadyRevealed
			}
			b.Commitment = digest
			b.CommittedAt = now
			if err := tx.UpdateBallot(ctx, b); err != nil {
				return fmt.Errorf("update ballot: %w", err)
			}
			return nil
		case !errors.Is(err, models.ErrNotFound):
			return fmt.Errorf("get ballot: %w", err)
		}

		if err := pay(ctx, tx, WalletAccount(voter), ballotDepositAccount(questionKey, voter), BallotRecordSize); err != nil {
			return err
		}
		b = models.Ballot{
			QuestionKey: questionKey,
			Voter:       voter,
			Commitment:  digest,
			Status:      models.BallotCommitted,
			CommittedAt: now,
		}
		if err := tx.InsertBallot(ctx, b); err != nil {
			return fmt.Errorf("insert ballot: %w", err)
		}

		q.CommittedVoters++
		q.VoterRecordsCount++
		if err := tx.UpdateQuestion(ctx, q); err != nil {
			return fmt.Errorf("update question: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Ballot{}, err
	}

	slog.Info("vote committed", "question", questionKey, "voter", voter)
	return b, nil
}

// RevealVote opens a committed vote and adds its weight to the tally. The
// weight is the voter's reputation at this moment and is never recomputed.
func (e *Engine) RevealVote(ctx context.Context, voter, questionKey, secret string) (models.Ballot, error) {
	var b models.Ballot
	err := e.store.Atomic(ctx, func(tx Tx) error {
		q, err := loadQuestion(ctx, tx, questionKey)
		if err != nil {
			return err
		}
		user, err := loadUser(ctx, tx, voter)
		if err != nil {
			return err
		}
		b, err = loadBallot(ctx, tx, questionKey, voter)
		if err != nil {
			return err
		}

		if user.CreatedAt > b.CommittedAt {
			return ErrRejoinedAfterCommit
		}
		if b.Revealed {
			return ErrAlreadyRevealed
		}
		if e.unixNow() >= q.RevealEndTime {
			return ErrRevealPhaseEnded
		}

		choice, err := commitment.Reveal(b.Commitment, secret)
		if err != nil {
			return ErrInvalidReveal
		}

		b.Revealed = true
		b.Status = models.BallotRevealed
		b.SelectedOption = choice
		b.VoteWeight = user.VoteWeight()

		var ok bool
		if choice == models.Option1 {
			q.VotesOption1, ok = add64(q.VotesOption1, b.VoteWeight)
		} else {
			q.VotesOption2, ok = add64(q.VotesOption2, b.VoteWeight)
		}
		if !ok {
			return ErrOverflow
		}

		user.RecordOutcome(true, false)

		if err := tx.UpdateBallot(ctx, b); err != nil {
			return fmt.Errorf("update ballot: %w", err)
		}
		if err := tx.UpdateQuestion(ctx, q); err != nil {
			return fmt.Errorf("update question: %w", err)
		}
		if err := tx.UpdateUser(ctx, user); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Ballot{}, err
	}

	slog.Info("vote revealed",
		"question", questionKey,
		"voter", voter,
		"option", b.SelectedOption,
		"weight", b.VoteWeight,
	)
	return b, nil
}
