// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/danielhkuo/truthpoll/models"
)

// InitializeCounter creates the asker's question counter.
func (e *Engine) InitializeCounter(ctx context.Context, owner string) (models.QuestionCounter, error) {
	if err := ValidateParticipant(owner); err != nil {
		return models.QuestionCounter{}, err
	}

	counter := models.QuestionCounter{Owner: owner}
	err := e.store.Atomic(ctx, func(tx Tx) error {
		_, err := tx.GetCounter(ctx, owner)
		if err == nil {
			return ErrAlreadyInitialized
		}
		if !errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("get counter: %w", err)
		}
		if err := pay(ctx, tx, WalletAccount(owner), counterDepositAccount(owner), CounterSize); err != nil {
			return err
		}
		if err := tx.InsertCounter(ctx, counter); err != nil {
			return fmt.Errorf("insert counter: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.QuestionCounter{}, err
	}

	slog.Info("question counter initialized", "owner", owner)
	return counter, nil
}

func (e *Engine) validateQuestion(req models.CreateQuestionRequest, now int64) error {
	n := utf8.RuneCountInString(req.Text)
	if n < e.params.MinTextLen {
		return ErrQuestionTooShort
	}
	if n > e.params.MaxTextLen {
		return ErrQuestionTooLong
	}
	if now >= req.CommitEndTime {
		return ErrVotingEnded
	}
	if req.CommitEndTime >= req.RevealEndTime {
		return ErrInvalidTimeframe
	}
	if req.Reward < e.params.MinReward {
		return ErrRewardTooSmall
	}
	return nil
}

// CreateQuestion escrows the reward and opens a new question under the
// asker's next counter value.
func (e *Engine) CreateQuestion(ctx context.Context, asker string, req models.CreateQuestionRequest) (models.Question, error) {
	if err := ValidateParticipant(asker); err != nil {
		return models.Question{}, err
	}
	now := e.unixNow()
	if err := e.validateQuestion(req, now); err != nil {
		return models.Question{}, err
	}

	var q models.Question
	err := e.store.Atomic(ctx, func(tx Tx) error {
		counter, err := tx.GetCounter(ctx, asker)
		if errors.Is(err, models.ErrNotFound) {
			return ErrCounterNotInitialized
		}
		if err != nil {
			return fmt.Errorf("get counter: %w", err)
		}

		key := QuestionKey(asker, counter.Count)
		wallet := WalletAccount(asker)
		vault := QuestionVaultAccount(key)
		if err := pay(ctx, tx, wallet, vault, VaultSize); err != nil {
			return err
		}
		if err := ledgerErr(tx.Transfer(ctx, wallet, vault, req.Reward)); err != nil {
			return err
		}
		if err := pay(ctx, tx, wallet, questionDepositAccount(key), QuestionRecordSize); err != nil {
			return err
		}

		q = models.Question{
			Key:            key,
			ID:             counter.Count,
			Asker:          asker,
			Text:           req.Text,
			Option1:        models.LabelOption1,
			Option2:        models.LabelOption2,
			CommitEndTime:  req.CommitEndTime,
			RevealEndTime:  req.RevealEndTime,
			RentExpiration: now,
			CreatedAt:      now,
			WinningPercent: "0",
			Stage:          models.StageOpen,
			WinningOption:  models.OptionUnset,
		}
		if err := tx.InsertQuestion(ctx, q); err != nil {
			return fmt.Errorf("insert question: %w", err)
		}

		next, ok := add64(counter.Count, 1)
		if !ok {
			return ErrOverflow
		}
		counter.Count = next
		if err := tx.UpdateCounter(ctx, counter); err != nil {
			return fmt.Errorf("update counter: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Question{}, err
	}

	slog.Info("question created",
		"question", q.Key,
		"id", q.ID,
		"asker", asker,
		"reward", humanize.Comma(int64(req.Reward)),
	)
	return q, nil
}

// Question returns a question, resolving its winner if that is now due.
func (e *Engine) Question(ctx context.Context, key string) (models.Question, error) {
	var q models.Question
	err := e.store.Atomic(ctx, func(tx Tx) error {
		var err error
		q, err = loadQuestion(ctx, tx, key)
		if err != nil {
			return err
		}
		if resolveWinner(&q, e.unixNow()) {
			if err := tx.UpdateQuestion(ctx, q); err != nil {
				return fmt.Errorf("update question: %w", err)
			}
		}
		return nil
	})
	return q, err
}

func (e *Engine) Questions(ctx context.Context, asker string) ([]models.Question, error) {
	var qs []models.Question
	err := e.store.Atomic(ctx, func(tx Tx) error {
		var err error
		qs, err = tx.ListQuestions(ctx, asker)
		if err != nil {
			return fmt.Errorf("list questions: %w", err)
		}
		return nil
	})
	return qs, err
}

// Ballot returns voter's ballot on a question.
func (e *Engine) Ballot(ctx context.Context, questionKey, voter string) (models.Ballot, error) {
	var b models.Ballot
	err := e.store.Atomic(ctx, func(tx Tx) error {
		var err error
		b, err = loadBallot(ctx, tx, questionKey, voter)
		return err
	})
	return b, err
}

// Ballots lists every ballot cast on a question.
func (e *Engine) Ballots(ctx context.Context, questionKey string) ([]models.Ballot, error) {
	var bs []models.Ballot
	err := e.store.Atomic(ctx, func(tx Tx) error {
		if _, err := loadQuestion(ctx, tx, questionKey); err != nil {
			return err
		}
		var err error
		bs, err = tx.ListBallots(ctx, questionKey)
		if err != nil {
			return fmt.Errorf("list ballots: %w", err)
		}
		return nil
	})
	return bs, err
}

// VoterBallots lists every ballot a participant has cast.
func (e *Engine) VoterBallots(ctx context.Context, voter string) ([]models.Ballot, error) {
	var bs []models.Ballot
	err := e.store.Atomic(ctx, func(tx Tx) error {
		var err error
		bs, err = tx.ListVoterBallots(ctx, voter)
		if err != nil {
			return fmt.Errorf("list ballots: %w", err)
		}
		return nil
	})
	return bs, err
}

// Finalize records the reporting summary of a question. It does not touch
// the winner used for settlement.
func (e *Engine) Finalize(ctx context.Context, key string, questionID uint64) (models.Question, error) {
	var q models.Question
	err := e.store.Atomic(ctx, func(tx Tx) error {
		var err error
		q, err = loadQuestion(ctx, tx, key)
		if err != nil {
			return err
		}
		if q.ID != questionID {
			return ErrQuestionIDMismatch
		}
		if e.unixNow() < q.RevealEndTime {
			return ErrVotingStillActive
		}
		if q.Finalized {
			return ErrAlreadyFinalized
		}

		total, ok := add64(q.VotesOption1, q.VotesOption2)
		if !ok {
			return ErrOverflow
		}
		option, votes := models.Option1, q.VotesOption1
		if q.VotesOption2 > q.VotesOption1 {
			option, votes = models.Option2, q.VotesOption2
		}

		q.ReportedOption = option
		q.EligibleVoters = votes
		q.WinningPercent = winningPercent(votes, total)
		q.Finalized = true
		if err := tx.UpdateQuestion(ctx, q); err != nil {
			return fmt.Errorf("update question: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Question{}, err
	}

	slog.Info("voting finalized",
		"question", q.Key,
		"votes_option_1", q.VotesOption1,
		"votes_option_2", q.VotesOption2,
		"winning_option", q.ReportedOption,
		"winning_percent", q.WinningPercent,
	)
	return q, nil
}

func winningPercent(votes, total uint64) string {
	if total == 0 {
		return "0"
	}
	v := decimal.NewFromBigInt(new(big.Int).SetUint64(votes), 0)
	t := decimal.NewFromBigInt(new(big.Int).SetUint64(total), 0)
	return v.Mul(decimal.NewFromInt(100)).Div(t).Round(2).String()
}
