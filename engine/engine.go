// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/truthpoll/models"
)

const maxParticipantLen = 64

type Engine struct {
	store  Store
	params Params
	now    func() time.Time
}

type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func New(store Store, params Params, opts ...Option) *Engine {
	e := &Engine{store: store, params: params, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Params() Params {
	return e.params
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

func (e *Engine) unixNow() int64 {
	return e.now().Unix()
}

// ValidateParticipant checks that id can be used inside ledger account keys.
func ValidateParticipant(id string) error {
	if id == "" || len(id) > maxParticipantLen || strings.ContainsAny(id, ": \t\n") {
		return ErrInvalidParticipant
	}
	return nil
}

// ledgerErr translates store-level ledger failures.
func ledgerErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrInsufficientBalance):
		return ErrInsufficientFunds
	case errors.Is(err, models.ErrBalanceOverflow):
		return ErrOverflow
	case errors.Is(err, models.ErrNotFound):
		return ErrAccountNotFound
	default:
		return fmt.Errorf("ledger: %w", err)
	}
}

// pay opens account with the deposit for a record of size bytes, funded by
// payer.
func pay(ctx context.Context, tx Tx, payer, account string, size uint64) error {
	deposit := MinimumBalance(size)
	if err := tx.OpenAccount(ctx, account, deposit); err != nil && !errors.Is(err, models.ErrAccountExists) {
		return ledgerErr(err)
	}
	return ledgerErr(tx.Transfer(ctx, payer, account, deposit))
}

// refund closes a deposit account into the participant's wallet.
func refund(ctx context.Context, tx Tx, account, participant string) (uint64, error) {
	n, err := tx.CloseAccount(ctx, account, WalletAccount(participant))
	if errors.Is(err, models.ErrNotFound) {
		return 0, nil
	}
	return n, ledgerErr(err)
}

func loadQuestion(ctx context.Context, tx Tx, key string) (models.Question, error) {
	q, err := tx.GetQuestion(ctx, key)
	if errors.Is(err, models.ErrNotFound) {
		return q, ErrQuestionNotFound
	}
	if err != nil {
		return q, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

func loadUser(ctx context.Context, tx Tx, participant string) (models.UserRecord, error) {
	u, err := tx.GetUser(ctx, participant)
	if errors.Is(err, models.ErrNotFound) {
		return u, ErrNotJoined
	}
	if err != nil {
		return u, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func loadBallot(ctx context.Context, tx Tx, questionKey, voter string) (models.Ballot, error) {
	b, err := tx.GetBallot(ctx, questionKey, voter)
	if errors.Is(err, models.ErrNotFound) {
		return b, ErrBallotNotFound
	}
	if err != nil {
		return b, fmt.Errorf("get ballot: %w", err)
	}
	return b, nil
}

// resolveWinner memoizes the winning option once the reveal phase is over.
// It reports whether q changed.
func resolveWinner(q *models.Question, now int64) bool {
	if q.Stage != models.StageOpen || now < q.RevealEndTime {
		return false
	}
	switch {
	case q.VotesOption1 == q.VotesOption2:
		q.WinningOption = models.OptionTie
	case q.VotesOption1 > q.VotesOption2:
		q.WinningOption = models.Option1
	default:
		q.WinningOption = models.Option2
	}
	q.Stage = models.StageResolved
	return true
}
