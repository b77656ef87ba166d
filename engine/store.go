// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"

	"github.com/danielhkuo/truthpoll/models"
)

// Ledger is the balance capability the engine consumes.
//
// Transfers never take an account below its minimum balance; only
// CloseAccount releases the retained minimum.
type Ledger interface {
	OpenAccount(ctx context.Context, key string, minBalance uint64) error
	Account(ctx context.Context, key string) (models.Account, error)
	Transfer(ctx context.Context, from, to string, amount uint64) error
	// CloseAccount moves the whole balance to beneficiary and removes the
	// account, returning the amount moved.
	CloseAccount(ctx context.Context, key, beneficiary string) (uint64, error)
	Credit(ctx context.Context, key string, amount uint64) error
}

// Tx is one atomic unit of work. Get methods return models.ErrNotFound for
// missing records and lock the rows they return for the rest of the Tx.
type Tx interface {
	Ledger

	GetUser(ctx context.Context, participant string) (models.UserRecord, error)
	InsertUser(ctx context.Context, u models.UserRecord) error
	UpdateUser(ctx context.Context, u models.UserRecord) error
	DeleteUser(ctx context.Context, participant string) error

	GetCounter(ctx context.Context, owner string) (models.QuestionCounter, error)
	InsertCounter(ctx context.Context, c models.QuestionCounter) error
	UpdateCounter(ctx context.Context, c models.QuestionCounter) error

	GetQuestion(ctx context.Context, key string) (models.Question, error)
	ListQuestions(ctx context.Context, asker string) ([]models.Question, error)
	InsertQuestion(ctx context.Context, q models.Question) error
	UpdateQuestion(ctx context.Context, q models.Question) error
	DeleteQuestion(ctx context.Context, key string) error

	GetBallot(ctx context.Context, questionKey, voter string) (models.Ballot, error)
	ListBallots(ctx context.Context, questionKey string) ([]models.Ballot, error)
	ListVoterBallots(ctx context.Context, voter string) ([]models.Ballot, error)
	InsertBallot(ctx context.Context, b models.Ballot) error
	UpdateBallot(ctx context.Context, b models.Ballot) error
}

// Store runs fn atomically: if fn returns an error, none of its writes are
// kept.
type Store interface {
	Atomic(ctx context.Context, fn func(tx Tx) error) error
}
