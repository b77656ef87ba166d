// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/danielhkuo/truthpoll/models"
)

// OpenAccount creates an empty account that must keep minBalance once funded.
func (t *Tx) OpenAccount(ctx context.Context, key string, minBalance uint64) error {
	_, err := t.Account(ctx, key)
	if err == nil {
		return models.ErrAccountExists
	}
	if !errors.Is(err, models.ErrNotFound) {
		return err
	}
	if _, err := t.exec(ctx, `
		INSERT INTO ledger_account (account_key, balance, min_balance)
		VALUES ($1, 0, $2)
	`, key, minBalance); err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (t *Tx) Account(ctx context.Context, key string) (models.Account, error) {
	a := models.Account{Key: key}
	err := t.queryRow(ctx, `
		SELECT balance, min_balance FROM ledger_account WHERE account_key = $1
	`+t.lock(), key).Scan(&a.Balance, &a.MinBalance)
	if err == sql.ErrNoRows {
		return a, models.ErrNotFound
	}
	if err != nil {
		return a, fmt.Errorf("query account: %w", err)
	}
	return a, nil
}

func (t *Tx) setBalance(ctx context.Context, key string, balance uint64) error {
	if err := t.execOne(ctx, `
		UPDATE ledger_account SET balance = $1 WHERE account_key = $2
	`, balance, key); err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	return nil
}

// Credit adds amount to key, creating the account if needed.
func (t *Tx) Credit(ctx context.Context, key string, amount uint64) error {
	a, err := t.Account(ctx, key)
	if errors.Is(err, models.ErrNotFound) {
		if amount > math.MaxInt64 {
			return models.ErrBalanceOverflow
		}
		if _, err := t.exec(ctx, `
			INSERT INTO ledger_account (account_key, balance, min_balance)
			VALUES ($1, $2, 0)
		`, key, amount); err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
		return nil
	}
	if err != nil {
		return err
	}
	if amount > math.MaxInt64-a.Balance {
		return models.ErrBalanceOverflow
	}
	return t.setBalance(ctx, key, a.Balance+amount)
}

// Transfer moves amount from one account to another. The source may not drop
// below its minimum balance.
func (t *Tx) Transfer(ctx context.Context, from, to string, amount uint64) error {
	if amount == 0 || from == to {
		return nil
	}
	src, err := t.Account(ctx, from)
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("%w: %s has no account", models.ErrInsufficientBalance, from)
	}
	if err != nil {
		return err
	}
	if src.Balance < amount || src.Balance-amount < src.MinBalance {
		return fmt.Errorf("%w: %s holds %d, needs %d", models.ErrInsufficientBalance, from, src.Spendable(), amount)
	}
	if err := t.setBalance(ctx, from, src.Balance-amount); err != nil {
		return err
	}
	return t.Credit(ctx, to, amount)
}

// CloseAccount moves the whole balance, retained minimum included, to
// beneficiary and removes the account.
func (t *Tx) CloseAccount(ctx context.Context, key, beneficiary string) (uint64, error) {
	a, err := t.Account(ctx, key)
	if err != nil {
		return 0, err
	}
	if a.Balance > 0 {
		if err := t.Credit(ctx, beneficiary, a.Balance); err != nil {
			return 0, err
		}
	}
	if err := t.execOne(ctx, `DELETE FROM ledger_account WHERE account_key = $1`, key); err != nil {
		return 0, fmt.Errorf("delete account: %w", err)
	}
	return a.Balance, nil
}
