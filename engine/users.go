// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/truthpoll/models"
	"github.com/danielhkuo/truthpoll/reputation"
)

// Join registers participant and locks the join stake.
func (e *Engine) Join(ctx context.Context, participant string) (models.UserRecord, error) {
	if err := ValidateParticipant(participant); err != nil {
		return models.UserRecord{}, err
	}

	var user models.UserRecord
	err := e.store.Atomic(ctx, func(tx Tx) error {
		_, err := tx.GetUser(ctx, participant)
		if err == nil {
			return ErrAlreadyJoined
		}
		if !errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("get user: %w", err)
		}

		wallet := WalletAccount(participant)
		if err := pay(ctx, tx, wallet, userDepositAccount(participant), UserRecordSize); err != nil {
			return err
		}
		vault := UserVaultAccount(participant)
		if err := pay(ctx, tx, wallet, vault, VaultSize); err != nil {
			return err
		}
		if err := ledgerErr(tx.Transfer(ctx, wallet, vault, e.params.JoinStake)); err != nil {
			return err
		}

		user = models.UserRecord{
			Participant: participant,
			Reputation:  reputation.Weight(0, 0),
			CreatedAt:   e.unixNow(),
		}
		if err := tx.InsertUser(ctx, user); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.UserRecord{}, err
	}

	slog.Info("user joined", "participant", participant, "stake", humanize.Comma(int64(e.params.JoinStake)))
	return user, nil
}

// Leave closes the participant's registry entry and stake vault, returning
// everything refunded to their wallet.
func (e *Engine) Leave(ctx context.Context, participant string) (uint64, error) {
	var refunded uint64
	err := e.store.Atomic(ctx, func(tx Tx) error {
		if _, err := loadUser(ctx, tx, participant); err != nil {
			return err
		}

		for _, account := range []string{UserVaultAccount(participant), userDepositAccount(participant)} {
			n, err := refund(ctx, tx, account, participant)
			if err != nil {
				return err
			}
			refunded += n
		}

		if err := tx.DeleteUser(ctx, participant); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Info("user left", "participant", participant, "refunded", humanize.Comma(int64(refunded)))
	return refunded, nil
}

func (e *Engine) User(ctx context.Context, participant string) (models.UserRecord, error) {
	var user models.UserRecord
	err := e.store.Atomic(ctx, func(tx Tx) error {
		var err error
		user, err = loadUser(ctx, tx, participant)
		return err
	})
	return user, err
}

// Airdrop credits a participant wallet. Used by the development faucet.
func (e *Engine) Airdrop(ctx context.Context, participant string, amount uint64) (models.Account, error) {
	if err := ValidateParticipant(participant); err != nil {
		return models.Account{}, err
	}
	if amount == 0 {
		return models.Account{}, ErrInvalidAmount
	}

	var account models.Account
	err := e.store.Atomic(ctx, func(tx Tx) error {
		key := WalletAccount(participant)
		if err := ledgerErr(tx.Credit(ctx, key, amount)); err != nil {
			return err
		}
		var err error
		account, err = tx.Account(ctx, key)
		return ledgerErr(err)
	})
	return account, err
}

// Account returns a ledger account snapshot.
func (e *Engine) Account(ctx context.Context, key string) (models.Account, error) {
	var account models.Account
	err := e.store.Atomic(ctx, func(tx Tx) error {
		var err error
		account, err = tx.Account(ctx, key)
		return ledgerErr(err)
	})
	return account, err
}
