// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/danielhkuo/truthpoll/commitment"
)

// Ledger account keys.

func WalletAccount(participant string) string {
	return "wallet:" + participant
}

func UserVaultAccount(participant string) string {
	return "vault:user:" + participant
}

func QuestionVaultAccount(questionKey string) string {
	return "vault:question:" + questionKey
}

func userDepositAccount(participant string) string {
	return "deposit:user:" + participant
}

func counterDepositAccount(owner string) string {
	return "deposit:counter:" + owner
}

func questionDepositAccount(questionKey string) string {
	return "deposit:question:" + questionKey
}

func ballotDepositAccount(questionKey, voter string) string {
	return "deposit:ballot:" + questionKey + ":" + voter
}

// QuestionKey derives the identity of an asker's id-th question.
func QuestionKey(asker string, id uint64) string {
	var le [8]byte
	binary.LittleEndian.PutUint64(le[:], id)
	d := commitment.Keccak256([]byte("question"), []byte(asker), le[:])
	return hex.EncodeToString(d[:16])
}
