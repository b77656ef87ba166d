// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package commitment implements the commit/reveal binding of a ballot choice.
//
// A digest is Keccak-256 over the decimal choice code followed by the secret.
// Revealing tries each choice in turn, so secrecy lasts only until the secret
// is published.
package commitment

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/sha3"
)

const DigestSize = 32

// Choices that can be committed to.
const (
	OptionTrue  uint8 = 1
	OptionFalse uint8 = 2
)

var (
	ErrInvalidReveal = errors.New("secret does not match commitment")
	ErrInvalidChoice = errors.New("choice must be 1 or 2")
	ErrInvalidDigest = errors.New("commitment must be 32 bytes of hex")
)

type Digest [DigestSize]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// IsZero reports whether no commitment has been recorded.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// Keccak256 hashes data with the legacy (pre-NIST) Keccak-256.
func Keccak256(data ...[]byte) Digest {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		h.Write(b)
	}
	var d Digest
	h.Sum(d[:0])
	return d
}

// Commit binds choice to secret.
func Commit(choice uint8, secret string) (Digest, error) {
	if choice != OptionTrue && choice != OptionFalse {
		return Digest{}, ErrInvalidChoice
	}
	return Keccak256([]byte(strconv.Itoa(int(choice)) + secret)), nil
}

// Reveal recovers the committed choice from digest and secret.
func Reveal(digest Digest, secret string) (uint8, error) {
	for _, choice := range []uint8{OptionTrue, OptionFalse} {
		d, _ := Commit(choice, secret)
		if d == digest {
			return choice, nil
		}
	}
	return 0, ErrInvalidReveal
}

// ParseDigest decodes a hex digest, with or without a 0x prefix.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return d, fmt.Errorf("%w: %v", ErrInvalidDigest, err)
	}
	if len(b) != DigestSize {
		return d, ErrInvalidDigest
	}
	copy(d[:], b)
	return d, nil
}
