// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Domain Types

Persisted records:

  - UserRecord: reputation and lifetime statistics per participant
  - QuestionCounter: per-asker sequence used to derive question keys
  - Question: phase timers, weighted tallies, settlement bookkeeping
  - Ballot: one per voter per question (commitment, reveal, claim)
  - Account: ledger balance snapshot

UserRecord.RecordOutcome is the only place reputation is recomputed.

# Settlement Stages

A question's settlement progresses through:

	open → resolved → distributing → settled
	open | resolved → drained

# Option Codes

	OptionTie   = 0
	Option1     = 1 ("True")
	Option2     = 2 ("False")
	OptionUnset = 255

# Storage Errors

ErrNotFound, ErrAccountExists, ErrInsufficientBalance and ErrBalanceOverflow
are returned by store implementations and translated by the engine.
*/
package models
