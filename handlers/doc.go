// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the TruthPoll API.

# Handler Types

Each handler is a struct holding the engine and config:

  - UserHandler: Joining, leaving and the caller's record
  - LedgerHandler: Wallet balance and the development faucet
  - QuestionHandler: Counters, question lifecycle and finalization
  - VotingHandler: Commit, reveal, claim and recovery

Handlers are created via constructor functions that accept *engine.Engine
and Config:

	votingHandler := handlers.NewVotingHandler(eng, cfg)

Handlers never touch the database directly. Every state change is one
engine call, and engine failures are mapped to HTTP statuses by
middleware.EngineError.

# Question Lifecycle

	POST   /counters                 → InitCounter (once per asker)
	POST   /questions                → CreateQuestion (returns admin_key)
	GET    /questions/{key}          → GetQuestion (tallies sealed until reveal end)
	POST   /questions/{key}/finalize → Finalize (requires X-Admin-Key)
	DELETE /questions/{key}          → DeleteQuestion (asker only)

# Voting Flow

	POST /questions/{key}/commit  → CommitVote (hex Keccak-256 digest)
	POST /questions/{key}/reveal  → RevealVote (secret)
	POST /questions/{key}/claim   → ClaimReward (optional claim_reference)
	POST /questions/{key}/reclaim → Reclaim (losers, ties, unrevealed)
	POST /questions/{key}/drain   → Drain (anyone, no participation)

The caller is identified by the X-Participant header. Operations that act
for a participant reject requests without it with 401.
*/
package handlers
