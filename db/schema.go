// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Portable between PostgreSQL and SQLite: integers are BIGINT, digests and
// receipts are stored as text.
const schema = `
-- Ledger accounts
CREATE TABLE IF NOT EXISTS ledger_account (
    account_key TEXT PRIMARY KEY,
    balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
    min_balance BIGINT NOT NULL DEFAULT 0
);

-- Participant registry
CREATE TABLE IF NOT EXISTS user_record (
    participant TEXT PRIMARY KEY,
    reputation SMALLINT NOT NULL CHECK (reputation >= 1 AND reputation <= 19),
    total_earnings BIGINT NOT NULL DEFAULT 0,
    total_revealed_votes BIGINT NOT NULL DEFAULT 0,
    total_correct_votes BIGINT NOT NULL DEFAULT 0,
    created_at BIGINT NOT NULL
);

-- Per-asker question sequence
CREATE TABLE IF NOT EXISTS question_counter (
    owner TEXT PRIMARY KEY,
    question_count BIGINT NOT NULL DEFAULT 0
);

-- Questions
CREATE TABLE IF NOT EXISTS question (
    question_key TEXT PRIMARY KEY,
    id BIGINT NOT NULL,
    asker TEXT NOT NULL,
    question_text TEXT NOT NULL,
    option_1 TEXT NOT NULL,
    option_2 TEXT NOT NULL,
    commit_end_time BIGINT NOT NULL,
    reveal_end_time BIGINT NOT NULL,
    rent_expiration BIGINT NOT NULL,
    created_at BIGINT NOT NULL,
    votes_option_1 BIGINT NOT NULL DEFAULT 0,
    votes_option_2 BIGINT NOT NULL DEFAULT 0,
    committed_voters BIGINT NOT NULL DEFAULT 0,
    finalized BOOLEAN NOT NULL DEFAULT FALSE,
    reported_option SMALLINT NOT NULL DEFAULT 0,
    winning_percent TEXT NOT NULL DEFAULT '0',
    eligible_voters BIGINT NOT NULL DEFAULT 0,
    settlement_stage TEXT NOT NULL DEFAULT 'open'
        CHECK (settlement_stage IN ('open', 'resolved', 'distributing', 'settled', 'drained')),
    winning_option SMALLINT NOT NULL DEFAULT 255,
    original_reward BIGINT NOT NULL DEFAULT 0,
    snapshot_reward BIGINT NOT NULL DEFAULT 0,
    snapshot_total_weight BIGINT NOT NULL DEFAULT 0,
    total_distributed BIGINT NOT NULL DEFAULT 0,
    claimed_weight BIGINT NOT NULL DEFAULT 0,
    claimed_voters_count BIGINT NOT NULL DEFAULT 0,
    voter_records_count BIGINT NOT NULL DEFAULT 0,
    voter_records_closed BIGINT NOT NULL DEFAULT 0,
    UNIQUE (asker, id)
);

CREATE INDEX IF NOT EXISTS idx_question_asker ON question(asker);

-- Ballots
CREATE TABLE IF NOT EXISTS ballot (
    question_key TEXT NOT NULL REFERENCES question(question_key) ON DELETE CASCADE,
    voter TEXT NOT NULL,
    commitment TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'committed'
        CHECK (status IN ('committed', 'revealed', 'claimed', 'reclaimed')),
    revealed BOOLEAN NOT NULL DEFAULT FALSE,
    selected_option SMALLINT NOT NULL DEFAULT 0,
    vote_weight BIGINT NOT NULL DEFAULT 0,
    claimed BOOLEAN NOT NULL DEFAULT FALSE,
    claim_reference TEXT NOT NULL DEFAULT '',
    payout BIGINT NOT NULL DEFAULT 0,
    committed_at BIGINT NOT NULL,
    PRIMARY KEY (question_key, voter)
);

CREATE INDEX IF NOT EXISTS idx_ballot_voter ON ballot(voter);
`
