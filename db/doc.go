// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db persists engine state on database/sql.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same DDL runs on PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite).

# Tables

  - ledger_account: Balances and retained minimums, keyed by account key
  - user_record: Joined participants and their reputation counters
  - question_counter: Per-asker question sequence
  - question: Question metadata, tallies and settlement progress
  - ballot: One ballot per voter per question

# Relationships

	question_counter 1──* question (by asker)
	question 1──* ballot

Ballot rows stay after a claim or reclaim; only their deposit accounts are
closed. DeleteQuestion removes the ballots explicitly.

# Transactions

Store implements engine.Store. Each Atomic call runs in one SQL transaction
and each Get locks its row with FOR UPDATE on PostgreSQL. SQLite stores are
limited to a single connection, which serializes transactions.

	store, err := db.NewStore(conn, db.TypeSQLite)
	err = store.Atomic(ctx, func(tx engine.Tx) error {
		return tx.Transfer(ctx, "wallet:alice", "vault:user:alice", 100)
	})

Queries are written with $N placeholders and rebound to ?N for SQLite.
*/
package db
