// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the TruthPoll API server.

TruthPoll is a commit-reveal prediction market. Askers escrow a reward on a
two-option question, staked participants commit hidden votes, reveal them
once commits close, and the side with the greater reputation-weighted tally
splits the reward pro rata after a protocol fee.

# Starting the Server

The server reads a .env file if present, then environment variables or CLI
flags:

	ADMIN_KEY_SALT=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -admin-salt s3cret

# Configuration

Required settings:

  - ADMIN_KEY_SALT (-admin-salt): Secret for admin key HMAC

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): Connection string or sqlite file
  - FEE_RECEIVER (-fee-receiver): Ledger account collecting fees and drains
  - DELETE_GRACE (-delete-grace): Seconds before a settled question may be deleted
  - DEV_FAUCET (-dev-faucet): Expose POST /dev/fund

# Architecture

  - engine: Protocol state machine over a transactional store
  - commitment: Keccak-256 commit/reveal binding
  - reputation: Accuracy staircase for vote weight
  - db: SQL store and ledger for postgres and sqlite
  - handlers, router, middleware: HTTP surface
  - models: Domain, request and response types
  - auth: Admin key HMAC
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
