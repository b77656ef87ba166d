// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: Connection string or SQLite file (required)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - AdminKeySalt: Secret for admin key HMAC (required)
  - FeeReceiver: Ledger account for fees and drained rewards (default: fee_receiver)
  - DeleteGrace: Seconds after rent expiration before deletion (default: 86400)
  - DevFaucet: Enables POST /dev/fund (default: false)

# CLI Flags

	-p             Server port
	-d             Database URL
	-t             Database type
	-admin-salt    Admin key salt
	-fee-receiver  Fee receiver account
	-delete-grace  Delete grace period in seconds
	-dev-faucet    Enable the development faucet

# Environment Variables

Flags fall back to environment variables:

	PORT           → -p
	DATABASE_URL   → -d
	DATABASE_TYPE  → -t
	ADMIN_KEY_SALT → -admin-salt
	FEE_RECEIVER   → -fee-receiver
	DELETE_GRACE   → -delete-grace
	DEV_FAUCET     → -dev-faucet

CLI flags take precedence over environment variables. main loads a .env file
from the working directory, if present, before parsing.

# Validation

ParseFlags returns an error if required values are missing:

  - DATABASE_URL must be provided
  - ADMIN_KEY_SALT must be provided

# Example

	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	eng := engine.New(store, cfg.EngineParams())
	mux := router.NewRouter(eng, cfg)
*/
package cliparse
