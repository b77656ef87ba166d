// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the TruthPoll API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(eng, cfg)

# Endpoints

Health:

	GET /health

Participants (require X-Participant):

	POST /users/join        - Join and lock the stake
	POST /users/leave       - Leave and refund the stake
	GET  /users/me          - Reputation and history
	GET  /users/me/ballots  - Ballots the caller has cast
	GET  /accounts/me       - Wallet balance

Questions:

	POST   /counters                 - Initialize the caller's question counter
	POST   /questions                - Create a question
	GET    /questions/{key}          - Question state and escrow
	DELETE /questions/{key}          - Delete a settled question
	POST   /questions/{key}/finalize - Record the report (requires X-Admin-Key)
	GET    /askers/{asker}/questions - List an asker's questions

Voting and settlement:

	POST /questions/{key}/commit    - Commit a hidden vote
	POST /questions/{key}/reveal    - Reveal a committed vote
	POST /questions/{key}/claim     - Claim a reward share
	POST /questions/{key}/reclaim   - Reclaim ballot rent
	POST /questions/{key}/drain     - Drain an unused reward
	GET  /questions/{key}/my-ballot - The caller's ballot
	GET  /questions/{key}/ballots   - All ballots, sealed until reveal end

Development (only with -dev-faucet):

	POST /dev/fund - Credit a wallet
*/
package router
