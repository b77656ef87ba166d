// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/truthpoll/cliparse"
	"github.com/danielhkuo/truthpoll/engine"
	"github.com/danielhkuo/truthpoll/handlers"
	"github.com/danielhkuo/truthpoll/middleware"
)

func NewRouter(eng *engine.Engine, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	userHandler := handlers.NewUserHandler(eng, cfg)
	ledgerHandler := handlers.NewLedgerHandler(eng, cfg)
	questionHandler := handlers.NewQuestionHandler(eng, cfg)
	votingHandler := handlers.NewVotingHandler(eng, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Participants
	mux.HandleFunc("POST /users/join", middleware.WithLogging(userHandler.Join))
	mux.HandleFunc("POST /users/leave", middleware.WithLogging(userHandler.Leave))
	mux.HandleFunc("GET /users/me", middleware.WithLogging(userHandler.GetMe))
	mux.HandleFunc("GET /users/me/ballots", middleware.WithLogging(userHandler.GetMyBallots))
	mux.HandleFunc("GET /accounts/me", middleware.WithLogging(ledgerHandler.GetBalance))

	// Question lifecycle
	mux.HandleFunc("POST /counters", middleware.WithLogging(questionHandler.InitCounter))
	mux.HandleFunc("POST /questions", middleware.WithLogging(questionHandler.CreateQuestion))
	mux.HandleFunc("GET /questions/{key}", middleware.WithLogging(questionHandler.GetQuestion))
	mux.HandleFunc("DELETE /questions/{key}", middleware.WithLogging(questionHandler.DeleteQuestion))
	mux.HandleFunc("POST /questions/{key}/finalize", middleware.WithLogging(questionHandler.Finalize))
	mux.HandleFunc("GET /askers/{asker}/questions", middleware.WithLogging(questionHandler.ListQuestions))

	// Voting and settlement
	mux.HandleFunc("POST /questions/{key}/commit", middleware.WithLogging(votingHandler.CommitVote))
	mux.HandleFunc("POST /questions/{key}/reveal", middleware.WithLogging(votingHandler.RevealVote))
	mux.HandleFunc("POST /questions/{key}/claim", middleware.WithLogging(votingHandler.ClaimReward))
	mux.HandleFunc("POST /questions/{key}/reclaim", middleware.WithLogging(votingHandler.Reclaim))
	mux.HandleFunc("POST /questions/{key}/drain", middleware.WithLogging(votingHandler.Drain))
	mux.HandleFunc("GET /questions/{key}/my-ballot", middleware.WithLogging(votingHandler.GetMyBallot))
	mux.HandleFunc("GET /questions/{key}/ballots", middleware.WithLogging(votingHandler.ListBallots))

	// Development faucet
	if cfg.DevFaucet {
		mux.HandleFunc("POST /dev/fund", middleware.WithLogging(ledgerHandler.Fund))
	}

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("truthpoll API v1"))
	})

	return mux
}
