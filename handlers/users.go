// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/truthpoll/cliparse"
	"github.com/danielhkuo/truthpoll/engine"
	"github.com/danielhkuo/truthpoll/middleware"
	"github.com/danielhkuo/truthpoll/models"
)

type UserHandler struct {
	eng *engine.Engine
	cfg cliparse.Config
}

func NewUserHandler(eng *engine.Engine, cfg cliparse.Config) *UserHandler {
	return &UserHandler{eng: eng, cfg: cfg}
}

// Join handles POST /users/join
// Registers the caller and locks the join stake
func (h *UserHandler) Join(w http.ResponseWriter, r *http.Request) {
	participant, ok := middleware.Participant(w, r)
	if !ok {
		return
	}

	user, err := h.eng.Join(r.Context(), participant)
	if err != nil {
		middleware.EngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, user)
}

// Leave handles POST /users/leave
// Refunds the stake and deposits to the caller's wallet
func (h *UserHandler) Leave(w http.ResponseWriter, r *http.Request) {
	participant, ok := middleware.Participant(w, r)
	if !ok {
		return
	}

	refunded, err := h.eng.Leave(r.Context(), participant)
	if err != nil {
		middleware.EngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.LeaveResponse{
		Refunded: refunded,
		Message:  fmt.Sprintf("Refunded %s to wallet", humanize.Comma(int64(refunded))),
	})
}

// GetMe handles GET /users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	participant, ok := middleware.Participant(w, r)
	if !ok {
		return
	}

	user, err := h.eng.User(r.Context(), participant)
	if err != nil {
		middleware.EngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, user)
}

// GetMyBallots handles GET /users/me/ballots
// Returns every ballot the caller has cast, most recent last
func (h *UserHandler) GetMyBallots(w http.ResponseWriter, r *http.Request) {
	participant, ok := middleware.Participant(w, r)
	if !ok {
		return
	}

	ballots, err := h.eng.VoterBallots(r.Context(), participant)
	if err != nil {
		middleware.EngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, ballots)
}
