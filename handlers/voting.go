// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/truthpoll/cliparse"
	"github.com/danielhkuo/truthpoll/commitment"
	"github.com/danielhkuo/truthpoll/engine"
	"github.com/danielhkuo/truthpoll/middleware"
	"github.com/danielhkuo/truthpoll/models"
)

type VotingHandler struct {
	eng *engine.Engine
	cfg cliparse.Config
}

func NewVotingHandler(eng *engine.Engine, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{eng: eng, cfg: cfg}
}

// CommitVote handles POST /questions/{key}/commit
// Committing again before the commit phase ends replaces the digest
func (h *VotingHandler) CommitVote(w http.ResponseWriter, r *http.Request) {
	participant, ok := middleware.Participant(w, r)
	if !ok {
		return
	}

	var req models.CommitVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	digest, err := commitment.ParseDigest(req.Commitment)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	ballot, err := h.eng.CommitVote(r.Context(), participant, r.PathValue("key"), digest)
	if err != nil {
		middleware.EngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, ballot)
}

// RevealVote handles POST /questions/{key}/reveal
func (h *VotingHandler) RevealVote(w http.ResponseWriter, r *http.Request) {
	participant, ok := middleware.Participant(w, r)
	if !ok {
		return
	}

	var req models.RevealVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	ballot, err := h.eng.RevealVote(r.Context(), participant, r.PathValue("key"), req.Secret)
	if err != nil {
		middleware.EngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.RevealVoteResponse{
		SelectedOption: ballot.SelectedOption,
		VoteWeight:     ballot.VoteWeight,
	})
}

// ClaimReward handles POST /questions/{key}/claim
// The body is optional; a reference is generated when none is given
func (h *VotingHandler) ClaimReward(w http.ResponseWriter, r *http.Request) {
	participant, ok := middleware.Participant(w, r)
	if !ok {
		return
	}

	var req models.ClaimRewardRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	res, err := h.eng.ClaimReward(r.Context(), participant, r.PathValue("key"), req.ClaimReference)
	if err != nil {
		middleware.EngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ClaimRewardResponse{
		Payout:         res.Payout,
		Final:          res.Final,
		ClaimReference: res.Reference.String(),
		Display:        humanize.Comma(int64(res.Payout)),
	})
}

// Reclaim handles POST /questions/{key}/reclaim
// Refunds the deposit of a ballot that cannot be paid
func (h *VotingHandler) Reclaim(w http.ResponseWriter, r *http.Request) {
	participant, ok := middleware.Participant(w, r)
	if !ok {
		return
	}

	refunded, err := h.eng.ReclaimBallotRent(r.Context(), participant, r.PathValue("key"))
	if err != nil {
		middleware.EngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, amount(refunded))
}

// Drain handles POST /questions/{key}/drain
// Anyone may drain a question nobody took part in
func (h *VotingHandler) Drain(w http.ResponseWriter, r *http.Request) {
	drained, err := h.eng.DrainUnclaimedReward(r.Context(), r.PathValue("key"))
	if err != nil {
		middleware.EngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, amount(drained))
}

// GetMyBallot handles GET /questions/{key}/my-ballot
func (h *VotingHandler) GetMyBallot(w http.ResponseWriter, r *http.Request) {
	participant, ok := middleware.Participant(w, r)
	if !ok {
		return
	}

	ballot, err := h.eng.Ballot(r.Context(), r.PathValue("key"), participant)
	if err != nil {
		middleware.EngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, ballot)
}

// ListBallots handles GET /questions/{key}/ballots
// Choices and weights stay hidden until the reveal phase ends
func (h *VotingHandler) ListBallots(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	q, err := h.eng.Question(r.Context(), key)
	if err != nil {
		middleware.EngineError(w, err)
		return
	}

	ballots, err := h.eng.Ballots(r.Context(), key)
	if err != nil {
		middleware.EngineError(w, err)
		return
	}

	if h.eng.Now().Unix() < q.RevealEndTime {
		for i := range ballots {
			ballots[i].SelectedOption = 0
			ballots[i].VoteWeight = 0
		}
	}

	middleware.JSONResponse(w, http.StatusOK, ballots)
}
