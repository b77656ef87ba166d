// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/truthpoll/auth"
	"github.com/danielhkuo/truthpoll/cliparse"
	"github.com/danielhkuo/truthpoll/engine"
	"github.com/danielhkuo/truthpoll/middleware"
	"github.com/danielhkuo/truthpoll/models"
)

type QuestionHandler struct {
	eng *engine.Engine
	cfg cliparse.Config
}

func NewQuestionHandler(eng *engine.Engine, cfg cliparse.Config) *QuestionHandler {
	return &QuestionHandler{eng: eng, cfg: cfg}
}

// InitCounter handles POST /counters
// Must be called once before the caller can create questions
func (h *QuestionHandler) InitCounter(w http.ResponseWriter, r *http.Request) {
	participant, ok := middleware.Participant(w, r)
	if !ok {
		return
	}

	counter, err := h.eng.InitializeCounter(r.Context(), participant)
	if err != nil {
		middleware.EngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, counter)
}

// CreateQuestion handles POST /questions
func (h *QuestionHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	participant, ok := middleware.Participant(w, r)
	if !ok {
		return
	}

	var req models.CreateQuestionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	q, err := h.eng.CreateQuestion(r.Context(), participant, req)
	if err != nil {
		middleware.EngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CreateQuestionResponse{
		QuestionID:  q.ID,
		QuestionKey: q.Key,
		AdminKey:    auth.GenerateAdminKey(q.Key, h.cfg.AdminKeySalt),
	})
}

// view seals the tallies of a question still in its reveal phase and
// attaches the spendable escrow.
func (h *QuestionHandler) view(ctx context.Context, q models.Question) (models.QuestionResponse, error) {
	resp := models.QuestionResponse{Question: q}
	if h.eng.Now().Unix() < q.RevealEndTime {
		resp.VotesOption1 = 0
		resp.VotesOption2 = 0
		resp.ResultsSealed = true
	}

	vault, err := h.eng.Account(ctx, engine.QuestionVaultAccount(q.Key))
	if err != nil && !errors.Is(err, engine.ErrAccountNotFound) {
		return resp, err
	}
	resp.Escrow = vault.Spendable()
	resp.EscrowDisplay = humanize.Comma(int64(resp.Escrow))
	return resp, nil
}

// GetQuestion handles GET /questions/{key}
// Tallies are sealed until the reveal phase ends
func (h *QuestionHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "question key is required")
		return
	}

	q, err := h.eng.Question(r.Context(), key)
	if err != nil {
		middleware.EngineError(w, err)
		return
	}

	resp, err := h.view(r.Context(), q)
	if err != nil {
		middleware.EngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// ListQuestions handles GET /askers/{asker}/questions
func (h *QuestionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	asker := r.PathValue("asker")
	if asker == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "asker is required")
		return
	}

	questions, err := h.eng.Questions(r.Context(), asker)
	if err != nil {
		middleware.EngineError(w, err)
		return
	}

	views := make([]models.QuestionResponse, 0, len(questions))
	for _, q := range questions {
		v, err := h.view(r.Context(), q)
		if err != nil {
			middleware.EngineError(w, err)
			return
		}
		views = append(views, v)
	}

	middleware.JSONResponse(w, http.StatusOK, views)
}

// Finalize handles POST /questions/{key}/finalize
// Requires the X-Admin-Key header returned when the question was created
func (h *QuestionHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "question key is required")
		return
	}

	adminKey := r.Header.Get(middleware.HeaderAdminKey)
	if err := auth.ValidateAdminKey(key, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	var req models.FinalizeVotingRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	q, err := h.eng.Finalize(r.Context(), key, req.QuestionID)
	if err != nil {
		middleware.EngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.FinalizeVotingResponse{
		TotalVotes:     q.VotesOption1 + q.VotesOption2,
		VotesOption1:   q.VotesOption1,
		VotesOption2:   q.VotesOption2,
		WinningOption:  q.ReportedOption,
		WinningPercent: q.WinningPercent,
		EligibleVoters: q.EligibleVoters,
	})
}

// DeleteQuestion handles DELETE /questions/{key}
// Only the asker may delete, once settlement is complete
func (h *QuestionHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	participant, ok := middleware.Participant(w, r)
	if !ok {
		return
	}

	refunded, err := h.eng.DeleteExpiredQuestion(r.Context(), participant, r.PathValue("key"))
	if err != nil {
		middleware.EngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, amount(refunded))
}
