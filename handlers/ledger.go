// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/truthpoll/cliparse"
	"github.com/danielhkuo/truthpoll/engine"
	"github.com/danielhkuo/truthpoll/middleware"
	"github.com/danielhkuo/truthpoll/models"
)

type LedgerHandler struct {
	eng *engine.Engine
	cfg cliparse.Config
}

func NewLedgerHandler(eng *engine.Engine, cfg cliparse.Config) *LedgerHandler {
	return &LedgerHandler{eng: eng, cfg: cfg}
}

func amount(n uint64) models.AmountResponse {
	return models.AmountResponse{Amount: n, Display: humanize.Comma(int64(n))}
}

// GetBalance handles GET /accounts/me
// A wallet that was never funded has a zero balance
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	participant, ok := middleware.Participant(w, r)
	if !ok {
		return
	}

	account, err := h.eng.Account(r.Context(), engine.WalletAccount(participant))
	if errors.Is(err, engine.ErrAccountNotFound) {
		middleware.JSONResponse(w, http.StatusOK, amount(0))
		return
	}
	if err != nil {
		middleware.EngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, amount(account.Balance))
}

// Fund handles POST /dev/fund
// Only registered when the development faucet is enabled
func (h *LedgerHandler) Fund(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.DevFaucet {
		middleware.ErrorResponse(w, http.StatusNotFound, "Faucet disabled")
		return
	}

	var req models.FundAccountRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	account, err := h.eng.Airdrop(r.Context(), req.Participant, req.Amount)
	if err != nil {
		middleware.EngineError(w, err)
		return
	}

	slog.Info("wallet funded", "participant", req.Participant, "amount", humanize.Comma(int64(req.Amount)))
	middleware.JSONResponse(w, http.StatusOK, amount(account.Balance))
}
