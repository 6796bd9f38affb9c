package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/itrading/internal/brain"
	"github.com/wonny/itrading/internal/calendar"
	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/internal/marketdata"
	"github.com/wonny/itrading/internal/selection"
	"github.com/wonny/itrading/pkg/logger"
)

// SelectionHandler handles selection run endpoints
// ⭐ SSOT: 선정 API 핸들러는 이 구조체에서만
type SelectionHandler struct {
	orchestrator *brain.Orchestrator
	store        contracts.RunStore
	logger       *logger.Logger
}

// NewSelectionHandler creates a new selection handler
func NewSelectionHandler(orchestrator *brain.Orchestrator, log *logger.Logger) *SelectionHandler {
	return &SelectionHandler{
		orchestrator: orchestrator,
		store:        orchestrator.Store(),
		logger:       log,
	}
}

// RunRequest is the optional body of POST /api/selection/run.
// Unset fields fall back to the configured defaults.
type RunRequest struct {
	Date       string `json:"date"` // YYYYMMDD, YYYY-MM-DD
	Mode       string `json:"mode"`
	Advanced   *bool  `json:"advanced"`
	AutoAdjust *bool  `json:"auto_adjust"`
	MaxStocks  *int   `json:"max_stocks"`
	SkipEnrich bool   `json:"skip_enrich"`
}

// RunSelection executes one selection run and returns the persisted record
// POST /api/selection/run
func (h *SelectionHandler) RunSelection(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	opts := h.orchestrator.Options()
	if req.Mode != "" {
		mode, err := selection.ParseMode(req.Mode)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts.Mode = mode
	}
	if req.Advanced != nil {
		opts.Advanced = *req.Advanced
	}
	if req.AutoAdjust != nil {
		opts.AutoAdjust = *req.AutoAdjust
	}
	if req.MaxStocks != nil {
		if *req.MaxStocks < 0 {
			respondError(w, http.StatusBadRequest, "max_stocks must be >= 0")
			return
		}
		opts.MaxStocks = *req.MaxStocks
	}

	var date time.Time
	if req.Date != "" {
		d, err := calendar.ParseTradeDate(req.Date)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		date = d
	}

	result, err := h.orchestrator.Run(r.Context(), brain.RunConfig{
		Date:       date,
		Trigger:    brain.TriggerAPI,
		Options:    &opts,
		SkipEnrich: req.SkipEnrich,
	})
	if err != nil {
		h.logger.WithError(err).Error("Selection run failed")
		status := http.StatusInternalServerError
		if errors.Is(err, marketdata.ErrAllSourcesFailed) {
			status = http.StatusBadGateway
		}
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result.Run)
}

// GetLatest returns the most recent run
// GET /api/selection/latest
func (h *SelectionHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	run, err := h.store.LatestRun(r.Context())
	h.respondRun(w, run, err)
}

// GetRun returns one run by id
// GET /api/selection/runs/{id}
func (h *SelectionHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.store.GetRun(r.Context(), mux.Vars(r)["id"])
	h.respondRun(w, run, err)
}

func (h *SelectionHandler) respondRun(w http.ResponseWriter, run *contracts.RunRecord, err error) {
	if errors.Is(err, contracts.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to load run")
		respondError(w, http.StatusInternalServerError, "Failed to load run")
		return
	}
	respondJSON(w, http.StatusOK, run)
}

// GetProfile returns the resolved screening bounds of a market mode
// GET /api/profiles/{mode}
func (h *SelectionHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	mode, err := selection.ParseMode(mux.Vars(r)["mode"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.orchestrator.Pipeline().Profiles().Resolve(mode)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, profile)
}
