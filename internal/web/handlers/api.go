package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kozaktomas/skinstric/internal/analysis"
	"github.com/kozaktomas/skinstric/internal/config"
	"github.com/kozaktomas/skinstric/internal/constants"
	"github.com/kozaktomas/skinstric/internal/database"
	"github.com/kozaktomas/skinstric/internal/demographics"
	"github.com/kozaktomas/skinstric/internal/web/middleware"
	"go.uber.org/zap"
)

// SessionEnder ends a visitor session and removes its cookie.
type SessionEnder interface {
	DeleteSession(ctx context.Context, sessionID string)
	ClearSessionCookie(w http.ResponseWriter)
}

// StateHandler exposes the visitor's stored state and analysis over JSON.
type StateHandler struct {
	config   *config.Config
	store    database.KV
	analyzer Analyzer
	sessions SessionEnder
	logger   *zap.Logger
}

// NewStateHandler creates a new state handler. sessions may be nil, in which
// case clearing the state keeps the visitor session alive.
func NewStateHandler(cfg *config.Config, store database.KV, analyzer Analyzer, sessions SessionEnder, logger *zap.Logger) *StateHandler {
	return &StateHandler{
		config:   cfg,
		store:    store,
		analyzer: analyzer,
		sessions: sessions,
		logger:   logger,
	}
}

// StateResponse is the visitor's stored onboarding state.
type StateResponse struct {
	Profile  database.UserProfile `json:"profile"`
	HasImage bool                 `json:"has_image"`
	Result   *analysis.Result     `json:"result"`
	View     demographics.View    `json:"view"`
}

func (h *StateHandler) state(w http.ResponseWriter, r *http.Request) *database.State {
	session := middleware.GetSessionFromContext(r.Context())
	if session == nil {
		respondError(w, http.StatusInternalServerError, "no visitor session")
		return nil
	}
	return database.NewState(h.store, session.ID, h.logger)
}

// Get returns the stored profile and result. Query parameters race, age
// and gender override the selection in the returned view.
func (h *StateHandler) Get(w http.ResponseWriter, r *http.Request) {
	state := h.state(w, r)
	if state == nil {
		return
	}

	profile, _ := state.LoadUser(r.Context())
	_, hasImage := state.LoadImage(r.Context())
	result := state.LoadResult(r.Context())

	respondJSON(w, http.StatusOK, StateResponse{
		Profile:  profile,
		HasImage: hasImage,
		Result:   result,
		View:     demographics.NewView(result, demographics.ParseSelection(r.URL.Query())),
	})
}

// Delete removes everything stored for the visitor and ends the session,
// so the next request starts over with a fresh visitor ID.
func (h *StateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	state := h.state(w, r)
	if state == nil {
		return
	}
	if err := state.Clear(r.Context()); err != nil {
		h.logger.Error("failed to clear visitor state", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to clear state")
		return
	}
	if h.sessions != nil {
		session := middleware.GetSessionFromContext(r.Context())
		h.sessions.DeleteSession(r.Context(), session.ID)
		h.sessions.ClearSessionCookie(w)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Analyze accepts {"Image": "<data URL>"}, runs Phase Two and stores the
// image and result. The previous state is kept when anything fails.
func (h *StateHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	state := h.state(w, r)
	if state == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxDataURLSize)
	var req analysis.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			metricsOutcomeInvalid()
			respondError(w, http.StatusRequestEntityTooLarge, analysisErrorMessage(errImageTooLarge))
			return
		}
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	dataURL, err := normalizeDataURL(req.Image, h.config.Analysis.MaxImageSize)
	if err != nil {
		metricsOutcomeInvalid()
		respondError(w, analysisErrorStatus(err), analysisErrorMessage(err))
		return
	}

	result, err := analyzeAndSave(r.Context(), h.analyzer, state, dataURL)
	if err != nil {
		h.logger.Warn("analysis failed", zap.String("path", sanitizeForLog(r.URL.Path)), zap.Error(err))
		respondError(w, analysisErrorStatus(err), analysisErrorMessage(err))
		return
	}
	respondJSON(w, http.StatusOK, result)
}
