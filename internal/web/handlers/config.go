package handlers

import (
	"net/http"

	"github.com/kozaktomas/skinstric/internal/config"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	Steps              []StepInfo `json:"steps"`
	AnalysisConfigured bool       `json:"analysis_configured"`
	StorageBackend     string     `json:"storage_backend"`
	MaxImageSize       int        `json:"max_image_size"`
}

// StepInfo describes one onboarding step
type StepInfo struct {
	ID   string `json:"id"`
	Path string `json:"path"`
	Back string `json:"back,omitempty"`
	Next string `json:"next,omitempty"`
}

// Get returns the public configuration. Endpoint URLs and secrets are never exposed.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	flow := &h.config.Flow
	steps := make([]StepInfo, 0, len(flow.Steps))
	for _, s := range flow.Steps {
		info := StepInfo{ID: s.ID, Path: s.Path}
		if s.Back != "" {
			info.Back = flow.BackPath(s.ID)
		}
		if s.Next != "" {
			info.Next = flow.NextPath(s.ID)
		}
		steps = append(steps, info)
	}

	respondJSON(w, http.StatusOK, ConfigResponse{
		Steps:              steps,
		AnalysisConfigured: h.config.Analysis.URL != "",
		StorageBackend:     h.config.Storage.Backend,
		MaxImageSize:       h.config.Analysis.MaxImageSize,
	})
}
