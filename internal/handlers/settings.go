package handlers

import (
	"net/http"

	"github.com/abrezinsky/coinche/internal/services"
)

func (h *Handlers) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Settings.AllSettings(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, settings)
}

func (h *Handlers) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	settings := services.Settings{
		Topology:             req.DefaultTopology,
		Variant:              req.DefaultVariant,
		TargetScore:          req.DefaultTargetScore,
		AnnouncementsEnabled: req.AnnouncementsEnabled,
		BaseURL:              req.BaseURL,
		FeedURL:              req.FeedURL,
	}
	if err := h.Settings.UpdateSettings(r.Context(), settings); err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, "Settings updated")
}
