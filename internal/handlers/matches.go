package handlers

import (
	"net/http"

	"github.com/abrezinsky/coinche/internal/models"
	"github.com/abrezinsky/coinche/internal/scoring"
	"github.com/abrezinsky/coinche/internal/services"
)

// ==================== Matches ====================

func (h *Handlers) handleListMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.Matches.ListMatches(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if matches == nil {
		matches = []models.MatchSummary{}
	}

	respondOK(w, matches)
}

func (h *Handlers) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	view, err := h.Matches.GetMatch(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, view)
}

func (h *Handlers) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req MatchCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	view, err := h.Matches.CreateMatch(r.Context(), services.NewMatch{
		Name:                 req.Name,
		Players:              req.Players,
		Topology:             req.Topology,
		Variant:              req.Variant,
		TargetScore:          req.TargetScore,
		AnnouncementsEnabled: req.AnnouncementsEnabled,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondCreated(w, view)
}

// ==================== Hand entry ====================

func (h *Handlers) handlePreview(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var in scoring.HandInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, err)
		return
	}

	preview, err := h.Matches.Preview(r.Context(), id, in)
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, preview)
}

func (h *Handlers) handleBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req BalanceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	balance, err := h.Matches.Balance(r.Context(), id, services.BalanceRequest{
		Points:     req.Points,
		Edited:     req.Edited,
		LastEdited: req.LastEdited,
		CapotSide:  req.CapotSide,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, BalanceResponse{
		Points:     balance.Points,
		LastEdited: balance.LastEdited,
		CapotSide:  balance.CapotSide,
	})
}

func (h *Handlers) handleSubmitHand(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var in scoring.HandInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, err)
		return
	}

	outcome, err := h.Matches.SubmitHand(r.Context(), id, in)
	if err != nil {
		respondError(w, err)
		return
	}

	respondCreated(w, outcome)
}

func (h *Handlers) handleEditHand(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	handID, err := pathParam(r, "handID")
	if err != nil {
		respondError(w, err)
		return
	}
	var in scoring.HandInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, err)
		return
	}

	outcome, err := h.Matches.EditHand(r.Context(), id, handID, in)
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, outcome)
}

func (h *Handlers) handleUndoLastHand(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	view, err := h.Matches.UndoLastHand(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, view)
}

func (h *Handlers) handleBlankHand(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	view, err := h.Matches.BlankHand(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, view)
}

func (h *Handlers) handleAddPenalty(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req PenaltyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	outcome, err := h.Matches.AddPenalty(r.Context(), id, scoring.PenaltyInput{
		PlayerID:  req.PlayerID,
		Points:    req.Points,
		Reason:    req.Reason,
		AppliedBy: req.AppliedBy,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondCreated(w, outcome)
}

// ==================== Sharing ====================

func (h *Handlers) handleScoreboardURL(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	url, err := h.Share.ScoreboardURL(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, ScoreboardResponse{URL: url})
}

func (h *Handlers) handleScoreboardQR(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	png, err := h.Share.ScoreboardQR(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}
