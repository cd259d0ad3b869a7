package services

import (
	stderrors "errors"

	"github.com/abrezinsky/coinche/internal/errors"
	"github.com/abrezinsky/coinche/internal/match"
	"github.com/abrezinsky/coinche/internal/scoring"
)

// Service errors
var (
	ErrMatchEnded           = errors.Closed("match has ended")
	ErrHandNotFound         = errors.NotFound("hand not found")
	ErrNoHandsToUndo        = errors.Validation("no hands to undo")
	ErrNoHandForPenalty     = errors.Validation("no hand to attach the penalty to")
	ErrEmptyPenalty         = errors.Validation("penalty must be worth at least one point")
	ErrBaseURLNotConfigured = errors.Validation("base_url not configured")
)

// engineError translates scoring and tracker failures into application errors
// so the transport layer can map them without knowing the engine.
func engineError(err error) error {
	if err == nil {
		return nil
	}
	if inv, ok := scoring.InvariantOf(err); ok {
		return errors.Violation(string(inv), err)
	}
	switch {
	case stderrors.Is(err, match.ErrMatchEnded):
		return ErrMatchEnded
	case stderrors.Is(err, match.ErrHandNotFound):
		return ErrHandNotFound
	case stderrors.Is(err, match.ErrNoHands):
		return ErrNoHandsToUndo
	}
	return err
}
