package scoring

import (
	"errors"
	"fmt"
)

// Invariant names the input rule a rejected hand violated.
type Invariant string

const (
	InvUnknownTopology       Invariant = "unknown_topology"
	InvUnknownVariant        Invariant = "unknown_variant"
	InvSeatCount             Invariant = "seat_count"
	InvUnknownPlayer         Invariant = "unknown_player"
	InvUnknownSide           Invariant = "unknown_side"
	InvMissingBid            Invariant = "missing_bid"
	InvMissingTaker          Invariant = "missing_taker"
	InvBidInPlainVariant     Invariant = "bid_in_plain_variant"
	InvBidValueRange         Invariant = "bid_value_range"
	InvUnknownSuit           Invariant = "unknown_suit"
	InvUnknownEscalation     Invariant = "unknown_escalation"
	InvMissingCoincher       Invariant = "missing_coincher"
	InvCoincheSameSide       Invariant = "coinche_same_side"
	InvSurcoincheNoCoinche   Invariant = "surcoinche_without_coinche"
	InvSurcoincheWrongSide   Invariant = "surcoinche_wrong_side"
	InvEscalationBackward    Invariant = "escalation_backward"
	InvRawPointsTotal        Invariant = "raw_points_total"
	InvCapotSideMissing      Invariant = "capot_side_missing"
	InvBeloteMultipleSides   Invariant = "belote_multiple_sides"
	InvBeloteCount           Invariant = "belote_count"
	InvAnnouncementsDisabled Invariant = "announcements_disabled"
	InvUnknownAnnouncement   Invariant = "unknown_announcement"
	InvPenaltyPlayer         Invariant = "penalty_player"
	InvTargetScore           Invariant = "target_score"
)

// InputError reports a hand the engine refused to score.
type InputError struct {
	Invariant Invariant
	Detail    string
}

func (e *InputError) Error() string {
	if e.Detail == "" {
		return "invalid hand: " + string(e.Invariant)
	}
	return fmt.Sprintf("invalid hand (%s): %s", e.Invariant, e.Detail)
}

// Is matches on invariant so callers can compare against the sentinels below.
func (e *InputError) Is(target error) bool {
	t, ok := target.(*InputError)
	return ok && t.Invariant == e.Invariant
}

func invalid(inv Invariant, format string, args ...any) error {
	return &InputError{Invariant: inv, Detail: fmt.Sprintf(format, args...)}
}

var (
	ErrMissingTaker          = &InputError{Invariant: InvMissingTaker}
	ErrRawPointsTotal        = &InputError{Invariant: InvRawPointsTotal}
	ErrSurcoincheNoCoinche   = &InputError{Invariant: InvSurcoincheNoCoinche}
	ErrCoincheSameSide       = &InputError{Invariant: InvCoincheSameSide}
	ErrSurcoincheWrongSide   = &InputError{Invariant: InvSurcoincheWrongSide}
	ErrUnknownPlayer         = &InputError{Invariant: InvUnknownPlayer}
	ErrBidInPlainVariant     = &InputError{Invariant: InvBidInPlainVariant}
	ErrBeloteMultipleSides   = &InputError{Invariant: InvBeloteMultipleSides}
	ErrAnnouncementsDisabled = &InputError{Invariant: InvAnnouncementsDisabled}
)

// InvariantOf extracts the violated invariant from err, if any.
func InvariantOf(err error) (Invariant, bool) {
	var inputErr *InputError
	if errors.As(err, &inputErr) {
		return inputErr.Invariant, true
	}
	return "", false
}
