package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/coinche/internal/errors"
	"github.com/abrezinsky/coinche/internal/logger"
	"github.com/abrezinsky/coinche/internal/match"
	"github.com/abrezinsky/coinche/internal/models"
	"github.com/abrezinsky/coinche/internal/repository"
	"github.com/abrezinsky/coinche/internal/scoring"
	"github.com/abrezinsky/coinche/pkg/scorefeed"
)

// MatchService handles match and hand business logic. All writes go through
// one mutex so a match has a single writer.
type MatchService struct {
	log         logger.Logger
	repo        repository.MatchStore
	settings    SettingsServicer
	feed        scorefeed.Client
	broadcaster Broadcaster
	newID       func() string
	now         func() time.Time
	mu          sync.Mutex
}

// NewMatchService creates a new MatchService. feed may be nil.
func NewMatchService(log logger.Logger, repo repository.MatchStore, settings SettingsServicer, feed scorefeed.Client) *MatchService {
	return &MatchService{
		log:      log,
		repo:     repo,
		settings: settings,
		feed:     feed,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// SetBroadcaster sets the live update target
func (s *MatchService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetClock overrides the time source (for testing)
func (s *MatchService) SetClock(now func() time.Time) {
	s.now = now
}

// NewMatch is a request to open a match. Players are names in seating order.
// Nil fields take the configured defaults.
type NewMatch struct {
	Name                 string
	Players              []string
	Topology             *int
	Variant              *string
	TargetScore          *int
	AnnouncementsEnabled *bool
}

// MatchView is a match with its seating and live state
type MatchView struct {
	Match      models.Match         `json:"match"`
	Players    []models.Player      `json:"players"`
	Rules      scoring.Rules        `json:"rules"`
	Hands      []scoring.HandResult `json:"hands"`
	Totals     map[scoring.Side]int `json:"totals"`
	Standings  []match.Standing     `json:"standings"`
	Dealer     string               `json:"dealer"`
	DealerName string               `json:"dealer_name"`
	Ended      bool                 `json:"ended"`
	Draw       bool                 `json:"draw"`
	Winner     scoring.Side         `json:"winner,omitempty"`
}

// HandOutcome is the result of scoring or re-scoring a hand
type HandOutcome struct {
	Hand         scoring.HandResult    `json:"hand"`
	Totals       map[scoring.Side]int  `json:"totals"`
	Standings    []match.Standing      `json:"standings"`
	Celebrations []scoring.Celebration `json:"celebrations,omitempty"`
	NextDealer   string                `json:"next_dealer"`
	Ended        bool                  `json:"ended"`
	Draw         bool                  `json:"draw"`
	Winner       scoring.Side          `json:"winner,omitempty"`
}

// BalanceRequest carries the raw point entry form. Edited names the side
// whose value was just typed; LastEdited is the side typed before it, which
// three-handed balancing holds fixed.
type BalanceRequest struct {
	Points     scoring.RawPoints
	Edited     scoring.Side
	LastEdited scoring.Side
	CapotSide  scoring.Side
}

// loaded is a match rebuilt from storage
type loaded struct {
	match   *models.Match
	players []models.Player
	tracker *match.Tracker
}

func (l *loaded) playerName(id string) string {
	for _, p := range l.players {
		if p.ID == id {
			return p.Name
		}
	}
	return id
}

// CreateMatch seats the players and stores an empty match
func (s *MatchService) CreateMatch(ctx context.Context, req NewMatch) (*MatchView, error) {
	rules, err := s.settings.DefaultRules(ctx)
	if err != nil {
		return nil, err
	}

	if req.Topology != nil {
		rules.Topology = scoring.Topology(*req.Topology)
	}
	if req.Variant != nil {
		rules.Variant = scoring.Variant(*req.Variant)
		if req.TargetScore == nil {
			rules.TargetScore = scoring.DefaultTarget(rules.Variant)
		}
	}
	if req.TargetScore != nil {
		rules.TargetScore = *req.TargetScore
	}
	if req.AnnouncementsEnabled != nil {
		rules.AnnouncementsEnabled = *req.AnnouncementsEnabled
	}
	if err := rules.Validate(); err != nil {
		return nil, engineError(err)
	}

	if len(req.Players) != rules.Topology.Players() {
		return nil, errors.Validationf("a %d-player table needs %d names, got %d", rules.Topology.Players(), rules.Topology.Players(), len(req.Players))
	}
	seen := make(map[string]bool, len(req.Players))
	for _, name := range req.Players {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			return nil, errors.Validation("player name is required")
		}
		if seen[key] {
			return nil, errors.Conflictf("player %q is seated twice", strings.TrimSpace(name))
		}
		seen[key] = true
	}

	now := s.now()
	m := models.Match{
		ID:                   s.newID(),
		Name:                 strings.TrimSpace(req.Name),
		Topology:             int(rules.Topology),
		Variant:              string(rules.Variant),
		TargetScore:          rules.TargetScore,
		AnnouncementsEnabled: rules.AnnouncementsEnabled,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if m.Name == "" {
		m.Name = "Match " + now.Format("2006-01-02 15:04")
	}

	players := make([]models.Player, len(req.Players))
	for seat, name := range req.Players {
		players[seat] = models.Player{
			MatchID: m.ID,
			ID:      s.newID(),
			Name:    strings.TrimSpace(name),
			Seat:    seat,
			Side:    string(rules.Topology.SideOfSeat(seat)),
		}
	}

	if err := s.repo.CreateMatch(ctx, m, players); err != nil {
		s.log.Error("Failed to create match", "error", err)
		return nil, err
	}
	s.log.Info("Match created", "match_id", m.ID, "players", len(players), "variant", m.Variant, "target", m.TargetScore)

	return s.GetMatch(ctx, m.ID)
}

// GetMatch returns a match with its history and standings
func (s *MatchService) GetMatch(ctx context.Context, id string) (*MatchView, error) {
	l, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return l.view(), nil
}

// ListMatches returns every match, newest first
func (s *MatchService) ListMatches(ctx context.Context) ([]models.MatchSummary, error) {
	return s.repo.ListMatches(ctx)
}

// Preview recomputes a pending hand without storing it
func (s *MatchService) Preview(ctx context.Context, id string, in scoring.HandInput) (*scoring.Preview, error) {
	l, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := scoring.Recompute(l.tracker.Rules(), l.tracker.Table(), in)
	if err != nil {
		s.log.Debug("Preview rejected", "match_id", id, "error", err)
		return nil, engineError(err)
	}
	return p, nil
}

// Balance applies one raw point entry and returns the rebalanced form
func (s *MatchService) Balance(ctx context.Context, id string, req BalanceRequest) (*scoring.Balance, error) {
	m, err := s.repo.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	b := scoring.NewBalancer(scoring.Topology(m.Topology))

	state := scoring.Balance{Points: req.Points, LastEdited: req.LastEdited, CapotSide: req.CapotSide}
	if len(state.Points) == 0 {
		state.Points = b.Start().Points
	}

	switch {
	case req.CapotSide != "":
		state, err = b.DeclareCapot(state, req.CapotSide)
	case req.Edited != "":
		state, err = b.Edit(state, req.Edited, req.Points[req.Edited])
	default:
		state = b.Start()
	}
	if err != nil {
		return nil, engineError(err)
	}
	return &state, nil
}

// SubmitHand scores a new hand and appends it to the match. An input flagged
// as an edit of a prior hand replaces that hand instead.
func (s *MatchService) SubmitHand(ctx context.Context, id string, in scoring.HandInput) (*HandOutcome, error) {
	if in.IsEdit && in.PriorHandID != "" {
		return s.EditHand(ctx, id, in.PriorHandID, in)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.tracker.Ended() {
		return nil, ErrMatchEnded
	}

	now := s.now()
	in = s.stampPenalties(in, now)
	h, err := scoring.Score(l.tracker.Rules(), l.tracker.Table(), in, l.tracker.NextHandMeta(s.newID()))
	if err != nil {
		s.log.Debug("Hand rejected", "match_id", id, "error", err)
		return nil, engineError(err)
	}
	h.CreatedAt = now
	h.UpdatedAt = now

	if err := l.tracker.Append(*h); err != nil {
		return nil, engineError(err)
	}
	if err := s.repo.AppendHand(ctx, id, *h, progressOf(l.tracker)); err != nil {
		s.log.Error("Failed to store hand", "match_id", id, "error", err)
		return nil, err
	}
	s.log.Info("Hand scored", "match_id", id, "hand", h.HandNumber, "deltas", h.Deltas)

	out := l.outcome(*h)
	s.announceHand(ctx, l, out, false)
	return out, nil
}

// EditHand re-scores a stored hand and rebuilds the match from it. Scoring
// the same input twice gives the same result.
func (s *MatchService) EditHand(ctx context.Context, id, handID string, in scoring.HandInput) (*HandOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.editHand(ctx, l, handID, in)
}

func (s *MatchService) editHand(ctx context.Context, l *loaded, handID string, in scoring.HandInput) (*HandOutcome, error) {
	prior, ok := l.tracker.Hand(handID)
	if !ok {
		return nil, ErrHandNotFound
	}
	wasEnded := l.tracker.Ended()

	now := s.now()
	in = s.stampPenalties(in, now)
	meta := scoring.HandMeta{ID: prior.ID, Number: prior.HandNumber, DealerID: prior.DealerID, DealerIndex: prior.DealerIndex}
	h, err := scoring.Score(l.tracker.Rules(), l.tracker.Table(), in, meta)
	if err != nil {
		s.log.Debug("Hand edit rejected", "match_id", l.match.ID, "hand_id", handID, "error", err)
		return nil, engineError(err)
	}
	h.CreatedAt = prior.CreatedAt
	h.UpdatedAt = now

	if err := l.tracker.Replace(*h); err != nil {
		return nil, engineError(err)
	}
	if err := s.repo.ReplaceHand(ctx, l.match.ID, *h, progressOf(l.tracker)); err != nil {
		s.log.Error("Failed to store edited hand", "match_id", l.match.ID, "hand_id", handID, "error", err)
		return nil, err
	}
	s.log.Info("Hand edited", "match_id", l.match.ID, "hand", h.HandNumber, "deltas", h.Deltas)

	out := l.outcome(*h)
	s.announceHand(ctx, l, out, true)
	if wasEnded && !l.tracker.Ended() {
		s.log.Info("Match reopened by edit", "match_id", l.match.ID)
	}
	return out, nil
}

// UndoLastHand removes the most recent hand and gives the deal back
func (s *MatchService) UndoLastHand(ctx context.Context, id string) (*MatchView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	last, err := l.tracker.RemoveLast()
	if err != nil {
		return nil, engineError(err)
	}
	if err := s.repo.DeleteHand(ctx, id, last.ID, progressOf(l.tracker)); err != nil {
		s.log.Error("Failed to delete hand", "match_id", id, "hand_id", last.ID, "error", err)
		return nil, err
	}
	s.log.Info("Hand undone", "match_id", id, "hand", last.HandNumber)

	view := l.view()
	s.broadcastUpdate(id, view)
	return view, nil
}

// BlankHand passes the deal without scoring, as when every player passes
func (s *MatchService) BlankHand(ctx context.Context, id string) (*MatchView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := l.tracker.BlankHand(); err != nil {
		return nil, engineError(err)
	}
	if err := s.repo.UpdateProgress(ctx, id, progressOf(l.tracker)); err != nil {
		s.log.Error("Failed to store blank hand", "match_id", id, "error", err)
		return nil, err
	}
	s.log.Info("Blank hand", "match_id", id, "next_dealer", l.tracker.Dealer())

	view := l.view()
	s.broadcastUpdate(id, view)
	return view, nil
}

// AddPenalty attaches a penalty to the latest hand and re-scores it
func (s *MatchService) AddPenalty(ctx context.Context, id string, p scoring.PenaltyInput) (*HandOutcome, error) {
	p.Points = scoring.ClampPenalty(p.Points)
	if p.Points == 0 {
		return nil, ErrEmptyPenalty
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	last, ok := l.tracker.Last()
	if !ok {
		return nil, ErrNoHandForPenalty
	}

	in := last.Input
	in.Penalties = append(append([]scoring.PenaltyInput(nil), last.Input.Penalties...), p)
	in.IsEdit = true
	in.PriorHandID = last.ID
	return s.editHand(ctx, l, last.ID, in)
}

// load rebuilds a match tracker from storage
func (s *MatchService) load(ctx context.Context, id string) (*loaded, error) {
	m, err := s.repo.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	players, err := s.repo.ListPlayers(ctx, id)
	if err != nil {
		return nil, err
	}
	hands, err := s.repo.ListHands(ctx, id)
	if err != nil {
		return nil, err
	}

	sort.Slice(players, func(i, j int) bool { return players[i].Seat < players[j].Seat })
	table := scoring.Table{Topology: scoring.Topology(m.Topology), Seats: make([]string, len(players))}
	for i, p := range players {
		table.Seats[i] = p.ID
	}
	rules := scoring.Rules{
		Topology:             scoring.Topology(m.Topology),
		Variant:              scoring.Variant(m.Variant),
		TargetScore:          m.TargetScore,
		AnnouncementsEnabled: m.AnnouncementsEnabled,
	}

	tracker, err := match.Restore(rules, table, hands, m.DealerIndex)
	if err != nil {
		s.log.Error("Stored match is inconsistent", "match_id", id, "error", err)
		return nil, errors.Wrap(err, errors.ErrInternal, "stored match is inconsistent")
	}
	return &loaded{match: m, players: players, tracker: tracker}, nil
}

// stampPenalties gives new penalties an ID and a timestamp. Existing values
// are kept so re-scoring reproduces the hand.
func (s *MatchService) stampPenalties(in scoring.HandInput, now time.Time) scoring.HandInput {
	if len(in.Penalties) == 0 {
		return in
	}
	penalties := make([]scoring.PenaltyInput, len(in.Penalties))
	for i, p := range in.Penalties {
		if p.ID == "" {
			p.ID = s.newID()
		}
		if p.Timestamp.IsZero() {
			p.Timestamp = now
		}
		if p.AppliedBy == "" {
			p.AppliedBy = "scorekeeper"
		}
		penalties[i] = p
	}
	in.Penalties = penalties
	return in
}

func progressOf(t *match.Tracker) models.Progress {
	st := t.State()
	return models.Progress{
		DealerIndex: st.DealerIndex,
		Ended:       st.Ended,
		Draw:        st.Draw,
		Winner:      string(st.Winner),
		Totals:      sideTotals(st.Totals),
	}
}

func sideTotals(in map[scoring.Side]int) map[string]int {
	out := make(map[string]int, len(in))
	for side, v := range in {
		out[string(side)] = v
	}
	return out
}

func (l *loaded) view() *MatchView {
	st := l.tracker.State()
	m := *l.match
	m.DealerIndex = st.DealerIndex
	m.Ended = st.Ended
	m.Draw = st.Draw
	m.Winner = string(st.Winner)

	dealer := l.tracker.Dealer()
	return &MatchView{
		Match:      m,
		Players:    l.players,
		Rules:      st.Rules,
		Hands:      st.Hands,
		Totals:     st.Totals,
		Standings:  l.tracker.Standings(),
		Dealer:     dealer,
		DealerName: l.playerName(dealer),
		Ended:      st.Ended,
		Draw:       st.Draw,
		Winner:     st.Winner,
	}
}

func (l *loaded) outcome(h scoring.HandResult) *HandOutcome {
	st := l.tracker.State()
	return &HandOutcome{
		Hand:         h,
		Totals:       st.Totals,
		Standings:    l.tracker.Standings(),
		Celebrations: h.Celebrations(),
		NextDealer:   l.tracker.Dealer(),
		Ended:        st.Ended,
		Draw:         st.Draw,
		Winner:       st.Winner,
	}
}

// announceHand broadcasts a scored hand and publishes it to the score feed.
// Feed failures are logged and never undo the stored hand.
func (s *MatchService) announceHand(ctx context.Context, l *loaded, out *HandOutcome, edited bool) {
	id := l.match.ID
	if s.broadcaster != nil {
		if edited {
			s.broadcaster.BroadcastMatchUpdated(id, l.view())
		} else {
			s.broadcaster.BroadcastHand(id, out)
		}
		for _, c := range out.Celebrations {
			s.broadcaster.BroadcastCelebration(id, string(c), out.Hand)
		}
		if out.Ended {
			s.broadcaster.BroadcastMatchEnded(id, map[string]interface{}{
				"winner": out.Winner,
				"draw":   out.Draw,
				"totals": out.Totals,
			})
		}
	}

	if !s.feedReady(ctx) {
		return
	}
	if err := s.feed.PublishHand(ctx, l.handRecord(out, edited)); err != nil {
		s.log.Warn("Failed to publish hand", "match_id", id, "hand", out.Hand.HandNumber, "error", err)
	}
	if out.Ended {
		if err := s.feed.PublishResult(ctx, l.result(out, s.now())); err != nil {
			s.log.Warn("Failed to publish result", "match_id", id, "error", err)
		}
	}
}

func (s *MatchService) broadcastUpdate(id string, view *MatchView) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMatchUpdated(id, view)
	}
}

// feedReady points the feed client at the configured URL. An empty URL turns
// publishing off.
func (s *MatchService) feedReady(ctx context.Context) bool {
	if s.feed == nil {
		return false
	}
	url, err := s.settings.GetFeedURL(ctx)
	if err != nil {
		s.log.Error("Failed to read feed URL", "error", err)
		return false
	}
	if url == "" {
		return false
	}
	if s.feed.BaseURL() != url {
		s.feed.SetBaseURL(url)
	}
	return true
}

func (l *loaded) handRecord(out *HandOutcome, edited bool) scorefeed.HandRecord {
	h := out.Hand
	rec := scorefeed.HandRecord{
		MatchID:    l.match.ID,
		HandID:     h.ID,
		HandNumber: h.HandNumber,
		Dealer:     l.playerName(h.DealerID),
		Fulfilled:  h.ContractFulfilled,
		Capot:      h.Capot,
		Deltas:     sideTotals(h.Deltas),
		Totals:     sideTotals(out.Totals),
		Edited:     edited,
		ScoredAt:   h.UpdatedAt,
	}
	if h.Bid != nil {
		rec.Bid = &scorefeed.Bid{
			Value:      h.Bid.Value,
			Suit:       string(h.Bid.Suit),
			Taker:      l.playerName(h.Bid.TakerID),
			Escalation: string(h.Bid.Escalation),
		}
		if h.Bid.CoincherID != "" {
			rec.Bid.Coincher = l.playerName(h.Bid.CoincherID)
		}
		if h.Bid.SurcoincherID != "" {
			rec.Bid.Surcoincher = l.playerName(h.Bid.SurcoincherID)
		}
	}
	for _, c := range out.Celebrations {
		rec.Celebrations = append(rec.Celebrations, string(c))
	}
	return rec
}

func (l *loaded) result(out *HandOutcome, endedAt time.Time) scorefeed.MatchResult {
	players := make(map[string]int, len(l.players))
	for _, p := range l.players {
		players[p.Name] = out.Totals[scoring.Side(p.Side)]
	}
	return scorefeed.MatchResult{
		MatchID: l.match.ID,
		Name:    l.match.Name,
		Winner:  string(out.Winner),
		Draw:    out.Draw,
		Hands:   len(l.tracker.State().Hands),
		Totals:  sideTotals(out.Totals),
		Players: players,
		EndedAt: endedAt,
	}
}
