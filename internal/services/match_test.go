package services_test

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/abrezinsky/coinche/internal/errors"
	"github.com/abrezinsky/coinche/internal/logger"
	"github.com/abrezinsky/coinche/internal/repository/mock"
	"github.com/abrezinsky/coinche/internal/scoring"
	"github.com/abrezinsky/coinche/internal/services"
	"github.com/abrezinsky/coinche/internal/testutil"
	"github.com/abrezinsky/coinche/pkg/scorefeed"
)

type recordedBroadcast struct {
	kind        string
	matchID     string
	celebration string
}

type mockBroadcaster struct {
	mu    sync.Mutex
	calls []recordedBroadcast
}

func (m *mockBroadcaster) record(kind, matchID, celebration string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, recordedBroadcast{kind: kind, matchID: matchID, celebration: celebration})
}

func (m *mockBroadcaster) BroadcastHand(matchID string, payload interface{}) {
	m.record("hand", matchID, "")
}

func (m *mockBroadcaster) BroadcastCelebration(matchID, celebration string, payload interface{}) {
	m.record("celebration", matchID, celebration)
}

func (m *mockBroadcaster) BroadcastMatchUpdated(matchID string, payload interface{}) {
	m.record("updated", matchID, "")
}

func (m *mockBroadcaster) BroadcastMatchEnded(matchID string, payload interface{}) {
	m.record("ended", matchID, "")
}

func (m *mockBroadcaster) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.kind == kind {
			n++
		}
	}
	return n
}

type fixture struct {
	svc      *services.MatchService
	settings *services.SettingsService
	repo     *mock.Repository
	feed     *scorefeed.MockClient
	hub      *mockBroadcaster
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := mock.NewRepository(testutil.NewTestRepository(t))
	log := logger.Discard()
	settings := services.NewSettingsService(log, repo)
	feed := scorefeed.NewMockClient()
	svc := services.NewMatchService(log, repo, settings, feed)
	hub := &mockBroadcaster{}
	svc.SetBroadcaster(hub)
	return &fixture{svc: svc, settings: settings, repo: repo, feed: feed, hub: hub}
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func (f *fixture) createFour(t *testing.T, target int) *services.MatchView {
	t.Helper()
	view, err := f.svc.CreateMatch(context.Background(), services.NewMatch{
		Name:        "Friday",
		Players:     []string{"Ana", "Ben", "Cleo", "Dan"},
		Topology:    intPtr(4),
		TargetScore: intPtr(target),
	})
	if err != nil {
		t.Fatalf("CreateMatch failed: %v", err)
	}
	return view
}

// hearts100 is a fulfilled contract for side A: 100 + 110 to A, 52 to B.
func hearts100(taker string) scoring.HandInput {
	return scoring.HandInput{
		TakerID:   taker,
		Bid:       &scoring.BidInput{Value: 100, Suit: scoring.Hearts},
		RawPoints: scoring.RawPoints{scoring.SideA: 110, scoring.SideB: 52},
	}
}

func TestMatchService_CreateMatch(t *testing.T) {
	f := newFixture(t)
	view := f.createFour(t, 1000)

	if view.Match.ID == "" {
		t.Fatal("expected a match ID")
	}
	if len(view.Players) != 4 {
		t.Fatalf("expected 4 players, got %d", len(view.Players))
	}
	wantSides := []string{"A", "B", "A", "B"}
	for i, p := range view.Players {
		if p.Seat != i || p.Side != wantSides[i] {
			t.Errorf("player %d: seat %d side %s, want seat %d side %s", i, p.Seat, p.Side, i, wantSides[i])
		}
	}
	if view.Rules.Variant != scoring.VariantContract {
		t.Errorf("expected contract variant by default, got %s", view.Rules.Variant)
	}
	if view.DealerName != "Ana" {
		t.Errorf("expected Ana to deal first, got %s", view.DealerName)
	}
	if len(view.Standings) != 2 || view.Standings[0].Missing != 1000 {
		t.Errorf("unexpected standings: %+v", view.Standings)
	}
}

func TestMatchService_CreateMatch_Defaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.settings.UpdateSettings(ctx, services.Settings{Topology: intPtr(3), Variant: strPtr("plain")}); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	view, err := f.svc.CreateMatch(ctx, services.NewMatch{Players: []string{"Ana", "Ben", "Cleo"}})
	if err != nil {
		t.Fatalf("CreateMatch failed: %v", err)
	}
	if view.Rules.Topology != scoring.ThreeSide || view.Rules.Variant != scoring.VariantPlain {
		t.Errorf("expected three-handed plain match, got %+v", view.Rules)
	}
	if view.Rules.TargetScore != 1000 {
		t.Errorf("expected stored default target 1000, got %d", view.Rules.TargetScore)
	}
	if view.Match.Name == "" {
		t.Error("expected a generated name")
	}
}

func TestMatchService_CreateMatch_VariantPicksTarget(t *testing.T) {
	f := newFixture(t)
	view, err := f.svc.CreateMatch(context.Background(), services.NewMatch{
		Players:  []string{"Ana", "Ben"},
		Topology: intPtr(2),
		Variant:  strPtr("plain"),
	})
	if err != nil {
		t.Fatalf("CreateMatch failed: %v", err)
	}
	if view.Rules.TargetScore != scoring.DefaultPlainTarget {
		t.Errorf("expected plain target %d, got %d", scoring.DefaultPlainTarget, view.Rules.TargetScore)
	}
}

func TestMatchService_CreateMatch_Invalid(t *testing.T) {
	tests := []struct {
		name string
		req  services.NewMatch
		kind errors.Kind
	}{
		{"wrong player count", services.NewMatch{Players: []string{"Ana", "Ben"}, Topology: intPtr(4)}, errors.ErrValidation},
		{"unsupported size", services.NewMatch{Players: []string{"Ana", "Ben", "Cleo", "Dan", "Eve"}, Topology: intPtr(5)}, errors.ErrValidation},
		{"blank name", services.NewMatch{Players: []string{"Ana", " "}, Topology: intPtr(2)}, errors.ErrValidation},
		{"duplicate name", services.NewMatch{Players: []string{"Ana", "ana"}, Topology: intPtr(2)}, errors.ErrConflict},
		{"zero target", services.NewMatch{Players: []string{"Ana", "Ben"}, Topology: intPtr(2), TargetScore: intPtr(0)}, errors.ErrValidation},
		{"unknown variant", services.NewMatch{Players: []string{"Ana", "Ben"}, Topology: intPtr(2), Variant: strPtr("rummy")}, errors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.CreateMatch(context.Background(), tt.req)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if errors.KindOf(err) != tt.kind {
				t.Errorf("expected kind %d, got %d (%v)", tt.kind, errors.KindOf(err), err)
			}
		})
	}
}

func TestMatchService_CreateMatch_StorageError(t *testing.T) {
	f := newFixture(t)
	f.repo.CreateMatchError = stderrors.New("disk full")

	_, err := f.svc.CreateMatch(context.Background(), services.NewMatch{Players: []string{"Ana", "Ben"}, Topology: intPtr(2)})
	if err == nil {
		t.Fatal("expected storage error")
	}
}

func TestMatchService_SubmitHand(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.createFour(t, 1000)
	if err := f.settings.SetFeedURL(ctx, "http://feed.local"); err != nil {
		t.Fatalf("SetFeedURL failed: %v", err)
	}

	out, err := f.svc.SubmitHand(ctx, view.Match.ID, hearts100(view.Players[0].ID))
	if err != nil {
		t.Fatalf("SubmitHand failed: %v", err)
	}
	if out.Hand.Deltas[scoring.SideA] != 210 || out.Hand.Deltas[scoring.SideB] != 52 {
		t.Errorf("unexpected deltas: %v", out.Hand.Deltas)
	}
	if out.Totals[scoring.SideA] != 210 {
		t.Errorf("expected total 210, got %d", out.Totals[scoring.SideA])
	}
	if out.Hand.HandNumber != 1 || out.Hand.DealerID != view.Players[0].ID {
		t.Errorf("unexpected hand identity: number %d dealer %s", out.Hand.HandNumber, out.Hand.DealerID)
	}
	if out.NextDealer != view.Players[1].ID {
		t.Errorf("expected deal to pass to Ben, got %s", out.NextDealer)
	}

	stored, err := f.svc.GetMatch(ctx, view.Match.ID)
	if err != nil {
		t.Fatalf("GetMatch failed: %v", err)
	}
	if len(stored.Hands) != 1 || stored.Totals[scoring.SideA] != 210 {
		t.Errorf("hand not persisted: %+v", stored.Totals)
	}
	if stored.Match.DealerIndex != 1 {
		t.Errorf("expected dealer index 1, got %d", stored.Match.DealerIndex)
	}

	if f.hub.count("hand") != 1 {
		t.Errorf("expected one hand broadcast, got %d", f.hub.count("hand"))
	}
	hands := f.feed.Hands()
	if len(hands) != 1 {
		t.Fatalf("expected one published hand, got %d", len(hands))
	}
	if hands[0].Bid == nil || hands[0].Bid.Taker != "Ana" || hands[0].Dealer != "Ana" {
		t.Errorf("unexpected feed record: %+v", hands[0])
	}
	if f.feed.BaseURL() != "http://feed.local" {
		t.Errorf("expected feed URL from settings, got %s", f.feed.BaseURL())
	}
}

func TestMatchService_SubmitHand_Rejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.createFour(t, 1000)

	in := hearts100(view.Players[0].ID)
	in.RawPoints = scoring.RawPoints{scoring.SideA: 100, scoring.SideB: 50}

	_, err := f.svc.SubmitHand(ctx, view.Match.ID, in)
	if err == nil {
		t.Fatal("expected rejection")
	}
	var appErr *errors.Error
	if !stderrors.As(err, &appErr) {
		t.Fatalf("expected *errors.Error, got %T", err)
	}
	if appErr.Kind != errors.ErrValidation || appErr.Invariant != string(scoring.InvRawPointsTotal) {
		t.Errorf("unexpected error: kind %d invariant %q", appErr.Kind, appErr.Invariant)
	}

	stored, _ := f.svc.GetMatch(ctx, view.Match.ID)
	if len(stored.Hands) != 0 {
		t.Error("rejected hand must not be stored")
	}
	if len(f.feed.Hands()) != 0 {
		t.Error("rejected hand must not be published")
	}
}

func TestMatchService_SubmitHand_FeedDisabled(t *testing.T) {
	f := newFixture(t)
	view := f.createFour(t, 1000)

	if _, err := f.svc.SubmitHand(context.Background(), view.Match.ID, hearts100(view.Players[0].ID)); err != nil {
		t.Fatalf("SubmitHand failed: %v", err)
	}
	if len(f.feed.Hands()) != 0 {
		t.Error("nothing should be published without a feed URL")
	}
}

func TestMatchService_SubmitHand_FeedFailureIgnored(t *testing.T) {
	repo := mock.NewRepository(testutil.NewTestRepository(t))
	log := logger.Discard()
	settings := services.NewSettingsService(log, repo)
	feed := scorefeed.NewMockClient(scorefeed.WithHandError(stderrors.New("unreachable")))
	svc := services.NewMatchService(log, repo, settings, feed)
	ctx := context.Background()

	if err := settings.SetFeedURL(ctx, "http://feed.local"); err != nil {
		t.Fatalf("SetFeedURL failed: %v", err)
	}
	view, err := svc.CreateMatch(ctx, services.NewMatch{Players: []string{"Ana", "Ben"}, Topology: intPtr(2)})
	if err != nil {
		t.Fatalf("CreateMatch failed: %v", err)
	}
	if _, err := svc.SubmitHand(ctx, view.Match.ID, hearts100(view.Players[0].ID)); err != nil {
		t.Fatalf("feed failure must not fail scoring: %v", err)
	}
}

func TestMatchService_SubmitHand_StorageError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.createFour(t, 1000)
	f.repo.AppendHandError = stderrors.New("database is locked")

	if _, err := f.svc.SubmitHand(ctx, view.Match.ID, hearts100(view.Players[0].ID)); err == nil {
		t.Fatal("expected storage error")
	}
	if f.hub.count("hand") != 0 {
		t.Error("unsaved hand must not be broadcast")
	}
}

func TestMatchService_SubmitHand_UnknownMatch(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SubmitHand(context.Background(), "missing", scoring.HandInput{})
	if errors.KindOf(err) != errors.ErrNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestMatchService_MatchEnds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.createFour(t, 300)
	if err := f.settings.SetFeedURL(ctx, "http://feed.local"); err != nil {
		t.Fatalf("SetFeedURL failed: %v", err)
	}
	taker := view.Players[0].ID

	out, err := f.svc.SubmitHand(ctx, view.Match.ID, hearts100(taker))
	if err != nil {
		t.Fatalf("first hand failed: %v", err)
	}
	if out.Ended {
		t.Fatal("match should not end at 210")
	}

	out, err = f.svc.SubmitHand(ctx, view.Match.ID, hearts100(taker))
	if err != nil {
		t.Fatalf("second hand failed: %v", err)
	}
	if !out.Ended || out.Winner != scoring.SideA || out.Draw {
		t.Fatalf("expected side A to win, got ended=%v winner=%s draw=%v", out.Ended, out.Winner, out.Draw)
	}
	if f.hub.count("ended") != 1 {
		t.Errorf("expected one end broadcast, got %d", f.hub.count("ended"))
	}
	results := f.feed.Results()
	if len(results) != 1 || results[0].Winner != "A" || results[0].Players["Cleo"] != 420 {
		t.Errorf("unexpected published result: %+v", results)
	}

	_, err = f.svc.SubmitHand(ctx, view.Match.ID, hearts100(taker))
	if errors.KindOf(err) != errors.ErrClosed {
		t.Errorf("expected closed match error, got %v", err)
	}
	if _, err := f.svc.BlankHand(ctx, view.Match.ID); errors.KindOf(err) != errors.ErrClosed {
		t.Errorf("expected closed match error for blank hand, got %v", err)
	}

	summaries, err := f.svc.ListMatches(ctx)
	if err != nil {
		t.Fatalf("ListMatches failed: %v", err)
	}
	if len(summaries) != 1 || !summaries[0].Ended || summaries[0].Winner != "A" || summaries[0].Hands != 2 {
		t.Errorf("unexpected summary: %+v", summaries)
	}
}

func TestMatchService_Celebrations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.createFour(t, 5000)

	in := scoring.HandInput{
		TakerID:       view.Players[0].ID,
		Bid:           &scoring.BidInput{Value: 250, Suit: scoring.Spades},
		CapotDeclared: true,
		CapotSide:     scoring.SideA,
	}
	out, err := f.svc.SubmitHand(ctx, view.Match.ID, in)
	if err != nil {
		t.Fatalf("SubmitHand failed: %v", err)
	}
	if len(out.Celebrations) != 1 || out.Celebrations[0] != scoring.CelebrateCapot {
		t.Errorf("expected capot celebration, got %v", out.Celebrations)
	}
	if f.hub.count("celebration") != 1 {
		t.Errorf("expected one celebration broadcast, got %d", f.hub.count("celebration"))
	}
}

func TestMatchService_EditHand(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.createFour(t, 1000)
	taker := view.Players[0].ID

	first, err := f.svc.SubmitHand(ctx, view.Match.ID, hearts100(taker))
	if err != nil {
		t.Fatalf("SubmitHand failed: %v", err)
	}
	if _, err := f.svc.SubmitHand(ctx, view.Match.ID, hearts100(taker)); err != nil {
		t.Fatalf("SubmitHand failed: %v", err)
	}

	// The first hand was really a failed 160
	edit := hearts100(taker)
	edit.Bid.Value = 160
	out, err := f.svc.EditHand(ctx, view.Match.ID, first.Hand.ID, edit)
	if err != nil {
		t.Fatalf("EditHand failed: %v", err)
	}
	if out.Hand.Deltas[scoring.SideA] != 0 || out.Hand.Deltas[scoring.SideB] != 322 {
		t.Errorf("unexpected edited deltas: %v", out.Hand.Deltas)
	}
	if out.Totals[scoring.SideA] != 210 || out.Totals[scoring.SideB] != 374 {
		t.Errorf("unexpected totals after edit: %v", out.Totals)
	}
	if out.Hand.HandNumber != 1 || out.Hand.DealerID != first.Hand.DealerID {
		t.Error("edit must keep the hand identity")
	}
	if !out.Hand.CreatedAt.Equal(first.Hand.CreatedAt) {
		t.Error("edit must keep the creation time")
	}

	again, err := f.svc.EditHand(ctx, view.Match.ID, first.Hand.ID, edit)
	if err != nil {
		t.Fatalf("second EditHand failed: %v", err)
	}
	if again.Totals[scoring.SideB] != 374 {
		t.Errorf("re-applying the same edit changed totals: %v", again.Totals)
	}
	if f.hub.count("updated") != 2 {
		t.Errorf("expected two update broadcasts, got %d", f.hub.count("updated"))
	}
}

func TestMatchService_EditHand_ViaSubmit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.createFour(t, 1000)

	first, err := f.svc.SubmitHand(ctx, view.Match.ID, hearts100(view.Players[0].ID))
	if err != nil {
		t.Fatalf("SubmitHand failed: %v", err)
	}
	edit := hearts100(view.Players[0].ID)
	edit.RawPoints = scoring.RawPoints{scoring.SideA: 120, scoring.SideB: 42}
	edit.IsEdit = true
	edit.PriorHandID = first.Hand.ID

	out, err := f.svc.SubmitHand(ctx, view.Match.ID, edit)
	if err != nil {
		t.Fatalf("SubmitHand edit failed: %v", err)
	}
	if out.Hand.ID != first.Hand.ID || out.Totals[scoring.SideA] != 220 {
		t.Errorf("expected hand replaced in place, got id %s totals %v", out.Hand.ID, out.Totals)
	}
	stored, _ := f.svc.GetMatch(ctx, view.Match.ID)
	if len(stored.Hands) != 1 {
		t.Errorf("expected one hand, got %d", len(stored.Hands))
	}
}

func TestMatchService_EditHand_ReopensMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.createFour(t, 200)

	first, err := f.svc.SubmitHand(ctx, view.Match.ID, hearts100(view.Players[0].ID))
	if err != nil {
		t.Fatalf("SubmitHand failed: %v", err)
	}
	if !first.Ended {
		t.Fatal("expected match to end at 210")
	}

	edit := hearts100(view.Players[0].ID)
	edit.Bid.Value = 80
	edit.RawPoints = scoring.RawPoints{scoring.SideA: 82, scoring.SideB: 80}
	out, err := f.svc.EditHand(ctx, view.Match.ID, first.Hand.ID, edit)
	if err != nil {
		t.Fatalf("EditHand failed: %v", err)
	}
	if out.Ended {
		t.Errorf("expected match reopened at %v", out.Totals)
	}
	if _, err := f.svc.SubmitHand(ctx, view.Match.ID, hearts100(view.Players[1].ID)); err != nil {
		t.Errorf("reopened match should accept hands: %v", err)
	}
}

func TestMatchService_EditHand_NotFound(t *testing.T) {
	f := newFixture(t)
	view := f.createFour(t, 1000)

	_, err := f.svc.EditHand(context.Background(), view.Match.ID, "nope", hearts100(view.Players[0].ID))
	if errors.KindOf(err) != errors.ErrNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestMatchService_UndoLastHand(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.createFour(t, 1000)

	if _, err := f.svc.UndoLastHand(ctx, view.Match.ID); errors.KindOf(err) != errors.ErrValidation {
		t.Errorf("expected validation error on empty match, got %v", err)
	}

	if _, err := f.svc.SubmitHand(ctx, view.Match.ID, hearts100(view.Players[0].ID)); err != nil {
		t.Fatalf("SubmitHand failed: %v", err)
	}
	undone, err := f.svc.UndoLastHand(ctx, view.Match.ID)
	if err != nil {
		t.Fatalf("UndoLastHand failed: %v", err)
	}
	if len(undone.Hands) != 0 || undone.Totals[scoring.SideA] != 0 {
		t.Errorf("expected empty match, got %d hands totals %v", len(undone.Hands), undone.Totals)
	}
	if undone.Dealer != view.Players[0].ID {
		t.Errorf("expected deal back to Ana, got %s", undone.DealerName)
	}
	if f.hub.count("updated") != 1 {
		t.Errorf("expected one update broadcast, got %d", f.hub.count("updated"))
	}
}

func TestMatchService_BlankHand(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.createFour(t, 1000)

	blank, err := f.svc.BlankHand(ctx, view.Match.ID)
	if err != nil {
		t.Fatalf("BlankHand failed: %v", err)
	}
	if blank.DealerName != "Ben" || len(blank.Hands) != 0 {
		t.Errorf("expected Ben to deal with no hands, got %s and %d hands", blank.DealerName, len(blank.Hands))
	}

	out, err := f.svc.SubmitHand(ctx, view.Match.ID, hearts100(view.Players[0].ID))
	if err != nil {
		t.Fatalf("SubmitHand failed: %v", err)
	}
	if out.Hand.DealerID != view.Players[1].ID || out.NextDealer != view.Players[2].ID {
		t.Errorf("unexpected rotation: dealt by %s, next %s", out.Hand.DealerID, out.NextDealer)
	}
}

func TestMatchService_UndoAfterBlankHands(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.createFour(t, 1000)

	out, err := f.svc.SubmitHand(ctx, view.Match.ID, hearts100(view.Players[0].ID))
	if err != nil {
		t.Fatalf("SubmitHand failed: %v", err)
	}
	if out.Hand.DealerIndex != 0 {
		t.Errorf("expected the first hand at dealer index 0, got %d", out.Hand.DealerIndex)
	}
	for i := 0; i < 2; i++ {
		if _, err := f.svc.BlankHand(ctx, view.Match.ID); err != nil {
			t.Fatalf("BlankHand failed: %v", err)
		}
	}

	undone, err := f.svc.UndoLastHand(ctx, view.Match.ID)
	if err != nil {
		t.Fatalf("UndoLastHand failed: %v", err)
	}
	if undone.DealerName != "Ana" {
		t.Errorf("expected Ana to deal the undone hand again, got %s", undone.DealerName)
	}
}

func TestMatchService_BlankHand_StorageError(t *testing.T) {
	f := newFixture(t)
	view := f.createFour(t, 1000)
	f.repo.UpdateProgressError = stderrors.New("disk full")

	if _, err := f.svc.BlankHand(context.Background(), view.Match.ID); err == nil {
		t.Fatal("expected storage error")
	}
}

func TestMatchService_AddPenalty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.createFour(t, 1000)

	if _, err := f.svc.AddPenalty(ctx, view.Match.ID, scoring.PenaltyInput{PlayerID: view.Players[1].ID, Points: 30}); errors.KindOf(err) != errors.ErrValidation {
		t.Errorf("expected validation error without a hand, got %v", err)
	}

	if _, err := f.svc.SubmitHand(ctx, view.Match.ID, hearts100(view.Players[0].ID)); err != nil {
		t.Fatalf("SubmitHand failed: %v", err)
	}
	out, err := f.svc.AddPenalty(ctx, view.Match.ID, scoring.PenaltyInput{PlayerID: view.Players[1].ID, Points: 30, Reason: "renege"})
	if err != nil {
		t.Fatalf("AddPenalty failed: %v", err)
	}
	if out.Hand.Deltas[scoring.SideB] != 22 {
		t.Errorf("expected B delta 22 after penalty, got %d", out.Hand.Deltas[scoring.SideB])
	}
	if len(out.Hand.Penalties) != 1 {
		t.Fatalf("expected one penalty, got %d", len(out.Hand.Penalties))
	}
	p := out.Hand.Penalties[0]
	if p.ID == "" || p.Timestamp.IsZero() || p.AppliedBy == "" || p.Side != scoring.SideB {
		t.Errorf("penalty not stamped: %+v", p)
	}

	out, err = f.svc.AddPenalty(ctx, view.Match.ID, scoring.PenaltyInput{PlayerID: view.Players[0].ID, Points: 900})
	if err != nil {
		t.Fatalf("second AddPenalty failed: %v", err)
	}
	if len(out.Hand.Penalties) != 2 || out.Hand.Penalties[0].ID != p.ID {
		t.Errorf("existing penalty must be preserved: %+v", out.Hand.Penalties)
	}
	if out.Hand.Deltas[scoring.SideA] != 210-500 {
		t.Errorf("expected clamped penalty on A, got %d", out.Hand.Deltas[scoring.SideA])
	}

	if _, err := f.svc.AddPenalty(ctx, view.Match.ID, scoring.PenaltyInput{PlayerID: view.Players[0].ID, Points: -5}); errors.KindOf(err) != errors.ErrValidation {
		t.Errorf("expected validation error for empty penalty, got %v", err)
	}
}

func TestMatchService_Preview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.createFour(t, 1000)

	p, err := f.svc.Preview(ctx, view.Match.ID, hearts100(view.Players[0].ID))
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if p.Fulfilled == nil || !*p.Fulfilled || p.Deltas[scoring.SideA] != 210 {
		t.Errorf("unexpected preview: %+v", p)
	}

	stored, _ := f.svc.GetMatch(ctx, view.Match.ID)
	if len(stored.Hands) != 0 {
		t.Error("preview must not store anything")
	}

	in := hearts100(view.Players[0].ID)
	in.Bid.Value = 190
	if _, err := f.svc.Preview(ctx, view.Match.ID, in); errors.KindOf(err) != errors.ErrValidation {
		t.Errorf("expected validation error for bid 190, got %v", err)
	}
}

func TestMatchService_Balance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view, err := f.svc.CreateMatch(ctx, services.NewMatch{Players: []string{"Ana", "Ben", "Cleo"}, Topology: intPtr(3)})
	if err != nil {
		t.Fatalf("CreateMatch failed: %v", err)
	}
	id := view.Match.ID

	start, err := f.svc.Balance(ctx, id, services.BalanceRequest{})
	if err != nil {
		t.Fatalf("Balance start failed: %v", err)
	}
	if start.Points.Sum() != scoring.PoolTotal {
		t.Errorf("expected pool total, got %v", start.Points)
	}

	step, err := f.svc.Balance(ctx, id, services.BalanceRequest{
		Points: scoring.RawPoints{scoring.SideA: 70, scoring.SideB: 46, scoring.SideC: 46},
		Edited: scoring.SideA,
	})
	if err != nil {
		t.Fatalf("Balance edit failed: %v", err)
	}
	step, err = f.svc.Balance(ctx, id, services.BalanceRequest{
		Points:     scoring.RawPoints{scoring.SideA: step.Points[scoring.SideA], scoring.SideB: 50, scoring.SideC: step.Points[scoring.SideC]},
		Edited:     scoring.SideB,
		LastEdited: step.LastEdited,
	})
	if err != nil {
		t.Fatalf("Balance edit failed: %v", err)
	}
	if step.Points[scoring.SideA] != 70 || step.Points[scoring.SideC] != 42 || step.LastEdited != scoring.SideB {
		t.Errorf("unexpected balance: %+v", step)
	}

	capot, err := f.svc.Balance(ctx, id, services.BalanceRequest{Points: step.Points, CapotSide: scoring.SideC})
	if err != nil {
		t.Fatalf("Balance capot failed: %v", err)
	}
	if capot.Points[scoring.SideC] != scoring.PoolTotal || capot.CapotSide != scoring.SideC {
		t.Errorf("unexpected capot balance: %+v", capot)
	}

	if _, err := f.svc.Balance(ctx, id, services.BalanceRequest{Edited: "Z"}); errors.KindOf(err) != errors.ErrValidation {
		t.Errorf("expected validation error for unknown side, got %v", err)
	}
}

func TestMatchService_GetMatch_StorageErrors(t *testing.T) {
	f := newFixture(t)
	view := f.createFour(t, 1000)

	f.repo.ListHandsError = stderrors.New("corrupt")
	if _, err := f.svc.GetMatch(context.Background(), view.Match.ID); err == nil {
		t.Error("expected hands error")
	}
	f.repo.ListHandsError = nil
	f.repo.ListPlayersError = stderrors.New("corrupt")
	if _, err := f.svc.GetMatch(context.Background(), view.Match.ID); err == nil {
		t.Error("expected players error")
	}
}
