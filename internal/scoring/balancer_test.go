package scoring

import "testing"

func TestBalancer_TwoTeamZeroSum(t *testing.T) {
	for _, topo := range []Topology{TwoSide, FourSide} {
		b := NewBalancer(topo)
		state := b.Start()
		for v := -20; v <= 200; v++ {
			side := SideA
			if v%2 == 0 {
				side = SideB
			}
			var err error
			state, err = b.Edit(state, side, v)
			if err != nil {
				t.Fatalf("Edit failed: %v", err)
			}
			if got := state.Points[SideA] + state.Points[SideB]; got != PoolTotal {
				t.Fatalf("topology %d, edit %d: expected sum %d, got %d", topo, v, PoolTotal, got)
			}
		}
	}
}

func TestBalancer_EditClamps(t *testing.T) {
	b := NewBalancer(FourSide)
	state, err := b.Edit(b.Start(), SideA, 400)
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if state.Points[SideA] != PoolTotal || state.Points[SideB] != 0 {
		t.Errorf("expected 162/0, got %v", state.Points)
	}
}

func TestBalancer_ThreeSideHoldsLastEdited(t *testing.T) {
	b := NewBalancer(ThreeSide)
	state := b.Start()
	if state.Points.Sum() != PoolTotal {
		t.Fatalf("expected start to sum to %d, got %d", PoolTotal, state.Points.Sum())
	}

	state, _ = b.Edit(state, SideA, 70)
	if state.LastEdited != SideA {
		t.Fatalf("expected last edited A, got %q", state.LastEdited)
	}

	// Editing B right after A keeps A and solves C.
	state, _ = b.Edit(state, SideB, 50)
	if state.Points[SideA] != 70 || state.Points[SideB] != 50 || state.Points[SideC] != 42 {
		t.Errorf("expected A=70 B=50 C=42, got %v", state.Points)
	}

	// Editing A again keeps B.
	state, _ = b.Edit(state, SideA, 80)
	if state.Points[SideB] != 50 || state.Points[SideC] != 32 {
		t.Errorf("expected B held at 50 and C=32, got %v", state.Points)
	}

	// Then C keeps A and solves B.
	state, _ = b.Edit(state, SideC, 60)
	if state.Points[SideA] != 80 || state.Points[SideB] != 22 {
		t.Errorf("expected A held at 80 and B=22, got %v", state.Points)
	}
}

func TestBalancer_ThreeSideOverflowTakesFromHeld(t *testing.T) {
	b := NewBalancer(ThreeSide)
	state, _ := b.Edit(b.Start(), SideA, 100)
	state, _ = b.Edit(state, SideB, 50)
	state, _ = b.Edit(state, SideA, 150)

	if state.Points.Sum() != PoolTotal {
		t.Fatalf("expected sum %d, got %d", PoolTotal, state.Points.Sum())
	}
	for side, v := range state.Points {
		if v < 0 {
			t.Errorf("side %s went negative: %d", side, v)
		}
	}
	if state.Points[SideA] != 150 || state.Points[SideC] != 0 || state.Points[SideB] != 12 {
		t.Errorf("expected A=150 B=12 C=0, got %v", state.Points)
	}
}

func TestBalancer_ThreeSideClampsPriorPoints(t *testing.T) {
	b := NewBalancer(ThreeSide)
	tests := []struct {
		name  string
		prior RawPoints
		want  RawPoints
	}{
		{"negative held", RawPoints{SideA: 0, SideB: -50, SideC: 0}, RawPoints{SideA: 100, SideB: 0, SideC: 62}},
		{"held above pool", RawPoints{SideA: 0, SideB: 900, SideC: 0}, RawPoints{SideA: 100, SideB: 62, SideC: 0}},
		{"negative solved", RawPoints{SideA: 0, SideB: 40, SideC: -300}, RawPoints{SideA: 100, SideB: 40, SideC: 22}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := b.Edit(Balance{Points: tt.prior, LastEdited: SideB}, SideA, 100)
			if err != nil {
				t.Fatalf("Edit failed: %v", err)
			}
			for _, side := range ThreeSide.Sides() {
				if v := state.Points[side]; v < 0 || v > PoolTotal {
					t.Errorf("side %s out of range: %d", side, v)
				}
				if state.Points[side] != tt.want[side] {
					t.Errorf("expected %v, got %v", tt.want, state.Points)
					break
				}
			}
			if state.Points.Sum() != PoolTotal {
				t.Errorf("expected sum %d, got %d", PoolTotal, state.Points.Sum())
			}
		})
	}
}

func TestBalancer_CapotLocksPoints(t *testing.T) {
	b := NewBalancer(FourSide)
	state, err := b.DeclareCapot(b.Start(), SideB)
	if err != nil {
		t.Fatalf("DeclareCapot failed: %v", err)
	}

	state, err = b.Edit(state, SideA, 100)
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if state.Points[SideB] != PoolTotal || state.Points[SideA] != 0 {
		t.Errorf("expected capot distribution to hold, got %v", state.Points)
	}

	state, _ = b.DeclareCapot(state, "")
	if state.CapotSide != "" {
		t.Error("expected capot lock to be lifted")
	}
	state, _ = b.Edit(state, SideA, 100)
	if state.Points[SideB] != 62 {
		t.Errorf("expected manual entry after lifting capot, got %v", state.Points)
	}
}

func TestBalancer_UnknownSide(t *testing.T) {
	b := NewBalancer(FourSide)
	if _, err := b.Edit(b.Start(), SideC, 10); err == nil {
		t.Error("expected error for side C at a four-handed table")
	}
	if _, err := b.DeclareCapot(b.Start(), SideC); err == nil {
		t.Error("expected error for capot on side C")
	}
}
