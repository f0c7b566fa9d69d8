package sticks

import (
	"strings"
	"testing"

	"github.com/ZXseITz/zx-tbsg/internal/games"
)

func TestCreateGame(t *testing.T) {
	engine := New()

	instance, err := engine.CreateGame()
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if instance.State() != games.StateRunning {
		t.Fatalf("expected running state, got %v", instance.State())
	}
	if instance.Next() != games.SideFirst {
		t.Fatalf("expected first side to move, got %v", instance.Next())
	}
	if remaining := instance.Snapshot()["remaining"]; remaining != 21 {
		t.Fatalf("expected 21 sticks, got %v", remaining)
	}
}

func TestUpdateAlternatesTurns(t *testing.T) {
	engine := New()
	instance, err := engine.CreateGame()
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	if err := engine.Update(instance, map[string]any{"take": 3}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if instance.Next() != games.SideSecond {
		t.Fatalf("expected second side to move, got %v", instance.Next())
	}
	if remaining := instance.Snapshot()["remaining"]; remaining != 18 {
		t.Fatalf("expected 18 sticks, got %v", remaining)
	}
}

func TestUpdateRejectsInvalidMoves(t *testing.T) {
	engine := New()

	cases := []struct {
		name string
		take int
	}{
		{"zero", 0},
		{"negative", -1},
		{"too many", 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			instance, err := engine.CreateGame()
			if err != nil {
				t.Fatalf("create game: %v", err)
			}
			if err := engine.Update(instance, map[string]any{"take": tc.take}); err == nil {
				t.Fatal("expected error")
			}
			if remaining := instance.Snapshot()["remaining"]; remaining != 21 {
				t.Fatalf("invalid move mutated state: %v sticks", remaining)
			}
			if instance.Next() != games.SideFirst {
				t.Fatalf("invalid move advanced the turn to %v", instance.Next())
			}
		})
	}
}

func TestUpdateRejectsOverdraw(t *testing.T) {
	engine := New()
	instance, err := engine.CreateGame()
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	// Drain down to two sticks: 21 - 6*3 = 3, then take one more.
	for i := 0; i < 6; i++ {
		if err := engine.Update(instance, map[string]any{"take": 3}); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}
	if err := engine.Update(instance, map[string]any{"take": 1}); err != nil {
		t.Fatalf("update: %v", err)
	}

	err = engine.Update(instance, map[string]any{"take": 3})
	if err == nil || !strings.Contains(err.Error(), "remaining") {
		t.Fatalf("expected overdraw error, got %v", err)
	}
}

func TestTakingLastStickWins(t *testing.T) {
	engine := New()
	instance, err := engine.CreateGame()
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	// 21 sticks in alternating takes of three: the seventh take (first side)
	// empties the pile.
	var mover games.Side
	for instance.State() == games.StateRunning {
		mover = instance.Next()
		if err := engine.Update(instance, map[string]any{"take": 3}); err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	if mover != games.SideFirst {
		t.Fatalf("expected first side to take the last stick, got %v", mover)
	}
	if instance.Outcome() != games.SideFirst {
		t.Fatalf("expected first side to win, got %v", instance.Outcome())
	}
	if instance.Next() != games.SideNone {
		t.Fatalf("expected no next side after finish, got %v", instance.Next())
	}
}
