// Package sticks implements a deliberately small two-player game used to
// exercise the engine contract end to end: players alternate taking one to
// three sticks from a shared pile, and whoever takes the last stick wins.
package sticks

import (
	"fmt"

	"github.com/ZXseITz/zx-tbsg/internal/games"
)

const (
	pileSize = 21
	maxTake  = 3
)

// Engine implements games.Engine for the sticks game.
type Engine struct{}

// New creates a sticks engine.
func New() *Engine {
	return &Engine{}
}

// Name identifies the engine.
func (e *Engine) Name() string { return "sticks" }

// CreateGame returns a fresh pile with the first side to move.
func (e *Engine) CreateGame() (games.Instance, error) {
	return &game{remaining: pileSize, next: games.SideFirst, state: games.StateRunning}, nil
}

// UpdateArguments describes the update schema: the number of sticks to take.
func (e *Engine) UpdateArguments() []games.Arg {
	return []games.Arg{{Name: "take", Kind: games.ArgInt}}
}

// Update applies one move. The instance is unchanged when the move is invalid.
func (e *Engine) Update(instance games.Instance, args map[string]any) error {
	g, ok := instance.(*game)
	if !ok {
		return fmt.Errorf("instance is not a sticks game")
	}
	take, ok := args["take"].(int)
	if !ok {
		return fmt.Errorf("argument %q is not an integer", "take")
	}
	return g.take(take)
}

// game is one live pile. Access is serialised by the session engine.
type game struct {
	remaining int
	next      games.Side
	state     games.State
	outcome   games.Side
}

func (g *game) State() games.State { return g.state }

func (g *game) Next() games.Side { return g.next }

func (g *game) Outcome() games.Side { return g.outcome }

func (g *game) Snapshot() map[string]any {
	return map[string]any{"remaining": g.remaining}
}

func (g *game) take(count int) error {
	if count < 1 || count > maxTake {
		return fmt.Errorf("take must be between 1 and %d", maxTake)
	}
	if count > g.remaining {
		return fmt.Errorf("only %d sticks remaining", g.remaining)
	}

	mover := g.next
	g.remaining -= count
	if g.remaining == 0 {
		g.state = games.StateFinished
		g.outcome = mover
		g.next = games.SideNone
		return nil
	}
	g.next = mover.Opponent()
	return nil
}
