package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ZXseITz/zx-tbsg/internal/games"
	"github.com/ZXseITz/zx-tbsg/internal/protocol"
)

// Coordinator dispatches protocol events for one game engine. It owns the
// client registry, drives the challenge state machine and match lifecycle,
// and relays turn updates between the two sides of a match.
//
// Registry membership uses its own mutex; every operation touching client or
// game state runs as an ordered critical section via locked.
type Coordinator struct {
	engine games.Engine
	tracer trace.Tracer

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewCoordinator creates a coordinator serving the given engine.
func NewCoordinator(engine games.Engine) *Coordinator {
	return &Coordinator{
		engine:  engine,
		tracer:  otel.Tracer("session"),
		clients: make(map[string]*Client),
	}
}

// Connect registers a new connection and announces its identity to the peer.
func (co *Coordinator) Connect(clientID string, send SendFunc) *Client {
	client := newClient(clientID, send)

	co.mu.Lock()
	co.clients[clientID] = client
	co.mu.Unlock()

	log.Printf("client connected game=%s client_id=%s", co.engine.Name(), clientID)
	client.deliver(protocol.NewIDEvent(clientID))
	return client
}

// Disconnect removes a connection, withdraws its challenges in both
// directions, and aborts its active match.
func (co *Coordinator) Disconnect(clientID string) {
	co.mu.Lock()
	client, ok := co.clients[clientID]
	delete(co.clients, clientID)
	remaining := make([]*Client, 0, len(co.clients))
	for _, other := range co.clients {
		remaining = append(remaining, other)
	}
	co.mu.Unlock()

	if !ok {
		return
	}
	log.Printf("client disconnected game=%s client_id=%s", co.engine.Name(), clientID)

	// Outgoing challenges die with the client; each challenged party learns
	// the challenge was withdrawn.
	var targets []*Client
	_ = locked(func() error {
		targets = client.challengeTargets()
		for _, opponent := range targets {
			client.removeChallenge(opponent)
		}
		return nil
	}, client)
	for _, opponent := range targets {
		opponent.deliver(protocol.NewChallengeAbortEvent(clientID))
	}

	// Incoming challenges: drop the edge on every remaining challenger, as
	// if the vanished client had declined.
	for _, other := range remaining {
		other := other
		var notify bool
		_ = locked(func() error {
			notify = other.removeChallenge(client)
			return nil
		}, other)
		if notify {
			other.deliver(protocol.NewChallengeDeclineEvent(clientID))
		}
	}

	// Active match: clear both references and tell the opponent.
	var match *Match
	_ = locked(func() error {
		match = client.match
		return nil
	}, client)
	if match == nil {
		return
	}
	opponent := match.opponent(client)
	var notify bool
	_ = locked(func() error {
		if client.match == match {
			client.match = nil
		}
		if opponent.match == match {
			opponent.match = nil
			notify = true
		}
		return nil
	}, client, opponent)
	if notify {
		opponent.deliver(protocol.NewErrorEvent(
			fmt.Sprintf("opponent [%s] disconnected, match aborted", clientID)))
	}
}

// Handle processes one inbound wire message from the identified client.
// Application errors are reported back to the client as error events and
// never close the connection.
func (co *Coordinator) Handle(ctx context.Context, clientID string, data []byte) {
	client, ok := co.lookup(clientID)
	if !ok {
		log.Printf("message from unknown client game=%s client_id=%s", co.engine.Name(), clientID)
		return
	}

	_, span := co.tracer.Start(ctx, "session.handle",
		trace.WithAttributes(attribute.String("tbsg.game", co.engine.Name())))
	defer span.End()

	event, err := protocol.Decode(data)
	if err != nil {
		span.RecordError(err)
		client.deliver(protocol.NewErrorEvent(fmt.Sprintf("invalid message: %v", err)))
		return
	}
	span.SetAttributes(attribute.Int("tbsg.event.code", event.Code))

	if err := co.dispatch(client, event); err != nil {
		span.RecordError(err)
		log.Printf("event failed game=%s client_id=%s code=%d error=%v",
			co.engine.Name(), clientID, event.Code, err)
		client.deliver(protocol.NewErrorEvent(err.Error()))
	}
}

// lookup returns the registered client for an identity.
func (co *Coordinator) lookup(clientID string) (*Client, bool) {
	co.mu.RLock()
	defer co.mu.RUnlock()
	client, ok := co.clients[clientID]
	return client, ok
}

func (co *Coordinator) dispatch(client *Client, event protocol.Event) error {
	switch event.Code {
	case protocol.CodeChallenge:
		return co.challenge(client, event)
	case protocol.CodeChallengeAbort:
		return co.abortChallenge(client, event)
	case protocol.CodeChallengeAccept:
		return co.acceptChallenge(client, event)
	case protocol.CodeChallengeDecline:
		return co.declineChallenge(client, event)
	case protocol.CodeGameUpdate:
		return co.update(client, event)
	default:
		return fmt.Errorf("unknown message code %d", event.Code)
	}
}

// opponentClient resolves the opponent argument against the registry.
func (co *Coordinator) opponentClient(event protocol.Event) (*Client, error) {
	opponentID, err := event.StringArg("opponent")
	if err != nil {
		return nil, err
	}
	opponent, ok := co.lookup(opponentID)
	if !ok {
		return nil, fmt.Errorf("opponent [%s] is not connected", opponentID)
	}
	return opponent, nil
}

// challenge records an outgoing challenge edge and notifies the challenged
// party.
func (co *Coordinator) challenge(client *Client, event protocol.Event) error {
	opponent, err := co.opponentClient(event)
	if err != nil {
		return err
	}
	if opponent == client {
		return errors.New("you cannot challenge yourself")
	}

	return locked(func() error {
		client.addChallenge(opponent)
		opponent.deliver(protocol.NewChallengeEvent(client.id))
		return nil
	}, client)
}

// abortChallenge withdraws a pending challenge issued by client.
func (co *Coordinator) abortChallenge(client *Client, event protocol.Event) error {
	opponent, err := co.opponentClient(event)
	if err != nil {
		return err
	}

	return locked(func() error {
		if !client.removeChallenge(opponent) {
			return fmt.Errorf("opponent [%s] is not challenged by you", opponent.id)
		}
		opponent.deliver(protocol.NewChallengeAbortEvent(client.id))
		return nil
	}, client)
}

// declineChallenge rejects a pending challenge issued by the opponent.
func (co *Coordinator) declineChallenge(client *Client, event protocol.Event) error {
	opponent, err := co.opponentClient(event)
	if err != nil {
		return err
	}

	return locked(func() error {
		if !opponent.removeChallenge(client) {
			return fmt.Errorf("you are not challenged by opponent [%s]", opponent.id)
		}
		opponent.deliver(protocol.NewChallengeDeclineEvent(client.id))
		return nil
	}, opponent)
}

// acceptChallenge turns a pending challenge into a match. The accepting
// client becomes the first mover.
func (co *Coordinator) acceptChallenge(client *Client, event protocol.Event) error {
	opponent, err := co.opponentClient(event)
	if err != nil {
		return err
	}
	if opponent == client {
		return errors.New("you cannot accept your own challenge")
	}

	return locked(func() error {
		if !opponent.challenged(client) {
			return fmt.Errorf("you are not challenged by opponent [%s]", opponent.id)
		}
		if client.match != nil {
			return errors.New("you are currently in a match")
		}
		if opponent.match != nil {
			return fmt.Errorf("opponent [%s] is currently in a match", opponent.id)
		}

		instance, err := co.engine.CreateGame()
		if err != nil {
			return fmt.Errorf("create game: %w", err)
		}

		opponent.removeChallenge(client)
		match := newMatch(client, opponent, instance)
		client.match = match
		opponent.match = match

		opponent.deliver(protocol.NewChallengeAcceptEvent(client.id))

		// The instance is unreachable outside this critical section until
		// the match references published above become visible.
		snapshot := instance.Snapshot()
		client.deliver(protocol.NewGameInitEvent(games.SideFirst.String(), true, snapshot))
		opponent.deliver(protocol.NewGameInitEvent(games.SideSecond.String(), false, snapshot))
		return nil
	}, client, opponent)
}

// update applies a move to the client's current match. It composes two
// tiers of critical sections: the client (to resolve the match), then the
// match's guarded game instance.
func (co *Coordinator) update(client *Client, event protocol.Event) error {
	args, err := games.ParseUpdateArgs(co.engine.UpdateArguments(), event.Args)
	if err != nil {
		return err
	}

	var finished *Match
	err = locked(func() error {
		match := client.match
		if match == nil {
			return errors.New("no active match")
		}
		opponent := match.opponent(client)
		side := match.side(client)

		return locked(func() error {
			game := match.game.Value()
			if game.State() == games.StateFinished {
				return errors.New("game is already finished")
			}
			if game.Next() != side {
				return errors.New("not your turn")
			}
			if err := co.engine.Update(game, args); err != nil {
				return err
			}

			snapshot := game.Snapshot()
			if game.State() == games.StateRunning {
				next := game.Next()
				client.deliver(protocol.NewGameUpdateEvent(next == side, snapshot))
				opponent.deliver(protocol.NewGameUpdateEvent(next != side, snapshot))
				return nil
			}

			finished = match
			switch game.Outcome() {
			case games.SideNone:
				client.deliver(protocol.NewGameEndTieEvent(snapshot))
				opponent.deliver(protocol.NewGameEndTieEvent(snapshot))
			case side:
				client.deliver(protocol.NewGameEndVictoryEvent(snapshot))
				opponent.deliver(protocol.NewGameEndDefeatEvent(snapshot))
			default:
				client.deliver(protocol.NewGameEndDefeatEvent(snapshot))
				opponent.deliver(protocol.NewGameEndVictoryEvent(snapshot))
			}
			return nil
		}, match.game)
	}, client)
	if err != nil {
		return err
	}

	if finished != nil {
		co.clearMatch(client, finished)
	}
	return nil
}

// clearMatch drops a finished match's references from both participants.
func (co *Coordinator) clearMatch(client *Client, match *Match) {
	opponent := match.opponent(client)
	_ = locked(func() error {
		if client.match == match {
			client.match = nil
		}
		if opponent.match == match {
			opponent.match = nil
		}
		return nil
	}, client, opponent)
}
