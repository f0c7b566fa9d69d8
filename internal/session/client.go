package session

import (
	"log"

	"github.com/ZXseITz/zx-tbsg/internal/protocol"
)

// SendFunc transmits one outbound event to a connected peer. Implementations
// must be safe for concurrent use. A returned error is a delivery error; the
// session engine logs it and never lets it abort a critical section.
type SendFunc func(protocol.Event) error

// Client is one connected participant: its connection identity, the set of
// opponents it has challenged, and its current match. Clients are lockable;
// the challenge set and match reference must only be touched inside a
// critical section whose resource set includes the client.
type Client struct {
	lockable
	id   string
	send SendFunc

	challenges map[*Client]struct{}
	match      *Match
}

func newClient(id string, send SendFunc) *Client {
	return &Client{
		lockable:   newLockable(),
		id:         id,
		send:       send,
		challenges: make(map[*Client]struct{}),
	}
}

// ID returns the connection identity.
func (c *Client) ID() string {
	return c.id
}

// addChallenge records an outgoing challenge edge. Duplicate edges collapse.
func (c *Client) addChallenge(opponent *Client) {
	c.challenges[opponent] = struct{}{}
}

// removeChallenge drops the outgoing edge to opponent and reports whether it
// existed.
func (c *Client) removeChallenge(opponent *Client) bool {
	if _, ok := c.challenges[opponent]; !ok {
		return false
	}
	delete(c.challenges, opponent)
	return true
}

// challenged reports whether an outgoing edge to opponent exists.
func (c *Client) challenged(opponent *Client) bool {
	_, ok := c.challenges[opponent]
	return ok
}

// challengeTargets returns a copy of the outgoing challenge set.
func (c *Client) challengeTargets() []*Client {
	targets := make([]*Client, 0, len(c.challenges))
	for opponent := range c.challenges {
		targets = append(targets, opponent)
	}
	return targets
}

// deliver sends one event to the client. Delivery errors are logged and
// swallowed so an already-applied state change is never rolled back by a
// failing send.
func (c *Client) deliver(event protocol.Event) {
	if err := c.send(event); err != nil {
		log.Printf("event delivery failed client_id=%s code=%d error=%v", c.id, event.Code, err)
	}
}
