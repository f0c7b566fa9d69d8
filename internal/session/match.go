package session

import (
	"github.com/ZXseITz/zx-tbsg/internal/games"
)

// Match pairs two clients over one guarded game instance. The client that
// accepted the challenge holds the first-mover role.
type Match struct {
	first  *Client
	second *Client
	game   *Protected[games.Instance]
}

func newMatch(first, second *Client, instance games.Instance) *Match {
	return &Match{
		first:  first,
		second: second,
		game:   NewProtected(instance),
	}
}

// side returns the role of c within the match, or SideNone for strangers.
func (m *Match) side(c *Client) games.Side {
	switch c {
	case m.first:
		return games.SideFirst
	case m.second:
		return games.SideSecond
	default:
		return games.SideNone
	}
}

// opponent returns the other participant.
func (m *Match) opponent(c *Client) *Client {
	if c == m.first {
		return m.second
	}
	return m.first
}
