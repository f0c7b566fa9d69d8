// Package protocol implements the wire codec for the turn-based game
// protocol: a compact JSON envelope carrying an integer event code and an
// optional mapping of named arguments.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Client event codes.
const (
	// CodeChallenge requests or announces a challenge against an opponent.
	CodeChallenge = 1001
	// CodeChallengeAbort withdraws a previously issued challenge.
	CodeChallengeAbort = 1002
	// CodeChallengeAccept accepts a pending challenge and starts a match.
	CodeChallengeAccept = 1003
	// CodeChallengeDecline rejects a pending challenge.
	CodeChallengeDecline = 1004
	// CodeGameUpdate submits a move; its arguments follow the engine schema.
	CodeGameUpdate = 2000
)

// Server event codes.
const (
	// CodeID assigns the connection identity after connect.
	CodeID = 1000
	// CodeGameInit announces a new match; the opponent moves first.
	CodeGameInit = 2100
	// CodeGameInitNext announces a new match; the recipient moves first.
	CodeGameInitNext = 2101
	// CodeGameUpdateBroadcast reports an applied move; the opponent moves next.
	CodeGameUpdateBroadcast = 2110
	// CodeGameUpdateNext reports an applied move; the recipient moves next.
	CodeGameUpdateNext = 2111
	// CodeGameEndTie reports a finished match without a winner.
	CodeGameEndTie = 2120
	// CodeGameEndVictory reports a finished match won by the recipient.
	CodeGameEndVictory = 2121
	// CodeGameEndDefeat reports a finished match lost by the recipient.
	CodeGameEndDefeat = 2122
	// CodeError carries a human-readable error message.
	CodeError = 4000
)

// ErrMissingCode indicates a wire message without a well-formed integer code.
var ErrMissingCode = errors.New("missing event code")

// Event is the in-memory representation of one protocol message.
type Event struct {
	Code int
	Args map[string]any
}

// Arg returns the named argument when present.
func (e Event) Arg(name string) (any, bool) {
	value, ok := e.Args[name]
	return value, ok
}

// StringArg returns the named argument as a string.
func (e Event) StringArg(name string) (string, error) {
	value, ok := e.Args[name]
	if !ok {
		return "", fmt.Errorf("missing argument %q", name)
	}
	text, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("argument %q is not a string", name)
	}
	return text, nil
}

// wireEvent mirrors the JSON envelope. The code is a pointer so a missing
// field is distinguishable from code zero.
type wireEvent struct {
	Code *int           `json:"code"`
	Args map[string]any `json:"args"`
}

// Decode parses a wire message into an Event. A message without a well-formed
// integer code is rejected with ErrMissingCode.
func Decode(data []byte) (Event, error) {
	var wire wireEvent
	if err := json.Unmarshal(data, &wire); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMissingCode, err)
	}
	if wire.Code == nil {
		return Event{}, ErrMissingCode
	}
	return Event{Code: *wire.Code, Args: wire.Args}, nil
}

// Encode serialises an Event into its wire form. Events without arguments are
// encoded with an empty args object.
func Encode(event Event) ([]byte, error) {
	args := event.Args
	if args == nil {
		args = map[string]any{}
	}
	code := event.Code
	data, err := json.Marshal(wireEvent{Code: &code, Args: args})
	if err != nil {
		return nil, fmt.Errorf("encode event %d: %w", event.Code, err)
	}
	return data, nil
}
