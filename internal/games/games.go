// Package games defines the contract between the session engine and
// pluggable game implementations.
//
// A game engine is responsible for its own rules: it creates instances,
// validates and applies updates atomically, and reports whose side moves
// next. The session engine never inspects game state beyond this contract.
package games

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

// State describes the lifecycle of a game instance.
type State int

const (
	// StateUnspecified represents an invalid state value.
	StateUnspecified State = iota
	// StateRunning indicates the game accepts further updates.
	StateRunning
	// StateFinished indicates the game reached a terminal state.
	StateFinished
)

// Side identifies one of the two sides of a game.
type Side int

const (
	// SideNone is the absence of a side; as an outcome it signifies a tie.
	SideNone Side = iota
	// SideFirst is the side that moves first.
	SideFirst
	// SideSecond is the side that moves second.
	SideSecond
)

// String returns the lowercase side name used on the wire.
func (s Side) String() string {
	switch s {
	case SideFirst:
		return "first"
	case SideSecond:
		return "second"
	default:
		return "none"
	}
}

// Opponent returns the opposing side, or SideNone for SideNone.
func (s Side) Opponent() Side {
	switch s {
	case SideFirst:
		return SideSecond
	case SideSecond:
		return SideFirst
	default:
		return SideNone
	}
}

// Instance is one live game. Implementations are not safe for concurrent
// use; the session engine guards every access with the instance's lock.
type Instance interface {
	// State reports the lifecycle state.
	State() State
	// Next reports the side to move. Once finished it reports SideNone.
	Next() Side
	// Outcome reports the winning side once finished; SideNone is a tie.
	// Its value is unspecified while the game is running.
	Outcome() Side
	// Snapshot renders the observable game state as wire arguments.
	Snapshot() map[string]any
}

// Engine creates game instances and applies updates to them.
type Engine interface {
	// Name identifies the engine; it doubles as the websocket route segment.
	Name() string
	// CreateGame returns a fresh instance with the first side to move.
	CreateGame() (Instance, error)
	// UpdateArguments describes the argument schema of an update request.
	UpdateArguments() []Arg
	// Update validates and applies one update. It either fully applies the
	// update or leaves the instance unchanged and returns an error.
	Update(game Instance, args map[string]any) error
}

// ArgKind enumerates the supported update argument types.
type ArgKind int

const (
	// ArgInt is an integer argument.
	ArgInt ArgKind = iota + 1
	// ArgString is a string argument.
	ArgString
	// ArgBool is a boolean argument.
	ArgBool
)

// Arg is one entry of an engine's update argument schema.
type Arg struct {
	Name string
	Kind ArgKind
}

// ParseUpdateArgs validates raw wire arguments against a schema and coerces
// them to their declared kinds. JSON numbers arrive as float64 and are
// narrowed to int when the schema declares ArgInt.
func ParseUpdateArgs(schema []Arg, raw map[string]any) (map[string]any, error) {
	parsed := make(map[string]any, len(schema))
	for _, arg := range schema {
		value, ok := raw[arg.Name]
		if !ok {
			return nil, fmt.Errorf("missing argument %q", arg.Name)
		}
		switch arg.Kind {
		case ArgInt:
			number, ok := value.(float64)
			if !ok || number != math.Trunc(number) {
				if integer, isInt := value.(int); isInt {
					parsed[arg.Name] = integer
					continue
				}
				return nil, fmt.Errorf("argument %q is not an integer", arg.Name)
			}
			parsed[arg.Name] = int(number)
		case ArgString:
			text, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("argument %q is not a string", arg.Name)
			}
			parsed[arg.Name] = text
		case ArgBool:
			flag, ok := value.(bool)
			if !ok {
				return nil, fmt.Errorf("argument %q is not a boolean", arg.Name)
			}
			parsed[arg.Name] = flag
		default:
			return nil, fmt.Errorf("argument %q has unknown kind", arg.Name)
		}
	}
	return parsed, nil
}

// ErrDuplicateEngine indicates an engine name registered twice.
var ErrDuplicateEngine = errors.New("engine already registered")

// Registry holds the game engines served by one process, keyed by name.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]Engine
}

// NewRegistry creates an empty engine registry.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]Engine)}
}

// Register adds an engine to the registry.
func (r *Registry) Register(engine Engine) error {
	if engine == nil {
		return errors.New("engine is required")
	}
	name := engine.Name()
	if name == "" {
		return errors.New("engine name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.engines[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateEngine, name)
	}
	r.engines[name] = engine
	return nil
}

// Lookup returns the engine registered under name.
func (r *Registry) Lookup(name string) (Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	engine, ok := r.engines[name]
	return engine, ok
}

// Names returns the registered engine names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
