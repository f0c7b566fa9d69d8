// Package session implements the matchmaking and turn-coordination engine
// for turn-based two-player games.
//
// The package is organized around a few cooperating pieces:
//   - Coordinator: owns the client registry, interprets inbound protocol
//     events, and drives challenge and match transitions.
//   - Client / Match: the shared mutable resources, each participating in
//     an ordered multi-lock protocol that rules out deadlocks.
//   - Protected: a guarded holder for the live game instance shared by the
//     two participants of a match.
package session
