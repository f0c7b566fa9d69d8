package protocol

// Constructors for outbound events. Each is a pure function from domain data
// to a wire-ready Event.

// NewIDEvent announces the connection identity assigned to a client.
func NewIDEvent(clientID string) Event {
	return Event{Code: CodeID, Args: map[string]any{"id": clientID}}
}

// NewChallengeEvent notifies a client it has been challenged.
func NewChallengeEvent(opponentID string) Event {
	return Event{Code: CodeChallenge, Args: map[string]any{"opponent": opponentID}}
}

// NewChallengeAbortEvent notifies a client a challenge against it was withdrawn.
func NewChallengeAbortEvent(opponentID string) Event {
	return Event{Code: CodeChallengeAbort, Args: map[string]any{"opponent": opponentID}}
}

// NewChallengeAcceptEvent notifies a challenger its challenge was accepted.
func NewChallengeAcceptEvent(opponentID string) Event {
	return Event{Code: CodeChallengeAccept, Args: map[string]any{"opponent": opponentID}}
}

// NewChallengeDeclineEvent notifies a challenger its challenge was declined.
func NewChallengeDeclineEvent(opponentID string) Event {
	return Event{Code: CodeChallengeDecline, Args: map[string]any{"opponent": opponentID}}
}

// NewGameInitEvent announces a new match. The next flag marks the recipient
// as the first to move. The snapshot carries the game's initial observable
// state and is merged with the recipient's role.
func NewGameInitEvent(role string, next bool, snapshot map[string]any) Event {
	code := CodeGameInit
	if next {
		code = CodeGameInitNext
	}
	args := cloneArgs(snapshot)
	args["role"] = role
	return Event{Code: code, Args: args}
}

// NewGameUpdateEvent reports an applied move. The next flag marks the
// recipient as the side to move.
func NewGameUpdateEvent(next bool, snapshot map[string]any) Event {
	code := CodeGameUpdateBroadcast
	if next {
		code = CodeGameUpdateNext
	}
	return Event{Code: code, Args: cloneArgs(snapshot)}
}

// NewGameEndTieEvent reports a finished match without a winner.
func NewGameEndTieEvent(snapshot map[string]any) Event {
	return Event{Code: CodeGameEndTie, Args: cloneArgs(snapshot)}
}

// NewGameEndVictoryEvent reports a finished match won by the recipient.
func NewGameEndVictoryEvent(snapshot map[string]any) Event {
	return Event{Code: CodeGameEndVictory, Args: cloneArgs(snapshot)}
}

// NewGameEndDefeatEvent reports a finished match lost by the recipient.
func NewGameEndDefeatEvent(snapshot map[string]any) Event {
	return Event{Code: CodeGameEndDefeat, Args: cloneArgs(snapshot)}
}

// NewErrorEvent carries a human-readable error message.
func NewErrorEvent(message string) Event {
	return Event{Code: CodeError, Args: map[string]any{"message": message}}
}

// cloneArgs copies a snapshot so constructors never alias caller state.
func cloneArgs(snapshot map[string]any) map[string]any {
	args := make(map[string]any, len(snapshot)+1)
	for name, value := range snapshot {
		args[name] = value
	}
	return args
}
