package game

type GameError struct {
	Code string
	Msg  string
}

func (e *GameError) ErrorCode() string { return e.Code }
func (e *GameError) Error() string     { return e.Msg }

var (
	// ErrPlayerExists means a player with the same name already is
	ErrPlayerExists = &GameError{"PLAYEREXISTS", "player exists"}
	// ErrNoPlayers means can't start the game with no players
	ErrNoPlayers = &GameError{"NOPLAYERS", "no players"}
	// ErrTooManyPlayers means the starting space doesn't allow this many
	ErrTooManyPlayers = &GameError{"TOOMANYPLAYERS", "too many players"}
	// ErrAlreadyStarted is only when calling Start() too much
	ErrAlreadyStarted = &GameError{"ALREADYSTARTED", "game has already started"}

	// ErrNotStarted means the game has not started
	ErrNotStarted = &GameError{"NOTSTARTED", "game has not started"}
	// ErrFinished means the game is over and takes no more intents
	ErrFinished = &GameError{"FINISHED", "game has finished"}

	// ErrNotYourTurn means you can't do something while it's not your turn
	ErrNotYourTurn = &GameError{"NOTYOURTURN", "it's not your turn"}
	// ErrNotNow is for maybe valid moves that are not allowed now
	ErrNotNow = &GameError{"NOTNOW", "you cannot do that now"}
	// ErrMustDo means required actions are left before the turn can end
	ErrMustDo = &GameError{"MUSTDO", "must do things"}
	// ErrChoicePending means a choice is outstanding and blocks other intents
	ErrChoicePending = &GameError{"CHOICEPENDING", "a choice is pending"}
	// ErrNoChoice means there is no choice to resolve
	ErrNoChoice = &GameError{"NOCHOICE", "no choice is pending"}
	// ErrBadChoice means the selected option is not in the choice
	ErrBadChoice = &GameError{"BADCHOICE", "not one of the options"}
	// ErrNoSnapshot means try-again was asked for with nothing to restore
	ErrNoSnapshot = &GameError{"NOSNAPSHOT", "no snapshot to restore"}
	// ErrNoNegotiate means the current space does not permit try-again
	ErrNoNegotiate = &GameError{"NONEGOTIATE", "this space does not allow negotiation"}
	// ErrBadDestination means a move to somewhere not in the valid set
	ErrBadDestination = &GameError{"BADDESTINATION", "not a valid destination"}
	// ErrTerminalSpace means trying to move off a space with no exits
	ErrTerminalSpace = &GameError{"TERMINALSPACE", "no movement from this space"}
	// ErrCardNotHeld means the player doesn't hold that card
	ErrCardNotHeld = &GameError{"CARDNOTHELD", "card not held"}

	// ErrNotLoaded means rule data was used before being loaded
	ErrNotLoaded = &GameError{"NOTLOADED", "rule data not loaded"}
	// ErrBadRequest is for bad requests
	ErrBadRequest = &GameError{"BADREQUEST", "bad request"}
)

// DataError is a defect in the rule data itself: a missing row, an
// unparseable effect, a dice roll outside the table. It is fatal to the
// triggering operation and must be fixed upstream, never skipped.
type DataError struct {
	Space string
	Field string
	Msg   string
}

func (e *DataError) Error() string {
	if e.Space != "" {
		return "rule data: " + e.Space + ": " + e.Field + ": " + e.Msg
	}
	return "rule data: " + e.Field + ": " + e.Msg
}

// StateError is a consistency violation inside the engine: a second
// pending choice, a draw from an empty deck, a discard the player cannot
// cover. The engine never auto-recovers from these.
type StateError struct {
	Player string
	What   string
}

func (e *StateError) Error() string {
	if e.Player != "" {
		return "state: " + e.Player + ": " + e.What
	}
	return "state: " + e.What
}
