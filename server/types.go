package server

import (
	"encoding/json"

	"github.com/hardhatgames/scopecreep/game"
)

// Intent is one player request, as posted by a client. Cmd selects the
// operation; the other fields feed it.
type Intent struct {
	Cmd    string `json:"cmd"` // roll, play, act, choose, end, tryagain
	Card   string `json:"card"`
	Action string `json:"action"`
	Choice string `json:"choice"`
	Option string `json:"option"`
}

// WsJSONMessage is the envelope for everything sent down a websocket.
type WsJSONMessage struct {
	Head string          `json:"head"`
	Data json.RawMessage `json:"data"`
}

// GameUpdate is broadcast to every client after a committed change.
type GameUpdate struct {
	News    []game.Change   `json:"news"`
	Status  game.GameStatus `json:"status"`
	Winner  string          `json:"winner"`
	Players []game.Player   `json:"players"`
	Turn    game.TurnState  `json:"turn"`
}

type joinMsg struct {
	Name   string
	Colour string
	Client clientBundle
	Rep    chan joinReply
}

type joinReply struct {
	ID  string
	Err error
}

type startMsg struct {
	Rep chan startReply
}

type startReply struct {
	Turn game.TurnState
	Err  error
}

type intentMsg struct {
	Who    string
	Intent Intent
	Rep    chan intentReply
}

type intentReply struct {
	Res game.PlayResult
	Err error
}

type queryStateMsg struct {
	Rep chan game.GameState
}

type queryTurnMsg struct {
	Rep chan game.TurnState
}

type disconnectMsg struct {
	Name string
}

type clientBundle struct {
	name   string
	downCh chan WsJSONMessage
}
