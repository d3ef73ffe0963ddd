package game

// GameStatus is the lifecycle of one game.
type GameStatus string

const (
	StatusSetup    GameStatus = "setup"
	StatusPlaying  GameStatus = "playing"
	StatusFinished GameStatus = "finished"
)

// TurnPhase is where the acting player is within their turn.
type TurnPhase string

const (
	PhaseAwaitRoll TurnPhase = "awaiting-roll"
	PhaseArrival   TurnPhase = "arrival-effects"
	PhaseActions   TurnPhase = "awaiting-actions"
	PhaseReady     TurnPhase = "ready-to-end"
)

// Player is one participant. Money may go negative; Time only ever goes
// up. Scope is derived from held W cards and is only ever written by a
// ScopeRecalculation effect.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Colour string `json:"colour"`

	Space   string               `json:"space"`
	Visited map[string]VisitType `json:"visited"`
	History []string             `json:"history"`

	Money int `json:"money"`
	Time  int `json:"time"`
	Scope int `json:"scope"`

	Available []string     `json:"available"`
	Active    []ActiveCard `json:"active"`
	Discarded []string     `json:"discarded"`

	SkipTurns int `json:"skipTurns"`

	// per-turn flags
	HasRolled bool `json:"hasRolled"`
	HasMoved  bool `json:"hasMoved"`
}

// ActiveCard is a played card still in effect, expiring at a turn number.
type ActiveCard struct {
	CardID  string `json:"cardId"`
	Expires int    `json:"expires"`
}

// HoldsCard says whether a card is in the player's available or active
// collections.
func (p *Player) HoldsCard(cardID string) bool {
	if stringListContains(p.Available, cardID) {
		return true
	}
	for _, a := range p.Active {
		if a.CardID == cardID {
			return true
		}
	}
	return false
}

// VisitTypeFor says which rule row applies for the player on a space.
func (p *Player) VisitTypeFor(space string) VisitType {
	if v, ok := p.Visited[space]; ok {
		return v
	}
	return VisitFirst
}

func (p *Player) clone() Player {
	out := *p
	out.Visited = make(map[string]VisitType, len(p.Visited))
	for k, v := range p.Visited {
		out.Visited[k] = v
	}
	out.History = append([]string(nil), p.History...)
	out.Available = append([]string(nil), p.Available...)
	out.Active = append([]ActiveCard(nil), p.Active...)
	out.Discarded = append([]string(nil), p.Discarded...)
	return out
}

// Deck is one card type's shared draw pile and discard pile. Drawing
// takes from the front; discards append to the pile. An exhausted deck
// with an empty discard pile is a modeled failure, never regenerated.
type Deck struct {
	Draw    []string `json:"draw"`
	Discard []string `json:"discard"`
}

func (d Deck) clone() Deck {
	return Deck{
		Draw:    append([]string(nil), d.Draw...),
		Discard: append([]string(nil), d.Discard...),
	}
}

// take removes n ids from the front, reshuffling nothing: if the draw
// pile runs dry the discard pile is turned over in order.
func (d Deck) take(n int) ([]string, Deck, bool) {
	out := []string{}
	for len(out) < n {
		if len(d.Draw) == 0 {
			if len(d.Discard) == 0 {
				return nil, d, false
			}
			d.Draw = d.Discard
			d.Discard = nil
		}
		out = append(out, d.Draw[0])
		d.Draw = d.Draw[1:]
	}
	return out, d, true
}

// PendingChoice is a suspended decision point. Options are enumerated;
// the engine will not proceed for this game until it is resolved.
type PendingChoice struct {
	ID      string   `json:"id"`
	Player  string   `json:"player"`
	Kind    string   `json:"kind"` // "movement" or "effect"
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// ManualAction is one rule row flagged manual on the current space; the
// player must trigger each before the turn may end.
type ManualAction struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	Done        bool           `json:"done"`
	Row         SpaceEffectRow `json:"row"`
}

// Change is one entry in the append-only action log. Observability only,
// never replayed.
type Change struct {
	Who   string `json:"who"`
	What  string `json:"what"`
	Where string `json:"where"`
}

// Snapshot is the per-player checkpoint for try-again: the player's own
// state plus the decks, captured at turn start before any effect.
type Snapshot struct {
	Player Player            `json:"player"`
	Decks  map[CardType]Deck `json:"decks"`
}

// GameState is the single source of truth for one game. It is updated by
// replacement: every operation clones, mutates the clone, and commits the
// clone wholesale.
type GameState struct {
	Status  GameStatus `json:"status"`
	Winner  string     `json:"winner"`
	Players []Player   `json:"players"`
	Current int        `json:"current"`
	TurnNo  int        `json:"turnNo"`

	Decks map[CardType]Deck `json:"decks"`

	Phase   TurnPhase      `json:"phase"`
	Roll    int            `json:"roll"`
	Manual  []ManualAction `json:"manual"`
	Forfeit bool           `json:"forfeit"`
	Pending *PendingChoice `json:"pending"`

	ChoiceSeq int `json:"choiceSeq"`

	Snapshots map[string]*Snapshot `json:"snapshots"`

	Log []Change `json:"log"`
}

// Clone deep-copies the state.
func (gs GameState) Clone() GameState {
	out := gs
	out.Players = make([]Player, len(gs.Players))
	for i := range gs.Players {
		out.Players[i] = gs.Players[i].clone()
	}
	out.Decks = make(map[CardType]Deck, len(gs.Decks))
	for t, d := range gs.Decks {
		out.Decks[t] = d.clone()
	}
	out.Manual = append([]ManualAction(nil), gs.Manual...)
	if gs.Pending != nil {
		c := *gs.Pending
		c.Options = append([]string(nil), gs.Pending.Options...)
		out.Pending = &c
	}
	out.Snapshots = make(map[string]*Snapshot, len(gs.Snapshots))
	for id, s := range gs.Snapshots {
		if s == nil {
			continue
		}
		cp := Snapshot{Player: s.Player.clone(), Decks: map[CardType]Deck{}}
		for t, d := range s.Decks {
			cp.Decks[t] = d.clone()
		}
		out.Snapshots[id] = &cp
	}
	out.Log = append([]Change(nil), gs.Log...)
	return out
}

// PlayerByID finds a player in the state, or nil.
func (gs *GameState) PlayerByID(id string) *Player {
	for i := range gs.Players {
		if gs.Players[i].ID == id {
			return &gs.Players[i]
		}
	}
	return nil
}

// CurrentPlayer is the acting player, or nil before start.
func (gs *GameState) CurrentPlayer() *Player {
	if gs.Current < 0 || gs.Current >= len(gs.Players) {
		return nil
	}
	return &gs.Players[gs.Current]
}

// OutstandingManual counts the manual actions not yet completed this
// turn.
func (gs *GameState) OutstandingManual() int {
	n := 0
	for _, m := range gs.Manual {
		if !m.Done {
			n++
		}
	}
	return n
}

func (gs *GameState) addEvent(who *Player, msg string) {
	where := ""
	name := ""
	if who != nil {
		where = who.Space
		name = who.Name
	}
	gs.Log = append(gs.Log, Change{Who: name, What: msg, Where: where})
}

// Store holds the authoritative state for one game and fans out full
// snapshots after every committed change. The engine is single threaded;
// the store just enforces the read-snapshot, replace-wholesale
// discipline and keeps subscribers from seeing partial writes.
type Store struct {
	state GameState
	subs  []chan GameState
}

func NewStore(initial GameState) *Store {
	return &Store{state: initial}
}

// Get returns a deep copy; callers compute a next state from it.
func (s *Store) Get() GameState {
	return s.state.Clone()
}

// Replace commits a next state wholesale and notifies subscribers.
// Lagging subscribers are skipped, not waited for.
func (s *Store) Replace(next GameState) {
	s.state = next
	for _, ch := range s.subs {
		select {
		case ch <- next.Clone():
		default:
		}
	}
}

// Subscribe returns a channel of state snapshots.
func (s *Store) Subscribe() <-chan GameState {
	ch := make(chan GameState, 4)
	s.subs = append(s.subs, ch)
	return ch
}
