package game

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
)

// Dice produces one roll. It is injected so tests and replays can pin
// values; the engine itself never rolls.
type Dice interface {
	Roll() int
}

type randDice struct {
	sides int
	rng   *rand.Rand
}

func (d randDice) Roll() int {
	if d.rng != nil {
		return d.rng.Intn(d.sides) + 1
	}
	return rand.Intn(d.sides) + 1
}

// Options tune a new game. Zero values mean: real dice, global rand for
// the deck shuffle.
type Options struct {
	Dice Dice
	Rand *rand.Rand
}

// TurnState is the per-turn view handed to the presentation layer.
type TurnState struct {
	Number int       `json:"number"`
	Player string    `json:"player"`
	Name   string    `json:"name"`
	Phase  TurnPhase `json:"phase"`
	Roll   int       `json:"roll"`

	// things that the player can do now
	Can []string `json:"can"`
	// manual actions that must be done before the turn can end
	Must []string `json:"must"`

	Choice *PendingChoice `json:"choice"`
}

// PlayResult is what one intent produced: a direct response for the
// caller, the news for everyone, and the turn as it now stands.
type PlayResult struct {
	Response interface{} `json:"response"`
	News     []Change    `json:"news"`
	Turn     TurnState   `json:"turn"`
}

// Game is one shared game instance. All methods are synchronous and
// none block on I/O; waiting for a remote player is the caller's
// business.
type Game interface {
	// setup
	AddPlayer(name string, colour string) (string, error)
	RemovePlayer(id string) error
	Start() (TurnState, error)

	// player intents
	RollDice(player string) (PlayResult, error)
	PlayCard(player string, cardID string) (PlayResult, error)
	DoAction(player string, actionID string) (PlayResult, error)
	ResolveChoice(player string, choiceID string, option string) (PlayResult, error)
	EndTurn(player string) (PlayResult, error)
	TryAgain(player string) (PlayResult, error)

	// general state
	GetGameState() GameState
	GetTurnState() TurnState
	AvailableActions(player string) []string
	Subscribe() <-chan GameState

	// admin
	WriteOut(w io.Writer) error
}

type game struct {
	rules  Rules
	engine *Engine
	store  *Store
	dice   Dice
	rng    *rand.Rand

	nextID int

	// continuation of an effect batch halted on the pending choice;
	// lives here, not in state, because effects are not data
	cont []Effect
}

// New builds an unstarted game over loaded rule data. Decks are stacked
// and shuffled once, here.
func New(rules Rules, opts Options) (Game, error) {
	if !rules.IsLoaded() {
		return nil, ErrNotLoaded
	}

	dice := opts.Dice
	if dice == nil {
		dice = randDice{sides: rules.GetSettings().DiceSides, rng: opts.Rand}
	}

	decks := map[CardType]Deck{}
	for _, t := range CardTypes {
		decks[t] = newDeck(rules.GetCardsByType(t), opts.Rand)
	}

	gs := GameState{
		Status:    StatusSetup,
		Current:   -1,
		Decks:     decks,
		Snapshots: map[string]*Snapshot{},
	}

	return &game{
		rules:  rules,
		engine: NewEngine(rules),
		store:  NewStore(gs),
		dice:   dice,
		rng:    opts.Rand,
		nextID: 1,
	}, nil
}

type gameSave struct {
	State  GameState `json:"state"`
	NextID int       `json:"nextId"`
}

// NewFromSaved restores a saved game over the same rule data. A game
// saved while an effect choice was pending cannot be restored
// mid-choice; movement choices restore fine because their continuation
// is rebuilt from the rule data.
func NewFromSaved(rules Rules, opts Options, r io.Reader) (Game, error) {
	g, err := New(rules, opts)
	if err != nil {
		return nil, err
	}
	gg := g.(*game)

	var save gameSave
	if err := json.NewDecoder(r).Decode(&save); err != nil {
		return nil, fmt.Errorf("bad save: %w", err)
	}
	if save.State.Pending != nil && save.State.Pending.Kind != "movement" {
		return nil, &StateError{What: "cannot restore a save with a pending effect choice"}
	}

	gg.store = NewStore(save.State)
	gg.nextID = save.NextID
	if save.State.Pending != nil {
		gg.cont = []Effect{gg.movementChoice(&save.State)}
	}
	return gg, nil
}

// movementChoice rebuilds the movement choice effect for the pending
// choice in a restored state.
func (g *game) movementChoice(gs *GameState) Effect {
	var options []ChoiceOption
	for _, dest := range gs.Pending.Options {
		options = append(options, ChoiceOption{
			ID:      dest,
			Label:   dest,
			Effects: []Effect{Movement{Player: gs.Pending.Player, Dest: dest}},
		})
	}
	return Choice{Player: gs.Pending.Player, Kind: "movement", Prompt: gs.Pending.Prompt, Options: options}
}

func (g *game) AddPlayer(name string, colour string) (string, error) {
	gs := g.store.Get()
	if gs.Status != StatusSetup {
		return "", ErrAlreadyStarted
	}
	for _, p := range gs.Players {
		if p.Name == name {
			return "", ErrPlayerExists
		}
	}

	start, err := g.rules.StartingSpace()
	if err != nil {
		return "", err
	}
	cfg, err := g.rules.GetSpaceConfig(start)
	if err != nil {
		return "", err
	}
	if cfg.MaxPlayers > 0 && len(gs.Players) >= cfg.MaxPlayers {
		return "", ErrTooManyPlayers
	}

	id := fmt.Sprintf("p%d", g.nextID)
	g.nextID++

	newp := Player{
		ID:      id,
		Name:    name,
		Colour:  colour,
		Space:   start,
		Visited: map[string]VisitType{start: VisitFirst},
		History: []string{start},
		Money:   g.rules.GetSettings().StartMoney,
	}
	gs.Players = append(gs.Players, newp)
	gs.addEvent(&newp, "joins the game")

	g.store.Replace(gs)
	return id, nil
}

func (g *game) RemovePlayer(id string) error {
	gs := g.store.Get()
	if gs.Status != StatusSetup {
		return ErrAlreadyStarted
	}
	for i := range gs.Players {
		if gs.Players[i].ID == id {
			gs.Players = append(gs.Players[:i], gs.Players[i+1:]...)
			g.store.Replace(gs)
			return nil
		}
	}
	return ErrBadRequest
}

func (g *game) Start() (TurnState, error) {
	gs := g.store.Get()
	if gs.Status != StatusSetup {
		return TurnState{}, ErrAlreadyStarted
	}
	if len(gs.Players) < 1 {
		return TurnState{}, ErrNoPlayers
	}

	start, err := g.rules.StartingSpace()
	if err != nil {
		return TurnState{}, err
	}
	cfg, err := g.rules.GetSpaceConfig(start)
	if err != nil {
		return TurnState{}, err
	}
	if cfg.MinPlayers > 0 && len(gs.Players) < cfg.MinPlayers {
		return TurnState{}, ErrNoPlayers
	}

	if g.rng != nil {
		g.rng.Shuffle(len(gs.Players), func(i, j int) {
			gs.Players[i], gs.Players[j] = gs.Players[j], gs.Players[i]
		})
	} else {
		rand.Shuffle(len(gs.Players), func(i, j int) {
			gs.Players[i], gs.Players[j] = gs.Players[j], gs.Players[i]
		})
	}

	gs.Status = StatusPlaying
	gs.Current = 0
	gs.TurnNo = 1
	g.beginTurn(&gs)
	gs.addEvent(gs.CurrentPlayer(), "the game starts")

	g.store.Replace(gs)
	return g.turnState(&gs), nil
}

// beginTurn captures the acting player's pre-effect snapshot, exactly
// once and before anything else happens to them this turn, and resets
// the per-turn bookkeeping.
func (g *game) beginTurn(gs *GameState) {
	cp := gs.CurrentPlayer()
	gs.Phase = PhaseAwaitRoll
	gs.Roll = 0
	gs.Manual = nil
	gs.Forfeit = false

	snap := &Snapshot{Player: cp.clone(), Decks: map[CardType]Deck{}}
	for t, d := range gs.Decks {
		snap.Decks[t] = d.clone()
	}
	gs.Snapshots[cp.ID] = snap
}

// actor validates an intent against the current state: game running,
// right player, and (unless resolving) no choice outstanding.
func (g *game) actor(gs *GameState, player string, resolving bool) (*Player, error) {
	switch gs.Status {
	case StatusSetup:
		return nil, ErrNotStarted
	case StatusFinished:
		return nil, ErrFinished
	}
	if gs.Pending != nil && !resolving {
		return nil, ErrChoicePending
	}
	if resolving {
		if gs.Pending == nil {
			return nil, ErrNoChoice
		}
		if gs.Pending.Player != player {
			return nil, ErrNotYourTurn
		}
		return gs.PlayerByID(player), nil
	}
	cp := gs.CurrentPlayer()
	if cp == nil || cp.ID != player {
		return nil, ErrNotYourTurn
	}
	return cp, nil
}

func (g *game) RollDice(player string) (PlayResult, error) {
	gs := g.store.Get()
	cp, err := g.actor(&gs, player, false)
	if err != nil {
		return PlayResult{}, err
	}
	if cp.HasRolled {
		return PlayResult{}, ErrNotNow
	}

	cfg, err := g.rules.GetSpaceConfig(cp.Space)
	if err != nil {
		return PlayResult{}, err
	}

	mark := len(gs.Log)

	roll := 0
	if cfg.RequiresDiceRoll {
		roll = g.dice.Roll()
		gs.addEvent(cp, fmt.Sprintf("rolls a %d", roll))
	}
	gs.Roll = roll
	cp.HasRolled = true

	dest, options, err := destinationForRoll(g.rules, &gs, player, roll)
	if err != nil {
		return PlayResult{}, err
	}

	var batch []Effect
	switch {
	case len(options) > 0:
		var opts []ChoiceOption
		for _, d := range options {
			opts = append(opts, ChoiceOption{
				ID:      d,
				Label:   d,
				Effects: []Effect{Movement{Player: player, Dest: d}},
			})
		}
		batch = []Effect{Choice{Player: player, Kind: "movement", Prompt: "choose where to move", Options: opts}}
	case dest != "":
		batch = []Effect{Movement{Player: player, Dest: dest}}
	default:
		// terminal or stationary space: the roll feeds this space's
		// own conditioned effects
		batch = []Effect{arrival{Player: player}}
	}

	next, cont, err := g.engine.Apply(gs, batch, Context{Actor: player, Roll: roll})
	if err != nil {
		return PlayResult{}, err
	}
	return g.commit(next, cont, mark, roll)
}

func (g *game) PlayCard(player string, cardID string) (PlayResult, error) {
	gs := g.store.Get()
	cp, err := g.actor(&gs, player, false)
	if err != nil {
		return PlayResult{}, err
	}
	if !stringListContains(cp.Available, cardID) {
		return PlayResult{}, ErrCardNotHeld
	}

	def, err := g.rules.GetCardDefinition(cardID)
	if err != nil {
		return PlayResult{}, err
	}
	effs, err := BuildCardEffects(def, player)
	if err != nil {
		return PlayResult{}, err
	}

	mark := len(gs.Log)

	cp.Available, _ = stringListWithout(cp.Available, cardID)
	if def.Duration > 0 {
		cp.Active = append(cp.Active, ActiveCard{CardID: cardID, Expires: gs.TurnNo + def.Duration})
	} else {
		cp.Discarded = append(cp.Discarded, cardID)
	}
	gs.addEvent(cp, "plays "+def.Name)

	// the played card itself moving out of the hand is a W-set change
	if def.Type == CardWork {
		effs = append(effs, ScopeRecalculation{Player: player})
	}

	next, cont, err := g.engine.Apply(gs, effs, Context{Actor: player, Roll: gs.Roll})
	if err != nil {
		return PlayResult{}, err
	}
	return g.commit(next, cont, mark, def.Name)
}

func (g *game) DoAction(player string, actionID string) (PlayResult, error) {
	gs := g.store.Get()
	cp, err := g.actor(&gs, player, false)
	if err != nil {
		return PlayResult{}, err
	}
	if !cp.HasRolled {
		return PlayResult{}, ErrNotNow
	}

	var slot *ManualAction
	for i := range gs.Manual {
		if gs.Manual[i].ID == actionID && !gs.Manual[i].Done {
			slot = &gs.Manual[i]
			break
		}
	}
	if slot == nil {
		return PlayResult{}, ErrNotNow
	}

	effs, err := BuildSpaceEffects(slot.Row, player)
	if err != nil {
		return PlayResult{}, err
	}

	mark := len(gs.Log)
	slot.Done = true
	gs.addEvent(cp, "takes the action: "+slot.ID)

	next, cont, err := g.engine.Apply(gs, effs, Context{Actor: player, Roll: gs.Roll})
	if err != nil {
		return PlayResult{}, err
	}
	return g.commit(next, cont, mark, actionID)
}

func (g *game) ResolveChoice(player string, choiceID string, option string) (PlayResult, error) {
	gs := g.store.Get()
	_, err := g.actor(&gs, player, true)
	if err != nil {
		return PlayResult{}, err
	}
	if gs.Pending.ID != choiceID {
		return PlayResult{}, ErrNoChoice
	}
	if len(g.cont) == 0 {
		return PlayResult{}, &StateError{What: "pending choice has no continuation"}
	}

	mark := len(gs.Log)

	next, cont, err := g.engine.Resume(gs, g.cont, option, Context{Actor: player, Roll: gs.Roll})
	if err != nil {
		return PlayResult{}, err
	}
	return g.commit(next, cont, mark, option)
}

func (g *game) EndTurn(player string) (PlayResult, error) {
	gs := g.store.Get()
	cp, err := g.actor(&gs, player, false)
	if err != nil {
		return PlayResult{}, err
	}
	if !cp.HasRolled {
		return PlayResult{}, ErrNotNow
	}
	if gs.OutstandingManual() > 0 && !gs.Forfeit {
		return PlayResult{}, ErrMustDo
	}

	mark := len(gs.Log)
	gs.addEvent(cp, "ends the turn")
	if err := g.advance(&gs); err != nil {
		return PlayResult{}, err
	}
	return g.commit(gs, nil, mark, nil)
}

// TryAgain restores the acting player's snapshot, layers the fixed time
// penalty on top, and advances exactly as EndTurn would. The penalty is
// applied after restoration so repeated attempts keep costing.
func (g *game) TryAgain(player string) (PlayResult, error) {
	gs := g.store.Get()
	cp, err := g.actor(&gs, player, false)
	if err != nil {
		return PlayResult{}, err
	}

	cfg, err := g.rules.GetSpaceConfig(cp.Space)
	if err != nil {
		return PlayResult{}, err
	}
	if !cfg.CanNegotiate {
		return PlayResult{}, ErrNoNegotiate
	}
	snap := gs.Snapshots[cp.ID]
	if snap == nil {
		return PlayResult{}, ErrNoSnapshot
	}

	mark := len(gs.Log)

	for i := range gs.Players {
		if gs.Players[i].ID == cp.ID {
			gs.Players[i] = snap.Player.clone()
			cp = &gs.Players[i]
			break
		}
	}
	for t, d := range snap.Decks {
		gs.Decks[t] = d.clone()
	}
	delete(gs.Snapshots, cp.ID)

	penalty := g.rules.GetSettings().TryAgainPenalty
	cp.Time += penalty
	gs.addEvent(cp, fmt.Sprintf("tries again, losing %d day(s)", penalty))

	if err := g.advance(&gs); err != nil {
		return PlayResult{}, err
	}
	return g.commit(gs, nil, mark, nil)
}

// advance is the shared end-of-turn transition: consume the snapshot,
// expire active cards, and hand the turn to the next player who is not
// sitting out.
func (g *game) advance(gs *GameState) error {
	cp := gs.CurrentPlayer()
	delete(gs.Snapshots, cp.ID)
	cp.HasRolled = false
	cp.HasMoved = false
	gs.Manual = nil
	gs.Roll = 0
	gs.Forfeit = false

	if err := g.expireCards(gs); err != nil {
		return err
	}

	for {
		gs.TurnNo++
		gs.Current = (gs.Current + 1) % len(gs.Players)
		next := gs.CurrentPlayer()
		if next.SkipTurns > 0 {
			next.SkipTurns--
			gs.addEvent(next, "misses a turn")
			continue
		}
		break
	}

	g.beginTurn(gs)
	return nil
}

// expireCards retires active cards whose turn number has passed.
func (g *game) expireCards(gs *GameState) error {
	for i := range gs.Players {
		p := &gs.Players[i]
		var keep []ActiveCard
		expiredWork := false
		for _, a := range p.Active {
			if a.Expires > gs.TurnNo {
				keep = append(keep, a)
				continue
			}
			def, err := g.rules.GetCardDefinition(a.CardID)
			if err != nil {
				return err
			}
			p.Discarded = append(p.Discarded, a.CardID)
			gs.addEvent(p, def.Name+" expires")
			if def.Type == CardWork {
				expiredWork = true
			}
		}
		p.Active = keep
		if expiredWork {
			scope, err := recomputeScope(g.rules, p)
			if err != nil {
				return err
			}
			p.Scope = scope
		}
	}
	return nil
}

// commit settles the phase of an applied state, auto-ends a forfeited
// turn, stores the continuation, and publishes.
func (g *game) commit(gs GameState, cont []Effect, mark int, response interface{}) (PlayResult, error) {
	g.cont = cont

	if gs.Status != StatusFinished {
		if gs.Pending != nil {
			// suspended mid-effects until the choice resolves
			gs.Phase = PhaseArrival
		} else if gs.Forfeit {
			gs.addEvent(gs.CurrentPlayer(), "turn is skipped")
			if err := g.advance(&gs); err != nil {
				return PlayResult{}, err
			}
		} else if cp := gs.CurrentPlayer(); cp != nil {
			switch {
			case !cp.HasRolled:
				gs.Phase = PhaseAwaitRoll
			case gs.OutstandingManual() > 0:
				gs.Phase = PhaseActions
			default:
				gs.Phase = PhaseReady
			}
		}
	}

	news := append([]Change(nil), gs.Log[mark:]...)
	g.store.Replace(gs)

	return PlayResult{
		Response: response,
		News:     news,
		Turn:     g.turnState(&gs),
	}, nil
}

func (g *game) GetGameState() GameState {
	return g.store.Get()
}

func (g *game) GetTurnState() TurnState {
	gs := g.store.Get()
	return g.turnState(&gs)
}

func (g *game) turnState(gs *GameState) TurnState {
	cp := gs.CurrentPlayer()
	if cp == nil {
		return TurnState{Number: -1}
	}

	ts := TurnState{
		Number: gs.TurnNo,
		Player: cp.ID,
		Name:   cp.Name,
		Phase:  gs.Phase,
		Roll:   gs.Roll,
		Choice: gs.Pending,
	}

	for _, m := range gs.Manual {
		if !m.Done {
			ts.Must = append(ts.Must, m.ID)
		}
	}

	if gs.Status == StatusFinished {
		return ts
	}
	if gs.Pending != nil {
		ts.Can = append(ts.Can, "choose:"+gs.Pending.ID)
		return ts
	}
	if !cp.HasRolled {
		ts.Can = append(ts.Can, "roll")
	}
	if len(cp.Available) > 0 {
		ts.Can = append(ts.Can, "play:*")
	}
	for _, id := range ts.Must {
		ts.Can = append(ts.Can, "act:"+id)
	}
	if cp.HasRolled && (gs.OutstandingManual() == 0 || gs.Forfeit) {
		ts.Can = append(ts.Can, "end")
	}
	if cfg, err := g.rules.GetSpaceConfig(cp.Space); err == nil && cfg.CanNegotiate && gs.Snapshots[cp.ID] != nil {
		ts.Can = append(ts.Can, "tryagain")
	}
	return ts
}

// AvailableActions lists the manual action types still required of the
// current player.
func (g *game) AvailableActions(player string) []string {
	gs := g.store.Get()
	cp := gs.CurrentPlayer()
	if cp == nil || cp.ID != player {
		return nil
	}
	var out []string
	for _, m := range gs.Manual {
		if !m.Done {
			out = append(out, m.ID)
		}
	}
	return out
}

func (g *game) Subscribe() <-chan GameState {
	return g.store.Subscribe()
}

func (g *game) WriteOut(w io.Writer) error {
	out := gameSave{
		State:  g.store.Get(),
		NextID: g.nextID,
	}

	jdata, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}

	_, err = w.Write(jdata)
	return err
}
