package game

import (
	"fmt"
	"strings"
)

// Context carries the inputs an effect batch may evaluate against: the
// acting player and the dice value captured for this turn. Dice are
// never re-rolled inside the engine; determinism depends on it.
type Context struct {
	Actor string
	Roll  int
}

// Engine applies effect batches to game states. Effects apply strictly
// in the order given; effects that spawn further effects (conditionals,
// movement arrival, targeting) push them to the front of the queue, the
// way nested rule text reads.
type Engine struct {
	rules Rules
}

func NewEngine(rules Rules) *Engine {
	return &Engine{rules: rules}
}

// arrival is the internal effect spawned after any relocation (and used
// directly for spaces with no movement): it registers the landed space's
// manual rows and spawns its automatic effects.
type arrival struct {
	effectBase
	Player string
}

// Apply runs a batch against a copy of the state and returns the result.
// If an effect raises a Choice, processing halts: the returned
// continuation (the choice plus the untouched remainder of the batch) is
// what Resume later picks up. On error the input state is returned
// unchanged.
func (e *Engine) Apply(gs GameState, effects []Effect, ctx Context) (GameState, []Effect, error) {
	work := gs.Clone()
	cont, err := e.run(&work, effects, ctx)
	if err != nil {
		return gs, nil, err
	}
	return work, cont, nil
}

// Resume continues a batch halted on a choice, applying the selected
// option's effects before the remainder.
func (e *Engine) Resume(gs GameState, cont []Effect, option string, ctx Context) (GameState, []Effect, error) {
	if len(cont) == 0 {
		return gs, nil, &StateError{What: "nothing to resume"}
	}
	choice, ok := cont[0].(Choice)
	if !ok {
		return gs, nil, &StateError{What: "continuation does not start with a choice"}
	}

	var picked *ChoiceOption
	for i := range choice.Options {
		if choice.Options[i].ID == option {
			picked = &choice.Options[i]
			break
		}
	}
	if picked == nil {
		if choice.Kind == "movement" {
			return gs, nil, ErrBadDestination
		}
		return gs, nil, ErrBadChoice
	}

	work := gs.Clone()
	work.Pending = nil

	queue := append(append([]Effect{}, picked.Effects...), cont[1:]...)
	rest, err := e.run(&work, queue, ctx)
	if err != nil {
		return gs, nil, err
	}
	return work, rest, nil
}

func (e *Engine) run(work *GameState, effects []Effect, ctx Context) ([]Effect, error) {
	queue := append([]Effect(nil), effects...)
	for len(queue) > 0 {
		eff := queue[0]
		queue = queue[1:]

		spawned, halted, err := e.applyOne(work, eff, ctx)
		if err != nil {
			return nil, err
		}
		if halted {
			return append([]Effect{eff}, queue...), nil
		}
		queue = append(append([]Effect{}, spawned...), queue...)
	}
	return nil, nil
}

func (e *Engine) applyOne(gs *GameState, eff Effect, ctx Context) (spawned []Effect, halted bool, err error) {
	switch v := eff.(type) {
	case ResourceDelta:
		return nil, false, e.applyResource(gs, v)
	case CardTransfer:
		return nil, false, e.applyCards(gs, v, ctx)
	case Movement:
		return e.applyMovement(gs, v)
	case arrival:
		return e.applyArrival(gs, v, ctx)
	case TurnControl:
		return nil, false, e.applyTurnControl(gs, v)
	case Conditional:
		for _, b := range v.Branches {
			if b.When.Matches(gs, v.Player, ctx.Roll) {
				return b.Effects, false, nil
			}
		}
		// no branch matching is a normal outcome
		return nil, false, nil
	case Choice:
		if gs.Pending != nil {
			return nil, false, &StateError{Player: v.Player, What: "choice raised while another is pending"}
		}
		gs.ChoiceSeq++
		pending := &PendingChoice{
			ID:     fmt.Sprintf("c%d", gs.ChoiceSeq),
			Player: v.Player,
			Kind:   v.Kind,
			Prompt: v.Prompt,
		}
		for _, o := range v.Options {
			pending.Options = append(pending.Options, o.ID)
		}
		gs.Pending = pending
		gs.addEvent(gs.PlayerByID(v.Player), "must decide: "+v.Prompt)
		return nil, true, nil
	case Targeted:
		return e.expandTargets(gs, v)
	case ScopeRecalculation:
		return nil, false, e.applyScope(gs, v)
	}
	return nil, false, &StateError{What: fmt.Sprintf("unknown effect %T", eff)}
}

func (e *Engine) applyResource(gs *GameState, v ResourceDelta) error {
	p := gs.PlayerByID(v.Player)
	if p == nil {
		return &StateError{Player: v.Player, What: "no such player"}
	}
	switch v.Resource {
	case ResourceMoney:
		// may go negative; affordability is the caller's pre-check
		p.Money += v.Amount
		if v.Amount >= 0 {
			gs.addEvent(p, fmt.Sprintf("gains $%d", v.Amount))
		} else {
			gs.addEvent(p, fmt.Sprintf("pays $%d", -v.Amount))
		}
	case ResourceTime:
		p.Time += v.Amount
		if p.Time < 0 {
			p.Time = 0
		}
		if v.Amount >= 0 {
			gs.addEvent(p, fmt.Sprintf("loses %d days", v.Amount))
		} else {
			gs.addEvent(p, fmt.Sprintf("saves %d days", -v.Amount))
		}
	default:
		return &StateError{Player: v.Player, What: "unknown resource " + string(v.Resource)}
	}
	return nil
}

func (e *Engine) applyCards(gs *GameState, v CardTransfer, ctx Context) error {
	p := gs.PlayerByID(v.Player)
	if p == nil {
		return &StateError{Player: v.Player, What: "no such player"}
	}

	// the actor's snapshot covers only the actor and the decks; a
	// transfer touching someone else's hand puts the decks out of step
	// with it, so try-again is withdrawn for the rest of this turn
	if v.Player != ctx.Actor {
		delete(gs.Snapshots, ctx.Actor)
	}

	switch v.Action {
	case CardDraw:
		return e.drawCards(gs, p, v.Type, v.Count)
	case CardDiscard:
		return e.discardCards(gs, p, v)
	case CardReplace:
		// atomic: both halves on the working state, which the batch
		// throws away wholesale on error
		if err := e.discardCards(gs, p, v); err != nil {
			return err
		}
		return e.drawCards(gs, p, v.Type, v.Count)
	}
	return &StateError{Player: v.Player, What: "unknown card action " + string(v.Action)}
}

func (e *Engine) drawCards(gs *GameState, p *Player, t CardType, count int) error {
	deck := gs.Decks[t]
	drawn, rest, ok := deck.take(count)
	if !ok {
		return &StateError{Player: p.ID, What: fmt.Sprintf("deck %s exhausted drawing %d", t, count)}
	}
	gs.Decks[t] = rest
	p.Available = append(p.Available, drawn...)
	gs.addEvent(p, fmt.Sprintf("draws %d %s card(s)", count, t))
	return nil
}

// discardCards moves cards of the transfer's type from the player's
// available and active collections to the shared discard pile. Explicit
// ids are honoured; otherwise cards go from the front of the hand, so
// the pick is reproducible.
func (e *Engine) discardCards(gs *GameState, p *Player, v CardTransfer) error {
	ids := v.CardIDs
	if len(ids) == 0 {
		held, err := e.heldOfType(p, v.Type)
		if err != nil {
			return err
		}
		if len(held) < v.Count {
			return &StateError{Player: p.ID, What: fmt.Sprintf("cannot discard %d %s card(s), holds %d", v.Count, v.Type, len(held))}
		}
		ids = held[:v.Count]
	}

	for _, id := range ids {
		def, err := e.rules.GetCardDefinition(id)
		if err != nil {
			return err
		}
		if def.Type != v.Type {
			return &StateError{Player: p.ID, What: fmt.Sprintf("card %s is not type %s", id, v.Type)}
		}
		if !p.HoldsCard(id) {
			return &StateError{Player: p.ID, What: "does not hold card " + id}
		}
		p.Available, _ = stringListWithout(p.Available, id)
		p.Active = activeListWithout(p.Active, id)
		deck := gs.Decks[v.Type]
		deck.Discard = append(deck.Discard, id)
		gs.Decks[v.Type] = deck
	}
	gs.addEvent(p, fmt.Sprintf("discards %d %s card(s)", len(ids), v.Type))
	return nil
}

func (e *Engine) heldOfType(p *Player, t CardType) ([]string, error) {
	var out []string
	for _, id := range p.Available {
		def, err := e.rules.GetCardDefinition(id)
		if err != nil {
			return nil, err
		}
		if def.Type == t {
			out = append(out, id)
		}
	}
	for _, a := range p.Active {
		def, err := e.rules.GetCardDefinition(a.CardID)
		if err != nil {
			return nil, err
		}
		if def.Type == t {
			out = append(out, a.CardID)
		}
	}
	return out, nil
}

func (e *Engine) applyMovement(gs *GameState, v Movement) ([]Effect, bool, error) {
	p := gs.PlayerByID(v.Player)
	if p == nil {
		return nil, false, &StateError{Player: v.Player, What: "no such player"}
	}

	cfg, err := e.rules.GetSpaceConfig(v.Dest)
	if err != nil {
		return nil, false, err
	}

	// moving off a terminal space is an error; forced movement of a
	// finished player is a data defect worth surfacing
	from, err := e.rules.GetMovement(p.Space, p.VisitTypeFor(p.Space))
	if err == nil && from.MovementType == MoveNone && v.Dest != p.Space {
		return nil, false, ErrTerminalSpace
	}

	relocate(p, v.Dest)
	gs.addEvent(p, "moves to "+v.Dest)

	if cfg.Ending {
		gs.Status = StatusFinished
		gs.Winner = p.ID
		gs.addEvent(p, "reaches the end and wins!")
		return nil, false, nil
	}

	return []Effect{arrival{Player: v.Player}}, false, nil
}

// applyArrival registers the landed space's manual rows (when the
// arriving player is the one whose turn it is) and spawns the automatic
// ones.
func (e *Engine) applyArrival(gs *GameState, v arrival, ctx Context) ([]Effect, bool, error) {
	p := gs.PlayerByID(v.Player)
	if p == nil {
		return nil, false, &StateError{Player: v.Player, What: "no such player"}
	}

	rows := e.rules.GetSpaceEffects(p.Space, p.VisitTypeFor(p.Space))

	var auto []Effect
	for _, row := range rows {
		switch row.Trigger {
		case TriggerManual:
			// manual actions belong to the acting player's turn;
			// a bystander forced here gets no action slots
			if cp := gs.CurrentPlayer(); cp != nil && cp.ID == p.ID {
				gs.Manual = append(gs.Manual, ManualAction{
					ID:          manualID(gs.Manual, row),
					Description: row.Description,
					Row:         row,
				})
			}
		case TriggerAuto:
			effs, err := BuildSpaceEffects(row, p.ID)
			if err != nil {
				return nil, false, err
			}
			auto = append(auto, effs...)
		default:
			return nil, false, &DataError{Space: row.SpaceName, Field: "trigger", Msg: "unknown trigger " + string(row.Trigger)}
		}
	}
	return auto, false, nil
}

// manualID derives a stable id for a manual slot from the row itself,
// suffixed when the same action appears twice on one space.
func manualID(existing []ManualAction, row SpaceEffectRow) string {
	base := row.EffectType + ":" + row.EffectAction
	id := base
	n := 1
	for {
		clash := false
		for _, m := range existing {
			if m.ID == id {
				clash = true
				break
			}
		}
		if !clash {
			return id
		}
		n++
		id = fmt.Sprintf("%s#%d", base, n)
	}
}

func (e *Engine) applyTurnControl(gs *GameState, v TurnControl) error {
	p := gs.PlayerByID(v.Player)
	if p == nil {
		return &StateError{Player: v.Player, What: "no such player"}
	}
	cp := gs.CurrentPlayer()
	if v.Skip == SkipCurrent && cp != nil && cp.ID == p.ID {
		gs.Forfeit = true
		gs.addEvent(p, "forfeits the rest of this turn")
		return nil
	}
	p.SkipTurns++
	gs.addEvent(p, fmt.Sprintf("will miss %d turn(s)", p.SkipTurns))
	return nil
}

func (e *Engine) expandTargets(gs *GameState, v Targeted) ([]Effect, bool, error) {
	switch v.Selector {
	case TargetAllOthers:
		var out []Effect
		for i := range gs.Players {
			t := gs.Players[i].ID
			if t == v.Actor {
				continue
			}
			inner, err := retarget(v.Inner, t)
			if err != nil {
				return nil, false, err
			}
			out = append(out, inner)
			if ct, ok := inner.(CardTransfer); ok && ct.Type == CardWork {
				out = append(out, ScopeRecalculation{Player: t})
			}
		}
		return out, false, nil
	case TargetChoose:
		var options []ChoiceOption
		for i := range gs.Players {
			t := gs.Players[i].ID
			if t == v.Actor {
				continue
			}
			inner, err := retarget(v.Inner, t)
			if err != nil {
				return nil, false, err
			}
			effs := []Effect{inner}
			if ct, ok := inner.(CardTransfer); ok && ct.Type == CardWork {
				effs = append(effs, ScopeRecalculation{Player: t})
			}
			options = append(options, ChoiceOption{
				ID:      t,
				Label:   gs.Players[i].Name,
				Effects: effs,
			})
		}
		if len(options) == 0 {
			// no opponents to pick: nothing happens
			return nil, false, nil
		}
		return []Effect{Choice{
			Player:  v.Actor,
			Kind:    "effect",
			Prompt:  "choose a player: " + describeEffect(v.Inner),
			Options: options,
		}}, false, nil
	}
	return nil, false, &StateError{What: "unknown target selector " + string(v.Selector)}
}

func (e *Engine) applyScope(gs *GameState, v ScopeRecalculation) error {
	p := gs.PlayerByID(v.Player)
	if p == nil {
		return &StateError{Player: v.Player, What: "no such player"}
	}
	scope, err := recomputeScope(e.rules, p)
	if err != nil {
		return err
	}
	p.Scope = scope
	gs.addEvent(p, fmt.Sprintf("project scope is now $%d", scope))
	return nil
}

// recomputeScope sums the costs of W cards in the player's available and
// active collections. Never cached anywhere else.
func recomputeScope(r Rules, p *Player) (int, error) {
	total := 0
	add := func(id string) error {
		def, err := r.GetCardDefinition(id)
		if err != nil {
			return err
		}
		if def.Type == CardWork {
			total += def.Cost
		}
		return nil
	}
	for _, id := range p.Available {
		if err := add(id); err != nil {
			return 0, err
		}
	}
	for _, a := range p.Active {
		if err := add(a.CardID); err != nil {
			return 0, err
		}
	}
	return total, nil
}

func describeEffect(e Effect) string {
	switch v := e.(type) {
	case ResourceDelta:
		if v.Resource == ResourceMoney {
			return fmt.Sprintf("money %+d", v.Amount)
		}
		return fmt.Sprintf("time %+d", v.Amount)
	case CardTransfer:
		return fmt.Sprintf("%s %d %s card(s)", v.Action, v.Count, v.Type)
	case Movement:
		return "move to " + v.Dest
	case TurnControl:
		return "skip " + string(v.Skip) + " turn"
	default:
		return strings.TrimPrefix(fmt.Sprintf("%T", e), "game.")
	}
}
