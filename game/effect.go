package game

import "fmt"

// Effect is one atomic, data-described game-state change. It is a closed
// set of variants built only by the factory; the engine dispatches over
// them exhaustively. Every Effect is self-contained: applying it needs
// the current state and the effect's own payload, nothing ambient.
type Effect interface {
	effect()
}

type effectBase struct{}

func (effectBase) effect() {}

// Resource is a player-held numeric resource.
type Resource string

const (
	ResourceMoney Resource = "money"
	ResourceTime  Resource = "time"
)

// ResourceDelta adds a signed amount to a player's money or time. Money
// may go negative (affordability is the caller's pre-check); time floors
// at zero.
type ResourceDelta struct {
	effectBase
	Player   string
	Resource Resource
	Amount   int
}

// CardAction is what a CardTransfer does.
type CardAction string

const (
	CardDraw    CardAction = "draw"
	CardDiscard CardAction = "discard"
	CardReplace CardAction = "replace"
)

// CardTransfer draws, discards or replaces cards of one type for one
// player. CardIDs, when set, names exactly which cards to discard;
// otherwise a discard picks from the front of the player's hand.
// Replace is atomic: a partial failure leaves state untouched.
type CardTransfer struct {
	effectBase
	Player  string
	Action  CardAction
	Type    CardType
	Count   int
	CardIDs []string
}

// Movement forces a player to a specific space.
type Movement struct {
	effectBase
	Player string
	Dest   string
}

// SkipKind says which turn a TurnControl effect takes away.
type SkipKind string

const (
	SkipNext    SkipKind = "next"
	SkipCurrent SkipKind = "current"
)

// TurnControl makes a player skip a turn. The skip counter only ever
// goes up here; the turn controller decrements it when consumed.
type TurnControl struct {
	effectBase
	Player string
	Skip   SkipKind
}

// Condition gates one Conditional branch. Either a dice range (DiceHi
// > 0) or a scope comparison (ScopeOp "le" or "gt").
type Condition struct {
	DiceLo    int
	DiceHi    int
	ScopeOp   string
	Threshold int
}

// Matches evaluates the condition for a player against the context.
func (c Condition) Matches(gs *GameState, player string, roll int) bool {
	if c.DiceHi > 0 {
		return roll >= c.DiceLo && roll <= c.DiceHi
	}
	p := gs.PlayerByID(player)
	if p == nil {
		return false
	}
	switch c.ScopeOp {
	case "le":
		return p.Scope <= c.Threshold
	case "gt":
		return p.Scope > c.Threshold
	}
	return false
}

func (c Condition) String() string {
	if c.DiceHi > 0 {
		if c.DiceLo == c.DiceHi {
			return fmt.Sprintf("on %d", c.DiceLo)
		}
		return fmt.Sprintf("on %d-%d", c.DiceLo, c.DiceHi)
	}
	return fmt.Sprintf("scope %s %d", c.ScopeOp, c.Threshold)
}

// Branch is one arm of a Conditional.
type Branch struct {
	When    Condition
	Effects []Effect
}

// Conditional applies exactly one matching branch's effects, evaluated
// recursively. No branch matching is a normal outcome, not an error.
type Conditional struct {
	effectBase
	Player   string
	Branches []Branch
}

// ChoiceOption is one selectable outcome of a Choice.
type ChoiceOption struct {
	ID      string
	Label   string
	Effects []Effect
}

// Choice presents enumerated options to a player and halts the rest of
// the batch until resolved. Creating one while another is pending is an
// engine invariant violation.
type Choice struct {
	effectBase
	Player  string
	Kind    string
	Prompt  string
	Options []ChoiceOption
}

// TargetSelector says who a Targeted effect resolves against.
type TargetSelector string

const (
	TargetAllOthers TargetSelector = "all-others"
	TargetChoose    TargetSelector = "choose"
)

// Targeted wraps an effect and expands it per resolved target, in
// player-list order. The inner effect's Player field is filled per
// target at expansion time.
type Targeted struct {
	effectBase
	Actor    string
	Selector TargetSelector
	Inner    Effect
}

// ScopeRecalculation overwrites a player's derived project scope with
// the sum of costs of their held W cards. It is always emitted alongside
// any work-card movement so scope is never updated by a side channel.
type ScopeRecalculation struct {
	effectBase
	Player string
}

// retarget returns a copy of an effect with its player field replaced.
// Only the variants a Targeted wrapper makes sense around are handled.
func retarget(e Effect, player string) (Effect, error) {
	switch v := e.(type) {
	case ResourceDelta:
		v.Player = player
		return v, nil
	case CardTransfer:
		v.Player = player
		return v, nil
	case Movement:
		v.Player = player
		return v, nil
	case TurnControl:
		v.Player = player
		return v, nil
	case Conditional:
		v.Player = player
		return v, nil
	case ScopeRecalculation:
		v.Player = player
		return v, nil
	default:
		return nil, &StateError{What: fmt.Sprintf("cannot target a %T", e)}
	}
}
