package game

import (
	"fmt"
	"strconv"
	"strings"
)

// The factory turns raw rule rows and card text into typed Effects. It
// is pure: the same inputs always give the same ordered list. Anything
// it cannot parse is a data error, never a silent no-op.

// BuildSpaceEffects translates one tabular space-effect row into effects
// for the given player. A dice or scope condition on the row wraps the
// result in a Conditional.
func BuildSpaceEffects(row SpaceEffectRow, player string) ([]Effect, error) {
	effects, err := buildRowEffects(row, player)
	if err != nil {
		return nil, err
	}

	if row.Condition != "" {
		cond, err := parseCondition(row.Condition)
		if err != nil {
			return nil, &DataError{Space: row.SpaceName, Field: "condition", Msg: err.Error()}
		}
		effects = []Effect{Conditional{
			Player:   player,
			Branches: []Branch{{When: cond, Effects: effects}},
		}}
	}

	return withScopeRecalc(effects, player), nil
}

func buildRowEffects(row SpaceEffectRow, player string) ([]Effect, error) {
	switch row.EffectType {
	case "time":
		amount := row.EffectValue
		if row.EffectAction == "deduct" {
			amount = -amount
		} else if row.EffectAction != "add" {
			return nil, &DataError{Space: row.SpaceName, Field: "effect_action", Msg: "bad time action " + row.EffectAction}
		}
		return []Effect{ResourceDelta{Player: player, Resource: ResourceTime, Amount: amount}}, nil
	case "money", "fee":
		amount := row.EffectValue
		if row.EffectAction == "deduct" {
			amount = -amount
		} else if row.EffectAction != "add" {
			return nil, &DataError{Space: row.SpaceName, Field: "effect_action", Msg: "bad money action " + row.EffectAction}
		}
		return []Effect{ResourceDelta{Player: player, Resource: ResourceMoney, Amount: amount}}, nil
	case "cards":
		action, cardType, err := parseCardAction(row.EffectAction)
		if err != nil {
			return nil, &DataError{Space: row.SpaceName, Field: "effect_action", Msg: err.Error()}
		}
		count := row.EffectValue
		if count == 0 {
			count = 1
		}
		return []Effect{CardTransfer{Player: player, Action: action, Type: cardType, Count: count}}, nil
	case "turn":
		switch row.EffectAction {
		case "skip_next":
			return []Effect{TurnControl{Player: player, Skip: SkipNext}}, nil
		case "skip_current":
			return []Effect{TurnControl{Player: player, Skip: SkipCurrent}}, nil
		}
		return nil, &DataError{Space: row.SpaceName, Field: "effect_action", Msg: "bad turn action " + row.EffectAction}
	case "move":
		if row.EffectAction != "go" || row.Description == "" {
			return nil, &DataError{Space: row.SpaceName, Field: "effect_action", Msg: "bad move row"}
		}
		return []Effect{Movement{Player: player, Dest: row.Description}}, nil
	}
	return nil, &DataError{Space: row.SpaceName, Field: "effect_type", Msg: "unknown effect type " + row.EffectType}
}

// parseCardAction splits codes like "draw_l", "discard_e", "replace_w".
func parseCardAction(code string) (CardAction, CardType, error) {
	ss := strings.SplitN(code, "_", 2)
	if len(ss) != 2 {
		return "", "", fmt.Errorf("bad card action %q", code)
	}
	var action CardAction
	switch ss[0] {
	case "draw":
		action = CardDraw
	case "discard":
		action = CardDiscard
	case "replace":
		action = CardReplace
	default:
		return "", "", fmt.Errorf("bad card action %q", code)
	}
	cardType, err := parseCardType(ss[1])
	if err != nil {
		return "", "", err
	}
	return action, cardType, nil
}

func parseCardType(s string) (CardType, error) {
	switch strings.ToUpper(s) {
	case "W", "WORK":
		return CardWork, nil
	case "B", "BANK":
		return CardBank, nil
	case "I", "INVESTOR":
		return CardInvestor, nil
	case "L", "LIFE":
		return CardLife, nil
	case "E", "EXPEDITOR":
		return CardExpeditor, nil
	}
	return "", fmt.Errorf("bad card type %q", s)
}

// parseCondition parses the condition codes used by space rows, logic
// movement and dice-gated effects: dice_roll_N, dice_roll_N-M,
// scope_le_N, scope_gt_N.
func parseCondition(code string) (Condition, error) {
	switch {
	case strings.HasPrefix(code, "dice_roll_"):
		r := strings.TrimPrefix(code, "dice_roll_")
		lo, hi, err := parseRange(r)
		if err != nil {
			return Condition{}, fmt.Errorf("bad condition %q", code)
		}
		return Condition{DiceLo: lo, DiceHi: hi}, nil
	case strings.HasPrefix(code, "scope_le_"):
		n, err := strconv.Atoi(strings.TrimPrefix(code, "scope_le_"))
		if err != nil {
			return Condition{}, fmt.Errorf("bad condition %q", code)
		}
		return Condition{ScopeOp: "le", Threshold: n}, nil
	case strings.HasPrefix(code, "scope_gt_"):
		n, err := strconv.Atoi(strings.TrimPrefix(code, "scope_gt_"))
		if err != nil {
			return Condition{}, fmt.Errorf("bad condition %q", code)
		}
		return Condition{ScopeOp: "gt", Threshold: n}, nil
	}
	return Condition{}, fmt.Errorf("unknown condition %q", code)
}

func parseRange(s string) (int, int, error) {
	if lo, hi, ok := strings.Cut(s, "-"); ok {
		l, err1 := strconv.Atoi(lo)
		h, err2 := strconv.Atoi(hi)
		if err1 != nil || err2 != nil || h < l {
			return 0, 0, fmt.Errorf("bad range %q", s)
		}
		return l, h, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, 0, err
	}
	return n, n, nil
}

// BuildCardEffects parses a card's free-form effect text into effects
// for the player who played it. Sentences are separated by full stops;
// consecutive "On N-M ..." sentences group into one Conditional.
//
//	"On 1-3 draw 2 E cards. On 4-6 draw 1 E card."
//	"Discard 1 E card"
//	"All other players lose 2 days"
//	"Choose a player to lose $50000"
func BuildCardEffects(def CardDefinition, player string) ([]Effect, error) {
	if strings.TrimSpace(def.EffectText) == "" {
		return withScopeRecalc(nil, player), nil
	}

	var out []Effect
	var branches []Branch

	flush := func() {
		if len(branches) > 0 {
			out = append(out, Conditional{Player: player, Branches: branches})
			branches = nil
		}
	}

	for _, sentence := range strings.Split(def.EffectText, ".") {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		cond, rest, isCond, err := cutCondition(sentence)
		if err != nil {
			return nil, &DataError{Field: "card " + def.ID, Msg: err.Error()}
		}

		effects, err := parsePhrase(rest, player)
		if err != nil {
			return nil, &DataError{Field: "card " + def.ID, Msg: err.Error()}
		}

		if isCond {
			branches = append(branches, Branch{When: cond, Effects: effects})
			continue
		}
		flush()
		out = append(out, effects...)
	}
	flush()

	return withScopeRecalc(out, player), nil
}

// cutCondition strips a leading "On N" / "On N-M" clause.
func cutCondition(sentence string) (Condition, string, bool, error) {
	fields := strings.Fields(sentence)
	if len(fields) < 3 || !strings.EqualFold(fields[0], "on") {
		return Condition{}, sentence, false, nil
	}
	lo, hi, err := parseRange(fields[1])
	if err != nil {
		// "On" led the sentence but no range followed; that is
		// broken data, not an unconditional phrase
		return Condition{}, "", false, fmt.Errorf("bad dice clause %q", sentence)
	}
	return Condition{DiceLo: lo, DiceHi: hi}, strings.Join(fields[2:], " "), true, nil
}

// parsePhrase parses one imperative clause, with an optional target
// prefix.
func parsePhrase(phrase string, player string) ([]Effect, error) {
	lower := strings.ToLower(strings.TrimSpace(phrase))

	if rest, ok := strings.CutPrefix(lower, "all other players "); ok {
		inner, err := parseClause(rest, player)
		if err != nil {
			return nil, err
		}
		return wrapTargeted(inner, player, TargetAllOthers)
	}
	if rest, ok := strings.CutPrefix(lower, "each other player "); ok {
		inner, err := parseClause(rest, player)
		if err != nil {
			return nil, err
		}
		return wrapTargeted(inner, player, TargetAllOthers)
	}
	if rest, ok := strings.CutPrefix(lower, "choose a player to "); ok {
		inner, err := parseClause(rest, player)
		if err != nil {
			return nil, err
		}
		return wrapTargeted(inner, player, TargetChoose)
	}

	return parseClause(lower, player)
}

func wrapTargeted(inner []Effect, actor string, sel TargetSelector) ([]Effect, error) {
	out := make([]Effect, 0, len(inner))
	for _, e := range inner {
		if _, err := retarget(e, actor); err != nil {
			return nil, err
		}
		out = append(out, Targeted{Actor: actor, Selector: sel, Inner: e})
	}
	return out, nil
}

// parseClause handles the core verb phrases. The phrase is already
// lowercased.
func parseClause(clause string, player string) ([]Effect, error) {
	fields := strings.Fields(strings.TrimSuffix(clause, "."))
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty effect clause")
	}

	switch fields[0] {
	case "draw", "discard", "replace":
		// draw 2 e cards
		if len(fields) < 3 {
			return nil, fmt.Errorf("bad card clause %q", clause)
		}
		count, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("bad card count in %q", clause)
		}
		cardType, err := parseCardType(fields[2])
		if err != nil {
			return nil, fmt.Errorf("bad card type in %q", clause)
		}
		action := CardAction(fields[0])
		return []Effect{CardTransfer{Player: player, Action: action, Type: cardType, Count: count}}, nil

	case "gain", "lose", "pay", "save":
		if len(fields) < 2 {
			return nil, fmt.Errorf("bad resource clause %q", clause)
		}
		if strings.HasPrefix(fields[1], "$") {
			n, err := strconv.Atoi(strings.TrimPrefix(fields[1], "$"))
			if err != nil {
				return nil, fmt.Errorf("bad amount in %q", clause)
			}
			if fields[0] != "gain" {
				n = -n
			}
			return []Effect{ResourceDelta{Player: player, Resource: ResourceMoney, Amount: n}}, nil
		}
		// days: losing days costs time, saving days refunds it
		n, err := strconv.Atoi(fields[1])
		if err != nil || len(fields) < 3 || !strings.HasPrefix(fields[2], "day") {
			return nil, fmt.Errorf("bad time clause %q", clause)
		}
		if fields[0] == "save" || fields[0] == "gain" {
			n = -n
		}
		return []Effect{ResourceDelta{Player: player, Resource: ResourceTime, Amount: n}}, nil

	case "skip":
		rest := strings.Join(fields[1:], " ")
		switch rest {
		case "next turn":
			return []Effect{TurnControl{Player: player, Skip: SkipNext}}, nil
		case "this turn", "current turn":
			return []Effect{TurnControl{Player: player, Skip: SkipCurrent}}, nil
		}
		return nil, fmt.Errorf("bad skip clause %q", clause)

	case "go":
		// go to SPACE-NAME
		if len(fields) != 3 || fields[1] != "to" {
			return nil, fmt.Errorf("bad move clause %q", clause)
		}
		return []Effect{Movement{Player: player, Dest: strings.ToUpper(fields[2])}}, nil
	}

	return nil, fmt.Errorf("cannot parse effect clause %q", clause)
}

// withScopeRecalc appends a ScopeRecalculation whenever the effect list
// moves W cards for the player. Structural invariant: scope is never
// updated by a side channel.
func withScopeRecalc(effects []Effect, player string) []Effect {
	if touchesWorkCards(effects) {
		return append(effects, ScopeRecalculation{Player: player})
	}
	return effects
}

func touchesWorkCards(effects []Effect) bool {
	for _, e := range effects {
		switch v := e.(type) {
		case CardTransfer:
			if v.Type == CardWork {
				return true
			}
		case Conditional:
			for _, b := range v.Branches {
				if touchesWorkCards(b.Effects) {
					return true
				}
			}
		case Targeted:
			if touchesWorkCards([]Effect{v.Inner}) {
				return true
			}
		case Choice:
			for _, o := range v.Options {
				if touchesWorkCards(o.Effects) {
					return true
				}
			}
		}
	}
	return false
}
