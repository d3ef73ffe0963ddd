package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEngine_deterministic(t *testing.T) {
	r := testRules()
	e := NewEngine(r)
	gs := testState(r)

	batch := []Effect{
		ResourceDelta{Player: "p1", Resource: ResourceMoney, Amount: -50},
		CardTransfer{Player: "p1", Action: CardDraw, Type: CardExpeditor, Count: 2},
		Conditional{Player: "p1", Branches: []Branch{
			{When: Condition{DiceLo: 1, DiceHi: 3}, Effects: []Effect{ResourceDelta{Player: "p1", Resource: ResourceTime, Amount: 1}}},
		}},
	}
	ctx := Context{Actor: "p1", Roll: 2}

	a, _, err := e.Apply(gs, batch, ctx)
	require.NoError(t, err)
	b, _, err := e.Apply(gs, batch, ctx)
	require.NoError(t, err)

	require.Equal(t, a, b)
}

func TestEngine_inputUnchangedOnError(t *testing.T) {
	r := testRules()
	e := NewEngine(r)
	gs := testState(r)
	before := gs.Clone()

	// the first effect succeeds, the second cannot
	batch := []Effect{
		ResourceDelta{Player: "p1", Resource: ResourceMoney, Amount: 100},
		CardTransfer{Player: "p1", Action: CardDiscard, Type: CardExpeditor, Count: 2},
	}
	_, _, err := e.Apply(gs, batch, Context{Actor: "p1"})
	require.Error(t, err)
	require.Equal(t, before, gs)
}

func TestEngine_cardConservation(t *testing.T) {
	r := testRules()
	e := NewEngine(r)
	gs := testState(r)

	batch := []Effect{
		CardTransfer{Player: "p1", Action: CardDraw, Type: CardExpeditor, Count: 2},
		CardTransfer{Player: "p1", Action: CardDiscard, Type: CardExpeditor, Count: 1},
		CardTransfer{Player: "p1", Action: CardReplace, Type: CardExpeditor, Count: 1},
	}
	total := totalCards(&gs, CardExpeditor, r)

	next, _, err := e.Apply(gs, batch, Context{Actor: "p1"})
	require.NoError(t, err)
	require.Equal(t, total, totalCards(&next, CardExpeditor, r))
	// draw 2, discard 1; the replace nets zero
	require.Len(t, next.Players[0].Available, 1)
}

func TestEngine_deckTurnsOverDiscard(t *testing.T) {
	r := testRules()
	e := NewEngine(r)
	gs := testState(r)
	gs.Decks[CardExpeditor] = Deck{Discard: []string{"E1", "E2"}}

	next, _, err := e.Apply(gs, []Effect{
		CardTransfer{Player: "p1", Action: CardDraw, Type: CardExpeditor, Count: 1},
	}, Context{Actor: "p1"})
	require.NoError(t, err)
	require.Equal(t, []string{"E1"}, next.Players[0].Available)
	require.Equal(t, []string{"E2"}, next.Decks[CardExpeditor].Draw)
}

func TestEngine_deckExhausted(t *testing.T) {
	r := testRules()
	e := NewEngine(r)
	gs := testState(r)
	gs.Decks[CardExpeditor] = Deck{}

	_, _, err := e.Apply(gs, []Effect{
		CardTransfer{Player: "p1", Action: CardDraw, Type: CardExpeditor, Count: 1},
	}, Context{Actor: "p1"})
	require.Error(t, err)
	var se *StateError
	require.ErrorAs(t, err, &se)
}

func TestEngine_choiceHaltsBatch(t *testing.T) {
	r := testRules()
	e := NewEngine(r)
	gs := testState(r)

	choice := Choice{Player: "p1", Kind: "effect", Prompt: "pick", Options: []ChoiceOption{
		{ID: "a", Label: "a", Effects: []Effect{ResourceDelta{Player: "p1", Resource: ResourceMoney, Amount: 10}}},
		{ID: "b", Label: "b", Effects: []Effect{ResourceDelta{Player: "p1", Resource: ResourceMoney, Amount: 20}}},
	}}
	after := ResourceDelta{Player: "p1", Resource: ResourceTime, Amount: 1}

	next, cont, err := e.Apply(gs, []Effect{choice, after}, Context{Actor: "p1"})
	require.NoError(t, err)
	require.NotNil(t, next.Pending)
	require.Equal(t, []string{"a", "b"}, next.Pending.Options)
	require.Len(t, cont, 2)

	// nothing after the choice ran yet
	require.Equal(t, 1000, next.Players[0].Money)
	require.Equal(t, 0, next.Players[0].Time)

	done, rest, err := e.Resume(next, cont, "b", Context{Actor: "p1"})
	require.NoError(t, err)
	require.Nil(t, rest)
	require.Nil(t, done.Pending)

	// exactly the picked option plus the remainder
	require.Equal(t, 1020, done.Players[0].Money)
	require.Equal(t, 1, done.Players[0].Time)
}

func TestEngine_resumeBadOption(t *testing.T) {
	r := testRules()
	e := NewEngine(r)
	gs := testState(r)

	choice := Choice{Player: "p1", Kind: "effect", Prompt: "pick", Options: []ChoiceOption{
		{ID: "a", Label: "a"},
	}}
	next, cont, err := e.Apply(gs, []Effect{choice}, Context{Actor: "p1"})
	require.NoError(t, err)

	_, _, err = e.Resume(next, cont, "zzz", Context{Actor: "p1"})
	require.ErrorIs(t, err, ErrBadChoice)
}

func TestEngine_secondChoiceIsError(t *testing.T) {
	r := testRules()
	e := NewEngine(r)
	gs := testState(r)

	c := Choice{Player: "p1", Kind: "effect", Prompt: "pick", Options: []ChoiceOption{{ID: "a"}}}
	next, _, err := e.Apply(gs, []Effect{c}, Context{Actor: "p1"})
	require.NoError(t, err)

	_, _, err = e.Apply(next, []Effect{c}, Context{Actor: "p1"})
	require.Error(t, err)
}

func TestEngine_conditionalByRoll(t *testing.T) {
	r := testRules()
	e := NewEngine(r)
	gs := testState(r)

	def, err := r.GetCardDefinition("L1")
	require.NoError(t, err)
	effs, err := BuildCardEffects(def, "p1")
	require.NoError(t, err)

	low, _, err := e.Apply(gs, effs, Context{Actor: "p1", Roll: 2})
	require.NoError(t, err)
	require.Len(t, low.Players[0].Available, 2)

	high, _, err := e.Apply(gs, effs, Context{Actor: "p1", Roll: 5})
	require.NoError(t, err)
	require.Len(t, high.Players[0].Available, 1)

	// 0 matches no dice branch: nothing happens
	none, _, err := e.Apply(gs, effs, Context{Actor: "p1", Roll: 0})
	require.NoError(t, err)
	require.Empty(t, none.Players[0].Available)
}

func TestEngine_targetedAllOthers(t *testing.T) {
	r := testRules()
	e := NewEngine(r)
	gs := testState(r)

	def, err := r.GetCardDefinition("L2")
	require.NoError(t, err)
	effs, err := BuildCardEffects(def, "p1")
	require.NoError(t, err)

	next, _, err := e.Apply(gs, effs, Context{Actor: "p1"})
	require.NoError(t, err)
	require.Equal(t, 0, next.Players[0].Time)
	require.Equal(t, 2, next.Players[1].Time)
}

func TestEngine_targetedChoose(t *testing.T) {
	r := testRules()
	e := NewEngine(r)
	gs := testState(r)

	def, err := r.GetCardDefinition("L3")
	require.NoError(t, err)
	effs, err := BuildCardEffects(def, "p1")
	require.NoError(t, err)

	next, cont, err := e.Apply(gs, effs, Context{Actor: "p1"})
	require.NoError(t, err)
	require.NotNil(t, next.Pending)
	require.Equal(t, "p1", next.Pending.Player)
	require.Equal(t, []string{"p2"}, next.Pending.Options)

	done, _, err := e.Resume(next, cont, "p2", Context{Actor: "p1"})
	require.NoError(t, err)
	require.Equal(t, 950, done.Players[1].Money)
	require.Equal(t, 1000, done.Players[0].Money)
}

func TestEngine_targetedScopeRecalc(t *testing.T) {
	r := testRules()
	e := NewEngine(r)
	gs := testState(r)
	gs.Players[1].Available = []string{"W1"}
	gs.Players[1].Scope = 100
	gs.Decks[CardWork] = Deck{Draw: []string{"W2", "W3"}}

	next, _, err := e.Apply(gs, []Effect{
		Targeted{Actor: "p1", Selector: TargetAllOthers, Inner: CardTransfer{Action: CardDiscard, Type: CardWork, Count: 1}},
	}, Context{Actor: "p1"})
	require.NoError(t, err)
	require.Empty(t, next.Players[1].Available)
	require.Equal(t, 0, next.Players[1].Scope)
}

func TestEngine_scopeRecalculation(t *testing.T) {
	r := testRules()
	e := NewEngine(r)
	gs := testState(r)
	gs.Players[0].Available = []string{"W1", "E1"}
	gs.Players[0].Active = []ActiveCard{{CardID: "W2", Expires: 5}}
	gs.Players[0].Discarded = []string{"W3"}

	next, _, err := e.Apply(gs, []Effect{ScopeRecalculation{Player: "p1"}}, Context{Actor: "p1"})
	require.NoError(t, err)
	// available W1 (100) + active W2 (200); discarded never counts
	require.Equal(t, 300, next.Players[0].Scope)
}

func TestEngine_movementWins(t *testing.T) {
	r := testRules()
	e := NewEngine(r)
	gs := testState(r)
	gs.Players[0].Space = "SHORTCUT"
	gs.Players[0].Visited["SHORTCUT"] = VisitFirst

	next, _, err := e.Apply(gs, []Effect{Movement{Player: "p1", Dest: "END"}}, Context{Actor: "p1"})
	require.NoError(t, err)
	require.Equal(t, StatusFinished, next.Status)
	require.Equal(t, "p1", next.Winner)
}

func TestEngine_terminalSpaceBlocksMovement(t *testing.T) {
	r := testRules()
	e := NewEngine(r)
	gs := testState(r)
	gs.Players[0].Space = "END"
	gs.Players[0].Visited["END"] = VisitFirst

	_, _, err := e.Apply(gs, []Effect{Movement{Player: "p1", Dest: "TOLL"}}, Context{Actor: "p1"})
	require.ErrorIs(t, err, ErrTerminalSpace)
}

func TestEngine_arrivalManualOnlyForCurrent(t *testing.T) {
	r := testRules()
	e := NewEngine(r)
	gs := testState(r)

	// p2 is not the current player; being sent to LAB gives no actions
	next, _, err := e.Apply(gs, []Effect{Movement{Player: "p2", Dest: "LAB"}}, Context{Actor: "p1"})
	require.NoError(t, err)
	require.Empty(t, next.Manual)

	next2, _, err := e.Apply(gs, []Effect{Movement{Player: "p1", Dest: "LAB"}}, Context{Actor: "p1"})
	require.NoError(t, err)
	require.Len(t, next2.Manual, 1)
	require.Equal(t, "cards:draw_w", next2.Manual[0].ID)
}

func TestEngine_turnControl(t *testing.T) {
	r := testRules()
	e := NewEngine(r)
	gs := testState(r)

	// current player skipping "this turn" forfeits
	next, _, err := e.Apply(gs, []Effect{TurnControl{Player: "p1", Skip: SkipCurrent}}, Context{Actor: "p1"})
	require.NoError(t, err)
	require.True(t, next.Forfeit)
	require.Equal(t, 0, next.Players[0].SkipTurns)

	// anyone skipping "next turn" sits one out
	next2, _, err := e.Apply(gs, []Effect{TurnControl{Player: "p2", Skip: SkipNext}}, Context{Actor: "p1"})
	require.NoError(t, err)
	require.False(t, next2.Forfeit)
	require.Equal(t, 1, next2.Players[1].SkipTurns)
}

func TestEngine_timeFloorsAtZero(t *testing.T) {
	r := testRules()
	e := NewEngine(r)
	gs := testState(r)
	gs.Players[0].Time = 1

	next, _, err := e.Apply(gs, []Effect{ResourceDelta{Player: "p1", Resource: ResourceTime, Amount: -5}}, Context{Actor: "p1"})
	require.NoError(t, err)
	require.Equal(t, 0, next.Players[0].Time)
}

func TestEngine_moneyMayGoNegative(t *testing.T) {
	r := testRules()
	e := NewEngine(r)
	gs := testState(r)

	next, _, err := e.Apply(gs, []Effect{ResourceDelta{Player: "p1", Resource: ResourceMoney, Amount: -1500}}, Context{Actor: "p1"})
	require.NoError(t, err)
	require.Equal(t, -500, next.Players[0].Money)
}
