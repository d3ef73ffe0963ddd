package game

// scriptDice replays a fixed list of rolls.
type scriptDice struct {
	rolls []int
	at    int
}

func (d *scriptDice) Roll() int {
	r := d.rolls[d.at]
	d.at++
	return r
}

// testData is a small but complete board exercising every movement type
// and trigger kind.
func testData() GameData {
	return GameData{
		Settings: Settings{StartMoney: 1000, TryAgainPenalty: 2, DiceSides: 6},
		Spaces: []SpaceConfig{
			{SpaceName: "START", Starting: true, MinPlayers: 1, MaxPlayers: 4, CanNegotiate: true, RequiresDiceRoll: true},
			{SpaceName: "TOLL", CanNegotiate: true, RequiresDiceRoll: true},
			{SpaceName: "SLOW", CanNegotiate: true, RequiresDiceRoll: true},
			{SpaceName: "LAB", CanNegotiate: true, RequiresDiceRoll: true},
			{SpaceName: "CHOICE-POINT", CanNegotiate: true, RequiresDiceRoll: false},
			{SpaceName: "SHORTCUT", CanNegotiate: false, RequiresDiceRoll: true},
			{SpaceName: "LONGWAY", CanNegotiate: false, RequiresDiceRoll: true},
			{SpaceName: "END", Ending: true},
		},
		Movement: []MovementRow{
			{SpaceName: "START", VisitType: VisitFirst, MovementType: MoveDice},
			{SpaceName: "START", VisitType: VisitSubsequent, MovementType: MoveDice},
			{SpaceName: "TOLL", VisitType: VisitFirst, MovementType: MoveFixed, Destinations: []Destination{{Space: "CHOICE-POINT"}}},
			{SpaceName: "TOLL", VisitType: VisitSubsequent, MovementType: MoveFixed, Destinations: []Destination{{Space: "CHOICE-POINT"}}},
			{SpaceName: "SLOW", VisitType: VisitFirst, MovementType: MoveFixed, Destinations: []Destination{{Space: "CHOICE-POINT"}}},
			{SpaceName: "LAB", VisitType: VisitFirst, MovementType: MoveFixed, Destinations: []Destination{{Space: "CHOICE-POINT"}}},
			{SpaceName: "LAB", VisitType: VisitSubsequent, MovementType: MoveFixed, Destinations: []Destination{{Space: "CHOICE-POINT"}}},
			{SpaceName: "CHOICE-POINT", VisitType: VisitFirst, MovementType: MoveChoice, Destinations: []Destination{{Space: "SHORTCUT"}, {Space: "LONGWAY"}}},
			{SpaceName: "CHOICE-POINT", VisitType: VisitSubsequent, MovementType: MoveChoice, Destinations: []Destination{{Space: "SHORTCUT"}, {Space: "LONGWAY"}}},
			{SpaceName: "SHORTCUT", VisitType: VisitFirst, MovementType: MoveFixed, Destinations: []Destination{{Space: "END"}}},
			{SpaceName: "LONGWAY", VisitType: VisitFirst, MovementType: MoveLogic, Destinations: []Destination{
				{Space: "END", Condition: "scope_gt_0"},
				{Space: "CHOICE-POINT"},
			}},
			{SpaceName: "END", VisitType: VisitFirst, MovementType: MoveNone},
			{SpaceName: "END", VisitType: VisitSubsequent, MovementType: MoveNone},
		},
		DiceOutcomes: []DiceOutcomeRow{
			{SpaceName: "START", VisitType: VisitFirst, Outcomes: map[int]string{
				1: "TOLL", 2: "SLOW", 3: "CHOICE-POINT", 4: "LAB", 5: "LAB", 6: "CHOICE-POINT",
			}},
			{SpaceName: "START", VisitType: VisitSubsequent, Outcomes: map[int]string{
				1: "TOLL", 2: "SLOW", 3: "CHOICE-POINT", 4: "LAB", 5: "LAB", 6: "CHOICE-POINT",
			}},
		},
		SpaceEffects: []SpaceEffectRow{
			{SpaceName: "TOLL", VisitType: VisitFirst, EffectType: "fee", EffectAction: "deduct", EffectValue: 50, Trigger: TriggerAuto},
			{SpaceName: "TOLL", VisitType: VisitFirst, EffectType: "cards", EffectAction: "draw_l", EffectValue: 1,
				Condition: "dice_roll_1", Description: "lucky toll", Trigger: TriggerManual},
			{SpaceName: "SLOW", VisitType: VisitFirst, EffectType: "turn", EffectAction: "skip_next", Trigger: TriggerAuto},
			{SpaceName: "LAB", VisitType: VisitFirst, EffectType: "cards", EffectAction: "draw_w", EffectValue: 1,
				Description: "pick up work", Trigger: TriggerManual},
			{SpaceName: "LAB", VisitType: VisitSubsequent, EffectType: "cards", EffectAction: "draw_w", EffectValue: 1,
				Description: "pick up work", Trigger: TriggerManual},
			{SpaceName: "SHORTCUT", VisitType: VisitFirst, EffectType: "time", EffectAction: "add", EffectValue: 2, Trigger: TriggerAuto},
		},
		Cards: []CardDefinition{
			{ID: "W1", Name: "small job", Type: CardWork, Cost: 100},
			{ID: "W2", Name: "medium job", Type: CardWork, Cost: 200},
			{ID: "W3", Name: "big job", Type: CardWork, Cost: 300},
			{ID: "B1", Name: "loan", Type: CardBank, EffectText: "Gain $500"},
			{ID: "B2", Name: "overdraft", Type: CardBank, EffectText: "Gain $200", Duration: 2},
			{ID: "I1", Name: "angel", Type: CardInvestor, EffectText: "Gain $300"},
			{ID: "L1", Name: "windfall", Type: CardLife, EffectText: "On 1-3 draw 2 E cards. On 4-6 draw 1 E card."},
			{ID: "L2", Name: "flu season", Type: CardLife, EffectText: "All other players lose 2 days"},
			{ID: "L3", Name: "audit", Type: CardLife, EffectText: "Choose a player to lose $50"},
			{ID: "L4", Name: "burnout", Type: CardLife, EffectText: "Skip next turn"},
			{ID: "L5", Name: "red tape", Type: CardLife, EffectText: "All other players discard 1 E card"},
			{ID: "E1", Name: "fast track", Type: CardExpeditor, EffectText: "Save 1 day"},
			{ID: "E2", Name: "overtime", Type: CardExpeditor, EffectText: "Save 2 days"},
			{ID: "E3", Name: "contractor", Type: CardExpeditor, EffectText: "Pay $100"},
			{ID: "E4", Name: "favour", Type: CardExpeditor, EffectText: "Gain $50"},
		},
	}
}

func testRules() Rules {
	return NewRules(testData())
}

// testState builds a started two-player state with unshuffled decks, for
// driving the engine directly.
func testState(r Rules) GameState {
	// decks in catalog order so tests know what comes off the top
	decks := map[CardType]Deck{}
	for _, t := range CardTypes {
		var ids []string
		for _, d := range r.GetCardsByType(t) {
			ids = append(ids, d.ID)
		}
		decks[t] = Deck{Draw: ids}
	}

	mk := func(id, name string) Player {
		return Player{
			ID: id, Name: name, Space: "START",
			Visited: map[string]VisitType{"START": VisitFirst},
			History: []string{"START"},
			Money:   1000,
		}
	}

	return GameState{
		Status:    StatusPlaying,
		Players:   []Player{mk("p1", "alice"), mk("p2", "bob")},
		Current:   0,
		TurnNo:    1,
		Decks:     decks,
		Snapshots: map[string]*Snapshot{},
	}
}

func totalCards(gs *GameState, t CardType, r Rules) int {
	d := gs.Decks[t]
	n := len(d.Draw) + len(d.Discard)
	for i := range gs.Players {
		p := &gs.Players[i]
		for _, id := range p.Available {
			if def, err := r.GetCardDefinition(id); err == nil && def.Type == t {
				n++
			}
		}
		for _, a := range p.Active {
			if def, err := r.GetCardDefinition(a.CardID); err == nil && def.Type == t {
				n++
			}
		}
		for _, id := range p.Discarded {
			if def, err := r.GetCardDefinition(id); err == nil && def.Type == t {
				n++
			}
		}
	}
	return n
}

var _ Dice = (*scriptDice)(nil)
