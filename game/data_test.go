package game

import (
	"testing"
)

func TestNewRules_defaults(t *testing.T) {
	r := NewRules(GameData{})
	if !r.IsLoaded() {
		t.Errorf("not loaded")
	}
	s := r.GetSettings()
	if s.TryAgainPenalty != 1 {
		t.Errorf("bad penalty default: %d", s.TryAgainPenalty)
	}
	if s.DiceSides != 6 {
		t.Errorf("bad dice default: %d", s.DiceSides)
	}
}

func TestRules_lookups(t *testing.T) {
	r := testRules()

	m, err := r.GetMovement("START", VisitFirst)
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	if m.MovementType != MoveDice {
		t.Errorf("bad movement: %+v", m)
	}

	_, err = r.GetMovement("NOWHERE", VisitFirst)
	if err == nil {
		t.Errorf("want error")
	}

	d, err := r.GetDiceOutcome("START", VisitFirst, 1)
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	if d != "TOLL" {
		t.Errorf("bad outcome: %s", d)
	}
	_, err = r.GetDiceOutcome("START", VisitFirst, 12)
	if err == nil {
		t.Errorf("roll outside table should error")
	}

	_, err = r.GetCardDefinition("ZZZ")
	if err == nil {
		t.Errorf("want error")
	}

	if n := len(r.GetCardsByType(CardExpeditor)); n != 4 {
		t.Errorf("bad E card count: %d", n)
	}

	start, err := r.StartingSpace()
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	if start != "START" {
		t.Errorf("bad start: %s", start)
	}
}

func TestLoadJSON_shippedData(t *testing.T) {
	data, err := LoadJSON("../data.json")
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	r := NewRules(data)
	if !r.IsLoaded() {
		t.Fatalf("not loaded")
	}

	if _, err := r.StartingSpace(); err != nil {
		t.Errorf("no starting space: %v", err)
	}

	// every movement destination must be a configured space, and every
	// space must be leavable or terminal
	for _, m := range data.Movement {
		if _, err := r.GetSpaceConfig(m.SpaceName); err != nil {
			t.Errorf("movement row for unknown space %s", m.SpaceName)
		}
		for _, d := range m.Destinations {
			if _, err := r.GetSpaceConfig(d.Space); err != nil {
				t.Errorf("%s leads to unknown space %s", m.SpaceName, d.Space)
			}
		}
	}
	for _, s := range data.Spaces {
		if _, err := r.GetMovement(s.SpaceName, VisitFirst); err != nil {
			t.Errorf("space %s has no first-visit movement", s.SpaceName)
		}
	}

	// every dice outcome points at a configured space
	for _, row := range data.DiceOutcomes {
		for roll, dest := range row.Outcomes {
			if _, err := r.GetSpaceConfig(dest); err != nil {
				t.Errorf("%s roll %d leads to unknown space %s", row.SpaceName, roll, dest)
			}
		}
	}

	// every space-effect row and every card must parse
	for _, row := range data.SpaceEffects {
		if _, err := BuildSpaceEffects(row, "p1"); err != nil {
			t.Errorf("bad row on %s: %v", row.SpaceName, err)
		}
	}
	for _, c := range data.Cards {
		if _, err := BuildCardEffects(c, "p1"); err != nil {
			t.Errorf("bad card %s: %v", c.ID, err)
		}
		if c.Type == CardWork && c.Cost == 0 {
			t.Errorf("W card %s has no cost", c.ID)
		}
	}
}
