package game

import (
	"encoding/json"
	"fmt"
	"os"
)

// VisitType selects which rule row applies when a player is on a space.
type VisitType string

const (
	VisitFirst      VisitType = "First"
	VisitSubsequent VisitType = "Subsequent"
)

// CardType is one of the five shared deck types.
type CardType string

const (
	CardWork      CardType = "W"
	CardBank      CardType = "B"
	CardInvestor  CardType = "I"
	CardLife      CardType = "L"
	CardExpeditor CardType = "E"
)

// CardTypes lists every deck type, in the order decks are built.
var CardTypes = []CardType{CardWork, CardBank, CardInvestor, CardLife, CardExpeditor}

// MovementType says how a player leaves a space.
type MovementType string

const (
	MoveFixed  MovementType = "fixed"
	MoveChoice MovementType = "choice"
	MoveDice   MovementType = "dice"
	MoveLogic  MovementType = "logic"
	MoveNone   MovementType = "none"
)

// TriggerType says whether a space effect fires on arrival or must be
// triggered by the player before the turn can end.
type TriggerType string

const (
	TriggerAuto   TriggerType = "auto"
	TriggerManual TriggerType = "manual"
)

// SpaceEffectRow is one tabular effect row for a space and visit type.
type SpaceEffectRow struct {
	SpaceName    string      `json:"space_name"`
	VisitType    VisitType   `json:"visit_type"`
	EffectType   string      `json:"effect_type"`
	EffectAction string      `json:"effect_action"`
	EffectValue  int         `json:"effect_value"`
	Condition    string      `json:"condition"`
	Description  string      `json:"description"`
	Trigger      TriggerType `json:"trigger"`
}

// Destination is one exit from a space. Condition is only meaningful for
// logic movement, where the first matching destination wins.
type Destination struct {
	Space     string `json:"space"`
	Condition string `json:"condition"`
}

// MovementRow describes how a player may leave a space.
type MovementRow struct {
	SpaceName    string        `json:"space_name"`
	VisitType    VisitType     `json:"visit_type"`
	MovementType MovementType  `json:"movement_type"`
	Destinations []Destination `json:"destinations"`
}

// DiceOutcomeRow keys destinations by rolled value. The domain is
// whatever the data says; a roll outside it is a data error.
type DiceOutcomeRow struct {
	SpaceName string         `json:"space_name"`
	VisitType VisitType      `json:"visit_type"`
	Outcomes  map[int]string `json:"outcomes"`
}

// CardDefinition is one card in the catalog. Cost only matters for W, B
// and I cards. Duration > 0 keeps a played card active that many turns.
type CardDefinition struct {
	ID          string   `json:"card_id"`
	Name        string   `json:"card_name"`
	Type        CardType `json:"card_type"`
	Description string   `json:"description"`
	EffectText  string   `json:"effect_text"`
	Cost        int      `json:"cost"`
	Duration    int      `json:"duration"`
}

// SpaceConfig is per-space metadata.
type SpaceConfig struct {
	SpaceName        string `json:"space_name"`
	Phase            string `json:"phase"`
	Starting         bool   `json:"is_starting_space"`
	Ending           bool   `json:"is_ending_space"`
	MinPlayers       int    `json:"min_players"`
	MaxPlayers       int    `json:"max_players"`
	CanNegotiate     bool   `json:"can_negotiate"`
	RequiresDiceRoll bool   `json:"requires_dice_roll"`
}

// Settings are game-wide tunables from the data set.
type Settings struct {
	StartMoney      int `json:"startMoney"`
	TryAgainPenalty int `json:"tryAgainPenalty"` // days added after a restore
	DiceSides       int `json:"diceSides"`
}

// GameData is the full tabular rule data set, as loaded from one JSON
// document.
type GameData struct {
	Settings     Settings         `json:"settings"`
	Spaces       []SpaceConfig    `json:"spaces"`
	Movement     []MovementRow    `json:"movement"`
	DiceOutcomes []DiceOutcomeRow `json:"diceOutcomes"`
	SpaceEffects []SpaceEffectRow `json:"spaceEffects"`
	Cards        []CardDefinition `json:"cards"`
}

// Rules is the read-only lookup service over the rule data. All lookups
// are synchronous and side-effect free. IsLoaded must be true before any
// engine operation; calling earlier is a caller error.
type Rules interface {
	IsLoaded() bool
	GetMovement(space string, visit VisitType) (MovementRow, error)
	GetDiceOutcome(space string, visit VisitType, roll int) (string, error)
	GetSpaceEffects(space string, visit VisitType) []SpaceEffectRow
	GetCardDefinition(id string) (CardDefinition, error)
	GetCardsByType(t CardType) []CardDefinition
	GetSpaceConfig(space string) (SpaceConfig, error)
	GetSettings() Settings
	StartingSpace() (string, error)
}

// LoadJSON reads a full rule data set from a JSON file.
func LoadJSON(path string) (GameData, error) {
	jsdata, err := os.ReadFile(path)
	if err != nil {
		return GameData{}, fmt.Errorf("no data file: %w", err)
	}
	var data GameData
	err = json.Unmarshal(jsdata, &data)
	if err != nil {
		return GameData{}, fmt.Errorf("bad data file: %w", err)
	}
	return data, nil
}

// NewRules indexes a data set for lookup.
func NewRules(data GameData) Rules {
	r := &rules{
		settings:  data.Settings,
		spaces:    map[string]SpaceConfig{},
		movement:  map[spaceVisit]MovementRow{},
		dice:      map[spaceVisit]DiceOutcomeRow{},
		effects:   map[spaceVisit][]SpaceEffectRow{},
		cards:     map[string]CardDefinition{},
		cardsByTp: map[CardType][]CardDefinition{},
	}
	if r.settings.TryAgainPenalty == 0 {
		r.settings.TryAgainPenalty = 1
	}
	if r.settings.DiceSides == 0 {
		r.settings.DiceSides = 6
	}
	for _, s := range data.Spaces {
		r.spaces[s.SpaceName] = s
	}
	for _, m := range data.Movement {
		r.movement[spaceVisit{m.SpaceName, m.VisitType}] = m
	}
	for _, d := range data.DiceOutcomes {
		r.dice[spaceVisit{d.SpaceName, d.VisitType}] = d
	}
	for _, e := range data.SpaceEffects {
		k := spaceVisit{e.SpaceName, e.VisitType}
		r.effects[k] = append(r.effects[k], e)
	}
	for _, c := range data.Cards {
		r.cards[c.ID] = c
		r.cardsByTp[c.Type] = append(r.cardsByTp[c.Type], c)
	}
	r.loaded = true
	return r
}

type spaceVisit struct {
	space string
	visit VisitType
}

type rules struct {
	loaded    bool
	settings  Settings
	spaces    map[string]SpaceConfig
	movement  map[spaceVisit]MovementRow
	dice      map[spaceVisit]DiceOutcomeRow
	effects   map[spaceVisit][]SpaceEffectRow
	cards     map[string]CardDefinition
	cardsByTp map[CardType][]CardDefinition
}

func (r *rules) IsLoaded() bool        { return r.loaded }
func (r *rules) GetSettings() Settings { return r.settings }

func (r *rules) GetMovement(space string, visit VisitType) (MovementRow, error) {
	m, ok := r.movement[spaceVisit{space, visit}]
	if !ok {
		return MovementRow{}, &DataError{Space: space, Field: "movement", Msg: "no row for visit " + string(visit)}
	}
	return m, nil
}

func (r *rules) GetDiceOutcome(space string, visit VisitType, roll int) (string, error) {
	d, ok := r.dice[spaceVisit{space, visit}]
	if !ok {
		return "", &DataError{Space: space, Field: "dice", Msg: "no outcome table"}
	}
	dest, ok := d.Outcomes[roll]
	if !ok {
		return "", &DataError{Space: space, Field: "dice", Msg: fmt.Sprintf("roll %d outside table", roll)}
	}
	if dest == "" {
		return "", &DataError{Space: space, Field: "dice", Msg: fmt.Sprintf("blank destination for roll %d", roll)}
	}
	return dest, nil
}

func (r *rules) GetSpaceEffects(space string, visit VisitType) []SpaceEffectRow {
	return r.effects[spaceVisit{space, visit}]
}

func (r *rules) GetCardDefinition(id string) (CardDefinition, error) {
	c, ok := r.cards[id]
	if !ok {
		return CardDefinition{}, &DataError{Field: "cards", Msg: "no card " + id}
	}
	return c, nil
}

func (r *rules) GetCardsByType(t CardType) []CardDefinition {
	return r.cardsByTp[t]
}

func (r *rules) GetSpaceConfig(space string) (SpaceConfig, error) {
	s, ok := r.spaces[space]
	if !ok {
		return SpaceConfig{}, &DataError{Space: space, Field: "config", Msg: "no space config"}
	}
	return s, nil
}

// StartingSpace finds the space flagged as the start.
func (r *rules) StartingSpace() (string, error) {
	for _, s := range r.spaces {
		if s.Starting {
			return s.SpaceName, nil
		}
	}
	return "", &DataError{Field: "config", Msg: "no starting space"}
}
