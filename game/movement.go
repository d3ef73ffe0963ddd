package game

// The movement resolver decides where a player may go from a space and
// does the relocation bookkeeping. Destinations come from the movement
// rule rows: fixed (one exit), choice (player picks), dice (keyed by the
// roll through the outcome table), logic (first destination whose
// condition matches) and none (terminal).

// ValidDestinations lists the legal exits for a player from their
// current space. A terminal space has none, which is not an error here;
// trying to move is.
func ValidDestinations(r Rules, gs *GameState, playerID string) ([]string, error) {
	p := gs.PlayerByID(playerID)
	if p == nil {
		return nil, &StateError{Player: playerID, What: "no such player"}
	}
	row, err := r.GetMovement(p.Space, p.VisitTypeFor(p.Space))
	if err != nil {
		return nil, err
	}

	switch row.MovementType {
	case MoveNone:
		return nil, nil
	case MoveFixed, MoveChoice, MoveLogic:
		var out []string
		for _, d := range row.Destinations {
			out = append(out, d.Space)
		}
		return out, nil
	case MoveDice:
		// every distinct outcome in the table
		d, err := diceDomain(r, p.Space, p.VisitTypeFor(p.Space))
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	return nil, &DataError{Space: p.Space, Field: "movement_type", Msg: "unknown type " + string(row.MovementType)}
}

func diceDomain(r Rules, space string, visit VisitType) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for roll := 1; roll <= 12; roll++ {
		dest, err := r.GetDiceOutcome(space, visit, roll)
		if err != nil {
			continue
		}
		if !seen[dest] {
			seen[dest] = true
			out = append(out, dest)
		}
	}
	if len(out) == 0 {
		return nil, &DataError{Space: space, Field: "dice", Msg: "empty outcome table"}
	}
	return out, nil
}

// destinationForRoll resolves one turn's movement. It returns either a
// concrete destination, or the options the player must choose between,
// or neither for a terminal space.
func destinationForRoll(r Rules, gs *GameState, playerID string, roll int) (dest string, options []string, err error) {
	p := gs.PlayerByID(playerID)
	if p == nil {
		return "", nil, &StateError{Player: playerID, What: "no such player"}
	}
	visit := p.VisitTypeFor(p.Space)
	row, err := r.GetMovement(p.Space, visit)
	if err != nil {
		return "", nil, err
	}

	switch row.MovementType {
	case MoveNone:
		return "", nil, nil
	case MoveFixed:
		if len(row.Destinations) != 1 {
			return "", nil, &DataError{Space: p.Space, Field: "movement", Msg: "fixed row needs exactly one destination"}
		}
		return row.Destinations[0].Space, nil, nil
	case MoveDice:
		d, err := r.GetDiceOutcome(p.Space, visit, roll)
		if err != nil {
			return "", nil, err
		}
		return d, nil, nil
	case MoveLogic:
		for _, d := range row.Destinations {
			if d.Condition == "" {
				return d.Space, nil, nil
			}
			cond, err := parseCondition(d.Condition)
			if err != nil {
				return "", nil, &DataError{Space: p.Space, Field: "movement", Msg: err.Error()}
			}
			if cond.Matches(gs, playerID, roll) {
				return d.Space, nil, nil
			}
		}
		return "", nil, &DataError{Space: p.Space, Field: "movement", Msg: "no logic destination matched"}
	case MoveChoice:
		if len(row.Destinations) < 2 {
			return "", nil, &DataError{Space: p.Space, Field: "movement", Msg: "choice row needs two or more destinations"}
		}
		var out []string
		for _, d := range row.Destinations {
			out = append(out, d.Space)
		}
		return "", out, nil
	}
	return "", nil, &DataError{Space: p.Space, Field: "movement_type", Msg: "unknown type " + string(row.MovementType)}
}

// relocate moves the player and does the visit bookkeeping: history is
// appended, and the visit marker for the new space becomes First only on
// the player's first-ever visit to that space name.
func relocate(p *Player, dest string) {
	if _, seen := p.Visited[dest]; seen {
		p.Visited[dest] = VisitSubsequent
	} else {
		p.Visited[dest] = VisitFirst
	}
	p.History = append(p.History, dest)
	p.Space = dest
	p.HasMoved = true
}
