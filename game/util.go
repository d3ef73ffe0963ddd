package game

import "math/rand"

// newDeck stacks every card of one type, shuffled once at game start.
func newDeck(defs []CardDefinition, rng *rand.Rand) Deck {
	ids := make([]string, len(defs))
	for i, d := range defs {
		ids[i] = d.ID
	}
	if rng != nil {
		rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	} else {
		rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	}
	return Deck{Draw: ids}
}

func stringListContains(l []string, s string) bool {
	for _, x := range l {
		if s == x {
			return true
		}
	}
	return false
}

func stringListWithout(l []string, s string) ([]string, bool) {
	for i, x := range l {
		if x == s {
			var out []string
			out = append(out, l[0:i]...)
			out = append(out, l[i+1:]...)
			return out, true
		}
	}
	return l, false
}

func activeListWithout(l []ActiveCard, cardID string) []ActiveCard {
	for i, x := range l {
		if x.CardID == cardID {
			var out []ActiveCard
			out = append(out, l[0:i]...)
			out = append(out, l[i+1:]...)
			return out
		}
	}
	return l
}
