package game

import "sort"

// HandRank orders three-card hand categories from weakest to strongest.
type HandRank int

const (
	HighCard HandRank = iota
	Pair
	Color
	Sequence
	PureSequence
	Trail
)

func (r HandRank) String() string {
	switch r {
	case HighCard:
		return "high_card"
	case Pair:
		return "pair"
	case Color:
		return "color"
	case Sequence:
		return "sequence"
	case PureSequence:
		return "pure_sequence"
	case Trail:
		return "trail"
	default:
		return "unknown"
	}
}

// EvaluateHand classifies a three-card hand. Card order does not matter.
func EvaluateHand(hand []Card) HandRank {
	if len(hand) != 3 {
		return HighCard
	}
	ranks := sortedRanksDesc(hand)
	sameSuit := hand[0].Suit == hand[1].Suit && hand[1].Suit == hand[2].Suit
	// ranks are descending: consecutive means each step down by one.
	run := ranks[0] == ranks[1]+1 && ranks[1] == ranks[2]+1

	switch {
	case ranks[0] == ranks[1] && ranks[1] == ranks[2]:
		return Trail
	case run && sameSuit:
		return PureSequence
	case run:
		return Sequence
	case sameSuit:
		return Color
	case ranks[0] == ranks[1] || ranks[1] == ranks[2]:
		return Pair
	default:
		return HighCard
	}
}

// HandValue produces a numeric strength for showdown comparison: a base
// per category plus kickers to break ties within it. Equal values mean a
// dead tie. The color kickers top out above the lowest runs, so an
// ace-high color outscores a 2-3-4 sequence; the value, not the
// category, is what a showdown compares.
func HandValue(hand []Card, rank HandRank) int64 {
	if len(hand) != 3 {
		return 0
	}
	r := sortedRanksDesc(hand)
	high, mid, low := int64(r[0]), int64(r[1]), int64(r[2])

	switch rank {
	case Trail:
		return 6000 + high
	case PureSequence:
		return 5000 + low
	case Sequence:
		return 4000 + low
	case Color:
		return 3000 + 100*high + 10*mid + low
	case Pair:
		pairRank, kicker := mid, low
		if r[1] == r[2] {
			pairRank, kicker = mid, high
		}
		return 2000 + 100*pairRank + kicker
	default:
		return 100*high + 10*mid + low
	}
}

func sortedRanksDesc(hand []Card) []Rank {
	ranks := make([]Rank, len(hand))
	for i, c := range hand {
		ranks[i] = c.Rank
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i] > ranks[j] })
	return ranks
}
