package game_test

import (
	"testing"

	"teenpatti-service/internal/service/game"
)

func hand(cards ...game.Card) []game.Card { return cards }

func c(suit game.Suit, rank game.Rank) game.Card {
	return game.Card{Suit: suit, Rank: rank}
}

func TestEvaluateHandCategories(t *testing.T) {
	cases := []struct {
		name string
		hand []game.Card
		want game.HandRank
	}{
		{"trail", hand(c(game.Hearts, 7), c(game.Spades, 7), c(game.Clubs, 7)), game.Trail},
		{"trail aces", hand(c(game.Hearts, game.Ace), c(game.Spades, game.Ace), c(game.Clubs, game.Ace)), game.Trail},
		{"pure sequence", hand(c(game.Hearts, 4), c(game.Hearts, 5), c(game.Hearts, 6)), game.PureSequence},
		{"pure sequence high", hand(c(game.Spades, game.Queen), c(game.Spades, game.King), c(game.Spades, game.Ace)), game.PureSequence},
		{"sequence mixed suits", hand(c(game.Hearts, 9), c(game.Spades, 10), c(game.Clubs, game.Jack)), game.Sequence},
		{"no wraparound", hand(c(game.Hearts, game.King), c(game.Spades, game.Ace), c(game.Clubs, 2)), game.HighCard},
		{"color", hand(c(game.Diamonds, 2), c(game.Diamonds, 8), c(game.Diamonds, game.King)), game.Color},
		{"pair high", hand(c(game.Hearts, game.Jack), c(game.Spades, game.Jack), c(game.Clubs, 4)), game.Pair},
		{"pair low", hand(c(game.Hearts, 3), c(game.Spades, 3), c(game.Clubs, game.Ace)), game.Pair},
		{"high card", hand(c(game.Hearts, 2), c(game.Spades, 9), c(game.Clubs, game.King)), game.HighCard},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := game.EvaluateHand(tc.hand); got != tc.want {
				t.Fatalf("EvaluateHand = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEvaluateHandOrderIndependent(t *testing.T) {
	base := hand(c(game.Hearts, 4), c(game.Hearts, 5), c(game.Hearts, 6))
	perms := [][]game.Card{
		{base[0], base[1], base[2]},
		{base[0], base[2], base[1]},
		{base[1], base[0], base[2]},
		{base[1], base[2], base[0]},
		{base[2], base[0], base[1]},
		{base[2], base[1], base[0]},
	}
	for i, p := range perms {
		if got := game.EvaluateHand(p); got != game.PureSequence {
			t.Fatalf("permutation %d: got %v, want pure_sequence", i, got)
		}
		if got := game.HandValue(p, game.PureSequence); got != 5004 {
			t.Fatalf("permutation %d: value %d, want 5004", i, got)
		}
	}
}

func TestHandValueFormulas(t *testing.T) {
	cases := []struct {
		name string
		hand []game.Card
		want int64
	}{
		{"trail of sevens", hand(c(game.Hearts, 7), c(game.Spades, 7), c(game.Clubs, 7)), 6007},
		{"trail of aces", hand(c(game.Hearts, game.Ace), c(game.Spades, game.Ace), c(game.Clubs, game.Ace)), 6014},
		{"pure sequence 4-5-6", hand(c(game.Hearts, 4), c(game.Hearts, 5), c(game.Hearts, 6)), 5004},
		{"sequence 9-T-J", hand(c(game.Hearts, 9), c(game.Spades, 10), c(game.Clubs, game.Jack)), 4009},
		{"color K-8-2", hand(c(game.Diamonds, 2), c(game.Diamonds, 8), c(game.Diamonds, game.King)), 3000 + 100*13 + 10*8 + 2},
		{"pair of jacks, 4 kicker", hand(c(game.Hearts, game.Jack), c(game.Spades, game.Jack), c(game.Clubs, 4)), 2000 + 100*11 + 4},
		{"pair of threes, ace kicker", hand(c(game.Hearts, 3), c(game.Spades, 3), c(game.Clubs, game.Ace)), 2000 + 100*3 + 14},
		{"high card K-9-2", hand(c(game.Hearts, 2), c(game.Spades, 9), c(game.Clubs, game.King)), 100*13 + 10*9 + 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rank := game.EvaluateHand(tc.hand)
			if got := game.HandValue(tc.hand, rank); got != tc.want {
				t.Fatalf("HandValue = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestHandValueOrdersShowdowns(t *testing.T) {
	// Representative showdown pairs: stronger hand first.
	pairs := []struct {
		name             string
		stronger, weaker []game.Card
	}{
		{"trail beats pure sequence",
			hand(c(game.Hearts, 2), c(game.Spades, 2), c(game.Clubs, 2)),
			hand(c(game.Hearts, game.Queen), c(game.Hearts, game.King), c(game.Hearts, game.Ace))},
		{"pure sequence beats sequence",
			hand(c(game.Hearts, 2), c(game.Hearts, 3), c(game.Hearts, 4)),
			hand(c(game.Hearts, game.Queen), c(game.Spades, game.King), c(game.Clubs, game.Ace))},
		{"higher pair wins",
			hand(c(game.Hearts, 9), c(game.Spades, 9), c(game.Clubs, 2)),
			hand(c(game.Hearts, 8), c(game.Spades, 8), c(game.Clubs, game.Ace))},
		{"pair beats high card",
			hand(c(game.Hearts, 2), c(game.Spades, 2), c(game.Clubs, 3)),
			hand(c(game.Hearts, game.Ace), c(game.Spades, game.King), c(game.Clubs, game.Jack))},
		{"kicker breaks equal pair",
			hand(c(game.Hearts, 9), c(game.Spades, 9), c(game.Clubs, game.King)),
			hand(c(game.Diamonds, 9), c(game.Clubs, 9), c(game.Spades, game.Queen))},
		{"higher run wins",
			hand(c(game.Hearts, 5), c(game.Spades, 6), c(game.Clubs, 7)),
			hand(c(game.Hearts, 4), c(game.Spades, 5), c(game.Diamonds, 6))},
	}

	for _, tc := range pairs {
		t.Run(tc.name, func(t *testing.T) {
			sv := game.HandValue(tc.stronger, game.EvaluateHand(tc.stronger))
			wv := game.HandValue(tc.weaker, game.EvaluateHand(tc.weaker))
			if sv <= wv {
				t.Fatalf("expected %d > %d", sv, wv)
			}
		})
	}
}

func TestHandValueTie(t *testing.T) {
	a := hand(c(game.Hearts, 9), c(game.Spades, 9), c(game.Clubs, game.King))
	b := hand(c(game.Diamonds, 9), c(game.Clubs, 9), c(game.Hearts, game.King))
	av := game.HandValue(a, game.EvaluateHand(a))
	bv := game.HandValue(b, game.EvaluateHand(b))
	if av != bv {
		t.Fatalf("identical ranks should tie: %d vs %d", av, bv)
	}
}

func TestAceHighColorOutscoresLowestRun(t *testing.T) {
	color := hand(c(game.Hearts, game.Ace), c(game.Hearts, game.King), c(game.Hearts, game.Jack))
	run := hand(c(game.Hearts, 2), c(game.Spades, 3), c(game.Clubs, 4))

	cv := game.HandValue(color, game.EvaluateHand(color))
	rv := game.HandValue(run, game.EvaluateHand(run))
	if cv != 4541 {
		t.Fatalf("ace-high color value = %d, want 4541", cv)
	}
	if rv != 4002 {
		t.Fatalf("2-3-4 run value = %d, want 4002", rv)
	}
	// The color band overlaps the bottom of the sequence band, and the
	// value decides the showdown.
	if cv <= rv {
		t.Fatalf("expected the color (%d) to take the pot over the run (%d)", cv, rv)
	}
}
