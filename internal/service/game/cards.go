package game

import (
	"fmt"
	"math/rand"

	appErr "teenpatti-service/pkg/errors"
)

type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

var suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// Rank is the numeric card rank: 2..10, J=11, Q=12, K=13, A=14.
type Rank int

const (
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// Code renders a card in compact poker notation, e.g. "Ah", "Ts", "2c".
func (c Card) Code() string {
	var r string
	switch c.Rank {
	case 10:
		r = "T"
	case Jack:
		r = "J"
	case Queen:
		r = "Q"
	case King:
		r = "K"
	case Ace:
		r = "A"
	default:
		r = fmt.Sprintf("%d", c.Rank)
	}
	return r + string(c.Suit[0])
}

// Deck is an owned, consumed sequence of cards with an explicit draw
// cursor. Dealt slices are copied so hands never alias deck storage.
type Deck struct {
	cards []Card
	next  int
	rng   *rand.Rand
}

// NewDeck builds a full 52-card deck and shuffles it. A nil rng falls
// back to the global math/rand source.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{
		cards: make([]Card, 0, 52),
		rng:   rng,
	}
	for _, suit := range suits {
		for rank := Rank(2); rank <= Ace; rank++ {
			d.cards = append(d.cards, Card{Suit: suit, Rank: rank})
		}
	}
	d.Shuffle()
	return d
}

// Shuffle performs a Fisher-Yates shuffle and resets the draw cursor.
func (d *Deck) Shuffle() {
	d.next = 0
	for i := len(d.cards) - 1; i > 0; i-- {
		var j int
		if d.rng != nil {
			j = d.rng.Intn(i + 1)
		} else {
			j = rand.Intn(i + 1)
		}
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal removes n cards from the top of the deck.
func (d *Deck) Deal(n int) ([]Card, error) {
	if d.next+n > len(d.cards) {
		return nil, appErr.ErrDeckExhausted
	}
	cards := make([]Card, n)
	copy(cards, d.cards[d.next:d.next+n])
	d.next += n
	return cards, nil
}

// DealHands deals per cards to each of n players, without replacement.
func (d *Deck) DealHands(n, per int) ([][]Card, error) {
	if d.next+n*per > len(d.cards) {
		return nil, appErr.ErrDeckExhausted
	}
	hands := make([][]Card, n)
	for i := range hands {
		hand, err := d.Deal(per)
		if err != nil {
			return nil, err
		}
		hands[i] = hand
	}
	return hands, nil
}

func (d *Deck) Remaining() int {
	return len(d.cards) - d.next
}

func cardCodes(cards []Card) []string {
	codes := make([]string, len(cards))
	for i, c := range cards {
		codes[i] = c.Code()
	}
	return codes
}
