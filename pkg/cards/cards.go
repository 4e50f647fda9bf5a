package cards

import (
	"github.com/fadedpez/tucocasino/pkg/rng"
)

// Suit represents a card suit
type Suit string

const (
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"
	Spades   Suit = "♠"
)

// Rank represents a card rank
type Rank string

const (
	Ace   Rank = "A"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
)

// Card is one playing card
type Card struct {
	Suit Suit
	Rank Rank
}

// String renders suit then rank, e.g. ♠10
func (c Card) String() string {
	return string(c.Suit) + string(c.Rank)
}

var baccaratValues = map[Rank]int{
	Ace: 1, Two: 2, Three: 3, Four: 4, Five: 5, Six: 6, Seven: 7, Eight: 8, Nine: 9,
}

// BaccaratValue is the card's point value; tens and faces count zero
func (c Card) BaccaratValue() int {
	return baccaratValues[c.Rank]
}

// Deck is a stack of cards, top first
type Deck struct {
	Cards []Card
}

// NewShoe creates n standard decks stacked in order
func NewShoe(n int) *Deck {
	deck := &Deck{Cards: make([]Card, 0, 52*n)}
	suits := []Suit{Hearts, Diamonds, Clubs, Spades}
	ranks := []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

	for i := 0; i < n; i++ {
		for _, suit := range suits {
			for _, rank := range ranks {
				deck.Cards = append(deck.Cards, Card{Suit: suit, Rank: rank})
			}
		}
	}
	return deck
}

// Shuffle reorders the deck with src
func (d *Deck) Shuffle(src rng.Source) {
	src.Shuffle(len(d.Cards), func(i, j int) {
		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	})
}

// Draw takes up to n cards off the top
func (d *Deck) Draw(n int) []Card {
	if n > len(d.Cards) {
		n = len(d.Cards)
	}
	drawn := d.Cards[:n]
	d.Cards = d.Cards[n:]
	return drawn
}

// DrawOne takes the top card, or the zero Card when the deck is empty
func (d *Deck) DrawOne() Card {
	drawn := d.Draw(1)
	if len(drawn) == 0 {
		return Card{}
	}
	return drawn[0]
}
