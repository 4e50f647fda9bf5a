package payout

import (
	"fmt"

	"github.com/fadedpez/tucocasino/internal/games"
	"github.com/fadedpez/tucocasino/pkg/cards"
	"github.com/fadedpez/tucocasino/pkg/entities"
	"github.com/fadedpez/tucocasino/pkg/rng"
	"github.com/shopspring/decimal"
)

const (
	sidePlayer = "player"
	sideBanker = "banker"
	sideTie    = "tie"
)

var baccaratPayouts = map[string]decimal.Decimal{
	sidePlayer: decimal.NewFromInt(2),
	sideBanker: decimal.RequireFromString("1.95"),
	sideTie:    decimal.NewFromInt(9),
}

// Baccarat deals a player and a banker hand from a shuffled deck
type Baccarat struct {
	choiceRules
}

// NewBaccarat creates the baccarat game; the choice is the backed side
func NewBaccarat() *Baccarat {
	return &Baccarat{choiceRules: choiceRules{
		kind:    entities.GameBaccarat,
		choices: []string{sidePlayer, sideBanker, sideTie},
	}}
}

// baccaratDecks is the size of the shoe each coup is dealt from
const baccaratDecks = 8

// Resolve shuffles a fresh shoe with src and plays one coup
func (b *Baccarat) Resolve(sel entities.Selections, src rng.Source) (games.Resolution, error) {
	deck := cards.NewShoe(baccaratDecks)
	deck.Shuffle(src)

	coup := dealCoup(deck)
	winner := coup.winner()

	return games.Resolution{
		Multiplier: baccaratMultiplier(sel.Choice, winner),
		Detail: fmt.Sprintf("Player %s (%d) vs Banker %s (%d): %s",
			formatHand(coup.player), handTotal(coup.player),
			formatHand(coup.banker), handTotal(coup.banker), winner),
	}, nil
}

// baccaratMultiplier pays the backed side; player and banker bets push on a tie
func baccaratMultiplier(choice, winner string) decimal.Decimal {
	switch {
	case winner == choice:
		return baccaratPayouts[winner]
	case winner == sideTie:
		return one
	default:
		return decimal.Zero
	}
}

type coup struct {
	player []cards.Card
	banker []cards.Card
}

func (c coup) winner() string {
	p, b := handTotal(c.player), handTotal(c.banker)
	switch {
	case p > b:
		return sidePlayer
	case b > p:
		return sideBanker
	default:
		return sideTie
	}
}

// dealCoup deals alternately and applies the third card tableau
func dealCoup(deck *cards.Deck) coup {
	c := coup{}
	for i := 0; i < 2; i++ {
		c.player = append(c.player, deck.DrawOne())
		c.banker = append(c.banker, deck.DrawOne())
	}

	playerTotal, bankerTotal := handTotal(c.player), handTotal(c.banker)

	// Naturals
	if playerTotal >= 8 || bankerTotal >= 8 {
		return c
	}

	if playerTotal > 5 {
		// Player stands, banker follows the same rule
		if bankerTotal <= 5 {
			c.banker = append(c.banker, deck.DrawOne())
		}
		return c
	}

	third := deck.DrawOne()
	c.player = append(c.player, third)
	if bankerDraws(bankerTotal, third.BaccaratValue()) {
		c.banker = append(c.banker, deck.DrawOne())
	}
	return c
}

// bankerDraws applies the banker tableau given the player's third card
func bankerDraws(bankerTotal, playerThird int) bool {
	switch bankerTotal {
	case 0, 1, 2:
		return true
	case 3:
		return playerThird != 8
	case 4:
		return playerThird >= 2 && playerThird <= 7
	case 5:
		return playerThird >= 4 && playerThird <= 7
	case 6:
		return playerThird == 6 || playerThird == 7
	default:
		return false
	}
}

func handTotal(hand []cards.Card) int {
	total := 0
	for _, card := range hand {
		total += card.BaccaratValue()
	}
	return total % 10
}

func formatHand(hand []cards.Card) string {
	out := ""
	for i, card := range hand {
		if i > 0 {
			out += " "
		}
		out += card.String()
	}
	return out
}
