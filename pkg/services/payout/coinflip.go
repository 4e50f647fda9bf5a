package payout

import (
	"fmt"

	"github.com/fadedpez/tucocasino/internal/games"
	"github.com/fadedpez/tucocasino/pkg/entities"
	"github.com/fadedpez/tucocasino/pkg/rng"
	"github.com/shopspring/decimal"
)

var coinSides = []string{"heads", "tails"}

// Coinflip pays double on a called side
type Coinflip struct {
	choiceRules
}

// NewCoinflip creates the coinflip game
func NewCoinflip() *Coinflip {
	return &Coinflip{choiceRules: choiceRules{kind: entities.GameCoinflip, choices: coinSides}}
}

// Resolve flips once
func (c *Coinflip) Resolve(sel entities.Selections, src rng.Source) (games.Resolution, error) {
	side := coinSides[src.NextInt(len(coinSides))]

	multiplier := decimal.Zero
	if side == sel.Choice {
		multiplier = decimal.NewFromInt(2)
	}
	return games.Resolution{
		Multiplier: multiplier,
		Detail:     fmt.Sprintf("The coin came up %s", side),
	}, nil
}
