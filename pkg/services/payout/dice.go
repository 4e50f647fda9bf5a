package payout

import (
	"fmt"

	"github.com/fadedpez/tucocasino/internal/games"
	"github.com/fadedpez/tucocasino/pkg/entities"
	"github.com/fadedpez/tucocasino/pkg/rng"
	"github.com/shopspring/decimal"
)

const (
	betPass     = "pass"
	betDontPass = "dontpass"
)

// Dice is a single come out roll of pass or don't pass. A point is not
// played out; the stake is returned.
type Dice struct {
	choiceRules
}

// NewDice creates the dice game
func NewDice() *Dice {
	return &Dice{choiceRules: choiceRules{
		kind:    entities.GameDice,
		choices: []string{betPass, betDontPass},
	}}
}

// Resolve rolls two dice
func (d *Dice) Resolve(sel entities.Selections, src rng.Source) (games.Resolution, error) {
	first := src.NextInt(6) + 1
	second := src.NextInt(6) + 1
	total := first + second

	multiplier, verdict := comeOut(sel.Choice, total)
	return games.Resolution{
		Multiplier: decimal.NewFromInt(multiplier),
		Detail:     fmt.Sprintf("Rolled %d + %d = %d, %s", first, second, total, verdict),
	}, nil
}

func comeOut(bet string, total int) (int64, string) {
	switch total {
	case 7, 11:
		if bet == betPass {
			return 2, "natural"
		}
		return 0, "natural"
	case 2, 3:
		if bet == betDontPass {
			return 2, "craps"
		}
		return 0, "craps"
	case 12:
		if bet == betDontPass {
			// Bar 12
			return 1, "craps, barred"
		}
		return 0, "craps"
	default:
		return 1, fmt.Sprintf("point %d, stake returned", total)
	}
}
