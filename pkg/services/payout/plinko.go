package payout

import (
	"fmt"

	"github.com/fadedpez/tucocasino/internal/games"
	"github.com/fadedpez/tucocasino/pkg/entities"
	"github.com/fadedpez/tucocasino/pkg/rng"
	"github.com/shopspring/decimal"
)

// PlinkoRows is the number of peg rows; a drop lands in one of PlinkoRows+1 slots
const PlinkoRows = 8

func multipliers(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.RequireFromString(v)
	}
	return out
}

// Slot multipliers per risk tier, edges first
var plinkoTables = map[string][]decimal.Decimal{
	"low":    multipliers("5.6", "2.1", "1.1", "1", "0.5", "1", "1.1", "2.1", "5.6"),
	"medium": multipliers("13", "3", "1.3", "0.7", "0.4", "0.7", "1.3", "3", "13"),
	"high":   multipliers("29", "4", "1.5", "0.3", "0.2", "0.3", "1.5", "4", "29"),
}

// Plinko drops a ball through PlinkoRows of pegs
type Plinko struct {
	choiceRules
}

// NewPlinko creates the plinko game; the choice is the risk tier
func NewPlinko() *Plinko {
	return &Plinko{choiceRules: choiceRules{
		kind:    entities.GamePlinko,
		choices: []string{"low", "medium", "high"},
	}}
}

// Resolve bounces the ball left or right once per row
func (p *Plinko) Resolve(sel entities.Selections, src rng.Source) (games.Resolution, error) {
	table := plinkoTables[sel.Choice]

	slot := 0
	for row := 0; row < PlinkoRows; row++ {
		slot += src.NextInt(2)
	}

	return games.Resolution{
		Multiplier: table[slot],
		Detail:     fmt.Sprintf("The ball dropped into slot %d (%sx)", slot+1, table[slot]),
	}, nil
}
