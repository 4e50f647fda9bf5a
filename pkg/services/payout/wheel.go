package payout

import (
	"fmt"

	"github.com/fadedpez/tucocasino/internal/games"
	"github.com/fadedpez/tucocasino/pkg/entities"
	"github.com/fadedpez/tucocasino/pkg/rng"
	"github.com/shopspring/decimal"
)

type wheelSegment struct {
	color      string
	slots      int
	multiplier decimal.Decimal
}

var wheelSegments = []wheelSegment{
	{color: "red", slots: 18, multiplier: decimal.NewFromInt(2)},
	{color: "black", slots: 18, multiplier: decimal.NewFromInt(2)},
	{color: "green", slots: 2, multiplier: decimal.NewFromInt(14)},
	{color: "gold", slots: 1, multiplier: decimal.NewFromInt(50)},
}

// Wheel is a 39 slot color wheel
type Wheel struct {
	choiceRules
	slots []wheelSegment // flattened, one entry per slot
}

// NewWheel creates the wheel game
func NewWheel() *Wheel {
	w := &Wheel{choiceRules: choiceRules{kind: entities.GameWheel}}
	for _, segment := range wheelSegments {
		w.choices = append(w.choices, segment.color)
		for i := 0; i < segment.slots; i++ {
			w.slots = append(w.slots, segment)
		}
	}
	return w
}

// Resolve spins the wheel with one uniform draw over all slots
func (w *Wheel) Resolve(sel entities.Selections, src rng.Source) (games.Resolution, error) {
	landed := w.slots[src.NextInt(len(w.slots))]

	multiplier := decimal.Zero
	if landed.color == sel.Choice {
		multiplier = landed.multiplier
	}
	return games.Resolution{
		Multiplier: multiplier,
		Detail:     fmt.Sprintf("The wheel landed on %s", landed.color),
	}, nil
}
