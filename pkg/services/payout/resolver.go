package payout

import (
	"github.com/fadedpez/tucocasino/internal/games"
	"github.com/fadedpez/tucocasino/internal/types"
	"github.com/fadedpez/tucocasino/pkg/entities"
	"github.com/fadedpez/tucocasino/pkg/rng"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// Resolver maps a game kind, selections and random draws to an outcome
type Resolver struct {
	registry *games.Registry
}

// NewResolver creates a resolver over the games in registry
func NewResolver(registry *games.Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Resolve plays sel for the stake escrow, drawing only from src
func (r *Resolver) Resolve(kind entities.GameKind, sel entities.Selections, escrow int64, src rng.Source) (*entities.Outcome, error) {
	game, err := r.registry.GetGame(kind)
	if err != nil {
		return nil, err
	}
	if !game.Ready(sel) {
		return nil, types.InvalidTransition("selection is not complete")
	}

	resolution, err := game.Resolve(sel, src)
	if err != nil {
		return nil, err
	}

	return &entities.Outcome{
		Result:     Classify(resolution.Multiplier),
		Multiplier: resolution.Multiplier,
		Payout:     Amount(escrow, resolution.Multiplier),
		Detail:     resolution.Detail,
	}, nil
}

// Amount is floor(escrow * multiplier)
func Amount(escrow int64, multiplier decimal.Decimal) int64 {
	return decimal.NewFromInt(escrow).Mul(multiplier).Floor().IntPart()
}

// Classify tells a win from a push from a loss; exactly 1x is a push
func Classify(multiplier decimal.Decimal) entities.Result {
	switch multiplier.Cmp(one) {
	case 1:
		return entities.ResultWin
	case 0:
		return entities.ResultPush
	default:
		return entities.ResultLose
	}
}

// RegisterAll registers every built in game
func RegisterAll(registry *games.Registry) error {
	for _, game := range []games.Game{
		NewWheel(),
		NewKeno(),
		NewBaccarat(),
		NewPlinko(),
		NewDice(),
		NewCoinflip(),
	} {
		if err := registry.RegisterGame(game); err != nil {
			return err
		}
	}
	return nil
}
