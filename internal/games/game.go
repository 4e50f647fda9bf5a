package games

import (
	"github.com/fadedpez/tucocasino/pkg/entities"
	"github.com/fadedpez/tucocasino/pkg/rng"
	"github.com/shopspring/decimal"
)

// Resolution is the raw verdict of a game: the stake multiplier and a
// human readable account of what was drawn
type Resolution struct {
	Multiplier decimal.Decimal
	Detail     string
}

// Game is the probability table and selection rules of one minigame.
// Implementations hold no per-session state.
type Game interface {
	// Kind returns the game's identifier
	Kind() entities.GameKind

	// AutoPlay reports whether a complete selection at bet time resolves immediately
	AutoPlay() bool

	// Choices lists the valid values for Selections.Choice, empty if unused
	Choices() []string

	// Validate rejects selections that can never become playable
	Validate(sel entities.Selections) error

	// Ready reports whether sel is complete enough to resolve
	Ready(sel entities.Selections) bool

	// Apply returns sel with one player option applied (a choice or a number toggle)
	Apply(sel entities.Selections, option string) (entities.Selections, error)

	// Resolve draws from src and returns the multiplier; it must be pure given src
	Resolve(sel entities.Selections, src rng.Source) (Resolution, error)
}
