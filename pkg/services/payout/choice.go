package payout

import (
	"strings"

	"github.com/fadedpez/tucocasino/internal/types"
	"github.com/fadedpez/tucocasino/pkg/entities"
)

// choiceRules implements the selection half of games that take a single
// named choice and resolve as soon as it is made
type choiceRules struct {
	kind    entities.GameKind
	choices []string
}

func (c choiceRules) Kind() entities.GameKind { return c.kind }

func (c choiceRules) AutoPlay() bool { return true }

func (c choiceRules) Choices() []string {
	return append([]string(nil), c.choices...)
}

func (c choiceRules) Validate(sel entities.Selections) error {
	if len(sel.Numbers) > 0 {
		return types.InvalidArgument("%s does not take numbers", c.kind)
	}
	if sel.Choice != "" && !c.valid(sel.Choice) {
		return types.InvalidArgument("%s is not a %s choice, pick one of %s",
			sel.Choice, c.kind, strings.Join(c.choices, ", "))
	}
	return nil
}

func (c choiceRules) Ready(sel entities.Selections) bool {
	return c.valid(sel.Choice)
}

func (c choiceRules) Apply(sel entities.Selections, option string) (entities.Selections, error) {
	option = strings.ToLower(strings.TrimSpace(option))
	next := sel.Clone()
	next.Choice = option
	if err := c.Validate(next); err != nil {
		return sel, err
	}
	return next, nil
}

func (c choiceRules) valid(choice string) bool {
	for _, allowed := range c.choices {
		if choice == allowed {
			return true
		}
	}
	return false
}
