package payout

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fadedpez/tucocasino/internal/games"
	"github.com/fadedpez/tucocasino/internal/types"
	"github.com/fadedpez/tucocasino/pkg/entities"
	"github.com/fadedpez/tucocasino/pkg/rng"
	"github.com/shopspring/decimal"
)

const (
	KenoPicks   = 5
	KenoMax     = 40
	KenoDrawLen = 10
)

// Multiplier by match count; counts not listed lose
var kenoPaytable = map[int]decimal.Decimal{
	3: decimal.NewFromInt(2),
	4: decimal.NewFromInt(5),
	5: decimal.NewFromInt(20),
}

// Keno is pick KenoPicks of 1..KenoMax, KenoDrawLen numbers drawn
type Keno struct{}

// NewKeno creates the keno game
func NewKeno() *Keno {
	return &Keno{}
}

func (k *Keno) Kind() entities.GameKind { return entities.GameKeno }

// AutoPlay is false: picks are toggled one at a time and confirmed
func (k *Keno) AutoPlay() bool { return false }

func (k *Keno) Choices() []string { return nil }

func (k *Keno) Validate(sel entities.Selections) error {
	if sel.Choice != "" {
		return types.InvalidArgument("keno takes numbers, not %q", sel.Choice)
	}
	if len(sel.Numbers) > KenoPicks {
		return types.InvalidArgument("pick at most %d numbers", KenoPicks)
	}
	seen := make(map[int]bool, len(sel.Numbers))
	for _, n := range sel.Numbers {
		if n < 1 || n > KenoMax {
			return types.InvalidArgument("%d is outside 1-%d", n, KenoMax)
		}
		if seen[n] {
			return types.InvalidArgument("%d was picked twice", n)
		}
		seen[n] = true
	}
	return nil
}

func (k *Keno) Ready(sel entities.Selections) bool {
	return len(sel.Numbers) == KenoPicks && k.Validate(sel) == nil
}

// Apply toggles one number. Adding to a complete pick is rejected;
// removing is always allowed.
func (k *Keno) Apply(sel entities.Selections, option string) (entities.Selections, error) {
	n, err := strconv.Atoi(strings.TrimSpace(option))
	if err != nil || n < 1 || n > KenoMax {
		return sel, types.InvalidArgument("%q is not a number from 1-%d", option, KenoMax)
	}

	next := sel.Clone()
	if next.HasNumber(n) {
		numbers := next.Numbers[:0]
		for _, picked := range next.Numbers {
			if picked != n {
				numbers = append(numbers, picked)
			}
		}
		next.Numbers = numbers
		return next, nil
	}

	if len(next.Numbers) >= KenoPicks {
		return sel, types.InvalidTransition("selection is already complete, unpick a number first")
	}
	next.Numbers = append(next.Numbers, n)
	return next, nil
}

// Resolve draws KenoDrawLen distinct numbers with a partial Fisher-Yates
func (k *Keno) Resolve(sel entities.Selections, src rng.Source) (games.Resolution, error) {
	drawn := kenoDraw(src)

	matches := 0
	for _, n := range drawn {
		if sel.HasNumber(n) {
			matches++
		}
	}

	multiplier, ok := kenoPaytable[matches]
	if !ok {
		multiplier = decimal.Zero
	}

	sorted := append([]int(nil), drawn...)
	sort.Ints(sorted)
	return games.Resolution{
		Multiplier: multiplier,
		Detail:     fmt.Sprintf("Drew %s, %d matched", joinInts(sorted), matches),
	}, nil
}

func kenoDraw(src rng.Source) []int {
	pool := make([]int, KenoMax)
	for i := range pool {
		pool[i] = i + 1
	}
	for i := 0; i < KenoDrawLen; i++ {
		j := i + src.NextInt(KenoMax-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:KenoDrawLen]
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
