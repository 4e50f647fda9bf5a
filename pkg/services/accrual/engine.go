package accrual

import (
	"fmt"
	"strings"
	"time"

	"github.com/fadedpez/tucocasino/internal/types"
	"github.com/fadedpez/tucocasino/pkg/entities"
	"github.com/shopspring/decimal"
)

var msPerHour = decimal.NewFromInt(int64(time.Hour / time.Millisecond))

// Result is a side effect free accrual computation
type Result struct {
	Hours      decimal.Decimal
	Gross      decimal.Decimal // base income with boosts applied
	Wages      decimal.Decimal
	Net        int64 // what collecting now would add, after clamping
	Stored     int64 // vault balance after committing; unused for businesses
	Protection decimal.Decimal // share of stored funds shielded, shown to the owner
}

type tierKey struct {
	kind  entities.EntityKind
	level int
}

// Engine computes passive income from a rate table
type Engine struct {
	tiers map[tierKey]entities.Tier
	staff map[string]StaffTemplate
}

// NewEngine creates an engine over the given tables
func NewEngine(tiers []entities.Tier, staff []StaffTemplate) *Engine {
	e := &Engine{
		tiers: make(map[tierKey]entities.Tier, len(tiers)),
		staff: make(map[string]StaffTemplate, len(staff)),
	}
	for _, tier := range tiers {
		e.tiers[tierKey{kind: tier.Kind, level: tier.Level}] = tier
	}
	for _, s := range staff {
		e.staff[strings.ToLower(s.Name)] = s
	}
	return e
}

// NewDefaultEngine creates an engine over the built in tables
func NewDefaultEngine() *Engine {
	return NewEngine(DefaultTiers(), DefaultStaff())
}

// Tier looks up the rate table row for kind and level
func (e *Engine) Tier(kind entities.EntityKind, level int) (entities.Tier, error) {
	tier, ok := e.tiers[tierKey{kind: kind, level: level}]
	if !ok {
		return entities.Tier{}, types.NotFound("tier", fmt.Sprintf("%s %d", kind, level))
	}
	return tier, nil
}

// Staff looks up a staff template by name
func (e *Engine) Staff(name string) (StaffTemplate, error) {
	s, ok := e.staff[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return StaffTemplate{}, types.NotFound("staff", name)
	}
	return s, nil
}

// Accrue computes the income entity earned since it was last collected.
// It does not modify entity.
func (e *Engine) Accrue(entity *entities.Entity, now time.Time) (Result, error) {
	tier, err := e.Tier(entity.Kind, entity.Tier)
	if err != nil {
		return Result{}, err
	}
	return Compute(entity, tier, now), nil
}

// Commit applies r to entity: the collection window restarts at now and a
// vault takes its new stored balance
func (e *Engine) Commit(entity *entities.Entity, r Result, now time.Time) {
	entity.LastCollectedAt = now
	if entity.Kind == entities.EntityVault {
		entity.Stored = r.Stored
	}
}

// Compute is the accrual formula: boosts are summed and applied once,
// wages are linear in time, and the net is floored at zero.
func Compute(entity *entities.Entity, tier entities.Tier, now time.Time) Result {
	elapsed := now.Sub(entity.LastCollectedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	hours := decimal.NewFromInt(elapsed.Milliseconds()).Div(msPerHour)

	boost := decimal.Zero
	wage := decimal.Zero
	for _, m := range entity.Modifiers {
		boost = boost.Add(m.Boost)
		wage = wage.Add(m.Wage)
	}

	gross := tier.BaseRate.Mul(hours).Mul(decimal.NewFromInt(1).Add(boost))
	wages := wage.Mul(hours)

	net := gross.Sub(wages)
	if net.IsNegative() {
		net = decimal.Zero
	}
	amount := net.Floor().IntPart()

	result := Result{
		Hours:      hours,
		Gross:      gross,
		Wages:      wages,
		Net:        amount,
		Protection: entity.Protection(),
	}

	if entity.Kind == entities.EntityVault {
		stored := entity.Stored + amount
		if tier.Capacity > 0 && stored > tier.Capacity {
			stored = tier.Capacity
		}
		if stored < entity.Stored {
			// Already over a lowered capacity; never shrink on accrual
			stored = entity.Stored
		}
		result.Net = stored - entity.Stored
		result.Stored = stored
	}

	return result
}
