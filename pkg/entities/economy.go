package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntityKind is the type of passive income entity
type EntityKind string

const (
	EntityBusiness EntityKind = "business" // income is paid out on collect
	EntityVault    EntityKind = "vault"    // income accumulates up to a capacity
)

// Tier is one row of the static rate table for an entity kind
type Tier struct {
	Kind     EntityKind
	Level    int
	Name     string
	BaseRate decimal.Decimal // income per hour
	Capacity int64           // vault storage limit, 0 means unbounded
	Cost     int64           // purchase price
	MaxStaff int
}

// StaffRole is the kind of sub-entity that can be hired onto an entity
type StaffRole string

const (
	RoleEmployee  StaffRole = "employee"
	RoleBodyguard StaffRole = "bodyguard"
)

// Modifier is the contribution of one hired staff member
type Modifier struct {
	ID         string          `json:"id"`
	Role       StaffRole       `json:"role"`
	Name       string          `json:"name"`
	Boost      decimal.Decimal `json:"boost"`      // additive income boost, 0.2 = +20%
	Wage       decimal.Decimal `json:"wage"`       // deducted per hour
	Protection decimal.Decimal `json:"protection"` // share of stored funds shielded
	HiredAt    time.Time       `json:"hired_at"`
}

// Entity is an owned business or vault
type Entity struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"owner_id"`
	Kind            EntityKind `json:"kind"`
	Tier            int        `json:"tier"`
	Stored          int64      `json:"stored"` // vault internal balance
	LastCollectedAt time.Time  `json:"last_collected_at"`
	Modifiers       []Modifier `json:"modifiers"` // in hire order
	CreatedAt       time.Time  `json:"created_at"`
}

// Protection is the share of stored funds shielded by the entity's staff,
// summed across modifiers and capped at 1
func (e *Entity) Protection() decimal.Decimal {
	total := decimal.Zero
	for _, m := range e.Modifiers {
		total = total.Add(m.Protection)
	}
	return decimal.Min(total, decimal.NewFromInt(1))
}

// Clone returns a deep copy of the entity
func (e *Entity) Clone() *Entity {
	c := *e
	c.Modifiers = append([]Modifier(nil), e.Modifiers...)
	return &c
}
