package accrual

import (
	"github.com/fadedpez/tucocasino/pkg/entities"
	"github.com/shopspring/decimal"
)

// StaffTemplate is a hireable sub-entity and what it contributes
type StaffTemplate struct {
	Name       string
	Role       entities.StaffRole
	Boost      decimal.Decimal
	Wage       decimal.Decimal
	Protection decimal.Decimal
	HireCost   int64
}

// DefaultTiers is the built in rate table
func DefaultTiers() []entities.Tier {
	return []entities.Tier{
		{Kind: entities.EntityBusiness, Level: 1, Name: "Taco Stand", BaseRate: decimal.NewFromInt(100), Cost: 5000, MaxStaff: 2},
		{Kind: entities.EntityBusiness, Level: 2, Name: "Cantina", BaseRate: decimal.NewFromInt(1000), Cost: 40000, MaxStaff: 4},
		{Kind: entities.EntityBusiness, Level: 3, Name: "Casino", BaseRate: decimal.NewFromInt(5000), Cost: 250000, MaxStaff: 8},
		{Kind: entities.EntityVault, Level: 1, Name: "Safe", BaseRate: decimal.NewFromInt(50), Capacity: 5000, Cost: 2000, MaxStaff: 1},
		{Kind: entities.EntityVault, Level: 2, Name: "Strongroom", BaseRate: decimal.NewFromInt(250), Capacity: 50000, Cost: 20000, MaxStaff: 2},
		{Kind: entities.EntityVault, Level: 3, Name: "Bank Vault", BaseRate: decimal.NewFromInt(1000), Capacity: 0, Cost: 150000, MaxStaff: 4},
	}
}

// DefaultStaff is the built in staff catalog
func DefaultStaff() []StaffTemplate {
	return []StaffTemplate{
		{Name: "cashier", Role: entities.RoleEmployee, Boost: decimal.RequireFromString("0.1"), Wage: decimal.NewFromInt(10), HireCost: 500},
		{Name: "manager", Role: entities.RoleEmployee, Boost: decimal.RequireFromString("0.2"), Wage: decimal.NewFromInt(50), HireCost: 2000},
		{Name: "bodyguard", Role: entities.RoleBodyguard, Wage: decimal.NewFromInt(40), Protection: decimal.RequireFromString("0.25"), HireCost: 1500},
	}
}
