package bot

import (
	"context"

	"github.com/fadedpez/tucocasino/pkg/entities"
	"github.com/fadedpez/tucocasino/pkg/services/accrual"
	"github.com/fadedpez/tucocasino/pkg/services/economy"
	"github.com/fadedpez/tucocasino/pkg/services/statistics"
	"github.com/stretchr/testify/mock"
)

// MockEconomy implements Economy for testing
type MockEconomy struct {
	mock.Mock
}

func (m *MockEconomy) Purchase(ctx context.Context, ownerID string, kind entities.EntityKind, level int) (*entities.Entity, error) {
	args := m.Called(ctx, ownerID, kind, level)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Entity), args.Error(1)
}

func (m *MockEconomy) Hire(ctx context.Context, ownerID, entityID, staffName string) (*entities.Entity, error) {
	args := m.Called(ctx, ownerID, entityID, staffName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Entity), args.Error(1)
}

func (m *MockEconomy) Fire(ctx context.Context, ownerID, entityID, modifierID string) (*entities.Entity, error) {
	args := m.Called(ctx, ownerID, entityID, modifierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Entity), args.Error(1)
}

func (m *MockEconomy) Preview(ctx context.Context, ownerID, entityID string) (*entities.Entity, accrual.Result, error) {
	args := m.Called(ctx, ownerID, entityID)
	if args.Get(0) == nil {
		return nil, accrual.Result{}, args.Error(2)
	}
	return args.Get(0).(*entities.Entity), args.Get(1).(accrual.Result), args.Error(2)
}

func (m *MockEconomy) CollectAccrual(ctx context.Context, ownerID, entityID string) (*economy.Collection, error) {
	args := m.Called(ctx, ownerID, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*economy.Collection), args.Error(1)
}

func (m *MockEconomy) ListOwned(ctx context.Context, ownerID string) ([]*entities.Entity, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Entity), args.Error(1)
}

// MockLeaderboards implements Leaderboards for testing
type MockLeaderboards struct {
	mock.Mock
}

func (m *MockLeaderboards) GetLeaderboard(ctx context.Context, game entities.GameKind, page, playersPerPage int) (*statistics.Leaderboard, error) {
	args := m.Called(ctx, game, page, playersPerPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*statistics.Leaderboard), args.Error(1)
}

func (m *MockLeaderboards) GetPlayerSummary(ctx context.Context, playerID string, recent int) (*statistics.Summary, error) {
	args := m.Called(ctx, playerID, recent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*statistics.Summary), args.Error(1)
}
