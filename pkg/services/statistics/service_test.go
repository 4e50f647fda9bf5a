package statistics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fadedpez/tucocasino/pkg/clock"
	"github.com/fadedpez/tucocasino/pkg/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository is a mock implementation of the history.Repository interface
type MockRepository struct {
	mock.Mock
}

// Record implements Repository
func (m *MockRepository) Record(ctx context.Context, record *entities.SettlementRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// ListByPlayer implements Repository
func (m *MockRepository) ListByPlayer(ctx context.Context, playerID string, limit int) ([]*entities.SettlementRecord, error) {
	args := m.Called(ctx, playerID, limit)
	return args.Get(0).([]*entities.SettlementRecord), args.Error(1)
}

// PlayerStatistics implements Repository
func (m *MockRepository) PlayerStatistics(ctx context.Context, playerID string, game entities.GameKind) (*entities.PlayerStatistics, error) {
	args := m.Called(ctx, playerID, game)
	return args.Get(0).(*entities.PlayerStatistics), args.Error(1)
}

// AllPlayerStatistics implements Repository
func (m *MockRepository) AllPlayerStatistics(ctx context.Context, game entities.GameKind) ([]*entities.PlayerStatistics, error) {
	args := m.Called(ctx, game)
	return args.Get(0).([]*entities.PlayerStatistics), args.Error(1)
}

// Close implements Repository
func (m *MockRepository) Close() error {
	return nil
}

var now = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func TestGetLeaderboard(t *testing.T) {
	// Create a mock repository
	mockRepo := new(MockRepository)

	testStats := []*entities.PlayerStatistics{
		{PlayerID: "player1", GamesPlayed: 10, Wins: 5, Losses: 4, Pushes: 1, TotalWagered: 1000, TotalPaidOut: 1500},
		{PlayerID: "player2", GamesPlayed: 15, Wins: 8, Losses: 5, Pushes: 2, TotalWagered: 2000, TotalPaidOut: 2800},
		{PlayerID: "player3", GamesPlayed: 20, Wins: 12, Losses: 6, Pushes: 2, TotalWagered: 3000, TotalPaidOut: 4000},
		{PlayerID: "refunds-only", Refunds: 3},
	}
	mockRepo.On("AllPlayerStatistics", mock.Anything, entities.GameKind("")).Return(testStats, nil)

	service := NewService(mockRepo, clock.NewFake(now))

	// Call the method being tested
	leaderboard, err := service.GetLeaderboard(context.Background(), "", 1, 10)

	require.NoError(t, err)
	assert.Equal(t, 3, leaderboard.TotalPlayers)
	assert.Equal(t, 1, leaderboard.CurrentPage)
	assert.Equal(t, 1, leaderboard.TotalPages)
	assert.Equal(t, 10, leaderboard.PlayersPerPage)
	assert.Equal(t, now, leaderboard.LastUpdated)

	// Sorted by net profit: 1000, 800, 500
	require.Len(t, leaderboard.Players, 3)
	assert.Equal(t, "player3", leaderboard.Players[0].PlayerID)
	assert.Equal(t, "player2", leaderboard.Players[1].PlayerID)
	assert.Equal(t, "player1", leaderboard.Players[2].PlayerID)

	assert.Equal(t, 1, leaderboard.Players[0].Rank)
	assert.Equal(t, 3, leaderboard.Players[2].Rank)
	assert.InDelta(t, 60.0, leaderboard.Players[0].WinRate, 0.001)
	assert.InDelta(t, 1.5, leaderboard.Players[2].ProfitRate, 0.001)

	assert.True(t, leaderboard.Players[0].IsTopWinner)
	assert.True(t, leaderboard.Players[0].IsTopPlayer) // player3 has the most games played
	assert.False(t, leaderboard.Players[1].IsTopWinner)

	mockRepo.AssertExpectations(t)
}

func TestGetLeaderboardPagination(t *testing.T) {
	mockRepo := new(MockRepository)
	var stats []*entities.PlayerStatistics
	for i := 0; i < 25; i++ {
		stats = append(stats, &entities.PlayerStatistics{
			PlayerID:     string(rune('a' + i)),
			GamesPlayed:  1,
			TotalWagered: 100,
			TotalPaidOut: int64(100 * i),
		})
	}
	mockRepo.On("AllPlayerStatistics", mock.Anything, entities.GameDice).Return(stats, nil)
	service := NewService(mockRepo, clock.NewFake(now))

	testCases := []struct {
		name      string
		page      int
		wantPage  int
		wantCount int
		wantFirst int // rank of the first entry
	}{
		{name: "first page", page: 1, wantPage: 1, wantCount: 10, wantFirst: 1},
		{name: "last page is partial", page: 3, wantPage: 3, wantCount: 5, wantFirst: 21},
		{name: "past the end clamps", page: 9, wantPage: 3, wantCount: 5, wantFirst: 21},
		{name: "zero means first", page: 0, wantPage: 1, wantCount: 10, wantFirst: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			leaderboard, err := service.GetLeaderboard(context.Background(), entities.GameDice, tc.page, 10)
			require.NoError(t, err)
			assert.Equal(t, 3, leaderboard.TotalPages)
			assert.Equal(t, tc.wantPage, leaderboard.CurrentPage)
			require.Len(t, leaderboard.Players, tc.wantCount)
			assert.Equal(t, tc.wantFirst, leaderboard.Players[0].Rank)
		})
	}
}

func TestGetLeaderboardError(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("AllPlayerStatistics", mock.Anything, entities.GameKind("")).
		Return([]*entities.PlayerStatistics(nil), errors.New("db down"))

	_, err := NewService(mockRepo, nil).GetLeaderboard(context.Background(), "", 1, 10)
	assert.Error(t, err)
}

func TestGetPlayerSummary(t *testing.T) {
	mockRepo := new(MockRepository)
	empty := func(game entities.GameKind) *entities.PlayerStatistics {
		return &entities.PlayerStatistics{PlayerID: "player1", Game: game}
	}

	mockRepo.On("PlayerStatistics", mock.Anything, "player1", entities.GameKind("")).
		Return(&entities.PlayerStatistics{PlayerID: "player1", GamesPlayed: 3, Wins: 2, Losses: 1}, nil)
	for _, kind := range entities.AllGames {
		stats := empty(kind)
		switch kind {
		case entities.GameWheel:
			stats.GamesPlayed, stats.Wins = 2, 2
		case entities.GameKeno:
			stats.GamesPlayed, stats.Losses = 1, 1
		}
		mockRepo.On("PlayerStatistics", mock.Anything, "player1", kind).Return(stats, nil)
	}
	recent := []*entities.SettlementRecord{{SessionID: "s3"}, {SessionID: "s2"}}
	mockRepo.On("ListByPlayer", mock.Anything, "player1", 2).Return(recent, nil)

	summary, err := NewService(mockRepo, nil).GetPlayerSummary(context.Background(), "player1", 2)

	require.NoError(t, err)
	assert.Equal(t, 3, summary.Overall.GamesPlayed)
	require.Len(t, summary.ByGame, 2)
	assert.Equal(t, entities.GameWheel, summary.ByGame[0].Game)
	assert.Equal(t, entities.GameKeno, summary.ByGame[1].Game)
	assert.Equal(t, recent, summary.Recent)
	mockRepo.AssertExpectations(t)
}

func TestGetPlayerSummaryNewPlayer(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("PlayerStatistics", mock.Anything, "new", entities.GameKind("")).
		Return(&entities.PlayerStatistics{PlayerID: "new"}, nil)

	summary, err := NewService(mockRepo, nil).GetPlayerSummary(context.Background(), "new", 5)

	require.NoError(t, err)
	assert.Empty(t, summary.ByGame)
	assert.Empty(t, summary.Recent)
	mockRepo.AssertNotCalled(t, "ListByPlayer", mock.Anything, mock.Anything, mock.Anything)
}
