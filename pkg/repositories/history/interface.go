package history

import (
	"context"

	"github.com/fadedpez/tucocasino/pkg/entities"
)

//go:generate mockgen -source=$GOFILE -destination=mock/mock.go -package=mock_history

// Repository stores settlement records and aggregates them into statistics.
// An empty game kind means all games.
type Repository interface {
	// Record stores a settlement. Recording the same session twice is a no-op.
	Record(ctx context.Context, record *entities.SettlementRecord) error

	// ListByPlayer returns the player's settlements, newest first.
	// A limit of zero or less returns everything.
	ListByPlayer(ctx context.Context, playerID string, limit int) ([]*entities.SettlementRecord, error)

	PlayerStatistics(ctx context.Context, playerID string, game entities.GameKind) (*entities.PlayerStatistics, error)
	AllPlayerStatistics(ctx context.Context, game entities.GameKind) ([]*entities.PlayerStatistics, error)

	Close() error
}
