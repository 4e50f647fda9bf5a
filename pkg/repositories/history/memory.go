package history

import (
	"context"
	"sort"
	"sync"

	"github.com/fadedpez/tucocasino/pkg/entities"
)

// MemoryRepository implements Repository with in-memory storage
type MemoryRepository struct {
	mu sync.RWMutex
	// Map of playerID to settlements in insertion order
	playerRecords map[string][]*entities.SettlementRecord
	// Sessions already recorded
	sessions map[string]struct{}
}

// NewMemoryRepository creates a new in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		playerRecords: make(map[string][]*entities.SettlementRecord),
		sessions:      make(map[string]struct{}),
	}
}

// Record implements Repository
func (r *MemoryRepository) Record(ctx context.Context, record *entities.SettlementRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[record.SessionID]; exists {
		return nil
	}
	r.sessions[record.SessionID] = struct{}{}

	stored := *record
	r.playerRecords[record.PlayerID] = append(r.playerRecords[record.PlayerID], &stored)
	return nil
}

// ListByPlayer implements Repository
func (r *MemoryRepository) ListByPlayer(ctx context.Context, playerID string, limit int) ([]*entities.SettlementRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := r.playerRecords[playerID]
	out := make([]*entities.SettlementRecord, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		record := *records[i]
		out = append(out, &record)
	}
	return out, nil
}

// PlayerStatistics implements Repository
func (r *MemoryRepository) PlayerStatistics(ctx context.Context, playerID string, game entities.GameKind) (*entities.PlayerStatistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.aggregate(playerID, game), nil
}

// AllPlayerStatistics implements Repository
func (r *MemoryRepository) AllPlayerStatistics(ctx context.Context, game entities.GameKind) ([]*entities.PlayerStatistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make([]*entities.PlayerStatistics, 0, len(r.playerRecords))
	for playerID := range r.playerRecords {
		s := r.aggregate(playerID, game)
		if s.GamesPlayed == 0 && s.Refunds == 0 {
			continue
		}
		stats = append(stats, s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].PlayerID < stats[j].PlayerID })
	return stats, nil
}

// Close implements Repository
func (r *MemoryRepository) Close() error {
	return nil
}

// aggregate must be called with the read lock held
func (r *MemoryRepository) aggregate(playerID string, game entities.GameKind) *entities.PlayerStatistics {
	stats := &entities.PlayerStatistics{PlayerID: playerID, Game: game}
	for _, record := range r.playerRecords[playerID] {
		if game != "" && record.Game != game {
			continue
		}
		stats.Add(record)
	}
	return stats
}
