package games

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fadedpez/tucocasino/internal/types"
	"github.com/fadedpez/tucocasino/pkg/entities"
)

// Registry maps game kinds to their implementations
type Registry struct {
	games map[entities.GameKind]Game
	mu    sync.RWMutex
}

// NewRegistry creates a new game registry
func NewRegistry() *Registry {
	return &Registry{
		games: make(map[entities.GameKind]Game),
	}
}

// RegisterGame registers a game with the registry
func (r *Registry) RegisterGame(game Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.games[game.Kind()]; exists {
		return types.InvalidArgument("game %s is already registered", game.Kind())
	}

	r.games[game.Kind()] = game
	return nil
}

// GetGame returns the game registered for kind
func (r *Registry) GetGame(kind entities.GameKind) (Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	game, exists := r.games[kind]
	if !exists {
		return nil, types.NotFound("game", fmt.Sprint(kind))
	}

	return game, nil
}

// ListGames returns the registered game kinds, sorted
func (r *Registry) ListGames() []entities.GameKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	games := make([]entities.GameKind, 0, len(r.games))
	for kind := range r.games {
		games = append(games, kind)
	}
	sort.Slice(games, func(i, j int) bool { return games[i] < games[j] })
	return games
}
