package cooldown

import (
	"sync"
	"time"

	"github.com/fadedpez/tucocasino/internal/types"
	"github.com/fadedpez/tucocasino/pkg/clock"
)

// Action kinds gated by the bot
const (
	ActionBet     = "bet"
	ActionCollect = "collect"
)

type key struct {
	playerID string
	action   string
}

// Gate is a per player, per action rate limiter
type Gate struct {
	mu       sync.Mutex
	clock    clock.Clock
	lastUsed map[key]time.Time
}

// NewGate creates an empty gate reading time from clk
func NewGate(clk clock.Clock) *Gate {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Gate{
		clock:    clk,
		lastUsed: make(map[key]time.Time),
	}
}

// TryAcquire stamps (playerID, action) and returns nil, or returns
// COOLDOWN_ACTIVE with the remaining wait. The stamp is taken at acquire
// time so two racing requests cannot both pass.
func (g *Gate) TryAcquire(playerID, action string, cooldown time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	k := key{playerID: playerID, action: action}

	if last, ok := g.lastUsed[k]; ok {
		if elapsed := now.Sub(last); elapsed < cooldown {
			return types.CooldownActive(cooldown - elapsed)
		}
	}

	g.lastUsed[k] = now
	return nil
}

// Reset forgets the stamp for (playerID, action)
func (g *Gate) Reset(playerID, action string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.lastUsed, key{playerID: playerID, action: action})
}

// Prune drops stamps older than maxAge and returns how many were removed
func (g *Gate) Prune(maxAge time.Duration) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	removed := 0
	for k, last := range g.lastUsed {
		if now.Sub(last) >= maxAge {
			delete(g.lastUsed, k)
			removed++
		}
	}
	return removed
}
