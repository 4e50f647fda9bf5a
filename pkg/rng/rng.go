package rng

import (
	"math/rand"
	"sync"
	"time"
)

// Source is the randomness the payout tables draw from
type Source interface {
	// NextInt returns a uniform int in [0, bound)
	NextInt(bound int) int
	// Shuffle permutes n elements using swap
	Shuffle(n int, swap func(i, j int))
}

// Random wraps math/rand behind a mutex so it can be shared across players
type Random struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New creates a Source seeded from the current time
func New() *Random {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded creates a reproducible Source
func NewSeeded(seed int64) *Random {
	return &Random{r: rand.New(rand.NewSource(seed))}
}

// NextInt implements Source
func (s *Random) NextInt(bound int) int {
	if bound <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Intn(bound)
}

// Shuffle implements Source
func (s *Random) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r.Shuffle(n, swap)
}
