package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/fadedpez/tucocasino/internal/logging"
	"github.com/fadedpez/tucocasino/internal/types"
	"github.com/fadedpez/tucocasino/pkg/clock"
	"github.com/fadedpez/tucocasino/pkg/entities"
	"github.com/fadedpez/tucocasino/pkg/keylock"
	"github.com/fadedpez/tucocasino/pkg/storage"
)

const namespace = "session"

type tombstone struct {
	playerID string
	phase    entities.Phase
	at       time.Time
}

// Options configures a Store
type Options struct {
	TTL    time.Duration // input deadline for new sessions
	Clock  clock.Clock
	Logger *logging.Logger
}

// Store holds in-progress sessions keyed by player, so the one active
// session per player check is a single map lookup. Every change is
// snapshotted to the backing KV store before it becomes visible.
type Store struct {
	kv    storage.Store
	ttl   time.Duration
	clock clock.Clock
	log   *logging.Logger
	locks *keylock.Locker // per player, held across the KV write

	mu         sync.RWMutex
	byPlayer   map[string]*entities.Session
	byID       map[string]string // session ID -> player ID
	tombstones map[string]tombstone
}

// NewStore creates a session store persisting to kv
func NewStore(kv storage.Store, opts Options) *Store {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default
	}
	if opts.TTL <= 0 {
		opts.TTL = 2 * time.Minute
	}
	return &Store{
		kv:         kv,
		ttl:        opts.TTL,
		clock:      opts.Clock,
		log:        opts.Logger.WithField("component", "session_store"),
		locks:      keylock.New(),
		byPlayer:   make(map[string]*entities.Session),
		byID:       make(map[string]string),
		tombstones: make(map[string]tombstone),
	}
}

// Create opens a session in Created for playerID, or fails with
// ALREADY_ACTIVE if the player has a session that is not terminal
func (s *Store) Create(ctx context.Context, sessionID, playerID string, kind entities.GameKind, escrow int64, sel entities.Selections) (*entities.Session, error) {
	unlock := s.locks.Lock(playerID)
	defer unlock()

	s.mu.RLock()
	existing, active := s.byPlayer[playerID]
	s.mu.RUnlock()
	if active && !existing.Phase.IsTerminal() {
		return nil, types.AlreadyActive(playerID)
	}

	now := s.clock.Now()
	session := &entities.Session{
		ID:         sessionID,
		PlayerID:   playerID,
		Game:       kind,
		Phase:      entities.PhaseCreated,
		Escrow:     escrow,
		Selections: sel.Clone(),
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
		UpdatedAt:  now,
	}

	if err := s.persist(ctx, session); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.byPlayer[playerID] = session
	s.byID[sessionID] = playerID
	s.mu.Unlock()

	return session.Clone(), nil
}

// Get returns a copy of the player's active session
func (s *Store) Get(playerID string) (*entities.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.byPlayer[playerID]
	if !ok {
		return nil, types.NotFound("active game for", playerID)
	}
	return session.Clone(), nil
}

// GetByID returns a copy of the session. A terminated session reports
// INVALID_TRANSITION naming its final phase.
func (s *Store) GetByID(sessionID string) (*entities.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if playerID, ok := s.byID[sessionID]; ok {
		return s.byPlayer[playerID].Clone(), nil
	}
	if t, ok := s.tombstones[sessionID]; ok {
		return nil, types.InvalidTransition("that game is already %s", phaseWord(t.phase))
	}
	return nil, types.NotFound("game", sessionID)
}

// Tombstone reports the final phase and owner of a terminated session
func (s *Store) Tombstone(sessionID string) (entities.Phase, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tombstones[sessionID]
	return t.phase, t.playerID, ok
}

// Mutate applies fn to a copy of the session, persists the copy and only
// then makes it visible. If fn or the write fails nothing changes.
func (s *Store) Mutate(ctx context.Context, sessionID string, fn func(session *entities.Session) error) (*entities.Session, error) {
	current, err := s.GetByID(sessionID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(current.PlayerID)
	defer unlock()

	// Re-read under the player lock
	current, err = s.GetByID(sessionID)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = s.clock.Now()

	if err := s.persist(ctx, next); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.byPlayer[next.PlayerID] = next
	s.mu.Unlock()

	return next.Clone(), nil
}

// Remove drops a session that reached final, leaving a tombstone. The
// in-memory removal always happens; a failed snapshot delete is returned
// so the caller can log it.
func (s *Store) Remove(ctx context.Context, sessionID string, final entities.Phase) error {
	if !final.IsTerminal() {
		return types.InvalidTransition("cannot remove a session that is %s", phaseWord(final))
	}

	s.mu.RLock()
	playerID, ok := s.byID[sessionID]
	s.mu.RUnlock()
	if !ok {
		return types.NotFound("game", sessionID)
	}

	unlock := s.locks.Lock(playerID)
	defer unlock()

	s.mu.Lock()
	if _, ok := s.byID[sessionID]; !ok {
		s.mu.Unlock()
		return types.NotFound("game", sessionID)
	}
	delete(s.byID, sessionID)
	delete(s.byPlayer, playerID)
	s.tombstones[sessionID] = tombstone{playerID: playerID, phase: final, at: s.clock.Now()}
	s.mu.Unlock()

	if s.kv == nil {
		return nil
	}
	if err := s.kv.Delete(ctx, storage.Key(namespace, sessionID)); err != nil {
		return types.StorageFailure("delete session snapshot", err)
	}
	return nil
}

// SweepExpired returns the IDs of open sessions whose deadline has passed
func (s *Store) SweepExpired() []string {
	now := s.clock.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	expired := make([]string, 0)
	for _, session := range s.byPlayer {
		if session.IsExpired(now) {
			expired = append(expired, session.ID)
		}
	}
	return expired
}

// PruneTombstones forgets terminated sessions older than maxAge
func (s *Store) PruneTombstones(maxAge time.Duration) int {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, t := range s.tombstones {
		if now.Sub(t.at) >= maxAge {
			delete(s.tombstones, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of open sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byPlayer)
}

// Restore reloads open sessions from the KV store, typically at startup.
// Expired ones are left for the sweep so their escrow gets refunded.
func (s *Store) Restore(ctx context.Context) (int, error) {
	if s.kv == nil {
		return 0, nil
	}

	keys, err := s.kv.List(ctx, namespace+":")
	if err != nil {
		return 0, types.StorageFailure("list sessions", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	restored := 0
	for _, key := range keys {
		data, err := s.kv.Read(ctx, key)
		if err != nil {
			s.log.Warn("Skipping session snapshot %s: %v", key, err)
			continue
		}

		var session entities.Session
		if err := json.Unmarshal(data, &session); err != nil {
			s.log.Warn("Skipping corrupt session snapshot %s: %v", key, err)
			continue
		}
		if session.Phase.IsTerminal() {
			continue
		}
		if existing, ok := s.byPlayer[session.PlayerID]; ok && existing.ID != session.ID {
			s.log.Error("Player %s has two open sessions %s and %s, keeping the first", session.PlayerID, existing.ID, session.ID)
			continue
		}

		s.byPlayer[session.PlayerID] = &session
		s.byID[session.ID] = session.PlayerID
		restored++
	}
	return restored, nil
}

func (s *Store) persist(ctx context.Context, session *entities.Session) error {
	if s.kv == nil {
		return nil
	}
	data, err := json.Marshal(session)
	if err != nil {
		return types.WrapError(types.ErrInternalError, "encode session", err)
	}
	if err := s.kv.Write(ctx, storage.Key(namespace, session.ID), data); err != nil {
		return types.StorageFailure(fmt.Sprintf("save session %s", session.ID), err)
	}
	return nil
}

func phaseWord(phase entities.Phase) string {
	switch phase {
	case entities.PhaseSettled:
		return "settled"
	case entities.PhaseCancelled:
		return "cancelled"
	case entities.PhaseExpired:
		return "expired"
	case entities.PhaseResolving:
		return "resolving"
	default:
		return "open"
	}
}
