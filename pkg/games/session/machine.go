package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fadedpez/tucocasino/internal/games"
	"github.com/fadedpez/tucocasino/internal/logging"
	"github.com/fadedpez/tucocasino/internal/types"
	"github.com/fadedpez/tucocasino/pkg/clock"
	"github.com/fadedpez/tucocasino/pkg/entities"
	"github.com/fadedpez/tucocasino/pkg/keylock"
	"github.com/fadedpez/tucocasino/pkg/repositories/history"
	sessionRepo "github.com/fadedpez/tucocasino/pkg/repositories/session"
	"github.com/fadedpez/tucocasino/pkg/rng"
	"github.com/fadedpez/tucocasino/pkg/services/cooldown"
	"github.com/fadedpez/tucocasino/pkg/services/ledger"
	"github.com/fadedpez/tucocasino/pkg/services/payout"
	"github.com/google/uuid"
)

// Ledger references. One settle reference per session covers payout,
// cancel and expiry alike, so at most one of them can ever be credited.
func escrowRef(sessionID string) string         { return "escrow:" + sessionID }
func escrowReversalRef(sessionID string) string { return "escrow-reversal:" + sessionID }
func settleRef(sessionID string) string         { return "settle:" + sessionID }

// Options configures a Machine
type Options struct {
	Clock  clock.Clock
	Rng    rng.Source
	Logger *logging.Logger

	Gate        *cooldown.Gate // nil disables the bet cooldown
	BetCooldown time.Duration

	MinBet int64
	MaxBet int64 // 0 means no upper limit

	History history.Repository // optional settlement history
}

// Result is what an action did to the player's session
type Result struct {
	Session *entities.Session
	Phase   entities.Phase
	Outcome *entities.Outcome // set once resolved
	Payout  int64             // credited by this action, refunds included
	Balance int64             // player's balance after the action
}

// Settled reports whether the action closed the session
func (r *Result) Settled() bool {
	return r.Phase.IsTerminal()
}

// Machine drives wagering sessions through their phases. Every action for
// a player runs under that player's lock, and a phase only advances once
// the ledger and store writes behind it have succeeded.
type Machine struct {
	store    *sessionRepo.Store
	ledger   ledger.LedgerService
	registry *games.Registry
	resolver *payout.Resolver
	history  history.Repository

	clock       clock.Clock
	rng         rng.Source
	log         *logging.Logger
	gate        *cooldown.Gate
	betCooldown time.Duration
	minBet      int64
	maxBet      int64

	locks *keylock.Locker
}

// NewMachine creates a state machine over the given collaborators
func NewMachine(store *sessionRepo.Store, ledgerService ledger.LedgerService, registry *games.Registry, opts Options) *Machine {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Rng == nil {
		opts.Rng = rng.New()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default
	}
	if opts.MinBet <= 0 {
		opts.MinBet = 1
	}
	return &Machine{
		store:       store,
		ledger:      ledgerService,
		registry:    registry,
		resolver:    payout.NewResolver(registry),
		history:     opts.History,
		clock:       opts.Clock,
		rng:         opts.Rng,
		log:         opts.Logger.WithField("component", "session_machine"),
		gate:        opts.Gate,
		betCooldown: opts.BetCooldown,
		minBet:      opts.MinBet,
		maxBet:      opts.MaxBet,
		locks:       keylock.New(),
	}
}

// PlaceBet escrows amount and opens a session. Games that auto-play
// resolve in the same call when sel is already complete.
func (m *Machine) PlaceBet(ctx context.Context, playerID string, kind entities.GameKind, amount int64, sel entities.Selections) (*Result, error) {
	if playerID == "" {
		return nil, types.InvalidArgument("player id is required")
	}
	if amount < m.minBet {
		return nil, types.InvalidArgument("minimum bet is %d", m.minBet)
	}
	if m.maxBet > 0 && amount > m.maxBet {
		return nil, types.InvalidArgument("maximum bet is %d", m.maxBet)
	}

	game, err := m.registry.GetGame(kind)
	if err != nil {
		return nil, err
	}
	if err := game.Validate(sel); err != nil {
		return nil, err
	}

	unlock := m.locks.Lock(playerID)
	defer unlock()

	if active, err := m.store.Get(playerID); err == nil {
		// A session past its deadline is closed here rather than waiting for the sweep
		expired, err := m.expireDue(ctx, active)
		if err != nil {
			return nil, err
		}
		if !expired {
			return nil, types.AlreadyActive(playerID)
		}
	}

	if m.gate != nil {
		if err := m.gate.TryAcquire(playerID, cooldown.ActionBet, m.betCooldown); err != nil {
			return nil, err
		}
	}

	sessionID := uuid.NewString()
	logger := m.log.WithFields(map[string]interface{}{
		"player":  playerID,
		"session": sessionID,
		"game":    kind,
	})

	balance, err := m.ledger.Debit(ctx, playerID, amount, ledger.Memo{
		Type:        entities.TransactionTypeBet,
		Reference:   escrowRef(sessionID),
		Description: fmt.Sprintf("%s bet", kind),
	})
	if err != nil {
		// Nothing was taken, so the attempt should not cost a cooldown
		if m.gate != nil {
			m.gate.Reset(playerID, cooldown.ActionBet)
		}
		return nil, err
	}

	session, err := m.store.Create(ctx, sessionID, playerID, kind, amount, sel)
	if err != nil {
		m.reverseEscrow(ctx, logger, playerID, sessionID, amount)
		if m.gate != nil {
			m.gate.Reset(playerID, cooldown.ActionBet)
		}
		return nil, err
	}
	logger.Info("Escrowed %d, balance %d", amount, balance)

	if game.AutoPlay() && game.Ready(session.Selections) {
		return m.resolve(ctx, session)
	}

	updated, err := m.store.Mutate(ctx, sessionID, func(s *entities.Session) error {
		s.Phase = entities.PhaseAwaitingInput
		return nil
	})
	if err != nil {
		// Created accepts the same actions, so the bet stands
		logger.Warn("Session stays in %s: %v", entities.PhaseCreated, err)
		updated = session
	}

	return &Result{Session: updated, Phase: updated.Phase, Balance: balance}, nil
}

// reverseEscrow returns a debit whose session could not be stored
func (m *Machine) reverseEscrow(ctx context.Context, logger *logging.Logger, playerID, sessionID string, amount int64) {
	_, err := m.ledger.Credit(ctx, playerID, amount, ledger.Memo{
		Type:        entities.TransactionTypeRefund,
		Reference:   escrowReversalRef(sessionID),
		Description: "bet could not be opened",
	})
	if err != nil {
		logger.Error("Failed to reverse escrow of %d: %v", amount, err)
		return
	}
	logger.Warn("Reversed escrow of %d after session create failed", amount)
}

// SelectOption applies one choice or number toggle to the player's open
// session. An empty sessionID means the player's active session.
func (m *Machine) SelectOption(ctx context.Context, playerID, sessionID, option string) (*Result, error) {
	unlock := m.locks.Lock(playerID)
	defer unlock()

	session, err := m.lookup(playerID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := m.rejectExpired(ctx, session); err != nil {
		return nil, err
	}
	if !acceptsInput(session.Phase) {
		return nil, types.InvalidTransition("that game is %s and takes no more input", phaseWord(session.Phase))
	}

	game, err := m.registry.GetGame(session.Game)
	if err != nil {
		return nil, err
	}
	next, err := game.Apply(session.Selections, option)
	if err != nil {
		return nil, err
	}

	updated, err := m.store.Mutate(ctx, session.ID, func(s *entities.Session) error {
		s.Selections = next
		s.Phase = entities.PhaseAwaitingInput
		return nil
	})
	if err != nil {
		return nil, err
	}

	if game.AutoPlay() && game.Ready(updated.Selections) {
		return m.resolve(ctx, updated)
	}
	return m.openResult(ctx, updated), nil
}

// ConfirmPlay resolves a session whose selection is complete. A session
// stuck in Resolving after a failed payout is settled again instead.
func (m *Machine) ConfirmPlay(ctx context.Context, playerID, sessionID string) (*Result, error) {
	unlock := m.locks.Lock(playerID)
	defer unlock()

	session, err := m.lookup(playerID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := m.rejectExpired(ctx, session); err != nil {
		return nil, err
	}

	switch session.Phase {
	case entities.PhaseResolving:
		return m.settle(ctx, session)
	case entities.PhaseCreated, entities.PhaseAwaitingInput:
	default:
		return nil, types.InvalidTransition("that game is already %s", phaseWord(session.Phase))
	}

	game, err := m.registry.GetGame(session.Game)
	if err != nil {
		return nil, err
	}
	if !game.Ready(session.Selections) {
		return nil, types.InvalidTransition("your selection is not complete yet")
	}
	return m.resolve(ctx, session)
}

// Cancel refunds the escrow of a session that has not started resolving
func (m *Machine) Cancel(ctx context.Context, playerID, sessionID string) (*Result, error) {
	unlock := m.locks.Lock(playerID)
	defer unlock()

	session, err := m.lookup(playerID, sessionID)
	if err != nil {
		return nil, err
	}
	if !acceptsInput(session.Phase) {
		return nil, types.InvalidTransition("that game is %s and can no longer be cancelled", phaseWord(session.Phase))
	}
	if session.IsExpired(m.clock.Now()) {
		return m.refund(ctx, session, entities.PhaseExpired)
	}
	return m.refund(ctx, session, entities.PhaseCancelled)
}

// Settle completes the Resolving -> Settled transition for sessionID.
// Only the first call pays; later calls fail with INVALID_TRANSITION.
func (m *Machine) Settle(ctx context.Context, sessionID string) (*Result, error) {
	peek, err := m.store.GetByID(sessionID)
	if err != nil {
		return nil, err
	}

	unlock := m.locks.Lock(peek.PlayerID)
	defer unlock()

	session, err := m.store.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Phase != entities.PhaseResolving {
		return nil, types.InvalidTransition("that game is %s, not resolving", phaseWord(session.Phase))
	}
	return m.settle(ctx, session)
}

// Expire refunds an open session past its deadline. An expired session
// left in Resolving gets its recorded outcome paid instead.
func (m *Machine) Expire(ctx context.Context, sessionID string) (*Result, error) {
	peek, err := m.store.GetByID(sessionID)
	if err != nil {
		return nil, err
	}

	unlock := m.locks.Lock(peek.PlayerID)
	defer unlock()

	session, err := m.store.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsExpired(m.clock.Now()) {
		return nil, types.InvalidTransition("that game has not expired")
	}
	return m.closeExpired(ctx, session)
}

// SweepExpired expires every session past its deadline. Failed sessions
// stay in the store and are retried on the next sweep.
func (m *Machine) SweepExpired(ctx context.Context) (int, error) {
	var (
		expired int
		errs    []error
	)
	for _, sessionID := range m.store.SweepExpired() {
		if _, err := m.Expire(ctx, sessionID); err != nil {
			// Resolved or cancelled since the scan
			if types.IsGameError(err, types.ErrInvalidTransition) || types.IsGameError(err, types.ErrNotFound) {
				continue
			}
			errs = append(errs, fmt.Errorf("expire %s: %w", sessionID, err))
			continue
		}
		expired++
	}
	if expired > 0 {
		m.log.Info("Swept %d expired sessions", expired)
	}
	return expired, errors.Join(errs...)
}

// Restore reloads sessions persisted before a restart
func (m *Machine) Restore(ctx context.Context) (int, error) {
	return m.store.Restore(ctx)
}

// PruneTombstones forgets terminated sessions older than maxAge
func (m *Machine) PruneTombstones(maxAge time.Duration) int {
	return m.store.PruneTombstones(maxAge)
}

// ActiveSession returns the player's open session
func (m *Machine) ActiveSession(playerID string) (*entities.Session, error) {
	return m.store.Get(playerID)
}

// Balance returns the player's current balance
func (m *Machine) Balance(ctx context.Context, playerID string) (int64, error) {
	return m.ledger.GetBalance(ctx, playerID)
}

// Registry exposes the playable games
func (m *Machine) Registry() *games.Registry {
	return m.registry
}

// resolve draws the outcome, records it with the Resolving phase, then settles
func (m *Machine) resolve(ctx context.Context, session *entities.Session) (*Result, error) {
	outcome, err := m.resolver.Resolve(session.Game, session.Selections, session.Escrow, m.rng)
	if err != nil {
		return nil, err
	}

	resolving, err := m.store.Mutate(ctx, session.ID, func(s *entities.Session) error {
		if !acceptsInput(s.Phase) {
			return types.InvalidTransition("that game is already %s", phaseWord(s.Phase))
		}
		s.Phase = entities.PhaseResolving
		s.Outcome = outcome
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m.settle(ctx, resolving)
}

// settle credits the recorded outcome and closes the session. The caller
// must hold the player's lock and session must be Resolving.
func (m *Machine) settle(ctx context.Context, session *entities.Session) (*Result, error) {
	outcome := session.Outcome
	if outcome == nil {
		return nil, types.NewGameError(types.ErrInternalError, "resolving session has no outcome")
	}

	logger := m.log.WithFields(map[string]interface{}{
		"player":  session.PlayerID,
		"session": session.ID,
		"game":    session.Game,
	})

	var (
		balance int64
		err     error
	)
	if outcome.Payout > 0 {
		balance, err = m.ledger.Credit(ctx, session.PlayerID, outcome.Payout, ledger.Memo{
			Type:        entities.TransactionTypePayout,
			Reference:   settleRef(session.ID),
			Description: outcome.Detail,
		})
		if err != nil {
			logger.Error("Payout of %d failed, session stays resolving: %v", outcome.Payout, err)
			return nil, err
		}
	} else {
		balance = m.currentBalance(ctx, logger, session.PlayerID)
	}

	closed := m.close(ctx, logger, session, entities.PhaseSettled, outcome.Payout)
	logger.Info("Settled %s x%s, paid %d", outcome.Result, outcome.Multiplier.String(), outcome.Payout)

	return &Result{
		Session: closed,
		Phase:   entities.PhaseSettled,
		Outcome: outcome,
		Payout:  outcome.Payout,
		Balance: balance,
	}, nil
}

// refund returns the full escrow and closes the session as final
func (m *Machine) refund(ctx context.Context, session *entities.Session, final entities.Phase) (*Result, error) {
	logger := m.log.WithFields(map[string]interface{}{
		"player":  session.PlayerID,
		"session": session.ID,
		"game":    session.Game,
	})

	balance, err := m.ledger.Credit(ctx, session.PlayerID, session.Escrow, ledger.Memo{
		Type:        entities.TransactionTypeRefund,
		Reference:   settleRef(session.ID),
		Description: fmt.Sprintf("%s bet %s", session.Game, phaseWord(final)),
	})
	if err != nil {
		logger.Error("Refund of %d failed, session stays %s: %v", session.Escrow, session.Phase, err)
		return nil, err
	}

	closed := m.close(ctx, logger, session, final, session.Escrow)
	logger.Info("Refunded %d, session %s", session.Escrow, phaseWord(final))

	return &Result{
		Session: closed,
		Phase:   final,
		Payout:  session.Escrow,
		Balance: balance,
	}, nil
}

// close runs after the ledger write succeeded, so its failures are logged
// rather than returned: the money has already moved
func (m *Machine) close(ctx context.Context, logger *logging.Logger, session *entities.Session, final entities.Phase, paid int64) *entities.Session {
	if err := m.store.Remove(ctx, session.ID, final); err != nil {
		logger.Error("Failed to remove session snapshot: %v", err)
	}

	closed := session.Clone()
	closed.Phase = final
	closed.UpdatedAt = m.clock.Now()

	if m.history != nil {
		record := entities.NewSettlementRecord(uuid.NewString(), closed, paid, closed.UpdatedAt)
		if err := m.history.Record(ctx, record); err != nil {
			logger.Warn("Failed to record settlement history: %v", err)
		}
	}
	return closed
}

func (m *Machine) currentBalance(ctx context.Context, logger *logging.Logger, playerID string) int64 {
	balance, err := m.ledger.GetBalance(ctx, playerID)
	if err != nil {
		logger.Warn("Failed to read balance: %v", err)
	}
	return balance
}

// closeExpired refunds an open session past its deadline, or pays the
// recorded outcome of one left in Resolving
func (m *Machine) closeExpired(ctx context.Context, session *entities.Session) (*Result, error) {
	if session.Phase == entities.PhaseResolving {
		return m.settle(ctx, session)
	}
	return m.refund(ctx, session, entities.PhaseExpired)
}

// expireDue closes session if its deadline has passed and reports whether it did
func (m *Machine) expireDue(ctx context.Context, session *entities.Session) (bool, error) {
	if !session.IsExpired(m.clock.Now()) {
		return false, nil
	}
	if _, err := m.closeExpired(ctx, session); err != nil {
		return false, err
	}
	return true, nil
}

// rejectExpired closes an open session past its deadline and turns the
// action away. Resolving sessions are left to their own settle path.
func (m *Machine) rejectExpired(ctx context.Context, session *entities.Session) error {
	if !acceptsInput(session.Phase) {
		return nil
	}
	expired, err := m.expireDue(ctx, session)
	if err != nil {
		return err
	}
	if expired {
		return types.InvalidTransition("that game expired, your bet of %d was refunded", session.Escrow)
	}
	return nil
}

// lookup finds the session an action targets and checks the actor owns it
func (m *Machine) lookup(playerID, sessionID string) (*entities.Session, error) {
	if sessionID == "" {
		return m.store.Get(playerID)
	}

	session, err := m.store.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session.PlayerID != playerID {
		return nil, types.InvalidTransition("that game belongs to another player")
	}
	return session, nil
}

func (m *Machine) openResult(ctx context.Context, session *entities.Session) *Result {
	balance := m.currentBalance(ctx, m.log.WithField("player", session.PlayerID), session.PlayerID)
	return &Result{Session: session, Phase: session.Phase, Balance: balance}
}

func acceptsInput(phase entities.Phase) bool {
	return phase == entities.PhaseCreated || phase == entities.PhaseAwaitingInput
}

func phaseWord(phase entities.Phase) string {
	switch phase {
	case entities.PhaseCreated:
		return "open"
	case entities.PhaseAwaitingInput:
		return "waiting for input"
	case entities.PhaseResolving:
		return "resolving"
	case entities.PhaseSettled:
		return "settled"
	case entities.PhaseCancelled:
		return "cancelled"
	case entities.PhaseExpired:
		return "expired"
	default:
		return string(phase)
	}
}
