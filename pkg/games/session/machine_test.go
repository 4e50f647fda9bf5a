package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/fadedpez/tucocasino/internal/games"
	"github.com/fadedpez/tucocasino/internal/logging"
	"github.com/fadedpez/tucocasino/internal/types"
	"github.com/fadedpez/tucocasino/pkg/clock"
	"github.com/fadedpez/tucocasino/pkg/entities"
	"github.com/fadedpez/tucocasino/pkg/repositories/history"
	sessionRepo "github.com/fadedpez/tucocasino/pkg/repositories/session"
	walletRepo "github.com/fadedpez/tucocasino/pkg/repositories/wallet"
	"github.com/fadedpez/tucocasino/pkg/rng"
	"github.com/fadedpez/tucocasino/pkg/services/cooldown"
	"github.com/fadedpez/tucocasino/pkg/services/ledger"
	mock_ledger "github.com/fadedpez/tucocasino/pkg/services/ledger/mock"
	"github.com/fadedpez/tucocasino/pkg/services/payout"
	"github.com/fadedpez/tucocasino/pkg/storage"
	"github.com/fadedpez/tucocasino/pkg/storage/memory"
	mock_storage "github.com/fadedpez/tucocasino/pkg/storage/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

const (
	player   = "player1"
	opponent = "player2"
	goldSlot = 38 // last slot of the flattened wheel
)

var quietLogger = logging.NewLoggerWithOutput(logging.ERROR, io.Discard)

func newRegistry(t *testing.T) *games.Registry {
	registry := games.NewRegistry()
	require.NoError(t, payout.RegisterAll(registry))
	return registry
}

type MachineTestSuite struct {
	suite.Suite
	ctx     context.Context
	clock   *clock.Fake
	rng     *rng.Fake
	kv      *memory.Store
	ledger  *ledger.Ledger
	store   *sessionRepo.Store
	history *history.MemoryRepository
	machine *Machine
}

func TestMachineSuite(t *testing.T) {
	suite.Run(t, new(MachineTestSuite))
}

func (s *MachineTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = clock.NewFake(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.rng = rng.NewFake()
	s.history = history.NewMemoryRepository()

	s.kv = memory.New()
	s.ledger = ledger.NewLedger(walletRepo.NewStoreRepository(s.kv), ledger.Options{
		StartingBalance: 1000,
		Clock:           s.clock,
		Logger:          quietLogger,
	})
	s.store = sessionRepo.NewStore(s.kv, sessionRepo.Options{
		TTL:    2 * time.Minute,
		Clock:  s.clock,
		Logger: quietLogger,
	})
	s.machine = NewMachine(s.store, s.ledger, newRegistry(s.T()), Options{
		Clock:       s.clock,
		Rng:         s.rng,
		Logger:      quietLogger,
		Gate:        cooldown.NewGate(s.clock),
		BetCooldown: 3 * time.Second,
		MinBet:      10,
		MaxBet:      10000,
		History:     s.history,
	})
}

func (s *MachineTestSuite) balance(playerID string) int64 {
	balance, err := s.ledger.GetBalance(s.ctx, playerID)
	s.Require().NoError(err)
	return balance
}

func (s *MachineTestSuite) openKeno(amount int64) *Result {
	result, err := s.machine.PlaceBet(s.ctx, player, entities.GameKeno, amount, entities.Selections{})
	s.Require().NoError(err)
	s.Require().Equal(entities.PhaseAwaitingInput, result.Phase)
	return result
}

func (s *MachineTestSuite) pick(numbers ...string) {
	for _, n := range numbers {
		_, err := s.machine.SelectOption(s.ctx, player, "", n)
		s.Require().NoError(err)
	}
}

func (s *MachineTestSuite) TestWheelGoldWins() {
	// Setup
	s.rng.Push(goldSlot)

	// Execute
	result, err := s.machine.PlaceBet(s.ctx, player, entities.GameWheel, 100, entities.Selections{Choice: "gold"})

	// Assert
	s.Require().NoError(err)
	s.Equal(entities.PhaseSettled, result.Phase)
	s.True(result.Settled())
	s.Equal(entities.ResultWin, result.Outcome.Result)
	s.Equal(int64(5000), result.Payout)
	s.Equal(int64(5900), result.Balance)
	s.Equal(int64(5900), s.balance(player))
	s.Equal(0, s.store.Len(), "Session should be removed once settled")

	records, err := s.history.ListByPlayer(s.ctx, player, 0)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(entities.ResultWin, records[0].Result)
	s.Equal(int64(4900), records[0].Net())
}

func (s *MachineTestSuite) TestWheelLoss() {
	result, err := s.machine.PlaceBet(s.ctx, player, entities.GameWheel, 100, entities.Selections{Choice: "gold"})

	s.Require().NoError(err)
	s.Equal(entities.ResultLose, result.Outcome.Result)
	s.Equal(int64(0), result.Payout)
	s.Equal(int64(900), result.Balance)
	s.Equal(0, s.store.Len())
}

func (s *MachineTestSuite) TestChoiceGameWithoutChoiceWaitsForInput() {
	result, err := s.machine.PlaceBet(s.ctx, player, entities.GameCoinflip, 50, entities.Selections{})
	s.Require().NoError(err)
	s.Equal(entities.PhaseAwaitingInput, result.Phase)

	// Picking a side completes the selection and plays at once
	result, err = s.machine.SelectOption(s.ctx, player, "", "heads")
	s.Require().NoError(err)
	s.Equal(entities.PhaseSettled, result.Phase)
}

func (s *MachineTestSuite) TestCancelRefundsInFull() {
	s.openKeno(100)
	s.Equal(int64(900), s.balance(player))

	result, err := s.machine.Cancel(s.ctx, player, "")

	s.Require().NoError(err)
	s.Equal(entities.PhaseCancelled, result.Phase)
	s.Equal(int64(100), result.Payout)
	s.Equal(int64(1000), s.balance(player))
	s.Equal(0, s.store.Len())

	records, _ := s.history.ListByPlayer(s.ctx, player, 0)
	s.Require().Len(records, 1)
	s.Equal(entities.ResultRefund, records[0].Result)
	s.Equal(entities.PhaseCancelled, records[0].Phase)
}

func (s *MachineTestSuite) TestSecondBetWhileActiveIsRejected() {
	s.openKeno(100)
	s.clock.Advance(time.Minute)

	_, err := s.machine.PlaceBet(s.ctx, player, entities.GameWheel, 100, entities.Selections{Choice: "red"})

	s.True(types.IsGameError(err, types.ErrAlreadyActive))
	s.Equal(int64(900), s.balance(player), "No second escrow")
}

func (s *MachineTestSuite) TestKenoThreeMatchesPaysDouble() {
	// Fake draws of zero deal 1..10
	s.openKeno(200)
	s.pick("1", "2", "3", "20", "30")

	result, err := s.machine.ConfirmPlay(s.ctx, player, "")

	s.Require().NoError(err)
	s.Equal(entities.PhaseSettled, result.Phase)
	s.Equal(int64(400), result.Payout)
	s.Equal(int64(1200), s.balance(player))
}

func (s *MachineTestSuite) TestKenoSelectionRules() {
	opened := s.openKeno(100)
	s.pick("1", "2", "3", "4", "5")

	_, err := s.machine.SelectOption(s.ctx, player, opened.Session.ID, "6")
	s.True(types.IsGameError(err, types.ErrInvalidTransition), "Selection is complete")

	// Unpicking frees a slot
	result, err := s.machine.SelectOption(s.ctx, player, opened.Session.ID, "5")
	s.Require().NoError(err)
	s.Equal([]int{1, 2, 3, 4}, result.Session.Selections.Numbers)
	s.Equal(entities.PhaseAwaitingInput, result.Phase)

	_, err = s.machine.ConfirmPlay(s.ctx, player, "")
	s.True(types.IsGameError(err, types.ErrInvalidTransition), "Four picks cannot play")
}

func (s *MachineTestSuite) TestOtherPlayerCannotTouchSession() {
	opened := s.openKeno(100)

	_, err := s.machine.SelectOption(s.ctx, opponent, opened.Session.ID, "7")
	s.True(types.IsGameError(err, types.ErrInvalidTransition))

	_, err = s.machine.Cancel(s.ctx, opponent, opened.Session.ID)
	s.True(types.IsGameError(err, types.ErrInvalidTransition))

	_, err = s.machine.Cancel(s.ctx, opponent, "")
	s.True(types.IsGameError(err, types.ErrNotFound))

	active, err := s.machine.ActiveSession(player)
	s.Require().NoError(err)
	s.Empty(active.Selections.Numbers)
	s.Equal(int64(900), s.balance(player))
}

func (s *MachineTestSuite) TestActionsOnClosedSession() {
	opened := s.openKeno(100)
	_, err := s.machine.Cancel(s.ctx, player, opened.Session.ID)
	s.Require().NoError(err)

	_, err = s.machine.Cancel(s.ctx, player, opened.Session.ID)
	s.True(types.IsGameError(err, types.ErrInvalidTransition))

	_, err = s.machine.ConfirmPlay(s.ctx, player, opened.Session.ID)
	s.True(types.IsGameError(err, types.ErrInvalidTransition))

	_, err = s.machine.Cancel(s.ctx, player, "")
	s.True(types.IsGameError(err, types.ErrNotFound))

	_, err = s.machine.Settle(s.ctx, "no-such-session")
	s.True(types.IsGameError(err, types.ErrNotFound))

	s.Equal(int64(1000), s.balance(player), "Refund applied once")
}

func (s *MachineTestSuite) TestSettleRequiresResolving() {
	opened := s.openKeno(100)

	_, err := s.machine.Settle(s.ctx, opened.Session.ID)

	s.True(types.IsGameError(err, types.ErrInvalidTransition))
	s.Equal(int64(900), s.balance(player))
}

func (s *MachineTestSuite) TestInsufficientFundsOpensNothing() {
	_, err := s.machine.PlaceBet(s.ctx, player, entities.GameWheel, 5000, entities.Selections{Choice: "red"})

	var gameErr *types.GameError
	s.Require().True(types.As(err, &gameErr))
	s.Equal(types.ErrInsufficientFunds, gameErr.Code)
	s.Equal(int64(5000), gameErr.Needed)
	s.Equal(int64(1000), gameErr.Balance)
	s.Equal(0, s.store.Len())

	// The failed attempt does not start a cooldown
	_, err = s.machine.PlaceBet(s.ctx, player, entities.GameWheel, 100, entities.Selections{Choice: "red"})
	s.NoError(err)
}

func (s *MachineTestSuite) TestBetCooldown() {
	_, err := s.machine.PlaceBet(s.ctx, player, entities.GameWheel, 100, entities.Selections{Choice: "red"})
	s.Require().NoError(err)

	_, err = s.machine.PlaceBet(s.ctx, player, entities.GameWheel, 100, entities.Selections{Choice: "red"})
	var gameErr *types.GameError
	s.Require().True(types.As(err, &gameErr))
	s.Equal(types.ErrCooldownActive, gameErr.Code)
	s.Equal(3*time.Second, gameErr.Remaining)

	s.clock.Advance(3 * time.Second)
	_, err = s.machine.PlaceBet(s.ctx, player, entities.GameWheel, 100, entities.Selections{Choice: "red"})
	s.NoError(err)

	// Cooldowns are per player
	_, err = s.machine.PlaceBet(s.ctx, opponent, entities.GameWheel, 100, entities.Selections{Choice: "red"})
	s.NoError(err)
}

func (s *MachineTestSuite) TestBetValidation() {
	testCases := []struct {
		name   string
		kind   entities.GameKind
		amount int64
		sel    entities.Selections
		code   types.ErrorCode
	}{
		{name: "below minimum", kind: entities.GameWheel, amount: 5, sel: entities.Selections{Choice: "red"}, code: types.ErrInvalidArgument},
		{name: "above maximum", kind: entities.GameWheel, amount: 20000, sel: entities.Selections{Choice: "red"}, code: types.ErrInvalidArgument},
		{name: "negative", kind: entities.GameWheel, amount: -100, code: types.ErrInvalidArgument},
		{name: "unknown game", kind: "roulette", amount: 100, code: types.ErrNotFound},
		{name: "bad choice", kind: entities.GameWheel, amount: 100, sel: entities.Selections{Choice: "purple"}, code: types.ErrInvalidArgument},
		{name: "keno out of range", kind: entities.GameKeno, amount: 100, sel: entities.Selections{Numbers: []int{41}}, code: types.ErrInvalidArgument},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := s.machine.PlaceBet(s.ctx, player, tc.kind, tc.amount, tc.sel)
			s.True(types.IsGameError(err, tc.code), "got %v", err)
		})
	}
	s.Equal(int64(1000), s.balance(player))
	s.Equal(0, s.store.Len())
}

func (s *MachineTestSuite) TestSweepRefundsExpiredSessions() {
	s.openKeno(100)
	s.pick("1", "2")

	s.clock.Advance(time.Minute)
	expired, err := s.machine.SweepExpired(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, expired, "Not yet past the deadline")

	s.clock.Advance(time.Minute)
	expired, err = s.machine.SweepExpired(s.ctx)

	s.Require().NoError(err)
	s.Equal(1, expired)
	s.Equal(int64(1000), s.balance(player), "Balance is back to where it was before the bet")
	s.Equal(0, s.store.Len())

	records, _ := s.history.ListByPlayer(s.ctx, player, 0)
	s.Require().Len(records, 1)
	s.Equal(entities.PhaseExpired, records[0].Phase)

	// A late action sees the expired session
	_, err = s.machine.ConfirmPlay(s.ctx, player, records[0].SessionID)
	s.True(types.IsGameError(err, types.ErrInvalidTransition))
}

func (s *MachineTestSuite) TestLateSelectionExpiresSession() {
	// Setup
	opened := s.openKeno(100)
	s.pick("1", "2", "3", "4")
	s.clock.Advance(10 * time.Minute)

	// Execute
	_, err := s.machine.SelectOption(s.ctx, player, "", "5")

	// Assert
	var gameErr *types.GameError
	s.Require().True(types.As(err, &gameErr))
	s.Equal(types.ErrInvalidTransition, gameErr.Code)
	s.Contains(gameErr.Message, "expired")
	s.Equal(int64(1000), s.balance(player), "The stake is refunded, not lost")
	s.Equal(0, s.store.Len())

	records, _ := s.history.ListByPlayer(s.ctx, player, 0)
	s.Require().Len(records, 1)
	s.Equal(entities.PhaseExpired, records[0].Phase)

	_, err = s.machine.ConfirmPlay(s.ctx, player, opened.Session.ID)
	s.True(types.IsGameError(err, types.ErrInvalidTransition))
	s.Equal(int64(1000), s.balance(player))
}

func (s *MachineTestSuite) TestLateConfirmRefundsInsteadOfPaying() {
	s.openKeno(100)
	s.pick("1", "2", "3", "4", "5") // the fake draw would hit all five
	s.clock.Advance(2 * time.Minute)

	_, err := s.machine.ConfirmPlay(s.ctx, player, "")

	s.True(types.IsGameError(err, types.ErrInvalidTransition), "got %v", err)
	s.Equal(int64(1000), s.balance(player))
	s.Equal(0, s.store.Len())
}

func (s *MachineTestSuite) TestBetAfterDeadlineReplacesStaleSession() {
	s.openKeno(100)
	s.clock.Advance(3 * time.Minute)

	result, err := s.machine.PlaceBet(s.ctx, player, entities.GameWheel, 100, entities.Selections{Choice: "red"})

	s.Require().NoError(err)
	s.Equal(entities.PhaseSettled, result.Phase)
	s.Equal(int64(1100), s.balance(player), "Stale stake refunded, new bet won")

	records, _ := s.history.ListByPlayer(s.ctx, player, 0)
	s.Require().Len(records, 2)
	phases := []entities.Phase{records[0].Phase, records[1].Phase}
	s.ElementsMatch([]entities.Phase{entities.PhaseExpired, entities.PhaseSettled}, phases)
}

func (s *MachineTestSuite) TestCancelAfterDeadlineReportsExpiry() {
	s.openKeno(100)
	s.clock.Advance(2 * time.Minute)

	result, err := s.machine.Cancel(s.ctx, player, "")

	s.Require().NoError(err)
	s.Equal(entities.PhaseExpired, result.Phase)
	s.Equal(int64(100), result.Payout)
	s.Equal(int64(1000), result.Balance)
}

func (s *MachineTestSuite) TestExpireRejectsLiveSession() {
	opened := s.openKeno(100)

	_, err := s.machine.Expire(s.ctx, opened.Session.ID)

	s.True(types.IsGameError(err, types.ErrInvalidTransition))
	s.Equal(1, s.store.Len())
}

func (s *MachineTestSuite) TestRestoreThenSweepRefundsStrandedEscrow() {
	s.openKeno(100)

	// A new process over the same storage
	restartedStore := sessionRepo.NewStore(s.kv, sessionRepo.Options{TTL: 2 * time.Minute, Clock: s.clock, Logger: quietLogger})
	restarted := NewMachine(restartedStore, s.ledger, newRegistry(s.T()), Options{Clock: s.clock, Logger: quietLogger})

	restored, err := restarted.Restore(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, restored)

	s.clock.Advance(3 * time.Minute)
	expired, err := restarted.SweepExpired(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, expired)
	s.Equal(int64(1000), s.balance(player))
}

func (s *MachineTestSuite) TestConservation() {
	src := rng.NewSeeded(42)
	s.machine.rng = src
	s.machine.gate = nil

	var wagered, paid int64
	players := []string{"a", "b", "c"}
	for round := 0; round < 20; round++ {
		for _, p := range players {
			sides := []string{"heads", "tails"}
			result, err := s.machine.PlaceBet(s.ctx, p, entities.GameCoinflip, 25, entities.Selections{Choice: sides[round%2]})
			s.Require().NoError(err)
			wagered += 25
			paid += result.Payout
		}
		s.clock.Advance(time.Second)
	}

	var total, credits, debits int64
	for _, p := range players {
		total += s.balance(p)
		txs, err := s.ledger.Transactions(s.ctx, p, 0)
		s.Require().NoError(err)
		for _, tx := range txs {
			if tx.Amount > 0 {
				credits += tx.Amount
			} else {
				debits -= tx.Amount
			}
		}
	}

	s.Equal(int64(3000)-wagered+paid, total)
	s.Equal(paid, credits)
	s.Equal(wagered, debits)
}

func (s *MachineTestSuite) TestConcurrentBetsOpenOneSession() {
	s.machine.gate = nil

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		opened int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.machine.PlaceBet(s.ctx, player, entities.GameKeno, 100, entities.Selections{})
			if err == nil {
				mu.Lock()
				opened++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(1, opened)
	s.Equal(int64(900), s.balance(player))
}

// Failure injection uses gomock ledger and storage doubles

type failureFixture struct {
	ctrl    *gomock.Controller
	ledger  *mock_ledger.MockLedgerService
	store   *sessionRepo.Store
	clock   *clock.Fake
	gate    *cooldown.Gate
	machine *Machine
}

func newFailureFixture(t *testing.T, kvStore storage.Store) *failureFixture {
	ctrl := gomock.NewController(t)
	f := &failureFixture{
		ctrl:   ctrl,
		ledger: mock_ledger.NewMockLedgerService(ctrl),
		clock:  clock.NewFake(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)),
	}
	f.gate = cooldown.NewGate(f.clock)
	f.store = sessionRepo.NewStore(kvStore, sessionRepo.Options{TTL: time.Minute, Clock: f.clock, Logger: quietLogger})
	f.machine = NewMachine(f.store, f.ledger, newRegistry(t), Options{
		Clock:       f.clock,
		Rng:         rng.NewFake(goldSlot),
		Logger:      quietLogger,
		Gate:        f.gate,
		BetCooldown: 3 * time.Second,
	})
	return f
}

func refMatcher(ref string) gomock.Matcher {
	return gomock.Cond(func(x any) bool {
		memo, ok := x.(ledger.Memo)
		return ok && memo.Reference == ref
	})
}

func TestSettleIsIdempotent(t *testing.T) {
	f := newFailureFixture(t, memory.New())
	ctx := context.Background()
	storageErr := types.StorageFailure("save wallet", errors.New("disk full"))

	f.ledger.EXPECT().Debit(gomock.Any(), player, int64(100), gomock.Any()).Return(int64(900), nil)
	// First payout attempt fails, so the session must stay resolving
	f.ledger.EXPECT().Credit(gomock.Any(), player, int64(5000), gomock.Any()).Return(int64(900), storageErr)

	_, err := f.machine.PlaceBet(ctx, player, entities.GameWheel, 100, entities.Selections{Choice: "gold"})
	require.True(t, types.IsGameError(err, types.ErrStorageFailure))

	active, err := f.machine.ActiveSession(player)
	require.NoError(t, err)
	assert.Equal(t, entities.PhaseResolving, active.Phase)
	require.NotNil(t, active.Outcome)

	// Only one successful credit is allowed from here on
	f.ledger.EXPECT().Credit(gomock.Any(), player, int64(5000), refMatcher("settle:"+active.ID)).Return(int64(5900), nil).Times(1)

	result, err := f.machine.Settle(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.PhaseSettled, result.Phase)
	assert.Equal(t, int64(5900), result.Balance)

	_, err = f.machine.Settle(ctx, active.ID)
	assert.True(t, types.IsGameError(err, types.ErrInvalidTransition))

	_, err = f.machine.ConfirmPlay(ctx, player, active.ID)
	assert.True(t, types.IsGameError(err, types.ErrInvalidTransition))
}

func TestResolvingCannotBeCancelled(t *testing.T) {
	f := newFailureFixture(t, memory.New())
	ctx := context.Background()

	f.ledger.EXPECT().Debit(gomock.Any(), player, int64(100), gomock.Any()).Return(int64(900), nil)
	f.ledger.EXPECT().Credit(gomock.Any(), player, int64(5000), gomock.Any()).Return(int64(900), types.StorageFailure("save wallet", errors.New("disk full")))

	_, err := f.machine.PlaceBet(ctx, player, entities.GameWheel, 100, entities.Selections{Choice: "gold"})
	require.Error(t, err)

	_, err = f.machine.Cancel(ctx, player, "")
	assert.True(t, types.IsGameError(err, types.ErrInvalidTransition))
}

func TestSweepRetriesResolvingPayout(t *testing.T) {
	f := newFailureFixture(t, memory.New())
	ctx := context.Background()

	f.ledger.EXPECT().Debit(gomock.Any(), player, int64(100), gomock.Any()).Return(int64(900), nil)
	f.ledger.EXPECT().Credit(gomock.Any(), player, int64(5000), gomock.Any()).Return(int64(900), types.StorageFailure("save wallet", errors.New("disk full")))

	_, err := f.machine.PlaceBet(ctx, player, entities.GameWheel, 100, entities.Selections{Choice: "gold"})
	require.Error(t, err)

	// The sweep pays the recorded outcome, it does not refund the stake
	f.ledger.EXPECT().Credit(gomock.Any(), player, int64(5000), gomock.Any()).Return(int64(5900), nil)
	f.clock.Advance(2 * time.Minute)

	expired, err := f.machine.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, 0, f.store.Len())
}

func TestRefundFailureKeepsSessionOpen(t *testing.T) {
	f := newFailureFixture(t, memory.New())
	ctx := context.Background()

	f.ledger.EXPECT().Debit(gomock.Any(), player, int64(100), gomock.Any()).Return(int64(900), nil)
	_, err := f.machine.PlaceBet(ctx, player, entities.GameKeno, 100, entities.Selections{})
	require.NoError(t, err)

	f.ledger.EXPECT().Credit(gomock.Any(), player, int64(100), gomock.Any()).Return(int64(900), types.StorageFailure("save wallet", errors.New("disk full")))
	_, err = f.machine.Cancel(ctx, player, "")
	require.True(t, types.IsGameError(err, types.ErrStorageFailure))

	active, err := f.machine.ActiveSession(player)
	require.NoError(t, err)
	assert.Equal(t, entities.PhaseAwaitingInput, active.Phase)

	// Expiry still attempts the refund
	f.ledger.EXPECT().Credit(gomock.Any(), player, int64(100), refMatcher("settle:"+active.ID)).Return(int64(1000), nil)
	f.clock.Advance(time.Minute)
	expired, err := f.machine.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
}

func TestSessionWriteFailureReversesEscrow(t *testing.T) {
	ctrl := gomock.NewController(t)
	kv := mock_storage.NewMockStore(ctrl)
	f := newFailureFixture(t, kv)
	ctx := context.Background()

	kv.EXPECT().Write(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
	f.ledger.EXPECT().Debit(gomock.Any(), player, int64(100), gomock.Any()).Return(int64(900), nil)
	f.ledger.EXPECT().Credit(gomock.Any(), player, int64(100), gomock.Cond(func(x any) bool {
		memo, ok := x.(ledger.Memo)
		return ok && memo.Type == entities.TransactionTypeRefund && len(memo.Reference) > len("escrow-reversal:")
	})).Return(int64(1000), nil)

	_, err := f.machine.PlaceBet(ctx, player, entities.GameKeno, 100, entities.Selections{})

	assert.True(t, types.IsGameError(err, types.ErrStorageFailure))
	assert.Equal(t, 0, f.store.Len())
	assert.NoError(t, f.gate.TryAcquire(player, cooldown.ActionBet, 3*time.Second), "A reversed bet does not start the cooldown")
}

func TestSelectionWriteFailureLeavesSelectionUnchanged(t *testing.T) {
	ctrl := gomock.NewController(t)
	kv := mock_storage.NewMockStore(ctrl)
	f := newFailureFixture(t, kv)
	ctx := context.Background()

	f.ledger.EXPECT().Debit(gomock.Any(), player, int64(100), gomock.Any()).Return(int64(900), nil)
	gomock.InOrder(
		kv.EXPECT().Write(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2),
		kv.EXPECT().Write(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("disk full")),
	)

	_, err := f.machine.PlaceBet(ctx, player, entities.GameKeno, 100, entities.Selections{})
	require.NoError(t, err)

	_, err = f.machine.SelectOption(ctx, player, "", "7")
	assert.True(t, types.IsGameError(err, types.ErrStorageFailure))

	active, err := f.machine.ActiveSession(player)
	require.NoError(t, err)
	assert.Empty(t, active.Selections.Numbers)
	assert.Equal(t, entities.PhaseAwaitingInput, active.Phase)
}
