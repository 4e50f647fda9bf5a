package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/fadedpez/tucocasino/internal/logging"
	"github.com/fadedpez/tucocasino/internal/types"
	"github.com/fadedpez/tucocasino/pkg/clock"
	"github.com/fadedpez/tucocasino/pkg/entities"
	"github.com/fadedpez/tucocasino/pkg/keylock"
	walletRepo "github.com/fadedpez/tucocasino/pkg/repositories/wallet"
	"github.com/google/uuid"
)

// DefaultStartingBalance seeds accounts when Options leaves it unset
const DefaultStartingBalance = 1000

// Options configures a Ledger
type Options struct {
	StartingBalance int64
	Clock           clock.Clock
	Logger          *logging.Logger
}

// Ledger is the single write path for player balances. Every operation
// for a player runs under that player's lock and the balance is durably
// written before the call returns.
type Ledger struct {
	repo            walletRepo.Repository
	locks           *keylock.Locker
	clock           clock.Clock
	log             *logging.Logger
	startingBalance int64
}

// NewLedger creates a new ledger over repo
func NewLedger(repo walletRepo.Repository, opts Options) *Ledger {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default
	}
	if opts.StartingBalance == 0 {
		opts.StartingBalance = DefaultStartingBalance
	}
	return &Ledger{
		repo:            repo,
		locks:           keylock.New(),
		clock:           opts.Clock,
		log:             opts.Logger.WithField("component", "ledger"),
		startingBalance: opts.StartingBalance,
	}
}

// GetBalance returns the current balance, opening the account if needed
func (l *Ledger) GetBalance(ctx context.Context, playerID string) (int64, error) {
	if playerID == "" {
		return 0, types.InvalidArgument("player id is required")
	}

	unlock := l.locks.Lock(playerID)
	defer unlock()

	wallet, created, err := l.load(ctx, playerID)
	if err != nil {
		return 0, err
	}
	if created {
		if err := l.repo.SaveWallet(ctx, wallet); err != nil {
			return 0, types.StorageFailure("open account", err)
		}
		l.log.WithField("player", playerID).Info("Opened account with balance %d", wallet.Balance)
	}
	return wallet.Balance, nil
}

// Debit removes amount from the player's balance. It fails closed with
// INSUFFICIENT_FUNDS when amount exceeds the balance.
func (l *Ledger) Debit(ctx context.Context, playerID string, amount int64, memo Memo) (int64, error) {
	return l.apply(ctx, playerID, -amount, amount, memo)
}

// Credit adds amount to the player's balance
func (l *Ledger) Credit(ctx context.Context, playerID string, amount int64, memo Memo) (int64, error) {
	return l.apply(ctx, playerID, amount, amount, memo)
}

// Transactions lists the player's most recent ledger entries, newest first
func (l *Ledger) Transactions(ctx context.Context, playerID string, limit int) ([]*entities.Transaction, error) {
	txs, err := l.repo.GetTransactions(ctx, playerID, limit)
	if err != nil {
		return nil, types.StorageFailure("read transactions", err)
	}
	return txs, nil
}

func (l *Ledger) apply(ctx context.Context, playerID string, delta, amount int64, memo Memo) (int64, error) {
	if playerID == "" {
		return 0, types.InvalidArgument("player id is required")
	}
	if amount <= 0 {
		return 0, types.InvalidArgument("amount must be positive, got %d", amount)
	}

	unlock := l.locks.Lock(playerID)
	defer unlock()

	logger := l.log.WithFields(map[string]interface{}{
		"player": playerID,
		"ref":    memo.Reference,
	})

	wallet, _, err := l.load(ctx, playerID)
	if err != nil {
		return 0, err
	}

	if wallet.HasApplied(memo.Reference) {
		logger.Debug("Reference already applied, balance stays %d", wallet.Balance)
		return wallet.Balance, nil
	}

	if wallet.Balance+delta < 0 {
		return wallet.Balance, types.InsufficientFunds(amount, wallet.Balance)
	}

	// Mutate a copy so a failed write leaves nothing half applied
	updated := wallet.Clone()
	updated.Balance += delta
	updated.LastUpdated = l.clock.Now()
	updated.RecordRef(memo.Reference)

	if err := l.repo.SaveWallet(ctx, updated); err != nil {
		logger.LogError(types.StorageFailure("save wallet", err))
		return wallet.Balance, types.StorageFailure("save wallet", err)
	}

	logger.Debug("Applied %+d, balance %d -> %d", delta, wallet.Balance, updated.Balance)

	// The balance is already durable; the log entry is best effort
	transaction := &entities.Transaction{
		ID:           uuid.New().String(),
		UserID:       playerID,
		Amount:       delta,
		Type:         memo.Type,
		ReferenceID:  memo.Reference,
		Description:  memo.Description,
		Timestamp:    updated.LastUpdated,
		BalanceAfter: updated.Balance,
	}
	if err := l.repo.AddTransaction(ctx, transaction); err != nil {
		logger.Warn("Failed to record transaction %s: %v", transaction.ID, err)
	}

	return updated.Balance, nil
}

// load returns the stored wallet, or a fresh unsaved one seeded with the
// starting balance. The caller must hold the player's lock.
func (l *Ledger) load(ctx context.Context, playerID string) (*entities.Wallet, bool, error) {
	wallet, err := l.repo.GetWallet(ctx, playerID)
	if err == nil {
		return wallet, false, nil
	}
	if !errors.Is(err, walletRepo.ErrWalletNotFound) {
		return nil, false, types.StorageFailure(fmt.Sprintf("load wallet %s", playerID), err)
	}

	now := l.clock.Now()
	return &entities.Wallet{
		UserID:      playerID,
		Balance:     l.startingBalance,
		CreatedAt:   now,
		LastUpdated: now,
	}, true, nil
}
