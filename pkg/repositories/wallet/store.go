package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fadedpez/tucocasino/pkg/entities"
	"github.com/fadedpez/tucocasino/pkg/storage"
	"github.com/google/uuid"
)

const (
	walletNamespace      = "wallet"
	transactionNamespace = "txlog"

	// maxTransactions bounds the per-player transaction log
	maxTransactions = 200
)

// StoreRepository implements Repository on a storage.Store.
// Callers serialize access per user; the ledger holds a per-player lock.
type StoreRepository struct {
	store storage.Store
}

// NewStoreRepository creates a wallet repository backed by store
func NewStoreRepository(store storage.Store) *StoreRepository {
	return &StoreRepository{store: store}
}

// GetWallet retrieves a wallet by user ID
func (r *StoreRepository) GetWallet(ctx context.Context, userID string) (*entities.Wallet, error) {
	data, err := r.store.Read(ctx, storage.Key(walletNamespace, userID))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}

	var wallet entities.Wallet
	if err := json.Unmarshal(data, &wallet); err != nil {
		return nil, fmt.Errorf("failed to decode wallet %s: %w", userID, err)
	}
	return &wallet, nil
}

// SaveWallet creates or updates a wallet
func (r *StoreRepository) SaveWallet(ctx context.Context, wallet *entities.Wallet) error {
	data, err := json.Marshal(wallet)
	if err != nil {
		return fmt.Errorf("failed to encode wallet %s: %w", wallet.UserID, err)
	}
	return r.store.Write(ctx, storage.Key(walletNamespace, wallet.UserID), data)
}

// AddTransaction records a new transaction
func (r *StoreRepository) AddTransaction(ctx context.Context, transaction *entities.Transaction) error {
	// Generate a UUID if not provided
	if transaction.ID == "" {
		transaction.ID = uuid.New().String()
	}

	// Set timestamp if not provided
	if transaction.Timestamp.IsZero() {
		transaction.Timestamp = time.Now()
	}

	log, err := r.readLog(ctx, transaction.UserID)
	if err != nil {
		return err
	}

	log = append(log, transaction)
	if over := len(log) - maxTransactions; over > 0 {
		log = log[over:]
	}

	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to encode transactions: %w", err)
	}
	return r.store.Write(ctx, storage.Key(transactionNamespace, transaction.UserID), data)
}

// GetTransactions retrieves recent transactions for a user
func (r *StoreRepository) GetTransactions(ctx context.Context, userID string, limit int) ([]*entities.Transaction, error) {
	return r.filter(ctx, userID, limit, func(*entities.Transaction) bool { return true })
}

// GetTransactionsByType retrieves transactions of a specific type
func (r *StoreRepository) GetTransactionsByType(ctx context.Context, userID string, transactionType entities.TransactionType, limit int) ([]*entities.Transaction, error) {
	return r.filter(ctx, userID, limit, func(tx *entities.Transaction) bool {
		return tx.Type == transactionType
	})
}

func (r *StoreRepository) filter(ctx context.Context, userID string, limit int, keep func(*entities.Transaction) bool) ([]*entities.Transaction, error) {
	log, err := r.readLog(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]*entities.Transaction, 0)
	for i := len(log) - 1; i >= 0 && (limit <= 0 || len(result) < limit); i-- {
		if keep(log[i]) {
			result = append(result, log[i])
		}
	}
	return result, nil
}

func (r *StoreRepository) readLog(ctx context.Context, userID string) ([]*entities.Transaction, error) {
	data, err := r.store.Read(ctx, storage.Key(transactionNamespace, userID))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var log []*entities.Transaction
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("failed to decode transactions for %s: %w", userID, err)
	}
	return log, nil
}
