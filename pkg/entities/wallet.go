package entities

import (
	"time"
)

// MaxAppliedRefs bounds how many settled references an account remembers
const MaxAppliedRefs = 256

// Wallet represents a player's ledger account
type Wallet struct {
	UserID      string    `json:"user_id"`      // Discord user ID
	Balance     int64     `json:"balance"`      // Current balance, never negative
	CreatedAt   time.Time `json:"created_at"`   // When the account was lazily opened
	LastUpdated time.Time `json:"last_updated"` // When the wallet was last mutated

	// AppliedRefs holds the most recent mutation references, oldest first.
	// It is persisted in the same write as Balance.
	AppliedRefs []string `json:"applied_refs,omitempty"`
}

// HasApplied reports whether a mutation with ref was already applied
func (w *Wallet) HasApplied(ref string) bool {
	if ref == "" {
		return false
	}
	for _, applied := range w.AppliedRefs {
		if applied == ref {
			return true
		}
	}
	return false
}

// RecordRef remembers ref, evicting the oldest once MaxAppliedRefs is reached
func (w *Wallet) RecordRef(ref string) {
	if ref == "" {
		return
	}
	w.AppliedRefs = append(w.AppliedRefs, ref)
	if over := len(w.AppliedRefs) - MaxAppliedRefs; over > 0 {
		w.AppliedRefs = append([]string(nil), w.AppliedRefs[over:]...)
	}
}

// Clone returns a deep copy of the wallet
func (w *Wallet) Clone() *Wallet {
	c := *w
	c.AppliedRefs = append([]string(nil), w.AppliedRefs...)
	return &c
}

// TransactionType represents the type of wallet transaction
type TransactionType string

const (
	TransactionTypeBet      TransactionType = "BET"      // escrow taken at bet placement
	TransactionTypePayout   TransactionType = "PAYOUT"   // winnings or push returned at settlement
	TransactionTypeRefund   TransactionType = "REFUND"   // escrow returned on cancel or expiry
	TransactionTypeCollect  TransactionType = "COLLECT"  // passive income collected
	TransactionTypePurchase TransactionType = "PURCHASE" // economy purchases and hires
)

// Transaction represents a single wallet transaction
type Transaction struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	Amount       int64           `json:"amount"` // positive for additions, negative for subtractions
	Type         TransactionType `json:"type"`
	ReferenceID  string          `json:"reference_id,omitempty"` // e.g. escrow:<session id>
	Description  string          `json:"description,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
	BalanceAfter int64           `json:"balance_after"`
}
