package ledger

import (
	"context"

	"github.com/fadedpez/tucocasino/pkg/entities"
)

// Memo describes why a balance moved. Reference makes the mutation
// idempotent: a second call with an applied reference is a no-op.
type Memo struct {
	Type        entities.TransactionType
	Reference   string
	Description string
}

//go:generate mockgen -source=$GOFILE -destination=mock/mock.go -package=mock_ledger
type LedgerService interface {
	Debit(ctx context.Context, playerID string, amount int64, memo Memo) (int64, error)
	Credit(ctx context.Context, playerID string, amount int64, memo Memo) (int64, error)
	GetBalance(ctx context.Context, playerID string) (int64, error)
}
