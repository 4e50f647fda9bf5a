package storage

import (
	"context"
	"errors"
)

// Common storage errors
var (
	ErrNotFound = errors.New("key not found")
	ErrClosed   = errors.New("store closed")
)

//go:generate mockgen -source=$GOFILE -destination=mock/mock.go -package=mock_storage

// Store is the durable key-value contract the ledger, session store and
// economy repositories persist through. A successful Write must be readable
// by the next Read of the same key.
type Store interface {
	// Read returns the value for key or ErrNotFound
	Read(ctx context.Context, key string) ([]byte, error)

	// Write creates or replaces the value for key
	Write(ctx context.Context, key string, value []byte) error

	// Delete removes key; deleting an absent key is not an error
	Delete(ctx context.Context, key string) error

	// List returns all keys starting with prefix, sorted
	List(ctx context.Context, prefix string) ([]string, error)

	// Close releases any resources held by the store
	Close() error
}

// Key joins namespace and id into a store key, e.g. Key("wallet", "123") = "wallet:123"
func Key(namespace, id string) string {
	return namespace + ":" + id
}
