package entity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/fadedpez/tucocasino/pkg/entities"
	"github.com/fadedpez/tucocasino/pkg/storage"
)

const namespace = "entity"

var (
	ErrEntityNotFound = errors.New("entity not found")
)

// Repository defines the interface for economic entity persistence
type Repository interface {
	GetEntity(ctx context.Context, entityID string) (*entities.Entity, error)
	SaveEntity(ctx context.Context, entity *entities.Entity) error
	ListByOwner(ctx context.Context, ownerID string) ([]*entities.Entity, error)
}

// StoreRepository implements Repository on a storage.Store
type StoreRepository struct {
	store storage.Store
}

// NewStoreRepository creates an entity repository backed by store
func NewStoreRepository(store storage.Store) *StoreRepository {
	return &StoreRepository{store: store}
}

// GetEntity retrieves an entity by ID
func (r *StoreRepository) GetEntity(ctx context.Context, entityID string) (*entities.Entity, error) {
	data, err := r.store.Read(ctx, storage.Key(namespace, entityID))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrEntityNotFound
	}
	if err != nil {
		return nil, err
	}

	var entity entities.Entity
	if err := json.Unmarshal(data, &entity); err != nil {
		return nil, fmt.Errorf("failed to decode entity %s: %w", entityID, err)
	}
	return &entity, nil
}

// SaveEntity creates or updates an entity
func (r *StoreRepository) SaveEntity(ctx context.Context, entity *entities.Entity) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to encode entity %s: %w", entity.ID, err)
	}
	return r.store.Write(ctx, storage.Key(namespace, entity.ID), data)
}

// ListByOwner returns the owner's entities, oldest first
func (r *StoreRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Entity, error) {
	keys, err := r.store.List(ctx, namespace+":")
	if err != nil {
		return nil, err
	}

	owned := make([]*entities.Entity, 0)
	for _, key := range keys {
		data, err := r.store.Read(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		var entity entities.Entity
		if err := json.Unmarshal(data, &entity); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		if entity.OwnerID == ownerID {
			owned = append(owned, &entity)
		}
	}

	sort.Slice(owned, func(i, j int) bool {
		return owned[i].CreatedAt.Before(owned[j].CreatedAt)
	})
	return owned, nil
}
