package economy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fadedpez/tucocasino/internal/logging"
	"github.com/fadedpez/tucocasino/internal/types"
	"github.com/fadedpez/tucocasino/pkg/clock"
	"github.com/fadedpez/tucocasino/pkg/entities"
	"github.com/fadedpez/tucocasino/pkg/keylock"
	entityRepo "github.com/fadedpez/tucocasino/pkg/repositories/entity"
	"github.com/fadedpez/tucocasino/pkg/services/accrual"
	"github.com/fadedpez/tucocasino/pkg/services/cooldown"
	"github.com/fadedpez/tucocasino/pkg/services/ledger"
	"github.com/google/uuid"
)

// Options configures the economy service
type Options struct {
	Clock           clock.Clock
	Logger          *logging.Logger
	Gate            *cooldown.Gate // nil disables the collect cooldown
	CollectCooldown time.Duration
}

// Service runs purchases, staffing and collection of passive income entities
type Service struct {
	repo     entityRepo.Repository
	ledger   ledger.LedgerService
	engine   *accrual.Engine
	locks    *keylock.Locker
	clock    clock.Clock
	log      *logging.Logger
	gate     *cooldown.Gate
	cooldown time.Duration
}

// Collection is the result of CollectAccrual
type Collection struct {
	Entity  *entities.Entity
	Accrual accrual.Result
	Amount  int64 // credited to the owner
	Balance int64 // owner balance after the credit
}

// NewService creates a new economy service
func NewService(repo entityRepo.Repository, l ledger.LedgerService, engine *accrual.Engine, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default
	}
	return &Service{
		repo:     repo,
		ledger:   l,
		engine:   engine,
		locks:    keylock.New(),
		clock:    opts.Clock,
		log:      opts.Logger.WithField("component", "economy"),
		gate:     opts.Gate,
		cooldown: opts.CollectCooldown,
	}
}

// Purchase debits the tier cost and creates the entity
func (s *Service) Purchase(ctx context.Context, ownerID string, kind entities.EntityKind, level int) (*entities.Entity, error) {
	tier, err := s.engine.Tier(kind, level)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	entity := &entities.Entity{
		ID:              uuid.New().String(),
		OwnerID:         ownerID,
		Kind:            kind,
		Tier:            level,
		LastCollectedAt: now,
		CreatedAt:       now,
	}

	if _, err := s.ledger.Debit(ctx, ownerID, tier.Cost, ledger.Memo{
		Type:        entities.TransactionTypePurchase,
		Reference:   "purchase:" + entity.ID,
		Description: fmt.Sprintf("Bought %s", tier.Name),
	}); err != nil {
		return nil, err
	}

	if err := s.repo.SaveEntity(ctx, entity); err != nil {
		s.refund(ctx, ownerID, tier.Cost, "purchase-refund:"+entity.ID, "Purchase failed")
		return nil, types.StorageFailure("save entity", err)
	}

	s.log.WithFields(map[string]interface{}{"owner": ownerID, "entity": entity.ID}).
		Info("Purchased %s tier %d", kind, level)
	return entity, nil
}

// Hire pays the hire cost and attaches a staff modifier
func (s *Service) Hire(ctx context.Context, ownerID, entityID, staffName string) (*entities.Entity, error) {
	template, err := s.engine.Staff(staffName)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(entityID)
	defer unlock()

	entity, tier, err := s.owned(ctx, ownerID, entityID)
	if err != nil {
		return nil, err
	}
	if len(entity.Modifiers) >= tier.MaxStaff {
		return nil, types.InvalidTransition("%s already has the maximum of %d staff", tier.Name, tier.MaxStaff)
	}

	modifier := entities.Modifier{
		ID:         uuid.New().String(),
		Role:       template.Role,
		Name:       template.Name,
		Boost:      template.Boost,
		Wage:       template.Wage,
		Protection: template.Protection,
		HiredAt:    s.clock.Now(),
	}

	if template.HireCost > 0 {
		if _, err := s.ledger.Debit(ctx, ownerID, template.HireCost, ledger.Memo{
			Type:        entities.TransactionTypePurchase,
			Reference:   "hire:" + modifier.ID,
			Description: fmt.Sprintf("Hired a %s", template.Name),
		}); err != nil {
			return nil, err
		}
	}

	updated := entity.Clone()
	updated.Modifiers = append(updated.Modifiers, modifier)
	if err := s.repo.SaveEntity(ctx, updated); err != nil {
		if template.HireCost > 0 {
			s.refund(ctx, ownerID, template.HireCost, "hire-refund:"+modifier.ID, "Hire failed")
		}
		return nil, types.StorageFailure("save entity", err)
	}
	return updated, nil
}

// Fire detaches a staff modifier; hire costs are not refunded
func (s *Service) Fire(ctx context.Context, ownerID, entityID, modifierID string) (*entities.Entity, error) {
	unlock := s.locks.Lock(entityID)
	defer unlock()

	entity, _, err := s.owned(ctx, ownerID, entityID)
	if err != nil {
		return nil, err
	}

	updated := entity.Clone()
	updated.Modifiers = updated.Modifiers[:0]
	found := false
	for _, m := range entity.Modifiers {
		if m.ID == modifierID {
			found = true
			continue
		}
		updated.Modifiers = append(updated.Modifiers, m)
	}
	if !found {
		return nil, types.NotFound("staff", modifierID)
	}

	if err := s.repo.SaveEntity(ctx, updated); err != nil {
		return nil, types.StorageFailure("save entity", err)
	}
	return updated, nil
}

// Preview computes what collecting now would yield without changing anything
func (s *Service) Preview(ctx context.Context, ownerID, entityID string) (*entities.Entity, accrual.Result, error) {
	entity, _, err := s.owned(ctx, ownerID, entityID)
	if err != nil {
		return nil, accrual.Result{}, err
	}
	result, err := s.engine.Accrue(entity, s.clock.Now())
	if err != nil {
		return nil, accrual.Result{}, err
	}
	return entity, result, nil
}

// CollectAccrual commits the entity's accrual and credits the owner. A
// business pays its net income; a vault pays out everything it stores.
//
// The credit reference is derived from the collection window, so a retry
// after a failed entity write cannot pay the same window twice.
func (s *Service) CollectAccrual(ctx context.Context, ownerID, entityID string) (*Collection, error) {
	unlock := s.locks.Lock(entityID)
	defer unlock()

	entity, _, err := s.owned(ctx, ownerID, entityID)
	if err != nil {
		return nil, err
	}

	// Only a collection from an entity the player owns starts the cooldown
	if s.gate != nil {
		if err := s.gate.TryAcquire(ownerID, cooldown.ActionCollect, s.cooldown); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	result, err := s.engine.Accrue(entity, now)
	if err != nil {
		return nil, err
	}

	updated := entity.Clone()
	s.engine.Commit(updated, result, now)

	amount := result.Net
	if updated.Kind == entities.EntityVault {
		amount = updated.Stored
		updated.Stored = 0
	}

	collection := &Collection{Entity: updated, Accrual: result, Amount: amount}

	if amount > 0 {
		ref := fmt.Sprintf("collect:%s:%d", entity.ID, entity.LastCollectedAt.UnixNano())
		balance, err := s.ledger.Credit(ctx, ownerID, amount, ledger.Memo{
			Type:        entities.TransactionTypeCollect,
			Reference:   ref,
			Description: fmt.Sprintf("Collected from %s", entity.Kind),
		})
		if err != nil {
			return nil, err
		}
		collection.Balance = balance
	} else {
		balance, err := s.ledger.GetBalance(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		collection.Balance = balance
	}

	if err := s.repo.SaveEntity(ctx, updated); err != nil {
		s.log.WithField("entity", entityID).Error("Collected %d but failed to save entity: %v", amount, err)
		return nil, types.StorageFailure("save entity", err)
	}

	s.log.WithFields(map[string]interface{}{"owner": ownerID, "entity": entityID}).
		Info("Collected %d over %s hours", amount, result.Hours.StringFixed(2))
	return collection, nil
}

// ListOwned returns the owner's entities, oldest first
func (s *Service) ListOwned(ctx context.Context, ownerID string) ([]*entities.Entity, error) {
	owned, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, types.StorageFailure("list entities", err)
	}
	return owned, nil
}

// Engine exposes the rate tables for presentation
func (s *Service) Engine() *accrual.Engine {
	return s.engine
}

func (s *Service) get(ctx context.Context, entityID string) (*entities.Entity, error) {
	entity, err := s.repo.GetEntity(ctx, entityID)
	if errors.Is(err, entityRepo.ErrEntityNotFound) {
		return nil, types.NotFound("entity", entityID)
	}
	if err != nil {
		return nil, types.StorageFailure("load entity", err)
	}
	return entity, nil
}

func (s *Service) owned(ctx context.Context, ownerID, entityID string) (*entities.Entity, entities.Tier, error) {
	entity, err := s.get(ctx, entityID)
	if err != nil {
		return nil, entities.Tier{}, err
	}
	if entity.OwnerID != ownerID {
		return nil, entities.Tier{}, types.InvalidTransition("you do not own that")
	}
	tier, err := s.engine.Tier(entity.Kind, entity.Tier)
	if err != nil {
		return nil, entities.Tier{}, err
	}
	return entity, tier, nil
}

func (s *Service) refund(ctx context.Context, ownerID string, amount int64, ref, description string) {
	if _, err := s.ledger.Credit(ctx, ownerID, amount, ledger.Memo{
		Type:        entities.TransactionTypeRefund,
		Reference:   ref,
		Description: description,
	}); err != nil {
		s.log.WithField("owner", ownerID).Error("Failed to refund %d (%s): %v", amount, ref, err)
	}
}
