package economy

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/fadedpez/tucocasino/internal/logging"
	"github.com/fadedpez/tucocasino/internal/types"
	"github.com/fadedpez/tucocasino/pkg/clock"
	"github.com/fadedpez/tucocasino/pkg/entities"
	entityRepo "github.com/fadedpez/tucocasino/pkg/repositories/entity"
	walletRepo "github.com/fadedpez/tucocasino/pkg/repositories/wallet"
	"github.com/fadedpez/tucocasino/pkg/services/accrual"
	"github.com/fadedpez/tucocasino/pkg/services/cooldown"
	"github.com/fadedpez/tucocasino/pkg/services/ledger"
	"github.com/fadedpez/tucocasino/pkg/storage/memory"
	"github.com/stretchr/testify/suite"
)

// flakyRepo fails the next failSaves SaveEntity calls
type flakyRepo struct {
	entityRepo.Repository
	failSaves int
}

func (r *flakyRepo) SaveEntity(ctx context.Context, entity *entities.Entity) error {
	if r.failSaves > 0 {
		r.failSaves--
		return errors.New("disk full")
	}
	return r.Repository.SaveEntity(ctx, entity)
}

type EconomyTestSuite struct {
	suite.Suite
	ctx     context.Context
	clock   *clock.Fake
	repo    *flakyRepo
	ledger  *ledger.Ledger
	service *Service
}

func TestEconomySuite(t *testing.T) {
	suite.Run(t, new(EconomyTestSuite))
}

func (s *EconomyTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	logger := logging.NewLoggerWithOutput(logging.ERROR, io.Discard)
	store := memory.New()

	s.repo = &flakyRepo{Repository: entityRepo.NewStoreRepository(store)}
	s.ledger = ledger.NewLedger(walletRepo.NewStoreRepository(store), ledger.Options{
		StartingBalance: 100000,
		Clock:           s.clock,
		Logger:          logger,
	})
	s.service = NewService(s.repo, s.ledger, accrual.NewDefaultEngine(), Options{
		Clock:  s.clock,
		Logger: logger,
	})
}

func (s *EconomyTestSuite) balance() int64 {
	balance, err := s.ledger.GetBalance(s.ctx, "p1")
	s.Require().NoError(err)
	return balance
}

func (s *EconomyTestSuite) TestBusinessCollectionWithEmployee() {
	// Setup: Cantina earns 1000/hr, a manager adds 20% and costs 50/hr
	business, err := s.service.Purchase(s.ctx, "p1", entities.EntityBusiness, 2)
	s.Require().NoError(err)
	_, err = s.service.Hire(s.ctx, "p1", business.ID, "manager")
	s.Require().NoError(err)
	s.Equal(int64(100000-40000-2000), s.balance())

	// Execute
	s.clock.Advance(2 * time.Hour)
	collection, err := s.service.CollectAccrual(s.ctx, "p1", business.ID)

	// Assert
	s.Require().NoError(err)
	s.Equal(int64(2300), collection.Amount)
	s.Equal(int64(58000+2300), collection.Balance)
	s.Equal(s.clock.Now(), collection.Entity.LastCollectedAt)
}

func (s *EconomyTestSuite) TestVaultCollectionClampsAndEmpties() {
	// Setup: Safe earns 50/hr up to 5000
	vault, err := s.service.Purchase(s.ctx, "p1", entities.EntityVault, 1)
	s.Require().NoError(err)
	before := s.balance()

	// Execute
	s.clock.Advance(200 * time.Hour)
	collection, err := s.service.CollectAccrual(s.ctx, "p1", vault.ID)

	// Assert
	s.Require().NoError(err)
	s.Equal(int64(5000), collection.Amount)
	s.Equal(before+5000, s.balance())

	stored, err := s.repo.GetEntity(s.ctx, vault.ID)
	s.Require().NoError(err)
	s.Equal(int64(0), stored.Stored)
}

func (s *EconomyTestSuite) TestPreviewHasNoSideEffects() {
	business, err := s.service.Purchase(s.ctx, "p1", entities.EntityBusiness, 1)
	s.Require().NoError(err)
	s.clock.Advance(3 * time.Hour)

	_, first, err := s.service.Preview(s.ctx, "p1", business.ID)
	s.Require().NoError(err)
	_, second, err := s.service.Preview(s.ctx, "p1", business.ID)
	s.Require().NoError(err)

	s.Equal(int64(300), first.Net)
	s.Equal(first.Net, second.Net)
}

func (s *EconomyTestSuite) TestPurchaseInsufficientFunds() {
	_, err := s.service.Purchase(s.ctx, "p1", entities.EntityBusiness, 3)
	s.True(types.IsGameError(err, types.ErrInsufficientFunds))

	owned, err := s.service.ListOwned(s.ctx, "p1")
	s.Require().NoError(err)
	s.Empty(owned)
}

func (s *EconomyTestSuite) TestPurchaseRefundsWhenSaveFails() {
	s.repo.failSaves = 1

	_, err := s.service.Purchase(s.ctx, "p1", entities.EntityVault, 1)

	s.True(types.IsGameError(err, types.ErrStorageFailure))
	s.Equal(int64(100000), s.balance(), "cost should be refunded")
}

func (s *EconomyTestSuite) TestCollectRetryDoesNotDoublePay() {
	business, err := s.service.Purchase(s.ctx, "p1", entities.EntityBusiness, 1)
	s.Require().NoError(err)
	before := s.balance()
	s.clock.Advance(time.Hour)

	// Credit succeeds, entity write fails
	s.repo.failSaves = 1
	_, err = s.service.CollectAccrual(s.ctx, "p1", business.ID)
	s.True(types.IsGameError(err, types.ErrStorageFailure))
	s.Equal(before+100, s.balance())

	// Retry over the same window is deduplicated by the ledger
	s.clock.Advance(time.Minute)
	_, err = s.service.CollectAccrual(s.ctx, "p1", business.ID)
	s.Require().NoError(err)
	s.Equal(before+100, s.balance())
}

func (s *EconomyTestSuite) TestOwnershipAndStaffLimits() {
	business, err := s.service.Purchase(s.ctx, "p1", entities.EntityBusiness, 1)
	s.Require().NoError(err)

	_, err = s.service.CollectAccrual(s.ctx, "p2", business.ID)
	s.True(types.IsGameError(err, types.ErrInvalidTransition))

	_, err = s.service.Hire(s.ctx, "p1", business.ID, "cashier")
	s.Require().NoError(err)
	hired, err := s.service.Hire(s.ctx, "p1", business.ID, "bodyguard")
	s.Require().NoError(err)

	_, err = s.service.Hire(s.ctx, "p1", business.ID, "cashier")
	s.True(types.IsGameError(err, types.ErrInvalidTransition), "Taco Stand holds two staff")

	fired, err := s.service.Fire(s.ctx, "p1", business.ID, hired.Modifiers[1].ID)
	s.Require().NoError(err)
	s.Len(fired.Modifiers, 1)

	_, err = s.service.Fire(s.ctx, "p1", business.ID, "missing")
	s.True(types.IsGameError(err, types.ErrNotFound))

	_, err = s.service.Hire(s.ctx, "p1", business.ID, "janitor")
	s.True(types.IsGameError(err, types.ErrNotFound))
}

func (s *EconomyTestSuite) TestCollectCooldown() {
	s.service.gate = cooldown.NewGate(s.clock)
	s.service.cooldown = time.Minute

	business, err := s.service.Purchase(s.ctx, "p1", entities.EntityBusiness, 1)
	s.Require().NoError(err)

	_, err = s.service.CollectAccrual(s.ctx, "p1", business.ID)
	s.Require().NoError(err, "nothing to collect still succeeds")

	_, err = s.service.CollectAccrual(s.ctx, "p1", business.ID)
	s.True(types.IsGameError(err, types.ErrCooldownActive))
}

func (s *EconomyTestSuite) TestCollectCooldownIgnoresUnownedEntities() {
	s.service.gate = cooldown.NewGate(s.clock)
	s.service.cooldown = time.Minute

	business, err := s.service.Purchase(s.ctx, "p1", entities.EntityBusiness, 1)
	s.Require().NoError(err)

	_, err = s.service.CollectAccrual(s.ctx, "p1", "typo")
	s.True(types.IsGameError(err, types.ErrNotFound))
	_, err = s.service.CollectAccrual(s.ctx, "p2", business.ID)
	s.True(types.IsGameError(err, types.ErrInvalidTransition))

	s.clock.Advance(time.Hour)
	collection, err := s.service.CollectAccrual(s.ctx, "p1", business.ID)
	s.Require().NoError(err, "failed attempts do not start the cooldown")
	s.Equal(int64(100), collection.Amount)
}

func (s *EconomyTestSuite) TestPreviewRequiresOwnership() {
	business, err := s.service.Purchase(s.ctx, "p1", entities.EntityBusiness, 1)
	s.Require().NoError(err)

	_, _, err = s.service.Preview(s.ctx, "p2", business.ID)
	s.True(types.IsGameError(err, types.ErrInvalidTransition))
}

func (s *EconomyTestSuite) TestBodyguardsShieldVault() {
	vault, err := s.service.Purchase(s.ctx, "p1", entities.EntityVault, 2)
	s.Require().NoError(err)
	for i := 0; i < 2; i++ {
		vault, err = s.service.Hire(s.ctx, "p1", vault.ID, "bodyguard")
		s.Require().NoError(err)
	}
	s.Equal("0.5", vault.Protection().String())

	s.clock.Advance(time.Hour)
	_, result, err := s.service.Preview(s.ctx, "p1", vault.ID)
	s.Require().NoError(err)
	s.Equal("0.5", result.Protection.String())
	s.Equal(int64(250-80), result.Net, "bodyguard wages still come out of income")
}

func (s *EconomyTestSuite) TestUnknownEntity() {
	_, _, err := s.service.Preview(s.ctx, "p1", "nope")
	s.True(types.IsGameError(err, types.ErrNotFound))

	_, err = s.service.Purchase(s.ctx, "p1", entities.EntityVault, 9)
	s.True(types.IsGameError(err, types.ErrNotFound))
}
