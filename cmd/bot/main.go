package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fadedpez/tucocasino/internal/bot"
	"github.com/fadedpez/tucocasino/internal/config"
	"github.com/fadedpez/tucocasino/internal/discord"
	"github.com/fadedpez/tucocasino/internal/games"
	"github.com/fadedpez/tucocasino/internal/logging"
	"github.com/fadedpez/tucocasino/pkg/clock"
	"github.com/fadedpez/tucocasino/pkg/games/session"
	entityRepo "github.com/fadedpez/tucocasino/pkg/repositories/entity"
	"github.com/fadedpez/tucocasino/pkg/repositories/history"
	sessionRepo "github.com/fadedpez/tucocasino/pkg/repositories/session"
	walletRepo "github.com/fadedpez/tucocasino/pkg/repositories/wallet"
	"github.com/fadedpez/tucocasino/pkg/rng"
	"github.com/fadedpez/tucocasino/pkg/scheduler"
	"github.com/fadedpez/tucocasino/pkg/services/accrual"
	"github.com/fadedpez/tucocasino/pkg/services/cooldown"
	"github.com/fadedpez/tucocasino/pkg/services/economy"
	"github.com/fadedpez/tucocasino/pkg/services/ledger"
	"github.com/fadedpez/tucocasino/pkg/services/payout"
	"github.com/fadedpez/tucocasino/pkg/services/statistics"
	"github.com/fadedpez/tucocasino/pkg/storage"
	"github.com/fadedpez/tucocasino/pkg/storage/file"
	"github.com/fadedpez/tucocasino/pkg/storage/memory"
	"github.com/fadedpez/tucocasino/pkg/storage/sqlite"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("¡Ay caramba! Failed to load configuration: %v", err)
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel))
	logging.Default = logger

	// Initialize storage
	kv, historyRepo, err := openStorage(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize storage: %v", err)
		os.Exit(1)
	}
	defer kv.Close()
	defer historyRepo.Close()

	clk := clock.Real{}
	gate := cooldown.NewGate(clk)

	ledgerService := ledger.NewLedger(walletRepo.NewStoreRepository(kv), ledger.Options{
		StartingBalance: cfg.StartingBalance,
		Clock:           clk,
		Logger:          logger,
	})

	registry := games.NewRegistry()
	if err := payout.RegisterAll(registry); err != nil {
		logger.Error("Failed to register games: %v", err)
		os.Exit(1)
	}

	sessions := sessionRepo.NewStore(kv, sessionRepo.Options{
		TTL:    cfg.SessionTTL,
		Clock:  clk,
		Logger: logger,
	})
	machine := session.NewMachine(sessions, ledgerService, registry, session.Options{
		Clock:       clk,
		Rng:         rng.New(),
		Logger:      logger,
		Gate:        gate,
		BetCooldown: cfg.BetCooldown,
		MinBet:      cfg.MinBet,
		MaxBet:      cfg.MaxBet,
		History:     historyRepo,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Sessions left open by the last run come back so the sweep can settle them
	restored, err := machine.Restore(ctx)
	if err != nil {
		logger.Error("Failed to restore sessions: %v", err)
		os.Exit(1)
	}
	if restored > 0 {
		logger.Info("Restored %d active sessions", restored)
	}

	economyService := economy.NewService(entityRepo.NewStoreRepository(kv), ledgerService, accrual.NewDefaultEngine(), economy.Options{
		Clock:           clk,
		Logger:          logger,
		Gate:            gate,
		CollectCooldown: cfg.CollectCooldown,
	})
	statisticsService := statistics.NewService(historyRepo, clk)

	// Start maintenance tasks
	sched := scheduler.NewScheduler(logger)
	maintenance := scheduler.DefaultMaintenanceConfig()
	maintenance.SweepInterval = cfg.SweepInterval
	scheduler.AddMaintenanceTasks(sched, maintenance, machine, gate)
	sched.Start(ctx)
	defer sched.Stop()

	var casinoBot *bot.Bot
	if cfg.Headless {
		logger.Info("Running headless: maintenance only, no Discord connection")
	} else {
		dg, err := discord.NewSession(cfg.Token)
		if err != nil {
			logger.Error("Failed to create Discord session: %v", err)
			os.Exit(1)
		}
		casinoBot = bot.New(cfg, dg, bot.Dependencies{
			Casino:       machine,
			Economy:      economyService,
			Leaderboards: statisticsService,
			Statement:    ledgerService,
			Logger:       logger,
		})
		if err := casinoBot.Start(); err != nil {
			logger.Error("Failed to start bot: %v", err)
			os.Exit(1)
		}
	}

	fmt.Println("Tuco's casino is open. Press CTRL-C to exit.")

	// Wait for interrupt signal to gracefully shutdown
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	<-sc

	// Cleanup and exit
	fmt.Println("Shutting down...")
	if casinoBot != nil {
		casinoBot.Shutdown()
	}
}

// openStorage picks the key-value backend from STORAGE_TYPE and the history
// repository that goes with it. Settlement history lives in the sqlite
// database when there is one, in memory otherwise, and is mirrored to
// Elasticsearch when ELASTICSEARCH_URL is set.
func openStorage(cfg *config.Config, logger *logging.Logger) (storage.Store, history.Repository, error) {
	var (
		kv          storage.Store
		historyRepo history.Repository
	)

	switch cfg.StorageType {
	case config.StorageSQLite:
		path := cfg.SQLitePath()
		logger.Info("Initializing SQLite storage at %s", path)
		store, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, err
		}
		kv = store
		historyRepo = history.NewSQLiteRepository(store.DB())
	case config.StorageFile:
		path := cfg.FileStorePath()
		logger.Info("Initializing file storage at %s", path)
		store, err := file.New(path)
		if err != nil {
			return nil, nil, err
		}
		kv = store
		historyRepo = history.NewMemoryRepository()
	default:
		logger.Warn("Using in-memory storage (data will be lost on restart)")
		kv = memory.New()
		historyRepo = history.NewMemoryRepository()
	}

	if cfg.ElasticsearchURL == "" {
		return kv, historyRepo, nil
	}

	esRepo, err := history.NewElasticsearchRepository(historyRepo, history.ElasticsearchConfig{
		URL:         cfg.ElasticsearchURL,
		Username:    cfg.ElasticsearchUsername,
		Password:    cfg.ElasticsearchPassword,
		IndexPrefix: cfg.IndexPrefix,
	}, logger)
	if err != nil {
		logger.Warn("Elasticsearch unavailable, keeping local history only: %v", err)
		return kv, historyRepo, nil
	}
	logger.Info("Mirroring settlement history to Elasticsearch at %s", cfg.ElasticsearchURL)
	return kv, esRepo, nil
}
