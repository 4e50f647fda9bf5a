package scheduler

import (
	"context"
	"time"
)

// Names of the maintenance tasks
const (
	TaskSessionSweep   = "session_sweep"
	TaskCooldownPrune  = "cooldown_prune"
	TaskTombstonePrune = "tombstone_prune"
)

// SessionSweeper is the part of the session state machine the sweep drives
type SessionSweeper interface {
	SweepExpired(ctx context.Context) (int, error)
	PruneTombstones(maxAge time.Duration) int
}

// CooldownPruner forgets stale cooldown stamps
type CooldownPruner interface {
	Prune(maxAge time.Duration) int
}

// MaintenanceConfig sets how often each maintenance task runs
type MaintenanceConfig struct {
	SweepInterval  time.Duration // expiry sweep cadence
	PruneInterval  time.Duration // cooldown and tombstone pruning cadence
	CooldownMaxAge time.Duration // stamps older than this are dropped
	TombstoneTTL   time.Duration // how long settled session ids are remembered
}

// DefaultMaintenanceConfig returns the cadence used by the bot
func DefaultMaintenanceConfig() MaintenanceConfig {
	return MaintenanceConfig{
		SweepInterval:  15 * time.Second,
		PruneInterval:  10 * time.Minute,
		CooldownMaxAge: time.Hour,
		TombstoneTTL:   time.Hour,
	}
}

// AddMaintenanceTasks registers the expiry sweep and the pruning tasks.
// A nil gate skips cooldown pruning.
func AddMaintenanceTasks(s *Scheduler, cfg MaintenanceConfig, sessions SessionSweeper, gate CooldownPruner) {
	defaults := DefaultMaintenanceConfig()
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaults.SweepInterval
	}
	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = defaults.PruneInterval
	}
	if cfg.CooldownMaxAge <= 0 {
		cfg.CooldownMaxAge = defaults.CooldownMaxAge
	}
	if cfg.TombstoneTTL <= 0 {
		cfg.TombstoneTTL = defaults.TombstoneTTL
	}

	s.AddTask(TaskSessionSweep, cfg.SweepInterval, func(ctx context.Context) error {
		_, err := sessions.SweepExpired(ctx)
		return err
	})

	s.AddTask(TaskTombstonePrune, cfg.PruneInterval, func(ctx context.Context) error {
		if pruned := sessions.PruneTombstones(cfg.TombstoneTTL); pruned > 0 {
			s.log.Debug("Pruned %d tombstones", pruned)
		}
		return nil
	})

	if gate != nil {
		s.AddTask(TaskCooldownPrune, cfg.PruneInterval, func(ctx context.Context) error {
			if pruned := gate.Prune(cfg.CooldownMaxAge); pruned > 0 {
				s.log.Debug("Pruned %d cooldown stamps", pruned)
			}
			return nil
		})
	}
}
