package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/ghclip/internal/clock"
	"github.com/MrSnakeDoc/ghclip/internal/domain"
	"github.com/MrSnakeDoc/ghclip/internal/logger"
	"github.com/MrSnakeDoc/ghclip/internal/syncer"
)

// Syncer runs one sync.
type Syncer interface {
	SyncNow(ctx context.Context) (*syncer.Result, error)
}

// SettingsSource provides the settings the schedule is derived from.
type SettingsSource interface {
	Settings(ctx context.Context) (domain.Settings, error)
}

// SchedulerState is a snapshot of the auto-sync schedule.
type SchedulerState struct {
	Enabled         bool      `json:"enabled"`
	IntervalMinutes int       `json:"intervalMinutes"`
	LastRunAt       time.Time `json:"lastRunAt,omitzero"`
	NextRunAt       time.Time `json:"nextRunAt,omitzero"`
}

// SyncScheduler runs syncs every syncIntervalMinutes while autoSync is on,
// and on demand through Trigger.
type SyncScheduler struct {
	syncer   Syncer
	settings SettingsSource
	logger   logger.Logger
	clock    clock.Clock

	// unit is the length of one interval minute.
	unit time.Duration

	trigger    chan struct{}
	reschedule chan domain.Settings
	stopCh     chan struct{}
	stopOnce   sync.Once

	mu    sync.RWMutex
	state SchedulerState
}

// NewSyncScheduler creates a scheduler. Nothing runs until Start.
func NewSyncScheduler(s Syncer, settings SettingsSource, log logger.Logger, clk clock.Clock) *SyncScheduler {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &SyncScheduler{
		syncer:     s,
		settings:   settings,
		logger:     log,
		clock:      clk,
		unit:       time.Minute,
		trigger:    make(chan struct{}, 1),
		reschedule: make(chan domain.Settings, 1),
		stopCh:     make(chan struct{}),
	}
}

// Start reads the current settings and begins the schedule loop.
func (s *SyncScheduler) Start(ctx context.Context) error {
	settings, err := s.settings.Settings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings for scheduler: %w", err)
	}

	ticker := s.apply(settings, nil)
	go func() {
		defer func() {
			if ticker != nil {
				ticker.Stop()
			}
		}()
		for {
			var tick <-chan time.Time
			if ticker != nil {
				tick = ticker.C
			}

			select {
			case <-tick:
				s.run(ctx, "auto")
			case <-s.trigger:
				s.logger.Info("manual sync triggered")
				s.run(ctx, "manual")
			case next := <-s.reschedule:
				ticker = s.apply(next, ticker)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop ends the schedule loop. Safe to call more than once.
func (s *SyncScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Trigger queues a manual sync. It returns false when one is already queued.
func (s *SyncScheduler) Trigger() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Reschedule replaces the schedule with one derived from settings. Only the
// latest call is kept if the loop has not caught up yet.
func (s *SyncScheduler) Reschedule(settings domain.Settings) {
	for {
		select {
		case s.reschedule <- settings:
			return
		default:
		}
		select {
		case <-s.reschedule:
		default:
		}
	}
}

// State returns a copy of the current schedule.
func (s *SyncScheduler) State() SchedulerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *SyncScheduler) apply(settings domain.Settings, old *time.Ticker) *time.Ticker {
	if old != nil {
		old.Stop()
	}
	settings = settings.WithDefaults()
	interval := time.Duration(settings.SyncIntervalMinutes) * s.unit

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Enabled = settings.AutoSync
	s.state.IntervalMinutes = settings.SyncIntervalMinutes

	if !settings.AutoSync {
		s.state.NextRunAt = time.Time{}
		s.logger.Info("auto-sync disabled")
		return nil
	}

	s.state.NextRunAt = s.clock.Now().Add(interval)
	s.logger.Info("auto-sync scheduled",
		logger.Int("interval_minutes", settings.SyncIntervalMinutes))
	return time.NewTicker(interval)
}

func (s *SyncScheduler) run(ctx context.Context, reason string) {
	now := s.clock.Now()
	s.mu.Lock()
	s.state.LastRunAt = now
	if s.state.Enabled {
		s.state.NextRunAt = now.Add(time.Duration(s.state.IntervalMinutes) * s.unit)
	}
	s.mu.Unlock()

	res, err := s.syncer.SyncNow(ctx)
	switch {
	case errors.Is(err, syncer.ErrSyncInProgress):
		s.logger.Debug("sync already running, skipped", logger.String("reason", reason))
	case err != nil:
		s.logger.Error("scheduled sync failed",
			logger.String("reason", reason),
			logger.Error(err))
	default:
		s.logger.Debug("scheduled sync finished",
			logger.String("reason", reason),
			logger.Int("synced", res.SyncedCount))
	}
}
