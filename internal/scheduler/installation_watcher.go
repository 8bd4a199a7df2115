package scheduler

import (
	"context"
	"errors"
	"sync"

	"github.com/MrSnakeDoc/ghclip/internal/auth"
	"github.com/MrSnakeDoc/ghclip/internal/domain"
	"github.com/MrSnakeDoc/ghclip/internal/logger"
)

// InstallationAwaiter polls until the GitHub App is installed.
type InstallationAwaiter interface {
	AwaitInstallation(ctx context.Context) (*auth.Result, error)
}

// AwaitingFlag reports whether an authorization waits for its installation.
type AwaitingFlag interface {
	AwaitingInstallation(ctx context.Context) (bool, error)
}

// InstallationWatcher runs installation polling in the background, at most
// once at a time. It resumes polling at startup when a previous run was
// interrupted while waiting.
type InstallationWatcher struct {
	flow        InstallationAwaiter
	flag        AwaitingFlag
	logger      logger.Logger
	onInstalled func()

	mu      sync.Mutex
	ctx     context.Context
	running bool
	wg      sync.WaitGroup
}

// NewInstallationWatcher creates a watcher. onInstalled, when set, runs after
// a successful installation.
func NewInstallationWatcher(flow InstallationAwaiter, flag AwaitingFlag, log logger.Logger, onInstalled func()) *InstallationWatcher {
	return &InstallationWatcher{flow: flow, flag: flag, logger: log, onInstalled: onInstalled, ctx: context.Background()}
}

// Start binds the watcher to ctx and resumes polling if the flag is set.
func (w *InstallationWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	w.ctx = ctx
	w.mu.Unlock()

	awaiting, err := w.flag.AwaitingInstallation(ctx)
	if err != nil {
		return err
	}
	if awaiting {
		w.logger.Info("resuming wait for app installation")
		w.Watch()
	}
	return nil
}

// Watch starts polling unless it is already running. It reports whether a
// new poll was started.
func (w *InstallationWatcher) Watch() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return false
	}
	w.running = true
	ctx := w.ctx

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
		}()

		res, err := w.flow.AwaitInstallation(ctx)
		switch {
		case err == nil:
			w.logger.Info("app installation detected", logger.Int64("installation_id", res.Installation.ID))
			if w.onInstalled != nil {
				w.onInstalled()
			}
		case errors.Is(err, auth.ErrInstallationTimeout):
			w.logger.Warn("app still not installed, polling paused until next start or authorization")
		case domain.IsRevoked(err):
			w.logger.Warn("app authorization revoked while polling, reconnect required")
		case errors.Is(err, context.Canceled):
		default:
			w.logger.Error("installation polling failed", logger.Error(err))
		}
	}()
	return true
}

// Running reports whether polling is in progress.
func (w *InstallationWatcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Wait blocks until the current poll ends.
func (w *InstallationWatcher) Wait() {
	w.wg.Wait()
}
