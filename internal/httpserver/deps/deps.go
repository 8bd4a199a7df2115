package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/ghclip/internal/auth"
	"github.com/MrSnakeDoc/ghclip/internal/domain"
	"github.com/MrSnakeDoc/ghclip/internal/github"
	"github.com/MrSnakeDoc/ghclip/internal/logger"
	"github.com/MrSnakeDoc/ghclip/internal/scheduler"
	"github.com/MrSnakeDoc/ghclip/internal/store"
	"github.com/MrSnakeDoc/ghclip/internal/syncer"
)

// SyncRunner runs a sync synchronously.
type SyncRunner interface {
	SyncNow(ctx context.Context) (*syncer.Result, error)
}

// Schedule is the auto-sync loop as seen by handlers.
type Schedule interface {
	Trigger() bool
	Reschedule(s domain.Settings)
	State() scheduler.SchedulerState
}

// Watcher runs background installation polling.
type Watcher interface {
	Watch() bool
	Running() bool
}

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	// Background outlives requests and is cancelled on shutdown. Long
	// running flows started from a request (device polling) use it.
	Background context.Context

	AllowedCIDRS      []string      // client IPs/CIDRs allowed to call the API
	TrustProxy        bool          // true if running behind a trusted reverse proxy
	RateLimitRequests int           // requests per window and client, 0 disables
	RateLimitWindow   time.Duration // window the request budget refills over

	StoreKind string      // "redis" or "memory", reported by /infra
	Store     store.Store // local state

	GitHub    *github.Client
	Tokens    *auth.Resolver
	Manual    *auth.Manual
	Device    *auth.DeviceFlow // nil when no OAuth client id is configured
	AppFlow   *auth.AppFlow    // nil when the GitHub App is not configured
	Installer Watcher          // nil when the GitHub App is not configured

	Syncer    SyncRunner
	Scheduler Schedule
}

// Now returns TimeNow() or time.Now().
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
