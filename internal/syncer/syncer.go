// Package syncer pushes the pending bookmark queue to the remote repository.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/ghclip/internal/auth"
	"github.com/MrSnakeDoc/ghclip/internal/clock"
	"github.com/MrSnakeDoc/ghclip/internal/domain"
	"github.com/MrSnakeDoc/ghclip/internal/logger"
	"github.com/MrSnakeDoc/ghclip/internal/partition"
	"github.com/MrSnakeDoc/ghclip/internal/store"
)

// DefaultConflictRetries is how many times a conflicting write is re-read,
// re-merged and re-written before the sync gives up.
const DefaultConflictRetries = 3

// ReconnectReason is shown to the user after credentials were revoked.
const ReconnectReason = domain.ReconnectReason

// ErrSyncInProgress is returned when SyncNow is called while a sync runs.
var ErrSyncInProgress = errors.New("sync already in progress")

// Remote reads and writes shard files.
type Remote interface {
	ReadShard(ctx context.Context, auth, owner, repo, path, branch string) (*domain.Shard, string, error)
	WriteShard(ctx context.Context, auth, owner, repo, path, branch string, shard domain.Shard, sha, message string) (string, error)
}

// Tokens hands out a currently valid credential.
type Tokens interface {
	ValidCredential(ctx context.Context) (auth.Credential, error)
}

// Store is the local state a sync reads and updates.
type Store interface {
	store.CredentialStore
	store.LinkStore
	store.SettingsStore
	RaiseReconnect(ctx context.Context, signal domain.ReconnectSignal) error
	SaveLastSync(ctx context.Context, status domain.SyncStatus) error
}

// Result describes one completed sync.
type Result struct {
	Success bool `json:"success"`
	// SyncedCount is the number of records taken off the pending queue.
	SyncedCount int `json:"syncedCount"`
	// AddedCount is the number of records that were new to the remote.
	AddedCount int      `json:"addedCount"`
	Paths      []string `json:"paths,omitempty"`
}

type Options struct {
	ConflictRetries int
	Clock           clock.Clock
}

// Orchestrator runs syncs one at a time.
type Orchestrator struct {
	store   Store
	tokens  Tokens
	remote  Remote
	clock   clock.Clock
	log     logger.Logger
	retries int

	mu sync.Mutex
}

func New(st Store, tokens Tokens, remote Remote, log logger.Logger, opts Options) *Orchestrator {
	if opts.ConflictRetries <= 0 {
		opts.ConflictRetries = DefaultConflictRetries
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	return &Orchestrator{
		store:   st,
		tokens:  tokens,
		remote:  remote,
		clock:   opts.Clock,
		log:     log,
		retries: opts.ConflictRetries,
	}
}

// SyncNow pushes up to batchSize pending records. Records are removed from
// the pending queue only after every shard of the batch was written. A
// failure part way leaves earlier shards written; the next run merges the
// same records again and URL dedup turns them into no-ops.
func (o *Orchestrator) SyncNow(ctx context.Context) (*Result, error) {
	if !o.mu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer o.mu.Unlock()

	start := o.clock.Now()
	res, err := o.run(ctx)
	o.record(ctx, start, res, err)
	return res, err
}

func (o *Orchestrator) run(ctx context.Context) (*Result, error) {
	cred, err := o.credential(ctx)
	if err != nil {
		return nil, err
	}

	settings, err := o.store.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if !settings.Complete() {
		return nil, &domain.ConfigError{Reason: "target repository is not configured"}
	}

	pending, err := o.store.PendingLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending links: %w", err)
	}
	if len(pending) == 0 {
		o.log.Debug("no pending links")
		return &Result{Success: true}, nil
	}

	batch := pending[:min(settings.BatchSize, len(pending))]
	groups := partition.Partition(batch, settings.PartitionStrategy)

	o.log.Info("🔄 syncing links",
		logger.Int("batch", len(batch)),
		logger.Int("pending", len(pending)),
		logger.Int("paths", len(groups)),
		logger.String("repo", settings.RepoOwner+"/"+settings.RepoName))

	res := &Result{}
	for _, g := range groups {
		added, err := o.syncPath(ctx, cred, settings, g)
		if err != nil {
			if domain.IsAuth(err) {
				return nil, o.revoke(ctx, err)
			}
			return nil, err
		}
		if added > 0 {
			res.AddedCount += added
			res.Paths = append(res.Paths, g.Path)
		}
	}

	ids := make([]string, len(batch))
	for i, b := range batch {
		ids[i] = b.ID
	}
	if err := o.store.RemovePending(ctx, ids); err != nil {
		return nil, fmt.Errorf("failed to remove synced links: %w", err)
	}

	res.Success = true
	res.SyncedCount = len(batch)

	o.log.Info("✅ sync complete",
		logger.Int("synced", res.SyncedCount),
		logger.Int("added", res.AddedCount),
		logger.Strings("paths", res.Paths))
	return res, nil
}

// credential refreshes through the token provider. A revoked credential
// clears local auth; any other refresh failure falls back to the stored token.
func (o *Orchestrator) credential(ctx context.Context) (auth.Credential, error) {
	cred, err := o.tokens.ValidCredential(ctx)
	if err == nil {
		return cred, nil
	}
	if domain.IsRevoked(err) {
		return auth.Credential{}, o.revoke(ctx, err)
	}

	var cfgErr *domain.ConfigError
	if errors.As(err, &cfgErr) {
		return auth.Credential{}, cfgErr
	}

	o.log.Warn("token refresh failed, continuing with stored token", logger.Error(err))

	creds, loadErr := o.store.Credentials(ctx)
	if loadErr != nil {
		return auth.Credential{}, fmt.Errorf("failed to load credentials: %w", loadErr)
	}
	last, ok := auth.LastKnown(creds)
	if !ok {
		return auth.Credential{}, err
	}
	return last, nil
}

// syncPath merges g into its shard, retrying on conflicts.
func (o *Orchestrator) syncPath(ctx context.Context, cred auth.Credential, s domain.Settings, g partition.Group) (int, error) {
	for attempt := 0; ; attempt++ {
		added, err := o.writePath(ctx, cred, s, g)
		if err == nil || !domain.IsConflict(err) || attempt >= o.retries {
			return added, err
		}
		o.log.Warn("shard changed remotely, retrying",
			logger.String("path", g.Path),
			logger.Int("attempt", attempt+1))
	}
}

func (o *Orchestrator) writePath(ctx context.Context, cred auth.Credential, s domain.Settings, g partition.Group) (int, error) {
	existing, sha, err := o.remote.ReadShard(ctx, cred.HeaderValue, s.RepoOwner, s.RepoName, g.Path, s.Branch)
	if err != nil {
		return 0, err
	}

	merged, added := domain.Merge(existing, g.Links, o.clock.Now())
	if len(added) == 0 {
		o.log.Debug("nothing new for shard", logger.String("path", g.Path))
		return 0, nil
	}

	msg := fmt.Sprintf("Add %d link(s) via GHClip", len(added))
	if _, err := o.remote.WriteShard(ctx, cred.HeaderValue, s.RepoOwner, s.RepoName, g.Path, s.Branch, merged, sha, msg); err != nil {
		return 0, err
	}
	return len(added), nil
}

// revoke clears credentials and raises the reconnect signal.
func (o *Orchestrator) revoke(ctx context.Context, cause error) error {
	o.log.Error("❌ credentials rejected, clearing them", logger.Error(cause))

	if err := o.store.ClearCredentials(ctx); err != nil {
		o.log.Error("failed to clear credentials", logger.Error(err))
	}
	signal := domain.ReconnectSignal{Badge: domain.ReconnectBadge, Reason: ReconnectReason, At: o.clock.Now()}
	if err := o.store.RaiseReconnect(ctx, signal); err != nil {
		o.log.Error("failed to raise reconnect signal", logger.Error(err))
	}

	if domain.IsRevoked(cause) {
		return cause
	}
	return &domain.AuthError{Revoked: true, Reason: "credentials rejected during sync", Err: cause}
}

func (o *Orchestrator) record(ctx context.Context, at time.Time, res *Result, err error) {
	status := domain.SyncStatus{At: at, Success: err == nil}
	if res != nil {
		status.Count = res.SyncedCount
		status.Paths = res.Paths
	}
	if err != nil {
		status.Error = err.Error()
		o.log.Warn("sync failed", logger.Error(err))
	}
	if saveErr := o.store.SaveLastSync(ctx, status); saveErr != nil {
		o.log.Warn("failed to record sync status", logger.Error(saveErr))
	}
}
