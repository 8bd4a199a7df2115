// Package store defines the persisted local state used by sync and auth.
//
// Two implementations exist: store/redis for the daemon and store/memory
// for tests and ephemeral runs. Both must honour the same guarantees:
//   - credential records are written and cleared as a whole, never field by field;
//   - every pending link is also present in the all-links mirror;
//   - deleting a link removes it from both lists.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
)

// ErrNotFound is returned when a link id is unknown.
var ErrNotFound = errors.New("not found")

// CredentialStore holds the active authentication method and its secrets.
type CredentialStore interface {
	// Credentials returns the stored record, or a zero value (AuthNone) when
	// nothing is stored.
	Credentials(ctx context.Context) (domain.Credentials, error)
	// SaveCredentials atomically replaces the whole record. Saving a usable
	// credential also lowers the reconnect signal and the awaiting-installation
	// flag unless the record is a GitHub App still waiting for its installation.
	SaveCredentials(ctx context.Context, creds domain.Credentials) error
	// ClearCredentials atomically drops the record and the awaiting-installation flag.
	ClearCredentials(ctx context.Context) error
}

// LinkStore holds the pending queue and the full local mirror.
type LinkStore interface {
	AppendLink(ctx context.Context, link domain.Bookmark) error
	PendingLinks(ctx context.Context) ([]domain.Bookmark, error)
	AllLinks(ctx context.Context) ([]domain.Bookmark, error)
	// DeleteLink removes the link from both the pending queue and the mirror.
	DeleteLink(ctx context.Context, id string) error
	// RemovePending drops the given ids from the pending queue only.
	RemovePending(ctx context.Context, ids []string) error
}

// SettingsStore persists the user settings.
type SettingsStore interface {
	// Settings returns the stored settings with defaults applied, or
	// domain.DefaultSettings when nothing is stored.
	Settings(ctx context.Context) (domain.Settings, error)
	SaveSettings(ctx context.Context, s domain.Settings) error
}

// StateStore keeps small pieces of auth and sync state.
type StateStore interface {
	AwaitingInstallation(ctx context.Context) (bool, error)
	SetAwaitingInstallation(ctx context.Context, awaiting bool) error

	// SaveAuthState remembers an OAuth state nonce for ttl.
	SaveAuthState(ctx context.Context, state string, ttl time.Duration) error
	// ConsumeAuthState reports whether state was issued and deletes it.
	ConsumeAuthState(ctx context.Context, state string) (bool, error)

	RaiseReconnect(ctx context.Context, signal domain.ReconnectSignal) error
	// Reconnect returns the active signal, or nil.
	Reconnect(ctx context.Context) (*domain.ReconnectSignal, error)

	SaveLastSync(ctx context.Context, status domain.SyncStatus) error
	// LastSync returns the most recent sync status, or nil if none ran yet.
	LastSync(ctx context.Context) (*domain.SyncStatus, error)
}

// Store is the full persisted state.
type Store interface {
	CredentialStore
	LinkStore
	SettingsStore
	StateStore

	Ping(ctx context.Context) error
	Close() error
}
