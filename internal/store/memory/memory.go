package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
	"github.com/MrSnakeDoc/ghclip/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps all state in process memory. It serves tests and runs started
// with GHCLIP_STORE=memory; nothing survives a restart.
type Store struct {
	mu         sync.RWMutex
	links      map[string]domain.Bookmark // ID -> record
	all        []string                   // every link id, oldest first
	pending    []string                   // ids awaiting sync, FIFO
	creds      domain.Credentials
	settings   *domain.Settings
	awaiting   bool
	authStates map[string]time.Time // nonce -> expiry
	reconnect  *domain.ReconnectSignal
	lastSync   *domain.SyncStatus
	now        func() time.Time
}

// NewStore creates an empty memory store.
func NewStore() *Store {
	return &Store{
		links:      make(map[string]domain.Bookmark),
		authStates: make(map[string]time.Time),
		now:        time.Now,
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

// ─────────────────────────────
// Credentials
// ─────────────────────────────

func (s *Store) Credentials(context.Context) (domain.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCredentials(s.creds), nil
}

func (s *Store) SaveCredentials(_ context.Context, creds domain.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = cloneCredentials(creds)
	if creds.Configured() {
		s.awaiting = false
		s.reconnect = nil
	}
	return nil
}

func (s *Store) ClearCredentials(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = domain.Credentials{}
	s.awaiting = false
	return nil
}

// cloneCredentials copies the variant structs so callers cannot mutate the
// stored record through shared pointers.
func cloneCredentials(c domain.Credentials) domain.Credentials {
	out := domain.Credentials{Method: c.Method}
	if c.Manual != nil {
		m := *c.Manual
		out.Manual = &m
	}
	if c.Legacy != nil {
		l := *c.Legacy
		out.Legacy = &l
	}
	if c.App != nil {
		a := *c.App
		out.App = &a
	}
	return out
}

// ─────────────────────────────
// Links
// ─────────────────────────────

func (s *Store) AppendLink(_ context.Context, link domain.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.links[link.ID] = link
	s.all = append(s.all, link.ID)
	s.pending = append(s.pending, link.ID)
	return nil
}

func (s *Store) PendingLinks(context.Context) ([]domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(s.pending), nil
}

func (s *Store) AllLinks(context.Context) ([]domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(s.all), nil
}

func (s *Store) DeleteLink(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.links[id]; !ok {
		return fmt.Errorf("link %s: %w", id, store.ErrNotFound)
	}
	delete(s.links, id)
	s.all = slices.DeleteFunc(s.all, func(v string) bool { return v == id })
	s.pending = slices.DeleteFunc(s.pending, func(v string) bool { return v == id })
	return nil
}

func (s *Store) RemovePending(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if i := slices.Index(s.pending, id); i >= 0 {
			s.pending = slices.Delete(s.pending, i, i+1)
		}
	}
	return nil
}

func (s *Store) resolve(ids []string) []domain.Bookmark {
	out := make([]domain.Bookmark, 0, len(ids))
	for _, id := range ids {
		if l, ok := s.links[id]; ok {
			l.Tags = slices.Clone(l.Tags)
			out = append(out, l)
		}
	}
	return out
}

// ─────────────────────────────
// Settings
// ─────────────────────────────

func (s *Store) Settings(context.Context) (domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return domain.DefaultSettings(), nil
	}
	return s.settings.WithDefaults(), nil
}

func (s *Store) SaveSettings(_ context.Context, settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = &settings
	return nil
}

// ─────────────────────────────
// Auth and sync state
// ─────────────────────────────

func (s *Store) AwaitingInstallation(context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.awaiting, nil
}

func (s *Store) SetAwaitingInstallation(_ context.Context, awaiting bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.awaiting = awaiting
	return nil
}

func (s *Store) SaveAuthState(_ context.Context, state string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authStates[state] = s.now().Add(ttl)
	return nil
}

func (s *Store) ConsumeAuthState(_ context.Context, state string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.authStates[state]
	if !ok {
		return false, nil
	}
	delete(s.authStates, state)
	return s.now().Before(expiry), nil
}

func (s *Store) RaiseReconnect(_ context.Context, signal domain.ReconnectSignal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnect = &signal
	return nil
}

func (s *Store) Reconnect(context.Context) (*domain.ReconnectSignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.reconnect == nil {
		return nil, nil
	}
	signal := *s.reconnect
	return &signal, nil
}

func (s *Store) SaveLastSync(_ context.Context, status domain.SyncStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSync = &status
	return nil
}

func (s *Store) LastSync(context.Context) (*domain.SyncStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastSync == nil {
		return nil, nil
	}
	status := *s.lastSync
	return &status, nil
}
