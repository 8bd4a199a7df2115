package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
)

// AwaitingInstallation reports whether a GitHub App installation is pending.
func (s *Store) AwaitingInstallation(ctx context.Context) (bool, error) {
	n, err := s.client.Exists(ctx, KeyAwaitingInstallation).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read awaiting flag: %w", err)
	}
	return n > 0, nil
}

// SetAwaitingInstallation raises or lowers the awaiting-installation flag.
func (s *Store) SetAwaitingInstallation(ctx context.Context, awaiting bool) error {
	var err error
	if awaiting {
		err = s.client.Set(ctx, KeyAwaitingInstallation, "1", 0).Err()
	} else {
		err = s.client.Del(ctx, KeyAwaitingInstallation).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to update awaiting flag: %w", err)
	}
	return nil
}

// SaveAuthState stores an OAuth state nonce with an expiry.
func (s *Store) SaveAuthState(ctx context.Context, state string, ttl time.Duration) error {
	if err := s.client.Set(ctx, AuthStateKey(state), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to save auth state: %w", err)
	}
	return nil
}

// ConsumeAuthState deletes the nonce and reports whether it existed.
func (s *Store) ConsumeAuthState(ctx context.Context, state string) (bool, error) {
	if state == "" {
		return false, nil
	}
	n, err := s.client.Del(ctx, AuthStateKey(state)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to consume auth state: %w", err)
	}
	return n > 0, nil
}

// RaiseReconnect stores the reconnect-required signal.
func (s *Store) RaiseReconnect(ctx context.Context, signal domain.ReconnectSignal) error {
	return s.setJSON(ctx, KeyReconnect, signal)
}

// Reconnect returns the active reconnect signal, or nil.
func (s *Store) Reconnect(ctx context.Context) (*domain.ReconnectSignal, error) {
	var signal domain.ReconnectSignal
	ok, err := s.getJSON(ctx, KeyReconnect, &signal)
	if err != nil || !ok {
		return nil, err
	}
	return &signal, nil
}

// SaveLastSync records the outcome of a sync run.
func (s *Store) SaveLastSync(ctx context.Context, status domain.SyncStatus) error {
	return s.setJSON(ctx, KeyLastSync, status)
}

// LastSync returns the last recorded sync status, or nil.
func (s *Store) LastSync(ctx context.Context) (*domain.SyncStatus, error) {
	var status domain.SyncStatus
	ok, err := s.getJSON(ctx, KeyLastSync, &status)
	if err != nil || !ok {
		return nil, err
	}
	return &status, nil
}
