package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
)

// Credentials returns the stored credential record or a zero value.
func (s *Store) Credentials(ctx context.Context) (domain.Credentials, error) {
	var creds domain.Credentials
	if _, err := s.getJSON(ctx, KeyCredentials, &creds); err != nil {
		return domain.Credentials{}, err
	}
	return creds, nil
}

// SaveCredentials replaces the credential record in a single transaction.
func (s *Store) SaveCredentials(ctx context.Context, creds domain.Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, KeyCredentials, data, 0)
		if creds.Configured() {
			pipe.Del(ctx, KeyAwaitingInstallation, KeyReconnect)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

// ClearCredentials drops the credential record and the awaiting flag together.
func (s *Store) ClearCredentials(ctx context.Context) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, KeyCredentials, KeyAwaitingInstallation)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
