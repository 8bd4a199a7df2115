package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
	"github.com/MrSnakeDoc/ghclip/internal/github"
	"github.com/MrSnakeDoc/ghclip/internal/logger"
	"github.com/MrSnakeDoc/ghclip/internal/store"
)

// Manual stores personal access tokens and handles logout.
type Manual struct {
	api   *github.Client
	creds store.CredentialStore
	log   logger.Logger
}

func NewManual(api *github.Client, creds store.CredentialStore, log logger.Logger) *Manual {
	return &Manual{api: api, creds: creds, log: log}
}

// SaveManualToken checks token against GET /user and stores it as the active method.
func (m *Manual) SaveManualToken(ctx context.Context, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, &domain.ConfigError{Reason: "token is empty"}
	}

	user, err := m.api.GetUser(ctx, "token "+token)
	if err != nil {
		return nil, err
	}

	if err := m.creds.SaveCredentials(ctx, domain.NewManualCredentials(token)); err != nil {
		return nil, fmt.Errorf("failed to save credentials: %w", err)
	}

	m.log.Info("🔑 manual token saved", logger.String("login", user.Login))
	return user, nil
}

// Logout drops every stored credential.
func (m *Manual) Logout(ctx context.Context) error {
	if err := m.creds.ClearCredentials(ctx); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	m.log.Info("👋 credentials cleared")
	return nil
}
