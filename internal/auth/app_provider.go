package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/ghclip/internal/clock"
	"github.com/MrSnakeDoc/ghclip/internal/domain"
	"github.com/MrSnakeDoc/ghclip/internal/github"
	"github.com/MrSnakeDoc/ghclip/internal/logger"
	"github.com/MrSnakeDoc/ghclip/internal/store"
)

// RefreshThreshold is how long before expiry an installation token is
// considered unusable and must be replaced.
const RefreshThreshold = 5 * time.Minute

// AppProvider serves GitHub App installation tokens, issuing a new one with
// the user token whenever the stored one is within RefreshThreshold of expiry.
type AppProvider struct {
	creds store.CredentialStore
	api   *github.Client
	clock clock.Clock
	log   logger.Logger

	// mu serialises refreshes so concurrent callers issue a single token.
	mu sync.Mutex
}

func NewAppProvider(creds store.CredentialStore, api *github.Client, clk clock.Clock, log logger.Logger) *AppProvider {
	return &AppProvider{creds: creds, api: api, clock: clk, log: log}
}

func (p *AppProvider) Method() domain.AuthMethod { return domain.AuthGitHubApp }

// ValidCredential returns the stored installation token, refreshing it first
// when now >= expiry - RefreshThreshold. A 401/403 from the issuance endpoint
// is returned as AuthError{Revoked: true} and never retried.
func (p *AppProvider) ValidCredential(ctx context.Context) (Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	creds, err := p.creds.Credentials(ctx)
	if err != nil {
		return Credential{}, fmt.Errorf("failed to load credentials: %w", err)
	}
	if creds.Method != domain.AuthGitHubApp || creds.App == nil {
		return Credential{}, notConfigured("github app is not the active method")
	}
	app := *creds.App
	if app.Installation == nil {
		return Credential{}, notConfigured("github app is not installed yet")
	}

	if app.InstallationToken != "" && !NeedsRefresh(app.InstallationTokenExpiry, p.clock.Now()) {
		exp := app.InstallationTokenExpiry
		return Credential{HeaderValue: "Bearer " + app.InstallationToken, ExpiresAt: &exp}, nil
	}

	p.log.Info("🔄 refreshing installation token",
		logger.Int64("installation_id", app.Installation.ID),
		logger.Time("expires_at", app.InstallationTokenExpiry))

	refreshed, err := issueInstallationToken(ctx, p.api, app)
	if err != nil {
		return Credential{}, err
	}

	if err := p.creds.SaveCredentials(ctx, domain.NewGitHubAppCredentials(refreshed)); err != nil {
		return Credential{}, fmt.Errorf("failed to persist refreshed token: %w", err)
	}

	exp := refreshed.InstallationTokenExpiry
	return Credential{HeaderValue: "Bearer " + refreshed.InstallationToken, ExpiresAt: &exp}, nil
}

// NeedsRefresh reports whether a token expiring at expiry must be replaced at now.
// A zero expiry always needs a refresh.
func NeedsRefresh(expiry, now time.Time) bool {
	if expiry.IsZero() {
		return true
	}
	return !now.Before(expiry.Add(-RefreshThreshold))
}

// issueInstallationToken asks GitHub for a new installation token and returns
// app updated with it. Auth failures are terminal.
func issueInstallationToken(ctx context.Context, api *github.Client, app domain.GitHubAppCredentials) (domain.GitHubAppCredentials, error) {
	tok, err := api.CreateInstallationToken(ctx, "Bearer "+app.UserToken, app.Installation.ID)
	if err != nil {
		if domain.IsAuth(err) {
			return app, &domain.AuthError{Revoked: true, Reason: "installation token issuance rejected", Err: err}
		}
		return app, err
	}

	app.InstallationToken = tok.Token
	app.InstallationTokenExpiry = tok.ExpiresAt.UTC()
	return app, nil
}
