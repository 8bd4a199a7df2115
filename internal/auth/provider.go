// Package auth obtains and refreshes GitHub credentials for the three
// supported methods and drives the interactive flows that create them.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
	"github.com/MrSnakeDoc/ghclip/internal/store"
)

// Credential is a ready-to-send Authorization header value.
// ExpiresAt is nil for tokens that do not expire.
type Credential struct {
	HeaderValue string
	ExpiresAt   *time.Time
}

// TokenProvider returns a credential that is valid right now, refreshing it
// first when the method supports refresh.
type TokenProvider interface {
	Method() domain.AuthMethod
	ValidCredential(ctx context.Context) (Credential, error)
}

// StaticProvider serves a token that is used verbatim and never refreshed.
// It backs both manual personal access tokens and legacy OAuth tokens.
type StaticProvider struct {
	method domain.AuthMethod
	token  string
}

func (p StaticProvider) Method() domain.AuthMethod { return p.method }

func (p StaticProvider) ValidCredential(context.Context) (Credential, error) {
	return Credential{HeaderValue: "token " + p.token}, nil
}

// Resolver picks the provider matching the stored auth method.
type Resolver struct {
	creds store.CredentialStore
	app   *AppProvider
}

// NewResolver builds a resolver. app serves the GitHub App method.
func NewResolver(creds store.CredentialStore, app *AppProvider) *Resolver {
	return &Resolver{creds: creds, app: app}
}

// Provider returns the provider for the active method. With nothing stored
// it fails with a non-revoked AuthError wrapping a ConfigError.
func (r *Resolver) Provider(ctx context.Context) (TokenProvider, error) {
	creds, err := r.creds.Credentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	switch creds.Method {
	case domain.AuthManual:
		if creds.Manual == nil || creds.Manual.Token == "" {
			return nil, notConfigured("manual token is empty")
		}
		return StaticProvider{method: domain.AuthManual, token: creds.Manual.Token}, nil
	case domain.AuthLegacyOAuth:
		if creds.Legacy == nil || creds.Legacy.AccessToken == "" {
			return nil, notConfigured("oauth access token is empty")
		}
		return StaticProvider{method: domain.AuthLegacyOAuth, token: creds.Legacy.AccessToken}, nil
	case domain.AuthGitHubApp:
		if r.app == nil {
			return nil, notConfigured("github app support is not configured")
		}
		return r.app, nil
	default:
		return nil, notConfigured("no authentication method configured")
	}
}

// ValidCredential resolves the provider and asks it for a credential.
func (r *Resolver) ValidCredential(ctx context.Context) (Credential, error) {
	p, err := r.Provider(ctx)
	if err != nil {
		return Credential{}, err
	}
	return p.ValidCredential(ctx)
}

// LastKnown returns whatever credential is stored, without refreshing. It is
// the fallback when a refresh fails for a transient reason.
func LastKnown(creds domain.Credentials) (Credential, bool) {
	switch creds.Method {
	case domain.AuthManual:
		if creds.Manual != nil && creds.Manual.Token != "" {
			return Credential{HeaderValue: "token " + creds.Manual.Token}, true
		}
	case domain.AuthLegacyOAuth:
		if creds.Legacy != nil && creds.Legacy.AccessToken != "" {
			return Credential{HeaderValue: "token " + creds.Legacy.AccessToken}, true
		}
	case domain.AuthGitHubApp:
		if creds.App.Installed() {
			exp := creds.App.InstallationTokenExpiry
			return Credential{HeaderValue: "Bearer " + creds.App.InstallationToken, ExpiresAt: &exp}, true
		}
	}
	return Credential{}, false
}

func notConfigured(reason string) error {
	return &domain.AuthError{Reason: reason, Err: &domain.ConfigError{Reason: reason}}
}
