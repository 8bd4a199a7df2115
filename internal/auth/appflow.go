package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
	"github.com/MrSnakeDoc/ghclip/internal/github"
	"github.com/MrSnakeDoc/ghclip/internal/logger"
	"github.com/MrSnakeDoc/ghclip/internal/store"
)

const (
	// StateTTL bounds how long an issued state nonce is accepted.
	StateTTL = 10 * time.Minute

	DefaultInstallPollInterval = 5 * time.Second
	DefaultInstallTimeout      = 10 * time.Minute
)

// AppConfig describes the registered GitHub App.
type AppConfig struct {
	ClientID       string
	Slug           string
	AppID          int64
	RedirectURI    string
	WebBaseURL     string
	PollInterval   time.Duration
	InstallTimeout time.Duration
}

func (c AppConfig) withDefaults() AppConfig {
	if c.WebBaseURL == "" {
		c.WebBaseURL = DefaultWebURL
	}
	c.WebBaseURL = strings.TrimRight(c.WebBaseURL, "/")
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultInstallPollInterval
	}
	if c.InstallTimeout <= 0 {
		c.InstallTimeout = DefaultInstallTimeout
	}
	return c
}

// AppStore is the slice of local state the app flow touches.
type AppStore interface {
	store.CredentialStore
	AwaitingInstallation(ctx context.Context) (bool, error)
	SetAwaitingInstallation(ctx context.Context, awaiting bool) error
	SaveAuthState(ctx context.Context, state string, ttl time.Duration) error
	ConsumeAuthState(ctx context.Context, state string) (bool, error)
	RaiseReconnect(ctx context.Context, signal domain.ReconnectSignal) error
}

// AppFlow drives the GitHub App authorization:
// NotAuthenticated -> AwaitingInstallation -> Installed.
// A revoked installation clears credentials back to NotAuthenticated.
type AppFlow struct {
	cfg      AppConfig
	api      *github.Client
	exchange TokenExchanger
	store    AppStore
	log      logger.Logger
}

func NewAppFlow(cfg AppConfig, api *github.Client, exchange TokenExchanger, st AppStore, log logger.Logger) *AppFlow {
	return &AppFlow{cfg: cfg.withDefaults(), api: api, exchange: exchange, store: st, log: log}
}

// Config returns the effective configuration.
func (f *AppFlow) Config() AppConfig { return f.cfg }

// IssueState creates a state nonce and remembers it for StateTTL.
func (f *AppFlow) IssueState(ctx context.Context) (string, error) {
	if f.cfg.ClientID == "" || f.cfg.Slug == "" {
		return "", &domain.ConfigError{Reason: "github app client id and slug are required"}
	}
	state, err := NewState()
	if err != nil {
		return "", err
	}
	if err := f.store.SaveAuthState(ctx, state, StateTTL); err != nil {
		return "", fmt.Errorf("failed to save state: %w", err)
	}
	return state, nil
}

// AuthorizeURL is the user authorization page for the app.
func (f *AppFlow) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", f.cfg.ClientID)
	if f.cfg.RedirectURI != "" {
		q.Set("redirect_uri", f.cfg.RedirectURI)
	}
	q.Set("state", state)
	return f.cfg.WebBaseURL + "/login/oauth/authorize?" + q.Encode()
}

// InstallURL is the installation page for the app, optionally preselecting a repository.
func (f *AppFlow) InstallURL(repoFullName string) string {
	u := f.cfg.WebBaseURL + "/apps/" + url.PathEscape(f.cfg.Slug) + "/installations/new"
	if repoFullName != "" {
		u += "?" + url.Values{"repository": {repoFullName}}.Encode()
	}
	return u
}

// Result is the outcome of an authorization step.
type Result struct {
	User                 *domain.User         `json:"user"`
	Installation         *domain.Installation `json:"installation,omitempty"`
	AwaitingInstallation bool                 `json:"awaitingInstallation"`
}

// CompleteAuthorization consumes state, exchanges code for a user token and
// looks for an installation of the app. Without one the user token is stored
// and the awaiting-installation flag is raised.
func (f *AppFlow) CompleteAuthorization(ctx context.Context, code, state string) (*Result, error) {
	if code == "" {
		return nil, &domain.ConfigError{Reason: "authorization code is missing"}
	}
	ok, err := f.store.ConsumeAuthState(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("failed to check state: %w", err)
	}
	if !ok {
		return nil, ErrStateMismatch
	}

	exchanged, err := f.exchange.Exchange(ctx, code, f.cfg.RedirectURI)
	if err != nil {
		return nil, err
	}
	userAuth := "Bearer " + exchanged.AccessToken

	user, err := f.api.GetUser(ctx, userAuth)
	if err != nil {
		return nil, err
	}

	app := domain.GitHubAppCredentials{UserToken: exchanged.AccessToken, User: user}

	inst, err := f.findInstallation(ctx, userAuth)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		if err := f.store.SaveCredentials(ctx, domain.NewGitHubAppCredentials(app)); err != nil {
			return nil, fmt.Errorf("failed to save credentials: %w", err)
		}
		if err := f.store.SetAwaitingInstallation(ctx, true); err != nil {
			return nil, fmt.Errorf("failed to set awaiting flag: %w", err)
		}
		f.log.Info("⏳ app authorized, waiting for installation", logger.String("login", user.Login))
		return &Result{User: user, AwaitingInstallation: true}, nil
	}

	installed, err := f.install(ctx, app, inst)
	if err != nil {
		return nil, err
	}
	return &Result{User: user, Installation: installed.Installation}, nil
}

// AwaitInstallation polls the user's installations every PollInterval until
// the app shows up, ctx is cancelled or InstallTimeout passes. On timeout the
// user token and the awaiting flag are kept so polling can be resumed.
func (f *AppFlow) AwaitInstallation(ctx context.Context) (*Result, error) {
	creds, err := f.store.Credentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	awaiting, err := f.store.AwaitingInstallation(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read awaiting flag: %w", err)
	}
	if !awaiting || creds.Method != domain.AuthGitHubApp || creds.App == nil || creds.App.UserToken == "" {
		return nil, ErrNotAwaitingInstallation
	}
	app := *creds.App
	userAuth := "Bearer " + app.UserToken

	pollCtx, cancel := context.WithTimeout(ctx, f.cfg.InstallTimeout)
	defer cancel()

	ticker := time.NewTicker(f.cfg.PollInterval)
	defer ticker.Stop()

	f.log.Info("🔍 polling for app installation",
		logger.Duration("interval", f.cfg.PollInterval),
		logger.Duration("timeout", f.cfg.InstallTimeout))

	for {
		inst, err := f.findInstallation(pollCtx, userAuth)
		switch {
		case err == nil && inst != nil:
			installed, err := f.install(ctx, app, inst)
			if domain.IsRevoked(err) {
				return nil, f.revoke(ctx, err)
			}
			if err != nil {
				return nil, err
			}
			return &Result{User: installed.User, Installation: installed.Installation}, nil
		case domain.IsAuth(err):
			return nil, f.revoke(ctx, &domain.AuthError{Revoked: true, Reason: "user token rejected while waiting for installation", Err: err})
		case err != nil && pollCtx.Err() == nil:
			f.log.Warn("installation check failed", logger.Error(err))
		}

		select {
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, ErrInstallationTimeout
		case <-ticker.C:
		}
	}
}

func (f *AppFlow) findInstallation(ctx context.Context, userAuth string) (*github.Installation, error) {
	installs, err := f.api.ListUserInstallations(ctx, userAuth)
	if err != nil {
		return nil, err
	}
	for i := range installs {
		in := installs[i]
		if (f.cfg.Slug != "" && in.AppSlug == f.cfg.Slug) || (f.cfg.AppID != 0 && in.AppID == f.cfg.AppID) {
			return &in, nil
		}
	}
	return nil, nil
}

func (f *AppFlow) install(ctx context.Context, app domain.GitHubAppCredentials, inst *github.Installation) (domain.GitHubAppCredentials, error) {
	app.Installation = inst.Domain()
	installed, err := issueInstallationToken(ctx, f.api, app)
	if err != nil {
		return app, err
	}
	if err := f.store.SaveCredentials(ctx, domain.NewGitHubAppCredentials(installed)); err != nil {
		return app, fmt.Errorf("failed to save credentials: %w", err)
	}
	if err := f.store.SetAwaitingInstallation(ctx, false); err != nil {
		return app, fmt.Errorf("failed to clear awaiting flag: %w", err)
	}
	f.log.Info("✅ app installed",
		logger.Int64("installation_id", installed.Installation.ID),
		logger.String("account", installed.Installation.Account))
	return installed, nil
}

// revoke drops the dead authorization back to NotAuthenticated and raises
// the reconnect signal.
func (f *AppFlow) revoke(ctx context.Context, cause error) error {
	f.log.Error("❌ app authorization rejected, clearing credentials", logger.Error(cause))

	if err := f.store.ClearCredentials(ctx); err != nil {
		f.log.Error("failed to clear credentials", logger.Error(err))
	}
	signal := domain.ReconnectSignal{Badge: domain.ReconnectBadge, Reason: domain.ReconnectReason, At: time.Now()}
	if err := f.store.RaiseReconnect(ctx, signal); err != nil {
		f.log.Error("failed to raise reconnect signal", logger.Error(err))
	}
	return cause
}

// ─────────────────────────────
// Repositories
// ─────────────────────────────

func (f *AppFlow) installed(ctx context.Context) (domain.GitHubAppCredentials, error) {
	creds, err := f.store.Credentials(ctx)
	if err != nil {
		return domain.GitHubAppCredentials{}, fmt.Errorf("failed to load credentials: %w", err)
	}
	if creds.Method != domain.AuthGitHubApp || !creds.App.Installed() {
		return domain.GitHubAppCredentials{}, &domain.ConfigError{Reason: "github app is not installed"}
	}
	return *creds.App, nil
}

// Repositories lists the repositories the installation can reach.
func (f *AppFlow) Repositories(ctx context.Context, cred Credential) ([]github.Repository, error) {
	return f.api.ListInstallationRepositories(ctx, cred.HeaderValue)
}

// CreateRepository creates a repository for the user and grants the
// installation access to it.
func (f *AppFlow) CreateRepository(ctx context.Context, req github.CreateRepositoryRequest) (*github.Repository, error) {
	app, err := f.installed(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, &domain.ConfigError{Reason: "repository name is required"}
	}

	userAuth := "Bearer " + app.UserToken
	repo, err := f.api.CreateRepository(ctx, userAuth, req)
	if err != nil {
		return nil, err
	}
	if err := f.api.AddRepositoryToInstallation(ctx, userAuth, app.Installation.ID, repo.ID); err != nil {
		return repo, fmt.Errorf("repository %s created but not added to installation: %w", repo.FullName, err)
	}

	f.log.Info("📦 repository created", logger.String("repo", repo.FullName))
	return repo, nil
}
