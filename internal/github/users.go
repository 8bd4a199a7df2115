package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
)

// Account is the owner of an installation or repository.
type Account struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
}

// Installation is a GitHub App installation as returned by /user/installations.
type Installation struct {
	ID      int64   `json:"id"`
	AppID   int64   `json:"app_id"`
	AppSlug string  `json:"app_slug"`
	Account Account `json:"account"`
}

// Domain converts to the form stored with credentials.
func (i Installation) Domain() *domain.Installation {
	return &domain.Installation{ID: i.ID, AppID: i.AppID, AppSlug: i.AppSlug, Account: i.Account.Login}
}

// Repository is the subset of a repository object ghclip uses.
type Repository struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	FullName      string  `json:"full_name"`
	Private       bool    `json:"private"`
	Owner         Account `json:"owner"`
	DefaultBranch string  `json:"default_branch"`
	HTMLURL       string  `json:"html_url"`
}

// InstallationToken is the answer of the installation token endpoint.
type InstallationToken struct {
	Token        string            `json:"token"`
	ExpiresAt    time.Time         `json:"expires_at"`
	Permissions  map[string]string `json:"permissions,omitempty"`
	Repositories []Repository      `json:"repositories,omitempty"`
}

// CreateRepositoryRequest describes a repository to create for the user.
type CreateRepositoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Private     bool   `json:"private"`
	AutoInit    bool   `json:"auto_init"`
}

// GetUser returns the authenticated user.
func (c *Client) GetUser(ctx context.Context, auth string) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, "/user", auth, nil, &user); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// ListUserInstallations lists the app installations the user token can see.
func (c *Client) ListUserInstallations(ctx context.Context, auth string) ([]Installation, error) {
	var out struct {
		TotalCount    int            `json:"total_count"`
		Installations []Installation `json:"installations"`
	}
	if err := c.do(ctx, http.MethodGet, "/user/installations", auth, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list installations: %w", err)
	}
	return out.Installations, nil
}

// CreateInstallationToken issues a fresh installation token using the user token.
// A 401 or 403 here means the user revoked the app or its installation.
func (c *Client) CreateInstallationToken(ctx context.Context, auth string, installationID int64) (*InstallationToken, error) {
	var tok InstallationToken
	path := fmt.Sprintf("/user/installations/%d/access_tokens", installationID)
	if err := c.do(ctx, http.MethodPost, path, auth, nil, &tok); err != nil {
		return nil, fmt.Errorf("failed to create installation token: %w", err)
	}
	if tok.Token == "" {
		return nil, fmt.Errorf("failed to create installation token: empty token in response")
	}
	return &tok, nil
}

// ListInstallationRepositories lists repositories the installation token can access.
func (c *Client) ListInstallationRepositories(ctx context.Context, auth string) ([]Repository, error) {
	var out struct {
		TotalCount   int          `json:"total_count"`
		Repositories []Repository `json:"repositories"`
	}
	if err := c.do(ctx, http.MethodGet, "/installation/repositories?per_page=100", auth, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list installation repositories: %w", err)
	}
	return out.Repositories, nil
}

// CreateRepository creates a repository for the user, initialised with a README
// so the default branch exists before the first shard is written.
func (c *Client) CreateRepository(ctx context.Context, auth string, req CreateRepositoryRequest) (*Repository, error) {
	req.AutoInit = true
	var repo Repository
	if err := c.do(ctx, http.MethodPost, "/user/repos", auth, req, &repo); err != nil {
		return nil, fmt.Errorf("failed to create repository %s: %w", req.Name, err)
	}
	return &repo, nil
}

// AddRepositoryToInstallation grants the installation access to a repository.
func (c *Client) AddRepositoryToInstallation(ctx context.Context, auth string, installationID, repoID int64) error {
	path := fmt.Sprintf("/user/installations/%d/repositories/%d", installationID, repoID)
	if err := c.do(ctx, http.MethodPut, path, auth, nil, nil); err != nil {
		return fmt.Errorf("failed to add repository to installation: %w", err)
	}
	return nil
}

// GetRepository fetches one repository. Used to test the configured target.
func (c *Client) GetRepository(ctx context.Context, auth, owner, repo string) (*Repository, error) {
	var r Repository
	path := fmt.Sprintf("/repos/%s/%s", url.PathEscape(owner), url.PathEscape(repo))
	if err := c.do(ctx, http.MethodGet, path, auth, nil, &r); err != nil {
		return nil, fmt.Errorf("failed to get repository %s/%s: %w", owner, repo, err)
	}
	return &r, nil
}

// ListUserRepositories lists the user's repositories, most recently updated first.
func (c *Client) ListUserRepositories(ctx context.Context, auth string) ([]Repository, error) {
	var repos []Repository
	if err := c.do(ctx, http.MethodGet, "/user/repos?sort=updated&per_page=100", auth, nil, &repos); err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}
	return repos, nil
}
