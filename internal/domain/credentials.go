package domain

import "time"

// AuthMethod tags the active credential variant.
type AuthMethod string

const (
	AuthNone        AuthMethod = ""
	AuthManual      AuthMethod = "manual"
	AuthLegacyOAuth AuthMethod = "oauth"
	AuthGitHubApp   AuthMethod = "github_app"
)

// User is the subset of the GitHub user object kept alongside credentials.
type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Installation identifies a GitHub App installation on the user's account.
type Installation struct {
	ID      int64  `json:"id"`
	AppID   int64  `json:"app_id"`
	AppSlug string `json:"app_slug"`
	Account string `json:"account,omitempty"`
}

// ManualCredentials holds a personal access token entered by the user.
type ManualCredentials struct {
	Token string `json:"token"`
}

// LegacyOAuthCredentials holds a token obtained through the OAuth device flow.
type LegacyOAuthCredentials struct {
	AccessToken string `json:"accessToken"`
	User        *User  `json:"user,omitempty"`
}

// GitHubAppCredentials holds the user-to-server token and, once the app is
// installed, the installation and its short-lived installation token.
type GitHubAppCredentials struct {
	UserToken               string        `json:"userToken"`
	User                    *User         `json:"userInfo,omitempty"`
	Installation            *Installation `json:"installation,omitempty"`
	InstallationToken       string        `json:"installationToken,omitempty"`
	InstallationTokenExpiry time.Time     `json:"installationTokenExpiry,omitzero"`
}

// Installed reports whether an installation and a token for it are present.
func (c *GitHubAppCredentials) Installed() bool {
	return c != nil && c.Installation != nil && c.InstallationToken != ""
}

// Credentials is a tagged union: Method selects which of the variant
// pointers is populated and the others are always nil. Records are always
// replaced as a whole so a method switch never leaves stale secrets behind.
type Credentials struct {
	Method AuthMethod              `json:"authMethod"`
	Manual *ManualCredentials      `json:"manual,omitempty"`
	Legacy *LegacyOAuthCredentials `json:"oauth,omitempty"`
	App    *GitHubAppCredentials   `json:"githubApp,omitempty"`
}

func NewManualCredentials(token string) Credentials {
	return Credentials{Method: AuthManual, Manual: &ManualCredentials{Token: token}}
}

func NewLegacyOAuthCredentials(accessToken string, user *User) Credentials {
	return Credentials{Method: AuthLegacyOAuth, Legacy: &LegacyOAuthCredentials{AccessToken: accessToken, User: user}}
}

func NewGitHubAppCredentials(app GitHubAppCredentials) Credentials {
	return Credentials{Method: AuthGitHubApp, App: &app}
}

// Configured reports whether the active variant carries a usable secret.
func (c Credentials) Configured() bool {
	switch c.Method {
	case AuthManual:
		return c.Manual != nil && c.Manual.Token != ""
	case AuthLegacyOAuth:
		return c.Legacy != nil && c.Legacy.AccessToken != ""
	case AuthGitHubApp:
		return c.App.Installed()
	default:
		return false
	}
}

// Login returns the GitHub login associated with the credentials, if known.
func (c Credentials) Login() string {
	switch {
	case c.Legacy != nil && c.Legacy.User != nil:
		return c.Legacy.User.Login
	case c.App != nil && c.App.User != nil:
		return c.App.User.Login
	default:
		return ""
	}
}

const redacted = "***REDACTED***"

// Redacted returns a copy safe for logging.
func (c Credentials) Redacted() Credentials {
	out := Credentials{Method: c.Method}
	if c.Manual != nil {
		out.Manual = &ManualCredentials{Token: redact(c.Manual.Token)}
	}
	if c.Legacy != nil {
		out.Legacy = &LegacyOAuthCredentials{AccessToken: redact(c.Legacy.AccessToken), User: c.Legacy.User}
	}
	if c.App != nil {
		app := *c.App
		app.UserToken = redact(app.UserToken)
		app.InstallationToken = redact(app.InstallationToken)
		out.App = &app
	}
	return out
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return redacted
}
