package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
	"github.com/MrSnakeDoc/ghclip/internal/github"
	"github.com/MrSnakeDoc/ghclip/internal/logger"
	"github.com/MrSnakeDoc/ghclip/internal/store"
)

// DeviceFlowTimeout caps how long a device code is polled.
const DeviceFlowTimeout = 15 * time.Minute

// DefaultWebURL is the GitHub web origin hosting the OAuth endpoints.
const DefaultWebURL = "https://github.com"

// DeviceCode is what the user needs to approve a device authorization.
type DeviceCode struct {
	UserCode        string    `json:"user_code"`
	VerificationURI string    `json:"verification_uri"`
	ExpiresAt       time.Time `json:"expires_at"`
	Interval        int64     `json:"interval"`

	resp *oauth2.DeviceAuthResponse
}

// DeviceFlow runs the legacy OAuth device authorization grant and stores the
// resulting token as LegacyOAuth credentials.
type DeviceFlow struct {
	cfg     *oauth2.Config
	api     *github.Client
	creds   store.CredentialStore
	log     logger.Logger
	timeout time.Duration
}

// NewDeviceFlow builds a device flow for clientID. webURL overrides the
// GitHub origin for the device and token endpoints (tests, GHES).
func NewDeviceFlow(clientID, webURL string, api *github.Client, creds store.CredentialStore, log logger.Logger) *DeviceFlow {
	endpoint := oauthgithub.Endpoint
	if webURL = strings.TrimRight(webURL, "/"); webURL != "" && webURL != DefaultWebURL {
		endpoint = oauth2.Endpoint{
			AuthURL:       webURL + "/login/oauth/authorize",
			TokenURL:      webURL + "/login/oauth/access_token",
			DeviceAuthURL: webURL + "/login/device/code",
		}
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	return &DeviceFlow{
		cfg: &oauth2.Config{
			ClientID: clientID,
			Scopes:   []string{"repo", "user"},
			Endpoint: endpoint,
		},
		api:     api,
		creds:   creds,
		log:     log,
		timeout: DeviceFlowTimeout,
	}
}

// WithTimeout overrides the polling ceiling.
func (f *DeviceFlow) WithTimeout(d time.Duration) *DeviceFlow {
	f.timeout = d
	return f
}

// Start requests a device and user code.
func (f *DeviceFlow) Start(ctx context.Context) (*DeviceCode, error) {
	if f.cfg.ClientID == "" {
		return nil, &domain.ConfigError{Reason: "oauth client id is not configured"}
	}

	resp, err := f.cfg.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start device flow: %w", err)
	}

	f.log.Info("🔑 device authorization started",
		logger.String("verification_uri", resp.VerificationURI),
		logger.Time("expires_at", resp.Expiry))

	return &DeviceCode{
		UserCode:        resp.UserCode,
		VerificationURI: resp.VerificationURI,
		ExpiresAt:       resp.Expiry,
		Interval:        resp.Interval,
		resp:            resp,
	}, nil
}

// Poll waits for the user to approve code, then stores the token.
// authorization_pending keeps polling and slow_down adds 5s to the interval;
// expired_token and access_denied end the flow. Polling stops after the
// flow timeout or when ctx is cancelled.
func (f *DeviceFlow) Poll(ctx context.Context, code *DeviceCode) (*domain.User, error) {
	if code == nil || code.resp == nil {
		return nil, fmt.Errorf("device code was not issued by Start")
	}

	pollCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	tok, err := f.cfg.DeviceAccessToken(pollCtx, code.resp)
	if err != nil {
		return nil, f.classify(ctx, pollCtx, err)
	}

	user, err := f.api.GetUser(ctx, "token "+tok.AccessToken)
	if err != nil {
		return nil, err
	}

	if err := f.creds.SaveCredentials(ctx, domain.NewLegacyOAuthCredentials(tok.AccessToken, user)); err != nil {
		return nil, fmt.Errorf("failed to save credentials: %w", err)
	}

	f.log.Info("✅ device authorization complete", logger.String("login", user.Login))
	return user, nil
}

func (f *DeviceFlow) classify(parent, pollCtx context.Context, err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		switch rerr.ErrorCode {
		case "access_denied":
			return ErrAccessDenied
		case "expired_token":
			return ErrDeviceCodeExpired
		}
		return fmt.Errorf("device flow failed: %w", err)
	}

	if parent.Err() != nil {
		return parent.Err()
	}
	if pollCtx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return ErrDeviceFlowTimeout
	}
	return fmt.Errorf("device flow failed: %w", err)
}
