package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
	"github.com/MrSnakeDoc/ghclip/internal/utils"
)

// ExchangeResult is the token returned for an authorization code.
type ExchangeResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}

// TokenExchanger trades an authorization code for a user token. The client
// secret needed for this lives only on the exchanger's side.
type TokenExchanger interface {
	Exchange(ctx context.Context, code, redirectURI string) (*ExchangeResult, error)
}

// RelayClient calls a stateless token-exchange relay over HTTP.
//
// The relay accepts POST {code, redirect_uri} and answers
// {access_token, token_type, scope}, or {error, error_description} on failure.
type RelayClient struct {
	url  string
	http *http.Client
}

func NewRelayClient(url string, httpClient *http.Client) *RelayClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RelayClient{url: url, http: httpClient}
}

type relayRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

type relayError struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

func (c *RelayClient) Exchange(ctx context.Context, code, redirectURI string) (*ExchangeResult, error) {
	payload, err := json.Marshal(relayRequest{Code: code, RedirectURI: redirectURI})
	if err != nil {
		return nil, fmt.Errorf("failed to encode exchange request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Op: "token exchange", Err: err}
	}
	defer utils.DrainClose(resp.Body)

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, &domain.NetworkError{Op: "token exchange", Err: err}
	}

	var rerr relayError
	_ = json.Unmarshal(body, &rerr)

	if resp.StatusCode != http.StatusOK || rerr.Error != "" {
		msg := rerr.Description
		if msg == "" {
			msg = rerr.Error
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &domain.AuthError{Reason: "code exchange failed", Err: &domain.APIError{Status: resp.StatusCode, Message: msg}}
	}

	var out ExchangeResult
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode exchange response: %w", err)
	}
	if out.AccessToken == "" {
		return nil, &domain.AuthError{Reason: "code exchange returned no access token"}
	}
	return &out, nil
}
