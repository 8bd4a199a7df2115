package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/MrSnakeDoc/ghclip/internal/auth"
	"github.com/MrSnakeDoc/ghclip/internal/domain"
	"github.com/MrSnakeDoc/ghclip/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ghclip/internal/logger"
	"github.com/MrSnakeDoc/ghclip/internal/store"
	"github.com/MrSnakeDoc/ghclip/internal/syncer"
)

const maxBody = 1 << 20

type errorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	Revoked bool   `json:"revoked,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the error taxonomy onto HTTP statuses. Auth is matched
// before config: missing credentials wrap a ConfigError in an AuthError.
func statusFor(err error) (int, string) {
	var (
		cfgErr      *domain.ConfigError
		authErr     *domain.AuthError
		conflictErr *domain.ConflictError
		apiErr      *domain.APIError
		netErr      *domain.NetworkError
	)
	switch {
	case errors.Is(err, syncer.ErrSyncInProgress):
		return http.StatusTooManyRequests, "busy"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, auth.ErrStateMismatch), errors.Is(err, domain.ErrMissingURL):
		return http.StatusBadRequest, "invalid"
	case errors.As(err, &authErr):
		return http.StatusUnauthorized, "auth"
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest, "config"
	case errors.As(err, &conflictErr):
		return http.StatusConflict, "conflict"
	case errors.As(err, &netErr):
		return http.StatusServiceUnavailable, "network"
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, "api"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(w http.ResponseWriter, d deps.Deps, err error) {
	status, kind := statusFor(err)
	if status >= http.StatusInternalServerError {
		d.Logger.Error("request failed", logger.String("kind", kind), logger.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind, Revoked: domain.IsRevoked(err)})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Kind: "invalid"})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
