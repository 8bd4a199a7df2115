package auth

import "errors"

var (
	// ErrStateMismatch is returned when an OAuth callback carries a state
	// nonce that was never issued, already used, or expired.
	ErrStateMismatch = errors.New("oauth state mismatch")

	// ErrNotAwaitingInstallation is returned when installation polling starts
	// without a GitHub App user token waiting for its installation.
	ErrNotAwaitingInstallation = errors.New("no github app authorization is awaiting installation")

	// ErrInstallationTimeout is returned when the app was not installed before
	// the polling deadline. The user token is kept so polling can resume.
	ErrInstallationTimeout = errors.New("timed out waiting for github app installation")

	// ErrDeviceFlowTimeout is returned when the user did not approve the
	// device code before the polling ceiling.
	ErrDeviceFlowTimeout = errors.New("timed out waiting for device authorization")

	// ErrAccessDenied is returned when the user declined the device authorization.
	ErrAccessDenied = errors.New("device authorization was denied")

	// ErrDeviceCodeExpired is returned when GitHub expired the device code.
	ErrDeviceCodeExpired = errors.New("device code expired")
)
