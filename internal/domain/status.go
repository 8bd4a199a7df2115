package domain

import "time"

// SyncStatus is the outcome of the most recent sync run, shown to the user
// as the status message.
type SyncStatus struct {
	At      time.Time `json:"at"`
	Success bool      `json:"success"`
	Count   int       `json:"count"`
	Paths   []string  `json:"paths,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// ReconnectSignal is raised when stored credentials were cleared after a
// revocation. It stays up until new credentials are saved.
type ReconnectSignal struct {
	Badge  string    `json:"badge"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// ReconnectBadge is the indicator shown while a reconnect is required.
const ReconnectBadge = "!"

// ReconnectReason is shown to the user after credentials were revoked.
const ReconnectReason = "GitHub authentication expired. Please reconnect in settings."
