package redis

const (
	// KeyPrefix namespaces every key written by ghclip.
	KeyPrefix = "ghclip:"
	// KeyPrefixLink is the prefix for individual link records
	KeyPrefixLink = KeyPrefix + "link:"
	// KeyAllLinks is the list of every link id, oldest first
	KeyAllLinks = KeyPrefix + "links:all"
	// KeyPendingLinks is the FIFO list of link ids awaiting sync
	KeyPendingLinks = KeyPrefix + "links:pending"
	// KeyCredentials holds the single credential record
	KeyCredentials = KeyPrefix + "credentials"
	// KeySettings holds the settings bundle
	KeySettings = KeyPrefix + "settings"
	// KeyAwaitingInstallation is set while a GitHub App install is pending
	KeyAwaitingInstallation = KeyPrefix + "auth:awaiting_installation"
	// KeyPrefixAuthState is the prefix for issued OAuth state nonces
	KeyPrefixAuthState = KeyPrefix + "auth:state:"
	// KeyReconnect holds the reconnect-required signal
	KeyReconnect = KeyPrefix + "signal:reconnect"
	// KeyLastSync holds the last sync status
	KeyLastSync = KeyPrefix + "sync:last"
)

// LinkKey returns the Redis key for a link record
func LinkKey(id string) string {
	return KeyPrefixLink + id
}

// AuthStateKey returns the Redis key for an OAuth state nonce
func AuthStateKey(state string) string {
	return KeyPrefixAuthState + state
}
