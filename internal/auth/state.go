package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewState returns 16 random bytes, hex encoded, for use as an OAuth state nonce.
func NewState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
