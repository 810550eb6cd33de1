package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// stateTokenBytes is the entropy of the CSRF nonce sent with the
// authorization URL. 16 bytes is the minimum for the nonce to be unguessable.
const stateTokenBytes = 16

// NewStateToken generates a random state nonce for the authorization flow.
// It must be generated before the authorization URL is shown to the user and
// compared against the state parameter of the pasted redirect URL.
func NewStateToken() (string, error) {
	buf := make([]byte, stateTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
