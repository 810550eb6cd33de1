package auth

import "context"

// Grant is the set of tokens returned by the provider's token endpoint for
// either grant type.
type Grant struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // seconds, relative to receipt
	UserID       string
}

// TokenExchanger defines the contract for any component that can talk to the
// provider's token endpoint. Both operations make exactly one network attempt.
type TokenExchanger interface {
	// ExchangeCode trades a one-time authorization code for a fresh grant.
	ExchangeCode(ctx context.Context, code string) (*Grant, error)

	// RefreshGrant trades a refresh token for a fresh grant. The returned
	// refresh token supersedes the one sent (rotation).
	RefreshGrant(ctx context.Context, refreshToken string) (*Grant, error)
}
