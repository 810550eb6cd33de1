// Package auth implements the credential lifecycle for the single linked
// Withings account: the one-time authorization-code exchange, refresh-token
// rotation, and the expiry policy that decides when a refresh is due.
//
// ValidToken is the only entry point other components should use to obtain a
// bearer token; it hides the expiry check and the refresh entirely.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/andrewbearsley/withings-skill/credstore"
	"github.com/rs/zerolog/log"
)

// Skew is the early-refresh margin subtracted from the nominal expiry, so a
// token never expires mid-flight during an API call started just before the
// deadline.
const Skew = 300 * time.Second

// Service orchestrates authorization and refresh using its dependencies.
// Every operation re-reads the store; no credential state is cached across
// calls, so independent process invocations racing on the same store stay
// consistent (the loser of a concurrent refresh gets a ProviderError).
type Service struct {
	store     credstore.Store
	exchanger TokenExchanger
	now       func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the wall clock used for expiry decisions.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService is the constructor for the auth service.
func NewService(store credstore.Store, exchanger TokenExchanger, opts ...ServiceOption) *Service {
	s := &Service{
		store:     store,
		exchanger: exchanger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authorize completes the interactive flow: it validates the redirect URL the
// user pasted back against the state nonce, exchanges the authorization code,
// and persists the resulting credential, overwriting any prior one.
// Nothing is persisted on any failure.
func (s *Service) Authorize(ctx context.Context, stateToken, redirectURL string) (*credstore.Credential, error) {
	parsed, err := url.Parse(redirectURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redirect URL: %w", err)
	}
	query := parsed.Query()

	if query.Get("state") != stateToken {
		return nil, ErrStateMismatch
	}

	code := query.Get("code")
	if code == "" {
		return nil, ErrMissingCode
	}

	grant, err := s.exchanger.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	cred := s.credentialFromGrant(grant, "")
	if err := s.store.Save(ctx, cred); err != nil {
		return nil, &PersistError{Err: err}
	}

	log.Info().Str("user_id", cred.UserID).Msg("Account authorized and credential saved")
	return cred, nil
}

// Refresh rotates the stored credential: it sends the current refresh token
// to the provider and persists the returned token pair before reporting
// success. A single call makes exactly one network attempt; retry policy
// belongs to the caller. On ProviderError or TransportError the store is left
// untouched, so a failed attempt can be retried with the same refresh token.
func (s *Service) Refresh(ctx context.Context) (*credstore.Credential, error) {
	cred, err := s.store.Load(ctx)
	if errors.Is(err, credstore.ErrNotFound) {
		return nil, ErrNotAuthorized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}

	grant, err := s.exchanger.RefreshGrant(ctx, cred.RefreshToken)
	if err != nil {
		return nil, err
	}

	// The refresh token in the grant supersedes the stored one. Persisting
	// must happen before success is reported: a crash after this point would
	// only lose an already-saved credential, never burn an unsaved one.
	rotated := s.credentialFromGrant(grant, cred.UserID)
	if err := s.store.Save(ctx, rotated); err != nil {
		return nil, &PersistError{Err: err}
	}

	log.Info().Int64("expires_at", rotated.ExpiresAt).Msg("Token refreshed and saved")
	return rotated, nil
}

// ValidToken returns a bearer token that is good for at least Skew from now,
// refreshing first when the stored one is due. Refresh failures propagate
// verbatim; losing API access is never silent.
func (s *Service) ValidToken(ctx context.Context) (string, error) {
	cred, err := s.store.Load(ctx)
	if errors.Is(err, credstore.ErrNotFound) {
		return "", ErrNotAuthorized
	}
	if err != nil {
		return "", fmt.Errorf("failed to load credential: %w", err)
	}

	if !s.expiring(cred) {
		return cred.AccessToken, nil
	}

	log.Debug().Int64("expires_at", cred.ExpiresAt).Msg("Access token due for refresh")
	if _, err := s.Refresh(ctx); err != nil {
		return "", err
	}

	// Re-read rather than trusting the in-memory copy, so a concurrent
	// invocation that won a refresh race still yields the live token.
	cred, err = s.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to re-load credential after refresh: %w", err)
	}
	return cred.AccessToken, nil
}

// expiring reports whether the credential is due for refresh. The >= tie-break
// means a token expiring in exactly Skew is already due, trading an extra
// refresh for availability.
func (s *Service) expiring(cred *credstore.Credential) bool {
	deadline := time.Unix(cred.ExpiresAt, 0).Add(-Skew)
	return !s.now().Before(deadline)
}

// credentialFromGrant computes the absolute expiry locally at the moment the
// grant is received; the provider only returns a relative expires_in.
func (s *Service) credentialFromGrant(grant *Grant, fallbackUserID string) *credstore.Credential {
	userID := grant.UserID
	if userID == "" {
		userID = fallbackUserID
	}
	return &credstore.Credential{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    s.now().Unix() + grant.ExpiresIn,
		UserID:       userID,
	}
}
