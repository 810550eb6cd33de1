package auth

import (
	"errors"
	"fmt"
)

// Sentinel errors for failures where no extra payload is needed.
var (
	// ErrNotAuthorized means no credential has been stored yet.
	ErrNotAuthorized = errors.New("not authorized yet; run 'withings authorize' to link an account")

	// ErrStateMismatch means the state parameter in the pasted redirect URL
	// does not match the locally generated nonce. This signals a possible
	// CSRF or a stale/reused URL and the flow must be restarted.
	ErrStateMismatch = errors.New("state parameter does not match; restart the authorization flow and paste the new redirect URL")

	// ErrMissingCode means the pasted redirect URL carries no authorization code.
	ErrMissingCode = errors.New("no authorization code found in the redirect URL; make sure to paste the full URL after granting access")
)

// ProviderError is a well-formed rejection from the Withings token endpoint
// (envelope status != 0). A rejected refresh usually means the refresh token
// was already rotated or revoked, which requires re-authorization; it must
// never be blind-retried.
type ProviderError struct {
	Status int
	Detail string
}

func (e *ProviderError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("provider rejected the request (status %d); if this persists, run 'withings authorize' again", e.Status)
	}
	return fmt.Sprintf("provider rejected the request (status %d): %s; if this persists, run 'withings authorize' again", e.Status, e.Detail)
}

// TransportError covers timeouts, connection failures, and malformed
// (non-JSON or incomplete) responses. Unlike ProviderError, these are safe to
// retry later at the caller's discretion; the stored credential is untouched.
type TransportError struct {
	Op  string // "authorization_code" or "refresh_token"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("token endpoint %s request failed: %v; this may be transient, retry later", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PersistError means the provider accepted the request but saving the rotated
// credential failed. This is a hard error distinct from a network failure: the
// old refresh token is already invalidated, so losing the new one means the
// account must be re-authorized.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("token exchange succeeded but the rotated credential could not be saved: %v", e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
