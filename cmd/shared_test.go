package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/andrewbearsley/withings-skill/auth"
	"github.com/andrewbearsley/withings-skill/credstore"
	"github.com/andrewbearsley/withings-skill/pkg/clierr"
	"github.com/stretchr/testify/assert"
)

func TestUserError_Mapping(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		wantType clierr.Type
	}{
		{"not authorized", auth.ErrNotAuthorized, clierr.NotAuthorized},
		{"store missing", credstore.ErrNotFound, clierr.NotAuthorized},
		{"store corrupt", fmt.Errorf("%w: bad json", credstore.ErrCorrupt), clierr.NotAuthorized},
		{"state mismatch", auth.ErrStateMismatch, clierr.Validation},
		{"missing code", auth.ErrMissingCode, clierr.Validation},
		{"provider rejection", &auth.ProviderError{Status: 401, Detail: "invalid refresh token"}, clierr.Provider},
		{"transport failure", &auth.TransportError{Op: "refresh_token", Err: errors.New("timeout")}, clierr.Transport},
		{"persist failure", &auth.PersistError{Err: errors.New("disk full")}, clierr.Internal},
		{"unknown", errors.New("boom"), clierr.Internal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := userError(tc.err)
			assert.Equal(t, tc.wantType, mapped.Type)
			assert.NotEmpty(t, mapped.Message)
		})
	}
}

// A rejected refresh and a network failure need different corrective actions,
// so their messages must be distinguishable.
func TestUserError_ProviderAndTransportMessagesDiffer(t *testing.T) {
	provider := userError(&auth.ProviderError{Status: 401, Detail: "invalid refresh token"})
	transport := userError(&auth.TransportError{Op: "refresh_token", Err: errors.New("timeout")})

	assert.NotEqual(t, provider.Message, transport.Message)
	assert.Contains(t, provider.Message, "authorize")
	assert.Contains(t, transport.Message, "retry")
}

func TestUserError_WrappedErrorsStillMatch(t *testing.T) {
	wrapped := fmt.Errorf("failed to load credential: %w", auth.ErrNotAuthorized)
	assert.Equal(t, clierr.NotAuthorized, userError(wrapped).Type)
}
