package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andrewbearsley/withings-skill/auth"
	"github.com/andrewbearsley/withings-skill/credstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	cred      *credstore.Credential
	loadErr   error
	saveErr   error
	saveCalls int
}

func (m *mockStore) Load(ctx context.Context) (*credstore.Credential, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.cred == nil {
		return nil, credstore.ErrNotFound
	}
	copied := *m.cred
	return &copied, nil
}

func (m *mockStore) Save(ctx context.Context, cred *credstore.Credential) error {
	m.saveCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	copied := *cred
	m.cred = &copied
	return nil
}

type mockExchanger struct {
	grant        *auth.Grant
	exchangeErr  error
	refreshErr   error
	exchangeCnt  int
	refreshCnt   int
	seenCode     string
	seenRefresh  string
}

func (m *mockExchanger) ExchangeCode(ctx context.Context, code string) (*auth.Grant, error) {
	m.exchangeCnt++
	m.seenCode = code
	if m.exchangeErr != nil {
		return nil, m.exchangeErr
	}
	return m.grant, nil
}

func (m *mockExchanger) RefreshGrant(ctx context.Context, refreshToken string) (*auth.Grant, error) {
	m.refreshCnt++
	m.seenRefresh = refreshToken
	if m.refreshErr != nil {
		return nil, m.refreshErr
	}
	return m.grant, nil
}

var testNow = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func newService(store *mockStore, exchanger *mockExchanger) *auth.Service {
	return auth.NewService(store, exchanger, auth.WithClock(func() time.Time { return testNow }))
}

func storedCredential(expiresAt time.Time) *credstore.Credential {
	return &credstore.Credential{
		AccessToken:  "stored-access",
		RefreshToken: "stored-refresh",
		ExpiresAt:    expiresAt.Unix(),
		UserID:       "12345",
	}
}

func freshGrant() *auth.Grant {
	return &auth.Grant{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		ExpiresIn:    10800,
		UserID:       "12345",
	}
}

func TestValidToken_WhenTokenIsValid(t *testing.T) {
	store := &mockStore{cred: storedCredential(testNow.Add(1 * time.Hour))}
	exchanger := &mockExchanger{grant: freshGrant()}
	service := newService(store, exchanger)

	token, err := service.ValidToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "stored-access", token)
	assert.Zero(t, exchanger.refreshCnt, "no refresh should happen for a valid token")
}

func TestValidToken_IsIdempotentWhenValid(t *testing.T) {
	store := &mockStore{cred: storedCredential(testNow.Add(1 * time.Hour))}
	exchanger := &mockExchanger{grant: freshGrant()}
	service := newService(store, exchanger)

	_, err := service.ValidToken(context.Background())
	require.NoError(t, err)
	_, err = service.ValidToken(context.Background())
	require.NoError(t, err)

	assert.Zero(t, exchanger.refreshCnt)
	assert.Zero(t, exchanger.exchangeCnt)
}

func TestValidToken_WhenTokenIsExpiring(t *testing.T) {
	// Expires in exactly the skew margin: the >= tie-break makes it due.
	store := &mockStore{cred: storedCredential(testNow.Add(auth.Skew))}
	exchanger := &mockExchanger{grant: freshGrant()}
	service := newService(store, exchanger)

	token, err := service.ValidToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "new-access", token)
	assert.Equal(t, 1, exchanger.refreshCnt, "exactly one refresh call")
	assert.Equal(t, "stored-refresh", exchanger.seenRefresh)
}

func TestValidToken_WhenTokenIsExpired(t *testing.T) {
	store := &mockStore{cred: storedCredential(testNow.Add(-1000 * time.Second))}
	exchanger := &mockExchanger{grant: freshGrant()}
	service := newService(store, exchanger)

	token, err := service.ValidToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "new-access", token)
	assert.Equal(t, "new-refresh", store.cred.RefreshToken)
	assert.Equal(t, testNow.Unix()+10800, store.cred.ExpiresAt)
}

func TestValidToken_WhenNoCredential(t *testing.T) {
	store := &mockStore{}
	service := newService(store, &mockExchanger{grant: freshGrant()})

	_, err := service.ValidToken(context.Background())

	assert.ErrorIs(t, err, auth.ErrNotAuthorized)
}

func TestValidToken_RefreshFailurePropagates(t *testing.T) {
	store := &mockStore{cred: storedCredential(testNow.Add(-1 * time.Hour))}
	transportErr := &auth.TransportError{Op: "refresh_token", Err: errors.New("timeout")}
	exchanger := &mockExchanger{refreshErr: transportErr}
	service := newService(store, exchanger)

	_, err := service.ValidToken(context.Background())

	var te *auth.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "stored-refresh", store.cred.RefreshToken, "store must be unchanged")
	assert.Zero(t, store.saveCalls)
}

func TestRefresh_PersistsRotatedCredential(t *testing.T) {
	store := &mockStore{cred: storedCredential(testNow.Add(-1000 * time.Second))}
	exchanger := &mockExchanger{grant: freshGrant()}
	service := newService(store, exchanger)

	cred, err := service.Refresh(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "new-access", cred.AccessToken)
	assert.Equal(t, "new-refresh", cred.RefreshToken)
	assert.Equal(t, testNow.Unix()+10800, cred.ExpiresAt)
	assert.Equal(t, 1, store.saveCalls)
	assert.Equal(t, cred, store.cred)
}

func TestRefresh_KeepsStoredUserIDWhenGrantOmitsIt(t *testing.T) {
	store := &mockStore{cred: storedCredential(testNow)}
	grant := freshGrant()
	grant.UserID = ""
	service := newService(store, &mockExchanger{grant: grant})

	cred, err := service.Refresh(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "12345", cred.UserID)
}

func TestRefresh_ProviderRejectionLeavesStoreIntact(t *testing.T) {
	store := &mockStore{cred: storedCredential(testNow.Add(-1 * time.Hour))}
	exchanger := &mockExchanger{refreshErr: &auth.ProviderError{Status: 401, Detail: "invalid refresh token"}}
	service := newService(store, exchanger)

	_, err := service.Refresh(context.Background())

	var pe *auth.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 401, pe.Status)
	assert.Equal(t, "stored-refresh", store.cred.RefreshToken,
		"a rejected refresh must not rotate the stored token")
	assert.Zero(t, store.saveCalls)
}

func TestRefresh_SaveFailureIsPersistError(t *testing.T) {
	store := &mockStore{
		cred:    storedCredential(testNow.Add(-1 * time.Hour)),
		saveErr: errors.New("disk full"),
	}
	service := newService(store, &mockExchanger{grant: freshGrant()})

	_, err := service.Refresh(context.Background())

	var pe *auth.PersistError
	require.ErrorAs(t, err, &pe)
	var te *auth.TransportError
	assert.False(t, errors.As(err, &te), "persist failure must not look like a network failure")
}

func TestRefresh_WhenNoCredential(t *testing.T) {
	service := newService(&mockStore{}, &mockExchanger{grant: freshGrant()})

	_, err := service.Refresh(context.Background())

	assert.ErrorIs(t, err, auth.ErrNotAuthorized)
}

func TestAuthorize_Success(t *testing.T) {
	store := &mockStore{}
	exchanger := &mockExchanger{grant: freshGrant()}
	service := newService(store, exchanger)

	cred, err := service.Authorize(context.Background(), "nonce-123",
		"https://example.com/callback?state=nonce-123&code=auth-code-xyz")

	require.NoError(t, err)
	assert.Equal(t, "auth-code-xyz", exchanger.seenCode)
	assert.Equal(t, "new-access", cred.AccessToken)
	assert.Equal(t, 1, store.saveCalls)
}

func TestAuthorize_OverwritesExistingCredential(t *testing.T) {
	store := &mockStore{cred: storedCredential(testNow.Add(1 * time.Hour))}
	service := newService(store, &mockExchanger{grant: freshGrant()})

	_, err := service.Authorize(context.Background(), "nonce",
		"https://example.com/callback?state=nonce&code=c")

	require.NoError(t, err)
	assert.Equal(t, "new-refresh", store.cred.RefreshToken)
}

func TestAuthorize_StateMismatch(t *testing.T) {
	store := &mockStore{}
	exchanger := &mockExchanger{grant: freshGrant()}
	service := newService(store, exchanger)

	_, err := service.Authorize(context.Background(), "expected-nonce",
		"https://example.com/callback?state=other-nonce&code=auth-code")

	assert.ErrorIs(t, err, auth.ErrStateMismatch)
	assert.Zero(t, exchanger.exchangeCnt, "the code must never be exchanged on a state mismatch")
	assert.Zero(t, store.saveCalls, "nothing may be persisted on a state mismatch")
}

func TestAuthorize_MissingCode(t *testing.T) {
	store := &mockStore{}
	service := newService(store, &mockExchanger{grant: freshGrant()})

	_, err := service.Authorize(context.Background(), "nonce",
		"https://example.com/callback?state=nonce")

	assert.ErrorIs(t, err, auth.ErrMissingCode)
	assert.Zero(t, store.saveCalls)
}

func TestAuthorize_ExchangeFailureNothingPersisted(t *testing.T) {
	store := &mockStore{}
	exchanger := &mockExchanger{exchangeErr: &auth.TransportError{Op: "authorization_code", Err: errors.New("connection refused")}}
	service := newService(store, exchanger)

	_, err := service.Authorize(context.Background(), "nonce",
		"https://example.com/callback?state=nonce&code=c")

	require.Error(t, err)
	assert.Zero(t, store.saveCalls)
}
