// Package withings implements the client side of the Withings OAuth2 token
// endpoint. See https://developer.withings.com/api-reference/#tag/oauth2 for
// the wire contract.
//
// Withings wraps every response in a `{status, error, body}` envelope where
// status 0 is success, instead of using HTTP status codes. Both the
// authorization-code exchange and the refresh share one request routine so the
// two flows can never drift apart in timeout or status handling.
package withings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andrewbearsley/withings-skill/auth"
	"github.com/rs/zerolog/log"
)

// Default Withings endpoints.
const (
	DefaultAuthorizeURL = "https://account.withings.com/oauth2_user/authorize2"
	DefaultTokenURL     = "https://wbsapi.withings.net/v2/oauth2"
	DefaultScope        = "user.metrics"
)

// requestTimeout bounds every token endpoint call. There is no mid-flight
// cancel beyond this; a call either completes or times out.
const requestTimeout = 30 * time.Second

// ClientConfig holds the provider-registration settings for a Client.
type ClientConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scope        string // defaults to DefaultScope
	AuthorizeURL string // defaults to DefaultAuthorizeURL
	TokenURL     string // defaults to DefaultTokenURL
}

// Client talks to the Withings token endpoint. It implements
// auth.TokenExchanger.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
}

// Compile-time check that Client implements auth.TokenExchanger.
var _ auth.TokenExchanger = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client used for token endpoint requests.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient creates a Client, filling unset endpoint fields with the Withings
// defaults.
func NewClient(cfg ClientConfig, opts ...ClientOption) *Client {
	if cfg.Scope == "" {
		cfg.Scope = DefaultScope
	}
	if cfg.AuthorizeURL == "" {
		cfg.AuthorizeURL = DefaultAuthorizeURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthorizeURL builds the consent URL to present to the user. The state nonce
// must come from auth.NewStateToken and be checked against the redirect URL
// the user pastes back.
func (c *Client) AuthorizeURL(state string) string {
	query := url.Values{
		"response_type": {"code"},
		"client_id":     {c.cfg.ClientID},
		"redirect_uri":  {c.cfg.RedirectURI},
		"scope":         {c.cfg.Scope},
		"state":         {state},
	}
	return c.cfg.AuthorizeURL + "?" + query.Encode()
}

// ExchangeCode trades a one-time authorization code for a fresh grant.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*auth.Grant, error) {
	return c.requestToken(ctx, "authorization_code", url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {c.cfg.RedirectURI},
	})
}

// RefreshGrant trades a refresh token for a fresh, rotated grant.
func (c *Client) RefreshGrant(ctx context.Context, refreshToken string) (*auth.Grant, error) {
	return c.requestToken(ctx, "refresh_token", url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	})
}

// tokenEnvelope is the Withings response wrapper. Status 0 is success; any
// other value is a well-formed rejection.
type tokenEnvelope struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
	Body   struct {
		AccessToken  string      `json:"access_token"`
		RefreshToken string      `json:"refresh_token"`
		ExpiresIn    int64       `json:"expires_in"`
		UserID       json.Number `json:"userid"`
	} `json:"body"`
}

// requestToken is the single transport-and-status routine shared by both
// grant types. Network, timeout, and malformed-body failures come back as
// *auth.TransportError; a parsed envelope with status != 0 comes back as
// *auth.ProviderError.
func (c *Client) requestToken(ctx context.Context, grantType string, form url.Values) (*auth.Grant, error) {
	form.Set("action", "requesttoken")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	log.Debug().Str("grant_type", grantType).Str("url", c.cfg.TokenURL).Msg("Requesting token")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &auth.TransportError{Op: grantType, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Debug().Err(err).Msg("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &auth.TransportError{Op: grantType, Err: fmt.Errorf("reading response body: %w", err)}
	}

	var env tokenEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &auth.TransportError{Op: grantType, Err: fmt.Errorf("malformed response: %w", err)}
	}

	if env.Status != 0 {
		log.Debug().Int("status", env.Status).Str("error", env.Error).Msg("Token request rejected")
		return nil, &auth.ProviderError{Status: env.Status, Detail: env.Error}
	}

	if env.Body.AccessToken == "" || env.Body.RefreshToken == "" || env.Body.ExpiresIn == 0 {
		return nil, &auth.TransportError{Op: grantType,
			Err: errors.New("malformed response: success envelope with incomplete body")}
	}

	log.Debug().Str("grant_type", grantType).Msg("Token request successful")
	return &auth.Grant{
		AccessToken:  env.Body.AccessToken,
		RefreshToken: env.Body.RefreshToken,
		ExpiresIn:    env.Body.ExpiresIn,
		UserID:       env.Body.UserID.String(),
	}, nil
}
