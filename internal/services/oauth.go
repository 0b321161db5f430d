package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/desertthunder/oauthcap/internal/server"
	"github.com/desertthunder/oauthcap/internal/shared"
	"golang.org/x/oauth2"
)

// OAuthClient performs the authorization code flow for one provider.
type OAuthClient struct {
	name       string
	config     *oauth2.Config
	httpClient *http.Client
}

// NewOAuthClient creates an [OAuthClient] for provider name.
//
// A nil httpClient uses [http.DefaultClient].
func NewOAuthClient(name string, p shared.ProviderConfig, redirectURL string, httpClient *http.Client) *OAuthClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OAuthClient{
		name: name,
		config: &oauth2.Config{
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  p.AuthURL,
				TokenURL: p.TokenURL,
			},
			RedirectURL: redirectURL,
			Scopes:      p.Scopes,
		},
		httpClient: httpClient,
	}
}

// Name returns the provider name used in the callback path.
func (c *OAuthClient) Name() string { return c.name }

// RedirectURL returns the loopback redirect URI.
func (c *OAuthClient) RedirectURL() string { return c.config.RedirectURL }

// AuthURL builds the authorization URL for s, including the S256 PKCE challenge.
func (c *OAuthClient) AuthURL(s *Session) string {
	return c.config.AuthCodeURL(s.State, oauth2.S256ChallengeOption(s.Verifier))
}

// Exchange trades an authorization code for tokens using the session's verifier.
func (c *OAuthClient) Exchange(ctx context.Context, s *Session, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.config.Exchange(ctx, code, oauth2.VerifierOption(s.Verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange failed: %w", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// Session is the per-attempt secret material of a login.
type Session struct {
	Provider string
	State    string
	Verifier string
}

// NewSession generates a fresh state token and PKCE verifier for provider.
func NewSession(provider string) (*Session, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, err
	}
	return &Session{Provider: provider, State: state, Verifier: oauth2.GenerateVerifier()}, nil
}

// Matches reports whether p was addressed to this session's provider.
func (s *Session) Matches(p server.Payload) bool {
	return p.Provider == s.Provider
}

// Verify validates a captured redirect and returns its authorization code.
func (s *Session) Verify(p server.Payload) (string, error) {
	if !s.Matches(p) {
		return "", fmt.Errorf("%w: callback for %q, expected %q", shared.ErrUnknownProvider, p.Provider, s.Provider)
	}

	state := server.Value(p.State)
	if subtle.ConstantTimeCompare([]byte(state), []byte(s.State)) != 1 {
		return "", shared.ErrStateMismatch
	}

	if p.Failed() {
		return "", fmt.Errorf("%w: %v", shared.ErrAuthFailed, p.Err())
	}

	code := server.Value(p.Code)
	if code == "" {
		return "", shared.ErrMissingCode
	}
	return code, nil
}
