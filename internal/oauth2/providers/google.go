package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	xoauth2 "golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/wildoasis/booking/internal/oauth2"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

var googleScopes = []string{"openid", "email", "profile"}

// GoogleProvider implements OAuth2 sign-in with Google using PKCE
type GoogleProvider struct {
	config      xoauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// GoogleOption customizes a GoogleProvider.
type GoogleOption func(*GoogleProvider)

// WithEndpoints points the provider at different URLs. Tests use an httptest server.
func WithEndpoints(authURL, tokenURL, userInfoURL string) GoogleOption {
	return func(p *GoogleProvider) {
		p.config.Endpoint = xoauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: xoauth2.AuthStyleInParams,
		}
		p.userInfoURL = userInfoURL
	}
}

// WithHTTPClient replaces the default 30s-timeout client.
func WithHTTPClient(c *http.Client) GoogleOption {
	return func(p *GoogleProvider) {
		p.httpClient = c
	}
}

// NewGoogleProvider creates a new Google OAuth2 provider
func NewGoogleProvider(clientID, clientSecret string, opts ...GoogleOption) *GoogleProvider {
	p := &GoogleProvider{
		config: xoauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       googleScopes,
		},
		userInfoURL: googleUserInfoURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ oauth2.Provider = (*GoogleProvider)(nil)

func (p *GoogleProvider) Name() oauth2.ProviderName {
	return oauth2.ProviderGoogle
}

func (p *GoogleProvider) Config() oauth2.ProviderConfig {
	return oauth2.ProviderConfig{
		ClientID:     p.config.ClientID,
		ClientSecret: p.config.ClientSecret,
		AuthURL:      p.config.Endpoint.AuthURL,
		TokenURL:     p.config.Endpoint.TokenURL,
		UserInfoURL:  p.userInfoURL,
		Scopes:       p.config.Scopes,
	}
}

// withRedirect returns a copy of the config for one flow.
func (p *GoogleProvider) withRedirect(redirectURL string) *xoauth2.Config {
	cfg := p.config
	cfg.RedirectURL = redirectURL
	return &cfg
}

// clientContext makes x/oauth2 use the provider's HTTP client.
func (p *GoogleProvider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, xoauth2.HTTPClient, p.httpClient)
}

func (p *GoogleProvider) BuildAuthURL(redirectURL string) (authURL, codeVerifier, state string, err error) {
	state, err = oauth2.GenerateState()
	if err != nil {
		return "", "", "", fmt.Errorf("failed to generate state: %w", err)
	}
	codeVerifier = xoauth2.GenerateVerifier()

	authURL = p.withRedirect(redirectURL).AuthCodeURL(state,
		xoauth2.S256ChallengeOption(codeVerifier),
		xoauth2.SetAuthURLParam("prompt", "select_account"))
	return authURL, codeVerifier, state, nil
}

func (p *GoogleProvider) ExchangeCode(ctx context.Context, code, codeVerifier, redirectURL string) (*oauth2.TokenResponse, error) {
	token, err := p.withRedirect(redirectURL).Exchange(p.clientContext(ctx), code, xoauth2.VerifierOption(codeVerifier))
	if err != nil {
		var re *xoauth2.RetrieveError
		if errors.As(err, &re) && re.ErrorCode != "" {
			return nil, fmt.Errorf("token exchange failed: %s - %s", re.ErrorCode, re.ErrorDescription)
		}
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	resp := &oauth2.TokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.Type(),
	}
	if !token.Expiry.IsZero() {
		resp.ExpiresIn = int(time.Until(token.Expiry).Round(time.Second).Seconds())
	}
	if idToken, ok := token.Extra("id_token").(string); ok {
		resp.IDToken = idToken
	}
	if scope, ok := token.Extra("scope").(string); ok {
		resp.Scope = scope
	}
	return resp, nil
}

func (p *GoogleProvider) UserInfo(ctx context.Context, accessToken string) (*oauth2.UserInfo, error) {
	client := xoauth2.NewClient(p.clientContext(ctx), xoauth2.StaticTokenSource(&xoauth2.Token{AccessToken: accessToken}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to get user info (status %d): %s", resp.StatusCode, string(body))
	}

	var info struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("user info has no email")
	}
	if !info.EmailVerified {
		return nil, oauth2.ErrEmailUnverified
	}

	return &oauth2.UserInfo{
		Subject:       info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		Name:          info.Name,
		Picture:       info.Picture,
	}, nil
}

// RegisterGoogle adds the Google provider to registry when credentials are set
func RegisterGoogle(registry *oauth2.Registry, clientID, clientSecret string) {
	if clientID == "" || clientSecret == "" {
		return
	}
	registry.Register(NewGoogleProvider(clientID, clientSecret))
}
