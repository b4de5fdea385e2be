package oauth2

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ProviderName identifies a sign-in provider in routes and the registry.
type ProviderName string

const ProviderGoogle ProviderName = "google"

// ProviderConfig contains the configuration needed for OAuth2 authorization
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string
}

// TokenResponse contains tokens returned from the OAuth2 provider
type TokenResponse struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int // seconds until expiry
	Scope       string
	IDToken     string
}

// UserInfo is the identity a provider vouches for.
type UserInfo struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// Provider defines the interface for OAuth2 sign-in providers
type Provider interface {
	// Name returns the provider identifier (e.g., "google")
	Name() ProviderName

	// Config returns the provider's OAuth2 configuration
	Config() ProviderConfig

	// BuildAuthURL constructs the authorization URL for the OAuth2 flow.
	// Returns the auth URL, PKCE code verifier, and state parameter.
	BuildAuthURL(redirectURL string) (authURL, codeVerifier, state string, err error)

	// ExchangeCode exchanges an authorization code for tokens
	ExchangeCode(ctx context.Context, code, codeVerifier, redirectURL string) (*TokenResponse, error)

	// UserInfo fetches the signed-in user's profile
	UserInfo(ctx context.Context, accessToken string) (*UserInfo, error)
}

// Registry manages registered OAuth2 providers
type Registry struct {
	mu        sync.RWMutex
	providers map[ProviderName]Provider
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[ProviderName]Provider),
	}
}

// Register adds a provider to the registry
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get retrieves a provider by name
func (r *Registry) Get(name ProviderName) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotFound, name)
	}
	return p, nil
}

// List returns all registered provider names in sorted order
func (r *Registry) List() []ProviderName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]ProviderName, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
