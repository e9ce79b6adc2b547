package graph

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"smsbridge/internal/config"
)

// tokenEndpoint is the Microsoft identity platform v2 token URL.
const tokenEndpoint = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"

// AuthError wraps a token acquisition failure. The process must not run
// without valid credentials, so callers treat it as fatal.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("graph auth failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NewHTTPClient builds an HTTP client that injects client-credential
// tokens into every request. It acquires one token eagerly so credential
// problems surface at startup instead of on the first poll.
func NewHTTPClient(ctx context.Context, cfg config.GraphConfig) (*http.Client, error) {
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     fmt.Sprintf(tokenEndpoint, cfg.TenantID),
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}

	if _, err := cc.Token(ctx); err != nil {
		return nil, &AuthError{Err: err}
	}

	client := cc.Client(ctx)
	client.Timeout = 30 * time.Second
	return client, nil
}
