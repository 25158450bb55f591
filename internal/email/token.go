package email

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/ceureg/ceureg/internal/config"
)

// AuthError indicates the OAuth2 token exchange failed. It is fatal to a
// delivery run, unlike per-recipient send failures.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("gmail: token exchange failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// TokenProvider exchanges a long-lived refresh token for a short-lived
// access token. A delivery run calls it at most once; the token is never
// cached across runs.
type TokenProvider struct {
	clientID     string
	clientSecret string
	refreshToken string
	sender       string
}

// NewTokenProvider creates a TokenProvider from Gmail configuration.
func NewTokenProvider(cfg config.GmailConfig) *TokenProvider {
	return &TokenProvider{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		refreshToken: cfg.RefreshToken,
		sender:       cfg.SenderAddress,
	}
}

// Configured reports whether every credential needed to send is present.
func (p *TokenProvider) Configured() bool {
	return p.clientID != "" && p.clientSecret != "" && p.refreshToken != "" && p.sender != ""
}

// AccessToken performs the refresh-token grant against the Google OAuth2
// endpoint and returns the access token. Failures are returned as
// *AuthError carrying the provider's stated reason when present.
func (p *TokenProvider) AccessToken(ctx context.Context) (string, error) {
	conf := &oauth2.Config{
		ClientID:     p.clientID,
		ClientSecret: p.clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailSendScope},
	}

	source := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: p.refreshToken})
	token, err := source.Token()
	if err != nil {
		return "", &AuthError{Reason: retrieveReason(err), Err: err}
	}
	if token.AccessToken == "" {
		return "", &AuthError{Reason: "response missing access token"}
	}
	return token.AccessToken, nil
}

// retrieveReason surfaces the authorization server's error_description or
// error code when the exchange was rejected.
func retrieveReason(err error) string {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		if rErr.ErrorDescription != "" {
			return rErr.ErrorDescription
		}
		if rErr.ErrorCode != "" {
			return rErr.ErrorCode
		}
	}
	return err.Error()
}
