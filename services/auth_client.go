// services/auth_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthServiceClient validates bearer credentials against the external auth
// service. It is the only identity-provider implementation; handlers and
// the orchestrator depend on the IdentityProvider interface.
type AuthServiceClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

type validateResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

func NewAuthServiceClient(baseURL, token string, timeout time.Duration) *AuthServiceClient {
	return &AuthServiceClient{
		BaseURL: baseURL,
		Token:   token,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Validate calls /auth/validate on the auth service. An expired credential
// is detected locally from the exp claim first, so clients get a
// re-authenticate hint without an auth-service round trip.
func (c *AuthServiceClient) Validate(ctx context.Context, credential string) (*Identity, error) {
	if expired(credential) {
		return nil, &AuthError{Kind: AuthExpired}
	}

	url := fmt.Sprintf("%s/auth/validate", c.BaseURL)

	jsonData, _ := json.Marshal(map[string]string{"access_token": credential})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token) // service → auth service token

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth service unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{Kind: AuthInvalid}
	default:
		log.Printf("AuthService /validate returned %d: %s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("auth validation failed: %d", resp.StatusCode)
	}

	var out validateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if out.UserID == "" {
		return nil, &AuthError{Kind: AuthInvalid}
	}

	return &Identity{UserID: out.UserID, DisplayName: out.DisplayName}, nil
}

// expired reports whether the credential is a JWT whose exp claim has
// passed. The token is parsed without signature verification; the auth
// service remains the authority on validity.
func expired(credential string) bool {
	var claims jwt.RegisteredClaims
	_, _, err := jwt.NewParser().ParseUnverified(credential, &claims)
	if err != nil {
		// Not a parseable JWT; let the auth service judge it.
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(time.Now())
}

// IsAuthError extracts an *AuthError from an error chain.
func IsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}
