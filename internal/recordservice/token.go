package recordservice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// TokenSource supplies the anti-forgery token attached to every mutating
// call. Issuance belongs to a separate collaborator; the client only
// consumes tokens.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// SessionTokenSource fetches the anti-forgery token once per session and
// hands the cached value to every subsequent call.
type SessionTokenSource struct {
	endpoint   string
	httpClient *http.Client

	mu    sync.Mutex
	token string
}

// NewSessionTokenSource creates a token source against the issuance endpoint.
func NewSessionTokenSource(endpoint string) *SessionTokenSource {
	return &SessionTokenSource{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Token returns the session token, fetching it on first use.
func (s *SessionTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" {
		return s.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request: status %d", resp.StatusCode)
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if payload.Token == "" {
		return "", fmt.Errorf("token response empty")
	}

	s.token = payload.Token
	return s.token, nil
}

// StaticTokenSource returns a fixed token. Used in tests and for deployments
// where the host page injects the token.
type StaticTokenSource string

// Token returns the fixed token.
func (s StaticTokenSource) Token(context.Context) (string, error) {
	return string(s), nil
}
