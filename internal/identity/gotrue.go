package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mindrender/mindrender/internal/model"
)

// GoTrueAuthenticator validates bearer tokens against a GoTrue-style auth
// endpoint (`GET /auth/v1/user`), the scheme Supabase deployments expose.
type GoTrueAuthenticator struct {
	BaseURL string // e.g. https://<project>.supabase.co
	APIKey  string // service anon key, sent alongside the user token
	Client  *http.Client
}

// NewGoTrueAuthenticator creates an authenticator for the given auth host.
func NewGoTrueAuthenticator(baseURL, apiKey string) *GoTrueAuthenticator {
	return &GoTrueAuthenticator{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// GetAuthenticatedUser resolves the bearer token to a user. Any non-200
// reply maps to ErrUnauthenticated — the caller never learns why the auth
// service rejected the token.
func (g *GoTrueAuthenticator) GetAuthenticatedUser(ctx context.Context, bearer string) (*model.User, error) {
	if bearer == "" {
		return nil, ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("create auth request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	if g.APIKey != "" {
		req.Header.Set("apikey", g.APIKey)
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth service unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrUnauthenticated
	}

	body, _ := io.ReadAll(resp.Body)
	var parsed struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.ID == "" {
		return nil, ErrUnauthenticated
	}

	return &model.User{ID: parsed.ID, Email: parsed.Email}, nil
}
