// Package identity resolves bearer tokens to authenticated users and decides
// which accounts are privileged (unlimited quota). The auth service itself is
// an external collaborator; only its contract lives here.
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/mindrender/mindrender/internal/model"
)

// ErrUnauthenticated marks a missing, malformed, or rejected bearer token.
var ErrUnauthenticated = errors.New("unauthenticated")

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	GetAuthenticatedUser(ctx context.Context, bearer string) (*model.User, error)
}

// Roles decides account privilege from a configured email list. Privileged
// accounts (internal dev/testing) are never checked against the token
// ceiling.
type Roles struct {
	privileged map[string]bool
}

// NewRoles builds a resolver from a list of privileged emails.
// Matching is case-insensitive; blanks are ignored.
func NewRoles(emails []string) *Roles {
	r := &Roles{privileged: make(map[string]bool)}
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			r.privileged[e] = true
		}
	}
	return r
}

// IsPrivileged reports whether the user's email is on the privileged list.
func (r *Roles) IsPrivileged(u *model.User) bool {
	if u == nil || u.Email == "" {
		return false
	}
	return r.privileged[strings.ToLower(u.Email)]
}

// StaticAuthenticator maps fixed tokens to users. For tests and local runs.
type StaticAuthenticator struct {
	Users map[string]model.User // bearer token → user
}

// GetAuthenticatedUser looks the token up in the static map.
func (s *StaticAuthenticator) GetAuthenticatedUser(_ context.Context, bearer string) (*model.User, error) {
	u, ok := s.Users[bearer]
	if !ok {
		return nil, ErrUnauthenticated
	}
	return &u, nil
}
