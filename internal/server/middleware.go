package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/mindrender/mindrender/internal/model"
)

type ctxKey int

const userKey ctxKey = iota

// anonymous is the principal used when no authenticator is configured.
// Development mode only; production wires a real authenticator.
var anonymous = &model.User{ID: "anonymous"}

func userFrom(ctx context.Context) *model.User {
	if u, ok := ctx.Value(userKey).(*model.User); ok {
		return u
	}
	return anonymous
}

// requireUser resolves the bearer token to a user and stores it on the
// request context. With no authenticator configured every request runs as
// the anonymous user.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, anonymous)))
			return
		}
		bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		user, err := s.auth.GetAuthenticatedUser(r.Context(), bearer)
		if err != nil {
			respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

// corsMiddleware allows the configured origins. "*" allows everything.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || allowed[origin]) {
				if allowAll {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Vary", "Origin")
				}
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs one line per request.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// sequencer tracks the newest request id per user so that results of
// superseded requests can be discarded instead of delivered out of order.
type sequencer struct {
	mu     sync.Mutex
	latest map[string]string
}

func newSequencer() *sequencer {
	return &sequencer{latest: make(map[string]string)}
}

// begin registers a new request for the user and returns its id. Any
// in-flight request for the same user becomes stale.
func (s *sequencer) begin(userID string) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.latest[userID] = id
	s.mu.Unlock()
	return id
}

func (s *sequencer) isCurrent(userID, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[userID] == id
}
