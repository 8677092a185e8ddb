package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type contextKey string

const accountIDKey contextKey = "account_id"

// Authenticator resolves the calling account from a request. Session
// issuance lives outside this service; deployments plug in their own
// implementation (session store lookup, signed token validation).
type Authenticator interface {
	Authenticate(r *http.Request) (uuid.UUID, error)
}

// HeaderAuthenticator trusts an account id header set by an upstream
// gateway that has already validated the session.
type HeaderAuthenticator struct {
	Header string
}

// Authenticate extracts and parses the account id header.
func (a HeaderAuthenticator) Authenticate(r *http.Request) (uuid.UUID, error) {
	header := a.Header
	if header == "" {
		header = "X-Account-ID"
	}
	return uuid.Parse(r.Header.Get(header))
}

// requireAccount rejects unauthenticated requests and stores the
// resolved account id on the context.
func requireAccount(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountID, err := auth.Authenticate(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "missing or invalid credentials")
				return
			}
			ctx := context.WithValue(r.Context(), accountIDKey, accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireAdmin gates the admin surface behind a static bearer token.
func requireAdmin(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				writeError(w, http.StatusForbidden, "forbidden", "admin surface is disabled")
				return
			}
			got := r.Header.Get("Authorization")
			want := "Bearer " + token
			if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid admin token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// accountID retrieves the authenticated account id from the context.
func accountID(r *http.Request) uuid.UUID {
	id, _ := r.Context().Value(accountIDKey).(uuid.UUID)
	return id
}

// requestLogger emits one structured log line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}
