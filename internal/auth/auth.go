package auth

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"dumbserve/internal/apierr"
	"dumbserve/internal/config"
)

type ctxKey string

const userKey ctxKey = "dumbserve.user"

// UserFromContext returns the authenticated username, or "" when the request
// did not pass through RequireAuth.
func UserFromContext(ctx context.Context) string {
	v, _ := ctx.Value(userKey).(string)
	return v
}

func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// CredentialStore answers whether a username/password pair is allowed.
type CredentialStore interface {
	Authenticate(username, password string) bool
}

// StaticStore is the fixed credential list from configuration.
type StaticStore struct {
	creds []config.Cred
}

func NewStaticStore(creds []config.Cred) *StaticStore {
	cp := make([]config.Cred, len(creds))
	copy(cp, creds)
	return &StaticStore{creds: cp}
}

// Authenticate reports whether some stored credential has exactly this
// username and password. Entries with a bcrypt hash and no plain password are
// checked against the hash.
func (s *StaticStore) Authenticate(username, password string) bool {
	for _, c := range s.creds {
		if c.Username != username {
			continue
		}
		if c.Password != "" {
			if c.Password == password {
				return true
			}
			continue
		}
		if c.Bcrypt != "" && bcrypt.CompareHashAndPassword([]byte(c.Bcrypt), []byte(password)) == nil {
			return true
		}
	}
	return false
}

// RequireAuth wraps a handler with mandatory BasicAuth. Requests without a
// well-formed Authorization header are rejected before creds is consulted.
func RequireAuth(creds CredentialStore, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := parseBasicAuth(r.Header.Get("Authorization"))
		if !ok {
			deny(w)
			return
		}
		if !creds.Authenticate(u, p) {
			deny(w)
			return
		}
		r = r.WithContext(WithUser(r.Context(), u))
		next.ServeHTTP(w, r)
	})
}

func deny(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="dumbserve"`)
	apierr.Write(w, apierr.Unauthorized)
}

func parseBasicAuth(v string) (user, pass string, ok bool) {
	const prefix = "Basic "
	if len(v) < len(prefix) || !strings.EqualFold(v[:len(prefix)], prefix) {
		return "", "", false
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(v[len(prefix):]))
	if err != nil {
		return "", "", false
	}
	s := string(raw)
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return "", "", false
	}
	u := s[:i]
	p := s[i+1:]
	if u == "" {
		return "", "", false
	}
	if strings.Contains(u, "\x00") || strings.Contains(p, "\x00") {
		return "", "", false
	}
	return u, p, true
}
