package auth

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"dumbserve/internal/config"
)

func basic(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func testStore(t *testing.T) *StaticStore {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewStaticStore([]config.Cred{
		{Username: "alice", Password: "secret1"},
		{Username: "bob", Password: "23k4j;123k4j1;l23kj4"},
		{Username: "carol", Bcrypt: string(hash)},
	})
}

func TestStaticStore_Authenticate(t *testing.T) {
	s := testStore(t)

	tests := []struct {
		name     string
		user     string
		pass     string
		expected bool
	}{
		{"alice ok", "alice", "secret1", true},
		{"bob ok", "bob", "23k4j;123k4j1;l23kj4", true},
		{"bcrypt ok", "carol", "hunter2", true},
		{"wrong username", "noexist", "secret1", false},
		{"wrong password", "alice", "noexist", false},
		{"other user's password", "alice", "23k4j;123k4j1;l23kj4", false},
		{"case sensitive username", "Alice", "secret1", false},
		{"case sensitive password", "alice", "SECRET1", false},
		{"bcrypt wrong password", "carol", "hunter3", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.Authenticate(tt.user, tt.pass))
		})
	}
}

func TestStaticStore_CopiesInput(t *testing.T) {
	creds := []config.Cred{{Username: "alice", Password: "secret1"}}
	s := NewStaticStore(creds)
	creds[0].Password = "changed"

	assert.True(t, s.Authenticate("alice", "secret1"))
}

type countingStore struct {
	calls int
	ok    bool
}

func (c *countingStore) Authenticate(string, string) bool {
	c.calls++
	return c.ok
}

func TestRequireAuth(t *testing.T) {
	var gotUser string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := RequireAuth(testStore(t), next)

	t.Run("valid credentials", func(t *testing.T) {
		gotUser = ""
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", basic("alice", "secret1"))
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "alice", gotUser)
	})

	t.Run("lowercase scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "basic "+basic("alice", "secret1")[len("Basic "):])
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		gotUser = ""
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", basic("alice", "wrong"))
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, `Basic realm="dumbserve"`, w.Header().Get("WWW-Authenticate"))
		assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
		assert.Empty(t, gotUser, "handler must not run")
	})
}

func TestRequireAuth_MalformedNeverReachesStore(t *testing.T) {
	headers := []string{
		"",
		"Bearer abc",
		"Basic",
		"Basic !!!notbase64",
		"Basic " + base64.StdEncoding.EncodeToString([]byte("nocolon")),
		"Basic " + base64.StdEncoding.EncodeToString([]byte(":emptyuser")),
		"Basic " + base64.StdEncoding.EncodeToString([]byte("a\x00b:pw")),
	}
	for _, hdr := range headers {
		t.Run(hdr, func(t *testing.T) {
			store := &countingStore{ok: true}
			called := false
			h := RequireAuth(store, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if hdr != "" {
				req.Header.Set("Authorization", hdr)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Zero(t, store.calls)
			assert.False(t, called)
		})
	}
}

func TestUserFromContext(t *testing.T) {
	assert.Empty(t, UserFromContext(context.Background()))
	assert.Equal(t, "alice", UserFromContext(WithUser(context.Background(), "alice")))
}
