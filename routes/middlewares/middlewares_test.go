package middlewares

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "192.0.2.1:1234", "192.0.2.1"},
		{"remote without port", nil, "192.0.2.1", "192.0.2.1"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.7"}, "192.0.2.1:1234", "198.51.100.7"},
		{"forwarded first hop", map[string]string{
			"X-Forwarded-For": "203.0.113.5, 10.0.0.1",
			"X-Real-IP":       "198.51.100.7",
		}, "192.0.2.1:1234", "203.0.113.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(r))
		})
	}
}

func TestTokenAuth(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	creds := httpx.NewCredentials(db, bcrypt.MinCost, 0)
	user := &model.User{Email: "jo@example.com", PasswordHash: []byte("x")}
	require.NoError(t, database.InsertUser(ctx, db, user))
	key, err := creds.IssueToken(ctx, db, user.ID)
	require.NoError(t, err)

	var seen *model.User
	handler := TokenAuth(creds)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(auth string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if auth != "" {
			r.Header.Set("Authorization", auth)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		return rec
	}
	detail := func(rec *httptest.ResponseRecorder) string {
		var body httpx.Detail
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body.Detail
	}

	rec := call("Token " + key)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, user.ID, seen.ID)

	rec = call("")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, httpx.DetailNoCreds, detail(rec))
	assert.Equal(t, "Token", rec.Header().Get("WWW-Authenticate"))

	rec = call("Bearer " + key)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, httpx.DetailNoCreds, detail(rec))

	rec = call("Token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call("Token nope")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, httpx.DetailBadToken, detail(rec))

	require.NoError(t, database.SetActive(ctx, db, user.ID, false))
	rec = call("token " + key)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, httpx.DetailInactive, detail(rec))
}
