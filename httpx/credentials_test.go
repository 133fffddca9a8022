package httpx

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newCredentials(t *testing.T, ttl time.Duration) (*Credentials, *sql.DB) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCredentials(db, bcrypt.MinCost, ttl), db
}

func createUser(t *testing.T, c *Credentials, db *sql.DB, email, password string) *model.User {
	t.Helper()
	hash, err := c.HashPassword(password)
	require.NoError(t, err)
	u := &model.User{Email: email, PasswordHash: hash}
	require.NoError(t, database.InsertUser(context.Background(), db, u))
	return u
}

func TestAuthenticate(t *testing.T) {
	c, db := newCredentials(t, 0)
	ctx := context.Background()
	u := createUser(t, c, db, "jo@example.com", "s3cret-pass")

	got, err := c.Authenticate(ctx, "jo@EXAMPLE.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = c.Authenticate(ctx, "jo@example.com", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = c.Authenticate(ctx, "nobody@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrBadCredentials)

	require.NoError(t, database.SetActive(ctx, db, u.ID, false))
	_, err = c.Authenticate(ctx, "jo@example.com", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, err = c.Authenticate(ctx, "jo@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrUserDisabled)
}

func TestIssueTokenIsStable(t *testing.T) {
	c, db := newCredentials(t, 0)
	ctx := context.Background()
	u := createUser(t, c, db, "jo@example.com", "s3cret-pass")

	first, err := c.IssueToken(ctx, db, u.ID)
	require.NoError(t, err)
	assert.Len(t, first, 32)

	second, err := c.IssueToken(ctx, db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	got, err := c.UserForToken(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestRevokeToken(t *testing.T) {
	c, db := newCredentials(t, 0)
	ctx := context.Background()
	u := createUser(t, c, db, "jo@example.com", "s3cret-pass")

	key, err := c.IssueToken(ctx, db, u.ID)
	require.NoError(t, err)
	require.NoError(t, c.RevokeToken(ctx, u.ID))

	_, err = c.UserForToken(ctx, key)
	assert.ErrorIs(t, err, ErrInvalidToken)

	fresh, err := c.IssueToken(ctx, db, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, key, fresh)
}

func TestUserForTokenRejectsInactiveUser(t *testing.T) {
	c, db := newCredentials(t, 0)
	ctx := context.Background()
	u := createUser(t, c, db, "jo@example.com", "s3cret-pass")

	key, err := c.IssueToken(ctx, db, u.ID)
	require.NoError(t, err)
	require.NoError(t, database.SetActive(ctx, db, u.ID, false))

	_, err = c.UserForToken(ctx, key)
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestTokenExpiry(t *testing.T) {
	c, db := newCredentials(t, time.Hour)
	ctx := context.Background()
	u := createUser(t, c, db, "jo@example.com", "s3cret-pass")

	key, err := c.IssueToken(ctx, db, u.ID)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE token SET created = ? WHERE key = ?`, time.Now().UTC().Add(-2*time.Hour), key)
	require.NoError(t, err)

	_, err = c.UserForToken(ctx, key)
	assert.ErrorIs(t, err, ErrTokenExpired)

	fresh, err := c.IssueToken(ctx, db, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, key, fresh)

	_, err = c.UserForToken(ctx, fresh)
	assert.NoError(t, err)
}

func TestNewTokenKey(t *testing.T) {
	a, b := NewTokenKey(), NewTokenKey()
	assert.Len(t, a, 32)
	assert.NotContains(t, a, "-")
	assert.NotEqual(t, a, b)
}
