package httpx

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/model"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrBadCredentials = errors.New("Unable to log in with provided credentials.")
	ErrUserDisabled   = errors.New("User account is disabled.")
	ErrInvalidToken   = errors.New(DetailBadToken)
	ErrUserInactive   = errors.New(DetailInactive)
	ErrTokenExpired   = errors.New(DetailExpired)
)

// Credentials hashes passwords and manages the opaque per-user tokens used
// by the Token authentication scheme.
type Credentials struct {
	db   *sql.DB
	cost int
	ttl  time.Duration
}

// NewCredentials returns a store backed by db. A zero ttl makes tokens live
// until logout.
func NewCredentials(db *sql.DB, cost int, ttl time.Duration) *Credentials {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Credentials{db, cost, ttl}
}

func (c *Credentials) HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), c.cost)
}

func (c *Credentials) CheckPassword(u *model.User, password string) bool {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) == nil
}

// Authenticate checks an email/password pair. A disabled account is only
// disclosed to callers who know its password.
func (c *Credentials) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	u, err := database.UserByEmail(ctx, c.db, model.NormalizeEmail(email))
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}

	if !c.CheckPassword(u, password) {
		return nil, ErrBadCredentials
	}
	if !u.IsActive {
		return nil, ErrUserDisabled
	}
	return u, nil
}

// IssueToken returns the user's token, creating one if it has none or if
// the current one has expired. Run it inside a transaction so concurrent
// logins agree on one key.
func (c *Credentials) IssueToken(ctx context.Context, q database.Querier, userID int64) (string, error) {
	key, created, err := database.TokenOf(ctx, q, userID)
	if err == nil && !c.expired(created) {
		return key, nil
	}
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return "", err
	}

	key = NewTokenKey()
	if err = database.InsertToken(ctx, q, userID, key); err != nil {
		return "", err
	}
	return key, nil
}

// UserForToken resolves a token key to an active user.
func (c *Credentials) UserForToken(ctx context.Context, key string) (*model.User, error) {
	u, created, err := database.UserByToken(ctx, c.db, key)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrUserInactive
	}
	if c.expired(created) {
		return nil, ErrTokenExpired
	}
	return u, nil
}

func (c *Credentials) RevokeToken(ctx context.Context, userID int64) error {
	return database.DeleteToken(ctx, c.db, userID)
}

func (c *Credentials) expired(created time.Time) bool {
	return c.ttl > 0 && time.Since(created) > c.ttl
}

// NewTokenKey returns a random 32 character hex key.
func NewTokenKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
