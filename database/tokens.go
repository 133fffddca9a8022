package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/mbolis/quick-forms/model"
	"github.com/pkg/errors"
)

// TokenOf returns the key and creation time of the user's token.
func TokenOf(ctx context.Context, q Querier, userID int64) (key string, created time.Time, err error) {
	err = q.QueryRowContext(ctx, `SELECT key, created FROM token WHERE user_id = ?`, userID).Scan(&key, &created)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
		return
	}
	err = errors.Wrap(err, "db.get_token")
	return
}

// InsertToken stores key as the user's token, replacing any previous one.
func InsertToken(ctx context.Context, q Querier, userID int64, key string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO token (key, user_id, created) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET key = excluded.key, created = excluded.created`,
		key, userID, now(),
	)
	return errors.Wrap(err, "db.insert_token")
}

// UserByToken resolves a token key to its user and the token creation time.
func UserByToken(ctx context.Context, q Querier, key string) (*model.User, time.Time, error) {
	var created time.Time
	u := &model.User{}
	err := q.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.email, u.password_hash, u.first_name, u.last_name, u.is_active, u.date_joined, t.created
		FROM token t
		INNER JOIN user u ON (u.id = t.user_id)
		WHERE t.key = ?`,
		key,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.IsActive, &u.DateJoined, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, created, ErrNotFound
	}
	if err != nil {
		return nil, created, errors.Wrap(err, "db.get_user_by_token")
	}
	return u, created, nil
}

func DeleteToken(ctx context.Context, q Querier, userID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM token WHERE user_id = ?`, userID)
	return errors.Wrap(err, "db.delete_token")
}
