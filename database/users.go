package database

import (
	"context"
	"database/sql"

	"github.com/mbolis/quick-forms/model"
	"github.com/pkg/errors"
)

const userColumns = `id, username, email, password_hash, first_name, last_name, is_active, date_joined`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.IsActive, &u.DateJoined)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// InsertUser stores u, picking the first free username derived from its
// email: "a", then "a1", "a2"... Run it inside a transaction.
func InsertUser(ctx context.Context, q Querier, u *model.User) error {
	base := model.BaseUsername(u.Email)
	for n := 0; ; n++ {
		candidate := model.UsernameCandidate(base, n)
		var taken bool
		err := q.QueryRowContext(ctx, `SELECT 1 FROM user WHERE username = ?`, candidate).Scan(&taken)
		if errors.Is(err, sql.ErrNoRows) {
			u.Username = candidate
			break
		}
		if err != nil {
			return errors.Wrap(err, "db.insert_user.username")
		}
	}

	u.DateJoined = now()
	u.IsActive = true
	err := q.QueryRowContext(ctx, `
		INSERT INTO user (username, email, password_hash, first_name, last_name, is_active, date_joined)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.IsActive, u.DateJoined,
	).Scan(&u.ID)
	return errors.Wrap(err, "db.insert_user")
}

func UserByID(ctx context.Context, q Querier, id int64) (*model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM user WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, errors.Wrap(err, "db.get_user")
}

// UserByEmail matches email case-insensitively.
func UserByEmail(ctx context.Context, q Querier, email string) (*model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM user WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, errors.Wrap(err, "db.get_user_by_email")
}

// EmailTaken reports whether another user than exceptID already uses email.
func EmailTaken(ctx context.Context, q Querier, email string, exceptID int64) (bool, error) {
	var taken bool
	err := q.QueryRowContext(ctx, `SELECT 1 FROM user WHERE email = ? AND id <> ?`, email, exceptID).Scan(&taken)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return taken, errors.Wrap(err, "db.email_taken")
}

func UpdateProfile(ctx context.Context, q Querier, u *model.User) error {
	_, err := q.ExecContext(ctx, `
		UPDATE user SET email = ?, first_name = ?, last_name = ?
		WHERE id = ?`,
		u.Email, u.FirstName, u.LastName, u.ID,
	)
	return errors.Wrap(err, "db.update_profile")
}

func SetPassword(ctx context.Context, q Querier, userID int64, hash []byte) error {
	_, err := q.ExecContext(ctx, `UPDATE user SET password_hash = ? WHERE id = ?`, hash, userID)
	return errors.Wrap(err, "db.set_password")
}

// SetActive enables or disables an account.
func SetActive(ctx context.Context, q Querier, userID int64, active bool) error {
	res, err := q.ExecContext(ctx, `UPDATE user SET is_active = ? WHERE id = ?`, active, userID)
	if err != nil {
		return errors.Wrap(err, "db.set_active")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "db.set_active.verify")
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}
