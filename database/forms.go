package database

import (
	"context"
	"database/sql"

	"github.com/mbolis/quick-forms/model"
	"github.com/pkg/errors"
)

// FormFilter narrows form listings. Zero values mean "any".
type FormFilter struct {
	OwnerID    int64
	ActiveOnly bool
}

func (f FormFilter) where() (string, []any) {
	clause := ` WHERE 1 = 1`
	var args []any
	if f.OwnerID != 0 {
		clause += ` AND f.owner_id = ?`
		args = append(args, f.OwnerID)
	}
	if f.ActiveOnly {
		clause += ` AND f.is_active = 1`
	}
	return clause, args
}

const formSelect = `
	SELECT
		f.id, f.title, f.description, f.owner_id, f.created_at, f.updated_at, f.is_active,
		u.id, u.username, u.email, u.first_name, u.last_name
	FROM form f
	INNER JOIN user u ON (u.id = f.owner_id)`

func scanForm(row interface{ Scan(...any) error }) (*model.Form, error) {
	f := &model.Form{CreatedBy: &model.User{}}
	err := row.Scan(
		&f.ID, &f.Title, &f.Description, &f.OwnerID, &f.CreatedAt, &f.UpdatedAt, &f.IsActive,
		&f.CreatedBy.ID, &f.CreatedBy.Username, &f.CreatedBy.Email, &f.CreatedBy.FirstName, &f.CreatedBy.LastName,
	)
	if err != nil {
		return nil, err
	}
	f.Fields = []model.Field{}
	return f, nil
}

func InsertForm(ctx context.Context, q Querier, f *model.Form) error {
	f.CreatedAt = now()
	f.UpdatedAt = f.CreatedAt
	err := q.QueryRowContext(ctx, `
		INSERT INTO form (title, description, owner_id, created_at, updated_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		f.Title, f.Description, f.OwnerID, f.CreatedAt, f.UpdatedAt, f.IsActive,
	).Scan(&f.ID)
	if f.Fields == nil {
		f.Fields = []model.Field{}
	}
	return errors.Wrap(err, "db.insert_form")
}

// GetForm loads one form with its fields, provided it matches filter.
func GetForm(ctx context.Context, q Querier, id int64, filter FormFilter) (*model.Form, error) {
	where, args := filter.where()
	f, err := scanForm(q.QueryRowContext(ctx, formSelect+where+` AND f.id = ?`, append(args, id)...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "db.get_form")
	}

	fields, err := FieldsOf(ctx, q, f.ID)
	if err != nil {
		return nil, err
	}
	f.Fields = fields[f.ID]
	return f, nil
}

func CountForms(ctx context.Context, q Querier, filter FormFilter) (n int, err error) {
	where, args := filter.where()
	err = q.QueryRowContext(ctx, `SELECT COUNT(*) FROM form f`+where, args...).Scan(&n)
	err = errors.Wrap(err, "db.count_forms")
	return
}

// ListForms returns a page of forms, newest first, with their fields.
func ListForms(ctx context.Context, q Querier, filter FormFilter, limit, offset int) ([]model.Form, error) {
	where, args := filter.where()
	rows, err := q.QueryContext(ctx,
		formSelect+where+` ORDER BY f.created_at DESC, f.id DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, errors.Wrap(err, "db.list_forms")
	}
	defer rows.Close()

	forms := []model.Form{}
	ids := []int64{}
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, errors.Wrap(err, "db.list_forms.scan")
		}
		forms = append(forms, *f)
		ids = append(ids, f.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "db.list_forms.rows")
	}
	rows.Close()

	fields, err := FieldsOf(ctx, q, ids...)
	if err != nil {
		return nil, err
	}
	for i := range forms {
		if ff, ok := fields[forms[i].ID]; ok {
			forms[i].Fields = ff
		}
	}
	return forms, nil
}

func UpdateForm(ctx context.Context, q Querier, f *model.Form) error {
	f.UpdatedAt = now()
	res, err := q.ExecContext(ctx, `
		UPDATE form
		SET title = ?, description = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		f.Title, f.Description, f.IsActive, f.UpdatedAt, f.ID,
	)
	if err != nil {
		return errors.Wrap(err, "db.update_form")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "db.update_form.verify")
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}

// DeleteForm removes a form and everything below it, children first:
// responses, submissions, fields, then the form. Run it inside a transaction.
func DeleteForm(ctx context.Context, q Querier, id int64) error {
	_, err := q.ExecContext(ctx, `
		DELETE FROM response
		WHERE submission_id IN (SELECT id FROM submission WHERE form_id = ?)`,
		id,
	)
	if err != nil {
		return errors.Wrap(err, "db.delete_form.responses")
	}

	_, err = q.ExecContext(ctx, `DELETE FROM submission WHERE form_id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "db.delete_form.submissions")
	}

	_, err = q.ExecContext(ctx, `DELETE FROM form_field WHERE form_id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "db.delete_form.fields")
	}

	res, err := q.ExecContext(ctx, `DELETE FROM form WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "db.delete_form")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "db.delete_form.verify")
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}
