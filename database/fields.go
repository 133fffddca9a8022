package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mbolis/quick-forms/model"
	"github.com/pkg/errors"
)

const fieldColumns = `ff.id, ff.form_id, ff.label, ff.field_type, ff.required, ff.placeholder, ff.options, ff.order_index`

func scanField(row interface{ Scan(...any) error }) (*model.Field, error) {
	f := &model.Field{}
	var opts sql.NullString
	err := row.Scan(&f.ID, &f.FormID, &f.Label, &f.Type, &f.Required, &f.Placeholder, &opts, &f.Order)
	if err != nil {
		return nil, err
	}
	if opts.Valid && opts.String != "" {
		if err := json.Unmarshal([]byte(opts.String), &f.Options); err != nil {
			return nil, errors.Wrap(err, "parse_options")
		}
	}
	return f, nil
}

func encodeOptions(f *model.Field) (sql.NullString, error) {
	if f.Options == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(f.Options)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func InsertField(ctx context.Context, q Querier, f *model.Field) error {
	opts, err := encodeOptions(f)
	if err != nil {
		return errors.Wrap(err, "db.insert_field.encode_options")
	}
	err = q.QueryRowContext(ctx, `
		INSERT INTO form_field (form_id, label, field_type, required, placeholder, options, order_index)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		f.FormID, f.Label, f.Type, f.Required, f.Placeholder, opts, f.Order,
	).Scan(&f.ID)
	return errors.Wrap(err, "db.insert_field")
}

// FieldsOf loads the fields of the given forms, keyed by form id and sorted
// by display order.
func FieldsOf(ctx context.Context, q Querier, formIDs ...int64) (map[int64][]model.Field, error) {
	out := make(map[int64][]model.Field, len(formIDs))
	if len(formIDs) == 0 {
		return out, nil
	}
	for _, id := range formIDs {
		out[id] = []model.Field{}
	}

	rows, err := q.QueryContext(ctx, `
		SELECT `+fieldColumns+`
		FROM form_field ff
		WHERE ff.form_id IN (`+placeholders(len(formIDs))+`)
		ORDER BY ff.form_id, ff.order_index, ff.id`,
		int64Args(formIDs)...,
	)
	if err != nil {
		return nil, errors.Wrap(err, "db.get_fields")
	}
	defer rows.Close()

	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, errors.Wrap(err, "db.get_fields.scan")
		}
		out[f.FormID] = append(out[f.FormID], *f)
	}
	return out, errors.Wrap(rows.Err(), "db.get_fields.rows")
}

// OwnedField loads a field whose parent form belongs to ownerID.
func OwnedField(ctx context.Context, q Querier, id, ownerID int64) (*model.Field, error) {
	f, err := scanField(q.QueryRowContext(ctx, `
		SELECT `+fieldColumns+`
		FROM form_field ff
		INNER JOIN form f ON (f.id = ff.form_id)
		WHERE ff.id = ? AND f.owner_id = ?`,
		id, ownerID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return f, errors.Wrap(err, "db.get_field")
}

func CountOwnedFields(ctx context.Context, q Querier, ownerID int64) (n int, err error) {
	err = q.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM form_field ff
		INNER JOIN form f ON (f.id = ff.form_id)
		WHERE f.owner_id = ?`,
		ownerID,
	).Scan(&n)
	err = errors.Wrap(err, "db.count_fields")
	return
}

func ListOwnedFields(ctx context.Context, q Querier, ownerID int64, limit, offset int) ([]model.Field, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+fieldColumns+`
		FROM form_field ff
		INNER JOIN form f ON (f.id = ff.form_id)
		WHERE f.owner_id = ?
		ORDER BY ff.form_id, ff.order_index, ff.id
		LIMIT ? OFFSET ?`,
		ownerID, limit, offset,
	)
	if err != nil {
		return nil, errors.Wrap(err, "db.list_fields")
	}
	defer rows.Close()

	fields := []model.Field{}
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, errors.Wrap(err, "db.list_fields.scan")
		}
		fields = append(fields, *f)
	}
	return fields, errors.Wrap(rows.Err(), "db.list_fields.rows")
}

func UpdateField(ctx context.Context, q Querier, f *model.Field) error {
	opts, err := encodeOptions(f)
	if err != nil {
		return errors.Wrap(err, "db.update_field.encode_options")
	}
	res, err := q.ExecContext(ctx, `
		UPDATE form_field
		SET label = ?, field_type = ?, required = ?, placeholder = ?, options = ?, order_index = ?
		WHERE id = ?`,
		f.Label, f.Type, f.Required, f.Placeholder, opts, f.Order, f.ID,
	)
	if err != nil {
		return errors.Wrap(err, "db.update_field")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "db.update_field.verify")
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}

// DeleteField removes the field's responses, then the field. Run it inside
// a transaction.
func DeleteField(ctx context.Context, q Querier, id int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM response WHERE field_id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "db.delete_field.responses")
	}

	res, err := q.ExecContext(ctx, `DELETE FROM form_field WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "db.delete_field")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "db.delete_field.verify")
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}

// TouchForm bumps updated_at of the field's parent form.
func TouchForm(ctx context.Context, q Querier, formID int64) error {
	_, err := q.ExecContext(ctx, `UPDATE form SET updated_at = ? WHERE id = ?`, now(), formID)
	return errors.Wrap(err, "db.touch_form")
}
