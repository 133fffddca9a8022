package database

import (
	"context"
	"database/sql"

	"github.com/mbolis/quick-forms/model"
	"github.com/pkg/errors"
)

// SubmissionFilter narrows submission listings. OwnerID is mandatory for
// every owner-facing query; FormID is optional.
type SubmissionFilter struct {
	OwnerID int64
	FormID  int64
}

func (f SubmissionFilter) where() (string, []any) {
	clause := ` WHERE f.owner_id = ?`
	args := []any{f.OwnerID}
	if f.FormID != 0 {
		clause += ` AND s.form_id = ?`
		args = append(args, f.FormID)
	}
	return clause, args
}

const submissionSelect = `
	SELECT s.id, s.form_id, s.submitted_at, s.ip_address
	FROM submission s
	INNER JOIN form f ON (f.id = s.form_id)`

func scanSubmission(row interface{ Scan(...any) error }) (*model.Submission, error) {
	s := &model.Submission{Responses: []model.Response{}}
	var ip sql.NullString
	err := row.Scan(&s.ID, &s.FormID, &s.SubmittedAt, &ip)
	if err != nil {
		return nil, err
	}
	if ip.Valid {
		s.IPAddress = &ip.String
	}
	return s, nil
}

// InsertSubmission stores s and one response per answer. Run it inside a
// transaction so a failing response leaves no submission behind.
func InsertSubmission(ctx context.Context, q Querier, s *model.Submission, answers []model.Answer) error {
	s.SubmittedAt = now()
	var ip sql.NullString
	if s.IPAddress != nil {
		ip = sql.NullString{String: *s.IPAddress, Valid: true}
	}
	err := q.QueryRowContext(ctx, `
		INSERT INTO submission (form_id, submitted_at, ip_address) VALUES (?, ?, ?)
		RETURNING id`,
		s.FormID, s.SubmittedAt, ip,
	).Scan(&s.ID)
	if err != nil {
		return errors.Wrap(err, "db.insert_submission")
	}

	s.Responses = make([]model.Response, 0, len(answers))
	for _, a := range answers {
		r := model.Response{FieldID: a.FieldID, Value: string(a.Value)}
		err = q.QueryRowContext(ctx, `
			INSERT INTO response (submission_id, field_id, value) VALUES (?, ?, ?)
			RETURNING id`,
			s.ID, r.FieldID, r.Value,
		).Scan(&r.ID)
		if err != nil {
			return errors.Wrap(err, "db.insert_submission.responses")
		}
		s.Responses = append(s.Responses, r)
	}
	return nil
}

func CountSubmissions(ctx context.Context, q Querier, filter SubmissionFilter) (n int, err error) {
	where, args := filter.where()
	err = q.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM submission s
		INNER JOIN form f ON (f.id = s.form_id)`+where,
		args...,
	).Scan(&n)
	err = errors.Wrap(err, "db.count_submissions")
	return
}

// ListSubmissions returns a page of submissions, newest first, each with its
// responses and their fields.
func ListSubmissions(ctx context.Context, q Querier, filter SubmissionFilter, limit, offset int) ([]model.Submission, error) {
	where, args := filter.where()
	rows, err := q.QueryContext(ctx,
		submissionSelect+where+` ORDER BY s.submitted_at DESC, s.id DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, errors.Wrap(err, "db.list_submissions")
	}
	defer rows.Close()

	submissions := []model.Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, errors.Wrap(err, "db.list_submissions.scan")
		}
		submissions = append(submissions, *s)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "db.list_submissions.rows")
	}
	rows.Close()

	if err = attachResponses(ctx, q, submissions); err != nil {
		return nil, err
	}
	return submissions, nil
}

// OwnedSubmission loads one submission of a form belonging to ownerID.
func OwnedSubmission(ctx context.Context, q Querier, id, ownerID int64) (*model.Submission, error) {
	where, args := SubmissionFilter{OwnerID: ownerID}.where()
	s, err := scanSubmission(q.QueryRowContext(ctx, submissionSelect+where+` AND s.id = ?`, append(args, id)...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "db.get_submission")
	}

	list := []model.Submission{*s}
	if err = attachResponses(ctx, q, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func attachResponses(ctx context.Context, q Querier, submissions []model.Submission) error {
	if len(submissions) == 0 {
		return nil
	}
	index := make(map[int64]int, len(submissions))
	ids := make([]int64, len(submissions))
	for i, s := range submissions {
		index[s.ID] = i
		ids[i] = s.ID
	}

	rows, err := q.QueryContext(ctx, `
		SELECT r.id, r.submission_id, r.value, `+fieldColumns+`
		FROM response r
		INNER JOIN form_field ff ON (ff.id = r.field_id)
		WHERE r.submission_id IN (`+placeholders(len(ids))+`)
		ORDER BY r.submission_id, ff.order_index, ff.id`,
		int64Args(ids)...,
	)
	if err != nil {
		return errors.Wrap(err, "db.get_responses")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r            model.Response
			submissionID int64
		)
		field, err := scanField(rowFunc(func(dest ...any) error {
			return rows.Scan(append([]any{&r.ID, &submissionID, &r.Value}, dest...)...)
		}))
		if err != nil {
			return errors.Wrap(err, "db.get_responses.scan")
		}
		r.FieldID = field.ID
		r.Field = field
		i := index[submissionID]
		submissions[i].Responses = append(submissions[i].Responses, r)
	}
	return errors.Wrap(rows.Err(), "db.get_responses.rows")
}

// rowFunc adapts a closure to the Scan interface so column prefixes can be
// shared between queries.
type rowFunc func(dest ...any) error

func (f rowFunc) Scan(dest ...any) error {
	return f(dest...)
}
