package routes

import (
	"encoding/json"
	"net/http"

	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/routes/middlewares"
)

type fieldInput struct {
	Label       *string          `json:"label"`
	Type        *model.FieldType `json:"field_type"`
	Required    *bool            `json:"required"`
	Placeholder *string          `json:"placeholder"`
	Options     json.RawMessage  `json:"options"`
	Order       *int             `json:"order"`
}

// apply copies the supplied attributes onto f. Unless partial, label and
// field_type must be present.
func (in fieldInput) apply(f *model.Field, partial bool) error {
	invalid := &model.ValidationError{}
	if !partial {
		if in.Label == nil {
			invalid.Add("label", "This field is required.")
		}
		if in.Type == nil {
			invalid.Add("field_type", "This field is required.")
		}
	}

	if in.Label != nil {
		f.Label = *in.Label
	}
	if in.Type != nil {
		f.Type = *in.Type
	}
	if in.Required != nil {
		f.Required = *in.Required
	}
	if in.Placeholder != nil {
		f.Placeholder = *in.Placeholder
	}
	if in.Order != nil {
		f.Order = *in.Order
	}
	if len(in.Options) > 0 {
		var opts []string
		if err := json.Unmarshal(in.Options, &opts); err != nil {
			invalid.Add("options", "Options must be a list of strings.")
		} else {
			f.Options = opts
		}
	}

	if err := model.CleanField(f); err != nil {
		for field, msgs := range err.(*model.ValidationError).Fields() {
			if invalid.Has(field) {
				continue
			}
			for _, msg := range msgs {
				invalid.Add(field, msg)
			}
		}
	}
	return invalid.ErrorOrNil()
}

func AddField(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, ok := urlID(w, r, "add_field")
		if !ok {
			return
		}

		var in fieldInput
		if !httpx.DecodeJSON(w, r, &in) {
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, r, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		user := middlewares.UserFromContext(r.Context())
		_, err = database.GetForm(r.Context(), tx, formID, database.FormFilter{OwnerID: user.ID})
		if err != nil {
			httpx.LogError(w, r, "add_field.form", err)
			return
		}

		field := &model.Field{FormID: formID}
		err = in.apply(field, false)
		if err != nil {
			httpx.LogError(w, r, "add_field.validate", err)
			return
		}

		err = database.InsertField(r.Context(), tx, field)
		if err != nil {
			httpx.LogInternalError(w, r, "add_field", err)
			return
		}
		err = database.TouchForm(r.Context(), tx, formID)
		if err != nil {
			httpx.LogInternalError(w, r, "add_field.touch_form", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, r, "db.add_field.commit", err)
			return
		}

		httpx.JSON(w, r, http.StatusCreated, field)
	}
}

func ListFields(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middlewares.UserFromContext(r.Context())

		p := newPager(r)
		count, err := database.CountOwnedFields(r.Context(), app, user.ID)
		if err != nil {
			httpx.LogInternalError(w, r, "list_fields.count", err)
			return
		}
		if !p.ok(w, r, count) {
			return
		}

		fields, err := database.ListOwnedFields(r.Context(), app, user.ID, p.size, p.offset())
		if err != nil {
			httpx.LogInternalError(w, r, "list_fields", err)
			return
		}

		httpx.JSON(w, r, http.StatusOK, page(r, p, count, fields))
	}
}

func GetField(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fieldID, ok := urlID(w, r, "get_field")
		if !ok {
			return
		}

		user := middlewares.UserFromContext(r.Context())
		field, err := database.OwnedField(r.Context(), app, fieldID, user.ID)
		if err != nil {
			httpx.LogError(w, r, "get_field", err)
			return
		}

		httpx.JSON(w, r, http.StatusOK, field)
	}
}

// UpdateField serves PUT, and PATCH when partial is set. The parent form
// never changes.
func UpdateField(app app.App, partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fieldID, ok := urlID(w, r, "update_field")
		if !ok {
			return
		}

		var in fieldInput
		if !httpx.DecodeJSON(w, r, &in) {
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, r, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		user := middlewares.UserFromContext(r.Context())
		field, err := database.OwnedField(r.Context(), tx, fieldID, user.ID)
		if err != nil {
			httpx.LogError(w, r, "update_field.get", err)
			return
		}

		err = in.apply(field, partial)
		if err != nil {
			httpx.LogError(w, r, "update_field.validate", err)
			return
		}

		err = database.UpdateField(r.Context(), tx, field)
		if err != nil {
			httpx.LogError(w, r, "update_field", err)
			return
		}
		err = database.TouchForm(r.Context(), tx, field.FormID)
		if err != nil {
			httpx.LogInternalError(w, r, "update_field.touch_form", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_field.commit", err)
			return
		}

		httpx.JSON(w, r, http.StatusOK, field)
	}
}

func DeleteField(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fieldID, ok := urlID(w, r, "delete_field")
		if !ok {
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, r, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		user := middlewares.UserFromContext(r.Context())
		field, err := database.OwnedField(r.Context(), tx, fieldID, user.ID)
		if err != nil {
			httpx.LogError(w, r, "delete_field.get", err)
			return
		}

		err = database.DeleteField(r.Context(), tx, field.ID)
		if err != nil {
			httpx.LogError(w, r, "delete_field", err)
			return
		}
		err = database.TouchForm(r.Context(), tx, field.FormID)
		if err != nil {
			httpx.LogInternalError(w, r, "delete_field.touch_form", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_field.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
