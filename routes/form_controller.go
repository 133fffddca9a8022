package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/routes/middlewares"
)

// urlID parses the {id} URL parameter. Ids out of range cannot exist, so
// they answer 404.
func urlID(w http.ResponseWriter, r *http.Request, code string) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		httpx.LogNotFound(w, r, code, raw)
		return 0, false
	}
	return id, true
}

type formInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// apply copies the supplied attributes onto f. Unless partial, title must be
// present.
func (in formInput) apply(f *model.Form, partial bool) error {
	if in.Title == nil && !partial {
		return model.Invalid("title", "This field is required.")
	}
	if in.Title != nil {
		f.Title = *in.Title
	}
	if in.Description != nil {
		f.Description = *in.Description
	}
	if in.IsActive != nil {
		f.IsActive = *in.IsActive
	}
	return model.CleanForm(f)
}

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in formInput
		if !httpx.DecodeJSON(w, r, &in) {
			return
		}

		user := middlewares.UserFromContext(r.Context())
		form := &model.Form{OwnerID: user.ID, IsActive: true}
		err := in.apply(form, false)
		if err != nil {
			httpx.LogError(w, r, "create_form.validate", err)
			return
		}

		err = database.InsertForm(r.Context(), app, form)
		if err != nil {
			httpx.LogInternalError(w, r, "create_form", err)
			return
		}
		form.CreatedBy = user

		httpx.JSON(w, r, http.StatusCreated, form)
	}
}

func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middlewares.UserFromContext(r.Context())
		filter := database.FormFilter{OwnerID: user.ID}

		p := newPager(r)
		count, err := database.CountForms(r.Context(), app, filter)
		if err != nil {
			httpx.LogInternalError(w, r, "list_forms.count", err)
			return
		}
		if !p.ok(w, r, count) {
			return
		}

		forms, err := database.ListForms(r.Context(), app, filter, p.size, p.offset())
		if err != nil {
			httpx.LogInternalError(w, r, "list_forms", err)
			return
		}

		httpx.JSON(w, r, http.StatusOK, page(r, p, count, forms))
	}
}

func GetForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, ok := urlID(w, r, "get_form")
		if !ok {
			return
		}

		user := middlewares.UserFromContext(r.Context())
		form, err := database.GetForm(r.Context(), app, formID, database.FormFilter{OwnerID: user.ID})
		if err != nil {
			httpx.LogError(w, r, "get_form", err)
			return
		}

		httpx.JSON(w, r, http.StatusOK, form)
	}
}

// UpdateForm serves PUT, and PATCH when partial is set.
func UpdateForm(app app.App, partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, ok := urlID(w, r, "update_form")
		if !ok {
			return
		}

		var in formInput
		if !httpx.DecodeJSON(w, r, &in) {
			return
		}

		user := middlewares.UserFromContext(r.Context())
		form, err := database.GetForm(r.Context(), app, formID, database.FormFilter{OwnerID: user.ID})
		if err != nil {
			httpx.LogError(w, r, "update_form.get", err)
			return
		}

		err = in.apply(form, partial)
		if err != nil {
			httpx.LogError(w, r, "update_form.validate", err)
			return
		}

		err = database.UpdateForm(r.Context(), app, form)
		if err != nil {
			httpx.LogError(w, r, "update_form", err)
			return
		}

		httpx.JSON(w, r, http.StatusOK, form)
	}
}

func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, ok := urlID(w, r, "delete_form")
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
		_, err = database.GetForm(r.Context(), tx, formID, database.FormFilter{OwnerID: user.ID})
		if err != nil {
			httpx.LogError(w, r, "delete_form.get", err)
			return
		}

		err = database.DeleteForm(r.Context(), tx, formID)
		if err != nil {
			httpx.LogError(w, r, "delete_form", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_form.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func GetFormSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, ok := urlID(w, r, "get_submissions")
		if !ok {
			return
		}

		user := middlewares.UserFromContext(r.Context())
		_, err := database.GetForm(r.Context(), app, formID, database.FormFilter{OwnerID: user.ID})
		if err != nil {
			httpx.LogError(w, r, "get_submissions.form", err)
			return
		}

		listSubmissions(app, w, r, database.SubmissionFilter{OwnerID: user.ID, FormID: formID})
	}
}
