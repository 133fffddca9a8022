package routes

import (
	"net/http"

	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/metrics"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/routes/middlewares"
)

var activeForms = database.FormFilter{ActiveOnly: true}

func PublicListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := newPager(r)
		count, err := database.CountForms(r.Context(), app, activeForms)
		if err != nil {
			httpx.LogInternalError(w, r, "public_list_forms.count", err)
			return
		}
		if !p.ok(w, r, count) {
			return
		}

		forms, err := database.ListForms(r.Context(), app, activeForms, p.size, p.offset())
		if err != nil {
			httpx.LogInternalError(w, r, "public_list_forms", err)
			return
		}
		for i := range forms {
			forms[i].CreatedBy = nil
		}

		httpx.JSON(w, r, http.StatusOK, page(r, p, count, forms))
	}
}

func PublicGetForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, ok := urlID(w, r, "public_get_form")
		if !ok {
			return
		}

		form, err := database.GetForm(r.Context(), app, formID, activeForms)
		if err != nil {
			httpx.LogError(w, r, "public_get_form", err)
			return
		}
		form.CreatedBy = nil

		httpx.JSON(w, r, http.StatusOK, form)
	}
}

func PublicSubmitForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, ok := urlID(w, r, "submit_form")
		if !ok {
			return
		}

		var body struct {
			Responses []model.Answer `json:"responses"`
		}
		if !httpx.DecodeJSON(w, r, &body) {
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, r, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		form, err := database.GetForm(r.Context(), tx, formID, activeForms)
		if err != nil {
			httpx.LogError(w, r, "submit_form.form", err)
			return
		}

		err = model.ValidateSubmission(form.Fields, body.Responses)
		if err != nil {
			app.ObserveSubmission(metrics.Rejected)
			httpx.LogError(w, r, "submit_form.validate", err)
			return
		}

		types := make(map[int64]model.FieldType, len(form.Fields))
		for _, f := range form.Fields {
			types[f.ID] = f.Type
		}
		answers := make([]model.Answer, len(body.Responses))
		for i, a := range body.Responses {
			if types[a.FieldID].IsBlank(string(a.Value)) {
				a.Value = ""
			}
			answers[i] = a
		}

		ip := middlewares.ClientIP(r)
		submission := &model.Submission{FormID: form.ID, IPAddress: &ip}
		err = database.InsertSubmission(r.Context(), tx, submission, answers)
		if err != nil {
			httpx.LogInternalError(w, r, "submit_form.insert", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, r, "db.submit_form.commit", err)
			return
		}
		app.ObserveSubmission(metrics.Accepted)

		httpx.JSON(w, r, http.StatusCreated, httpx.Message{Message: "Form submitted successfully"})
	}
}
