package routes

import (
	"net/http"

	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/routes/middlewares"
)

func listSubmissions(app app.App, w http.ResponseWriter, r *http.Request, filter database.SubmissionFilter) {
	p := newPager(r)
	count, err := database.CountSubmissions(r.Context(), app, filter)
	if err != nil {
		httpx.LogInternalError(w, r, "list_submissions.count", err)
		return
	}
	if !p.ok(w, r, count) {
		return
	}

	submissions, err := database.ListSubmissions(r.Context(), app, filter, p.size, p.offset())
	if err != nil {
		httpx.LogInternalError(w, r, "list_submissions", err)
		return
	}

	httpx.JSON(w, r, http.StatusOK, page(r, p, count, submissions))
}

func ListSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middlewares.UserFromContext(r.Context())
		listSubmissions(app, w, r, database.SubmissionFilter{OwnerID: user.ID})
	}
}

func GetSubmission(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		submissionID, ok := urlID(w, r, "get_submission")
		if !ok {
			return
		}

		user := middlewares.UserFromContext(r.Context())
		submission, err := database.OwnedSubmission(r.Context(), app, submissionID, user.ID)
		if err != nil {
			httpx.LogError(w, r, "get_submission", err)
			return
		}

		httpx.JSON(w, r, http.StatusOK, submission)
	}
}
