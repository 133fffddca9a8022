package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(
		middleware.RequestID,
		middleware.RealIP,
		middlewares.RequestLogger,
		middlewares.Measure(app.Metrics),
		middleware.Recoverer,
		middleware.StripSlashes,
	)
	root.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.LogNotFound(w, r, "route", r.URL.Path)
	})
	root.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.LogStatus(w, r, http.StatusMethodNotAllowed, log.DebugLevel, "route.method",
			`Method "`+r.Method+`" not allowed.`)
	})

	root.Get("/healthz", Health(app))
	root.Method(http.MethodGet, "/metrics", app.Metrics.Handler())
	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Route("/auth", func(r chi.Router) {
		r.Post("/register", Register(app))
		r.Post("/login", Login(app))

		r.Group(func(r chi.Router) {
			r.Use(middlewares.TokenAuth(app.Credentials))

			r.Post("/logout", Logout(app))
			r.Get("/profile", GetProfile(app))
			r.Put("/profile", UpdateProfile(app))
			r.Patch("/profile", UpdateProfile(app))
			r.Post("/change-password", ChangePassword(app))
		})
	})

	api.Route("/public/forms", func(r chi.Router) {
		r.Get("/", PublicListForms(app))
		r.Get(`/{id:^\d+$}`, PublicGetForm(app))
		r.Post(`/{id:^\d+$}/submit`, PublicSubmitForm(app))
	})

	api.Group(func(r chi.Router) {
		r.Use(middlewares.TokenAuth(app.Credentials))

		// CRUD form
		r.Post("/forms", CreateForm(app))
		r.Get("/forms", ListForms(app))
		r.Get(`/forms/{id:^\d+$}`, GetForm(app))
		r.Put(`/forms/{id:^\d+$}`, UpdateForm(app, false))
		r.Patch(`/forms/{id:^\d+$}`, UpdateForm(app, true))
		r.Delete(`/forms/{id:^\d+$}`, DeleteForm(app))

		r.Post(`/forms/{id:^\d+$}/add_field`, AddField(app))
		r.Get(`/forms/{id:^\d+$}/submissions`, GetFormSubmissions(app))

		// RUD field
		r.Get("/fields", ListFields(app))
		r.Get(`/fields/{id:^\d+$}`, GetField(app))
		r.Put(`/fields/{id:^\d+$}`, UpdateField(app, false))
		r.Patch(`/fields/{id:^\d+$}`, UpdateField(app, true))
		r.Delete(`/fields/{id:^\d+$}`, DeleteField(app))

		r.Get("/submissions", ListSubmissions(app))
		r.Get(`/submissions/{id:^\d+$}`, GetSubmission(app))
	})

	return api
}

func Health(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := app.PingContext(r.Context()); err != nil {
			httpx.LogInternalError(w, r, "health.ping", err)
			return
		}
		httpx.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	}
}
