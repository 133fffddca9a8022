package routes

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/routes/middlewares"
)

const maxNameLength = 150

type authResponse struct {
	User    *model.User `json:"user"`
	Token   string      `json:"token"`
	Message string      `json:"message"`
}

// requireString rejects absent and blank values.
func requireString(v *model.ValidationError, field string, value *string) {
	if value == nil {
		v.Add(field, "This field is required.")
	} else if strings.TrimSpace(*value) == "" {
		v.Add(field, "This field may not be blank.")
	}
}

func Register(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email     *string `json:"email"`
			Password  *string `json:"password"`
			Password2 *string `json:"password2"`
		}
		if !httpx.DecodeJSON(w, r, &body) {
			return
		}

		invalid := &model.ValidationError{}
		requireString(invalid, "email", body.Email)
		requireString(invalid, "password", body.Password)
		requireString(invalid, "password2", body.Password2)

		var email string
		if !invalid.Has("email") {
			email = model.NormalizeEmail(*body.Email)
			if !model.ValidEmail(email) {
				invalid.Add("email", "Enter a valid email address.")
			} else {
				taken, err := database.EmailTaken(r.Context(), app, email, 0)
				if err != nil {
					httpx.LogInternalError(w, r, "register.email_taken", err)
					return
				}
				if taken {
					invalid.Add("email", "A user with this email already exists.")
				}
			}
		}
		if !invalid.Has("password") {
			for _, problem := range model.PasswordProblems(*body.Password, email) {
				invalid.Add("password", problem)
			}
			if !invalid.Has("password2") && *body.Password != *body.Password2 {
				invalid.Add("password", "Password fields didn't match.")
			}
		}
		if invalid.Len() > 0 {
			httpx.LogInvalid(w, r, "register.validate", invalid)
			return
		}

		hash, err := app.HashPassword(*body.Password)
		if err != nil {
			httpx.LogInternalError(w, r, "register.hash_password", err)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, r, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		user := &model.User{Email: email, PasswordHash: hash}
		err = database.InsertUser(r.Context(), tx, user)
		if database.IsUniqueViolation(err) {
			httpx.LogInvalid(w, r, "register.insert_user", model.Invalid("email", "A user with this email already exists."))
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "register.insert_user", err)
			return
		}

		token, err := app.IssueToken(r.Context(), tx, user.ID)
		if err != nil {
			httpx.LogInternalError(w, r, "register.issue_token", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, r, "db.register.commit", err)
			return
		}

		httpx.JSON(w, r, http.StatusCreated, authResponse{
			User:    user,
			Token:   token,
			Message: "User registered successfully",
		})
	}
}

func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    *string `json:"email"`
			Password *string `json:"password"`
		}
		if !httpx.DecodeJSON(w, r, &body) {
			return
		}

		invalid := &model.ValidationError{}
		requireString(invalid, "email", body.Email)
		requireString(invalid, "password", body.Password)
		if !invalid.Has("email") && !model.ValidEmail(model.NormalizeEmail(*body.Email)) {
			invalid.Add("email", "Enter a valid email address.")
		}
		if invalid.Len() > 0 {
			httpx.LogInvalid(w, r, "login.validate", invalid)
			return
		}

		user, err := app.Authenticate(r.Context(), *body.Email, *body.Password)
		switch err {
		case nil:
		case httpx.ErrBadCredentials, httpx.ErrUserDisabled:
			httpx.LogInvalid(w, r, "login.authenticate", model.Invalid(model.NonFieldErrors, err.Error()))
			return
		default:
			httpx.LogInternalError(w, r, "login.authenticate", err)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, r, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		token, err := app.IssueToken(r.Context(), tx, user.ID)
		if err != nil {
			httpx.LogInternalError(w, r, "login.issue_token", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, r, "db.login.commit", err)
			return
		}

		httpx.JSON(w, r, http.StatusOK, authResponse{
			User:    user,
			Token:   token,
			Message: "Login successful",
		})
	}
}

func Logout(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middlewares.UserFromContext(r.Context())
		err := app.RevokeToken(r.Context(), user.ID)
		if err != nil {
			httpx.LogInternalError(w, r, "logout.revoke_token", err)
			return
		}
		httpx.JSON(w, r, http.StatusOK, httpx.Message{Message: "Logged out successfully"})
	}
}

func GetProfile(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middlewares.UserFromContext(r.Context())
		httpx.JSON(w, r, http.StatusOK, user.Profile())
	}
}

// UpdateProfile serves both PUT and PATCH: username, id and date_joined are
// read-only, and absent attributes keep their current value.
func UpdateProfile(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email     *string `json:"email"`
			FirstName *string `json:"first_name"`
			LastName  *string `json:"last_name"`
		}
		if !httpx.DecodeJSON(w, r, &body) {
			return
		}

		user := *middlewares.UserFromContext(r.Context())
		invalid := &model.ValidationError{}

		if body.Email != nil {
			email := model.NormalizeEmail(*body.Email)
			switch {
			case email == "":
				invalid.Add("email", "This field may not be blank.")
			case !model.ValidEmail(email):
				invalid.Add("email", "Enter a valid email address.")
			default:
				taken, err := database.EmailTaken(r.Context(), app, email, user.ID)
				if err != nil {
					httpx.LogInternalError(w, r, "profile.email_taken", err)
					return
				}
				if taken {
					invalid.Add("email", "A user with this email already exists.")
				}
				user.Email = email
			}
		}
		if body.FirstName != nil {
			user.FirstName = strings.TrimSpace(*body.FirstName)
			if utf8.RuneCountInString(user.FirstName) > maxNameLength {
				invalid.Add("first_name", "Ensure this field has no more than 150 characters.")
			}
		}
		if body.LastName != nil {
			user.LastName = strings.TrimSpace(*body.LastName)
			if utf8.RuneCountInString(user.LastName) > maxNameLength {
				invalid.Add("last_name", "Ensure this field has no more than 150 characters.")
			}
		}
		if invalid.Len() > 0 {
			httpx.LogInvalid(w, r, "profile.validate", invalid)
			return
		}

		err := database.UpdateProfile(r.Context(), app, &user)
		if database.IsUniqueViolation(err) {
			httpx.LogInvalid(w, r, "profile.update", model.Invalid("email", "A user with this email already exists."))
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "profile.update", err)
			return
		}

		httpx.JSON(w, r, http.StatusOK, user.Profile())
	}
}

func ChangePassword(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			OldPassword  *string `json:"old_password"`
			NewPassword  *string `json:"new_password"`
			NewPassword2 *string `json:"new_password2"`
		}
		if !httpx.DecodeJSON(w, r, &body) {
			return
		}

		user := middlewares.UserFromContext(r.Context())
		invalid := &model.ValidationError{}
		requireString(invalid, "old_password", body.OldPassword)
		requireString(invalid, "new_password", body.NewPassword)
		requireString(invalid, "new_password2", body.NewPassword2)

		if !invalid.Has("old_password") && !app.CheckPassword(user, *body.OldPassword) {
			invalid.Add("old_password", "Old password is incorrect.")
		}
		if !invalid.Has("new_password") {
			for _, problem := range model.PasswordProblems(*body.NewPassword, user.Email) {
				invalid.Add("new_password", problem)
			}
			if !invalid.Has("new_password2") && *body.NewPassword != *body.NewPassword2 {
				invalid.Add("new_password", "New password fields didn't match.")
			}
		}
		if invalid.Len() > 0 {
			httpx.LogInvalid(w, r, "change_password.validate", invalid)
			return
		}

		hash, err := app.HashPassword(*body.NewPassword)
		if err != nil {
			httpx.LogInternalError(w, r, "change_password.hash_password", err)
			return
		}
		err = database.SetPassword(r.Context(), app, user.ID, hash)
		if err != nil {
			httpx.LogInternalError(w, r, "change_password.update", err)
			return
		}

		httpx.JSON(w, r, http.StatusOK, httpx.Message{Message: "Password changed successfully"})
	}
}
