package httpx

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
)

// Detail is the body of every non-validation error response.
type Detail struct {
	Detail string `json:"detail"`
}

// Message is the body of plain success responses.
type Message struct {
	Message string `json:"message"`
}

const (
	DetailNotFound = "Not found."
	DetailParse    = "JSON parse error."
	DetailInternal = "Internal server error."
	DetailNoCreds  = "Authentication credentials were not provided."
	DetailBadToken = "Invalid token."
	DetailInactive = "User inactive or deleted."
	DetailExpired  = "Token has expired."
	DetailBadPage  = "Invalid page."
)

// Will log an error, and send an HTTP response with status 500 and a generic detail
func LogInternalError(w http.ResponseWriter, r *http.Request, code string, err error) {
	log.Errorf("%s: %s", code, err)
	writeDetail(w, r, http.StatusInternalServerError, DetailInternal)
}

// Will log a debug message, and send an HTTP response with status 404
func LogNotFound(w http.ResponseWriter, r *http.Request, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	writeDetail(w, r, http.StatusNotFound, DetailNotFound)
}

// Will log an error code at the given level, and send
// an HTTP response with status and detail
func LogStatus(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string, detail string) {
	log.Log(level, code)
	writeDetail(w, r, status, detail)
}

// Will log the rejected input names at debug level, and send
// an HTTP response with status 400 and the field-keyed messages
func LogInvalid(w http.ResponseWriter, r *http.Request, code string, err *model.ValidationError) {
	log.Debugf("%s: invalid %v", code, err.Keys())
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, err.Fields())
}

// LogError picks the response for err: 400 for validation errors, 404 for
// missing rows and 500 for anything else.
func LogError(w http.ResponseWriter, r *http.Request, code string, err error) {
	var invalid *model.ValidationError
	switch {
	case errors.As(err, &invalid):
		LogInvalid(w, r, code, invalid)
	case errors.Is(err, database.ErrNotFound):
		LogNotFound(w, r, code, err)
	default:
		LogInternalError(w, r, code, err)
	}
}

// DecodeJSON reads the request body into v, answering 400 on malformed input.
// It reports whether the caller may go on.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		log.Debugf("request.parse_body: %s", err)
		writeDetail(w, r, http.StatusBadRequest, DetailParse)
		return false
	}
	return true
}

// JSON renders v with the given status.
func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func writeDetail(w http.ResponseWriter, r *http.Request, status int, detail string) {
	JSON(w, r, status, Detail{detail})
}
