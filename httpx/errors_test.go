package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestLogError(t *testing.T) {
	invalid := &model.ValidationError{}
	invalid.Add("title", "This field is required.")

	tests := []struct {
		name   string
		err    error
		status int
		body   map[string]any
	}{
		{"validation", invalid, http.StatusBadRequest, map[string]any{"title": []any{"This field is required."}}},
		{"not found", database.ErrNotFound, http.StatusNotFound, map[string]any{"detail": DetailNotFound}},
		{"other", errors.New("boom"), http.StatusInternalServerError, map[string]any{"detail": DetailInternal}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			LogError(rec, httptest.NewRequest(http.MethodGet, "/", nil), "test", tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
			assert.Equal(t, tt.body, decode(t, rec))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct{ Title string }

	rec := httptest.NewRecorder()
	ok := DecodeJSON(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":`)), &v)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]any{"detail": DetailParse}, decode(t, rec))

	rec = httptest.NewRecorder()
	ok = DecodeJSON(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"x"}`)), &v)
	assert.True(t, ok)
	assert.Equal(t, "x", v.Title)
}
