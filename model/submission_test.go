package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func surveyFields() []Field {
	return []Field{
		{ID: 1, Label: "Name", Type: FieldText, Required: true},
		{ID: 2, Label: "Color", Type: FieldSelect, Required: true, Options: []string{"Red", "Blue"}},
		{ID: 3, Label: "Age", Type: FieldNumber},
		{ID: 4, Label: "Mail", Type: FieldEmail},
		{ID: 5, Label: "Toppings", Type: FieldCheckbox, Options: []string{"Ham", "Egg"}},
		{ID: 6, Label: "Born", Type: FieldDate},
	}
}

func validationFields(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
	return verr.Fields()
}

func TestValidateSubmission_Accepts(t *testing.T) {
	err := ValidateSubmission(surveyFields(), []Answer{
		{FieldID: 1, Value: "Jo"},
		{FieldID: 2, Value: "Red"},
		{FieldID: 3, Value: "42.5"},
		{FieldID: 4, Value: "jo@example.com"},
		{FieldID: 5, Value: `["Ham","Egg"]`},
		{FieldID: 6, Value: "1990-04-01"},
	})
	assert.NoError(t, err)
}

func TestValidateSubmission_OptionalBlanksSkipChecks(t *testing.T) {
	err := ValidateSubmission(surveyFields(), []Answer{
		{FieldID: 1, Value: "Jo"},
		{FieldID: 2, Value: "Blue"},
		{FieldID: 3, Value: ""},
		{FieldID: 5, Value: "[]"},
	})
	assert.NoError(t, err)
}

func TestValidateSubmission_InvalidChoiceNamesField(t *testing.T) {
	err := ValidateSubmission(surveyFields(), []Answer{
		{FieldID: 1, Value: "Jo"},
		{FieldID: 2, Value: "Green"},
	})
	fields := validationFields(t, err)
	assert.Equal(t, []string{`"Green" is not a valid choice.`}, fields["Color"])
	assert.NotContains(t, fields, "Name")
}

func TestValidateSubmission_CollectsEveryViolation(t *testing.T) {
	err := ValidateSubmission(surveyFields(), []Answer{
		{FieldID: 1, Value: "   "},
		{FieldID: 3, Value: "forty"},
		{FieldID: 4, Value: "not-an-email"},
		{FieldID: 5, Value: `["Ham","Cheese"]`},
		{FieldID: 6, Value: "01/04/1990"},
		{FieldID: 99, Value: "x"},
	})
	fields := validationFields(t, err)
	assert.Equal(t, []string{"This field is required."}, fields["Name"])
	assert.Equal(t, []string{"This field is required."}, fields["Color"])
	assert.Equal(t, []string{"A valid number is required."}, fields["Age"])
	assert.Equal(t, []string{"Enter a valid email address."}, fields["Mail"])
	assert.Equal(t, []string{`"Cheese" is not a valid choice.`}, fields["Toppings"])
	assert.Equal(t, []string{"Date has wrong format. Use YYYY-MM-DD."}, fields["Born"])
	assert.Equal(t, []string{"Invalid field_id 99 for this form."}, fields["responses"])
}

func TestValidateSubmission_RejectsDuplicateAnswers(t *testing.T) {
	err := ValidateSubmission(surveyFields(), []Answer{
		{FieldID: 1, Value: "Jo"},
		{FieldID: 1, Value: "Al"},
		{FieldID: 2, Value: "Red"},
	})
	fields := validationFields(t, err)
	assert.Equal(t, []string{"Only one response per field is allowed."}, fields["Name"])
	assert.Len(t, fields, 1)
}

func TestValidateSubmission_NoFields(t *testing.T) {
	assert.NoError(t, ValidateSubmission(nil, nil))
}

func TestCleanField(t *testing.T) {
	tests := []struct {
		name    string
		field   Field
		wantErr []string
	}{
		{
			name:  "text",
			field: Field{Label: " Name ", Type: FieldText},
		},
		{
			name:  "select with options",
			field: Field{Label: "Color", Type: FieldSelect, Options: []string{"Red", "Blue"}},
		},
		{
			name:    "missing label and type",
			field:   Field{},
			wantErr: []string{"field_type", "label"},
		},
		{
			name:    "unknown type",
			field:   Field{Label: "X", Type: "slider"},
			wantErr: []string{"field_type"},
		},
		{
			name:    "choice without options",
			field:   Field{Label: "X", Type: FieldRadio},
			wantErr: []string{"options"},
		},
		{
			name:    "blank option",
			field:   Field{Label: "X", Type: FieldCheckbox, Options: []string{"a", " "}},
			wantErr: []string{"options"},
		},
		{
			name:    "duplicate option",
			field:   Field{Label: "X", Type: FieldSelect, Options: []string{"a", "a"}},
			wantErr: []string{"options"},
		},
		{
			name:    "negative order",
			field:   Field{Label: "X", Type: FieldText, Order: -1},
			wantErr: []string{"order"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.field
			err := CleanField(&f)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantErr, verr.Keys())
		})
	}
}

func TestCleanField_DropsOptionsForScalarTypes(t *testing.T) {
	f := Field{Label: " Name ", Type: FieldText, Options: []string{"ignored"}}
	require.NoError(t, CleanField(&f))
	assert.Nil(t, f.Options)
	assert.Equal(t, "Name", f.Label)
}

func TestCleanForm(t *testing.T) {
	f := Form{Title: "  Survey "}
	require.NoError(t, CleanForm(&f))
	assert.Equal(t, "Survey", f.Title)

	err := CleanForm(&Form{Title: " "})
	assert.Equal(t, []string{"This field is required."}, validationFields(t, err)["title"])
}

func TestAnswerValue_UnmarshalJSON(t *testing.T) {
	var answers []Answer
	body := `[
		{"field_id": 1, "value": "Jo"},
		{"field_id": 2, "value": 42},
		{"field_id": 3, "value": true},
		{"field_id": 4, "value": null},
		{"field_id": 5, "value": ["Ham", "Egg"]}
	]`
	require.NoError(t, json.Unmarshal([]byte(body), &answers))
	got := make([]string, len(answers))
	for i, a := range answers {
		got[i] = string(a.Value)
	}
	assert.Equal(t, []string{"Jo", "42", "true", "", `["Ham","Egg"]`}, got)
}
