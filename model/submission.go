package model

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 200
	MaxLabelLength       = 200
	MaxPlaceholderLength = 200
)

const msgRequired = "This field is required."

// CleanForm trims and checks the user-editable attributes of a form.
func CleanForm(f *Form) error {
	v := &ValidationError{}
	f.Title = strings.TrimSpace(f.Title)
	switch {
	case f.Title == "":
		v.Add("title", msgRequired)
	case utf8.RuneCountInString(f.Title) > MaxTitleLength:
		v.Add("title", fmt.Sprintf("Ensure this field has no more than %d characters.", MaxTitleLength))
	}
	return v.ErrorOrNil()
}

// CleanField checks a field definition. Options are kept only for choice
// types and are reset to nil for every other type.
func CleanField(f *Field) error {
	v := &ValidationError{}

	f.Label = strings.TrimSpace(f.Label)
	switch {
	case f.Label == "":
		v.Add("label", msgRequired)
	case utf8.RuneCountInString(f.Label) > MaxLabelLength:
		v.Add("label", fmt.Sprintf("Ensure this field has no more than %d characters.", MaxLabelLength))
	}

	switch {
	case f.Type == "":
		v.Add("field_type", msgRequired)
	case !f.Type.Valid():
		v.Add("field_type", fmt.Sprintf("%q is not a valid choice.", f.Type))
	}

	if utf8.RuneCountInString(f.Placeholder) > MaxPlaceholderLength {
		v.Add("placeholder", fmt.Sprintf("Ensure this field has no more than %d characters.", MaxPlaceholderLength))
	}
	if f.Order < 0 {
		v.Add("order", "Ensure this value is greater than or equal to 0.")
	}

	if !f.Type.IsChoice() {
		f.Options = nil
		return v.ErrorOrNil()
	}

	if len(f.Options) == 0 {
		v.Add("options", fmt.Sprintf("A %s field needs at least one option.", f.Type))
	}
	seen := make(map[string]bool, len(f.Options))
	for _, o := range f.Options {
		if strings.TrimSpace(o) == "" {
			v.Add("options", "Options must be non-empty strings.")
			break
		}
		if seen[o] {
			v.Add("options", fmt.Sprintf("Duplicate option %q.", o))
			break
		}
		seen[o] = true
	}
	return v.ErrorOrNil()
}

// ValidateSubmission checks answers against the fields of one form and
// returns every violation found, keyed by field label. Unknown field ids are
// reported under "responses".
func ValidateSubmission(fields []Field, answers []Answer) error {
	v := &ValidationError{}

	byID := make(map[int64]Field, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
	}

	seen := make(map[int64]bool, len(answers))
	answered := make(map[int64]bool, len(answers))
	reported := make(map[int64]bool)
	for _, a := range answers {
		f, ok := byID[a.FieldID]
		if !ok {
			v.Add("responses", fmt.Sprintf("Invalid field_id %d for this form.", a.FieldID))
			continue
		}
		if seen[f.ID] {
			v.Add(f.Label, "Only one response per field is allowed.")
			reported[f.ID] = true
			continue
		}
		seen[f.ID] = true

		value := string(a.Value)
		if f.Type.IsBlank(value) {
			continue
		}
		answered[f.ID] = true
		if msg := f.Type.Check(f, value); msg != "" {
			v.Add(f.Label, msg)
			reported[f.ID] = true
		}
	}

	for _, f := range fields {
		if f.Required && !answered[f.ID] && !reported[f.ID] {
			v.Add(f.Label, msgRequired)
		}
	}

	return v.ErrorOrNil()
}
