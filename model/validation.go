package model

import (
	"errors"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// NonFieldErrors is the key under which errors not tied to one input are reported.
const NonFieldErrors = "non_field_errors"

// FieldError is a single violation attached to an input name.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationError accumulates every violation found in a request so they can
// be reported together.
type ValidationError struct {
	errs *multierror.Error
}

func (v *ValidationError) Add(field, msg string) {
	v.errs = multierror.Append(v.errs, &FieldError{Field: field, Message: msg})
}

func (v *ValidationError) Len() int {
	if v == nil || v.errs == nil {
		return 0
	}
	return v.errs.Len()
}

// Has reports whether any violation was recorded for field.
func (v *ValidationError) Has(field string) bool {
	_, ok := v.Fields()[field]
	return ok
}

// ErrorOrNil returns v as an error when it holds violations, nil otherwise.
func (v *ValidationError) ErrorOrNil() error {
	if v.Len() == 0 {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	if v.Len() == 0 {
		return "validation failed"
	}
	msgs := make([]string, 0, v.Len())
	for _, err := range v.errs.Errors {
		msgs = append(msgs, err.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Fields groups messages by input name, keeping insertion order per field.
func (v *ValidationError) Fields() map[string][]string {
	out := map[string][]string{}
	if v.Len() == 0 {
		return out
	}
	for _, err := range v.errs.Errors {
		var fe *FieldError
		if errors.As(err, &fe) {
			out[fe.Field] = append(out[fe.Field], fe.Message)
		} else {
			out[NonFieldErrors] = append(out[NonFieldErrors], err.Error())
		}
	}
	return out
}

// Keys lists the input names holding violations, sorted.
func (v *ValidationError) Keys() []string {
	fields := v.Fields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Invalid builds a ValidationError holding a single message.
func Invalid(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}
