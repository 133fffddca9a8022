package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/mail"
	"strconv"
	"strings"
	"time"
)

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldNumber   FieldType = "number"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldRadio    FieldType = "radio"
	FieldCheckbox FieldType = "checkbox"
	FieldDate     FieldType = "date"
	FieldFile     FieldType = "file"
)

// DateLayout is the accepted format of date answers.
const DateLayout = "2006-01-02"

// FieldTypes lists every supported type in display order.
var FieldTypes = []FieldType{
	FieldText, FieldEmail, FieldNumber, FieldTextarea,
	FieldSelect, FieldRadio, FieldCheckbox, FieldDate, FieldFile,
}

// fieldKind describes one variant: whether it draws values from a list of
// options, and how a non-blank answer is checked. check returns "" when the
// value is acceptable.
type fieldKind struct {
	choice bool
	check  func(f Field, value string) string
}

var fieldKinds = map[FieldType]fieldKind{
	FieldText:     {check: acceptAny},
	FieldTextarea: {check: acceptAny},
	FieldFile:     {check: acceptAny},
	FieldEmail:    {check: checkEmail},
	FieldNumber:   {check: checkNumber},
	FieldDate:     {check: checkDate},
	FieldSelect:   {choice: true, check: checkOneOf},
	FieldRadio:    {choice: true, check: checkOneOf},
	FieldCheckbox: {choice: true, check: checkSomeOf},
}

func (t FieldType) Valid() bool {
	_, ok := fieldKinds[t]
	return ok
}

// IsChoice reports whether answers must be drawn from the field's options.
func (t FieldType) IsChoice() bool {
	return fieldKinds[t].choice
}

// IsBlank reports whether value counts as "no answer" for this type.
func (t FieldType) IsBlank(value string) bool {
	v := strings.TrimSpace(value)
	if v == "" {
		return true
	}
	if t == FieldCheckbox {
		var picked []string
		if json.Unmarshal([]byte(v), &picked) == nil && len(picked) == 0 {
			return true
		}
	}
	return false
}

// Check validates a non-blank answer against field f. It returns a
// human-readable message, or "" when the value is acceptable.
func (t FieldType) Check(f Field, value string) string {
	kind, ok := fieldKinds[t]
	if !ok {
		return fmt.Sprintf("Unsupported field type %q.", t)
	}
	return kind.check(f, value)
}

func acceptAny(Field, string) string {
	return ""
}

func checkEmail(_ Field, value string) string {
	v := strings.TrimSpace(value)
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return "Enter a valid email address."
	}
	return ""
}

func checkNumber(_ Field, value string) string {
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return "A valid number is required."
	}
	return ""
}

func checkDate(_ Field, value string) string {
	if _, err := time.Parse(DateLayout, strings.TrimSpace(value)); err != nil {
		return "Date has wrong format. Use YYYY-MM-DD."
	}
	return ""
}

func checkOneOf(f Field, value string) string {
	if !hasOption(f.Options, value) {
		return fmt.Sprintf("%q is not a valid choice.", value)
	}
	return ""
}

// checkSomeOf accepts either a single option or a JSON array of options.
func checkSomeOf(f Field, value string) string {
	v := strings.TrimSpace(value)
	if strings.HasPrefix(v, "[") {
		var picked []string
		if err := json.Unmarshal([]byte(v), &picked); err != nil {
			return "Expected an option or a list of options."
		}
		seen := make(map[string]bool, len(picked))
		for _, p := range picked {
			if !hasOption(f.Options, p) {
				return fmt.Sprintf("%q is not a valid choice.", p)
			}
			if seen[p] {
				return fmt.Sprintf("Duplicate choice %q.", p)
			}
			seen[p] = true
		}
		return ""
	}
	return checkOneOf(f, value)
}

func hasOption(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}

// AnswerValue is the textual form of a submitted value. Clients may send a
// JSON string, number, boolean, array or null; everything but strings is kept
// as its compact JSON text and null becomes "".
type AnswerValue string

func (a *AnswerValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AnswerValue(s)
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*a = AnswerValue(buf.String())
	}
	return nil
}
