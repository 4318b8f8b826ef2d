package inference

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Skufu/medpredict/internal/schema"
)

// ErrorKind is a coarse classification callers use to pick a reaction:
// re-prompt the user or raise an internal alert.
type ErrorKind string

const (
	KindParse           ErrorKind = "parse"
	KindUnknownCategory ErrorKind = "unknown_category"
	KindOutOfRange      ErrorKind = "out_of_range"
	KindIncomplete      ErrorKind = "incomplete_input"
	KindInference       ErrorKind = "inference"
)

// ParseError reports numeric text that is not a valid number.
type ParseError struct {
	Field string
	Raw   string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("field %s: %q is not a valid number", e.Field, e.Raw)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UnknownCategoryError reports a label absent from the field's code table.
type UnknownCategoryError struct {
	Field string
	Label string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("field %s: unknown option %q", e.Field, e.Label)
}

// RangeError reports a parsed value outside the field's documented range.
// It is only produced when range enforcement is enabled.
type RangeError struct {
	Field string
	Value float64
	Range schema.Range
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("field %s: %g outside %s", e.Field, e.Value, e.Range)
}

// IncompleteInputError lists required fields missing from a request.
type IncompleteInputError struct {
	Domain  schema.Domain
	Missing []string
}

func (e *IncompleteInputError) Error() string {
	return fmt.Sprintf("%s: missing fields %s", e.Domain, strings.Join(e.Missing, ", "))
}

// InferenceError wraps a failure of a scaler or model artifact. It points at
// an inconsistency between schema and artifact, never at user data.
type InferenceError struct {
	Domain schema.Domain
	Err    error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("%s inference failed: %v", e.Domain, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// KindOf classifies err. It returns "" for errors outside the taxonomy.
func KindOf(err error) ErrorKind {
	var (
		pe *ParseError
		ce *UnknownCategoryError
		re *RangeError
		ie *IncompleteInputError
		fe *InferenceError
	)
	switch {
	case errors.As(err, &pe):
		return KindParse
	case errors.As(err, &ce):
		return KindUnknownCategory
	case errors.As(err, &re):
		return KindOutOfRange
	case errors.As(err, &ie):
		return KindIncomplete
	case errors.As(err, &fe):
		return KindInference
	}
	return ""
}

// IsUserInput reports whether err was caused by bad user data that a fresh
// form submission can fix.
func IsUserInput(err error) bool {
	switch KindOf(err) {
	case KindParse, KindUnknownCategory, KindOutOfRange:
		return true
	}
	return false
}

// FieldOf returns the offending field of a user input error.
func FieldOf(err error) string {
	var (
		pe *ParseError
		ce *UnknownCategoryError
		re *RangeError
	)
	switch {
	case errors.As(err, &pe):
		return pe.Field
	case errors.As(err, &ce):
		return ce.Field
	case errors.As(err, &re):
		return re.Field
	}
	return ""
}
