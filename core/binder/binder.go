// Package binder maps form fields onto tagged struct fields.
//
//	type chatForm struct {
//		Message string `form:"message"`
//		TopK    int    `form:"top_k"`
//	}
//	var f chatForm
//	if err := binder.Form(1 << 20)(r, &f); err != nil { ... }
//
// Supported field kinds: string, signed and unsigned integers, bool, pointers
// to those (for optional fields) and slices (repeated fields). Absent fields
// keep their current value, so defaults can be set before binding.
package binder

import (
	"errors"
	"net/http"
)

var (
	// ErrUnsupportedMediaType is returned for bodies that are not form encoded.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	// ErrFailedToParseForm is returned for malformed bodies and unconvertible values.
	ErrFailedToParseForm = errors.New("failed to parse form data")
)

// FieldError reports a value that could not be converted to its field's type.
// It wraps ErrFailedToParseForm.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return ErrFailedToParseForm.Error() + ": field " + e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() []error { return []error{ErrFailedToParseForm, e.Err} }

// Binder binds request data to v, which must be a pointer to a struct.
type Binder func(r *http.Request, v any) error
