package handler

import (
	"context"
	"net/http"
)

// Context defines the contract for request contexts.
// Values stored with SetValue must be visible through Value and through
// Request().Context() for the rest of the request.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
	Param(key string) string
	SetValue(key, val any)
}
