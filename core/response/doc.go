// Package response builds handler.Response values: plain text, HTML, JSON and
// empty-status responses, response decorators, and the structured HTTPError
// type used for every error body the service sends.
//
// Handlers return errors through Error; the router hands them to an
// ErrorHandler such as JSONErrorHandler, which renders
//
//	{"code": "forbidden", "message": "CSRF token missing or invalid"}
//
// with the status carried by the HTTPError (or 500 for plain errors).
package response
