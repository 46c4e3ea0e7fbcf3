// Package router provides a generic HTTP router built on net/http.ServeMux
// pattern matching.
//
// Handlers receive a custom context type C created per request by the
// configured factory; middlewares are chained at registration time so each
// route carries exactly the middlewares visible where it was declared:
//
//	r := router.New[*web.Context](
//		router.WithContextFactory(web.NewContext),
//		router.WithErrorHandler(response.JSONErrorHandler[*web.Context]),
//	)
//	r.Use(middleware.RequestID[*web.Context]())
//	r.Get("/{$}", landing)
//	r.Group(func(r router.Router[*web.Context]) {
//		r.Use(gate)
//		r.Get("/sessions/{id}", conversationDetail)
//	})
//
// Unmatched paths produce ErrNotFound; a known path with the wrong method
// produces ErrMethodNotAllowed with an Allow header. Panics inside handlers
// are recovered and passed to the error handler as a PanicError.
package router
