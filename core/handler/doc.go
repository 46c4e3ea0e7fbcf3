// Package handler defines the request-processing abstractions shared by the
// router, the middleware and the application: a generic request Context, the
// Response renderer, HandlerFunc, ErrorHandler and Middleware.
//
// A handler returns a Response instead of writing directly, which lets
// middleware decorate the rendering step (set headers or cookies, capture the
// status code) after the handler has decided what to send:
//
//	func whoami(ctx *web.Context) handler.Response {
//		id, ok := middleware.GetIdentity(ctx)
//		if !ok {
//			return response.Error(response.ErrUnauthorized)
//		}
//		return response.JSON(map[string]string{"user": id})
//	}
//
// Middlewares compose with Chain; the first middleware is the outermost:
//
//	h := handler.Chain(whoami, middleware.RequestID[*web.Context](), gate)
package handler
