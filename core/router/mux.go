package router

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"sync"

	"github.com/deployable-tech/deployable-knowledge-web/core/handler"
)

// allowedMethods is the set of methods the router accepts for registration.
var allowedMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
	http.MethodTrace,
}

// state is shared between a router and all of its inline groups.
type state[C handler.Context] struct {
	serveMux     *http.ServeMux
	errorHandler handler.ErrorHandler[C]
	newContext   func(http.ResponseWriter, *http.Request) C
	logger       *slog.Logger

	mu     sync.RWMutex
	routes []Route
}

// mux is the private implementation of Router interface.
type mux[C handler.Context] struct {
	state       *state[C]
	middlewares []handler.Middleware[C]
	hasRoutes   bool
}

// newMux creates a new router instance.
func newMux[C handler.Context](opts ...Option[C]) *mux[C] {
	m := &mux[C]{
		state: &state[C]{
			serveMux:     http.NewServeMux(),
			errorHandler: defaultErrorHandler[C],
			logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		},
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.state.newContext == nil {
		m.state.newContext = func(w http.ResponseWriter, r *http.Request) C {
			// Only the default *Context works without a factory
			var zero C
			if _, ok := any(zero).(*Context); ok {
				return any(NewContext(w, r)).(C)
			}
			panic(ErrNoContextFactory)
		}
	}

	return m
}

// ServeHTTP implements http.Handler interface.
func (m *mux[C]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ww := newResponseWriter(w)

	if !slices.Contains(allowedMethods, r.Method) {
		m.state.errorHandler(m.state.newContext(ww, r), ErrMethodNotAllowed)
		return
	}

	if _, pattern := m.state.serveMux.Handler(r); pattern == "" {
		ctx := m.state.newContext(ww, r)
		if allowed := m.allowed(r); len(allowed) > 0 {
			// Allow header per RFC 9110 before responding with 405
			ww.Header().Set("Allow", strings.Join(allowed, ", "))
			m.state.errorHandler(ctx, ErrMethodNotAllowed)
			return
		}
		m.state.errorHandler(ctx, ErrNotFound)
		return
	}

	m.state.serveMux.ServeHTTP(ww, r)
}

// allowed lists the methods that would have matched the request path.
func (m *mux[C]) allowed(r *http.Request) []string {
	var out []string
	for _, method := range allowedMethods {
		if method == r.Method {
			continue
		}
		probe := r.Clone(r.Context())
		probe.Method = method
		if _, pattern := m.state.serveMux.Handler(probe); pattern != "" {
			out = append(out, method)
		}
	}
	return out
}

// Get registers a handler for GET requests. HEAD requests are served by it too.
func (m *mux[C]) Get(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodGet, pattern, h)
}

// Post registers a handler for POST requests.
func (m *mux[C]) Post(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPost, pattern, h)
}

// Put registers a handler for PUT requests.
func (m *mux[C]) Put(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPut, pattern, h)
}

// Delete registers a handler for DELETE requests.
func (m *mux[C]) Delete(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodDelete, pattern, h)
}

// Patch registers a handler for PATCH requests.
func (m *mux[C]) Patch(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPatch, pattern, h)
}

// Options registers a handler for OPTIONS requests.
func (m *mux[C]) Options(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodOptions, pattern, h)
}

// Method registers a handler for one or more specific HTTP methods.
func (m *mux[C]) Method(pattern string, h handler.HandlerFunc[C], methods ...string) {
	if len(methods) == 0 {
		panic(fmt.Errorf("%w: no methods provided", ErrInvalidMethod))
	}

	seen := make(map[string]bool, len(methods))
	for _, method := range methods {
		method = strings.ToUpper(method)
		if !slices.Contains(allowedMethods, method) {
			panic(fmt.Errorf("%w: %s", ErrInvalidMethod, method))
		}
		if seen[method] {
			continue
		}
		seen[method] = true
		m.handle(method, pattern, h)
	}
}

// Use appends middleware to the router.
func (m *mux[C]) Use(middlewares ...handler.Middleware[C]) {
	if m.hasRoutes {
		panic("router: all middlewares must be defined before routes on a mux")
	}
	m.middlewares = append(m.middlewares, middlewares...)
}

// With creates a new inline router with additional middleware.
func (m *mux[C]) With(middlewares ...handler.Middleware[C]) Router[C] {
	return &mux[C]{
		state:       m.state,
		middlewares: append(slices.Clone(m.middlewares), middlewares...),
	}
}

// Group creates a new inline router for grouping routes.
func (m *mux[C]) Group(fn func(r Router[C])) Router[C] {
	im := m.With()
	if fn != nil {
		fn(im)
	}
	return im
}

// Routes returns all registered routes.
func (m *mux[C]) Routes() []Route {
	m.state.mu.RLock()
	defer m.state.mu.RUnlock()
	return slices.Clone(m.state.routes)
}

// handle registers a handler wrapped with the middlewares known at registration time.
func (m *mux[C]) handle(method, pattern string, fn handler.HandlerFunc[C]) {
	if len(pattern) == 0 || pattern[0] != '/' {
		panic(fmt.Errorf("%w: '%s'", ErrInvalidPattern, pattern))
	}
	if fn == nil {
		panic(fmt.Errorf("%w: nil handler for '%s'", ErrInvalidPattern, pattern))
	}

	m.hasRoutes = true
	h := handler.Chain(fn, m.middlewares...)

	m.state.serveMux.HandleFunc(method+" "+pattern, func(w http.ResponseWriter, r *http.Request) {
		m.serve(w, r, h)
	})

	m.state.mu.Lock()
	m.state.routes = append(m.state.routes, Route{Method: method, Pattern: pattern})
	m.state.mu.Unlock()
}

// serve runs a matched handler and renders its response.
func (m *mux[C]) serve(w http.ResponseWriter, r *http.Request, h handler.HandlerFunc[C]) {
	ctx := m.state.newContext(w, r)

	defer func() {
		if p := recover(); p != nil {
			panicErr := &panicError{
				value: p,
				stack: debug.Stack(),
			}

			if ww, ok := w.(*responseWriter); ok && ww.Written() {
				// Can't send error response, just log the panic
				m.state.logger.Error("panic after response written",
					"value", panicErr.value,
					"stack", string(panicErr.stack),
					"path", r.URL.Path,
					"method", r.Method,
					"status", ww.Status(),
				)
				return
			}
			m.state.errorHandler(ctx, panicErr)
		}
	}()

	resp := h(ctx)
	if resp == nil {
		m.state.errorHandler(ctx, ErrNilResponse)
		return
	}

	if err := resp(w, ctx.Request()); err != nil {
		m.state.errorHandler(ctx, err)
	}
}
