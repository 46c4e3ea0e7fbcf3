// Package health provides liveness and readiness handlers.
//
//	r.Get("/healthz", health.Liveness[*web.Context])
//	r.Get("/health", health.Readiness[*web.Context](log,
//		health.Check{Name: "sessions", Ping: sessionStore.Ping},
//		health.Check{Name: "conversations", Ping: conversationStore.Ping},
//	))
package health
