// Package session issues and validates browser sessions backed by a
// kvstore.Store.
//
// A session is a random 256-bit id carried in an HttpOnly cookie plus an
// independent CSRF secret carried in a script-readable cookie. The server-side
// Record holds identity, timestamps, optional client fingerprints and the CSRF
// secret; it is the only authority, so clearing a record revokes the session
// no matter what the browser still holds.
//
// # Lifecycle
//
//	Issued -> Active -> Expired | IdleTimedOut | Revoked
//
// Issued may move directly to any terminal state. Terminal states have no
// outgoing transitions and terminal records are deleted, so an id can never be
// revived.
//
// # Usage
//
//	store, err := kvstore.NewFileStore(cfg.Dir)
//	if err != nil {
//		return err
//	}
//	mgr, err := session.NewManager(store, cfg, session.WithLogger(log))
//	if err != nil {
//		return err
//	}
//
//	// entry endpoint: reuse or start a session
//	rec, issued, err := mgr.Ensure(ctx, w, r, "")
//
//	// protected request; unsafe methods must carry the CSRF header
//	rec, err := mgr.FetchValid(ctx, r, r.Method == http.MethodPost)
//	switch {
//	case errors.Is(err, session.ErrUnauthenticated),
//		errors.Is(err, session.ErrSessionExpired),
//		errors.Is(err, session.ErrSessionIdleTimeout):
//		// 401
//	case errors.Is(err, session.ErrCSRFInvalid),
//		errors.Is(err, session.ErrBindingMismatch):
//		// 403
//	}
//
//	// logout
//	err = mgr.Revoke(ctx, w, r)
//
// Secrets and fingerprints are compared in constant time over SHA-256 digests.
// Binding to the User-Agent is on by default; BindDevice adds Accept-Language
// and Accept-Encoding, BindIPPrefix the client network.
//
// Concurrent refreshes of one session resolve as last writer wins. A refresh
// never recreates a record that Revoke or Sweep deleted after it was read,
// except in the short window between that check and the write.
//
// Timestamps persist in the fixed-width kvstore.TimestampLayout, so stored
// files sort correctly by any timestamp field.
//
// Sweep removes expired and idle records whose browsers never come back; Run
// calls it on an interval until its context ends.
package session
