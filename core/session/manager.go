package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/deployable-tech/deployable-knowledge-web/core/cookie"
	"github.com/deployable-tech/deployable-knowledge-web/core/kvstore"
	"github.com/deployable-tech/deployable-knowledge-web/core/logger"
	"github.com/deployable-tech/deployable-knowledge-web/pkg/clientip"
	"github.com/deployable-tech/deployable-knowledge-web/pkg/fingerprint"
)

// Manager issues, validates, revokes and sweeps browser sessions.
// It keeps no in-process cache: every call reads the store, so any number of
// concurrent requests and processes sharing the directory see one truth.
type Manager struct {
	cfg       Config
	records   *kvstore.Collection[Record]
	transport cookieTransport
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for advisory failures and sweeps.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock replaces time.Now. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithCookieManager sets the cookie manager whose defaults (domain, size limit) apply.
func WithCookieManager(c *cookie.Manager) Option {
	return func(m *Manager) {
		if c != nil {
			m.transport.cookies = c
		}
	}
}

// NewManager returns a Manager persisting records in store.
func NewManager(store kvstore.Store, cfg Config, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:       cfg,
		records:   kvstore.NewCollection[Record](store),
		transport: cookieTransport{cookies: cookie.New(), cfg: cfg},
		logger:    logger.Discard(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Config returns the session policy.
func (m *Manager) Config() Config {
	return m.cfg
}

// Issue creates a session for identity, persists it, then sets the session and
// CSRF cookies. When persisting fails no cookie is set.
func (m *Manager) Issue(ctx context.Context, w http.ResponseWriter, r *http.Request, identity string) (Record, error) {
	if identity == "" {
		identity = m.cfg.DefaultIdentity
	}

	id, err := generateToken()
	if err != nil {
		return Record{}, err
	}
	secret, err := generateToken()
	if err != nil {
		return Record{}, err
	}

	now := m.clock()
	rec := Record{
		ID:         id,
		Identity:   identity,
		IssuedAt:   now,
		ExpiresAt:  now.Add(m.cfg.AbsoluteTTL),
		LastSeen:   now,
		Attributes: map[string]string{AttrCSRFSecret: secret},
		State:      StateIssued,
	}
	if m.cfg.BindUserAgent {
		rec.UserAgentHash = fingerprint.UserAgent(r)
	}
	if m.cfg.BindDevice {
		rec.DeviceHash = fingerprint.Device(r)
	}
	if m.cfg.BindIPPrefix > 0 {
		rec.IPNetwork = fingerprint.Network(m.clientIP(r), m.cfg.BindIPPrefix)
	}

	if err := m.records.Put(ctx, rec.ID, rec); err != nil {
		return Record{}, errors.Join(ErrStorage, err)
	}

	if err := m.transport.embed(w, rec.ID, secret, m.cfg.AbsoluteTTL); err != nil {
		m.discard(ctx, rec.ID)
		return Record{}, fmt.Errorf("session: set cookies: %w", err)
	}

	m.logger.DebugContext(ctx, "session issued",
		logger.Component("session"),
		logger.Event("issued"),
		logger.SessionID(rec.ID),
		logger.Identity(rec.Identity),
	)
	return rec.Clone(), nil
}

// FetchValid loads the session named by the request cookie and validates it.
// Checks run in order: presence, expiry, idle timeout, client binding, then
// CSRF when requireCSRF is set. Expired and idle records are deleted.
// On success with RefreshOnActivity, last_seen is advanced and re-persisted;
// a failed refresh is logged, not returned.
func (m *Manager) FetchValid(ctx context.Context, r *http.Request, requireCSRF bool) (Record, error) {
	id, err := m.transport.extract(r)
	if err != nil || !validToken(id) {
		return Record{}, ErrUnauthenticated
	}

	rec, ok, err := m.records.Get(ctx, id)
	switch {
	case errors.Is(err, kvstore.ErrCorrupt):
		m.logger.WarnContext(ctx, "discarding unreadable session record",
			logger.Component("session"), logger.SessionID(id), logger.Error(err))
		m.discard(ctx, id)
		return Record{}, ErrUnauthenticated
	case err != nil:
		return Record{}, errors.Join(ErrStorage, err)
	case !ok || rec.ID != id:
		return Record{}, ErrUnauthenticated
	}

	now := m.clock()

	if rec.Expired(now) {
		return Record{}, m.terminate(ctx, &rec, triggerExpire, ErrSessionExpired)
	}
	if rec.Idle(now, m.cfg.IdleTimeout) {
		return Record{}, m.terminate(ctx, &rec, triggerIdle, ErrSessionIdleTimeout)
	}

	if m.cfg.BindUserAgent && !fingerprint.Equal(rec.UserAgentHash, fingerprint.UserAgent(r)) {
		return Record{}, ErrBindingMismatch
	}
	if m.cfg.BindDevice {
		if err := fingerprint.Validate(r, rec.DeviceHash); err != nil {
			return Record{}, errors.Join(ErrBindingMismatch, err)
		}
	}
	if m.cfg.BindIPPrefix > 0 {
		current := fingerprint.Network(m.clientIP(r), m.cfg.BindIPPrefix)
		if !fingerprint.Equal(rec.IPNetwork, current) {
			return Record{}, ErrBindingMismatch
		}
	}

	if requireCSRF && !m.validCSRF(r, rec) {
		return Record{}, ErrCSRFInvalid
	}

	if m.cfg.RefreshOnActivity {
		if err := transition(ctx, &rec, triggerActivate); err != nil {
			// a terminal state on disk is never revived
			m.discard(ctx, rec.ID)
			return Record{}, ErrUnauthenticated
		}
		rec.LastSeen = now
		// a record deleted since it was read (Revoke, Sweep) stays deleted;
		// the window between this check and Put remains
		if _, ok, err := m.records.Store().Get(ctx, rec.ID); err == nil && !ok {
			return Record{}, ErrUnauthenticated
		}
		if err := m.records.Put(ctx, rec.ID, rec); err != nil {
			m.logger.WarnContext(ctx, "session refresh not persisted",
				logger.Component("session"), logger.SessionID(rec.ID), logger.Error(err))
		}
	} else if rec.State.Terminal() {
		m.discard(ctx, rec.ID)
		return Record{}, ErrUnauthenticated
	}

	return rec.Clone(), nil
}

// Ensure returns the caller's valid session or issues a new one.
// Used by entry endpoints that are allowed to start sessions.
// issued reports whether a new session was created.
func (m *Manager) Ensure(ctx context.Context, w http.ResponseWriter, r *http.Request, identity string) (rec Record, issued bool, err error) {
	rec, err = m.FetchValid(ctx, r, false)
	if err == nil {
		return rec, false, nil
	}
	if errors.Is(err, ErrStorage) {
		return Record{}, false, err
	}

	rec, err = m.Issue(ctx, w, r, identity)
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// Revoke clears both cookies and deletes the server-side record immediately,
// so the id is rejected even if the browser keeps the cookie.
func (m *Manager) Revoke(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	m.transport.revoke(w)

	id, err := m.transport.extract(r)
	if err != nil || !validToken(id) {
		return nil
	}

	rec, ok, err := m.records.Get(ctx, id)
	if err == nil && ok {
		if terr := transition(ctx, &rec, triggerRevoke); terr != nil {
			m.logger.DebugContext(ctx, "revoking session in terminal state",
				logger.Component("session"), logger.SessionID(id), logger.Error(terr))
		}
	}

	if err := m.records.Delete(ctx, id); err != nil {
		return errors.Join(ErrStorage, err)
	}

	m.logger.DebugContext(ctx, "session revoked",
		logger.Component("session"),
		logger.Event("revoked"),
		logger.SessionID(id),
	)
	return nil
}

// Sweep deletes every expired, idle or unreadable record and returns how many were removed.
// Lookups already delete stale records lazily; Sweep bounds the growth of
// records whose browsers never return.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	now := m.clock()
	removed := 0

	err := kvstore.Each(ctx, m.records.Store(), func(e kvstore.Entry, rec Record, decodeErr error) error {
		var t trigger
		switch {
		case decodeErr != nil:
		case rec.Expired(now):
			t = triggerExpire
		case rec.Idle(now, m.cfg.IdleTimeout):
			t = triggerIdle
		case rec.State.Terminal():
		default:
			return nil
		}

		if t != "" {
			_ = transition(ctx, &rec, t)
		}
		if err := m.records.Delete(ctx, e.Key); err != nil {
			return errors.Join(ErrStorage, err)
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, err
	}

	if removed > 0 {
		m.logger.InfoContext(ctx, "swept stale sessions",
			logger.Component("session"),
			logger.Event("sweep"),
			logger.Count("removed", removed),
		)
	}
	return removed, nil
}

// Run sweeps every interval until ctx is cancelled. Sweep failures are logged.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = m.cfg.SweepInterval
	}
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := m.Sweep(ctx); err != nil && ctx.Err() == nil {
				m.logger.ErrorContext(ctx, "session sweep failed",
					logger.Component("session"), logger.Error(err))
			}
		}
	}
}

// validCSRF checks the CSRF header against the stored secret. Records without a
// stored secret fall back to the CSRF cookie as the match target. The cookie
// alone never satisfies the check.
func (m *Manager) validCSRF(r *http.Request, rec Record) bool {
	supplied := r.Header.Get(m.cfg.CSRFHeader)
	if supplied == "" {
		return false
	}

	expected := rec.CSRFSecret()
	if expected == "" {
		expected = m.transport.csrfCookie(r)
	}
	if expected == "" {
		return false
	}
	return secretsEqual(supplied, expected)
}

// terminate moves rec into a terminal state, deletes it and returns cause.
// A failed delete is logged: the record is already invalid and Sweep retries.
func (m *Manager) terminate(ctx context.Context, rec *Record, t trigger, cause error) error {
	_ = transition(ctx, rec, t)
	m.discard(ctx, rec.ID)
	m.logger.DebugContext(ctx, "session ended",
		logger.Component("session"),
		logger.Event(string(rec.State)),
		logger.SessionID(rec.ID),
	)
	return cause
}

func (m *Manager) discard(ctx context.Context, id string) {
	if err := m.records.Delete(ctx, id); err != nil {
		m.logger.WarnContext(ctx, "failed to delete session record",
			logger.Component("session"), logger.SessionID(id), logger.Error(err))
	}
}

func (m *Manager) clientIP(r *http.Request) string {
	if m.cfg.TrustProxyHeaders {
		return clientip.GetIP(r)
	}
	return clientip.RemoteIP(r)
}

func (m *Manager) clock() time.Time {
	return m.now().UTC()
}
