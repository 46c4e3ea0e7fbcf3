package session

import (
	"encoding/json"
	"maps"
	"time"

	"github.com/deployable-tech/deployable-knowledge-web/core/kvstore"
)

// State is the lifecycle state of a session.
type State string

const (
	StateIssued       State = "issued"
	StateActive       State = "active"
	StateExpired      State = "expired"
	StateIdleTimedOut State = "idle_timed_out"
	StateRevoked      State = "revoked"
)

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	switch s {
	case StateExpired, StateIdleTimedOut, StateRevoked:
		return true
	}
	return false
}

// AttrCSRFSecret is the attribute key holding the per-session CSRF secret.
const AttrCSRFSecret = "csrf_secret"

// Record is the persisted server-side state of one browser session.
// Only issued and active records are ever stored.
type Record struct {
	ID            string            `json:"id"`
	Identity      string            `json:"identity"`
	IssuedAt      time.Time         `json:"issued_at"`
	ExpiresAt     time.Time         `json:"expires_at"`
	LastSeen      time.Time         `json:"last_seen"`
	UserAgentHash string            `json:"user_agent_hash,omitempty"`
	DeviceHash    string            `json:"device_hash,omitempty"`
	IPNetwork     string            `json:"ip_network,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	State         State             `json:"state"`
}

// MarshalJSON writes timestamps in the fixed-width kvstore.TimestampLayout.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	return json.Marshal(struct {
		plain
		IssuedAt  kvstore.Timestamp `json:"issued_at"`
		ExpiresAt kvstore.Timestamp `json:"expires_at"`
		LastSeen  kvstore.Timestamp `json:"last_seen"`
	}{
		plain:     plain(r),
		IssuedAt:  kvstore.Timestamp(r.IssuedAt),
		ExpiresAt: kvstore.Timestamp(r.ExpiresAt),
		LastSeen:  kvstore.Timestamp(r.LastSeen),
	})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	aux := struct {
		*plain
		IssuedAt  kvstore.Timestamp `json:"issued_at"`
		ExpiresAt kvstore.Timestamp `json:"expires_at"`
		LastSeen  kvstore.Timestamp `json:"last_seen"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.IssuedAt = time.Time(aux.IssuedAt)
	r.ExpiresAt = time.Time(aux.ExpiresAt)
	r.LastSeen = time.Time(aux.LastSeen)
	return nil
}

// CSRFSecret returns the stored CSRF secret, or "" for records issued without one.
func (r Record) CSRFSecret() string {
	return r.Attributes[AttrCSRFSecret]
}

// Clone returns a copy that shares no mutable state with r.
func (r Record) Clone() Record {
	r.Attributes = maps.Clone(r.Attributes)
	return r
}

// Expired reports whether the absolute lifetime has elapsed at now.
func (r Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Idle reports whether the record was unused for longer than timeout at now.
func (r Record) Idle(now time.Time, timeout time.Duration) bool {
	return now.Sub(r.LastSeen) > timeout
}
