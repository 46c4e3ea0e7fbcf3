package conversation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/deployable-tech/deployable-knowledge-web/core/kvstore"
)

// Exchange is one user utterance and the assistant's reply.
// It serializes as the two-element array [user, assistant].
type Exchange struct {
	User      string
	Assistant string
}

func (e Exchange) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{e.User, e.Assistant})
}

func (e *Exchange) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("conversation: exchange must have 2 elements, got %d", len(pair))
	}
	e.User, e.Assistant = pair[0], pair[1]
	return nil
}

// Record is a persisted conversation. History only grows through Append.
type Record struct {
	ID        string     `json:"session_id"`
	Title     string     `json:"title"`
	Summary   string     `json:"summary"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	History   []Exchange `json:"history"`
}

// MarshalJSON writes timestamps in the fixed-width kvstore.TimestampLayout.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	return json.Marshal(struct {
		plain
		CreatedAt kvstore.Timestamp `json:"created_at"`
		UpdatedAt kvstore.Timestamp `json:"updated_at"`
	}{
		plain:     plain(r),
		CreatedAt: kvstore.Timestamp(r.CreatedAt),
		UpdatedAt: kvstore.Timestamp(r.UpdatedAt),
	})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	aux := struct {
		*plain
		CreatedAt kvstore.Timestamp `json:"created_at"`
		UpdatedAt kvstore.Timestamp `json:"updated_at"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.CreatedAt = time.Time(aux.CreatedAt)
	r.UpdatedAt = time.Time(aux.UpdatedAt)
	return nil
}

// Empty reports whether the conversation has no exchanges.
func (r Record) Empty() bool {
	return len(r.History) == 0
}

// Summary is the lightweight listing form of a conversation.
type Summary struct {
	ID        string    `json:"session_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// historyView decodes only the length of a record's history.
type historyView struct {
	History []json.RawMessage `json:"history"`
}
