package conversation

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/deployable-tech/deployable-knowledge-web/core/kvstore"
	"github.com/deployable-tech/deployable-knowledge-web/core/logger"
)

// titleMaxRunes bounds titles derived from the first user message.
const titleMaxRunes = 60

// Store persists conversations, one record per id. Every call reads from the
// underlying store; nothing is cached between requests.
type Store struct {
	records *kvstore.Collection[Record]
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns a conversation store backed by kv.
func NewStore(kv kvstore.Store, opts ...Option) *Store {
	s := &Store{
		records: kvstore.NewCollection[Record](kv),
		logger:  logger.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping reports whether the underlying store is usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.records.Store().Ping(ctx)
}

// Get loads a conversation. Unknown or malformed ids return ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	if !validID(id) {
		return Record{}, ErrNotFound
	}
	rec, ok, err := s.records.Get(ctx, id)
	if err != nil {
		return Record{}, errors.Join(ErrStorage, err)
	}
	if !ok {
		return Record{}, ErrNotFound
	}
	if rec.History == nil {
		rec.History = []Exchange{}
	}
	return rec, nil
}

// Save rewrites the full record.
func (s *Store) Save(ctx context.Context, rec Record) error {
	if !validID(rec.ID) {
		return ErrNotFound
	}
	if rec.History == nil {
		rec.History = []Exchange{}
	}
	if err := s.records.Put(ctx, rec.ID, rec); err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

// Create mints a fresh id and persists an empty conversation.
func (s *Store) Create(ctx context.Context) (Record, error) {
	now := s.clock()
	rec := Record{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		History:   []Exchange{},
	}
	if err := s.Save(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Append adds one exchange and persists the whole record. The first user
// message becomes the title when none is set.
func (s *Store) Append(ctx context.Context, id, user, assistant string) (Record, error) {
	if strings.TrimSpace(user) == "" {
		return Record{}, ErrEmptyMessage
	}

	rec, err := s.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}

	rec.History = append(rec.History, Exchange{User: user, Assistant: assistant})
	rec.UpdatedAt = s.clock()
	if rec.Title == "" {
		rec.Title = deriveTitle(user)
	}

	if err := s.Save(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Delete removes a conversation. Unknown ids return ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	_, ok, err := s.records.Store().Get(ctx, id)
	if err != nil {
		return errors.Join(ErrStorage, err)
	}
	if !ok {
		return ErrNotFound
	}
	if err := s.records.Delete(ctx, id); err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

// List prunes empty conversations, then returns the rest newest first.
// Summaries come from store metadata; histories are not decoded.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	if _, err := s.PruneEmpty(ctx); err != nil {
		return nil, err
	}

	entries, err := s.records.List(ctx)
	if err != nil {
		return nil, errors.Join(ErrStorage, err)
	}

	out := make([]Summary, 0, len(entries))
	for _, e := range entries {
		if !validID(e.Key) {
			continue
		}
		out = append(out, Summary{ID: e.Key, UpdatedAt: e.ModTime.UTC()})
	}

	slices.SortFunc(out, func(a, b Summary) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// PruneEmpty deletes every conversation with no exchanges and returns how many were removed.
// Only the history length of each record is decoded. Unreadable records are
// logged and left for inspection.
func (s *Store) PruneEmpty(ctx context.Context) (int, error) {
	removed := 0
	err := kvstore.Each(ctx, s.records.Store(), func(e kvstore.Entry, v historyView, decodeErr error) error {
		if decodeErr != nil {
			s.logger.WarnContext(ctx, "skipping unreadable conversation",
				logger.Component("conversation"), logger.ID("conversation_id", e.Key), logger.Error(decodeErr))
			return nil
		}
		if len(v.History) > 0 {
			return nil
		}
		if err := s.records.Delete(ctx, e.Key); err != nil {
			return err
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, errors.Join(ErrStorage, err)
	}

	if removed > 0 {
		s.logger.DebugContext(ctx, "pruned empty conversations",
			logger.Component("conversation"),
			logger.Event("prune"),
			logger.Count("removed", removed),
		)
	}
	return removed, nil
}

// GetOrCreate returns the conversation named by cookieID when it exists and
// has at least one exchange. Otherwise it always creates a fresh conversation
// with a new id; a presented id is never adopted. created reports which happened.
func (s *Store) GetOrCreate(ctx context.Context, cookieID string) (rec Record, created bool, err error) {
	if cookieID != "" {
		rec, err = s.Get(ctx, cookieID)
		switch {
		case err == nil && !rec.Empty():
			return rec, false, nil
		case err != nil && !errors.Is(err, ErrNotFound):
			return Record{}, false, err
		}
	}

	rec, err = s.Create(ctx)
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

func (s *Store) clock() time.Time {
	return s.now().UTC()
}

// validID accepts canonical UUID strings only.
func validID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

func deriveTitle(msg string) string {
	msg = strings.Join(strings.Fields(msg), " ")
	if utf8.RuneCountInString(msg) <= titleMaxRunes {
		return msg
	}
	runes := []rune(msg)
	return string(runes[:titleMaxRunes]) + "…"
}
