package conversation

import "errors"

var (
	// ErrNotFound is returned for ids with no stored conversation,
	// including conversations pruned by a concurrent List.
	ErrNotFound = errors.New("conversation: not found")
	// ErrStorage wraps persistence failures.
	ErrStorage = errors.New("conversation: storage failure")
	// ErrEmptyMessage is returned by Append when the user utterance is blank.
	ErrEmptyMessage = errors.New("conversation: empty message")
)
