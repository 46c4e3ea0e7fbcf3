package kvstore

import "errors"

var (
	// ErrInvalidKey is returned for keys that are empty or too long after sanitizing.
	ErrInvalidKey = errors.New("kvstore: invalid key")
	// ErrStorage wraps every write, rename or read failure of the backing medium.
	ErrStorage = errors.New("kvstore: storage failure")
	// ErrCorrupt is returned when a committed value cannot be decoded.
	ErrCorrupt = errors.New("kvstore: corrupt record")
)
