package kvstore

import "strings"

// MaxKeyLength bounds sanitized keys so file names stay well under NAME_MAX.
const MaxKeyLength = 200

// SanitizeKey maps a key to a filesystem-safe name.
// Every rune outside [A-Za-z0-9_-] becomes '_', which removes path
// separators and dots, so no key can escape the store's root directory.
func SanitizeKey(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}

	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	if b.Len() > MaxKeyLength {
		return "", ErrInvalidKey
	}
	return b.String(), nil
}
