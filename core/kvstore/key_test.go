package kvstore_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deployable-tech/deployable-knowledge-web/core/kvstore"
)

func TestSanitizeKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"abc-DEF_123", "abc-DEF_123"},
		{"../etc/passwd", "___etc_passwd"},
		{"a b.c", "a_b_c"},
		{"ünï", "_n_"},
		{"550e8400-e29b-41d4-a716-446655440000", "550e8400-e29b-41d4-a716-446655440000"},
	}
	for _, tt := range tests {
		got, err := kvstore.SanitizeKey(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := kvstore.SanitizeKey("")
	assert.ErrorIs(t, err, kvstore.ErrInvalidKey)

	_, err = kvstore.SanitizeKey(strings.Repeat("x", kvstore.MaxKeyLength+1))
	assert.ErrorIs(t, err, kvstore.ErrInvalidKey)

	_, err = kvstore.SanitizeKey(strings.Repeat("x", kvstore.MaxKeyLength))
	assert.NoError(t, err)
}
