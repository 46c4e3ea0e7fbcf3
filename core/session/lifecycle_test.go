package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from    State
		trigger trigger
		want    State
		wantErr bool
	}{
		{StateIssued, triggerActivate, StateActive, false},
		{StateIssued, triggerExpire, StateExpired, false},
		{StateIssued, triggerIdle, StateIdleTimedOut, false},
		{StateIssued, triggerRevoke, StateRevoked, false},
		{StateActive, triggerActivate, StateActive, false},
		{StateActive, triggerExpire, StateExpired, false},
		{StateActive, triggerIdle, StateIdleTimedOut, false},
		{StateActive, triggerRevoke, StateRevoked, false},
		{StateExpired, triggerActivate, StateExpired, true},
		{StateIdleTimedOut, triggerActivate, StateIdleTimedOut, true},
		{StateRevoked, triggerActivate, StateRevoked, true},
		{StateRevoked, triggerExpire, StateRevoked, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.trigger), func(t *testing.T) {
			t.Parallel()
			rec := Record{State: tt.from}
			err := transition(context.Background(), &rec, tt.trigger)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTransition)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, rec.State)
		})
	}
}

func TestValidToken(t *testing.T) {
	t.Parallel()

	tok, err := generateToken()
	require.NoError(t, err)
	assert.True(t, validToken(tok))

	assert.False(t, validToken(""))
	assert.False(t, validToken(tok[:42]))
	assert.False(t, validToken(tok[:42]+"/"))
	assert.False(t, validToken(tok+"A"))
}

func TestSecretsEqual(t *testing.T) {
	t.Parallel()

	assert.True(t, secretsEqual("abc", "abc"))
	assert.False(t, secretsEqual("abc", "abd"))
	assert.False(t, secretsEqual("abc", "abcd"))
	assert.False(t, secretsEqual("", "abc"))
}
