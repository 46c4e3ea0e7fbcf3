package session

import (
	"context"
	"fmt"

	"github.com/qmuntal/stateless"
)

type trigger string

const (
	triggerActivate trigger = "activate"
	triggerExpire   trigger = "expire"
	triggerIdle     trigger = "idle"
	triggerRevoke   trigger = "revoke"
)

// transition fires t against rec's state and stores the resulting state in rec.
// Terminal states permit nothing, so a purged session can never be revived.
func transition(ctx context.Context, rec *Record, t trigger) error {
	sm := stateless.NewStateMachineWithExternalStorage(
		func(context.Context) (stateless.State, error) {
			return rec.State, nil
		},
		func(_ context.Context, s stateless.State) error {
			rec.State = s.(State)
			return nil
		},
		stateless.FiringImmediate,
	)

	sm.Configure(StateIssued).
		Permit(triggerActivate, StateActive).
		Permit(triggerExpire, StateExpired).
		Permit(triggerIdle, StateIdleTimedOut).
		Permit(triggerRevoke, StateRevoked)

	sm.Configure(StateActive).
		PermitReentry(triggerActivate).
		Permit(triggerExpire, StateExpired).
		Permit(triggerIdle, StateIdleTimedOut).
		Permit(triggerRevoke, StateRevoked)

	sm.Configure(StateExpired)
	sm.Configure(StateIdleTimedOut)
	sm.Configure(StateRevoked)

	if err := sm.FireCtx(ctx, t); err != nil {
		return fmt.Errorf("%w: %s from %q: %w", ErrInvalidTransition, t, rec.State, err)
	}
	return nil
}
