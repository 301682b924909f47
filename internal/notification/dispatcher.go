package notification

import (
	"context"

	"leaveflow/internal/events"
)

// Dispatcher is a one-way sink for state-transition events. Implementations
// must swallow delivery failures; callers have already committed the
// transition by the time they dispatch and must never observe an error.
type Dispatcher interface {
	LeaveTransition(ctx context.Context, ev events.LeaveTransition)
	RequestTransition(ctx context.Context, ev events.RequestTransition)
}

// Nop discards every event. Used in tests and in the outbox worker, which
// only republishes.
type Nop struct{}

func (Nop) LeaveTransition(context.Context, events.LeaveTransition)     {}
func (Nop) RequestTransition(context.Context, events.RequestTransition) {}
