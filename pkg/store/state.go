package store

import "time"

// State is the lifecycle state of the store connection.
type State int32

const (
	// StateDisconnected means no connection exists, either because Connect
	// was never called or because Disconnect completed.
	StateDisconnected State = iota

	// StateConnecting means a dial or reconnect attempt is in progress.
	StateConnecting

	// StateReady means the last ping succeeded and operations are served.
	StateReady

	// StateError means the connection was lost or could not be established.
	// The supervisor keeps retrying until the store answers again.
	StateError
)

// String returns the lowercase state name used in logs and metrics.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Event describes a state transition or a reconnect attempt.
type Event struct {
	// State is the state entered (or kept, for reconnect attempts).
	State State

	// Attempt is the reconnect attempt number, 0 outside the retry loop.
	Attempt int

	// Delay is the backoff applied before this attempt.
	Delay time.Duration

	// Err is the failure that caused the transition, if any.
	Err error
}

// Hook observes connection events. Hooks run synchronously on the
// goroutine that produced the event and must not block.
type Hook func(Event)

// backoffDelay returns the delay before the given reconnect attempt:
// attempt × step, capped at max.
func backoffDelay(attempt int, step, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if step <= 0 || attempt >= int(max/step) {
		return max
	}
	return time.Duration(attempt) * step
}
