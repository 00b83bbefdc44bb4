// Package signaler is the scheduler-wake external interface: a thin
// callback the engine invokes to force the dispatcher to re-check for
// acquirable work immediately, rather than waiting out its normal poll
// interval.
package signaler

import "time"

// SentinelWakeTime is the far-past timestamp the base dispatcher
// interprets as "re-evaluate now" — an interface quirk inherited
// verbatim from the base scheduler signaler.
var SentinelWakeTime = time.Date(1982, 6, 28, 0, 0, 0, 0, time.UTC)

// Signaler wakes the dispatcher. Implementations must not block.
type Signaler interface {
	SignalSchedulingChangeImmediately(candidateNextFireTime time.Time)
}

// Func adapts a plain function to Signaler.
type Func func(candidateNextFireTime time.Time)

func (f Func) SignalSchedulingChangeImmediately(candidateNextFireTime time.Time) {
	f(candidateNextFireTime)
}

// WakeNow signals the dispatcher using the sentinel timestamp, forcing an
// immediate re-check regardless of any trigger's actual next-fire-time.
func WakeNow(s Signaler) {
	if s == nil {
		return
	}
	s.SignalSchedulingChangeImmediately(SentinelWakeTime)
}
