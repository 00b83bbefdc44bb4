// Package schedmeta is the scheduler-factory/metadata external
// collaborator: a one-shot read of the dispatcher's thread-pool size,
// cached by the caller rather than re-read on every queue-state event.
package schedmeta

// Provider reports static scheduler metadata discovered once at startup.
type Provider interface {
	ThreadPoolSize() int
}

// StaticProvider wraps a fixed thread-pool size read from configuration.
type StaticProvider int

func (p StaticProvider) ThreadPoolSize() int { return int(p) }
