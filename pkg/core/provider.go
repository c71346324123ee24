package core

// StreamProvider is the common surface of log stream providers. Each
// provider exposes its own Subscribe variant (the arguments differ per
// stream kind); the daemon uses this interface for teardown.
type StreamProvider interface {
	// Name returns the provider's identifier (e.g., "file", "journal", "exec").
	Name() string

	// Unsubscribe stops streaming for the given source. Unknown sources
	// are a no-op.
	Unsubscribe(source string) error

	// Close stops all active subscriptions.
	Close()
}
