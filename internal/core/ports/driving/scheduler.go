package driving

import "context"

// Scheduler runs background maintenance such as building missing indexes.
type Scheduler interface {
	// Start runs due tasks until the context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop halts the loop and waits for running tasks.
	Stop() error
}
