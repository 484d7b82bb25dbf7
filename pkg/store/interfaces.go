package store

import "context"

// StateStore handles persistent application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}

// Store composes the store sub-interfaces for full access. Consumers should
// depend on specific sub-interfaces when possible.
type Store interface {
	StateStore

	// Close closes the store connection.
	Close() error
}
