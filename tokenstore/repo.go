package tokenstore

import "context"

// Repo defines durable storage for the single session token slot.
// Read returns errors.ErrTokenNotFound when nothing is stored. Clear is idempotent.
type Repo interface {
	// Read returns the persisted token
	Read(ctx context.Context) (string, error)

	// Write replaces the persisted token
	Write(ctx context.Context, token string) error

	// Clear removes the persisted token, if any
	Clear(ctx context.Context) error
}
