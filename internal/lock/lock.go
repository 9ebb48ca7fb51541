package lock

import "context"

// Locker guards a sweep against concurrent runs over the same bucket.
type Locker interface {
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}
