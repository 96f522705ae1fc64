package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock taken by a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes writers of one collection across processes.
// store.Guard takes it around every read-modify-write of a collection
// document, after the in-process lock for the same collection.
type DistributedLocker interface {
	// Lock acquires the lock for a collection name, retrying until it is
	// free or ctx is done. The lock expires after ttl if never released.
	Lock(ctx context.Context, collection string, ttl time.Duration) (UnlockFunc, error)
}
