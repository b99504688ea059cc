// Package syncutil provides small concurrency helpers shared across services.
package syncutil

import (
	"context"
	"hash/fnv"
	"sync"
)

const lockShards = 64

// KeyedLock serializes work per string key over a fixed pool of
// channel-based mutexes. Keys hash onto shards, so two distinct keys may
// occasionally share a lock; correctness only requires that equal keys
// always do. Waiting honors context cancellation.
type KeyedLock struct {
	shards [lockShards]chan struct{}
	once   sync.Once
}

// NewKeyedLock creates a keyed lock. The zero value is also usable.
func NewKeyedLock() *KeyedLock {
	l := &KeyedLock{}
	l.init()
	return l
}

func (l *KeyedLock) init() {
	l.once.Do(func() {
		for i := range l.shards {
			l.shards[i] = make(chan struct{}, 1)
			l.shards[i] <- struct{}{}
		}
	})
}

// Acquire takes the lock for key, blocking until it is free or ctx is
// done. On success it returns a release function the caller must invoke.
func (l *KeyedLock) Acquire(ctx context.Context, key string) (func(), error) {
	l.init()
	shard := l.shards[l.shardFor(key)]

	select {
	case <-shard:
		return func() { shard <- struct{}{} }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *KeyedLock) shardFor(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % lockShards
}
