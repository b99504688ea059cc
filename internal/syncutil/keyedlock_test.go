package syncutil

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestKeyedLockSerializesSameKey(t *testing.T) {
	l := NewKeyedLock()
	ctx := context.Background()

	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, "qst_1")
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			defer release()
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("lost updates under the lock: %d", counter)
	}
}

func TestKeyedLockCancellation(t *testing.T) {
	l := NewKeyedLock()

	release, err := l.Acquire(context.Background(), "qst_1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx, "qst_1"); err == nil {
		t.Fatal("expected acquire to fail while the lock is held")
	}

	release()
	if r, err := l.Acquire(context.Background(), "qst_1"); err != nil {
		t.Fatalf("acquire after release: %v", err)
	} else {
		r()
	}
}

func TestKeyedLockIndependentKeysDoNotBlock(t *testing.T) {
	l := NewKeyedLock()
	ctx := context.Background()

	r1, err := l.Acquire(ctx, "qst_1")
	if err != nil {
		t.Fatalf("acquire first: %v", err)
	}
	defer r1()

	// Find a key on a different shard; it must not wait on the first.
	other := ""
	for i := 0; i < 1000; i++ {
		candidate := "qst_" + string(rune('a'+i%26)) + string(rune('0'+i/26%10))
		if l.shardFor(candidate) != l.shardFor("qst_1") {
			other = candidate
			break
		}
	}
	if other == "" {
		t.Fatal("could not find a key on a different shard")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if r, err := l.Acquire(ctx, other); err == nil {
			r()
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("independent keys appear to deadlock")
	}
}
