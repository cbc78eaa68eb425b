package lock_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/genaker/imagecache/pkg/lock"
)

func TestManager_AcquireAndReleaseSingleKey(t *testing.T) {
	manager := lock.NewManager(lock.Config{})

	handle, err := manager.Acquire(context.Background(), "key")
	if err != nil {
		t.Fatalf("expected acquisition to succeed, got: %v", err)
	}

	if handle.Key != "key" || handle.Holder == "" {
		t.Errorf("unexpected handle: %+v", handle)
	}

	if handle.RetryCount != 0 {
		t.Errorf("expected uncontended acquisition without retries, got %d", handle.RetryCount)
	}

	manager.Release(handle)

	if _, err := manager.Acquire(context.Background(), "key"); err != nil {
		t.Errorf("expected re-acquisition after release to succeed, got: %v", err)
	}
}

func TestManager_DifferentKeysNeverContend(t *testing.T) {
	manager := lock.NewManager(lock.Config{MaxRetries: 0})

	first, err := manager.Acquire(context.Background(), "key-a")
	if err != nil {
		t.Fatal(err)
	}
	defer manager.Release(first)

	if _, err := manager.Acquire(context.Background(), "key-b"); err != nil {
		t.Errorf("expected different key to acquire instantly, got: %v", err)
	}
}

func TestManager_ReturnsLockTimeoutWhenRetriesExhausted(t *testing.T) {
	manager := lock.NewManager(lock.Config{MaxRetries: 3, Backoff: 5 * time.Millisecond})

	handle, err := manager.Acquire(context.Background(), "key")
	if err != nil {
		t.Fatal(err)
	}
	defer manager.Release(handle)

	start := time.Now()
	_, err = manager.Acquire(context.Background(), "key")
	if !errors.Is(err, lock.ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got: %v", err)
	}

	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Errorf("expected 3 backoff rounds before giving up, returned after %v", elapsed)
	}
}

func TestManager_WaiterAcquiresAfterHolderReleases(t *testing.T) {
	manager := lock.NewManager(lock.Config{MaxRetries: 10, Backoff: 5 * time.Millisecond})

	handle, err := manager.Acquire(context.Background(), "key")
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		manager.Release(handle)
	}()

	waited, err := manager.Acquire(context.Background(), "key")
	if err != nil {
		t.Fatalf("expected waiter to acquire after release, got: %v", err)
	}

	if waited.RetryCount == 0 {
		t.Errorf("expected waiter to record at least one retry")
	}
}

func TestManager_AcquireRespectsContextCancellation(t *testing.T) {
	manager := lock.NewManager(lock.Config{MaxRetries: 100, Backoff: 10 * time.Millisecond})

	handle, err := manager.Acquire(context.Background(), "key")
	if err != nil {
		t.Fatal(err)
	}
	defer manager.Release(handle)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := manager.Acquire(ctx, "key"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context deadline error, got: %v", err)
	}
}

func TestManager_ReleaseByNonHolderIsIgnored(t *testing.T) {
	manager := lock.NewManager(lock.Config{MaxRetries: 0})

	handle, err := manager.Acquire(context.Background(), "key")
	if err != nil {
		t.Fatal(err)
	}

	stale := handle
	stale.Holder = "someone-else"
	manager.Release(stale)

	if _, err := manager.Acquire(context.Background(), "key"); !errors.Is(err, lock.ErrLockTimeout) {
		t.Errorf("expected key to stay held after foreign release, got: %v", err)
	}

	manager.Release(handle)
}

func TestManager_NegativeMaxRetriesFailsImmediatelyOnContention(t *testing.T) {
	manager := lock.NewManager(lock.Config{MaxRetries: -1, Backoff: 100 * time.Millisecond})

	handle, err := manager.Acquire(context.Background(), "key")
	if err != nil {
		t.Fatal(err)
	}
	defer manager.Release(handle)

	start := time.Now()
	if _, err := manager.Acquire(context.Background(), "key"); !errors.Is(err, lock.ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got: %v", err)
	}

	if elapsed := time.Since(start); elapsed >= 50*time.Millisecond {
		t.Errorf("expected no backoff rounds before giving up, returned after %v", elapsed)
	}
}

func TestManager_AtMostOneHolderPerKeyUnderContention(t *testing.T) {
	manager := lock.NewManager(lock.Config{MaxRetries: 50, Backoff: time.Millisecond})

	var holders int32
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			handle, err := manager.Acquire(context.Background(), "key")
			if err != nil {
				return
			}

			if atomic.AddInt32(&holders, 1) > 1 {
				t.Errorf("observed more than one holder for the same key")
			}

			time.Sleep(time.Millisecond)
			atomic.AddInt32(&holders, -1)
			manager.Release(handle)
		}()
	}

	wg.Wait()
}
