package guard

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestKeyedMutex_MutualExclusion(t *testing.T) {
	km := NewKeyedMutex()

	var counter, max int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := km.Acquire(context.Background(), "res-1")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			defer release()

			mu.Lock()
			counter++
			if counter > max {
				max = counter
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			counter--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if max != 1 {
		t.Errorf("expected at most one concurrent holder, saw %d", max)
	}
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	km := NewKeyedMutex()

	releaseA, err := km.Acquire(context.Background(), "res-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer releaseA()

	// A held lock on one key must not block another key.
	done := make(chan struct{})
	go func() {
		releaseB, err := km.Acquire(context.Background(), "res-b")
		if err != nil {
			t.Errorf("unexpected error: %v", err)
			return
		}
		releaseB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("acquisition of an independent key blocked")
	}
}

func TestKeyedMutex_ContextCancellation(t *testing.T) {
	km := NewKeyedMutex()

	release, err := km.Acquire(context.Background(), "res-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := km.Acquire(ctx, "res-1"); err != context.DeadlineExceeded {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}

	release()

	// The key must be usable again after the failed acquisition.
	release2, err := km.Acquire(context.Background(), "res-1")
	if err != nil {
		t.Fatalf("unexpected error after release: %v", err)
	}
	release2()
}

func TestKeyedMutex_EntriesReclaimed(t *testing.T) {
	km := NewKeyedMutex()

	for i := 0; i < 10; i++ {
		release, err := km.Acquire(context.Background(), "res-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		release()
	}

	km.mu.Lock()
	live := len(km.entries)
	km.mu.Unlock()

	if live != 0 {
		t.Errorf("expected no live entries after release, got %d", live)
	}
}
