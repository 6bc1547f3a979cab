package flight

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// Concurrent Do calls for the same key run fn exactly once and all see the
// shared result.
func TestGroup_Coalesce(t *testing.T) {
	t.Parallel()

	var g Group[string, string]
	var calls atomic.Int64

	start := make(chan struct{})
	const N = 50

	var wg sync.WaitGroup
	wg.Add(N)
	for i := 0; i < N; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := g.Do(context.Background(), "k", func() (string, error) {
				calls.Add(1)
				time.Sleep(2 * time.Millisecond)
				return "value", nil
			})
			if err != nil || v != "value" {
				t.Errorf("Do: v=%q err=%v", v, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("fn must run exactly once, got %d", got)
	}
	if g.Pending("k") {
		t.Fatal("key must be deregistered after settle")
	}
}

// Errors are shared with joiners, and the key is deregistered after a
// failure just like after a success.
func TestGroup_ErrorPropagatesAndDeregisters(t *testing.T) {
	t.Parallel()

	var g Group[string, int]
	boom := errors.New("boom")

	_, err := g.Do(context.Background(), "k", func() (int, error) { return 0, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if g.Pending("k") {
		t.Fatal("failed flight must be deregistered")
	}

	// The next Do is a fresh attempt.
	v, err := g.Do(context.Background(), "k", func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Fatalf("retry: v=%d err=%v", v, err)
	}
}

// Pending reflects the in-flight window, and Len counts distinct keys.
func TestGroup_Pending(t *testing.T) {
	t.Parallel()

	var g Group[string, int]
	gate := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		_, _ = g.Do(context.Background(), "k", func() (int, error) {
			<-gate
			return 1, nil
		})
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !g.Pending("k") {
		if time.Now().After(deadline) {
			t.Fatal("flight never registered")
		}
		time.Sleep(time.Millisecond)
	}
	if g.Pending("other") {
		t.Fatal("unrelated key must not be pending")
	}
	if got := g.Len(); got != 1 {
		t.Fatalf("Len: want 1, got %d", got)
	}

	close(gate)
	<-done
	if g.Pending("k") || g.Len() != 0 {
		t.Fatal("flight must deregister on completion")
	}
}

// The key is deregistered before waiters wake, so Pending is already
// false the instant any caller's Do returns.
func TestGroup_DeregisterBeforeWake(t *testing.T) {
	t.Parallel()

	var g Group[string, int]
	gate := make(chan struct{})

	leaderDone := make(chan struct{})
	go func() {
		defer close(leaderDone)
		_, _ = g.Do(context.Background(), "k", func() (int, error) {
			<-gate
			return 1, nil
		})
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !g.Pending("k") {
		if time.Now().After(deadline) {
			t.Fatal("leader never registered")
		}
		time.Sleep(time.Millisecond)
	}

	followerDone := make(chan struct{})
	go func() {
		defer close(followerDone)
		v, err := g.Do(context.Background(), "k", func() (int, error) {
			return 1, nil
		})
		if err != nil || v != 1 {
			t.Errorf("follower: v=%d err=%v", v, err)
		}
		if g.Pending("k") {
			t.Error("key still pending after the follower's Do resolved")
		}
	}()

	// Give the follower a moment to join the flight, then let it settle.
	time.Sleep(10 * time.Millisecond)
	close(gate)
	<-leaderDone
	<-followerDone

	if g.Pending("k") {
		t.Fatal("key must be deregistered after settle")
	}
}

// A follower whose ctx ends unblocks alone with ctx.Err; the leader keeps
// running and publishes its result.
func TestGroup_FollowerCancellation(t *testing.T) {
	t.Parallel()

	var g Group[string, string]
	gate := make(chan struct{})
	leaderDone := make(chan struct{})

	go func() {
		defer close(leaderDone)
		v, err := g.Do(context.Background(), "k", func() (string, error) {
			<-gate
			return "slow", nil
		})
		if err != nil || v != "slow" {
			t.Errorf("leader: v=%q err=%v", v, err)
		}
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !g.Pending("k") {
		if time.Now().After(deadline) {
			t.Fatal("leader never registered")
		}
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Do(ctx, "k", func() (string, error) {
		t.Error("follower must never run fn")
		return "", nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("follower: want context.Canceled, got %v", err)
	}

	close(gate)
	<-leaderDone
}
