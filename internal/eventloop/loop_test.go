package eventloop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func startLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	l := New(16)
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = l.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return l, cancel
}

func TestLoop_RunsInSubmissionOrder(t *testing.T) {
	l, _ := startLoop(t)

	var got []int
	for i := 0; i < 10; i++ {
		i := i
		if !l.Post(func() { got = append(got, i) }) {
			t.Fatal("Post returned false on a running loop")
		}
	}

	// Call waits for everything queued before it
	if err := l.Call(context.Background(), func() {}); err != nil {
		t.Fatalf("Call: %v", err)
	}

	want := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestLoop_CallAfterStop(t *testing.T) {
	l, cancel := startLoop(t)
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		err := l.Call(context.Background(), func() {})
		if errors.Is(err, ErrStopped) {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("Call after stop = %v, want ErrStopped", err)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestLoop_PanicDoesNotStopLoop(t *testing.T) {
	l, _ := startLoop(t)

	l.Post(func() { panic("boom") })

	ran := false
	if err := l.Call(context.Background(), func() { ran = true }); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !ran {
		t.Error("closure after panic did not run")
	}
}

func TestInline(t *testing.T) {
	ran := false
	if !(Inline{}).Post(func() { ran = true }) {
		t.Fatal("Inline.Post returned false")
	}
	if !ran {
		t.Error("Inline.Post did not run the closure")
	}
}
