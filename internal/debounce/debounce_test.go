package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

func stubAfterFunc(t *testing.T) *[]func() {
	orig := afterFunc
	t.Cleanup(func() { afterFunc = orig })

	var callbacks []func()
	afterFunc = func(_ time.Duration, f func()) *time.Timer {
		callbacks = append(callbacks, f)
		timer := time.NewTimer(time.Hour)
		timer.Stop()
		return timer
	}
	return &callbacks
}

func TestOnlyLatestTriggerRuns(t *testing.T) {
	callbacks := stubAfterFunc(t)

	var called atomic.Int32
	d := New(time.Second, func() { called.Add(1) })

	d.Trigger()
	d.Trigger()

	if len(*callbacks) != 2 {
		t.Fatalf("expected 2 scheduled callbacks, got %d", len(*callbacks))
	}
	for _, cb := range *callbacks {
		cb()
	}

	if got := called.Load(); got != 1 {
		t.Fatalf("expected only the latest callback to run, got %d calls", got)
	}
}

func TestStopCancelsPending(t *testing.T) {
	callbacks := stubAfterFunc(t)

	var called atomic.Int32
	d := New(time.Second, func() { called.Add(1) })

	d.Trigger()
	d.Stop()
	(*callbacks)[0]()

	if got := called.Load(); got != 0 {
		t.Fatalf("expected no calls after Stop, got %d", got)
	}
}

func TestRealTimerFires(t *testing.T) {
	done := make(chan struct{})
	d := New(10*time.Millisecond, func() { close(done) })
	d.Trigger()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced function never ran")
	}
}
