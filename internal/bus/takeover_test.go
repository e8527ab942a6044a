//go:build linux && (amd64 || arm64)

package bus

import (
	"testing"
	"time"
)

func TestTakeoverFullCycle(t *testing.T) {
	h := newTestHeader()
	var word uint32
	mu := newHeaderMutex(&word)

	if got := h.TakeoverState(); got != StateDirect {
		t.Fatalf("fresh header state = %v, want StateDirect", got)
	}

	if err := h.RequestTakeover(mu, time.Second); err != nil {
		t.Fatalf("RequestTakeover: %v", err)
	}
	if got := h.TakeoverState(); got != StatePending {
		t.Fatalf("state after RequestTakeover = %v, want StatePending", got)
	}
	if !h.ShouldProcessViaHost() {
		t.Fatal("ShouldProcessViaHost should be true while Pending")
	}

	if !h.CompletePendingTakeover() {
		t.Fatal("CompletePendingTakeover should succeed from Pending")
	}
	if got := h.TakeoverState(); got != StateActive {
		t.Fatalf("state after CompletePendingTakeover = %v, want StateActive", got)
	}

	if err := h.RequestRelease(mu, time.Second); err != nil {
		t.Fatalf("RequestRelease: %v", err)
	}
	if got := h.TakeoverState(); got != StateReleasing {
		t.Fatalf("state after RequestRelease = %v, want StateReleasing", got)
	}
	if h.ShouldProcessViaHost() {
		t.Fatal("ShouldProcessViaHost should be false while Releasing")
	}

	if !h.CompleteRelease() {
		t.Fatal("CompleteRelease should succeed from Releasing")
	}
	if got := h.TakeoverState(); got != StateDirect {
		t.Fatalf("state after CompleteRelease = %v, want StateDirect", got)
	}
	if h.ShouldProcessViaHost() {
		t.Fatal("ShouldProcessViaHost should be false once back in Direct")
	}
}

func TestTakeoverRejectsInvalidTransitions(t *testing.T) {
	h := newTestHeader()
	var word uint32
	mu := newHeaderMutex(&word)

	if err := h.RequestRelease(mu, time.Second); err != ErrInvalidTakeoverTransition {
		t.Fatalf("RequestRelease from Direct: err = %v, want ErrInvalidTakeoverTransition", err)
	}
	if h.CompletePendingTakeover() {
		t.Fatal("CompletePendingTakeover should fail from Direct")
	}
	if h.CompleteRelease() {
		t.Fatal("CompleteRelease should fail from Direct")
	}
}

func TestRequestReleaseFromPending(t *testing.T) {
	h := newTestHeader()
	var word uint32
	mu := newHeaderMutex(&word)

	if err := h.RequestTakeover(mu, time.Second); err != nil {
		t.Fatalf("RequestTakeover: %v", err)
	}
	if got := h.TakeoverState(); got != StatePending {
		t.Fatalf("state after RequestTakeover = %v, want StatePending", got)
	}

	// A host can back out of a takeover it requested but the synth never
	// confirmed: RequestRelease must accept Pending, not just Active.
	if err := h.RequestRelease(mu, time.Second); err != nil {
		t.Fatalf("RequestRelease from Pending: %v", err)
	}
	if got := h.TakeoverState(); got != StateReleasing {
		t.Fatalf("state after RequestRelease from Pending = %v, want StateReleasing", got)
	}
}

func TestRequestReleaseRejectsReleasing(t *testing.T) {
	h := newTestHeader()
	var word uint32
	mu := newHeaderMutex(&word)

	if err := h.RequestTakeover(mu, time.Second); err != nil {
		t.Fatalf("RequestTakeover: %v", err)
	}
	if err := h.RequestRelease(mu, time.Second); err != nil {
		t.Fatalf("RequestRelease: %v", err)
	}
	if err := h.RequestRelease(mu, time.Second); err != ErrInvalidTakeoverTransition {
		t.Fatalf("second RequestRelease: err = %v, want ErrInvalidTakeoverTransition", err)
	}
}

func TestRequestTakeoverTimesOutIfMutexHeld(t *testing.T) {
	h := newTestHeader()
	var word uint32
	mu := newHeaderMutex(&word)
	mu.Lock()

	err := h.RequestTakeover(mu, 20*time.Millisecond)
	if err != ErrFutexTimeout {
		t.Fatalf("RequestTakeover with held mutex: err = %v, want ErrFutexTimeout", err)
	}
}
