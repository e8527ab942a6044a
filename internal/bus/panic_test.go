//go:build linux && (amd64 || arm64)

package bus

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPanicRequestAcknowledgeHandshake(t *testing.T) {
	h := newTestHeader()
	var word uint32
	mu := newHeaderMutex(&word)

	if h.PanicRequested() {
		t.Fatal("fresh header should have no pending panic request")
	}

	if !h.RequestPanic(mu, time.Second) {
		t.Fatal("RequestPanic should succeed")
	}
	if !h.PanicRequested() {
		t.Fatal("PanicRequested should be true after RequestPanic")
	}

	if !h.AcknowledgePanic(mu, time.Second) {
		t.Fatal("AcknowledgePanic should succeed")
	}
	if h.PanicRequested() {
		t.Fatal("PanicRequested should be false after AcknowledgePanic")
	}
	if !h.PanicAcknowledged() {
		t.Fatal("PanicAcknowledged should be true after AcknowledgePanic")
	}

	h.ClearPanicAck()
	if h.PanicAcknowledged() {
		t.Fatal("PanicAcknowledged should be false after ClearPanicAck")
	}
}

func TestRequestPanicClearsStaleAck(t *testing.T) {
	h := newTestHeader()
	var word uint32
	mu := newHeaderMutex(&word)

	// Simulate a previous panic that was requested and acknowledged, but
	// whose Ack the host never cleared before a new panic arrives.
	h.SetFlag(FlagPanicAck)
	if !h.PanicAcknowledged() {
		t.Fatal("setup: FlagPanicAck should be set")
	}

	if !h.RequestPanic(mu, time.Second) {
		t.Fatal("RequestPanic should succeed")
	}
	if !h.PanicRequested() {
		t.Fatal("PanicRequested should be true after RequestPanic")
	}
	if h.PanicAcknowledged() {
		t.Fatal("RequestPanic must clear a stale Ack so Req=1,Ack=1 is never observable")
	}
}

func TestRegistrySourcePoll(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "panic-trigger")
	src := RegistrySource{Path: path}

	if src.Poll() {
		t.Fatal("Poll should be false before the trigger file exists")
	}
	if err := os.WriteFile(path, []byte("1"), 0600); err != nil {
		t.Fatalf("write trigger file: %v", err)
	}
	if !src.Poll() {
		t.Fatal("Poll should be true once the trigger file exists")
	}
}

type fakeSource struct{ triggered bool }

func (f *fakeSource) Poll() bool { return f.triggered }

func TestWatchPanicSourcesRequestsOnTrigger(t *testing.T) {
	h := newTestHeader()
	var word uint32
	mu := newHeaderMutex(&word)
	src := &fakeSource{triggered: true}

	ctx, cancel := context.WithCancel(context.Background())
	go WatchPanicSources(ctx, h, mu, src, 5*time.Millisecond)

	deadline := time.After(time.Second)
	for {
		if h.PanicRequested() {
			break
		}
		select {
		case <-deadline:
			cancel()
			t.Fatal("WatchPanicSources never observed the trigger")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
}
