//go:build linux && (amd64 || arm64)

package bus

import (
	"strings"
	"testing"
	"time"
)

func testRegionName(t *testing.T) string {
	name := "omnimidi-audio-bus-test-" + strings.ReplaceAll(t.Name(), "/", "-")
	return name
}

func TestCreateOpenDestroyRegion(t *testing.T) {
	name := testRegionName(t)

	r, err := CreateRegion(name, 64, 48000)
	if err != nil {
		t.Fatalf("CreateRegion: %v", err)
	}
	t.Cleanup(func() { r.Destroy() })

	if !IsConnected(name) {
		t.Fatal("IsConnected should be true right after CreateRegion")
	}
	magic := r.Header.Magic()
	if string(magic[:]) != Magic {
		t.Fatalf("Magic = %q, want %q", magic, Magic)
	}
	if r.Header.Version() != Version {
		t.Fatalf("Version = %d, want %d", r.Header.Version(), Version)
	}

	opened, err := OpenRegion(name, 64)
	if err != nil {
		t.Fatalf("OpenRegion: %v", err)
	}
	defer opened.Close()

	if opened.Header.SampleRate() != 48000 {
		t.Fatalf("opened SampleRate = %d, want 48000", opened.Header.SampleRate())
	}
}

func TestOpenRegionMissingFails(t *testing.T) {
	name := testRegionName(t)
	if _, err := OpenRegion(name, 64); err == nil {
		t.Fatal("OpenRegion on a nonexistent region should fail")
	}
}

func TestPublishAndConsumeFrameRoundTrip(t *testing.T) {
	name := testRegionName(t)
	const bufferSamples = 32

	synth, err := CreateRegion(name, bufferSamples, 48000)
	if err != nil {
		t.Fatalf("CreateRegion: %v", err)
	}
	t.Cleanup(func() { synth.Destroy() })

	host, err := OpenRegion(name, bufferSamples)
	if err != nil {
		t.Fatalf("OpenRegion: %v", err)
	}
	defer host.Close()

	var frames [ChannelCount][]float32
	frames[0] = make([]float32, bufferSamples*Stereo)
	for i := range frames[0] {
		frames[0][i] = 0.5
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := host.AwaitAudio(time.Second); err != nil {
			t.Errorf("host AwaitAudio: %v", err)
			return
		}
		out := host.ConsumeOutFrame()
		if len(out[0]) != bufferSamples*Stereo {
			t.Errorf("ConsumeOutFrame channel 0 length = %d, want %d", len(out[0]), bufferSamples*Stereo)
		}
		for i, v := range out[0] {
			if v != 0.5 {
				t.Errorf("ConsumeOutFrame channel 0 sample %d = %v, want 0.5", i, v)
				break
			}
		}

		mix := make([]float32, bufferSamples*Stereo)
		for i := range mix {
			mix[i] = 0.25
		}
		host.PublishProcessed(mix)
	}()

	synth.PublishFrame(frames)

	if err := synth.AwaitProcessed(time.Second); err != nil {
		t.Fatalf("synth AwaitProcessed: %v", err)
	}
	<-done

	processed := synth.ConsumeProcessed()
	for i, v := range processed {
		if v != 0.25 {
			t.Fatalf("ConsumeProcessed sample %d = %v, want 0.25", i, v)
		}
	}

	if got := synth.Header.OutFrameCounter(); got != 1 {
		t.Errorf("OutFrameCounter = %d, want 1", got)
	}
	if got := synth.Header.InFrameCounter(); got != 1 {
		t.Errorf("InFrameCounter = %d, want 1", got)
	}
}

func TestCheckLivenessReportsTimeout(t *testing.T) {
	name := testRegionName(t)
	r, err := CreateRegion(name, 32, 48000)
	if err != nil {
		t.Fatalf("CreateRegion: %v", err)
	}
	t.Cleanup(func() { r.Destroy() })

	waitErr := r.AwaitProcessed(10 * time.Millisecond)
	if waitErr != ErrFutexTimeout {
		t.Fatalf("AwaitProcessed err = %v, want ErrFutexTimeout", waitErr)
	}
	if got := r.CheckLiveness(waitErr); got != LivenessTimedOut {
		t.Fatalf("CheckLiveness = %v, want LivenessTimedOut", got)
	}
}

func TestCheckLivenessReportsDrift(t *testing.T) {
	name := testRegionName(t)
	r, err := CreateRegion(name, 32, 48000)
	if err != nil {
		t.Fatalf("CreateRegion: %v", err)
	}
	t.Cleanup(func() { r.Destroy() })

	for i := 0; i < MaxDriftFrames+1; i++ {
		r.Header.IncrementOutFrameCounter()
	}

	if got := r.CheckLiveness(nil); got != LivenessDrifted {
		t.Fatalf("CheckLiveness = %v, want LivenessDrifted", got)
	}
}

func TestForceReleaseIsTwoStep(t *testing.T) {
	name := testRegionName(t)
	r, err := CreateRegion(name, 32, 48000)
	if err != nil {
		t.Fatalf("CreateRegion: %v", err)
	}
	t.Cleanup(func() { r.Destroy() })

	if err := r.Header.RequestTakeover(r.Mutex, time.Second); err != nil {
		t.Fatalf("RequestTakeover: %v", err)
	}
	if !r.Header.CompletePendingTakeover() {
		t.Fatal("CompletePendingTakeover should succeed")
	}

	if !r.ForceRelease(r.Mutex, time.Second) {
		t.Fatal("ForceRelease should succeed")
	}
	// ForceRelease only performs the first FSM step; a liveness-triggered
	// release must go through StateReleasing exactly like a host-requested
	// one, not jump straight to StateDirect.
	if got := r.Header.TakeoverState(); got != StateReleasing {
		t.Fatalf("state after ForceRelease = %v, want StateReleasing", got)
	}

	if !r.Header.CompleteRelease() {
		t.Fatal("CompleteRelease should succeed from Releasing")
	}
	if got := r.Header.TakeoverState(); got != StateDirect {
		t.Fatalf("state after CompleteRelease = %v, want StateDirect", got)
	}
}
