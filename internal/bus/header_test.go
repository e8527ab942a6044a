package bus

import "testing"

func newTestHeader() *Header {
	return &Header{}
}

func TestFlagsSetClearHas(t *testing.T) {
	h := newTestHeader()
	if h.HasFlag(FlagActive) {
		t.Fatal("fresh header should have no flags set")
	}
	h.SetFlag(FlagActive)
	if !h.HasFlag(FlagActive) {
		t.Fatal("FlagActive not observed after SetFlag")
	}
	h.SetFlag(FlagPanicRequest)
	if !h.HasFlag(FlagActive) || !h.HasFlag(FlagPanicRequest) {
		t.Fatal("setting a second flag cleared the first")
	}
	h.ClearFlag(FlagActive)
	if h.HasFlag(FlagActive) {
		t.Fatal("FlagActive still observed after ClearFlag")
	}
	if !h.HasFlag(FlagPanicRequest) {
		t.Fatal("clearing one flag cleared an unrelated flag")
	}
}

func TestChannelBoundsChecking(t *testing.T) {
	h := newTestHeader()
	if c := h.Channel(-1); c != nil {
		t.Error("Channel(-1) should return nil")
	}
	if c := h.Channel(ChannelCount); c != nil {
		t.Error("Channel(ChannelCount) should return nil")
	}
	if c := h.Channel(0); c == nil {
		t.Error("Channel(0) should not be nil")
	}
	if c := h.Channel(ChannelCount - 1); c == nil {
		t.Error("Channel(ChannelCount-1) should not be nil")
	}
}

func TestUpdateChannelMeterOutOfRangeIsNoop(t *testing.T) {
	h := newTestHeader()
	h.UpdateChannelMeter(-1, 1.0, 1.0)
	h.UpdateChannelMeter(ChannelCount, 1.0, 1.0)
	// No panic means the bounds check held; nothing else to assert.
}

func TestSumVoicesAggregates(t *testing.T) {
	h := newTestHeader()
	for ch := 0; ch < ChannelCount; ch++ {
		h.Channel(ch).SetVoiceCount(uint32(ch))
	}
	want := uint32(0)
	for ch := 0; ch < ChannelCount; ch++ {
		want += uint32(ch)
	}
	if got := h.SumVoices(); got != want {
		t.Errorf("SumVoices() = %d, want %d", got, want)
	}
	h.RefreshTotalVoices()
	if got := h.TotalVoices(); got != want {
		t.Errorf("TotalVoices() = %d, want %d", got, want)
	}
}

func TestFloat32FieldsRoundTrip(t *testing.T) {
	h := newTestHeader()
	h.SetMasterPeakL(0.75)
	h.SetMasterPeakR(-0.5)
	h.SetCPUPercent(42.5)
	if got := h.MasterPeakL(); got != 0.75 {
		t.Errorf("MasterPeakL() = %v, want 0.75", got)
	}
	if got := h.MasterPeakR(); got != -0.5 {
		t.Errorf("MasterPeakR() = %v, want -0.5", got)
	}
	if got := h.CPUPercent(); got != 42.5 {
		t.Errorf("CPUPercent() = %v, want 42.5", got)
	}
}

func TestFlipIndexTogglesBetweenZeroAndOne(t *testing.T) {
	h := newTestHeader()
	h.SetOutWriteIndex(0)
	first := h.FlipOutWriteIndex()
	second := h.FlipOutWriteIndex()
	if first == second {
		t.Fatalf("FlipOutWriteIndex did not toggle: %d then %d", first, second)
	}
	if first != 0 && first != 1 {
		t.Fatalf("FlipOutWriteIndex returned out-of-range value %d", first)
	}
}

func TestIncrementCounters(t *testing.T) {
	h := newTestHeader()
	if h.IncrementOutFrameCounter() != 1 {
		t.Fatal("first IncrementOutFrameCounter should return 1")
	}
	if h.IncrementOutFrameCounter() != 2 {
		t.Fatal("second IncrementOutFrameCounter should return 2")
	}
	if h.IncrementHeartbeat() != 1 {
		t.Fatal("first IncrementHeartbeat should return 1")
	}
}
