package session

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"transcribe-cli/internal/config"
	"transcribe-cli/internal/segment"
	"transcribe-cli/internal/stt"
	"transcribe-cli/internal/transcript"
)

// testAdapter implements stt.Adapter for handler tests.
type testAdapter struct {
	started bool
	closed  bool
	audio   [][]byte
	cb      stt.Callback
	done    chan struct{}
}

func newTestAdapter() *testAdapter {
	return &testAdapter{done: make(chan struct{})}
}

func (a *testAdapter) Start(ctx context.Context, cb stt.Callback) error {
	a.started = true
	a.cb = cb
	return nil
}

func (a *testAdapter) SendAudio(ctx context.Context, audio []byte) error {
	a.audio = append(a.audio, audio)
	return nil
}

func (a *testAdapter) Listen() {
	<-a.done
}

func (a *testAdapter) Close() error {
	if !a.closed {
		a.closed = true
		close(a.done)
	}
	return nil
}

func testLimits() config.SessionLimits {
	return config.SessionLimits{
		MaxAudioBytes: 1024 * 1024,
		MaxDuration:   time.Hour,
		MaxPartials:   1000,
	}
}

func newTestHandler(adapter stt.Adapter, limits config.SessionLimits, out *bytes.Buffer, showPartials bool) *Handler {
	return NewHandler(adapter, HandlerConfig{
		SessionID:    "sess-1",
		Provider:     "mock",
		Limits:       limits,
		ShowPartials: showPartials,
		Out:          out,
		Builder:      transcript.NewBuilder(),
	})
}

func TestHandler_MaxAudioBytesLimit(t *testing.T) {
	limits := testLimits()
	limits.MaxAudioBytes = 100

	h := newTestHandler(newTestAdapter(), limits, &bytes.Buffer{}, false)
	ctx := context.Background()

	if err := h.SendAudio(ctx, make([]byte, 50), 0); err != nil {
		t.Fatalf("first send should succeed: %v", err)
	}
	if err := h.SendAudio(ctx, make([]byte, 60), 100); err == nil {
		t.Fatal("expected error when exceeding max audio bytes")
	}
	if !h.SegmentDropped() {
		t.Error("segment should be dropped after exceeding limit")
	}
}

func TestHandler_MaxDurationLimit(t *testing.T) {
	limits := testLimits()
	limits.MaxDuration = 50 * time.Millisecond

	h := newTestHandler(newTestAdapter(), limits, &bytes.Buffer{}, false)
	ctx := context.Background()

	if err := h.SendAudio(ctx, []byte("audio"), 0); err != nil {
		t.Fatalf("first send should succeed: %v", err)
	}

	time.Sleep(60 * time.Millisecond)

	if err := h.SendAudio(ctx, []byte("audio"), 100); err == nil {
		t.Fatal("expected error when exceeding max duration")
	}
	if !h.SegmentDropped() {
		t.Error("segment should be dropped after exceeding duration limit")
	}
}

func TestHandler_MaxPartialsLimit(t *testing.T) {
	limits := testLimits()
	limits.MaxPartials = 3

	h := newTestHandler(newTestAdapter(), limits, &bytes.Buffer{}, false)

	for i := 0; i < 3; i++ {
		h.OnPartial("partial text")
	}
	if h.SegmentDropped() {
		t.Error("segment should not be dropped after 3 partials")
	}

	h.OnPartial("one too many")
	if !h.SegmentDropped() {
		t.Error("segment should be dropped after exceeding max partials")
	}
}

func TestHandler_FinalPrintsAndAccumulates(t *testing.T) {
	var out bytes.Buffer
	h := newTestHandler(newTestAdapter(), testLimits(), &out, false)

	h.OnFinal("hello world", 0.94)

	printed := out.String()
	if !strings.Contains(printed, "hello world (Confidence: 0.94)") {
		t.Errorf("final not printed as expected: %q", printed)
	}
	if h.cfg.Builder.Text() != "hello world" {
		t.Errorf("transcript builder = %q", h.cfg.Builder.Text())
	}
	if h.SegmentState() != segment.StateFinalEmitted {
		t.Errorf("state = %s, want FINAL_EMITTED", h.SegmentState())
	}
}

func TestHandler_SecondFinalIgnored(t *testing.T) {
	var out bytes.Buffer
	h := newTestHandler(newTestAdapter(), testLimits(), &out, false)

	h.OnFinal("first", 0.9)
	h.OnFinal("second", 0.9)

	if strings.Contains(out.String(), "second") {
		t.Error("second final for the same segment must not print")
	}
	if h.cfg.Builder.Len() != 1 {
		t.Errorf("builder has %d lines, want 1", h.cfg.Builder.Len())
	}
}

func TestHandler_PartialsHiddenByDefault(t *testing.T) {
	var out bytes.Buffer
	h := newTestHandler(newTestAdapter(), testLimits(), &out, false)

	h.OnPartial("in progress")
	if out.Len() != 0 {
		t.Errorf("partials must not print by default, got %q", out.String())
	}

	h = newTestHandler(newTestAdapter(), testLimits(), &out, true)
	h.OnPartial("in progress")
	if !strings.Contains(out.String(), "in progress") {
		t.Errorf("partial should print with ShowPartials, got %q", out.String())
	}
}

func TestHandler_EndOfUtteranceAdvancesSegment(t *testing.T) {
	h := newTestHandler(newTestAdapter(), testLimits(), &bytes.Buffer{}, false)
	ctx := context.Background()

	h.SendAudio(ctx, make([]byte, 100), 0)
	h.OnPartial("partial 1")
	h.OnPartial("partial 2")

	usage := h.Usage()
	if usage.AudioBytes != 100 {
		t.Errorf("AudioBytes = %d, want 100", usage.AudioBytes)
	}
	if usage.PartialCount != 2 {
		t.Errorf("PartialCount = %d, want 2", usage.PartialCount)
	}

	oldID := h.SegmentID()
	h.OnEndOfUtterance()

	if h.SegmentID() == oldID {
		t.Error("segment ID should advance on utterance boundary")
	}
	if h.SegmentState() != segment.StateOpen {
		t.Errorf("new segment state = %s, want OPEN", h.SegmentState())
	}
	if h.UtteranceCount() != 1 {
		t.Errorf("UtteranceCount = %d, want 1", h.UtteranceCount())
	}

	usage = h.Usage()
	if usage.AudioBytes != 0 || usage.PartialCount != 0 {
		t.Errorf("usage not reset: %+v", usage)
	}
}

func TestHandler_ErrorDropsSegmentWithoutFinal(t *testing.T) {
	var out bytes.Buffer
	h := newTestHandler(newTestAdapter(), testLimits(), &out, false)

	h.OnPartial("doomed")
	h.OnError(context.DeadlineExceeded)

	if !h.SegmentDropped() {
		t.Fatal("segment should be dropped on STT error")
	}

	// A final arriving after the drop must be discarded.
	h.OnFinal("should not appear", 0.99)
	if out.Len() != 0 {
		t.Errorf("dropped segment must not print, got %q", out.String())
	}
}

func TestHandler_FinalAfterCloseStillLands(t *testing.T) {
	adapter := newTestAdapter()
	var out bytes.Buffer
	h := newTestHandler(adapter, testLimits(), &out, false)

	if err := h.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !adapter.closed {
		t.Error("adapter should be closed")
	}

	// Providers flush remaining results after the audio stream closes;
	// a final arriving during that drain must still print.
	h.OnFinal("flushed at end of stream", 0.9)
	if !strings.Contains(out.String(), "flushed at end of stream") {
		t.Errorf("final flushed after Close was lost, output %q", out.String())
	}

	h.FinishSegment()
	if h.SegmentState() != segment.StateClosed {
		t.Errorf("state = %s, want CLOSED", h.SegmentState())
	}

	// After the segment closes nothing more is accepted.
	h.OnFinal("too late", 0.9)
	if strings.Contains(out.String(), "too late") {
		t.Error("final after FinishSegment must not print")
	}
}
