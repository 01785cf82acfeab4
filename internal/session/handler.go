// Package session runs one live transcription session: it pumps PCM
// chunks into an STT adapter and turns the adapter's callbacks into
// printed transcript lines, published events, and segment lifecycle
// transitions.
package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"transcribe-cli/internal/config"
	"transcribe-cli/internal/events"
	"transcribe-cli/internal/models"
	"transcribe-cli/internal/observability/logging"
	"transcribe-cli/internal/observability/metrics"
	"transcribe-cli/internal/segment"
	"transcribe-cli/internal/stt"
	"transcribe-cli/internal/transcript"
)

// LiveFeed receives transcript events for a live viewer, e.g. the
// status server's websocket hub.
type LiveFeed interface {
	BroadcastPartial(models.TranscriptPartial)
	BroadcastFinal(models.TranscriptFinal)
}

// HandlerConfig wires a handler's collaborators and policy.
type HandlerConfig struct {
	SessionID    string
	Provider     string
	Limits       config.SessionLimits
	ShowPartials bool

	// Out receives printed transcript lines. Finals always print;
	// partials only with ShowPartials.
	Out io.Writer

	Builder   *transcript.Builder
	Publisher *events.Publisher
	Live      LiveFeed
}

// Handler manages a transcription session around one STT adapter.
// It implements stt.Callback: the adapter's result listener drives the
// segment state machine, the printed output, and event publishing.
// Segment limits bound resource usage per utterance.
type Handler struct {
	adapter stt.Adapter
	cfg     HandlerConfig
	tracker *segment.Tracker
	gen     *segment.Generator
	m       *metrics.Metrics
	logger  zerolog.Logger

	mu                sync.RWMutex
	segmentStart      time.Time
	audioBytes        int64
	partialCount      int
	utteranceCount    int
	lastAudioOffsetMs int64
}

// NewHandler creates a handler with a fresh segment tracker.
func NewHandler(adapter stt.Adapter, cfg HandlerConfig) *Handler {
	gen := segment.NewGenerator()
	return &Handler{
		adapter:      adapter,
		cfg:          cfg,
		tracker:      segment.NewTracker(gen.Next(cfg.SessionID)),
		gen:          gen,
		m:            metrics.Default,
		logger:       logging.WithSession(cfg.SessionID, cfg.Provider),
		segmentStart: time.Now(),
	}
}

// Start opens the STT stream with this handler as the callback receiver.
func (h *Handler) Start(ctx context.Context) error {
	return h.adapter.Start(ctx, h)
}

// Listen blocks consuming provider results. Run in its own goroutine.
func (h *Handler) Listen() {
	h.adapter.Listen()
}

// SendAudio forwards a PCM chunk to the provider after enforcing the
// segment limits. A limit violation drops the segment and returns an
// error; the session should stop sending.
func (h *Handler) SendAudio(ctx context.Context, audio []byte, audioOffsetMs int64) error {
	h.mu.Lock()
	h.lastAudioOffsetMs = audioOffsetMs
	h.audioBytes += int64(len(audio))
	bytes := h.audioBytes
	start := h.segmentStart
	h.mu.Unlock()

	if h.cfg.Limits.MaxAudioBytes > 0 && bytes > h.cfg.Limits.MaxAudioBytes {
		h.DropSegment("max_audio_bytes")
		return fmt.Errorf("segment limit exceeded: %d audio bytes > %d", bytes, h.cfg.Limits.MaxAudioBytes)
	}
	if h.cfg.Limits.MaxDuration > 0 && time.Since(start) > h.cfg.Limits.MaxDuration {
		h.DropSegment("max_duration")
		return fmt.Errorf("segment limit exceeded: duration %v > %v", time.Since(start).Round(time.Second), h.cfg.Limits.MaxDuration)
	}

	return h.adapter.SendAudio(ctx, audio)
}

// Close ends the STT stream. The segment stays open: providers flush
// remaining results on stream close, and a final arriving during that
// drain must still land. The session closes the tracker once the
// listener has returned.
func (h *Handler) Close() error {
	return h.adapter.Close()
}

// FinishSegment closes the current segment after the result stream has
// drained.
func (h *Handler) FinishSegment() {
	h.tracker.Close()
}

// SegmentID returns the current segment ID.
func (h *Handler) SegmentID() string {
	return h.tracker.ID()
}

// SegmentState returns the current segment lifecycle state.
func (h *Handler) SegmentState() segment.State {
	return h.tracker.State()
}

// UtteranceCount returns the number of completed utterances.
func (h *Handler) UtteranceCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.utteranceCount
}

// DropSegment abandons the current segment without a final. Returns
// false if the segment was already terminal.
func (h *Handler) DropSegment(reason string) bool {
	state := h.tracker.State()
	dropped := h.tracker.Drop()
	if dropped {
		h.m.RecordSegmentDropped(reason)
	}
	logger := logging.WithSegment(h.cfg.SessionID, h.tracker.ID())
	logger.Warn().
		Str("previousState", state.String()).
		Str("reason", reason).
		Msg("Segment dropped")
	return dropped
}

// SegmentDropped reports whether the current segment was dropped.
func (h *Handler) SegmentDropped() bool {
	return h.tracker.Dropped()
}

// SegmentUsage holds the current segment's resource counters.
type SegmentUsage struct {
	AudioBytes   int64
	PartialCount int
	Duration     time.Duration
}

// Usage returns the current segment's counters. They reset on each
// utterance boundary.
func (h *Handler) Usage() SegmentUsage {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return SegmentUsage{
		AudioBytes:   h.audioBytes,
		PartialCount: h.partialCount,
		Duration:     time.Since(h.segmentStart),
	}
}

// --- stt.Callback implementation ---

// OnPartial handles an interim result. Ignored unless the segment is
// open and within its partial budget.
func (h *Handler) OnPartial(text string) {
	if err := h.tracker.EmitPartial(); err != nil {
		h.logger.Debug().
			Str("segmentId", h.tracker.ID()).
			Str("state", h.tracker.State().String()).
			Err(err).
			Msg("Partial ignored")
		return
	}

	h.mu.Lock()
	h.partialCount++
	count := h.partialCount
	h.mu.Unlock()

	if h.cfg.Limits.MaxPartials > 0 && count > h.cfg.Limits.MaxPartials {
		h.DropSegment("max_partials")
		return
	}

	h.m.RecordPartial()
	if h.cfg.ShowPartials && h.cfg.Out != nil {
		fmt.Fprintf(h.cfg.Out, "... %s\n", text)
	}

	ev := models.TranscriptPartial{
		EventType: models.EventTranscriptPartial,
		SessionID: h.cfg.SessionID,
		SegmentID: h.tracker.ID(),
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	}
	if h.cfg.Live != nil {
		h.cfg.Live.BroadcastPartial(ev)
	}
	if h.cfg.Publisher != nil {
		if err := h.cfg.Publisher.PublishPartial(context.Background(), h.cfg.SessionID, ev); err != nil {
			h.logger.Error().Err(err).Str("segmentId", ev.SegmentID).Msg("Failed to publish partial")
		}
	}
}

// OnFinal handles the segment's confirmed result: print it, append it
// to the transcript, publish it. At most one final per segment.
func (h *Handler) OnFinal(text string, confidence float64) {
	if err := h.tracker.EmitFinal(); err != nil {
		h.logger.Debug().
			Str("segmentId", h.tracker.ID()).
			Str("state", h.tracker.State().String()).
			Err(err).
			Msg("Final ignored")
		return
	}

	h.mu.RLock()
	audioOffsetMs := h.lastAudioOffsetMs
	h.mu.RUnlock()

	now := time.Now()
	if h.cfg.Out != nil {
		fmt.Fprintln(h.cfg.Out, transcript.Line{At: now, Text: text, Confidence: confidence}.Render())
	}
	if h.cfg.Builder != nil {
		h.cfg.Builder.Append(now, text, confidence)
	}

	h.m.RecordFinal()
	h.m.RecordSegmentCompleted()

	ev := models.TranscriptFinal{
		EventType:     models.EventTranscriptFinal,
		SessionID:     h.cfg.SessionID,
		SegmentID:     h.tracker.ID(),
		Text:          text,
		Confidence:    confidence,
		AudioOffsetMs: audioOffsetMs,
		Timestamp:     now.UnixMilli(),
	}
	if h.cfg.Live != nil {
		h.cfg.Live.BroadcastFinal(ev)
	}
	if h.cfg.Publisher != nil {
		if err := h.cfg.Publisher.PublishFinal(context.Background(), h.cfg.SessionID, ev); err != nil {
			h.logger.Error().Err(err).Str("segmentId", ev.SegmentID).Msg("Failed to publish final")
		}
	}
}

// OnEndOfUtterance closes the current segment and opens the next one,
// resetting the per-segment usage counters.
func (h *Handler) OnEndOfUtterance() {
	oldID := h.tracker.ID()
	oldState := h.tracker.State()
	h.tracker.Close()

	h.mu.Lock()
	h.utteranceCount++
	count := h.utteranceCount
	oldBytes := h.audioBytes
	oldPartials := h.partialCount
	oldDuration := time.Since(h.segmentStart)
	h.audioBytes = 0
	h.partialCount = 0
	h.segmentStart = time.Now()
	h.mu.Unlock()

	newID := h.gen.Next(h.cfg.SessionID)
	h.tracker.Advance(newID)

	h.logger.Debug().
		Str("oldSegment", oldID).
		Str("oldState", oldState.String()).
		Str("newSegment", newID).
		Int("utterance", count).
		Int64("audioBytes", oldBytes).
		Int("partials", oldPartials).
		Dur("duration", oldDuration).
		Msg("End of utterance")
}

// OnError drops the current segment. No final is emitted for it:
// printing nothing beats printing text the provider could not confirm.
func (h *Handler) OnError(err error) {
	h.m.RecordSTTError(h.cfg.Provider)
	state := h.tracker.State()
	dropped := h.tracker.Drop()
	if dropped {
		h.m.RecordSegmentDropped("stt_error")
	}
	logger := logging.WithSegment(h.cfg.SessionID, h.tracker.ID())
	logger.Error().
		Str("previousState", state.String()).
		Bool("dropped", dropped).
		Err(err).
		Msg("STT stream error, segment dropped")
}
