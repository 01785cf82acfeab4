package session

import (
	"context"
	"errors"
	"time"

	"transcribe-cli/internal/observability/logging"
	"transcribe-cli/internal/observability/metrics"
	"transcribe-cli/internal/stt"
)

const bytesPerSample = 2 // S16LE

// Config describes one streaming run.
type Config struct {
	Handler      HandlerConfig
	SampleRateHz int
	Channels     int
}

// Run pumps PCM chunks from the source channel into the adapter until
// the channel closes or ctx is cancelled, while the adapter's result
// listener feeds the handler. It returns after the provider stream has
// drained.
func Run(ctx context.Context, adapter stt.Adapter, chunks <-chan []byte, cfg Config) error {
	h := NewHandler(adapter, cfg.Handler)
	logger := logging.WithSession(cfg.Handler.SessionID, cfg.Handler.Provider)
	m := metrics.Default

	if err := h.Start(ctx); err != nil {
		return err
	}

	m.RecordSessionStart()
	started := time.Now()
	defer func() {
		m.RecordSessionEnd(time.Since(started).Seconds())
	}()

	listenDone := make(chan struct{})
	go func() {
		defer close(listenDone)
		h.Listen()
	}()

	// Audio offset is derived from bytes sent, not wall clock, so a
	// faster-than-realtime file source still gets correct offsets.
	bytesPerMs := int64(cfg.SampleRateHz*cfg.Channels*bytesPerSample) / 1000
	var sent int64

	logger.Info().
		Int("sampleRateHz", cfg.SampleRateHz).
		Int("channels", cfg.Channels).
		Msg("Streaming session started")

	var pumpErr error
pump:
	for {
		select {
		case <-ctx.Done():
			break pump
		case chunk, ok := <-chunks:
			if !ok {
				break pump
			}
			var offsetMs int64
			if bytesPerMs > 0 {
				offsetMs = sent / bytesPerMs
			}
			if err := h.SendAudio(ctx, chunk, offsetMs); err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.Error().Err(err).Msg("Sending audio failed, ending session")
					pumpErr = err
				}
				break pump
			}
			sent += int64(len(chunk))
		}
	}

	// Close signals end of audio; the listener drains remaining
	// results before returning, and only then does the segment close,
	// so a final flushed at end of stream still lands.
	if err := h.Close(); err != nil && pumpErr == nil && !errors.Is(err, context.Canceled) {
		pumpErr = err
	}
	<-listenDone
	h.FinishSegment()

	logger.Info().
		Int64("audioBytes", sent).
		Int("utterances", h.UtteranceCount()).
		Dur("duration", time.Since(started).Round(time.Millisecond)).
		Msg("Streaming session ended")
	return pumpErr
}
