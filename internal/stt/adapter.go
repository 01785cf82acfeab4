// Package stt defines the contract between the streaming session and a
// speech-to-text provider.
package stt

import "context"

// Callback receives transcript results from the STT provider.
type Callback interface {
	// OnPartial is called for each interim (still revisable) transcript.
	OnPartial(text string)

	// OnFinal is called when a transcript segment is confirmed.
	// Confidence is 0 when the provider reports none.
	OnFinal(text string, confidence float64)

	// OnEndOfUtterance is called when the provider detects that the
	// speaker stopped; a new segment begins after this.
	OnEndOfUtterance()

	// OnError is called when the provider stream fails.
	OnError(err error)
}

// Adapter is a streaming STT provider (AWS Transcribe, mock, ...).
type Adapter interface {
	// Start opens a streaming transcription session. Results are
	// delivered to cb once Listen runs.
	Start(ctx context.Context, cb Callback) error

	// SendAudio forwards a chunk of raw PCM to the provider.
	SendAudio(ctx context.Context, audio []byte) error

	// Listen blocks reading provider results and invoking callbacks.
	// Run it in its own goroutine after Start; it returns when the
	// result stream ends.
	Listen()

	// Close ends the session and releases resources.
	Close() error
}
