// Package mock provides a simulated STT adapter so the CLI and its
// tests run without AWS credentials or a microphone. It mimics the
// streaming service's behavior: progressive partials, exactly one final
// per utterance, then an end-of-utterance boundary.
package mock

import (
	"context"
	"sync"
	"time"

	"transcribe-cli/internal/stt"
)

// Utterance is one scripted recognition: the partial sequence the
// service would revise through, and the confirmed final.
type Utterance struct {
	Partials   []string
	Final      string
	Confidence float64
}

// Script is the default rotation of simulated utterances.
var Script = []Utterance{
	{
		Partials:   []string{"testing", "testing one", "testing one two"},
		Final:      "Testing one two three.",
		Confidence: 0.96,
	},
	{
		Partials:   []string{"the quick", "the quick brown fox"},
		Final:      "The quick brown fox jumps over the lazy dog.",
		Confidence: 0.93,
	},
	{
		Partials:   []string{"can you", "can you hear me"},
		Final:      "Can you hear me now?",
		Confidence: 0.91,
	},
	{
		Partials:   []string{"this is a", "this is a dictation"},
		Final:      "This is a dictation test.",
		Confidence: 0.95,
	},
}

var (
	scriptCursor int
	cursorMu     sync.Mutex
)

// Adapter implements stt.Adapter with scripted responses. Each audio
// chunk advances the script by one partial; once the partials are
// exhausted the final and the utterance boundary fire, and the next
// scripted utterance begins.
type Adapter struct {
	cb stt.Callback

	mu             sync.Mutex
	utterance      Utterance
	partialIndex   int
	finalSent      bool
	finalDelivered bool
	closed         bool
	done           chan struct{}
}

// New creates a mock adapter starting at the next scripted utterance.
func New() *Adapter {
	cursorMu.Lock()
	u := Script[scriptCursor%len(Script)]
	scriptCursor++
	cursorMu.Unlock()

	return &Adapter{
		utterance: u,
		done:      make(chan struct{}),
	}
}

// Start records the callback; there is no session to open.
func (a *Adapter) Start(ctx context.Context, cb stt.Callback) error {
	a.cb = cb
	return nil
}

// SendAudio ignores the audio bytes and advances the script.
func (a *Adapter) SendAudio(ctx context.Context, audio []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed || a.cb == nil {
		return nil
	}

	if a.partialIndex < len(a.utterance.Partials) {
		partial := a.utterance.Partials[a.partialIndex]
		a.partialIndex++
		go func() {
			time.Sleep(50 * time.Millisecond)
			a.deliverPartial(partial)
		}()
		return nil
	}

	if !a.finalSent {
		a.finalSent = true
		go func() {
			time.Sleep(100 * time.Millisecond)
			a.deliverFinal(true)
			a.advance()
		}()
	}
	return nil
}

// Listen blocks until Close; scripted results are delivered from
// SendAudio, so there is no stream to drain.
func (a *Adapter) Listen() {
	<-a.done
}

// Close ends the session. If the current utterance's final was not
// delivered yet (stream ended mid-utterance), it is delivered now so
// the session still sees one final, matching how the real service
// flushes remaining results on stream close.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	pendingFinal := !a.finalDelivered && a.cb != nil
	a.finalDelivered = true
	cb := a.cb
	u := a.utterance
	a.mu.Unlock()

	if pendingFinal {
		cb.OnFinal(u.Final, u.Confidence)
	}
	close(a.done)
	return nil
}

func (a *Adapter) deliverPartial(text string) {
	a.mu.Lock()
	closed := a.closed
	cb := a.cb
	a.mu.Unlock()
	if !closed && cb != nil {
		cb.OnPartial(text)
	}
}

// deliverFinal delivers the utterance's final exactly once; Close may
// race with the scheduled delivery, whichever claims the flag wins.
func (a *Adapter) deliverFinal(withBoundary bool) {
	a.mu.Lock()
	if a.closed || a.cb == nil || a.finalDelivered {
		a.mu.Unlock()
		return
	}
	a.finalDelivered = true
	cb := a.cb
	u := a.utterance
	a.mu.Unlock()

	cb.OnFinal(u.Final, u.Confidence)
	if withBoundary {
		cb.OnEndOfUtterance()
	}
}

// advance moves to the next scripted utterance after a boundary.
func (a *Adapter) advance() {
	cursorMu.Lock()
	u := Script[scriptCursor%len(Script)]
	scriptCursor++
	cursorMu.Unlock()

	a.mu.Lock()
	a.utterance = u
	a.partialIndex = 0
	a.finalSent = false
	a.finalDelivered = false
	a.mu.Unlock()
}
