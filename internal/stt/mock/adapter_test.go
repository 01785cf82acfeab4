package mock

import (
	"context"
	"sync"
	"testing"
	"time"
)

// recorder implements stt.Callback for tests.
type recorder struct {
	mu         sync.Mutex
	partials   []string
	finals     []finalResult
	errors     []error
	utterances int
}

type finalResult struct {
	text       string
	confidence float64
}

func (r *recorder) OnPartial(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.partials = append(r.partials, text)
}

func (r *recorder) OnFinal(text string, confidence float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finals = append(r.finals, finalResult{text, confidence})
}

func (r *recorder) OnEndOfUtterance() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.utterances++
}

func (r *recorder) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
}

func (r *recorder) getPartials() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.partials...)
}

func (r *recorder) getFinals() []finalResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]finalResult{}, r.finals...)
}

func (r *recorder) getUtterances() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.utterances
}

func TestAdapter_SendAudio_TriggersPartials(t *testing.T) {
	a := New()
	rec := &recorder{}
	a.Start(context.Background(), rec)

	for i := 0; i < 3; i++ {
		if err := a.SendAudio(context.Background(), []byte("pcm")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	time.Sleep(200 * time.Millisecond)

	if len(rec.getPartials()) == 0 {
		t.Error("expected partials to be delivered")
	}
}

func TestAdapter_ExhaustedPartials_TriggerFinalAndBoundary(t *testing.T) {
	a := New()
	rec := &recorder{}
	a.Start(context.Background(), rec)

	// One chunk per scripted partial, plus one to trigger the final.
	n := len(a.utterance.Partials) + 1
	for i := 0; i < n; i++ {
		if err := a.SendAudio(context.Background(), []byte("pcm")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		time.Sleep(60 * time.Millisecond)
	}

	time.Sleep(300 * time.Millisecond)

	finals := rec.getFinals()
	if len(finals) != 1 {
		t.Fatalf("expected 1 final, got %d", len(finals))
	}
	if finals[0].confidence <= 0 || finals[0].confidence > 1 {
		t.Errorf("final confidence out of range: %v", finals[0].confidence)
	}
	if rec.getUtterances() != 1 {
		t.Errorf("expected 1 utterance boundary, got %d", rec.getUtterances())
	}
}

func TestAdapter_Close_FlushesPendingFinal(t *testing.T) {
	a := New()
	rec := &recorder{}
	a.Start(context.Background(), rec)

	// Close mid-utterance: the scripted final should still arrive.
	a.Close()

	if len(rec.getFinals()) != 1 {
		t.Errorf("expected 1 final flushed on close, got %d", len(rec.getFinals()))
	}
}

func TestAdapter_Close_Idempotent(t *testing.T) {
	a := New()
	a.Start(context.Background(), &recorder{})

	a.Close()
	if err := a.Close(); err != nil {
		t.Fatalf("unexpected error on second close: %v", err)
	}
}

func TestAdapter_SendAudio_AfterClose(t *testing.T) {
	a := New()
	a.Start(context.Background(), &recorder{})
	a.Close()

	if err := a.SendAudio(context.Background(), []byte("pcm")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAdapter_Listen_ReturnsOnClose(t *testing.T) {
	a := New()
	a.Start(context.Background(), &recorder{})

	done := make(chan struct{})
	go func() {
		a.Listen()
		close(done)
	}()

	a.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Listen did not return after Close")
	}
}

func TestAdapter_NoCallbackSet(t *testing.T) {
	a := New()

	if err := a.SendAudio(context.Background(), []byte("pcm")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScript(t *testing.T) {
	if len(Script) == 0 {
		t.Fatal("script must not be empty")
	}
	for i, u := range Script {
		if len(u.Partials) == 0 {
			t.Errorf("utterance %d has no partials", i)
		}
		if u.Final == "" {
			t.Errorf("utterance %d has empty final", i)
		}
		if u.Confidence <= 0 || u.Confidence > 1 {
			t.Errorf("utterance %d has invalid confidence %f", i, u.Confidence)
		}
	}
}

func TestAdapter_ThreadSafety(t *testing.T) {
	a := New()
	a.Start(context.Background(), &recorder{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				a.SendAudio(context.Background(), []byte("pcm"))
				time.Sleep(5 * time.Millisecond)
			}
		}()
	}

	wg.Wait()
	a.Close()
}
