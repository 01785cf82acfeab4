// Package transcribe provides the AWS Transcribe streaming adapter.
package transcribe

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/transcribestreaming"
	"github.com/aws/aws-sdk-go-v2/service/transcribestreaming/types"

	"transcribe-cli/internal/observability/logging"
	"transcribe-cli/internal/stt"
)

// Config describes a streaming recognition session.
type Config struct {
	Region        string
	LanguageCode  string
	SampleRateHz  int32
	MediaEncoding string
}

// DefaultConfig returns the session settings the original demos used:
// US English, 16kHz signed 16-bit PCM.
func DefaultConfig() Config {
	return Config{
		Region:        "us-east-1",
		LanguageCode:  "en-US",
		SampleRateHz:  16000,
		MediaEncoding: "pcm",
	}
}

// Adapter implements stt.Adapter on the AWS Transcribe streaming API.
// The duplex event stream (audio up, transcripts down) lives entirely
// inside the SDK; the adapter only sequences Send/Recv.
type Adapter struct {
	client *transcribestreaming.Client
	stream *transcribestreaming.StartStreamTranscriptionEventStream
	cb     stt.Callback
	cfg    Config
}

// New creates an adapter using the default AWS credential chain
// (environment, shared config, instance role).
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Adapter{
		client: transcribestreaming.NewFromConfig(awsCfg),
		cfg:    cfg,
	}, nil
}

// Start opens the streaming transcription session.
func (a *Adapter) Start(ctx context.Context, cb stt.Callback) error {
	resp, err := a.client.StartStreamTranscription(ctx, &transcribestreaming.StartStreamTranscriptionInput{
		LanguageCode:         types.LanguageCode(a.cfg.LanguageCode),
		MediaEncoding:        parseMediaEncoding(a.cfg.MediaEncoding),
		MediaSampleRateHertz: aws.Int32(a.cfg.SampleRateHz),
	})
	if err != nil {
		return fmt.Errorf("start stream transcription: %w", err)
	}

	a.stream = resp.GetStream()
	a.cb = cb

	logger := logging.WithComponent("stt.aws")
	logger.Debug().
		Str("language", a.cfg.LanguageCode).
		Int32("sampleRateHz", a.cfg.SampleRateHz).
		Msg("Streaming transcription started")
	return nil
}

// SendAudio forwards one PCM chunk as an AudioEvent.
func (a *Adapter) SendAudio(ctx context.Context, audio []byte) error {
	return a.stream.Send(ctx, &types.AudioStreamMemberAudioEvent{
		Value: types.AudioEvent{AudioChunk: audio},
	})
}

// Listen reads transcript events until the result stream ends and
// dispatches them to the callback. Each non-partial result closes an
// utterance, matching the service's segmentation.
func (a *Adapter) Listen() {
	for event := range a.stream.Events() {
		te, ok := event.(*types.TranscriptResultStreamMemberTranscriptEvent)
		if !ok || te.Value.Transcript == nil {
			continue
		}
		for _, result := range te.Value.Transcript.Results {
			if len(result.Alternatives) == 0 {
				continue
			}
			alt := result.Alternatives[0]
			text := aws.ToString(alt.Transcript)
			if text == "" {
				continue
			}
			if result.IsPartial {
				a.cb.OnPartial(text)
				continue
			}
			a.cb.OnFinal(text, alternativeConfidence(alt))
			a.cb.OnEndOfUtterance()
		}
	}
	if err := a.stream.Err(); err != nil {
		a.cb.OnError(err)
	}
}

// Close ends the audio stream; the service then flushes remaining
// results and closes the result stream, which unblocks Listen.
func (a *Adapter) Close() error {
	if a.stream != nil {
		return a.stream.Close()
	}
	return nil
}

// alternativeConfidence averages per-word confidence over the spoken
// items of an alternative. The streaming API reports no transcript-level
// confidence, so this stands in for it; 0 when no item carries one.
func alternativeConfidence(alt types.Alternative) float64 {
	var sum float64
	var n int
	for _, item := range alt.Items {
		if item.Type != types.ItemTypePronunciation || item.Confidence == nil {
			continue
		}
		sum += *item.Confidence
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// parseMediaEncoding maps the configured encoding name to the SDK enum,
// falling back to PCM for anything unrecognized.
func parseMediaEncoding(s string) types.MediaEncoding {
	switch s {
	case "pcm":
		return types.MediaEncodingPcm
	case "ogg-opus":
		return types.MediaEncodingOggOpus
	case "flac":
		return types.MediaEncodingFlac
	default:
		return types.MediaEncodingPcm
	}
}
