package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"transcribe-cli/internal/audio/capture"
	"transcribe-cli/internal/audio/wavfile"
	"transcribe-cli/internal/events"
	"transcribe-cli/internal/observability"
	"transcribe-cli/internal/observability/logging"
	"transcribe-cli/internal/session"
	"transcribe-cli/internal/stt"
	"transcribe-cli/internal/stt/mock"
	awsstt "transcribe-cli/internal/stt/transcribe"
	"transcribe-cli/internal/transcript"
)

var (
	streamInput    string
	streamDevice   string
	streamOut      string
	streamPartials bool
	streamStatus   bool
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Stream microphone or WAV audio and print finals as they arrive",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStream(cmd.Context())
	},
}

func init() {
	streamCmd.Flags().StringVarP(&streamInput, "input", "i", "", "WAV file to stream instead of the microphone")
	streamCmd.Flags().StringVar(&streamDevice, "device", "", "capture device name (substring match)")
	streamCmd.Flags().StringVarP(&streamOut, "out", "o", "", "save the transcript to this file when the session ends")
	streamCmd.Flags().BoolVar(&streamPartials, "partials", false, "also print interim (partial) results")
	streamCmd.Flags().BoolVar(&streamStatus, "status", false, "serve /metrics and the live transcript view while streaming")
}

// newStreamAdapter picks the STT backend from configuration. The mock
// provider runs the whole pipeline without cloud credentials.
func newStreamAdapter(ctx context.Context, sampleRateHz int) (stt.Adapter, error) {
	if cfg.Transcribe.Provider == "mock" {
		return mock.New(), nil
	}
	return awsstt.New(ctx, awsstt.Config{
		Region:        cfg.Transcribe.Region,
		LanguageCode:  cfg.Transcribe.LanguageCode,
		SampleRateHz:  int32(sampleRateHz),
		MediaEncoding: cfg.Transcribe.MediaEncoding,
	})
}

func runStream(ctx context.Context) error {
	sessionID := uuid.NewString()
	builder := transcript.NewBuilder()

	publisher := events.New(&events.Config{
		Enabled:      cfg.Kafka.Enabled,
		Brokers:      cfg.Kafka.Brokers,
		TopicPartial: cfg.Kafka.TopicPartial,
		TopicFinal:   cfg.Kafka.TopicFinal,
		Principal:    cfg.Kafka.Principal,
	})
	defer publisher.Close()

	handlerCfg := session.HandlerConfig{
		SessionID:    sessionID,
		Provider:     cfg.Transcribe.Provider,
		Limits:       cfg.Limits,
		ShowPartials: streamPartials || cfg.Transcribe.ShowPartials,
		Out:          os.Stdout,
		Builder:      builder,
		Publisher:    publisher,
	}

	if streamStatus || cfg.Observability.Status {
		srv := observability.NewServer(cfg.Observability.StatusAddr, builder)
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		handlerCfg.Live = srv.Hub()
	}

	sc := session.Config{
		Handler:      handlerCfg,
		SampleRateHz: cfg.Audio.SampleRateHz,
		Channels:     cfg.Audio.Channels,
	}

	var chunks <-chan []byte
	if streamInput != "" {
		src, err := wavfile.Open(streamInput, cfg.Audio.ChunkFrames)
		if err != nil {
			return err
		}
		defer src.Close()

		info := src.Info()
		sc.SampleRateHz = info.SampleRateHz
		sc.Channels = info.Channels
		chunks = src.Chunks()

		go func() {
			if err := src.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger := logging.WithComponent("wavfile")
				logger.Error().Err(err).Msg("WAV source failed")
			}
		}()
		fmt.Printf("Streaming %s (%d Hz, %d ch)...\n\n", streamInput, info.SampleRateHz, info.Channels)
	} else {
		device := streamDevice
		if device == "" {
			device = cfg.Audio.DeviceName
		}
		stream, err := capture.NewStream(capture.Config{
			SampleRateHz: cfg.Audio.SampleRateHz,
			Channels:     cfg.Audio.Channels,
			ChunkFrames:  cfg.Audio.ChunkFrames,
			DeviceName:   device,
		})
		if err != nil {
			return err
		}
		defer stream.Close()

		if err := stream.Start(); err != nil {
			return err
		}
		chunks = stream.Chunks()
		fmt.Println("Listening... press Ctrl+C to stop.")
		fmt.Println()
	}

	adapter, err := newStreamAdapter(ctx, sc.SampleRateHz)
	if err != nil {
		return err
	}

	if err := session.Run(ctx, adapter, chunks, sc); err != nil {
		return err
	}

	if builder.Len() > 0 {
		fmt.Println()
		fmt.Println("Full transcript:")
		fmt.Println(builder.Text())
	}
	if streamOut != "" {
		if err := builder.Save(streamOut); err != nil {
			return fmt.Errorf("save transcript: %w", err)
		}
		fmt.Printf("Transcript saved to %s\n", streamOut)
	}
	return nil
}
