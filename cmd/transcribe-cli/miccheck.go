package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"transcribe-cli/internal/audio/capture"
)

var miccheckDuration time.Duration

var miccheckCmd = &cobra.Command{
	Use:   "miccheck",
	Short: "Record briefly and report the input signal level",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMiccheck(cmd.Context())
	},
}

func init() {
	miccheckCmd.Flags().DurationVar(&miccheckDuration, "duration", 3*time.Second, "how long to record")
}

func runMiccheck(ctx context.Context) error {
	device := cfg.Audio.DeviceName
	fmt.Printf("Recording for %s... say something.\n", miccheckDuration)

	levels, err := capture.LevelCheck(ctx, capture.Config{
		SampleRateHz: cfg.Audio.SampleRateHz,
		Channels:     cfg.Audio.Channels,
		ChunkFrames:  cfg.Audio.ChunkFrames,
		DeviceName:   device,
	}, miccheckDuration)
	if err != nil {
		return err
	}

	fmt.Printf("Peak: %.3f  RMS: %.3f\n", levels.Peak, levels.RMS)
	if levels.Silent() {
		fmt.Println("No signal detected. Check that the microphone is connected and not muted.")
	} else {
		fmt.Println("Microphone OK.")
	}
	return nil
}
