package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"transcribe-cli/internal/batch"
)

var batchBucket string

var batchCmd = &cobra.Command{
	Use:   "batch <audio-file>",
	Short: "Transcribe a recorded audio file via a batch job",
	Long: `Uploads the audio file to S3, starts a transcription job, polls until
it completes, and prints the transcript with its mean word confidence.
Supported formats: wav, mp3, mp4, m4a, flac, ogg, amr, webm.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd.Context(), args[0])
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchBucket, "bucket", "", "S3 bucket for the upload (defaults to BATCH_S3_BUCKET)")
}

func runBatch(ctx context.Context, path string) error {
	bucket := batchBucket
	if bucket == "" {
		bucket = cfg.Batch.S3Bucket
	}

	client, err := batch.New(ctx, batch.Config{
		Region:       cfg.Transcribe.Region,
		LanguageCode: cfg.Transcribe.LanguageCode,
		S3Bucket:     bucket,
		S3Prefix:     cfg.Batch.S3Prefix,
		PollInterval: cfg.Batch.PollInterval,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Transcribing %s (job polling every %s)...\n", path, cfg.Batch.PollInterval)

	result, err := client.Transcribe(ctx, path)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Transcript:")
	fmt.Println(result.Text)
	fmt.Printf("\nConfidence: %.2f  Job: %s  Took: %s\n",
		result.Confidence, result.JobName, result.Duration.Round(100*time.Millisecond))
	return nil
}
