// transcribe-cli captures microphone audio and transcribes it through
// AWS Transcribe, either as a live stream or as an asynchronous batch
// job over a recorded file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"transcribe-cli/internal/config"
	"transcribe-cli/internal/observability/logging"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "transcribe-cli",
	Short: "Live and batch speech transcription from the terminal",
	Long: `transcribe-cli streams microphone (or WAV file) audio to AWS
Transcribe and prints finalized transcript lines as they arrive. It can
also upload a recording and run it through a batch transcription job.

Run without arguments for the interactive menu.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMenu(cmd.Context())
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.AddCommand(streamCmd, batchCmd, devicesCmd, miccheckCmd, whoamiCmd)
}

// initConfig loads .env (if present), then the environment, then sets
// up logging. Runs once before any command.
func initConfig() {
	_ = godotenv.Load()
	cfg = config.Load()
	logging.Init(logging.Config{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
