package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
)

// runMenu drives the interactive session: pick an action, run it,
// return to the menu until the user quits or interrupts.
func runMenu(ctx context.Context) error {
	for {
		var choice string
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("transcribe-cli").
					Options(
						huh.NewOption("Stream from microphone", "stream"),
						huh.NewOption("Transcribe an audio file (batch)", "batch"),
						huh.NewOption("List capture devices", "devices"),
						huh.NewOption("Microphone check", "miccheck"),
						huh.NewOption("Check credentials", "whoami"),
						huh.NewOption("Quit", "quit"),
					).
					Value(&choice),
			),
		)
		if err := form.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}

		var err error
		switch choice {
		case "stream":
			err = runStream(ctx)
		case "batch":
			err = runBatchPrompt(ctx)
		case "devices":
			err = runDevices()
		case "miccheck":
			err = runMiccheck(ctx)
		case "whoami":
			err = runWhoami(ctx)
		case "quit":
			return nil
		}

		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		fmt.Println()
	}
}

// runBatchPrompt asks for the audio file, then runs the batch flow.
func runBatchPrompt(ctx context.Context) error {
	var path string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Audio file to transcribe").
				Placeholder("recording.wav").
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("a file path is required")
					}
					if _, err := os.Stat(s); err != nil {
						return fmt.Errorf("cannot read %s", s)
					}
					return nil
				}).
				Value(&path),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return err
	}
	return runBatch(ctx, path)
}
