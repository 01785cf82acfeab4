package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"transcribe-cli/internal/identity"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Verify cloud credentials and print the caller identity",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runWhoami(cmd.Context())
	},
}

func runWhoami(ctx context.Context) error {
	id, err := identity.Whoami(ctx, cfg.Transcribe.Region)
	if err != nil {
		return fmt.Errorf("credentials check failed: %w", err)
	}

	fmt.Println("Credentials OK.")
	fmt.Printf("Account: %s\n", id.Account)
	fmt.Printf("ARN:     %s\n", id.ARN)
	fmt.Printf("UserId:  %s\n", id.UserID)
	return nil
}
