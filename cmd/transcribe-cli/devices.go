package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"transcribe-cli/internal/audio/capture"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available audio capture devices",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runDevices()
	},
}

func runDevices() error {
	devices, err := capture.Devices()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("No capture devices found.")
		return nil
	}

	fmt.Println("Capture devices:")
	for i, d := range devices {
		marker := " "
		if d.IsDefault {
			marker = "*"
		}
		fmt.Printf("%s [%d] %s\n", marker, i, d.Name)
	}
	fmt.Println("\n* default device")
	return nil
}
