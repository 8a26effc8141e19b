package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "regionpush",
	Short: "Remote framebuffer region push",
	Long: `regionpush receives batches of rectangular RGB565 region updates over TCP
and paints them onto a 240x240 display, or sends such batches to a device.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "regionpush: %v\n", err)
		os.Exit(1)
	}
}
