package main

import (
	"context"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"time"

	"github.com/cyberinferno/regionpush/display"
	"github.com/cyberinferno/regionpush/logger"
	"github.com/cyberinferno/regionpush/pushclient"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	sendAddr    string
	sendPrev    string
	sendTimeout time.Duration
	sendVerbose bool
)

var sendCmd = &cobra.Command{
	Use:   "send <image.png>",
	Short: "Push an image to a device",
	Long: `send scales a PNG to the display size and pushes it as region batches.
With --prev, only the tiles that differ from the previous image are sent.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level := zerolog.InfoLevel
		if sendVerbose {
			level = zerolog.DebugLevel
		}
		log := logger.NewConsoleLogger(os.Stderr, serviceName, level)

		client := pushclient.NewClient(sendAddr, log)
		client.AckTimeout = sendTimeout
		w, h := client.Limits.DisplayWidth, client.Limits.DisplayHeight

		next, err := loadFrame(args[0], w, h)
		if err != nil {
			return err
		}
		var prev []uint16
		if sendPrev != "" {
			if prev, err = loadFrame(sendPrev, w, h); err != nil {
				return err
			}
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*sendTimeout)
		defer cancel()

		n, err := client.PushFrame(ctx, prev, next)
		if err != nil {
			return fmt.Errorf("send: %d regions acknowledged before failure: %w", n, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "sent %d regions\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&sendAddr, "addr", "a", "127.0.0.1:80", "Device address")
	sendCmd.Flags().StringVar(&sendPrev, "prev", "", "Previously sent image; only changed tiles are pushed")
	sendCmd.Flags().DurationVar(&sendTimeout, "timeout", 5*time.Second, "Per-batch acknowledgment timeout")
	sendCmd.Flags().BoolVarP(&sendVerbose, "verbose", "v", false, "Log every batch")
}

func loadFrame(path string, width, height int) ([]uint16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("send: open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("send: decode %s: %w", path, err)
	}
	return display.FromImage(img, width, height), nil
}
