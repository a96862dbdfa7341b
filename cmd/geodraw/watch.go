package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	natsadapter "github.com/samirrijal/geodraw/internal/adapters/nats"
	"github.com/samirrijal/geodraw/internal/core/domain"
)

var (
	watchNATSURL string
	watchDurable string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print geometry saved events as they are published",
	Long:  "Subscribe to the GEOMETRY_EVENTS JetStream stream and print one JSON line per saved geometry until interrupted.",
	Args:  cobra.NoArgs,
	Run:   runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchNATSURL, "nats-url", "nats://localhost:4222", "NATS server URL")
	watchCmd.Flags().StringVar(&watchDurable, "durable", "", "Durable consumer name; empty delivers new events only")
}

func runWatch(cmd *cobra.Command, args []string) {
	sub, err := natsadapter.NewSubscriber(watchNATSURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to NATS: %v\n", err)
		os.Exit(1)
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(os.Stdout)
	err = sub.SubscribeGeometrySaved(ctx, watchDurable, func(ctx context.Context, e *domain.GeometrySavedEvent) error {
		return enc.Encode(e)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error subscribing: %v\n", err)
		os.Exit(1)
	}

	slog.Info("watching geometry events", "url", watchNATSURL, "durable", watchDurable)
	<-ctx.Done()
}
