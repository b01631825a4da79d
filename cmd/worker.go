/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/devconnect/apiserver/config"
	"github.com/devconnect/apiserver/internal/mq"
	"github.com/devconnect/apiserver/types"
	"github.com/spf13/cobra"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Starts the activity notification worker",
	Long: `Starts the worker that consumes activity events and emits
notifications. Usage:

	devconnect worker
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		bus, err := newWorkerBus(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			_ = bus.Close()
		}()

		logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
		logger.Info("worker started", "channel", cfg.MQ.Channel)

		// Subscribe blocks until ctx is cancelled.
		err = bus.Subscribe(ctx, func(ctx context.Context, event types.ActivityEvent) error {
			switch event.Type {
			case types.ActivityPostCreated:
				logger.Info("post created", "actor", event.ActorID, "post", event.PostID)
			case types.ActivityPostLiked:
				logger.Info("post liked", "actor", event.ActorID, "post", event.PostID, "owner", event.TargetUserID)
			case types.ActivityPostCommented:
				logger.Info("post commented", "actor", event.ActorID, "post", event.PostID, "owner", event.TargetUserID)
			default:
				logger.Warn("unknown activity event", "type", event.Type)
			}
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("subscribe failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func newWorkerBus(ctx context.Context, cfg config.Config) (*mq.Bus, error) {
	var backend mq.Backend
	switch cfg.MQ.Backend {
	case "rabbitmq":
		client, err := mq.NewRabbitMQClient(cfg.MQ.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("init rabbitmq: %w", err)
		}
		backend = client
	case "pubsub":
		client, err := mq.NewPubSubClient(ctx, cfg.MQ.PubSub)
		if err != nil {
			return nil, fmt.Errorf("init pubsub: %w", err)
		}
		backend = client
	default:
		return nil, fmt.Errorf("MQ_BACKEND must be set to rabbitmq or pubsub")
	}
	return mq.NewBus(backend, cfg.MQ.Channel), nil
}
