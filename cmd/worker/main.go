package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/superdoll/tracker-api/internal/config"
	"github.com/superdoll/tracker-api/internal/logger"
	"github.com/superdoll/tracker-api/internal/notification"
	"github.com/superdoll/tracker-api/internal/queue"
	"go.uber.org/zap"
)

// The worker drains the outbound SMS queue filled by the API when
// sms.provider is "queue".
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	conn, err := queue.NewConnection(cfg.RabbitMQ.URL, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Warn("Error closing RabbitMQ connection", zap.Error(err))
		}
	}()

	// The worker must deliver for real, so "queue" falls back to the direct sender
	sender := notification.NewDirectSender(&cfg.SMS, log)
	consumer, err := queue.NewConsumer(conn, cfg.RabbitMQ.SMSQueue, notification.DeliveryHandler(sender, logger.WithComponent(log, "sms")), log)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}
	if err := consumer.Start(ctx); err != nil {
		return err
	}

	log.Info("SMS worker running", zap.String("queue", cfg.RabbitMQ.SMSQueue))
	if err := consumer.Wait(); err != nil {
		return fmt.Errorf("SMS worker stopped unexpectedly: %w", err)
	}
	log.Info("SMS worker stopped")
	return nil
}
