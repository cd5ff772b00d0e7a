package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"

	"github.com/safar/order-management/internal/config"
	"github.com/safar/order-management/internal/consumer"
	"github.com/safar/order-management/internal/events"
	"github.com/safar/order-management/internal/messaging"
	"github.com/safar/order-management/internal/notification"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	broker, err := messaging.Connect(cfg.Broker.URL, logger)
	if err != nil {
		logger.Fatal("connect to broker", zap.Error(err))
	}
	defer broker.Close()

	sender := newSender(cfg, logger)

	workers := []*consumer.Worker{
		consumer.NewWorker(events.OrderCreatedQueue, consumer.OrderCreatedHandler(sender),
			broker, logger, cfg.Consumer.MaxAttempts, cfg.Consumer.InitialBackoff),
		consumer.NewWorker(events.OrderCancelledQueue, consumer.OrderCancelledHandler(sender),
			broker, logger, cfg.Consumer.MaxAttempts, cfg.Consumer.InitialBackoff),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("consumer starting")

	var wg sync.WaitGroup
	for _, worker := range workers {
		worker := worker
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := worker.Run(ctx); err != nil {
				logger.Error("worker stopped with error", zap.Error(err))
				stop()
			}
		}()
	}

	wg.Wait()
	logger.Info("consumer stopped")
}

func newSender(cfg *config.Config, logger *zap.Logger) notification.Sender {
	if cfg.Email.Mode == "smtp" {
		return &notification.SMTPSender{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			From:     cfg.Email.From,
			FromName: cfg.Email.FromName,
		}
	}
	return notification.NewLogSender(logger)
}
