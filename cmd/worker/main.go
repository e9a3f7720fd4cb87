package main

import (
	"context"
	"os/signal"
	"syscall"

	"commentd/internal/config"
	"commentd/internal/queue"
	"commentd/internal/worker"
	"commentd/pkg/logger"
	"commentd/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()

	log, err := logger.NewLogger(logger.WithAppName("commentd-worker"))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer log.Close()

	queueClient, err := queue.Dial(cfg.RabbitMQURL, queue.Topology{
		Exchange:   cfg.RabbitMQExchange,
		Queue:      cfg.DeleteQueue,
		RoutingKey: cfg.DeleteRoutingKey,
	}, log)
	if err != nil {
		log.Error(ctx).WithMeta(utils.Map{"error": err.Error()}).Logs("Failed to connect to RabbitMQ")
		panic(err)
	}
	defer queueClient.Close()

	w := worker.NewCleanup(queueClient, log)
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error(ctx).WithMeta(utils.Map{"error": err.Error()}).Logs("Cleanup worker exited")
	}
}
