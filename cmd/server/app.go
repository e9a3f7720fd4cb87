package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"commentd/internal/api"
	"commentd/internal/cache"
	"commentd/internal/comments"
	"commentd/internal/config"
	"commentd/internal/db"
	"commentd/internal/models"
	"commentd/internal/queue"
	"commentd/pkg/logger"
	"commentd/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

func main() {
	ctx := context.Background()

	cfg := config.LoadConfig()

	log, err := logger.NewLogger(logger.WithAppName("commentd"))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer log.Close()

	redisClient, err := db.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPass)
	if err != nil {
		log.Error(ctx).WithMeta(utils.Map{"error": err.Error()}).Logs("Failed to initialize Redis")
		panic(err)
	}
	defer redisClient.Close(log)

	gormDB, err := db.NewDB(ctx, cfg.DatabaseURL, models.RegisterModels(), db.WithLogger(log))
	if err != nil {
		log.Error(ctx).WithMeta(utils.Map{"error": err.Error()}).Logs("Failed to initialize PostgreSQL database")
		panic(err)
	}
	defer db.CloseDB(gormDB, log)

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

	svc := comments.NewService(
		comments.NewGormRepository(gormDB),
		cache.NewListingCache(redisClient, cfg.CacheTTL),
		queueClient,
		log,
		comments.Config{
			DefaultLimit:   cfg.DefaultLimit,
			MaxAttachments: cfg.MaxAttachments,
		},
	)

	app := fiber.New()
	routes.NewRoutes(app, cfg, svc, log)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info(ctx).Logs("Shutting down server")
		app.Shutdown()
	}()

	if err := app.Listen(cfg.ServerAddr); err != nil {
		log.Error(ctx).WithMeta(utils.Map{"error": err.Error()}).Logs("Server stopped")
	}
}
