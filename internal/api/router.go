package routes

import (
	"time"

	"commentd/internal/api/v1"
	"commentd/internal/auth"
	"commentd/internal/comments"
	"commentd/internal/config"
	"commentd/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func NewRoutes(app *fiber.App, cfg *config.Config, svc *comments.Service, log *logger.Logger) {
	app.Use(
		logger.SetupLogger(log),
		recover.New(),
		cors.New(
			cors.Config{
				AllowOrigins: "*",
				AllowHeaders: "Origin, Content-Type, Accept, Authorization",
			},
		),
		compress.New(
			compress.Config{
				Level: compress.LevelBestSpeed,
			},
		),
		limiter.New(
			limiter.Config{
				Expiration: 1 * time.Minute,
				Max:        120,
				KeyGenerator: func(c *fiber.Ctx) string {
					return c.IP()
				},
			},
		),
	)
	app.Use(log.Middleware())

	h := v1.NewCommentsAPI(svc, log)

	api := app.Group("/api/v1")
	api.Get("/comments", h.List)
	api.Post("/comments/preview", h.Preview)

	protected := api.Group("", auth.New(cfg.JWTSecret, log))
	protected.Post("/comments", h.Create)
	protected.Patch("/comments/:id", h.Update)
	protected.Delete("/comments/:id", h.Delete)
}
