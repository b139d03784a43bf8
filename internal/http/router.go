package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nocliffcapital/otcx-sub001/internal/http/handlers"
	"github.com/nocliffcapital/otcx-sub001/internal/middleware"
)

func SetupRouter(
	app *fiber.App,
	log *zap.Logger,
	rdb *redis.Client,
	marketHandler *handlers.MarketHandler,
	proofHandler *handlers.ProofHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(rdb, 100, time.Minute))

	api.Get("/status", marketHandler.GetStatus)

	// Projects
	api.Get("/projects", marketHandler.ListProjects)
	api.Get("/projects/:slug", marketHandler.GetProject)
	api.Get("/projects/:slug/stats", marketHandler.GetProjectStats)

	// Orders
	api.Get("/orders", marketHandler.ListOrders)
	api.Get("/orders/:id", marketHandler.GetOrder)
	api.Get("/orders/:id/settlement", marketHandler.GetSettlement)

	// Proof submission triggers outbound fetches, so it gets a much tighter
	// limit than the read endpoints.
	api.Post("/orders/:id/proof",
		middleware.RateLimitMiddleware(rdb, 10, time.Minute),
		proofHandler.SubmitProof,
	)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
