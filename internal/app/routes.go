package app

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/BrandonT-ops/chatbot-project/internal/container"
	"github.com/BrandonT-ops/chatbot-project/internal/handlers"
	"github.com/BrandonT-ops/chatbot-project/internal/middleware"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, c *container.Container) {
	// Prometheus metrics endpoint (no auth required for scraping)
	metricsHandler := handlers.NewMetricsHandler()
	app.Get("/metrics", metricsHandler.GetMetrics)

	// Health check
	app.Get("/health", func(ctx *fiber.Ctx) error {
		status := "ok"
		if err := c.HealthCheck(ctx.UserContext()); err != nil {
			status = "degraded"
		}
		return ctx.JSON(fiber.Map{
			"status":    status,
			"timestamp": time.Now(),
			"sessions":  c.Sessions.Count(),
		})
	})

	// Uploaded attachments are served straight from disk
	app.Static("/uploads", c.Config.UploadDir)

	api := app.Group("/api", middleware.PrometheusMiddleware())

	setupChatRoutes(api, c)
	setupConversationRoutes(api, c)
	setupSearchRoutes(api, c)
	setupAuthRoutes(api, c)
	setupUploadRoutes(api, c)
	setupWebSocketRoutes(app, c)
}

func setupChatRoutes(api fiber.Router, c *container.Container) {
	chatHandler := handlers.NewChatHandler(c)

	api.Post("/chat", chatHandler.HandleChat)
	api.Post("/decide", chatHandler.HandleDecide)
	api.Post("/completion", chatHandler.HandleCompletion)
	api.Get("/view", chatHandler.HandleView)
}

func setupConversationRoutes(api fiber.Router, c *container.Container) {
	conversationHandler := handlers.NewConversationHandler(c)

	conversations := api.Group("/conversations")
	conversations.Get("/", conversationHandler.HandleList)
	conversations.Post("/", conversationHandler.HandleCreate)
	conversations.Post("/reset", conversationHandler.HandleReset)
	conversations.Post("/:id/select", conversationHandler.HandleSelect)
	conversations.Get("/:id/messages", conversationHandler.HandleMessages)
	conversations.Post("/:id/messages", conversationHandler.HandleAppend)
}

func setupSearchRoutes(api fiber.Router, c *container.Container) {
	searchHandler := handlers.NewSearchHandler(c)
	proxyHandler := handlers.NewImageProxyHandler()

	api.Get("/search", searchHandler.HandleSearch)
	api.Post("/product/click", searchHandler.HandleRegisterClick)
	api.Get("/proxy/image-proxy", proxyHandler.HandleImageProxy)
}

func setupAuthRoutes(api fiber.Router, c *container.Container) {
	authHandler := handlers.NewAuthHandler(c)

	auth := api.Group("/auth")
	auth.Post("/google", authHandler.HandleGoogleLogin)
	auth.Post("/logout", authHandler.HandleLogout)
	auth.Get("/me", authHandler.HandleMe)
}

func setupUploadRoutes(api fiber.Router, c *container.Container) {
	uploadHandler := handlers.NewUploadHandler(c)
	api.Post("/upload", uploadHandler.HandleUpload)
}

func setupWebSocketRoutes(app *fiber.App, c *container.Container) {
	wsHandler := handlers.NewWSHandler(c)

	app.Use("/ws", func(ctx *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(ctx) {
			ctx.Locals("allowed", true)
			return ctx.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		wsHandler.HandleWebSocket(conn)
	}, websocket.Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}))
}
