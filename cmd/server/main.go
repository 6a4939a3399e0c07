package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/BrandonT-ops/chatbot-project/internal/app"
	"github.com/BrandonT-ops/chatbot-project/internal/config"
	"github.com/BrandonT-ops/chatbot-project/internal/container"
	"github.com/BrandonT-ops/chatbot-project/internal/models"
	"github.com/BrandonT-ops/chatbot-project/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	utils.InitLogger(cfg.LogLevel)
	ctx := context.Background()

	c, err := container.NewContainer(cfg)
	if err != nil {
		utils.LogError(ctx, "failed to initialize container", err)
		os.Exit(1)
	}
	defer c.Close()

	if err := c.HealthCheck(ctx); err != nil {
		utils.LogWarn(ctx, "health check failed at startup", slog.Any("error", err))
	}

	fiberApp := fiber.New(fiber.Config{
		AppName:      "maguida-chat",
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
		BodyLimit:    int(cfg.MaxUploadSize) * 2,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return ctx.Status(code).JSON(models.ErrorResponse{
				Error:   "internal_error",
				Message: err.Error(),
			})
		},
	})

	fiberApp.Use(recover.New())
	fiberApp.Use(cors.New())

	app.SetupRoutes(fiberApp, c)

	go func() {
		utils.LogInfo(ctx, "server starting", slog.Int("port", cfg.Port))
		if err := fiberApp.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			utils.LogError(ctx, "server stopped", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.LogInfo(ctx, "shutting down")
	if err := fiberApp.ShutdownWithTimeout(10 * time.Second); err != nil {
		utils.LogError(ctx, "shutdown failed", err)
	}
}
