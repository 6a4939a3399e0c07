package container

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/BrandonT-ops/chatbot-project/internal/config"
	"github.com/BrandonT-ops/chatbot-project/internal/services"
	"github.com/BrandonT-ops/chatbot-project/internal/store"
	"github.com/BrandonT-ops/chatbot-project/internal/utils"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config

	RedisClient *redis.Client

	CacheService     *services.CacheService
	AssistantService *services.AssistantService
	ShopService      *services.ShopService
	ChatbotService   *services.ChatbotService
	GoogleService    *services.GoogleAuthService

	Sessions *store.Manager
}

// NewContainer wires all services from configuration
func NewContainer(cfg *config.Config) (*Container, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	cacheService := services.NewCacheService(redisClient)

	keyRotator, err := utils.NewKeyRotator(cfg.OpenAIKeys, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create key rotator: %w", err)
	}

	assistantService, err := services.NewAssistantService(keyRotator, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create assistant service: %w", err)
	}

	shopService := services.NewShopService(cfg)
	chatbotService := services.NewChatbotService(cfg)
	googleService := services.NewGoogleAuthService(cfg)

	sessions := store.NewManager(chatbotService, cacheService, cfg.SessionTTL)

	return &Container{
		Config:           cfg,
		RedisClient:      redisClient,
		CacheService:     cacheService,
		AssistantService: assistantService,
		ShopService:      shopService,
		ChatbotService:   chatbotService,
		GoogleService:    googleService,
		Sessions:         sessions,
	}, nil
}

// HealthCheck verifies connectivity to the backing services
func (c *Container) HealthCheck(ctx context.Context) error {
	if err := c.CacheService.Ping(ctx); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Close releases held connections
func (c *Container) Close() error {
	if c.RedisClient != nil {
		return c.RedisClient.Close()
	}
	return nil
}
