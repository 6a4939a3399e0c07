package handlers

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/BrandonT-ops/chatbot-project/internal/container"
	"github.com/BrandonT-ops/chatbot-project/internal/models"
	"github.com/BrandonT-ops/chatbot-project/internal/utils"
)

// SearchHandler exposes the product search and click tracking endpoints.
type SearchHandler struct {
	container *container.Container
}

func NewSearchHandler(c *container.Container) *SearchHandler {
	return &SearchHandler{
		container: c,
	}
}

// HandleSearch runs a direct product search, bypassing the assistant.
func (h *SearchHandler) HandleSearch(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "validation_error",
			Message: "Query is required",
		})
	}

	products, err := h.container.ShopService.SearchWithCache(c.UserContext(), query, h.container.CacheService)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(models.ErrorResponse{
			Error:   "search_failed",
			Message: "Product search failed",
		})
	}

	result := &models.SearchResult{Query: query, Results: products}
	if id := sessionID(c); id != "" {
		st := h.container.Sessions.GetOrCreate(c.UserContext(), id)
		st.SetSearchResults(result)
		h.container.Sessions.Save(c.UserContext(), st)
	}
	recordSearch(len(products))
	return c.JSON(result)
}

// HandleRegisterClick relays a product click to the shop backend. Failures
// are swallowed after logging; click tracking never breaks navigation.
func (h *SearchHandler) HandleRegisterClick(c *fiber.Ctx) error {
	var req models.RegisterClickRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body",
		})
	}
	if req.ProductURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "validation_error",
			Message: "Product url is required",
		})
	}

	token := ""
	if id := sessionID(c); id != "" {
		st := h.container.Sessions.GetOrCreate(c.UserContext(), id)
		if t := st.UserToken(); t != nil {
			token = t.Key
		}
	}

	if err := h.container.ShopService.RegisterClick(c.UserContext(), req.ProductURL, token); err != nil {
		utils.LogWarn(c.UserContext(), "register click failed", slog.String("product_url", req.ProductURL), slog.Any("error", err))
	}
	return c.SendStatus(fiber.StatusAccepted)
}
