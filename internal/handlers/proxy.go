package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/BrandonT-ops/chatbot-project/internal/models"
	"github.com/BrandonT-ops/chatbot-project/internal/utils"
)

// ImageProxyHandler fetches remote product images server side so the chat
// surface never embeds third-party origins directly.
type ImageProxyHandler struct {
	client *http.Client
}

func NewImageProxyHandler() *ImageProxyHandler {
	return &ImageProxyHandler{
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// HandleImageProxy streams the upstream image back with a long-lived cache
// header. Product images are immutable by URL.
func (h *ImageProxyHandler) HandleImageProxy(c *fiber.Ctx) error {
	rawURL := c.Query("url")
	if rawURL == "" || !(strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://")) {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "validation_error",
			Message: "A valid http(s) url is required",
		})
	}

	req, err := http.NewRequestWithContext(c.UserContext(), http.MethodGet, rawURL, nil)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to build image request",
		})
	}

	resp, err := h.client.Do(req)
	if err != nil {
		utils.LogWarn(c.UserContext(), "image proxy fetch failed", slog.String("url", rawURL), slog.Any("error", err))
		return c.Status(fiber.StatusBadGateway).JSON(models.ErrorResponse{
			Error:   "fetch_error",
			Message: "Failed to fetch image",
		})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.Status(fiber.StatusBadGateway).JSON(models.ErrorResponse{
			Error:   "fetch_error",
			Message: "Upstream returned an error",
		})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(models.ErrorResponse{
			Error:   "fetch_error",
			Message: "Failed to read image body",
		})
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		c.Set(fiber.HeaderContentType, ct)
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400, immutable")
	return c.Send(body)
}
