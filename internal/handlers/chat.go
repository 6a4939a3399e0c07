package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/BrandonT-ops/chatbot-project/internal/container"
	"github.com/BrandonT-ops/chatbot-project/internal/models"
)

// ChatHandler exposes the chat flow over REST.
type ChatHandler struct {
	container *container.Container
	processor *ChatProcessor
}

func NewChatHandler(c *container.Container) *ChatHandler {
	return &ChatHandler{
		container: c,
		processor: NewChatProcessor(c),
	}
}

// sessionID resolves the session identity from the header or query string.
func sessionID(c *fiber.Ctx) string {
	if id := c.Get("X-Session-Id"); id != "" {
		return id
	}
	return c.Query("session_id")
}

// HandleChat runs one full chat submission.
func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var req models.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body",
		})
	}
	if req.SessionID == "" {
		req.SessionID = sessionID(c)
	}

	result := h.processor.ProcessChat(&req)

	status := fiber.StatusOK
	if result.Error != nil {
		switch result.Error.Code {
		case "submission_in_flight":
			status = fiber.StatusConflict
		case "validation_error":
			status = fiber.StatusBadRequest
		default:
			status = fiber.StatusInternalServerError
		}
	}
	return c.Status(status).JSON(result)
}

// HandleDecide classifies a message history without running the full flow.
func (h *ChatHandler) HandleDecide(c *fiber.Ctx) error {
	var req models.DecideRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body",
		})
	}
	if len(req.Messages) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "validation_error",
			Message: "At least one message is required",
		})
	}

	decision, err := h.container.AssistantService.Decide(c.UserContext(), req.Messages)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error:   "decide_failed",
			Message: err.Error(),
		})
	}
	return c.JSON(decision)
}

// HandleCompletion runs a raw chat completion over a supplied history.
func (h *ChatHandler) HandleCompletion(c *fiber.Ctx) error {
	var req models.CompletionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body",
		})
	}
	if len(req.Messages) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "validation_error",
			Message: "At least one message is required",
		})
	}

	reply, err := h.container.AssistantService.Complete(c.UserContext(), req.Messages)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.CompletionResponse{
			Error: err.Error(),
		})
	}
	return c.JSON(models.CompletionResponse{Message: reply})
}

// HandleView returns the resolved render state for the session.
func (h *ChatHandler) HandleView(c *fiber.Ctx) error {
	id := sessionID(c)
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "validation_error",
			Message: "Session id is required",
		})
	}

	st := h.container.Sessions.GetOrCreate(c.UserContext(), id)
	view := models.ResolveView(models.ViewInput{
		SearchResults: st.SearchResults(),
		Messages:      st.Messages(),
	})
	return c.JSON(view)
}
