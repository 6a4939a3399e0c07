package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/BrandonT-ops/chatbot-project/internal/container"
	"github.com/BrandonT-ops/chatbot-project/internal/models"
	"github.com/BrandonT-ops/chatbot-project/internal/store"
)

// ConversationHandler exposes the conversation store over REST.
type ConversationHandler struct {
	container *container.Container
}

func NewConversationHandler(c *container.Container) *ConversationHandler {
	return &ConversationHandler{
		container: c,
	}
}

// HandleList refreshes and returns the user's conversations.
func (h *ConversationHandler) HandleList(c *fiber.Ctx) error {
	id := sessionID(c)
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "validation_error",
			Message: "Session id is required",
		})
	}

	st := h.container.Sessions.GetOrCreate(c.UserContext(), id)
	if err := st.FetchConversations(c.UserContext()); err != nil {
		if errors.Is(err, store.ErrNoToken) {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
				Error:   "not_authenticated",
				Message: "Sign in to list conversations",
			})
		}
		// The cached list survives the failure; report it and return what we have.
		return c.Status(fiber.StatusBadGateway).JSON(models.ErrorResponse{
			Error:   "fetch_failed",
			Message: "Failed to refresh conversations",
		})
	}
	return c.JSON(st.Conversations())
}

// HandleCreate opens a new conversation seeded with the first message.
func (h *ConversationHandler) HandleCreate(c *fiber.Ctx) error {
	id := sessionID(c)
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "validation_error",
			Message: "Session id is required",
		})
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "validation_error",
			Message: "A seed message is required",
		})
	}

	st := h.container.Sessions.GetOrCreate(c.UserContext(), id)
	conversation, err := st.CreateConversation(c.UserContext(), req.Message)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(models.ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create conversation",
		})
	}

	h.container.Sessions.Save(c.UserContext(), st)
	return c.Status(fiber.StatusCreated).JSON(conversation)
}

// HandleAppend persists one message to a conversation. The local append is
// optimistic; the sync outcome travels back in the response.
func (h *ConversationHandler) HandleAppend(c *fiber.Ctx) error {
	id := sessionID(c)
	conversationID := c.Params("id")
	if id == "" || conversationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "validation_error",
			Message: "Session id and conversation id are required",
		})
	}

	var req struct {
		Message string `json:"message"`
		IsUser  bool   `json:"is_user"`
		IsJSON  bool   `json:"is_json"`
	}
	if err := c.BodyParser(&req); err != nil || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "validation_error",
			Message: "A message is required",
		})
	}

	st := h.container.Sessions.GetOrCreate(c.UserContext(), id)
	res := st.AddMessageToConversation(c.UserContext(), conversationID, req.Message, req.IsUser, req.IsJSON)
	h.container.Sessions.Save(c.UserContext(), st)

	payload := fiber.Map{"sync": res.State.String()}
	if res.Err != nil {
		payload["error"] = res.Err.Error()
	}
	return c.JSON(payload)
}

// HandleSelect marks a conversation active. An unknown id is an explicit 404,
// never a silent no-op.
func (h *ConversationHandler) HandleSelect(c *fiber.Ctx) error {
	id := sessionID(c)
	conversationID := c.Params("id")
	if id == "" || conversationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "validation_error",
			Message: "Session id and conversation id are required",
		})
	}

	st := h.container.Sessions.GetOrCreate(c.UserContext(), id)
	conversation, ok := st.SetConversation(conversationID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
			Error:   "not_found",
			Message: "Conversation not found",
		})
	}

	if err := st.FetchConversationMessages(c.UserContext(), conversationID); err != nil {
		if errors.Is(err, store.ErrNoToken) {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
				Error:   "not_authenticated",
				Message: "Sign in to read conversation messages",
			})
		}
		return c.Status(fiber.StatusBadGateway).JSON(models.ErrorResponse{
			Error:   "fetch_failed",
			Message: "Failed to load conversation messages",
		})
	}

	h.container.Sessions.Save(c.UserContext(), st)
	return c.JSON(conversation)
}

// HandleMessages returns the messages of one conversation.
func (h *ConversationHandler) HandleMessages(c *fiber.Ctx) error {
	id := sessionID(c)
	conversationID := c.Params("id")
	if id == "" || conversationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "validation_error",
			Message: "Session id and conversation id are required",
		})
	}

	st := h.container.Sessions.GetOrCreate(c.UserContext(), id)
	if err := st.FetchConversationMessages(c.UserContext(), conversationID); err != nil {
		if errors.Is(err, store.ErrNoToken) {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
				Error:   "not_authenticated",
				Message: "Sign in to read conversation messages",
			})
		}
		return c.Status(fiber.StatusBadGateway).JSON(models.ErrorResponse{
			Error:   "fetch_failed",
			Message: "Failed to load conversation messages",
		})
	}
	return c.JSON(st.Messages())
}

// HandleReset starts a fresh thread: history, search results and the active
// conversation are dropped, identity stays.
func (h *ConversationHandler) HandleReset(c *fiber.Ctx) error {
	id := sessionID(c)
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "validation_error",
			Message: "Session id is required",
		})
	}

	st := h.container.Sessions.GetOrCreate(c.UserContext(), id)
	st.ResetConversationState()
	h.container.Sessions.Save(c.UserContext(), st)
	return c.SendStatus(fiber.StatusNoContent)
}
