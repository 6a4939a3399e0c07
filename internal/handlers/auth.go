package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/BrandonT-ops/chatbot-project/internal/container"
	"github.com/BrandonT-ops/chatbot-project/internal/models"
	"github.com/BrandonT-ops/chatbot-project/internal/utils"
)

// AuthHandler exchanges Google credentials for backend session keys and
// manages sign-out.
type AuthHandler struct {
	container *container.Container
}

func NewAuthHandler(c *container.Container) *AuthHandler {
	return &AuthHandler{
		container: c,
	}
}

// HandleGoogleLogin exchanges the Google credential for a backend token and
// binds it to the session.
func (h *AuthHandler) HandleGoogleLogin(c *fiber.Ctx) error {
	var req models.GoogleLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body",
		})
	}
	if req.AccessToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "validation_error",
			Message: "Access token is required",
		})
	}

	id := sessionID(c)
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "validation_error",
			Message: "Session id is required",
		})
	}

	token, user, err := h.container.GoogleService.Login(c.UserContext(), req.AccessToken)
	if err != nil {
		utils.LogError(c.UserContext(), "google login failed", err, slog.String("session_id", id))
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
			Error:   "login_failed",
			Message: "Google login failed",
		})
	}

	st := h.container.Sessions.GetOrCreate(c.UserContext(), id)
	st.SetUserToken(token)
	st.SetUserData(user)
	h.container.Sessions.Save(c.UserContext(), st)

	return c.JSON(models.GoogleLoginResponse{
		Token: *token,
		User:  *user,
	})
}

// HandleLogout clears the session's identity and conversation state, and
// drops the persisted snapshot.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	id := sessionID(c)
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "validation_error",
			Message: "Session id is required",
		})
	}

	st := h.container.Sessions.GetOrCreate(c.UserContext(), id)
	st.SignOut()
	h.container.Sessions.Drop(c.UserContext(), id)
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleMe returns the signed-in profile, if any.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	id := sessionID(c)
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "validation_error",
			Message: "Session id is required",
		})
	}

	st := h.container.Sessions.GetOrCreate(c.UserContext(), id)
	user := st.UserData()
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
			Error:   "not_authenticated",
			Message: "No user is signed in for this session",
		})
	}
	return c.JSON(user)
}
