package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonT-ops/chatbot-project/internal/config"
	"github.com/BrandonT-ops/chatbot-project/internal/container"
	"github.com/BrandonT-ops/chatbot-project/internal/models"
	"github.com/BrandonT-ops/chatbot-project/internal/store"
)

// errorBackend fails every call, standing in for an unreachable chatbot API.
type errorBackend struct{}

func (errorBackend) ListConversations(ctx context.Context, token string) ([]models.Conversation, error) {
	return nil, errors.New("connection refused")
}

func (errorBackend) GetMessages(ctx context.Context, conversationID, token string) ([]models.Message, error) {
	return nil, errors.New("connection refused")
}

func (errorBackend) CreateConversation(ctx context.Context, seed, token string) (*models.Conversation, error) {
	return nil, errors.New("connection refused")
}

func (errorBackend) AppendMessage(ctx context.Context, conversationID, content string, isUser bool, token string) error {
	return errors.New("connection refused")
}

func conversationApp(backend store.ConversationBackend) (*fiber.App, *container.Container) {
	c := &container.Container{
		Config:   &config.Config{},
		Sessions: store.NewManager(backend, nil, 0),
	}
	app := fiber.New()
	h := NewConversationHandler(c)
	app.Get("/api/conversations", h.HandleList)
	app.Get("/api/conversations/:id/messages", h.HandleMessages)
	return app, c
}

func decodeError(t *testing.T, resp *http.Response) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHandleListSignedOutIsUnauthorized(t *testing.T) {
	app, _ := conversationApp(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	req.Header.Set("X-Session-Id", "s1")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "not_authenticated", decodeError(t, resp).Error)
}

func TestHandleListBackendFailureIsBadGateway(t *testing.T) {
	app, c := conversationApp(errorBackend{})
	st := c.Sessions.GetOrCreate(context.Background(), "s1")
	st.SetUserToken(&models.UserToken{Key: "backend-key"})

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	req.Header.Set("X-Session-Id", "s1")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "fetch_failed", decodeError(t, resp).Error)
}

func TestHandleMessagesSignedOutIsUnauthorized(t *testing.T) {
	app, _ := conversationApp(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/conversations/conv-1/messages", nil)
	req.Header.Set("X-Session-Id", "s1")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "not_authenticated", decodeError(t, resp).Error)
}
