package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/BrandonT-ops/chatbot-project/internal/config"
	"github.com/BrandonT-ops/chatbot-project/internal/models"
)

// ChatbotService is the client for the conversation-persistence backend.
// All calls carry the user's backend key as `Authorization: Token <key>`.
type ChatbotService struct {
	baseURL    string
	httpClient *http.Client
}

func NewChatbotService(cfg *config.Config) *ChatbotService {
	return &ChatbotService{
		baseURL:    cfg.APIEndpoint,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

func (s *ChatbotService) do(ctx context.Context, method, path, token string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("request to %s failed with status: %d", path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	} else {
		io.Copy(io.Discard, resp.Body)
	}
	return nil
}

// ListConversations returns all conversations for the authenticated user.
func (s *ChatbotService) ListConversations(ctx context.Context, token string) ([]models.Conversation, error) {
	var conversations []models.Conversation
	if err := s.do(ctx, http.MethodGet, "/chatbot/chat/", token, nil, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// GetMessages returns the full history of one conversation.
func (s *ChatbotService) GetMessages(ctx context.Context, conversationID, token string) ([]models.Message, error) {
	var messages []models.Message
	path := fmt.Sprintf("/chatbot/chat/%s/", conversationID)
	if err := s.do(ctx, http.MethodGet, path, token, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// CreateConversation opens a new thread seeded with the first message text.
// The backend assigns the id and derives the title from the seed.
func (s *ChatbotService) CreateConversation(ctx context.Context, seed, token string) (*models.Conversation, error) {
	var conversation models.Conversation
	body := map[string]string{"message": seed}
	if err := s.do(ctx, http.MethodPost, "/chatbot/chat/", token, body, &conversation); err != nil {
		return nil, err
	}
	return &conversation, nil
}

// AppendMessage persists one message to a conversation.
func (s *ChatbotService) AppendMessage(ctx context.Context, conversationID, content string, isUser bool, token string) error {
	path := fmt.Sprintf("/chatbot/chat/%s/", conversationID)
	body := map[string]any{"message": content, "is_user": isUser}
	return s.do(ctx, http.MethodPost, path, token, body, nil)
}
