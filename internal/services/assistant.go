package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/BrandonT-ops/chatbot-project/internal/config"
	"github.com/BrandonT-ops/chatbot-project/internal/models"
	"github.com/BrandonT-ops/chatbot-project/internal/utils"
)

const chatSystemPrompt = `You're an assistant who specializes in helping users search for products online. Respond in JSON format with the following structure: {
  "user_answer": "string - The response to the user.",
  "send_request": "boolean - Whether it's time to search online.",
  "query": "string - The search keywords, if available."
} Only engage with product-related queries and avoid responding to unrelated topics.`

const decideSystemPrompt = `You're an assistant that determines whether a user query is a direct product search or if the user needs assistance to find a product. Respond in JSON format with the following structure: {
  "needs_assistance": "boolean - true if the user query requires AI assistance to find a product, false if the user is directly searching for a product.",
  "reason": "string - A brief explanation of why assistance is or is not needed."
} Only engage with product-related queries and avoid responding to unrelated topics.`

// AssistantService talks to the OpenAI completion API with key rotation.
type AssistantService struct {
	client          *openai.Client
	keyRotator      *utils.KeyRotator
	config          *config.Config
	currentKeyIndex int
	mu              sync.RWMutex
}

func NewAssistantService(keyRotator *utils.KeyRotator, cfg *config.Config) (*AssistantService, error) {
	apiKey, keyIndex, err := keyRotator.GetNextKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get initial API key: %w", err)
	}

	return &AssistantService{
		client:          openai.NewClient(apiKey),
		keyRotator:      keyRotator,
		config:          cfg,
		currentKeyIndex: keyIndex,
	}, nil
}

func (s *AssistantService) rotateClient(markCurrentAsExhausted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if markCurrentAsExhausted {
		if err := s.keyRotator.MarkKeyAsExhausted(s.currentKeyIndex); err != nil {
			utils.LogWarn(context.Background(), "failed to mark key as exhausted",
				slog.Int("key_index", s.currentKeyIndex), slog.Any("error", err))
		}
	}

	apiKey, keyIndex, err := s.keyRotator.GetNextKey()
	if err != nil {
		return fmt.Errorf("failed to get API key: %w", err)
	}

	s.client = openai.NewClient(apiKey)
	s.currentKeyIndex = keyIndex
	return nil
}

// Complete sends the context window plus the system prompt and parses the
// strict JSON reply. A non-JSON reply (after the repair pipeline) is an error.
func (s *AssistantService) Complete(ctx context.Context, history []models.Message) (*models.AssistantReply, error) {
	content, err := s.chat(ctx, chatSystemPrompt, history, s.config.ChatMaxTokens)
	if err != nil {
		return nil, err
	}

	var reply models.AssistantReply
	if err := unmarshalStrictJSON(content, &reply); err != nil {
		return nil, fmt.Errorf("the AI response could not be parsed into JSON: %w", err)
	}
	reply.Raw = extractFirstJSONObject(content)
	if reply.Raw == "" {
		reply.Raw = content
	}
	return &reply, nil
}

// Decide classifies the query as needing assistance vs a direct search.
func (s *AssistantService) Decide(ctx context.Context, history []models.Message) (*models.Decision, error) {
	content, err := s.chat(ctx, decideSystemPrompt, history, s.config.DecideMaxTokens)
	if err != nil {
		return nil, err
	}

	// The decide contract is shape-checked strictly: both fields must be
	// present with the right types, not merely parseable.
	var raw map[string]json.RawMessage
	if err := unmarshalStrictJSON(content, &raw); err != nil {
		return nil, fmt.Errorf("the AI response could not be parsed into JSON: %w", err)
	}

	var decision models.Decision
	needs, okNeeds := raw["needs_assistance"]
	reason, okReason := raw["reason"]
	if !okNeeds || !okReason ||
		json.Unmarshal(needs, &decision.NeedsAssistance) != nil ||
		json.Unmarshal(reason, &decision.Reason) != nil {
		return nil, fmt.Errorf("the AI response is not in the expected format")
	}

	return &decision, nil
}

func (s *AssistantService) chat(ctx context.Context, systemPrompt string, history []models.Message, maxTokens int) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, m := range history {
		role := openai.ChatMessageRoleAssistant
		if m.IsUser {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:       s.config.OpenAIModel,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: s.config.OpenAITemperature,
	}

	resp, err := s.executeWithRetry(ctx, req, 3)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty completion content")
	}
	return content, nil
}

// executeWithRetry performs the completion call with exponential backoff.
// Quota errors rotate the API key; overload and timeout errors back off.
func (s *AssistantService) executeWithRetry(ctx context.Context, req openai.ChatCompletionRequest, maxRetries int) (openai.ChatCompletionResponse, error) {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			utils.LogInfo(ctx, "retrying completion request",
				slog.Int("attempt", attempt+1),
				slog.Int("max_attempts", maxRetries),
				slog.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return openai.ChatCompletionResponse{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		s.mu.RLock()
		client := s.client
		keyIndex := s.currentKeyIndex
		s.mu.RUnlock()

		callCtx, cancel := context.WithTimeout(ctx, s.config.HTTPTimeout)
		resp, err := client.CreateChatCompletion(callCtx, req)
		cancel()

		if err == nil {
			if attempt > 0 {
				utils.LogInfo(ctx, "completion succeeded on retry", slog.Int("attempt", attempt+1))
			}
			return resp, nil
		}

		lastErr = err
		errMsg := err.Error()

		switch {
		case strings.Contains(errMsg, "429"),
			strings.Contains(errMsg, "quota"),
			strings.Contains(errMsg, "insufficient_quota"):
			utils.LogWarn(ctx, "quota exceeded, rotating API key", slog.Int("key_index", keyIndex))
			if rotateErr := s.rotateClient(true); rotateErr != nil {
				utils.LogError(ctx, "key rotation failed", rotateErr)
			}
		case strings.Contains(errMsg, "503"),
			strings.Contains(errMsg, "overloaded"),
			strings.Contains(errMsg, "timeout"),
			strings.Contains(errMsg, "deadline exceeded"):
			utils.LogWarn(ctx, "transient completion error, will retry", slog.Any("error", err))
		default:
			return openai.ChatCompletionResponse{}, fmt.Errorf("completion API error: %w", err)
		}
	}

	return openai.ChatCompletionResponse{}, fmt.Errorf("completion API failed after %d retries: %w", maxRetries, lastErr)
}

// unmarshalStrictJSON parses content into out, running the extraction and
// repair pipeline first when the raw text is not valid JSON (code fences,
// prose wrapping, duplicated objects).
func unmarshalStrictJSON(content string, out any) error {
	content = strings.TrimSpace(content)

	if err := json.Unmarshal([]byte(content), out); err == nil {
		return nil
	}

	extracted := extractFirstJSONObject(content)
	if extracted == "" {
		return fmt.Errorf("no JSON object found in response")
	}
	return json.Unmarshal([]byte(extracted), out)
}

// extractFirstJSONObject returns the first complete top-level JSON object in
// text, honouring strings and escapes. Models sometimes wrap the object in
// markdown fences or duplicate it; only the first balanced object counts.
func extractFirstJSONObject(text string) string {
	if idx := strings.Index(text, "```json"); idx != -1 {
		rest := text[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end != -1 {
			text = rest[:end]
		}
	}

	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}

	braceCount := 0
	inString := false
	escapeNext := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if escapeNext {
			escapeNext = false
			continue
		}
		if c == '\\' {
			escapeNext = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case '{':
			braceCount++
		case '}':
			braceCount--
			if braceCount == 0 {
				return text[start : i+1]
			}
		}
	}

	return ""
}
