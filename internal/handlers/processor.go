package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BrandonT-ops/chatbot-project/internal/container"
	"github.com/BrandonT-ops/chatbot-project/internal/models"
	"github.com/BrandonT-ops/chatbot-project/internal/services"
	"github.com/BrandonT-ops/chatbot-project/internal/store"
	"github.com/BrandonT-ops/chatbot-project/internal/utils"
)

// completionClient is the slice of the assistant service the flow needs.
type completionClient interface {
	Complete(ctx context.Context, history []models.Message) (*models.AssistantReply, error)
	Decide(ctx context.Context, history []models.Message) (*models.Decision, error)
}

// productSearcher is the slice of the shop service the flow needs.
type productSearcher interface {
	SearchWithCache(ctx context.Context, query string, cache *services.CacheService) ([]models.Product, error)
}

// ChatProcessor handles the core chat flow shared between REST and WebSocket handlers.
// The order is fixed: guard the submission, record the user message, decide or
// complete, search when asked, persist, release.
type ChatProcessor struct {
	container *container.Container
	assistant completionClient
	shop      productSearcher
}

// NewChatProcessor creates a new chat processor
func NewChatProcessor(c *container.Container) *ChatProcessor {
	return &ChatProcessor{
		container: c,
		assistant: c.AssistantService,
		shop:      c.ShopService,
	}
}

// ProcessChat runs one submission end to end and returns the response envelope.
func (p *ChatProcessor) ProcessChat(req *models.ChatRequest) *models.ChatResponse {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	start := time.Now()
	var response *models.ChatResponse

	defer func() {
		duration := time.Since(start).Seconds()
		status := "success"
		if response != nil && response.Error != nil {
			status = "error"
		}
		utils.LogInfo(ctx, "message processing completed",
			slog.String("session_id", req.SessionID),
			slog.String("status", status),
			slog.Float64("duration_seconds", duration),
		)
		recordMessageProcessed(status, duration)
	}()

	// A submission with no text and no attachments changes nothing.
	message := strings.TrimSpace(req.Message)
	if message == "" && len(req.Images) == 0 && len(req.Files) == 0 {
		response = &models.ChatResponse{
			Type:      "noop",
			SessionID: req.SessionID,
		}
		return response
	}

	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	st := p.container.Sessions.GetOrCreate(ctx, req.SessionID)

	conversationID := ""
	if c := st.Conversation(); c != nil {
		conversationID = c.ID
	}

	// One submission at a time per conversation. A second submit gets an
	// explicit busy error instead of racing the first.
	if err := st.BeginSubmit(conversationID); err != nil {
		if errors.Is(err, store.ErrBusy) {
			response = &models.ChatResponse{
				Type:         "error",
				SessionID:    req.SessionID,
				MessageCount: st.MessageCount(),
				Error: &models.ErrorInfo{
					Code:    "submission_in_flight",
					Message: "A message is already being processed for this conversation",
				},
			}
			return response
		}
		response = p.errorResponse(req.SessionID, st, "submission_error", "Failed to start submission")
		return response
	}
	defer st.EndSubmit(conversationID)
	defer p.container.Sessions.Save(ctx, st)

	response = p.process(ctx, req, st, message)
	return response
}

func (p *ChatProcessor) process(ctx context.Context, req *models.ChatRequest, st *store.Store, message string) *models.ChatResponse {
	// First qualifying message leaves the start state for good and, for a
	// signed-in user, lazily opens the backend conversation.
	if st.IsStartState() {
		st.SetStartState(false)
		st.SetFirstMessage(message)
		if st.IsLoggedIn() && st.Conversation() == nil {
			if _, err := st.CreateConversation(ctx, message); err != nil {
				utils.LogWarn(ctx, "conversation creation failed, continuing without sync",
					slog.String("session_id", req.SessionID),
					slog.Any("error", err),
				)
			}
		}
	}

	userMessage := models.Message{
		Content: message,
		IsUser:  true,
		Images:  req.Images,
		Files:   req.Files,
	}

	var userSync models.SyncResult
	if conversation := st.Conversation(); st.IsLoggedIn() && conversation != nil {
		userSync = st.AddMessageToConversation(ctx, conversation.ID, message, true, false)
	} else {
		st.AddMessage(userMessage)
		userSync = models.SyncResult{State: models.SyncSynced}
	}

	if !st.IsLoggedIn() {
		return p.processAnonymous(ctx, req, st, message)
	}
	return p.processAssisted(ctx, req, st, userSync)
}

// processAnonymous handles the signed-out path: classify the query, run a
// direct search when it names a product, otherwise ask the user to sign in.
func (p *ChatProcessor) processAnonymous(ctx context.Context, req *models.ChatRequest, st *store.Store, message string) *models.ChatResponse {
	decision, err := p.assistant.Decide(ctx, []models.Message{{Content: message, IsUser: true}})
	if err != nil {
		utils.LogError(ctx, "decide request failed", err, slog.String("session_id", req.SessionID))
		return p.errorResponse(req.SessionID, st, "decide_failed", "Failed to analyze your request. Please try again.")
	}

	utils.LogInfo(ctx, "decision received",
		slog.Bool("needs_assistance", decision.NeedsAssistance),
		slog.String("reason", decision.Reason),
	)

	if decision.NeedsAssistance {
		return &models.ChatResponse{
			Type:          "login_required",
			Output:        "Please sign in so the assistant can help you find the right product.",
			SessionID:     req.SessionID,
			MessageCount:  st.MessageCount(),
			LoginRequired: true,
		}
	}

	result, err := p.performSearch(ctx, st, message)
	if err != nil {
		return p.errorResponse(req.SessionID, st, "search_failed", "Sorry, the product search failed. Please try again.")
	}

	return &models.ChatResponse{
		Type:         "search",
		SessionID:    req.SessionID,
		MessageCount: st.MessageCount(),
		SearchResult: result,
	}
}

// processAssisted handles the signed-in path: chat completion over the
// recent history, then a conditional search and persistence of the reply.
func (p *ChatProcessor) processAssisted(ctx context.Context, req *models.ChatRequest, st *store.Store, userSync models.SyncResult) *models.ChatResponse {
	// The submission was already appended to history, so widen the slice by
	// one: the model sees the configured number of prior messages plus the
	// new one.
	history := st.ContextWindow(p.container.Config.ContextWindow + 1)

	reply, err := p.assistant.Complete(ctx, history)
	if err != nil {
		utils.LogError(ctx, "chat completion failed", err, slog.String("session_id", req.SessionID))
		return p.errorResponse(req.SessionID, st, "completion_failed", "Failed to generate a response. Please try again.")
	}

	conversationID := ""
	if c := st.Conversation(); c != nil {
		conversationID = c.ID
	}

	response := &models.ChatResponse{
		Type:      "text",
		Output:    reply.UserAnswer,
		SessionID: req.SessionID,
		Sync:      userSync.State.String(),
	}

	if reply.SendRequest && strings.TrimSpace(reply.Query) != "" {
		result, searchErr := p.performSearch(ctx, st, reply.Query)
		if searchErr != nil {
			// The reply text still stands; only the product cards are missing.
			response.Type = "error"
			response.Error = &models.ErrorInfo{
				Code:    "search_failed",
				Message: "Product search failed",
			}
		} else {
			response.Type = "search"
			response.SearchResult = result
		}
	}

	assistantSync := p.persistReply(ctx, st, conversationID, reply)
	if assistantSync.State == models.SyncFailed {
		response.Sync = assistantSync.State.String()
	}

	response.MessageCount = st.MessageCount()
	return response
}

// persistReply records the assistant message. Replies that triggered a search
// are stored as their raw JSON contract so history replays keep the structure.
func (p *ChatProcessor) persistReply(ctx context.Context, st *store.Store, conversationID string, reply *models.AssistantReply) models.SyncResult {
	content := reply.UserAnswer
	isJSON := false
	if reply.SendRequest {
		content = reply.Raw
		isJSON = true
	}
	if content == "" {
		content = reply.UserAnswer
		isJSON = false
	}

	if conversationID != "" {
		return st.AddMessageToConversation(ctx, conversationID, content, false, isJSON)
	}
	st.AddMessage(models.Message{Content: content, IsJSON: isJSON})
	return models.SyncResult{State: models.SyncSynced}
}

// performSearch flips the loading flag, runs the cached shop search and
// replaces the stored result wholesale.
func (p *ChatProcessor) performSearch(ctx context.Context, st *store.Store, query string) (*models.SearchResult, error) {
	st.SetSearchLoading(true)

	products, err := p.shop.SearchWithCache(ctx, query, p.container.CacheService)
	if err != nil {
		utils.LogError(ctx, "product search failed", err, slog.String("query", query))
		st.SetSearchLoading(false)
		return nil, err
	}

	result := &models.SearchResult{
		Query:   query,
		Results: products,
	}
	st.SetSearchResults(result)

	utils.LogInfo(ctx, "search completed",
		slog.String("query", query),
		slog.Int("result_count", len(products)),
	)
	recordSearch(len(products))
	return result, nil
}

func (p *ChatProcessor) errorResponse(sessionID string, st *store.Store, code, message string) *models.ChatResponse {
	return &models.ChatResponse{
		Type:         "error",
		SessionID:    sessionID,
		MessageCount: st.MessageCount(),
		Error: &models.ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}
