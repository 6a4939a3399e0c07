package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/BrandonT-ops/chatbot-project/internal/models"
	"github.com/BrandonT-ops/chatbot-project/internal/utils"
)

// ErrBusy is returned when a submission is already in flight for the same
// conversation. The caller should surface it and let the user resubmit.
var ErrBusy = errors.New("a submission is already in flight for this conversation")

// ErrNoToken is returned by network operations that require a signed-in user.
var ErrNoToken = errors.New("no user token")

// ConversationBackend is the slice of the chatbot API the store needs.
type ConversationBackend interface {
	ListConversations(ctx context.Context, token string) ([]models.Conversation, error)
	GetMessages(ctx context.Context, conversationID, token string) ([]models.Message, error)
	CreateConversation(ctx context.Context, seed, token string) (*models.Conversation, error)
	AppendMessage(ctx context.Context, conversationID, content string, isUser bool, token string) error
}

// Store is the single source of truth for one chat session: message history,
// conversation identity, auth state, and the latest search result. It
// mediates every network call related to conversation persistence.
//
// All mutations take the lock; local appends are synchronous and never rolled
// back, the backend is eventually (not guaranteed) consistent.
type Store struct {
	mu      sync.Mutex
	backend ConversationBackend

	sessionID string
	state     sessionState
	inflight  map[string]bool
}

// sessionState is the mutable snapshot. Field tags match the persisted blob.
type sessionState struct {
	Messages          []models.Message      `json:"messages"`
	SearchResults     *models.SearchResult  `json:"searchResults"`
	Conversation      *models.Conversation  `json:"conversation"`
	Conversations     []models.Conversation `json:"conversations"`
	UserData          *models.UserData      `json:"userData"`
	UserToken         *models.UserToken     `json:"userToken"`
	IsLoggedIn        bool                  `json:"isLoggedIn"`
	FirstMessage      string                `json:"firstMessage"`
	HasSyncedMessages bool                  `json:"hasSyncedMessages"`
	IsStartState      bool                  `json:"isStartState"`
}

// New creates an empty session store. The backend may be nil for a purely
// local (signed-out) session store in tests.
func New(sessionID string, backend ConversationBackend) *Store {
	return &Store{
		backend:   backend,
		sessionID: sessionID,
		state:     sessionState{IsStartState: true},
		inflight:  make(map[string]bool),
	}
}

// SessionID returns the immutable session identity.
func (s *Store) SessionID() string {
	return s.sessionID
}

// ═══════════════════════════════════════════════════════════
// LOCAL MESSAGE HISTORY
// ═══════════════════════════════════════════════════════════

// AddMessage appends to the local history. No network effect, always succeeds.
func (s *Store) AddMessage(msg models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Messages = append(s.state.Messages, msg)
}

// Messages returns a copy of the local history.
func (s *Store) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.state.Messages))
	copy(out, s.state.Messages)
	return out
}

// MessageCount returns the local history length.
func (s *Store) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Messages)
}

// ContextWindow returns the last min(n, len) messages in original order,
// as the slice sent to the completion endpoint.
func (s *Store) ContextWindow(n int) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.state.Messages
	if n < len(msgs) {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out
}

// ClearMessages drops the local history.
func (s *Store) ClearMessages() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Messages = nil
}

// ═══════════════════════════════════════════════════════════
// CONVERSATIONS
// ═══════════════════════════════════════════════════════════

// Conversation returns the active conversation, if any.
func (s *Store) Conversation() *models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Conversation == nil {
		return nil
	}
	c := *s.state.Conversation
	return &c
}

// Conversations returns a copy of the cached conversation list.
func (s *Store) Conversations() []models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Conversation, len(s.state.Conversations))
	copy(out, s.state.Conversations)
	return out
}

// SetConversation looks the id up in the cached list and, when found, marks
// it active. A miss leaves the active conversation untouched and reports
// ok=false; callers must handle it.
func (s *Store) SetConversation(id string) (models.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.state.Conversations {
		if c.ID == id {
			active := c
			s.state.Conversation = &active
			return c, true
		}
	}
	return models.Conversation{}, false
}

// FetchConversations replaces the cached list wholesale. On failure the
// previous list stays untouched; the error is logged and returned, never
// retried.
func (s *Store) FetchConversations(ctx context.Context) error {
	token, err := s.requireToken()
	if err != nil {
		return err
	}

	conversations, err := s.backend.ListConversations(ctx, token)
	if err != nil {
		utils.LogError(ctx, "error fetching conversations", err)
		return err
	}

	s.mu.Lock()
	s.state.Conversations = conversations
	s.mu.Unlock()
	return nil
}

// FetchConversationMessages replaces the local history wholesale with the
// backend copy of one conversation. Same failure policy as FetchConversations.
func (s *Store) FetchConversationMessages(ctx context.Context, conversationID string) error {
	token, err := s.requireToken()
	if err != nil {
		return err
	}

	messages, err := s.backend.GetMessages(ctx, conversationID, token)
	if err != nil {
		utils.LogError(ctx, "error fetching conversation messages", err,
			slog.String("conversation_id", conversationID))
		return err
	}

	s.mu.Lock()
	s.state.Messages = messages
	s.mu.Unlock()
	return nil
}

// CreateConversation opens a new backend thread seeded with the first
// message text, appends it to the cached list and marks it active. On
// failure nothing is mutated and the caller must guard.
func (s *Store) CreateConversation(ctx context.Context, seed string) (*models.Conversation, error) {
	token, err := s.requireToken()
	if err != nil {
		return nil, err
	}

	conversation, err := s.backend.CreateConversation(ctx, seed, token)
	if err != nil {
		utils.LogError(ctx, "error creating conversation", err)
		return nil, err
	}

	s.mu.Lock()
	s.state.FirstMessage = seed
	s.state.Conversations = append(s.state.Conversations, *conversation)
	s.state.Conversation = conversation
	s.mu.Unlock()

	return conversation, nil
}

// AddMessageToConversation appends the message to the local history
// synchronously, then fires the persistence POST. The optimistic append is
// never rolled back; the returned SyncResult tells the caller whether the
// backend accepted the message.
func (s *Store) AddMessageToConversation(ctx context.Context, conversationID, content string, isUser, isJSON bool) models.SyncResult {
	s.mu.Lock()
	s.state.Messages = append(s.state.Messages, models.Message{
		Content: content,
		IsUser:  isUser,
		IsJSON:  isJSON,
	})
	token := ""
	if s.state.UserToken != nil {
		token = s.state.UserToken.Key
	}
	s.mu.Unlock()

	if token == "" {
		return models.SyncResult{State: models.SyncFailed, Err: ErrNoToken}
	}

	if err := s.backend.AppendMessage(ctx, conversationID, content, isUser, token); err != nil {
		utils.LogError(ctx, "error adding message to conversation", err,
			slog.String("conversation_id", conversationID))
		return models.SyncResult{State: models.SyncFailed, Err: err}
	}
	return models.SyncResult{State: models.SyncSynced}
}

// ═══════════════════════════════════════════════════════════
// SEARCH RESULTS
// ═══════════════════════════════════════════════════════════

// SetSearchResults replaces the search state wholesale. No merging: issuing
// query B after query A leaves no residue of A.
func (s *Store) SetSearchResults(result *models.SearchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SearchResults = result
}

// SetSearchLoading flips the loading flag, initialising an empty result set
// if none exists.
func (s *Store) SetSearchLoading(isLoading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.SearchResults == nil {
		s.state.SearchResults = &models.SearchResult{Results: []models.Product{}}
	}
	s.state.SearchResults.IsLoading = isLoading
}

// SearchResults returns the latest search state, if any.
func (s *Store) SearchResults() *models.SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.SearchResults == nil {
		return nil
	}
	r := *s.state.SearchResults
	r.Results = make([]models.Product, len(s.state.SearchResults.Results))
	copy(r.Results, s.state.SearchResults.Results)
	return &r
}

// ClearSearch drops the latest search state.
func (s *Store) ClearSearch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SearchResults = nil
}

// ═══════════════════════════════════════════════════════════
// IDENTITY
// ═══════════════════════════════════════════════════════════

// SetUserToken stores the backend session key; a non-nil token marks the
// session signed in.
func (s *Store) SetUserToken(token *models.UserToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.UserToken = token
	s.state.IsLoggedIn = token != nil
}

// UserToken returns the current token, nil when signed out.
func (s *Store) UserToken() *models.UserToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.UserToken == nil {
		return nil
	}
	t := *s.state.UserToken
	return &t
}

// IsLoggedIn reports the session auth state.
func (s *Store) IsLoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsLoggedIn && s.state.UserToken != nil
}

// SetUserData stores the decoded profile.
func (s *Store) SetUserData(user *models.UserData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.UserData = user
}

// UserData returns the decoded profile, nil when signed out.
func (s *Store) UserData() *models.UserData {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.UserData == nil {
		return nil
	}
	u := *s.state.UserData
	return &u
}

// ClearUserToken drops the token and the login flag.
func (s *Store) ClearUserToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.UserToken = nil
	s.state.IsLoggedIn = false
}

// ClearUserData drops the decoded profile.
func (s *Store) ClearUserData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.UserData = nil
}

// ═══════════════════════════════════════════════════════════
// SESSION FLAGS / RESET
// ═══════════════════════════════════════════════════════════

// IsStartState reports whether no qualifying message has been sent yet.
func (s *Store) IsStartState() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsStartState
}

// SetStartState flips the start flag; the first qualifying user message
// clears it for the rest of the session.
func (s *Store) SetStartState(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsStartState = v
}

// FirstMessage returns the seed text captured on the first submission.
func (s *Store) FirstMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.FirstMessage
}

// SetFirstMessage records the seed text for lazy conversation creation.
func (s *Store) SetFirstMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.FirstMessage = msg
}

// ResetConversationState clears everything tied to the current thread:
// history, active conversation, search results, start flag. Identity stays.
// Used by the "new conversation" action.
func (s *Store) ResetConversationState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Messages = nil
	s.state.Conversation = nil
	s.state.SearchResults = nil
	s.state.FirstMessage = ""
	s.state.IsStartState = true
}

// SignOut clears all conversation state plus identity.
func (s *Store) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = sessionState{IsStartState: true}
}

// ═══════════════════════════════════════════════════════════
// IN-FLIGHT GUARD
// ═══════════════════════════════════════════════════════════

// BeginSubmit claims the submission slot for a conversation ("" for a
// session with no conversation yet). A second submit while one is
// outstanding gets ErrBusy instead of racing the first.
func (s *Store) BeginSubmit(conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[conversationID] {
		return ErrBusy
	}
	s.inflight[conversationID] = true
	return nil
}

// EndSubmit releases the slot. Always called from the submission's
// finally path.
func (s *Store) EndSubmit(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, conversationID)
}

func (s *Store) requireToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.UserToken == nil || s.state.UserToken.Key == "" {
		return "", ErrNoToken
	}
	return s.state.UserToken.Key, nil
}
