package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonT-ops/chatbot-project/internal/models"
)

type fakeBackend struct {
	conversations []models.Conversation
	messages      map[string][]models.Message
	appended      []appendedMessage
	failList      bool
	failMessages  bool
	failCreate    bool
	failAppend    bool
}

type appendedMessage struct {
	conversationID string
	content        string
	isUser         bool
}

func (f *fakeBackend) ListConversations(ctx context.Context, token string) ([]models.Conversation, error) {
	if f.failList {
		return nil, errors.New("backend unavailable")
	}
	return f.conversations, nil
}

func (f *fakeBackend) GetMessages(ctx context.Context, conversationID, token string) ([]models.Message, error) {
	if f.failMessages {
		return nil, errors.New("backend unavailable")
	}
	return f.messages[conversationID], nil
}

func (f *fakeBackend) CreateConversation(ctx context.Context, seed, token string) (*models.Conversation, error) {
	if f.failCreate {
		return nil, errors.New("backend unavailable")
	}
	c := models.Conversation{ID: "conv-new", Title: seed}
	f.conversations = append(f.conversations, c)
	return &c, nil
}

func (f *fakeBackend) AppendMessage(ctx context.Context, conversationID, content string, isUser bool, token string) error {
	if f.failAppend {
		return errors.New("backend unavailable")
	}
	f.appended = append(f.appended, appendedMessage{conversationID, content, isUser})
	return nil
}

func signedInStore(backend ConversationBackend) *Store {
	s := New("session-1", backend)
	s.SetUserToken(&models.UserToken{Key: "tok"})
	return s
}

func TestAddMessageAppendsLocally(t *testing.T) {
	s := New("session-1", nil)

	s.AddMessage(models.Message{Content: "hello", IsUser: true})
	s.AddMessage(models.Message{Content: "hi there"})

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.True(t, msgs[0].IsUser)
	assert.False(t, msgs[1].IsUser)
}

func TestSetConversationMissLeavesActiveUntouched(t *testing.T) {
	s := signedInStore(&fakeBackend{
		conversations: []models.Conversation{{ID: "a"}, {ID: "b"}},
	})
	require.NoError(t, s.FetchConversations(context.Background()))

	got, ok := s.SetConversation("a")
	require.True(t, ok)
	assert.Equal(t, "a", got.ID)

	_, ok = s.SetConversation("missing")
	assert.False(t, ok)
	require.NotNil(t, s.Conversation())
	assert.Equal(t, "a", s.Conversation().ID, "active conversation must survive a miss")
}

func TestFetchConversationsKeepsPreviousOnError(t *testing.T) {
	backend := &fakeBackend{conversations: []models.Conversation{{ID: "a"}}}
	s := signedInStore(backend)
	require.NoError(t, s.FetchConversations(context.Background()))
	require.Len(t, s.Conversations(), 1)

	backend.failList = true
	err := s.FetchConversations(context.Background())
	require.Error(t, err)
	assert.Len(t, s.Conversations(), 1, "failed refresh must not clear the cached list")
}

func TestFetchConversationMessagesReplacesWholesale(t *testing.T) {
	backend := &fakeBackend{
		messages: map[string][]models.Message{
			"a": {{Content: "old one", IsUser: true}, {Content: "old two"}},
		},
	}
	s := signedInStore(backend)
	s.AddMessage(models.Message{Content: "local leftover", IsUser: true})

	require.NoError(t, s.FetchConversationMessages(context.Background(), "a"))

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "old one", msgs[0].Content)
}

func TestAddMessageToConversationOptimisticAppend(t *testing.T) {
	backend := &fakeBackend{}
	s := signedInStore(backend)

	res := s.AddMessageToConversation(context.Background(), "conv", "hello", true, false)
	assert.Equal(t, models.SyncSynced, res.State)
	require.Len(t, backend.appended, 1)
	assert.Equal(t, "conv", backend.appended[0].conversationID)

	// Local append survives a backend failure.
	backend.failAppend = true
	res = s.AddMessageToConversation(context.Background(), "conv", "still here", false, false)
	assert.Equal(t, models.SyncFailed, res.State)
	require.Error(t, res.Err)

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "still here", msgs[1].Content)
}

func TestAddMessageToConversationWithoutToken(t *testing.T) {
	s := New("session-1", &fakeBackend{})

	res := s.AddMessageToConversation(context.Background(), "conv", "hello", true, false)
	assert.Equal(t, models.SyncFailed, res.State)
	assert.ErrorIs(t, res.Err, ErrNoToken)
	assert.Len(t, s.Messages(), 1, "local append happens even without a token")
}

func TestCreateConversationSetsActive(t *testing.T) {
	s := signedInStore(&fakeBackend{})

	c, err := s.CreateConversation(context.Background(), "first message")
	require.NoError(t, err)
	assert.Equal(t, "conv-new", c.ID)
	assert.Equal(t, "first message", s.FirstMessage())
	require.NotNil(t, s.Conversation())
	assert.Equal(t, "conv-new", s.Conversation().ID)
	assert.Len(t, s.Conversations(), 1)
}

func TestCreateConversationFailureMutatesNothing(t *testing.T) {
	s := signedInStore(&fakeBackend{failCreate: true})

	_, err := s.CreateConversation(context.Background(), "first message")
	require.Error(t, err)
	assert.Nil(t, s.Conversation())
	assert.Empty(t, s.Conversations())
	assert.Empty(t, s.FirstMessage())
}

func TestSearchResultsReplaceOnly(t *testing.T) {
	s := New("session-1", nil)

	s.SetSearchResults(&models.SearchResult{
		Query:   "iphone",
		Results: []models.Product{{Name: "iPhone 13"}, {Name: "iPhone 14"}},
	})
	s.SetSearchResults(&models.SearchResult{
		Query:   "samsung",
		Results: []models.Product{{Name: "Galaxy S24"}},
	})

	got := s.SearchResults()
	require.NotNil(t, got)
	assert.Equal(t, "samsung", got.Query)
	require.Len(t, got.Results, 1, "no residue of the previous query")
}

func TestSetSearchLoadingInitialisesEmptyResult(t *testing.T) {
	s := New("session-1", nil)

	s.SetSearchLoading(true)
	got := s.SearchResults()
	require.NotNil(t, got)
	assert.True(t, got.IsLoading)
	assert.Empty(t, got.Results)
}

func TestContextWindow(t *testing.T) {
	s := New("session-1", nil)
	for _, content := range []string{"one", "two", "three", "four"} {
		s.AddMessage(models.Message{Content: content, IsUser: true})
	}

	window := s.ContextWindow(2)
	require.Len(t, window, 2)
	assert.Equal(t, "three", window[0].Content)
	assert.Equal(t, "four", window[1].Content)

	assert.Len(t, s.ContextWindow(10), 4, "window larger than history returns everything")
}

func TestInFlightGuard(t *testing.T) {
	s := New("session-1", nil)

	require.NoError(t, s.BeginSubmit("conv"))
	assert.ErrorIs(t, s.BeginSubmit("conv"), ErrBusy)

	// A different conversation is not blocked.
	require.NoError(t, s.BeginSubmit("other"))

	s.EndSubmit("conv")
	assert.NoError(t, s.BeginSubmit("conv"))
}

func TestSignOutClearsEverything(t *testing.T) {
	s := signedInStore(&fakeBackend{})
	s.AddMessage(models.Message{Content: "hello", IsUser: true})
	s.SetSearchResults(&models.SearchResult{Query: "q"})
	s.SetUserData(&models.UserData{Email: "a@b.c"})
	s.SetStartState(false)

	s.SignOut()

	assert.Empty(t, s.Messages())
	assert.Nil(t, s.SearchResults())
	assert.Nil(t, s.UserToken())
	assert.Nil(t, s.UserData())
	assert.False(t, s.IsLoggedIn())
	assert.True(t, s.IsStartState())
}

func TestResetConversationStateKeepsIdentity(t *testing.T) {
	s := signedInStore(&fakeBackend{})
	s.AddMessage(models.Message{Content: "hello", IsUser: true})
	s.SetStartState(false)

	s.ResetConversationState()

	assert.Empty(t, s.Messages())
	assert.True(t, s.IsStartState())
	assert.True(t, s.IsLoggedIn(), "reset must not sign the user out")
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s := signedInStore(&fakeBackend{})
	s.AddMessage(models.Message{Content: "hello", IsUser: true})
	s.SetSearchResults(&models.SearchResult{Query: "iphone", Results: []models.Product{{Name: "iPhone 13"}}})
	s.SetStartState(false)

	blob, err := s.Snapshot()
	require.NoError(t, err)

	restored := New("session-1", nil)
	require.NoError(t, restored.Restore(blob))

	assert.Equal(t, s.Messages(), restored.Messages())
	assert.Equal(t, "iphone", restored.SearchResults().Query)
	assert.True(t, restored.IsLoggedIn())
	assert.False(t, restored.IsStartState())
}
