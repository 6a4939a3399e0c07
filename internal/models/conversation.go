package models

import "time"

// ═══════════════════════════════════════════════════════════
// CONVERSATION MODELS
// ═══════════════════════════════════════════════════════════

// Conversation is a persisted, titled thread of messages owned by one user.
// The id is opaque and assigned by the chatbot backend.
type Conversation struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Title     string    `json:"title"`
}

// Message is one entry of a conversation's history. Order is chronological
// and significant: the completion context window is sliced from the tail.
type Message struct {
	Content string         `json:"content"`
	IsUser  bool           `json:"is_user"`
	Images  []string       `json:"images,omitempty"`
	Files   []FileMetadata `json:"files,omitempty"`
	IsJSON  bool           `json:"is_json,omitempty"`
}

// IsEmpty reports whether the message has nothing to render.
func (m Message) IsEmpty() bool {
	return m.Content == "" && len(m.Images) == 0 && len(m.Files) == 0
}

// FileMetadata describes an uploaded attachment.
type FileMetadata struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
	URL  string `json:"url,omitempty"`
}

// SyncState tracks whether a locally appended message reached the backend.
type SyncState int

const (
	SyncPending SyncState = iota
	SyncSynced
	SyncFailed
)

func (s SyncState) String() string {
	switch s {
	case SyncSynced:
		return "synced"
	case SyncFailed:
		return "failed"
	default:
		return "pending"
	}
}

// SyncResult is the outcome of an optimistic persistence call. The local
// append already happened by the time a caller sees this; Err is informational
// and lets the caller mark the message unsynced or retry.
type SyncResult struct {
	State SyncState
	Err   error
}
