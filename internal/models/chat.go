package models

// ═══════════════════════════════════════════════════════════
// CHAT REQUEST/RESPONSE MODELS
// ═══════════════════════════════════════════════════════════

type ChatRequest struct {
	SessionID string         `json:"session_id"`
	Message   string         `json:"message"`
	Images    []string       `json:"images,omitempty"`
	Files     []FileMetadata `json:"files,omitempty"`
}

type ChatResponse struct {
	Type          string        `json:"type"`
	Output        string        `json:"output,omitempty"`
	SessionID     string        `json:"session_id"`
	MessageCount  int           `json:"message_count"`
	SearchResult  *SearchResult `json:"search_result,omitempty"`
	LoginRequired bool          `json:"login_required,omitempty"`
	Sync          string        `json:"sync,omitempty"`
	Error         *ErrorInfo    `json:"error,omitempty"`
}

// ErrorInfo contains error details surfaced to the client.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ═══════════════════════════════════════════════════════════
// AI RESPONSE MODELS
// ═══════════════════════════════════════════════════════════

// AssistantReply is the strict JSON contract of the completion endpoint.
type AssistantReply struct {
	UserAnswer  string `json:"user_answer"`
	SendRequest bool   `json:"send_request"`
	Query       string `json:"query"`

	// Raw holds the JSON object as returned by the model, kept so replies
	// that trigger a search can be persisted in their original structure.
	Raw string `json:"-"`
}

// Decision is the strict JSON contract of the decide endpoint.
type Decision struct {
	NeedsAssistance bool   `json:"needs_assistance"`
	Reason          string `json:"reason"`
}

type DecideRequest struct {
	Messages []Message `json:"messages"`
}

type CompletionRequest struct {
	Messages []Message `json:"messages"`
}

type CompletionResponse struct {
	Message *AssistantReply `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ═══════════════════════════════════════════════════════════
// ERROR MODELS
// ═══════════════════════════════════════════════════════════

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
