package models

// ═══════════════════════════════════════════════════════════
// VIEW STATE MAPPING
// ═══════════════════════════════════════════════════════════

// ViewKind is the single visual mode the chat surface renders.
type ViewKind string

const (
	ViewWelcome   ViewKind = "welcome"
	ViewMessages  ViewKind = "messages"
	ViewTyping    ViewKind = "typing"
	ViewSearching ViewKind = "searching"
	ViewResults   ViewKind = "results"
	ViewError     ViewKind = "error"
)

// InlineResultLimit caps how many result cards render inside the chat;
// the rest sit behind the "see more" link to the full search page.
const InlineResultLimit = 3

// ViewInput is the state tuple the presentation layer maps from.
type ViewInput struct {
	IsTyping      bool
	IsSearching   bool
	Error         bool
	APIError      bool
	SearchResults *SearchResult
	Messages      []Message
}

// ViewState is the deterministic render decision for one state tuple.
type ViewState struct {
	Kind        ViewKind
	Messages    []Message
	InlineCards []Product
	SeeMore     bool
}

// ResolveView maps the state tuple to exactly one view. Precedence: errors
// beat indicators, indicators beat content, an empty history is the welcome
// screen. Contentless messages are dropped before rendering.
func ResolveView(in ViewInput) ViewState {
	if in.Error || in.APIError {
		return ViewState{Kind: ViewError, Messages: renderable(in.Messages)}
	}
	if in.IsSearching || (in.SearchResults != nil && in.SearchResults.IsLoading) {
		return ViewState{Kind: ViewSearching, Messages: renderable(in.Messages)}
	}
	if in.IsTyping {
		return ViewState{Kind: ViewTyping, Messages: renderable(in.Messages)}
	}
	if in.SearchResults != nil && len(in.SearchResults.Results) > 0 {
		cards := in.SearchResults.Results
		seeMore := len(cards) > InlineResultLimit
		if seeMore {
			cards = cards[:InlineResultLimit]
		}
		return ViewState{
			Kind:        ViewResults,
			Messages:    renderable(in.Messages),
			InlineCards: cards,
			SeeMore:     seeMore,
		}
	}

	msgs := renderable(in.Messages)
	if len(msgs) == 0 {
		return ViewState{Kind: ViewWelcome}
	}
	return ViewState{Kind: ViewMessages, Messages: msgs}
}

func renderable(msgs []Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.IsEmpty() {
			continue
		}
		out = append(out, m)
	}
	return out
}
