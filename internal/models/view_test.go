package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveViewPrecedence(t *testing.T) {
	msgs := []Message{{Content: "hello", IsUser: true}}
	results := &SearchResult{Query: "q", Results: []Product{{Name: "p"}}}

	tests := []struct {
		name string
		in   ViewInput
		want ViewKind
	}{
		{"error beats everything", ViewInput{Error: true, IsTyping: true, IsSearching: true, SearchResults: results, Messages: msgs}, ViewError},
		{"api error counts as error", ViewInput{APIError: true, Messages: msgs}, ViewError},
		{"searching beats typing", ViewInput{IsSearching: true, IsTyping: true, Messages: msgs}, ViewSearching},
		{"loading results show searching", ViewInput{SearchResults: &SearchResult{IsLoading: true}, Messages: msgs}, ViewSearching},
		{"typing beats results", ViewInput{IsTyping: true, SearchResults: results, Messages: msgs}, ViewTyping},
		{"results beat messages", ViewInput{SearchResults: results, Messages: msgs}, ViewResults},
		{"messages when nothing else", ViewInput{Messages: msgs}, ViewMessages},
		{"welcome on empty history", ViewInput{}, ViewWelcome},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveView(tt.in).Kind)
		})
	}
}

func TestResolveViewInlineCardLimit(t *testing.T) {
	many := &SearchResult{
		Query:   "phones",
		Results: []Product{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}, {Name: "e"}},
	}

	view := ResolveView(ViewInput{SearchResults: many})
	require.Equal(t, ViewResults, view.Kind)
	assert.Len(t, view.InlineCards, InlineResultLimit)
	assert.True(t, view.SeeMore)

	few := &SearchResult{Query: "phones", Results: []Product{{Name: "a"}}}
	view = ResolveView(ViewInput{SearchResults: few})
	assert.Len(t, view.InlineCards, 1)
	assert.False(t, view.SeeMore)
}

func TestResolveViewDropsEmptyMessages(t *testing.T) {
	view := ResolveView(ViewInput{Messages: []Message{
		{Content: "keep me", IsUser: true},
		{},
		{Images: []string{"img.png"}},
	}})

	require.Equal(t, ViewMessages, view.Kind)
	require.Len(t, view.Messages, 2)
	assert.Equal(t, "keep me", view.Messages[0].Content)
}

func TestResolveViewAllEmptyIsWelcome(t *testing.T) {
	view := ResolveView(ViewInput{Messages: []Message{{}, {}}})
	assert.Equal(t, ViewWelcome, view.Kind)
}
