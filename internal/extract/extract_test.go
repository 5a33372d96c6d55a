package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nstepro/the-compound-sub000/internal/config"
	"github.com/nstepro/the-compound-sub000/internal/model"
	"github.com/nstepro/the-compound-sub000/internal/segment"
	"github.com/nstepro/the-compound-sub000/pkg/anthropic"
)

type mockAI struct {
	resp     *anthropic.MessageResponse
	err      error
	requests []anthropic.MessageRequest
}

func (m *mockAI) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content:    []anthropic.ContentBlock{{Type: "text", Text: text}},
		StopReason: "end_turn",
		Usage:      anthropic.TokenUsage{InputTokens: 100, OutputTokens: 50},
	}
}

var testCfg = config.AnthropicConfig{
	Model:            "claude-sonnet-4-5-20250929",
	ExtractMaxTokens: 16384,
}

func TestExtract_Scenario(t *testing.T) {
	ai := &mockAI{resp: textResponse(`[
		{
			"name": "Blue Moon Cafe",
			"type": "dining",
			"description": "Amazing breakfast spot on the harbor",
			"category": "Restaurants & Food",
			"origText": "**Blue Moon Cafe** - https://bluemooncafe.com\nAmazing breakfast spot on the harbor!"
		}
	]`)}

	sections := []segment.Section{{
		Category:     "Restaurants & Food",
		HeadingLevel: 2,
		Body:         "**Blue Moon Cafe** - https://bluemooncafe.com\nAmazing breakfast spot on the harbor!",
	}}

	result, err := Extract(context.Background(), ai, testCfg, sections, "Door County, WI")
	require.NoError(t, err)
	require.Len(t, result.Places, 1)

	p := result.Places[0]
	assert.Equal(t, "Blue Moon Cafe", p.Name)
	assert.Equal(t, model.TypeDining, p.Type)
	assert.Equal(t, "Restaurants & Food", p.Category)
	assert.Equal(t, "**Blue Moon Cafe** - https://bluemooncafe.com\nAmazing breakfast spot on the harbor!", p.OrigText)
	assert.Equal(t, "blue-moon-cafe", p.Slug())
	assert.Equal(t, int64(50), result.Usage.OutputTokens)
}

func TestExtract_CodeFencedResponse(t *testing.T) {
	ai := &mockAI{resp: textResponse("```json\n[{\"name\":\"Pier 39\",\"type\":\"activity\",\"category\":\"Sights\",\"origText\":\"Pier 39 is worth a stroll.\"}]\n```")}

	result, err := Extract(context.Background(), ai, testCfg, flatSections("Pier 39 is worth a stroll."), "")
	require.NoError(t, err)
	require.Len(t, result.Places, 1)
	assert.Equal(t, "Pier 39", result.Places[0].Name)
}

func TestExtract_ZeroCandidates(t *testing.T) {
	ai := &mockAI{resp: textResponse(`[]`)}

	_, err := Extract(context.Background(), ai, testCfg, flatSections("Nothing here."), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no places")
}

func TestExtract_Truncated(t *testing.T) {
	resp := textResponse(`[{"name":"Cut`)
	resp.StopReason = "max_tokens"
	ai := &mockAI{resp: resp}

	_, err := Extract(context.Background(), ai, testCfg, flatSections("A long document."), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated")
}

func TestExtract_UnparseableResponse(t *testing.T) {
	ai := &mockAI{resp: textResponse("I could not find any places, sorry!")}

	_, err := Extract(context.Background(), ai, testCfg, flatSections("Some text."), "")
	assert.Error(t, err)
}

func TestExtract_CompletionError(t *testing.T) {
	ai := &mockAI{err: errors.New("api down")}

	_, err := Extract(context.Background(), ai, testCfg, flatSections("Some text."), "")
	assert.Error(t, err)
}

func TestExtract_EmptyDocument(t *testing.T) {
	ai := &mockAI{}

	_, err := Extract(context.Background(), ai, testCfg, nil, "")
	require.Error(t, err)
	assert.Empty(t, ai.requests, "no completion issued for an empty document")
}

func TestExtract_DropsNamelessCandidates(t *testing.T) {
	ai := &mockAI{resp: textResponse(`[
		{"name":"","category":"Dining","origText":"something"},
		{"name":"Kept Cafe","type":"dining","category":"Dining","origText":"Kept Cafe rules."}
	]`)}

	result, err := Extract(context.Background(), ai, testCfg, flatSections("doc"), "")
	require.NoError(t, err)
	require.Len(t, result.Places, 1)
	assert.Equal(t, "Kept Cafe", result.Places[0].Name)
}

func TestExtract_CategoryCanonicalization(t *testing.T) {
	ai := &mockAI{resp: textResponse(`[
		{"name":"A","category":"restaurants & food","origText":"a"},
		{"name":"B","category":"Restaurants & Food","origText":"b"},
		{"name":"C","category":"","origText":"c"}
	]`)}

	result, err := Extract(context.Background(), ai, testCfg, flatSections("doc"), "")
	require.NoError(t, err)
	require.Len(t, result.Places, 3)
	assert.Equal(t, result.Places[0].Category, result.Places[1].Category,
		"same category spelled differently collapses to one canonical form")
	assert.Equal(t, "Uncategorized", result.Places[2].Category)
}

func TestJoinSections(t *testing.T) {
	sections := []segment.Section{
		{Body: "Intro text."},
		{Category: "Dining", HeadingLevel: 1, Body: "Tony's."},
		{Category: "Hidden Gems", HeadingLevel: 3, Body: "The cove."},
	}
	joined := joinSections(sections)
	assert.Contains(t, joined, "Intro text.")
	assert.Contains(t, joined, "# Dining")
	assert.Contains(t, joined, "### Hidden Gems")
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare array", `[1]`, `[1]`},
		{"json fence", "```json\n[1]\n```", `[1]`},
		{"plain fence", "```\n[1]\n```", `[1]`},
		{"surrounding prose", "Here you go: [1] hope that helps", `[1]`},
		{"no array at all", "nothing", "nothing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSON(tt.in))
		})
	}
}

func flatSections(body string) []segment.Section {
	return []segment.Section{{Body: body}}
}
