package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-ai/inkwell/internal/chat/contract"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New("test-key", srv.URL, "gpt-4o")
}

func completionBody(content string, toolCalls ...map[string]any) map[string]any {
	msg := map[string]any{"role": "assistant", "content": content}
	if len(toolCalls) > 0 {
		msg["tool_calls"] = toolCalls
	}
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"model":   "gpt-4o",
		"choices": []map[string]any{{"index": 0, "message": msg, "finish_reason": "stop"}},
	}
}

func TestGenerate_RequestMapping(t *testing.T) {
	var captured map[string]any
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionBody("ok"))
	})

	_, err := p.Generate(context.Background(), contract.CompletionRequest{
		Messages: []contract.Message{
			{Role: "system", Content: "briefing"},
			{Role: "assistant", ToolCalls: []*contract.ToolCall{
				{ID: "call_1", Name: "edit_chapter", Args: map[string]any{"chapter_id": float64(3)}},
			}},
			{Role: "tool", Content: "done", ToolCallID: "call_1"},
		},
		Tools: []contract.ToolDef{
			{Name: "edit_chapter", Description: "Edit a chapter"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", captured["model"])

	msgs := captured["messages"].([]any)
	require.Len(t, msgs, 3)

	assistant := msgs[1].(map[string]any)
	tcs := assistant["tool_calls"].([]any)
	require.Len(t, tcs, 1)
	fn := tcs[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "edit_chapter", fn["name"])
	assert.JSONEq(t, `{"chapter_id":3}`, fn["arguments"].(string))

	toolMsg := msgs[2].(map[string]any)
	assert.Equal(t, "call_1", toolMsg["tool_call_id"])

	tools := captured["tools"].([]any)
	require.Len(t, tools, 1)
	def := tools[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "Edit a chapter", def["description"])

	params := def["parameters"].(map[string]any)
	assert.Equal(t, "object", params["type"])
	assert.Empty(t, params["properties"])
}

func TestGenerate_ExplicitModelWins(t *testing.T) {
	var captured map[string]any
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(completionBody("ok"))
	})

	_, err := p.Generate(context.Background(), contract.CompletionRequest{
		Model:    "gpt-4o-mini",
		Messages: []contract.Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", captured["model"])
}

func TestGenerate_ResponseToolCalls(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(completionBody("",
			map[string]any{
				"id":   "call_abc",
				"type": "function",
				"function": map[string]any{
					"name":      "edit_chapter",
					"arguments": `{"chapter_id": 3}`,
				},
			},
			map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":      "list_chapters",
					"arguments": "not json",
				},
			},
		))
	})

	resp, err := p.Generate(context.Background(), contract.CompletionRequest{
		Messages: []contract.Message{{Role: "user", Content: "edit it"}},
	})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 2)

	assert.Equal(t, "call_abc", resp.ToolCalls[0].ID)
	assert.Equal(t, "edit_chapter", resp.ToolCalls[0].Name)
	assert.Equal(t, map[string]any{"chapter_id": float64(3)}, resp.ToolCalls[0].Args)

	assert.Equal(t, "call_2", resp.ToolCalls[1].ID)
	assert.Equal(t, map[string]any{}, resp.ToolCalls[1].Args)
}

func TestGenerate_NoChoices(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": "chatcmpl-1", "choices": []any{}})
	})

	_, err := p.Generate(context.Background(), contract.CompletionRequest{
		Messages: []contract.Message{{Role: "user", Content: "hi"}},
	})
	assert.ErrorContains(t, err, "no choices")
}

func TestGenerate_HTTPError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	})

	_, err := p.Generate(context.Background(), contract.CompletionRequest{
		Messages: []contract.Message{{Role: "user", Content: "hi"}},
	})
	assert.ErrorContains(t, err, "openai request failed")
}

func TestEmbed(t *testing.T) {
	var captured map[string]any
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": []float32{0.5, -0.25}},
			},
		})
	})

	vec, err := p.Embed(context.Background(), "low water")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.25}, vec)
	assert.Equal(t, "gpt-4o", captured["model"])
}

func TestEmbed_EmptyData(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": []any{}})
	})

	_, err := p.Embed(context.Background(), "low water")
	assert.ErrorContains(t, err, "no embedding data")
}
