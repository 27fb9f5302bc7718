package anthropic

import (
	"context"
	"testing"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-ai/inkwell/internal/chat/contract"
)

func TestBuildMessages_RoleMapping(t *testing.T) {
	messages := buildMessages([]contract.Message{
		{Role: "user", Content: "draft chapter three"},
		{Role: "assistant", Content: "on it"},
		{Role: "tool", Content: `{"ok":true}`, ToolCallID: "call_1"},
		{Role: "system", Content: "briefing"},
	})

	require.Len(t, messages, 4)
	assert.Equal(t, anthropic.MessageParamRoleUser, messages[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, messages[1].Role)
	assert.Equal(t, anthropic.MessageParamRoleUser, messages[2].Role)
	assert.Equal(t, anthropic.MessageParamRoleUser, messages[3].Role)

	require.Len(t, messages[2].Content, 1)
	result := messages[2].Content[0].OfToolResult
	require.NotNil(t, result)
	assert.Equal(t, "call_1", result.ToolUseID)
}

func TestBuildTools_SchemaProperties(t *testing.T) {
	tools := buildTools([]contract.ToolDef{
		{
			Name:        "edit_chapter",
			Description: "Edit a chapter",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"chapter_id": map[string]any{"type": "integer"},
				},
			},
		},
		{Name: "list_chapters"},
	})

	require.Len(t, tools, 2)

	first := tools[0].OfTool
	require.NotNil(t, first)
	assert.Equal(t, "edit_chapter", first.Name)
	assert.Equal(t, "Edit a chapter", first.Description.Value)
	assert.Contains(t, first.InputSchema.Properties, "chapter_id")

	second := tools[1].OfTool
	require.NotNil(t, second)
	assert.Empty(t, second.InputSchema.Properties)
}

func TestEmbed_Unsupported(t *testing.T) {
	p := New("test-key")
	_, err := p.Embed(context.Background(), "low water")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding not supported")
}
