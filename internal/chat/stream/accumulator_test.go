package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idx(i int) *int { return &i }

func TestAccumulator_SingleCallAcrossFragments(t *testing.T) {
	acc := NewAccumulator()
	acc.Add([]ToolCallFragment{{Index: idx(0), ID: "call_abc", Function: FunctionFragment{Name: "get_chapter_content"}}})
	acc.Add([]ToolCallFragment{{Index: idx(0), Function: FunctionFragment{Arguments: `{"chapter_`}}})
	acc.Add([]ToolCallFragment{{Index: idx(0), Function: FunctionFragment{Arguments: `id":7}`}}})

	calls := acc.Finalize()
	require.Len(t, calls, 1)
	assert.Equal(t, "call_abc", calls[0].ID)
	assert.Equal(t, "get_chapter_content", calls[0].Name)
	assert.Equal(t, map[string]any{"chapter_id": float64(7)}, calls[0].Args)
}

func TestAccumulator_NameResendSuppressed(t *testing.T) {
	acc := NewAccumulator()
	acc.Add([]ToolCallFragment{{Index: idx(0), Function: FunctionFragment{Name: "search_sourcebook"}}})
	acc.Add([]ToolCallFragment{{Index: idx(0), Function: FunctionFragment{Name: "search_sourcebook"}}})

	calls := acc.Finalize()
	require.Len(t, calls, 1)
	assert.Equal(t, "search_sourcebook", calls[0].Name)
}

func TestAccumulator_NameIncrementalAppend(t *testing.T) {
	acc := NewAccumulator()
	acc.Add([]ToolCallFragment{{Index: idx(0), Function: FunctionFragment{Name: "search_"}}})
	acc.Add([]ToolCallFragment{{Index: idx(0), Function: FunctionFragment{Name: "sourcebook"}}})

	calls := acc.Finalize()
	require.Len(t, calls, 1)
	assert.Equal(t, "search_sourcebook", calls[0].Name)
}

func TestAccumulator_IDLastNonEmptyWins(t *testing.T) {
	acc := NewAccumulator()
	acc.Add([]ToolCallFragment{{Index: idx(0), ID: "call_1", Function: FunctionFragment{Name: "f"}}})
	acc.Add([]ToolCallFragment{{Index: idx(0), ID: "call_2"}})
	acc.Add([]ToolCallFragment{{Index: idx(0)}})

	calls := acc.Finalize()
	require.Len(t, calls, 1)
	assert.Equal(t, "call_2", calls[0].ID)
}

func TestAccumulator_SparseIndices(t *testing.T) {
	acc := NewAccumulator()
	acc.Add([]ToolCallFragment{
		{Index: idx(0), ID: "a", Function: FunctionFragment{Name: "first"}},
		{Index: idx(2), ID: "c", Function: FunctionFragment{Name: "third"}},
	})

	calls := acc.Finalize()
	require.Len(t, calls, 2)
	assert.Equal(t, "first", calls[0].Name)
	assert.Equal(t, "third", calls[1].Name)
}

func TestAccumulator_MissingIndexDefaultsToZero(t *testing.T) {
	acc := NewAccumulator()
	acc.Add([]ToolCallFragment{{Function: FunctionFragment{Name: "write_"}}})
	acc.Add([]ToolCallFragment{{Function: FunctionFragment{Name: "summary"}}})

	calls := acc.Finalize()
	require.Len(t, calls, 1)
	assert.Equal(t, "write_summary", calls[0].Name)
}

func TestAccumulator_NegativeIndexDropped(t *testing.T) {
	acc := NewAccumulator()
	acc.Add([]ToolCallFragment{{Index: idx(-1), Function: FunctionFragment{Name: "bad"}}})

	assert.Empty(t, acc.Finalize())
}

func TestAccumulator_MalformedArgsDegradeToEmptyObject(t *testing.T) {
	acc := NewAccumulator()
	acc.Add([]ToolCallFragment{{Index: idx(0), ID: "c1", Function: FunctionFragment{Name: "f", Arguments: `{"broken":`}}})

	calls := acc.Finalize()
	require.Len(t, calls, 1)
	assert.Equal(t, map[string]any{}, calls[0].Args)
}

func TestAccumulator_NonObjectArgsDegradeToEmptyObject(t *testing.T) {
	acc := NewAccumulator()
	acc.Add([]ToolCallFragment{{Index: idx(0), ID: "c1", Function: FunctionFragment{Name: "f", Arguments: `"just a string"`}}})

	calls := acc.Finalize()
	require.Len(t, calls, 1)
	assert.Equal(t, map[string]any{}, calls[0].Args)
}

func TestAccumulator_MissingIDGetsFallback(t *testing.T) {
	acc := NewAccumulator()
	acc.Add([]ToolCallFragment{
		{Index: idx(0), Function: FunctionFragment{Name: "first", Arguments: "{}"}},
		{Index: idx(1), Function: FunctionFragment{Name: "second", Arguments: "{}"}},
	})

	calls := acc.Finalize()
	require.Len(t, calls, 2)
	assert.Equal(t, "call_1", calls[0].ID)
	assert.Equal(t, "call_2", calls[1].ID)
}

func TestAccumulator_EmptySlotsDropped(t *testing.T) {
	acc := NewAccumulator()
	acc.Add([]ToolCallFragment{
		{Index: idx(1), ID: "only", Function: FunctionFragment{Name: "f", Arguments: "{}"}},
	})

	calls := acc.Finalize()
	require.Len(t, calls, 1)
	assert.Equal(t, "only", calls[0].ID)
}

func TestAccumulator_ArgsRoundTripAcrossFragmentation(t *testing.T) {
	full := `{"chapter_id":12,"style":"noir","keep_pov":true}`

	acc := NewAccumulator()
	acc.Add([]ToolCallFragment{{Index: idx(0), ID: "c1", Function: FunctionFragment{Name: "rewrite_chapter"}}})
	for i := 0; i < len(full); i += 3 {
		end := i + 3
		if end > len(full) {
			end = len(full)
		}
		acc.Add([]ToolCallFragment{{Index: idx(0), Function: FunctionFragment{Arguments: full[i:end]}}})
	}

	calls := acc.Finalize()
	require.Len(t, calls, 1)
	assert.Equal(t, map[string]any{
		"chapter_id": float64(12),
		"style":      "noir",
		"keep_pov":   true,
	}, calls[0].Args)
}
