package llm

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "unquoted keys",
			input: `{summary: "ok", tags: ["a"]}`,
		},
		{
			name:  "trailing comma in object",
			input: `{"summary": "ok",}`,
		},
		{
			name:  "trailing comma in array",
			input: `{"tags": ["a", "b",]}`,
		},
		{
			name:  "already valid",
			input: `{"summary": "ok"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repaired := repairJSON(tt.input)
			var out map[string]any
			require.NoError(t, json.Unmarshal([]byte(repaired), &out), "repaired: %s", repaired)
		})
	}
}

func TestStripFences(t *testing.T) {
	payload := `{"summary": "ok"}`

	assert.Equal(t, payload, stripFences("```json\n"+payload+"\n```"))
	assert.Equal(t, payload, stripFences("```\n"+payload+"\n```"))
	assert.Equal(t, payload, stripFences("  "+payload+"  "))
}

func TestTruncateText(t *testing.T) {
	short := "short text"
	assert.Equal(t, short, truncateText(short, 100))

	long := strings.Repeat("a", 200)
	got := truncateText(long, 100)
	assert.True(t, strings.HasSuffix(got, truncationMarker))
	assert.Equal(t, 100, len(strings.TrimSuffix(got, truncationMarker)))
}

func TestTruncateText_RuneBoundary(t *testing.T) {
	// Cutting in the middle of a multibyte rune must back up to a boundary.
	long := strings.Repeat("あ", 100) // 3 bytes each
	got := strings.TrimSuffix(truncateText(long, 100), truncationMarker)
	assert.True(t, len(got) <= 100)
	for _, r := range got {
		assert.Equal(t, 'あ', r)
	}
}
