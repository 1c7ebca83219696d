package detect

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDiffHTML(t *testing.T) {
	t.Run("nil payload", func(t *testing.T) {
		assert.Equal(t, "No changes detected", FormatDiffHTML(nil))
	})

	t.Run("item count", func(t *testing.T) {
		html := FormatDiffHTML(&DiffData{Kind: DiffItemCount, Before: 5, After: 8})
		assert.Equal(t, "Item count changed from 5 to 8", html)
	})

	t.Run("text diff marks runs", func(t *testing.T) {
		html := FormatDiffHTML(&DiffData{Kind: DiffText, Segments: []Segment{
			{Value: "keep "},
			{Value: "old", Removed: true},
			{Value: "new", Added: true},
		}})

		assert.Contains(t, html, "line-through")
		assert.Contains(t, html, ">old</span>")
		assert.Contains(t, html, ">new</span>")
		assert.Contains(t, html, "keep ")
	})

	t.Run("escapes markup in content", func(t *testing.T) {
		html := FormatDiffHTML(&DiffData{Kind: DiffText, Segments: []Segment{
			{Value: `<script>alert("x")</script>`, Added: true},
		}})

		assert.NotContains(t, html, "<script>")
		assert.Contains(t, html, "&lt;script&gt;")
		assert.Contains(t, html, "&quot;x&quot;")
	})
}

func TestDiffData_JSONShape(t *testing.T) {
	t.Run("item count payload", func(t *testing.T) {
		data, err := json.Marshal(DiffData{Kind: DiffItemCount, Before: 2, After: 6})
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"itemCount","before":2,"after":6}`, string(data))

		var decoded DiffData
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, DiffItemCount, decoded.Kind)
		assert.Equal(t, 2, decoded.Before)
		assert.Equal(t, 6, decoded.After)
	})

	t.Run("text payload preserves segment order", func(t *testing.T) {
		original := DiffData{Kind: DiffText, Segments: []Segment{
			{Value: "a "},
			{Value: "b", Removed: true},
			{Value: "c", Added: true},
		}}

		data, err := json.Marshal(original)
		require.NoError(t, err)

		var decoded DiffData
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, original, decoded)
	})

	t.Run("unknown kind rejected", func(t *testing.T) {
		var decoded DiffData
		err := json.Unmarshal([]byte(`{"type":"binary"}`), &decoded)
		assert.Error(t, err)
	})
}
