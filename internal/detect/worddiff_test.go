package detect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func reconstruct(segments []Segment, skipAdded, skipRemoved bool) string {
	var b strings.Builder
	for _, s := range segments {
		if skipAdded && s.Added {
			continue
		}
		if skipRemoved && s.Removed {
			continue
		}
		b.WriteString(s.Value)
	}
	return b.String()
}

func TestWordDiff_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		prev string
		curr string
	}{
		{"insertion", "Hello world", "Hello there world"},
		{"removal", "one two three four", "one four"},
		{"replacement", "price: 100 USD", "price: 120 USD"},
		{"identical", "nothing changed here", "nothing changed here"},
		{"empty previous", "", "brand new content"},
		{"empty current", "all gone", ""},
		{"multiline", "line one\nline two", "line one\nline 2\nline three"},
		{"unicode", "café für alle", "café for alle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments := WordDiff(tt.prev, tt.curr)

			// Non-added segments reconstruct the previous text; non-removed
			// segments reconstruct the current text.
			assert.Equal(t, tt.prev, reconstruct(segments, true, false))
			assert.Equal(t, tt.curr, reconstruct(segments, false, true))
		})
	}
}

func TestWordDiff_NoFalsePositiveOnIdentical(t *testing.T) {
	segments := WordDiff("stable text", "stable text")
	assert.False(t, HasChanges(segments))
}

func TestWordDiff_WordGranularity(t *testing.T) {
	segments := WordDiff("the cat sat", "the dog sat")

	var removed, added []string
	for _, s := range segments {
		if s.Removed {
			removed = append(removed, s.Value)
		}
		if s.Added {
			added = append(added, s.Value)
		}
	}

	// Whole words change, not individual characters.
	assert.Equal(t, []string{"cat"}, removed)
	assert.Equal(t, []string{"dog"}, added)
}

func TestWordDiff_SegmentsAreExclusive(t *testing.T) {
	segments := WordDiff("a b c d", "a x c y")
	for _, s := range segments {
		assert.False(t, s.Added && s.Removed, "segment cannot be both added and removed")
	}
}

func TestWordDiff_ManyDistinctTokens(t *testing.T) {
	// Exercises the token encoder with more tokens than a trivial corpus.
	var prevParts, currParts []string
	for i := 0; i < 3000; i++ {
		prevParts = append(prevParts, "tok"+strings.Repeat("a", i%7)+string(rune('a'+i%26)))
	}
	currParts = append(currParts, prevParts[:1500]...)
	currParts = append(currParts, "inserted")
	currParts = append(currParts, prevParts[1500:]...)

	prev := strings.Join(prevParts, " ")
	curr := strings.Join(currParts, " ")

	segments := WordDiff(prev, curr)
	assert.Equal(t, prev, reconstruct(segments, true, false))
	assert.Equal(t, curr, reconstruct(segments, false, true))
	assert.True(t, HasChanges(segments))
}
