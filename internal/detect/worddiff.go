package detect

import (
	"strings"
	"unicode"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// WordDiff computes a word-level diff between two strings. Each input is
// split into alternating word and whitespace tokens, the token streams are
// diffed, and adjacent runs of the same type are merged. The resulting
// segments partition both inputs: concatenating the non-removed segments
// reproduces curr, concatenating the non-added segments reproduces prev.
func WordDiff(prev, curr string) []Segment {
	prevTokens := tokenize(prev)
	currTokens := tokenize(curr)

	enc := newTokenEncoder()
	encPrev := enc.encode(prevTokens)
	encCurr := enc.encode(currTokens)

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(encPrev, encCurr, false)

	var segments []Segment
	for _, d := range diffs {
		value := enc.decode(d.Text)
		if value == "" {
			continue
		}

		added := d.Type == diffmatchpatch.DiffInsert
		removed := d.Type == diffmatchpatch.DiffDelete

		if n := len(segments); n > 0 && segments[n-1].Added == added && segments[n-1].Removed == removed {
			segments[n-1].Value += value
			continue
		}

		segments = append(segments, Segment{Value: value, Added: added, Removed: removed})
	}

	return segments
}

// HasChanges reports whether any segment was inserted or removed.
func HasChanges(segments []Segment) bool {
	for _, s := range segments {
		if s.Added || s.Removed {
			return true
		}
	}
	return false
}

// tokenize splits a string into maximal runs of whitespace and
// non-whitespace. Concatenating the tokens reproduces the input exactly.
func tokenize(s string) []string {
	var tokens []string
	var b strings.Builder
	var inSpace bool

	for _, r := range s {
		isSpace := unicode.IsSpace(r)
		if b.Len() > 0 && isSpace != inSpace {
			tokens = append(tokens, b.String())
			b.Reset()
		}
		inSpace = isSpace
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}

	return tokens
}

// tokenEncoder maps distinct tokens to single runes so diffmatchpatch can
// diff at token granularity, mirroring its own lines-to-chars trick.
type tokenEncoder struct {
	ids    map[string]rune
	tokens []string
	next   rune
}

func newTokenEncoder() *tokenEncoder {
	return &tokenEncoder{ids: make(map[string]rune), next: 1}
}

func (e *tokenEncoder) encode(tokens []string) string {
	var b strings.Builder
	for _, tok := range tokens {
		id, ok := e.ids[tok]
		if !ok {
			id = e.next
			// Skip the UTF-16 surrogate range, which is not encodable
			// as a Go string rune.
			if e.next == 0xD800 {
				e.next = 0xE000
				id = e.next
			}
			e.next++
			e.ids[tok] = id
			e.tokens = append(e.tokens, tok)
		}
		b.WriteRune(id)
	}
	return b.String()
}

func (e *tokenEncoder) decode(encoded string) string {
	var b strings.Builder
	for _, r := range encoded {
		idx := int(r) - 1
		if r >= 0xE000 {
			idx = int(r) - 1 - (0xE000 - 0xD800)
		}
		if idx >= 0 && idx < len(e.tokens) {
			b.WriteString(e.tokens[idx])
		}
	}
	return b.String()
}
