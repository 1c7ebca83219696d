package detect

import (
	"fmt"
	"strings"
)

// Detect compares two captures of a monitored element and classifies the
// difference. It is pure: same inputs always produce the same verdict.
//
// Item counts win over text: when both sides carry a count and the counts
// differ, the verdict is based on list cardinality alone and the text is
// not diffed. Equal non-nil counts (and any nil count) fall through to the
// word-level text comparison.
func Detect(prev, curr Content) Verdict {
	if prev.ItemCount != nil && curr.ItemCount != nil && *prev.ItemCount != *curr.ItemCount {
		before := *prev.ItemCount
		after := *curr.ItemCount
		delta := after - before

		changeType := ChangeRemoved
		if delta > 0 {
			changeType = ChangeAdded
		}

		return Verdict{
			HasChanged: true,
			ChangeType: changeType,
			Summary:    fmt.Sprintf("Item count changed from %d to %d (%+d)", before, after, delta),
			Diff:       &DiffData{Kind: DiffItemCount, Before: before, After: after},
		}
	}

	segments := WordDiff(
		strings.TrimSpace(prev.TextContent),
		strings.TrimSpace(curr.TextContent),
	)

	if !HasChanges(segments) {
		return Verdict{HasChanged: false}
	}

	var addedParts, removedParts []string
	for _, s := range segments {
		switch {
		case s.Added:
			addedParts = append(addedParts, s.Value)
		case s.Removed:
			removedParts = append(removedParts, s.Value)
		}
	}
	added := strings.Join(addedParts, " ")
	removed := strings.Join(removedParts, " ")

	var changeType ChangeType
	var summary string
	switch {
	case added != "" && removed != "":
		changeType = ChangeModified
		summary = fmt.Sprintf("Content modified: \"%s...\" → \"%s...\"", truncate(removed, 50), truncate(added, 50))
	case added != "":
		changeType = ChangeAdded
		summary = fmt.Sprintf("Content added: \"%s...\"", truncate(added, 100))
	default:
		changeType = ChangeRemoved
		summary = fmt.Sprintf("Content removed: \"%s...\"", truncate(removed, 100))
	}

	return Verdict{
		HasChanged: true,
		ChangeType: changeType,
		Summary:    summary,
		Diff:       &DiffData{Kind: DiffText, Segments: segments},
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
