package detect

import (
	"fmt"
	"strings"
)

// FormatDiffHTML renders a diff payload as inline HTML for notification
// bodies. Text diffs become a monospace block with inserted runs
// highlighted green and removed runs struck through red; all original text
// is HTML-escaped.
func FormatDiffHTML(diff *DiffData) string {
	if diff == nil {
		return "No changes detected"
	}

	switch diff.Kind {
	case DiffItemCount:
		return fmt.Sprintf("Item count changed from %d to %d", diff.Before, diff.After)

	case DiffText:
		var b strings.Builder
		b.WriteString(`<div style="font-family: monospace; white-space: pre-wrap;">`)
		for _, s := range diff.Segments {
			text := escapeHTML(s.Value)
			switch {
			case s.Added:
				b.WriteString(`<span style="background-color: #d4edda; color: #155724;">`)
				b.WriteString(text)
				b.WriteString(`</span>`)
			case s.Removed:
				b.WriteString(`<span style="background-color: #f8d7da; color: #721c24; text-decoration: line-through;">`)
				b.WriteString(text)
				b.WriteString(`</span>`)
			default:
				b.WriteString(text)
			}
		}
		b.WriteString(`</div>`)
		return b.String()

	default:
		return "Changes detected"
	}
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
