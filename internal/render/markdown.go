package render

import (
	"strings"

	"formula-editor/internal/locale"
	"formula-editor/internal/types"
)

// mathFence delimits display math in the Markdown export.
const mathFence = "$$"

// FormatMarkdown renders items as Markdown: a level-3 heading per formula,
// an optional bold note and the LaTeX body between display-math fences.
// Headings are localized with loc (nil means the default locale).
func FormatMarkdown(items []types.FormulaItem, loc *locale.Locale) string {
	if len(items) == 0 {
		return ""
	}

	segments := make([]string, len(items))
	for i, item := range items {
		parts := []string{"### " + loc.FormulaHeading(i+1)}
		if note, ok := trimmedNote(item.Note); ok {
			parts = append(parts, "**"+note+"**")
		}
		parts = append(parts, mathFence, item.Latex, mathFence)
		segments[i] = strings.Join(parts, "\n\n")
	}
	return strings.Join(segments, "\n\n")
}
