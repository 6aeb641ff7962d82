// Package render turns formula collections into LaTeX and Markdown documents.
package render

import "strings"

// latexSpecials are the characters EscapeLatexText prefixes with a backslash.
const latexSpecials = `\#%&_$^{}`

// EscapeLatexText escapes LaTeX metacharacters in plain annotation text.
// Escaping is per character: an existing backslash sequence is escaped again.
func EscapeLatexText(text string) string {
	if !strings.ContainsAny(text, latexSpecials) {
		return text
	}
	var sb strings.Builder
	sb.Grow(len(text) + 8)
	for _, r := range text {
		if strings.ContainsRune(latexSpecials, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
