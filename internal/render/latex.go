package render

import (
	"strconv"
	"strings"

	"formula-editor/internal/types"
)

const (
	latexPreamble  = "\\documentclass{article}\n\\usepackage{amsmath}\n\\usepackage{ctex}\n\\begin{document}\n"
	latexPostamble = "\n\\end{document}\n"
)

// FormatLatex renders items as a complete LaTeX document with one numbered
// equation per item. An empty collection renders as the empty string.
func FormatLatex(items []types.FormulaItem) string {
	if len(items) == 0 {
		return ""
	}

	blocks := make([]string, len(items))
	for i, item := range items {
		blocks[i] = latexBlock(i+1, item)
	}

	var sb strings.Builder
	sb.WriteString(latexPreamble)
	sb.WriteString(strings.Join(blocks, "\n\n"))
	sb.WriteString(latexPostamble)
	return sb.String()
}

// latexBlock renders the n-th equation, preceded by its bold note if any.
// The LaTeX body is emitted verbatim.
func latexBlock(n int, item types.FormulaItem) string {
	var sb strings.Builder
	if note, ok := trimmedNote(item.Note); ok {
		sb.WriteString("\\noindent\\textbf{")
		sb.WriteString(EscapeLatexText(note))
		sb.WriteString("}\\\\\n")
	}
	sb.WriteString("\\begin{equation}\\label{eq:")
	sb.WriteString(strconv.Itoa(n))
	sb.WriteString("}\n")
	sb.WriteString(item.Latex)
	sb.WriteString("\n\\end{equation}")
	return sb.String()
}

func trimmedNote(note *string) (string, bool) {
	if note == nil {
		return "", false
	}
	trimmed := strings.TrimSpace(*note)
	return trimmed, trimmed != ""
}
