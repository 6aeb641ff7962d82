package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formula-editor/internal/locale"
	"formula-editor/internal/types"
)

func TestPreviewHTML(t *testing.T) {
	p := NewPreviewer()

	html, err := p.PreviewHTML([]types.FormulaItem{
		{Latex: `a<b \\ c_1`, Note: strPtr("first")},
		{Latex: "x^2"},
	}, locale.Parse("en"))
	require.NoError(t, err)

	assert.Contains(t, html, "<h3>Formula 1</h3>")
	assert.Contains(t, html, "<strong>first</strong>")
	assert.Contains(t, html, `<div class="math display">\[a&lt;b \\ c_1\]</div>`)
	assert.Contains(t, html, `<div class="math display">\[x^2\]</div>`)
	assert.NotContains(t, html, "<pre>")
}

func TestPreviewHTML_Empty(t *testing.T) {
	html, err := NewPreviewer().PreviewHTML(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "", html)
}

func TestPreviewHTML_BacktickBody(t *testing.T) {
	html, err := NewPreviewer().PreviewHTML([]types.FormulaItem{{Latex: "```\n\\text{x}"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(html, `class="math display"`))
	assert.Contains(t, html, "```\n\\text{x}")
}

func TestCodeFence(t *testing.T) {
	assert.Equal(t, "```", codeFence("x"))
	assert.Equal(t, "```", codeFence("a``b"))
	assert.Equal(t, "````", codeFence("```"))
	assert.Equal(t, "``````", codeFence("a`````b"))
}
