package render

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"formula-editor/internal/locale"
	"formula-editor/internal/types"
)

// Previewer renders a formula collection to HTML for the editor preview pane.
// Formulas are emitted as <div class="math display">\[...\]</div> for the
// frontend typesetter; the LaTeX body is HTML-escaped but otherwise untouched.
type Previewer struct {
	md goldmark.Markdown
}

// NewPreviewer creates a Previewer. It is safe for concurrent use.
func NewPreviewer() *Previewer {
	return &Previewer{
		md: goldmark.New(goldmark.WithExtensions(mathExtension{})),
	}
}

// PreviewHTML renders items to an HTML fragment. An empty collection renders
// as the empty string.
func (p *Previewer) PreviewHTML(items []types.FormulaItem, loc *locale.Locale) (string, error) {
	if len(items) == 0 {
		return "", nil
	}
	var buf bytes.Buffer
	if err := p.md.Convert([]byte(previewMarkdown(items, loc)), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// previewMarkdown mirrors FormatMarkdown but puts each body in a "math" fenced
// code block so Markdown inline rules never touch the LaTeX.
func previewMarkdown(items []types.FormulaItem, loc *locale.Locale) string {
	segments := make([]string, len(items))
	for i, item := range items {
		parts := []string{"### " + loc.FormulaHeading(i+1)}
		if note, ok := trimmedNote(item.Note); ok {
			parts = append(parts, "**"+note+"**")
		}
		fence := codeFence(item.Latex)
		parts = append(parts, fence+"math\n"+item.Latex+"\n"+fence)
		segments[i] = strings.Join(parts, "\n\n")
	}
	return strings.Join(segments, "\n\n")
}

// codeFence returns a backtick fence longer than any backtick run in body.
func codeFence(body string) string {
	longest, run := 0, 0
	for _, r := range body {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	if longest < 3 {
		return "```"
	}
	return strings.Repeat("`", longest+1)
}

type mathExtension struct{}

func (mathExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithASTTransformers(
			util.Prioritized(mathTransformer{}, 100),
		),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(mathRenderer{}, 100),
		),
	)
}

type mathNode struct {
	ast.BaseBlock
}

var mathKind = ast.NewNodeKind("MathBlock")

var _ ast.Node = (*mathNode)(nil)

func (n *mathNode) Kind() ast.NodeKind {
	return mathKind
}

func (n *mathNode) IsRaw() bool {
	return true
}

func (n *mathNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

type mathTransformer struct{}

var _ parser.ASTTransformer = mathTransformer{}

func (mathTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	var blocks []*ast.FencedCodeBlock
	ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fenced, ok := node.(*ast.FencedCodeBlock)
		if ok && bytes.Equal(fenced.Language(reader.Source()), []byte("math")) {
			blocks = append(blocks, fenced)
		}
		return ast.WalkContinue, nil
	})
	for _, block := range blocks {
		parent := block.Parent()
		if parent == nil {
			continue
		}
		math := &mathNode{}
		math.SetLines(block.Lines())
		parent.ReplaceChild(parent, block, math)
	}
}

type mathRenderer struct{}

var _ renderer.NodeRenderer = mathRenderer{}

func (mathRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(mathKind, func(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		var body bytes.Buffer
		lines := node.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			body.Write(line.Value(source))
		}
		w.WriteString(`<div class="math display">\[`)
		w.Write(util.EscapeHTML(bytes.TrimRight(body.Bytes(), "\n")))
		w.WriteString("\\]</div>\n")
		return ast.WalkContinue, nil
	})
}
