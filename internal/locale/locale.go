// Package locale resolves the user interface language and formats every
// user-facing literal of the backend through a golang.org/x/text catalog.
package locale

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. The key doubles as the English text.
const (
	KeyCategoryName    = "Category %s"
	KeyTemplateName    = "Template %s"
	KeyFormulaHeading  = "Formula %s"
	KeyInvalidJSON     = "The file content is not valid JSON"
	KeyTemplateFile    = "This is a template library file, please import it with \"Bind templates\""
	KeyNotFormulaArray = "Wrong file format: a formula collection must be a JSON array"
	KeyReadFailed      = "Failed to read file"
	KeyWriteFailed     = "Failed to write file"
	KeyWriteLatex      = "Failed to write LaTeX file"
	KeyWriteMarkdown   = "Failed to write Markdown file"
	KeyConfigDir       = "Failed to get config directory"
	KeySetTitle        = "Failed to set title"
	KeyEmptyPath       = "File path is empty"
	KeyOpenJSONTitle   = "Open formula file"
	KeySaveJSONTitle   = "Save formula file"
	KeyExportLatex     = "Export LaTeX"
	KeyExportMarkdown  = "Export Markdown"
	KeyJSONFilter      = "JSON Files"
	KeyLatexFilter     = "LaTeX Files"
	KeyMarkdownFilter  = "Markdown Files"
)

var (
	// Chinese is the default interface language, also used when a requested
	// language matches neither supported tag.
	Chinese = language.Chinese
	English = language.English

	supported = []language.Tag{Chinese, English}
	matcher   = language.NewMatcher(supported)
	messages  = newCatalog()
)

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(Chinese))
	zh := map[string]string{
		KeyCategoryName:    "分类 %s",
		KeyTemplateName:    "模板 %s",
		KeyFormulaHeading:  "公式 %s",
		KeyInvalidJSON:     "文件内容不是有效的 JSON 格式",
		KeyTemplateFile:    "这是模板库文件，请使用“绑定模板”功能导入",
		KeyNotFormulaArray: "文件格式错误：公式集必须是 JSON 数组",
		KeyReadFailed:      "读取文件失败",
		KeyWriteFailed:     "写入文件失败",
		KeyWriteLatex:      "写入 LaTeX 文件失败",
		KeyWriteMarkdown:   "写入 Markdown 文件失败",
		KeyConfigDir:       "无法获取配置目录",
		KeySetTitle:        "设置窗口标题失败",
		KeyEmptyPath:       "文件路径为空",
		KeyOpenJSONTitle:   "打开公式文件",
		KeySaveJSONTitle:   "保存公式文件",
		KeyExportLatex:     "导出 LaTeX",
		KeyExportMarkdown:  "导出 Markdown",
		KeyJSONFilter:      "JSON 文件",
		KeyLatexFilter:     "LaTeX 文件",
		KeyMarkdownFilter:  "Markdown 文件",
	}
	for key, text := range zh {
		b.SetString(Chinese, key, text)
		b.SetString(English, key, key)
	}
	return b
}

// Locale formats messages for one resolved language. The zero value is not
// usable; use New, Default or Parse. A nil *Locale behaves like Default().
type Locale struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a Locale for tag after matching it against the supported set.
func New(tag language.Tag) *Locale {
	_, idx, _ := matcher.Match(tag)
	resolved := supported[idx]
	return &Locale{
		tag:     resolved,
		printer: message.NewPrinter(resolved, message.Catalog(messages)),
	}
}

// Default returns the Chinese locale.
func Default() *Locale {
	return New(Chinese)
}

// Parse resolves a BCP 47 string such as "en-US" or "zh-CN". Empty or
// unparseable input yields the default locale.
func Parse(s string) *Locale {
	if s == "" {
		return Default()
	}
	tag, err := language.Parse(s)
	if err != nil {
		return Default()
	}
	return New(tag)
}

// Or returns l, or the default locale when l is nil.
func Or(l *Locale) *Locale {
	if l == nil {
		return Default()
	}
	return l
}

// Tag returns the resolved language tag.
func (l *Locale) Tag() language.Tag {
	return Or(l).tag
}

// Code returns the short language code ("zh" or "en").
func (l *Locale) Code() string {
	base, _ := Or(l).tag.Base()
	return base.String()
}

// Text returns the localized text for key.
func (l *Locale) Text(key string) string {
	return Or(l).printer.Sprintf(key)
}

// Numbered formats a key taking a single 1-based ordinal, e.g. "分类 3".
// The number is passed pre-formatted so no digit grouping is applied.
func (l *Locale) Numbered(key string, n int) string {
	return Or(l).printer.Sprintf(key, strconv.Itoa(n))
}

// CategoryName is the synthesized name of the n-th category.
func (l *Locale) CategoryName(n int) string {
	return l.Numbered(KeyCategoryName, n)
}

// TemplateName is the synthesized name of the n-th template.
func (l *Locale) TemplateName(n int) string {
	return l.Numbered(KeyTemplateName, n)
}

// FormulaHeading is the Markdown heading text of the n-th formula.
func (l *Locale) FormulaHeading(n int) string {
	return l.Numbered(KeyFormulaHeading, n)
}
