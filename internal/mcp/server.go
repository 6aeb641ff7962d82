// Package mcp exposes the normalizers and renderers as Model Context Protocol
// tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"formula-editor/internal/formula"
	"formula-editor/internal/locale"
	"formula-editor/internal/logger"
	"formula-editor/internal/render"
	"formula-editor/internal/templates"
	"formula-editor/internal/types"
)

// ServerName and ServerVersion identify the server to MCP clients.
const (
	ServerName    = "Formula Editor"
	ServerVersion = "1.0.0"
)

// NewServer creates an MCP server with the formula editor tools. defaultLoc
// is used when a call does not pass a locale.
func NewServer(defaultLoc *locale.Locale) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
	)
	defaultLoc = locale.Or(defaultLoc)

	// Tool: normalize_formulas
	s.AddTool(
		mcp.NewTool("normalize_formulas",
			mcp.WithDescription("Normalize a formula collection (a JSON array of {latex, id?, index?, note?}) into canonical entries. Elements without LaTeX are dropped; missing ids and indexes are synthesized."),
			mcp.WithString("content",
				mcp.Required(),
				mcp.Description("The formula collection document as JSON text"),
			),
			localeParam(),
		),
		handleNormalizeFormulas(defaultLoc),
	)

	// Tool: normalize_templates
	s.AddTool(
		mcp.NewTool("normalize_templates",
			mcp.WithDescription("Normalize a template library (an array of categories, or an object with a categories member) into a flat pre-ordered category list with parentId links. Categories nested deeper than 6 levels are dropped."),
			mcp.WithString("content",
				mcp.Required(),
				mcp.Description("The template library document as JSON text"),
			),
			localeParam(),
		),
		handleNormalizeTemplates(defaultLoc),
	)

	// Tool: format_latex
	s.AddTool(
		mcp.NewTool("format_latex",
			mcp.WithDescription("Render a formula collection as a standalone LaTeX document with one numbered equation per formula."),
			mcp.WithString("content",
				mcp.Required(),
				mcp.Description("The formula collection document as JSON text"),
			),
		),
		handleFormatLatex(defaultLoc),
	)

	// Tool: format_markdown
	s.AddTool(
		mcp.NewTool("format_markdown",
			mcp.WithDescription("Render a formula collection as Markdown with a heading and a $$ display-math block per formula."),
			mcp.WithString("content",
				mcp.Required(),
				mcp.Description("The formula collection document as JSON text"),
			),
			localeParam(),
		),
		handleFormatMarkdown(defaultLoc),
	)

	// Tool: escape_latex_text
	s.AddTool(
		mcp.NewTool("escape_latex_text",
			mcp.WithDescription("Escape the LaTeX special characters \\ # % & _ $ ^ { } in plain text."),
			mcp.WithString("text",
				mcp.Required(),
				mcp.Description("Plain text to escape"),
			),
		),
		handleEscapeLatexText(),
	)

	return s
}

func localeParam() mcp.ToolOption {
	return mcp.WithString("locale",
		mcp.Description("Optional: language of synthesized names and headings (zh or en)"),
	)
}

func requestLocale(req mcp.CallToolRequest, fallback *locale.Locale) *locale.Locale {
	if code := req.GetString("locale", ""); code != "" {
		return locale.Parse(code)
	}
	return fallback
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// normalizeItems is the shared first step of the render tools.
func normalizeItems(req mcp.CallToolRequest, loc *locale.Locale) ([]types.FormulaItem, *mcp.CallToolResult) {
	content, err := req.RequireString("content")
	if err != nil {
		return nil, mcp.NewToolResultError("content is required")
	}
	entries, err := formula.Normalize(content, loc)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return types.ItemsFromEntries(entries), nil
}

func handleNormalizeFormulas(defaultLoc *locale.Locale) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content, err := req.RequireString("content")
		if err != nil {
			return mcp.NewToolResultError("content is required"), nil
		}

		entries, err := formula.Normalize(content, requestLocale(req, defaultLoc))
		if err != nil {
			logger.Debug("normalize_formulas rejected input", logger.Err(err))
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(entries)
	}
}

func handleNormalizeTemplates(defaultLoc *locale.Locale) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content, err := req.RequireString("content")
		if err != nil {
			return mcp.NewToolResultError("content is required"), nil
		}

		library, err := templates.Normalize(content, requestLocale(req, defaultLoc))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(library)
	}
}

func handleFormatLatex(defaultLoc *locale.Locale) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		items, errResult := normalizeItems(req, defaultLoc)
		if errResult != nil {
			return errResult, nil
		}
		return mcp.NewToolResultText(render.FormatLatex(items)), nil
	}
}

func handleFormatMarkdown(defaultLoc *locale.Locale) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		loc := requestLocale(req, defaultLoc)
		items, errResult := normalizeItems(req, loc)
		if errResult != nil {
			return errResult, nil
		}
		return mcp.NewToolResultText(render.FormatMarkdown(items, loc)), nil
	}
}

func handleEscapeLatexText() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}
		return mcp.NewToolResultText(render.EscapeLatexText(text)), nil
	}
}
