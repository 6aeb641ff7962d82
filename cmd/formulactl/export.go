package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"formula-editor/internal/formula"
	"formula-editor/internal/render"
	"formula-editor/internal/types"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [flags] <file|->",
		Short: "Render a formula collection as LaTeX, Markdown or HTML",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}
	cmd.Flags().StringP("format", "f", "latex", "output format (latex|markdown|html)")
	cmd.Flags().StringP("output", "o", "", "write the result to a file instead of stdout")
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	format = strings.ToLower(format)
	switch format {
	case "latex", "tex", "markdown", "md", "html":
	default:
		return fmt.Errorf("export: unknown format %q (want latex|markdown|html)", format)
	}

	content, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	loc := commandLocale(cmd)
	entries, err := formula.Normalize(content, loc)
	if err != nil {
		return err
	}
	items := types.ItemsFromEntries(entries)

	var out string
	switch format {
	case "latex", "tex":
		out = render.FormatLatex(items)
	case "markdown", "md":
		out = render.FormatMarkdown(items, loc)
	case "html":
		out, err = render.NewPreviewer().PreviewHTML(items, loc)
		if err != nil {
			return err
		}
	}

	if err := writeOutput(cmd, out); err != nil {
		return err
	}
	if len(items) == 0 {
		summary(cmd, warnColor, "no formulas to export")
		return nil
	}
	summary(cmd, okColor, "exported %d formulas as %s", len(items), format)
	return nil
}
