package main

import (
	"github.com/spf13/cobra"

	"formula-editor/internal/formula"
	"formula-editor/internal/templates"
)

func newNormalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize [flags] <file|->",
		Short: "Normalize a formula collection to canonical JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runNormalize,
	}
	cmd.Flags().StringP("output", "o", "", "write the result to a file instead of stdout")
	return cmd
}

func runNormalize(cmd *cobra.Command, args []string) error {
	content, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	entries, err := formula.Normalize(content, commandLocale(cmd))
	if err != nil {
		return err
	}
	if err := writeJSON(cmd, entries); err != nil {
		return err
	}
	summary(cmd, okColor, "%d formulas", len(entries))
	return nil
}

func newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates [flags] <file|->",
		Short: "Normalize a template library to canonical JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runTemplates,
	}
	cmd.Flags().StringP("output", "o", "", "write the result to a file instead of stdout")
	return cmd
}

func runTemplates(cmd *cobra.Command, args []string) error {
	content, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	library, err := templates.Normalize(content, commandLocale(cmd))
	if err != nil {
		return err
	}
	if err := writeJSON(cmd, library); err != nil {
		return err
	}

	count := 0
	for _, c := range library.Categories {
		count += len(c.Templates)
	}
	summary(cmd, okColor, "%d categories, %d templates", len(library.Categories), count)
	return nil
}
