package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"formula-editor/internal/render"
)

func newEscapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "escape <text>...",
		Short: "Escape LaTeX special characters in plain text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), render.EscapeLatexText(strings.Join(args, " ")))
			return err
		},
	}
}
