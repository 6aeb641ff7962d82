// Command formulactl normalizes, checks and exports formula editor documents
// without the desktop shell.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"formula-editor/internal/logger"
)

// newRootCmd builds the command tree. Tests build a fresh tree per run.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "formulactl",
		Short: "Formula collection and template library tooling",
		Long: `formulactl normalizes formula collections and template libraries,
validates canonical documents and exports LaTeX, Markdown or HTML.`,
		PersistentPreRunE: setup,
		SilenceUsage:      true,
	}

	rootCmd.AddCommand(newNormalizeCmd())
	rootCmd.AddCommand(newTemplatesCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newEscapeCmd())

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().String("locale", "", "language of synthesized names and messages (zh|en, default from FORMULA_EDITOR_LOCALE)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level written to stderr (debug|info|warn|error)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress the summary line")

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// setup applies the global flags before any subcommand runs.
func setup(cmd *cobra.Command, _ []string) error {
	if err := configureColor(cmd); err != nil {
		return err
	}
	level, err := cmd.Root().PersistentFlags().GetString("log-level")
	if err != nil {
		return err
	}
	return logger.Init(&logger.Config{
		Level:  logger.ParseLevel(level),
		Output: cmd.ErrOrStderr(),
	})
}

// isTerminal reports whether f is attached to a terminal
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
