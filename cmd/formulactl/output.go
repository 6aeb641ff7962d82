package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"formula-editor/internal/fileio"
	"formula-editor/internal/locale"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed, color.Bold)
)

// configureColor applies --color to the package-level color switch.
func configureColor(cmd *cobra.Command) error {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
		color.NoColor = !isTerminal(os.Stderr)
	default:
		return fmt.Errorf("invalid --color value %q (want auto|on|off)", mode)
	}
	return nil
}

// commandLocale resolves --locale, then FORMULA_EDITOR_LOCALE, then zh.
func commandLocale(cmd *cobra.Command) *locale.Locale {
	code, _ := cmd.Root().PersistentFlags().GetString("locale")
	if code == "" {
		code = strings.TrimSpace(os.Getenv("FORMULA_EDITOR_LOCALE"))
	}
	return locale.Parse(code)
}

// readInput reads a document path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		text, _, err := fileio.Decode(data)
		return text, err
	}
	return fileio.ReadText(path)
}

// writeOutput writes content to the --output file, or stdout when unset.
func writeOutput(cmd *cobra.Command, content string) error {
	out, _ := cmd.Flags().GetString("output")
	if out == "" || out == "-" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), content)
		return err
	}
	return fileio.NewWriter(nil, 0).WriteText(out, content)
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeOutput(cmd, string(data)+"\n")
}

// summary prints a status line to stderr unless --quiet is set.
func summary(cmd *cobra.Command, c *color.Color, format string, args ...any) {
	if quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet"); quiet {
		return
	}
	_, _ = c.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}
