package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"formula-editor/internal/formula"
	"formula-editor/internal/jsonvalue"
	"formula-editor/internal/schema"
	"formula-editor/internal/templates"
	"formula-editor/internal/types"
)

// errNotCanonical makes the command exit non-zero after its report.
var errNotCanonical = errors.New("document is not canonical")

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [flags] <file|->",
		Short: "Report whether a document is already in canonical form",
		Long: `check validates a document against the canonical schema. When it is not
canonical, check reports what normalization would change and exits with status 1.`,
		Args: cobra.ExactArgs(1),
		RunE: runCheck,
	}
	cmd.Flags().String("kind", "auto", "document kind (auto|formulas|templates)")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	kindFlag, err := cmd.Flags().GetString("kind")
	if err != nil {
		return err
	}

	content, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	value, err := jsonvalue.Parse(content)
	if err != nil {
		return types.NewAppError(types.ErrInvalidJSON, "document is not valid JSON", err)
	}

	var kind types.DocumentKind
	switch kindFlag {
	case "auto":
		kind = templates.DetectKind(value)
	case string(types.KindFormulas), string(types.KindTemplates):
		kind = types.DocumentKind(kindFlag)
	default:
		return fmt.Errorf("check: unknown kind %q (want auto|formulas|templates)", kindFlag)
	}

	err = schema.Validate(kind, []byte(content))
	if err == nil {
		summary(cmd, okColor, "%s: canonical %s document", args[0], kind)
		return nil
	}
	if !types.IsCode(err, types.ErrWrongShape) {
		return err
	}
	summary(cmd, warnColor, "%s: %v", args[0], err)

	loc := commandLocale(cmd)
	switch kind {
	case types.KindFormulas:
		entries, err := formula.NormalizeValue(value, loc)
		if err != nil {
			summary(cmd, errColor, "%s: %v", args[0], err)
			return err
		}
		total := len(value.Elements())
		summary(cmd, warnColor, "normalization keeps %d of %d formulas", len(entries), total)
	case types.KindTemplates:
		library := templates.NormalizeValue(value, loc)
		summary(cmd, warnColor, "normalization yields %d categories", len(library.Categories))
	}
	return errNotCanonical
}
