// Package formula normalizes formula collection documents.
//
// Normalization is tolerant: elements without a usable latex body are
// dropped, and missing ids, indexes and notes are defaulted. Only a document
// that is not JSON, or is not a formula collection at all, is an error.
package formula

import (
	"strconv"

	"fortio.org/safecast"

	"formula-editor/internal/jsonvalue"
	"formula-editor/internal/locale"
	"formula-editor/internal/logger"
	"formula-editor/internal/types"
)

// IDPrefix is the prefix of synthesized formula ids.
const IDPrefix = "formula-"

// Normalize parses content and normalizes it into formula entries.
func Normalize(content string, loc *locale.Locale) ([]types.FormulaEntry, error) {
	value, err := jsonvalue.Parse(content)
	if err != nil {
		return nil, types.NewAppError(types.ErrInvalidJSON, loc.Text(locale.KeyInvalidJSON), err)
	}
	return NormalizeValue(value, loc)
}

// NormalizeValue normalizes an already parsed document. A template library
// (an object with a "categories" member) is reported as ErrWrongKind; any
// other non-array value as ErrWrongShape.
func NormalizeValue(value jsonvalue.Value, loc *locale.Locale) ([]types.FormulaEntry, error) {
	if !value.IsArray() {
		if value.Has("categories") {
			return nil, types.NewAppError(types.ErrWrongKind, loc.Text(locale.KeyTemplateFile), nil)
		}
		return nil, types.NewAppError(types.ErrWrongShape, loc.Text(locale.KeyNotFormulaArray), nil)
	}

	elements := value.Elements()
	entries := make([]types.FormulaEntry, 0, len(elements))
	for idx, element := range elements {
		entry, ok := normalizeEntry(idx, element)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	if dropped := len(elements) - len(entries); dropped > 0 {
		logger.Debug("dropped formulas without latex",
			logger.Int("total", len(elements)),
			logger.Int("dropped", dropped))
	}
	return entries, nil
}

// normalizeEntry builds the entry for the element at position idx. It reports
// false when the element has no non-blank latex string.
func normalizeEntry(idx int, element jsonvalue.Value) (types.FormulaEntry, bool) {
	latex, ok := jsonvalue.OptionalTrimmedString(element, "latex")
	if !ok {
		return types.FormulaEntry{}, false
	}

	id, ok := jsonvalue.OptionalTrimmedString(element, "id")
	if !ok {
		id = SyntheticID(idx)
	}

	return types.FormulaEntry{
		ID:    id,
		Index: displayIndex(idx, element),
		Latex: latex,
		Note:  jsonvalue.OptionalTrimmedStringPtr(element, "note"),
	}, true
}

// SyntheticID is the id given to the element at 0-based position idx.
func SyntheticID(idx int) string {
	return IDPrefix + strconv.Itoa(idx+1)
}

// displayIndex reads "index" as a non-negative integer that fits in uint32,
// defaulting to the 1-based position.
func displayIndex(idx int, element jsonvalue.Value) uint32 {
	fallback, err := safecast.Conv[uint32](idx + 1)
	if err != nil {
		fallback = 0
	}
	raw, ok := jsonvalue.OptionalNonNegativeInt(element, "index")
	if !ok {
		return fallback
	}
	index, err := safecast.Conv[uint32](raw)
	if err != nil {
		return fallback
	}
	return index
}
