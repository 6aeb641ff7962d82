// Package templates normalizes template library documents into a flat,
// pre-ordered list of categories linked by parent ids.
package templates

import (
	"strconv"

	"formula-editor/internal/jsonvalue"
	"formula-editor/internal/locale"
	"formula-editor/internal/logger"
	"formula-editor/internal/types"
)

// MaxDepth is the deepest category level kept; deeper subtrees are dropped.
const MaxDepth = 6

// frame is one pending sibling list of the tree walk.
type frame struct {
	nodes    []jsonvalue.Value
	next     int
	depth    int
	parentID *string
}

// Normalize parses content as a template library. The document may be a bare
// array of categories or an object whose "categories" member holds it. Only
// malformed JSON is an error; every other shape yields a (possibly empty)
// library.
func Normalize(content string, loc *locale.Locale) (*types.TemplateLibrary, error) {
	value, err := jsonvalue.Parse(content)
	if err != nil {
		return nil, types.NewAppError(types.ErrInvalidJSON, loc.Text(locale.KeyInvalidJSON), err)
	}
	return NormalizeValue(value, loc), nil
}

// NormalizeValue normalizes an already parsed document.
func NormalizeValue(value jsonvalue.Value, loc *locale.Locale) *types.TemplateLibrary {
	root := value
	if categories, ok := value.Field("categories"); ok {
		root = categories
	}

	categories := walk(root, loc)

	library := &types.TemplateLibrary{Categories: categories}
	if len(categories) > 0 {
		library.SelectedCategoryID = categories[0].ID
	}
	return library
}

// walk flattens the category forest depth-first in pre-order using an
// explicit stack. A category is emitted before any of its descendants.
func walk(root jsonvalue.Value, loc *locale.Locale) []types.TemplateCategory {
	out := []types.TemplateCategory{}
	stack := []*frame{{nodes: root.Elements(), depth: 1}}
	truncated := 0

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next >= len(top.nodes) {
			stack = stack[:len(stack)-1]
			continue
		}
		idx := top.next
		node := top.nodes[idx]
		top.next++

		category := normalizeCategory(node, idx, top.depth, top.parentID, loc)
		out = append(out, category)

		children, ok := childList(node)
		if !ok {
			continue
		}
		if top.depth+1 > MaxDepth {
			truncated += len(children.Elements())
			continue
		}
		id := category.ID
		stack = append(stack, &frame{
			nodes:    children.Elements(),
			depth:    top.depth + 1,
			parentID: &id,
		})
	}

	if truncated > 0 {
		logger.Debug("template categories beyond max depth dropped",
			logger.Int("maxDepth", MaxDepth),
			logger.Int("droppedAtBoundary", truncated))
	}
	return out
}

// childList returns the nested categories of node: the "categories" member
// when present, even if it is not an array, otherwise "children".
func childList(node jsonvalue.Value) (jsonvalue.Value, bool) {
	if children, ok := node.Field("categories"); ok {
		return children, true
	}
	return node.Field("children")
}

func normalizeCategory(node jsonvalue.Value, idx, depth int, parentID *string, loc *locale.Locale) types.TemplateCategory {
	name, ok := jsonvalue.OptionalTrimmedString(node, "name")
	if !ok {
		name = loc.CategoryName(idx + 1)
	}

	// Synthesized ids are unique among siblings at one depth only; two
	// branches may both produce category-2-1.
	id, ok := jsonvalue.OptionalTrimmedString(node, "id")
	if !ok {
		id = SyntheticCategoryID(depth, idx)
	}

	parent := jsonvalue.OptionalTrimmedStringPtr(node, "parentId")
	if parent == nil && parentID != nil {
		p := *parentID
		parent = &p
	}

	return types.TemplateCategory{
		ID:        id,
		Name:      name,
		Templates: normalizeTemplates(node.Get("templates"), id, loc),
		ParentID:  parent,
	}
}

func normalizeTemplates(list jsonvalue.Value, categoryID string, loc *locale.Locale) []types.TemplateItem {
	elements := list.Elements()
	items := make([]types.TemplateItem, 0, len(elements))
	for idx, element := range elements {
		latex, ok := jsonvalue.OptionalTrimmedString(element, "latex")
		if !ok {
			continue
		}
		name, ok := jsonvalue.OptionalTrimmedString(element, "name")
		if !ok {
			name = loc.TemplateName(idx + 1)
		}
		id, ok := jsonvalue.OptionalTrimmedString(element, "id")
		if !ok {
			id = SyntheticTemplateID(categoryID, idx)
		}
		items = append(items, types.TemplateItem{
			ID:    id,
			Name:  name,
			Latex: latex,
			Note:  jsonvalue.OptionalTrimmedStringPtr(element, "note"),
		})
	}
	return items
}

// SyntheticCategoryID is the id given to the category at 0-based sibling
// position idx on the 1-based depth.
func SyntheticCategoryID(depth, idx int) string {
	return "category-" + strconv.Itoa(depth) + "-" + strconv.Itoa(idx+1)
}

// SyntheticTemplateID is the id given to the template at 0-based position idx
// inside the category categoryID.
func SyntheticTemplateID(categoryID string, idx int) string {
	return "template-" + categoryID + "-" + strconv.Itoa(idx+1)
}

// DetectKind classifies a parsed document: an object with a "categories"
// member is a template library, anything else a formula collection.
func DetectKind(value jsonvalue.Value) types.DocumentKind {
	if value.Has("categories") {
		return types.KindTemplates
	}
	return types.KindFormulas
}
