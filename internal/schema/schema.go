// Package schema holds the JSON Schemas of the canonical documents produced by
// normalization and validates documents against them.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"formula-editor/internal/types"
)

//go:embed schemas/*.schema.json
var files embed.FS

const baseURL = "https://formula-editor.local/schema/"

var (
	compileOnce sync.Once
	compiled    map[types.DocumentKind]*jsonschema.Schema
	compileErr  error
)

var schemaFiles = map[types.DocumentKind]string{
	types.KindFormulas:  "formulas.schema.json",
	types.KindTemplates: "templates.schema.json",
}

func load() (map[types.DocumentKind]*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		for _, name := range schemaFiles {
			data, err := files.ReadFile("schemas/" + name)
			if err != nil {
				compileErr = fmt.Errorf("read schema %s: %w", name, err)
				return
			}
			if err := compiler.AddResource(baseURL+name, bytes.NewReader(data)); err != nil {
				compileErr = fmt.Errorf("add schema resource %s: %w", name, err)
				return
			}
		}

		compiled = make(map[types.DocumentKind]*jsonschema.Schema, len(schemaFiles))
		for kind, name := range schemaFiles {
			s, err := compiler.Compile(baseURL + name)
			if err != nil {
				compileErr = fmt.Errorf("compile schema %s: %w", name, err)
				return
			}
			compiled[kind] = s
		}
	})
	return compiled, compileErr
}

// Source returns the raw schema document for kind.
func Source(kind types.DocumentKind) ([]byte, error) {
	name, ok := schemaFiles[kind]
	if !ok {
		return nil, fmt.Errorf("unknown document kind %q", kind)
	}
	return files.ReadFile("schemas/" + name)
}

// Validate reports whether data is a canonical document of the given kind.
// Malformed JSON yields ErrInvalidJSON; a schema violation yields
// ErrWrongShape with the violation in Details.
func Validate(kind types.DocumentKind, data []byte) error {
	schemas, err := load()
	if err != nil {
		return types.NewAppError(types.ErrInternal, "schema unavailable", err)
	}
	s, ok := schemas[kind]
	if !ok {
		return types.NewAppError(types.ErrInvalidInput, fmt.Sprintf("unknown document kind %q", kind), nil)
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return types.NewAppError(types.ErrInvalidJSON, "document is not valid JSON", err)
	}
	if err := s.Validate(instance); err != nil {
		return types.NewAppErrorWithDetails(types.ErrWrongShape,
			fmt.Sprintf("document is not a canonical %s document", kind), err.Error(), err)
	}
	return nil
}

// ValidateFormulas validates a canonical formula collection.
func ValidateFormulas(data []byte) error {
	return Validate(types.KindFormulas, data)
}

// ValidateTemplates validates a canonical template library.
func ValidateTemplates(data []byte) error {
	return Validate(types.KindTemplates, data)
}
