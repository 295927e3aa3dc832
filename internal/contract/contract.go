// Package contract resolves the external API contract: it builds the
// operation registry and resolves response root keys, then checks
// state-layer data references against both.
//
// Extraction is deliberately narrow: only operation identifiers and response
// shapes are read, everything else in the contract is ignored. This is not a
// full contract validator.
package contract

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/strataspec/strata/internal/diag"
)

// httpMethods are the HTTP-method-like keys considered under a path item.
var httpMethods = []string{"delete", "get", "head", "options", "patch", "post", "put", "trace"}

// Document is the leniently parsed contract: raw path items and named
// schemas, everything else dropped.
type Document struct {
	Paths   map[string]any
	Schemas map[string]any
}

// Parse decodes a YAML/JSON contract document. Absent sections yield empty
// maps rather than errors; the registry builder reports what it cannot use.
func Parse(data []byte) (*Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse contract: %w", err)
	}

	doc := &Document{
		Paths:   map[string]any{},
		Schemas: map[string]any{},
	}
	if paths, ok := raw["paths"].(map[string]any); ok {
		doc.Paths = paths
	}
	if components, ok := raw["components"].(map[string]any); ok {
		if schemas, ok := components["schemas"].(map[string]any); ok {
			doc.Schemas = schemas
		}
	}
	return doc, nil
}

// Occurrence is one method+path declaration of an operation.
type Occurrence struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// Operation is a registry entry. RootKeys is the resolved response root key
// set; RootKeysResolved is false when the response shape could not be
// resolved (union schemas, unreachable references, missing response body).
type Operation struct {
	ID               string
	Occurrences      []Occurrence
	RootKeys         []string
	RootKeysResolved bool
}

// HasRootKey reports membership in the resolved root key set.
func (op *Operation) HasRootKey(key string) bool {
	for _, k := range op.RootKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Registry holds every declared operation by id.
type Registry struct {
	Operations map[string]*Operation
}

// SortedIDs returns operation ids sorted for stable output.
func (r *Registry) SortedIDs() []string {
	ids := make([]string, 0, len(r.Operations))
	for id := range r.Operations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BuildRegistry walks every path × method, requiring a non-empty unique
// operation id on each. Missing and duplicate ids are hard errors; the
// offending declaration is skipped and the walk continues.
func BuildRegistry(doc *Document) (*Registry, []diag.Diagnostic) {
	registry := &Registry{Operations: map[string]*Operation{}}
	var diags []diag.Diagnostic

	paths := make([]string, 0, len(doc.Paths))
	for path := range doc.Paths {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		item, ok := doc.Paths[path].(map[string]any)
		if !ok {
			continue
		}
		for _, method := range httpMethods {
			opRaw, ok := item[method].(map[string]any)
			if !ok {
				continue
			}

			id, _ := opRaw["operationId"].(string)
			if id == "" {
				diags = append(diags, diag.Errorf(diag.CodeOperationIDMissing,
					map[string]any{"method": method, "path": path},
					"%s %s declares no operation id", method, path))
				continue
			}
			if _, exists := registry.Operations[id]; exists {
				diags = append(diags, diag.Errorf(diag.CodeOperationIDDuplicate,
					map[string]any{"operationId": id, "method": method, "path": path},
					"operation id %q declared more than once (%s %s)", id, method, path))
				continue
			}

			op := &Operation{
				ID:          id,
				Occurrences: []Occurrence{{Method: method, Path: path}},
			}
			op.RootKeys, op.RootKeysResolved = resolveRootKeys(doc, opRaw)
			registry.Operations[id] = op
		}
	}

	return registry, diags
}
