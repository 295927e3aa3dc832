// Package schema validates raw documents against named structural schemas
// authored in CUE.
//
// Compiled schemas are held in an explicit cache keyed by schema name. The
// cache is an injectable dependency: construct one per process and share it
// by reference. Lookups are read-mostly, so concurrent validation runs may
// reuse compiled schemas safely.
package schema

import (
	"embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schemas/*.cue
var schemaFS embed.FS

// Violation is a single shape violation: a pointer-style path into the
// document and a human-readable message.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// NotFoundError reports a schema name with no registered source. It is a
// distinct error so callers can report "schema not found" separately from
// shape violations.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("schema not found: %s", e.Name)
}

// Cache compiles named CUE schemas on demand and memoizes the results.
type Cache struct {
	ctx *cue.Context

	mu       sync.RWMutex
	sources  map[string]string
	compiled map[string]cue.Value
}

// NewCache builds a cache preloaded with the embedded layer schemas
// (navigation, ui, state, i18n).
func NewCache() (*Cache, error) {
	c := &Cache{
		ctx:      cuecontext.New(),
		sources:  make(map[string]string),
		compiled: make(map[string]cue.Value),
	}

	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("read embedded schemas: %w", err)
	}
	for _, entry := range entries {
		data, err := schemaFS.ReadFile("schemas/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read embedded schema %s: %w", entry.Name(), err)
		}
		name := entry.Name()
		name = name[:len(name)-len(".cue")]
		c.sources[name] = string(data)
	}

	return c, nil
}

// Register adds or replaces a schema source under the given name and drops
// any stale compiled value.
func (c *Cache) Register(name, source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[name] = source
	delete(c.compiled, name)
}

// Compiled reports whether the named schema has already been compiled.
func (c *Cache) Compiled(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.compiled[name]
	return ok
}

// compile returns the compiled schema for name, compiling at most once.
func (c *Cache) compile(name string) (cue.Value, error) {
	c.mu.RLock()
	if v, ok := c.compiled[name]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	source, ok := c.sources[name]
	c.mu.RUnlock()
	if !ok {
		return cue.Value{}, &NotFoundError{Name: name}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.compiled[name]; ok {
		return v, nil
	}

	v := c.ctx.CompileString(source, cue.Filename(name+".cue"))
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile schema %s: %w", name, err)
	}
	c.compiled[name] = v
	return v, nil
}

// Validate checks a raw document against the named schema. The boolean
// reports shape validity; violations carry one entry per conflict. A
// *NotFoundError is returned when no schema is registered under name.
func (c *Cache) Validate(name string, doc map[string]any) (bool, []Violation, error) {
	schemaVal, err := c.compile(name)
	if err != nil {
		return false, nil, err
	}

	c.mu.Lock()
	docVal := c.ctx.Encode(doc)
	c.mu.Unlock()
	if err := docVal.Err(); err != nil {
		return false, []Violation{{Path: "/", Message: err.Error()}}, nil
	}

	unified := schemaVal.Unify(docVal)
	if err := unified.Validate(cue.Final()); err != nil {
		return false, violationsFromError(err), nil
	}

	return true, nil, nil
}

// violationsFromError flattens a CUE error list into pointer-path
// violations.
func violationsFromError(err error) []Violation {
	var violations []Violation
	for _, e := range cueerrors.Errors(err) {
		path := "/"
		if segments := e.Path(); len(segments) > 0 {
			path = ""
			for _, seg := range segments {
				path += "/" + seg
			}
		}
		violations = append(violations, Violation{
			Path:    path,
			Message: e.Error(),
		})
	}
	if len(violations) == 0 {
		violations = []Violation{{Path: "/", Message: err.Error()}}
	}
	return violations
}
