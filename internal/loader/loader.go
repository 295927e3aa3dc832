// Package loader reads a specification tree from disk into raw documents.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Document is one parsed specification file. Group is the structural group
// derived from the first directory segment below the root, capitalized;
// files directly under the root carry an empty group.
type Document struct {
	Path  string // path relative to the root, slash-separated
	Group string
	Raw   map[string]any
}

// LoadError is a loading failure with a machine-readable code.
type LoadError struct {
	Code    string
	Path    string
	Message string
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Loader error codes.
const (
	ErrCodeNotFound = "E_DIR_NOT_FOUND" // root directory missing or not a directory
	ErrCodeScan     = "E_SCAN"          // directory walk failed
	ErrCodeNoFiles  = "E_NO_FILES"      // no matching files under the root
	ErrCodeParse    = "E_PARSE"         // YAML parse failure
	ErrCodeShape    = "E_SHAPE"         // top level is not a mapping
)

var titleCaser = cases.Title(language.English)

// Load walks root and parses every file whose extension is in exts
// (e.g. ".yaml", ".yml"). Parse failures are collected per file; a bad file
// never aborts the walk. Documents are returned sorted by path so callers
// see a deterministic order.
func Load(root string, exts []string) ([]Document, []error) {
	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs directory not found: %s", root)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing specs directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", root)}}
	}

	extSet := make(map[string]bool, len(exts))
	for _, ext := range exts {
		extSet[ext] = true
	}

	var paths []string
	walkErr := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && extSet[filepath.Ext(path)] {
			paths = append(paths, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, []error{&LoadError{Code: ErrCodeScan, Message: fmt.Sprintf("error scanning directory: %v", walkErr)}}
	}
	if len(paths) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no specification files found in %s", root)}}
	}
	sort.Strings(paths)

	var docs []Document
	var errs []error
	for _, path := range paths {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeScan, Path: rel, Message: err.Error()})
			continue
		}

		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeParse, Path: rel, Message: err.Error()})
			continue
		}
		if raw == nil {
			errs = append(errs, &LoadError{Code: ErrCodeShape, Path: rel, Message: "document is empty or not a mapping"})
			continue
		}

		docs = append(docs, Document{
			Path:  rel,
			Group: GroupForPath(rel),
			Raw:   raw,
		})
	}

	return docs, errs
}

// GroupForPath derives the structural group from a root-relative path:
// the first directory segment, capitalized. Files directly under the root
// have no group.
func GroupForPath(rel string) string {
	rel = filepath.ToSlash(rel)
	idx := strings.IndexByte(rel, '/')
	if idx < 0 {
		return ""
	}
	return titleCaser.String(rel[:idx])
}
