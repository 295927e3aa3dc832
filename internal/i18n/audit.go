// Package i18n audits translation keys: every text key referenced by a UI
// element tree should be declared by some translation document. Missing
// translations are informational, never errors; untranslated text is an
// acceptable transitional state.
package i18n

import (
	"sort"

	"github.com/strataspec/strata/internal/diag"
	"github.com/strataspec/strata/internal/spec"
)

// Audit compares referenced text keys against the union of declared
// translation keys and reports the missing ones as one grouped, sorted
// informational diagnostic.
func Audit(uiDocs []*spec.UIDoc, i18nDocs []*spec.I18nDoc) []diag.Diagnostic {
	declared := make(map[string]bool)
	for _, doc := range i18nDocs {
		for key := range doc.Keys {
			declared[key] = true
		}
	}

	missing := make(map[string]bool)
	for _, doc := range uiDocs {
		for _, key := range doc.TextKeys() {
			if !declared[key] {
				missing[key] = true
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}

	keys := make([]string, 0, len(missing))
	for key := range missing {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return []diag.Diagnostic{diag.Infof(diag.CodeUntranslated,
		map[string]any{"keys": keys, "count": len(keys)},
		"%d text key(s) without translation: %s", len(keys), diag.SortedList(keys))}
}
