// Package crossref validates UI-layer and state-layer documents against the
// navigation graph and against each other's internal data declarations.
//
// The checks are independent: each produces its own diagnostics and none
// short-circuits the others, so a single run surfaces the maximum useful
// diagnostic set.
package crossref

import (
	"sort"

	"github.com/strataspec/strata/internal/diag"
	"github.com/strataspec/strata/internal/nav"
	"github.com/strataspec/strata/internal/spec"
)

// Check runs all cross-layer checks. UI documents are checked first, then
// state documents, preserving the report's layer ordering.
func Check(graph *nav.Graph, uiDocs []*spec.UIDoc, stateDocs []*spec.StateDoc) []diag.Diagnostic {
	var diags []diag.Diagnostic
	diags = append(diags, checkUI(graph, uiDocs)...)
	diags = append(diags, checkState(graph, stateDocs)...)
	return diags
}

// checkUI validates every UI document's screen reference and every UI
// action against the transitions of its screen.
func checkUI(graph *nav.Graph, docs []*spec.UIDoc) []diag.Diagnostic {
	var diags []diag.Diagnostic

	for _, doc := range docs {
		if _, ok := graph.Screens[doc.Screen]; !ok {
			diags = append(diags, diag.Errorf(diag.CodeUIScreenUnknown,
				map[string]any{"path": doc.Path, "screen": doc.Screen.String()},
				"UI document %s references unknown screen %s", doc.Path, doc.Screen))
			continue
		}

		transitionIDs := transitionIDSet(graph, doc.Screen)
		for _, action := range doc.Actions() {
			if !transitionIDs[action.ActionID] {
				diags = append(diags, diag.Errorf(diag.CodeActionUnknown,
					map[string]any{
						"path":      doc.Path,
						"screen":    doc.Screen.String(),
						"component": action.ComponentID,
						"action":    action.ActionID,
					},
					"component %s on %s declares action %q which matches no transition", action.ComponentID, doc.Screen, action.ActionID))
			}
		}
	}

	return diags
}

// checkState validates state documents: screen existence (hard), internal
// query/mutation integrity (hard), and the bidirectional transition/event
// wiring comparison (informational).
func checkState(graph *nav.Graph, docs []*spec.StateDoc) []diag.Diagnostic {
	var diags []diag.Diagnostic

	for _, doc := range docs {
		if _, ok := graph.Screens[doc.Screen]; !ok {
			diags = append(diags, diag.Errorf(diag.CodeStateScreenUnknown,
				map[string]any{"path": doc.Path, "screen": doc.Screen.String()},
				"state document %s references unknown screen %s", doc.Path, doc.Screen))
			// Internal integrity is still checkable without the screen.
			diags = append(diags, checkInternal(doc)...)
			continue
		}

		diags = append(diags, checkInternal(doc)...)
		diags = append(diags, checkWiring(graph, doc)...)
	}

	return diags
}

// checkInternal enforces that every callQuery/callMutation event references
// a name declared in the same document. A dangling name has no valid
// resolution, so this is an error, not an unwired note.
func checkInternal(doc *spec.StateDoc) []diag.Diagnostic {
	queries := nameSet(doc.Queries)
	mutations := nameSet(doc.Mutations)

	var diags []diag.Diagnostic
	for _, key := range sortedEventKeys(doc) {
		event := doc.Events[key]
		switch event.Type {
		case spec.EventCallQuery:
			if !queries[event.Query] {
				diags = append(diags, diag.Errorf(diag.CodeQueryUndeclared,
					map[string]any{"path": doc.Path, "screen": doc.Screen.String(), "event": key, "query": event.Query},
					"event %q on %s calls undeclared query %q", key, doc.Screen, event.Query))
			}
		case spec.EventCallMutation:
			if !mutations[event.Mutation] {
				diags = append(diags, diag.Errorf(diag.CodeMutationUndeclared,
					map[string]any{"path": doc.Path, "screen": doc.Screen.String(), "event": key, "mutation": event.Mutation},
					"event %q on %s calls undeclared mutation %q", key, doc.Screen, event.Mutation))
			}
		}
	}
	return diags
}

// checkWiring compares the screen's transition ids against the state
// document's event keys. Both directions are informational: wiring may lag
// structure in either direction.
func checkWiring(graph *nav.Graph, doc *spec.StateDoc) []diag.Diagnostic {
	transitionIDs := transitionIDSet(graph, doc.Screen)

	var unwiredTransitions []string
	for id := range transitionIDs {
		if _, ok := doc.Events[id]; !ok {
			unwiredTransitions = append(unwiredTransitions, id)
		}
	}
	sort.Strings(unwiredTransitions)

	var unwiredEvents []string
	for key := range doc.Events {
		if !transitionIDs[key] {
			unwiredEvents = append(unwiredEvents, key)
		}
	}
	sort.Strings(unwiredEvents)

	var diags []diag.Diagnostic
	if len(unwiredTransitions) > 0 {
		diags = append(diags, diag.Infof(diag.CodeTransitionUnwired,
			map[string]any{"screen": doc.Screen.String(), "transitions": unwiredTransitions, "count": len(unwiredTransitions)},
			"screen %s: %d transition(s) with no state event: %s", doc.Screen, len(unwiredTransitions), diag.SortedList(unwiredTransitions)))
	}
	if len(unwiredEvents) > 0 {
		diags = append(diags, diag.Infof(diag.CodeEventUnwired,
			map[string]any{"screen": doc.Screen.String(), "events": unwiredEvents, "count": len(unwiredEvents)},
			"screen %s: %d event key(s) with no matching transition: %s", doc.Screen, len(unwiredEvents), diag.SortedList(unwiredEvents)))
	}
	return diags
}

func transitionIDSet(graph *nav.Graph, key spec.ScreenKey) map[string]bool {
	ids := make(map[string]bool)
	for _, edge := range graph.Outgoing(key) {
		ids[edge.ID] = true
	}
	return ids
}

func nameSet(refs []spec.DataRef) map[string]bool {
	names := make(map[string]bool, len(refs))
	for _, ref := range refs {
		names[ref.Name] = true
	}
	return names
}

func sortedEventKeys(doc *spec.StateDoc) []string {
	keys := make([]string, 0, len(doc.Events))
	for key := range doc.Events {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
