package nav

import (
	"sort"

	"github.com/strataspec/strata/internal/diag"
	"github.com/strataspec/strata/internal/spec"
)

// Analyze runs the reachability and choice-node policy over a built graph.
//
// Policy (fixed):
//   - zero entry screens is an error; analysis continues with an empty
//     reachable set rather than aborting
//   - one entry screen yields an informational note naming it, several yield
//     a note listing them
//   - traversal is breadth-first over outgoing edges; cycles terminate
//     because visited screens are marked once
//   - unreachable screens are one grouped, sorted error
//   - a non-exit screen with no outgoing transitions is a dead-end note,
//     not an error
func Analyze(graph *Graph) []diag.Diagnostic {
	var diags []diag.Diagnostic

	var entries []spec.ScreenKey
	for _, key := range graph.SortedKeys() {
		if graph.Screens[key].Entry {
			entries = append(entries, key)
		}
	}

	switch len(entries) {
	case 0:
		diags = append(diags, diag.Errorf(diag.CodeNoEntry, nil,
			"no entry screen is declared; reachability cannot be defined"))
	case 1:
		diags = append(diags, diag.Infof(diag.CodeSingleEntry,
			map[string]any{"screen": entries[0].String()},
			"single entry screen: %s", entries[0]))
	default:
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.String()
		}
		diags = append(diags, diag.Infof(diag.CodeMultipleEntries,
			map[string]any{"screens": names, "count": len(entries)},
			"%d entry screens: %s", len(entries), diag.SortedList(names)))
	}

	reachable := traverse(graph, entries)

	var unreachable []string
	for _, key := range graph.SortedKeys() {
		if !reachable[key] {
			unreachable = append(unreachable, key.String())
		}
	}
	if len(unreachable) > 0 {
		diags = append(diags, diag.Errorf(diag.CodeUnreachable,
			map[string]any{"screens": unreachable, "count": len(unreachable)},
			"%d screen(s) unreachable from any entry: %s", len(unreachable), diag.SortedList(unreachable)))
	}

	for _, key := range graph.SortedKeys() {
		screen := graph.Screens[key]
		if !screen.Exit && len(graph.Outgoing(key)) == 0 {
			diags = append(diags, diag.Infof(diag.CodeDeadEnd,
				map[string]any{"screen": key.String()},
				"screen %s has no outgoing transitions and is not an exit", key))
		}
	}

	diags = append(diags, analyzeChoices(graph)...)
	diags = append(diags, analyzeGuards(graph)...)

	return diags
}

// traverse marks every screen reachable from the entry set.
func traverse(graph *Graph, entries []spec.ScreenKey) map[spec.ScreenKey]bool {
	reachable := make(map[spec.ScreenKey]bool, len(graph.Screens))
	queue := make([]spec.ScreenKey, 0, len(entries))
	for _, e := range entries {
		reachable[e] = true
		queue = append(queue, e)
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, edge := range graph.Outgoing(current) {
			if !reachable[edge.To] {
				reachable[edge.To] = true
				queue = append(queue, edge.To)
			}
		}
	}
	return reachable
}

// analyzeChoices enforces the choice-node policy: every outgoing edge
// carries a guard or else:true, at most one else per screen, and choice
// resolution is automatic (a tap trigger is an error).
func analyzeChoices(graph *Graph) []diag.Diagnostic {
	var diags []diag.Diagnostic

	for _, key := range graph.SortedKeys() {
		screen := graph.Screens[key]
		if screen.Kind != spec.KindChoice {
			continue
		}

		elseCount := 0
		for _, edge := range graph.Outgoing(key) {
			if edge.Else {
				elseCount++
			}
			if edge.Guard == "" && !edge.Else {
				diags = append(diags, diag.Errorf(diag.CodeChoiceUnguarded,
					map[string]any{"screen": key.String(), "transition": edge.ID},
					"choice screen %s: transition %s has neither guard nor else", key, edge.ID))
			}
			if edge.Trigger == spec.TriggerTap {
				diags = append(diags, diag.Errorf(diag.CodeChoiceTapTrigger,
					map[string]any{"screen": key.String(), "transition": edge.ID},
					"choice screen %s: transition %s is tap-triggered; choice resolution must be automatic", key, edge.ID))
			}
		}
		if elseCount > 1 {
			diags = append(diags, diag.Errorf(diag.CodeChoiceMultipleElse,
				map[string]any{"screen": key.String(), "count": elseCount},
				"choice screen %s declares %d else transitions; at most one is allowed", key, elseCount))
		}
	}

	return diags
}

// analyzeGuards checks every guard reference against the registry and
// reports declarations that nothing references. A reference with no
// declaration is a dangling reference, hence an error; an unused
// declaration is informational only.
func analyzeGuards(graph *Graph) []diag.Diagnostic {
	var diags []diag.Diagnostic

	referenced := make(map[string]bool)
	seenUnknown := make(map[string]bool)
	for _, key := range graph.SortedKeys() {
		for _, edge := range graph.Outgoing(key) {
			if edge.Guard == "" {
				continue
			}
			referenced[edge.Guard] = true
			if !graph.Guards[edge.Guard] && !seenUnknown[edge.Guard] {
				seenUnknown[edge.Guard] = true
				diags = append(diags, diag.Errorf(diag.CodeGuardUnknown,
					map[string]any{"guard": edge.Guard, "screen": key.String(), "transition": edge.ID},
					"guard %q referenced by transition %s on %s is not declared", edge.Guard, edge.ID, key))
			}
		}
	}

	var unused []string
	for guard := range graph.Guards {
		if !referenced[guard] {
			unused = append(unused, guard)
		}
	}
	sort.Strings(unused)
	if len(unused) > 0 {
		diags = append(diags, diag.Infof(diag.CodeGuardUnused,
			map[string]any{"guards": unused, "count": len(unused)},
			"%d declared guard(s) never referenced: %s", len(unused), diag.SortedList(unused)))
	}

	return diags
}
