// Package nav builds the navigation graph from navigation-layer documents
// and analyzes it for reachability and choice-node consistency.
package nav

import (
	"sort"

	"github.com/strataspec/strata/internal/diag"
	"github.com/strataspec/strata/internal/spec"
)

// DefaultGroups is the known structural group set. The empty group covers
// files directly under the specification root.
var DefaultGroups = []string{"", "Core", "Auth", "Main", "Settings", "Onboarding"}

// Config controls graph construction.
type Config struct {
	// Groups is the known structural group set. Empty means DefaultGroups.
	Groups []string
}

// Screen is a node of the navigation graph. Immutable after construction.
type Screen struct {
	Key   spec.ScreenKey
	Name  string
	Entry bool
	Exit  bool
	Kind  spec.NodeKind
	Group string
}

// Transition is a resolved directed edge between two screen keys.
type Transition struct {
	From    spec.ScreenKey
	To      spec.ScreenKey
	ID      string
	Guard   string
	Else    bool
	Trigger spec.Trigger
}

// Graph is the screen/transition registry for one validation run.
type Graph struct {
	Screens     map[spec.ScreenKey]*Screen
	Transitions []Transition
	Guards      map[string]bool // declared guard ids; empty when no guard document exists

	variants map[string][]spec.ScreenKey // screen id → declared variants
	outgoing map[spec.ScreenKey][]Transition
}

// Outgoing returns the outgoing transitions of a screen, in declaration
// order.
func (g *Graph) Outgoing(key spec.ScreenKey) []Transition {
	return g.outgoing[key]
}

// Variants returns the declared context variants of a screen id.
func (g *Graph) Variants(id string) []spec.ScreenKey {
	return g.variants[id]
}

// SortedKeys returns every screen key, sorted for stable output.
func (g *Graph) SortedKeys() []spec.ScreenKey {
	keys := make([]spec.ScreenKey, 0, len(g.Screens))
	for key := range g.Screens {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ID != keys[j].ID {
			return keys[i].ID < keys[j].ID
		}
		return keys[i].Context < keys[j].Context
	})
	return keys
}

// Build constructs the graph from decoded navigation documents.
//
// Documents with an unknown structural group fail as a whole. A screen whose
// composite (id, context) key duplicates an existing one is rejected.
// Transition targets resolve strictly: an id with several context variants
// and no declared target context is an ambiguity error, never a silent
// default.
func Build(docs []*spec.NavigationDoc, cfg Config) (*Graph, []diag.Diagnostic) {
	groups := cfg.Groups
	if len(groups) == 0 {
		groups = DefaultGroups
	}
	knownGroups := make(map[string]bool, len(groups))
	for _, g := range groups {
		knownGroups[g] = true
	}

	graph := &Graph{
		Screens:  make(map[spec.ScreenKey]*Screen),
		Guards:   make(map[string]bool),
		variants: make(map[string][]spec.ScreenKey),
		outgoing: make(map[spec.ScreenKey][]Transition),
	}

	var diags []diag.Diagnostic

	// First pass: collect screens and guard declarations.
	type pendingEdges struct {
		from  spec.ScreenKey
		path  string
		decls []spec.TransitionDecl
	}
	var pending []pendingEdges

	for _, doc := range docs {
		if !knownGroups[doc.Group] {
			diags = append(diags, diag.Errorf(diag.CodeUnknownGroup,
				map[string]any{"path": doc.Path, "group": doc.Group},
				"document %s declares unknown structural group %q", doc.Path, doc.Group))
			continue
		}

		if doc.Guards != nil {
			for _, guard := range doc.Guards {
				graph.Guards[guard] = true
			}
			continue
		}
		if doc.Screen == nil {
			continue
		}

		decl := doc.Screen
		if _, exists := graph.Screens[decl.Key]; exists {
			diags = append(diags, diag.Errorf(diag.CodeDuplicateScreen,
				map[string]any{"path": doc.Path, "screen": decl.Key.String()},
				"screen %s is declared more than once", decl.Key))
			continue
		}

		graph.Screens[decl.Key] = &Screen{
			Key:   decl.Key,
			Name:  decl.Name,
			Entry: decl.Entry,
			Exit:  decl.Exit,
			Kind:  decl.Kind,
			Group: doc.Group,
		}
		graph.variants[decl.Key.ID] = append(graph.variants[decl.Key.ID], decl.Key)
		pending = append(pending, pendingEdges{from: decl.Key, path: doc.Path, decls: decl.Transitions})
	}

	// Second pass: resolve transition targets against the full registry.
	for _, p := range pending {
		for _, decl := range p.decls {
			to, d := resolveTarget(graph, p.path, p.from, decl)
			if d != nil {
				diags = append(diags, *d)
				continue
			}
			edge := Transition{
				From:    p.from,
				To:      to,
				ID:      decl.ID,
				Guard:   decl.Guard,
				Else:    decl.Else,
				Trigger: decl.Trigger,
			}
			graph.Transitions = append(graph.Transitions, edge)
			graph.outgoing[p.from] = append(graph.outgoing[p.from], edge)
		}
	}

	return graph, diags
}

// resolveTarget maps a declared target (id plus optional context) to a
// screen key, or returns the diagnostic explaining why it cannot.
func resolveTarget(graph *Graph, path string, from spec.ScreenKey, decl spec.TransitionDecl) (spec.ScreenKey, *diag.Diagnostic) {
	variants := graph.variants[decl.Target]
	if len(variants) == 0 {
		d := diag.Errorf(diag.CodeUnknownTarget,
			map[string]any{"path": path, "screen": from.String(), "transition": decl.ID, "target": decl.Target},
			"transition %s on %s targets unknown screen %q", decl.ID, from, decl.Target)
		return spec.ScreenKey{}, &d
	}

	if decl.TargetContext != "" {
		want := spec.ScreenKey{ID: decl.Target, Context: decl.TargetContext}
		for _, v := range variants {
			if v == want {
				return want, nil
			}
		}
		d := diag.Errorf(diag.CodeUnknownTargetContext,
			map[string]any{"path": path, "screen": from.String(), "transition": decl.ID, "target": decl.Target, "targetContext": decl.TargetContext},
			"transition %s on %s targets %q with unknown context %q", decl.ID, from, decl.Target, decl.TargetContext)
		return spec.ScreenKey{}, &d
	}

	if len(variants) == 1 {
		return variants[0], nil
	}

	contexts := make([]string, 0, len(variants))
	for _, v := range variants {
		contexts = append(contexts, v.Context)
	}
	d := diag.Errorf(diag.CodeAmbiguousTarget,
		map[string]any{"path": path, "screen": from.String(), "transition": decl.ID, "target": decl.Target, "contexts": diag.SortedList(contexts)},
		"transition %s on %s targets %q which has %d context variants; declare targetContext", decl.ID, from, decl.Target, len(variants))
	return spec.ScreenKey{}, &d
}
