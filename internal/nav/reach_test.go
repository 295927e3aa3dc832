package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strataspec/strata/internal/diag"
	"github.com/strataspec/strata/internal/spec"
)

func byCode(diags []diag.Diagnostic, code string) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, d := range diags {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

func buildGraph(t *testing.T, docs []*spec.NavigationDoc) *Graph {
	t.Helper()
	graph, diags := Build(docs, Config{})
	require.Empty(t, diags)
	return graph
}

// TestAnalyze_NoEntry tests that zero entry screens is exactly one error
// and analysis still runs with an empty reachable set.
func TestAnalyze_NoEntry(t *testing.T) {
	graph := buildGraph(t, []*spec.NavigationDoc{
		screenDoc("a.yaml", "", spec.ScreenDecl{Key: spec.ScreenKey{ID: "a"}, Exit: true}),
	})

	diags := Analyze(graph)
	require.Len(t, byCode(diags, diag.CodeNoEntry), 1)
	// With no entries, everything is unreachable.
	unreachable := byCode(diags, diag.CodeUnreachable)
	require.Len(t, unreachable, 1)
	assert.Equal(t, []string{"a"}, unreachable[0].Meta["screens"])
}

// TestAnalyze_SingleEntryNote tests the single-entry informational note.
func TestAnalyze_SingleEntryNote(t *testing.T) {
	graph := buildGraph(t, []*spec.NavigationDoc{
		screenDoc("home.yaml", "", spec.ScreenDecl{
			Key:         spec.ScreenKey{ID: "home"},
			Entry:       true,
			Transitions: []spec.TransitionDecl{{ID: "go", Target: "end"}},
		}),
		screenDoc("end.yaml", "", spec.ScreenDecl{Key: spec.ScreenKey{ID: "end"}, Exit: true}),
	})

	diags := Analyze(graph)
	notes := byCode(diags, diag.CodeSingleEntry)
	require.Len(t, notes, 1)
	assert.Equal(t, diag.Info, notes[0].Level)
	assert.Equal(t, "home", notes[0].Meta["screen"])
	assert.Empty(t, byCode(diags, diag.CodeUnreachable))
}

// TestAnalyze_MultipleEntries tests that several entries are allowed and
// listed informationally.
func TestAnalyze_MultipleEntries(t *testing.T) {
	graph := buildGraph(t, []*spec.NavigationDoc{
		screenDoc("a.yaml", "", spec.ScreenDecl{Key: spec.ScreenKey{ID: "a"}, Entry: true, Exit: true}),
		screenDoc("b.yaml", "", spec.ScreenDecl{Key: spec.ScreenKey{ID: "b"}, Entry: true, Exit: true}),
	})

	diags := Analyze(graph)
	notes := byCode(diags, diag.CodeMultipleEntries)
	require.Len(t, notes, 1)
	assert.Equal(t, 2, notes[0].Meta["count"])
}

// TestAnalyze_UnreachableGrouped tests the grouped, sorted unreachable
// error.
func TestAnalyze_UnreachableGrouped(t *testing.T) {
	graph := buildGraph(t, []*spec.NavigationDoc{
		screenDoc("home.yaml", "", spec.ScreenDecl{Key: spec.ScreenKey{ID: "home"}, Entry: true, Exit: true}),
		screenDoc("z.yaml", "", spec.ScreenDecl{Key: spec.ScreenKey{ID: "zeta"}, Exit: true}),
		screenDoc("o.yaml", "", spec.ScreenDecl{Key: spec.ScreenKey{ID: "orphan"}, Exit: true}),
	})

	diags := Analyze(graph)
	unreachable := byCode(diags, diag.CodeUnreachable)
	require.Len(t, unreachable, 1)
	assert.Equal(t, []string{"orphan", "zeta"}, unreachable[0].Meta["screens"])
}

// TestAnalyze_CycleTerminates tests that cycles are valid and traversal
// terminates.
func TestAnalyze_CycleTerminates(t *testing.T) {
	graph := buildGraph(t, []*spec.NavigationDoc{
		screenDoc("a.yaml", "", spec.ScreenDecl{
			Key: spec.ScreenKey{ID: "a"}, Entry: true,
			Transitions: []spec.TransitionDecl{{ID: "to_b", Target: "b"}},
		}),
		screenDoc("b.yaml", "", spec.ScreenDecl{
			Key:         spec.ScreenKey{ID: "b"},
			Transitions: []spec.TransitionDecl{{ID: "to_a", Target: "a"}},
		}),
	})

	diags := Analyze(graph)
	assert.Empty(t, byCode(diags, diag.CodeUnreachable))
	for _, d := range diags {
		assert.Equal(t, diag.Info, d.Level)
	}
}

// TestAnalyze_DeadEndNote tests the non-exit dead end informational note.
func TestAnalyze_DeadEndNote(t *testing.T) {
	graph := buildGraph(t, []*spec.NavigationDoc{
		screenDoc("home.yaml", "", spec.ScreenDecl{
			Key: spec.ScreenKey{ID: "home"}, Entry: true,
			Transitions: []spec.TransitionDecl{{ID: "go", Target: "stuck"}},
		}),
		screenDoc("stuck.yaml", "", spec.ScreenDecl{Key: spec.ScreenKey{ID: "stuck"}}),
	})

	diags := Analyze(graph)
	notes := byCode(diags, diag.CodeDeadEnd)
	require.Len(t, notes, 1)
	assert.Equal(t, diag.Info, notes[0].Level)
	assert.Equal(t, "stuck", notes[0].Meta["screen"])
}

// TestAnalyze_ChoicePolicy tests the choice-node guard/else/trigger rules.
func TestAnalyze_ChoicePolicy(t *testing.T) {
	graph := buildGraph(t, []*spec.NavigationDoc{
		{Path: "guards.yaml", Guards: []string{"has_session"}},
		screenDoc("gate.yaml", "", spec.ScreenDecl{
			Key: spec.ScreenKey{ID: "gate"}, Entry: true, Kind: spec.KindChoice,
			Transitions: []spec.TransitionDecl{
				{ID: "in", Target: "main", Guard: "has_session", Trigger: spec.TriggerAuto},
				{ID: "out", Target: "login", Trigger: spec.TriggerAuto}, // neither guard nor else
				{ID: "tapper", Target: "login", Else: true, Trigger: spec.TriggerTap},
			},
		}),
		screenDoc("main.yaml", "", spec.ScreenDecl{Key: spec.ScreenKey{ID: "main"}, Exit: true}),
		screenDoc("login.yaml", "", spec.ScreenDecl{Key: spec.ScreenKey{ID: "login"}, Exit: true}),
	})

	diags := Analyze(graph)

	unguarded := byCode(diags, diag.CodeChoiceUnguarded)
	require.Len(t, unguarded, 1)
	assert.Equal(t, "out", unguarded[0].Meta["transition"])

	taps := byCode(diags, diag.CodeChoiceTapTrigger)
	require.Len(t, taps, 1)
	assert.Equal(t, "tapper", taps[0].Meta["transition"])

	assert.Empty(t, byCode(diags, diag.CodeChoiceMultipleElse))
}

// TestAnalyze_ChoiceMultipleElse tests the at-most-one-else rule.
func TestAnalyze_ChoiceMultipleElse(t *testing.T) {
	graph := buildGraph(t, []*spec.NavigationDoc{
		screenDoc("gate.yaml", "", spec.ScreenDecl{
			Key: spec.ScreenKey{ID: "gate"}, Entry: true, Kind: spec.KindChoice,
			Transitions: []spec.TransitionDecl{
				{ID: "a", Target: "end", Else: true, Trigger: spec.TriggerAuto},
				{ID: "b", Target: "end", Else: true, Trigger: spec.TriggerAuto},
			},
		}),
		screenDoc("end.yaml", "", spec.ScreenDecl{Key: spec.ScreenKey{ID: "end"}, Exit: true}),
	})

	diags := Analyze(graph)
	multi := byCode(diags, diag.CodeChoiceMultipleElse)
	require.Len(t, multi, 1)
	assert.Equal(t, 2, multi[0].Meta["count"])
}

// TestAnalyze_Guards tests dangling guard references (error) and unused
// declarations (info).
func TestAnalyze_Guards(t *testing.T) {
	graph := buildGraph(t, []*spec.NavigationDoc{
		{Path: "guards.yaml", Guards: []string{"declared_unused", "has_session"}},
		screenDoc("home.yaml", "", spec.ScreenDecl{
			Key: spec.ScreenKey{ID: "home"}, Entry: true,
			Transitions: []spec.TransitionDecl{
				{ID: "ok", Target: "end", Guard: "has_session"},
				{ID: "bad", Target: "end", Guard: "undeclared"},
			},
		}),
		screenDoc("end.yaml", "", spec.ScreenDecl{Key: spec.ScreenKey{ID: "end"}, Exit: true}),
	})

	diags := Analyze(graph)

	unknown := byCode(diags, diag.CodeGuardUnknown)
	require.Len(t, unknown, 1)
	assert.Equal(t, "undeclared", unknown[0].Meta["guard"])

	unused := byCode(diags, diag.CodeGuardUnused)
	require.Len(t, unused, 1)
	assert.Equal(t, diag.Info, unused[0].Level)
	assert.Equal(t, []string{"declared_unused"}, unused[0].Meta["guards"])
}
