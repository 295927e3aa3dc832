// Package spec defines the typed per-layer documents of a Strata
// specification and the decode step that produces them from raw YAML.
//
// Raw documents arrive as untyped maps. Decoding fails closed: a missing or
// mistyped required field is a structural error, never a nil propagated into
// the checking stages.
package spec

import "fmt"

// Layer identifies a document's stratum.
type Layer string

const (
	LayerNavigation Layer = "navigation"
	LayerUI         Layer = "ui"
	LayerState      Layer = "state"
	LayerI18n       Layer = "i18n"
)

// ValidLayers defines the allowed layer declarations.
var ValidLayers = map[Layer]bool{
	LayerNavigation: true,
	LayerUI:         true,
	LayerState:      true,
	LayerI18n:       true,
}

// ScreenKey is the composite identity of a screen. Context disambiguates
// variants of the same logical screen (role-based variants and the like).
type ScreenKey struct {
	ID      string `json:"id"`
	Context string `json:"context,omitempty"`
}

func (k ScreenKey) String() string {
	if k.Context == "" {
		return k.ID
	}
	return k.ID + "@" + k.Context
}

// NodeKind distinguishes plain screens from automatic choice nodes.
type NodeKind string

const (
	KindScreen NodeKind = "screen"
	KindChoice NodeKind = "choice"
)

// Trigger is what fires a transition.
type Trigger string

const (
	TriggerTap  Trigger = "tap"
	TriggerAuto Trigger = "auto"
)

// NavigationDoc is a decoded navigation-layer document: either one screen
// with its outgoing transitions, or a guard declaration set (never both).
type NavigationDoc struct {
	Path   string
	Group  string
	Screen *ScreenDecl
	Guards []string
}

// ScreenDecl is a screen as declared in its navigation document.
type ScreenDecl struct {
	Key         ScreenKey
	Name        string
	Entry       bool
	Exit        bool
	Kind        NodeKind
	Transitions []TransitionDecl
}

// TransitionDecl is an outgoing edge as declared, before target resolution.
type TransitionDecl struct {
	ID            string
	Target        string
	TargetContext string
	Guard         string
	Else          bool
	Trigger       Trigger
}

// UIDoc is a decoded UI-layer document: a screen reference and its
// normalized element tree.
type UIDoc struct {
	Path     string
	Screen   ScreenKey
	Elements []Element
}

// Element is a normalized UI node. The decode step flattens nodes that nest
// children under a "layout" sub-object, so traversal sees one shape.
type Element struct {
	ID       string
	Name     string
	Text     string // translation key, optional
	Action   string // transition id on the owning screen, optional
	Children []Element
}

// Action is a user-triggerable UI action extracted from an element tree.
type Action struct {
	Screen      ScreenKey
	ComponentID string
	ActionID    string
}

// Actions walks the element tree and collects every element carrying an
// action reference.
func (d *UIDoc) Actions() []Action {
	var actions []Action
	var walk func(els []Element)
	walk = func(els []Element) {
		for _, el := range els {
			if el.Action != "" {
				actions = append(actions, Action{
					Screen:      d.Screen,
					ComponentID: el.ID,
					ActionID:    el.Action,
				})
			}
			walk(el.Children)
		}
	}
	walk(d.Elements)
	return actions
}

// TextKeys collects every translation key referenced by the element tree.
func (d *UIDoc) TextKeys() []string {
	var keys []string
	var walk func(els []Element)
	walk = func(els []Element) {
		for _, el := range els {
			if el.Text != "" {
				keys = append(keys, el.Text)
			}
			walk(el.Children)
		}
	}
	walk(d.Elements)
	return keys
}

// EventType classifies a state event.
type EventType string

const (
	EventNavigate     EventType = "navigate"
	EventCallQuery    EventType = "callQuery"
	EventCallMutation EventType = "callMutation"
	EventCustom       EventType = "custom"
)

// StateDoc is a decoded state-layer document: per-screen data declarations
// and the event map wiring transitions to behavior.
type StateDoc struct {
	Path      string
	Screen    ScreenKey
	Queries   []DataRef
	Mutations []DataRef
	Events    map[string]Event
}

// DataRef declares a named query or mutation bound to a contract operation.
type DataRef struct {
	Name        string
	OperationID string
	SelectRoot  string // response root key, optional
}

// Event describes what an event key does. Query/Mutation are set only for
// the corresponding call types.
type Event struct {
	Type     EventType
	Query    string
	Mutation string
}

// I18nDoc is a decoded translation document: a flat key → text map.
type I18nDoc struct {
	Path string
	Keys map[string]string
}

// DecodeError is a fail-closed decode failure with the offending field path.
type DecodeError struct {
	Path    string // document file path
	Field   string
	Message string
}

func (e *DecodeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
