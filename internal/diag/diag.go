package diag

import (
	"fmt"
	"sort"
	"strings"
)

// Level is the severity of a diagnostic.
// There are exactly two levels: an error marks a specification that cannot be
// implemented as written; info marks a visible-but-acceptable state (unused
// item, pending wiring, untranslated text). Info never affects pass/fail.
type Level string

const (
	Error Level = "error"
	Info  Level = "info"
)

// Diagnostic codes, grouped by layer.
//
// L1 = structural (schema shape), L2 = navigation, L3 = UI, L4 = state,
// API = external contract, I18N = translations.
const (
	// Structural errors (L1)
	CodeSchemaViolation = "L1_SCHEMA_VIOLATION" // document violates its declared schema
	CodeSchemaNotFound  = "L1_SCHEMA_NOT_FOUND" // no schema registered under the declared name
	CodeBadDocument     = "L1_BAD_DOCUMENT"     // document could not be decoded into its layer type

	// Navigation errors (L2)
	CodeUnknownGroup         = "L2_UNKNOWN_GROUP"          // structural group not in the known set
	CodeDuplicateScreen      = "L2_DUPLICATE_SCREEN"       // composite (id, context) key declared twice
	CodeUnknownTarget        = "L2_UNKNOWN_TARGET"         // transition target id matches no screen
	CodeUnknownTargetContext = "L2_UNKNOWN_TARGET_CONTEXT" // target context matches no variant
	CodeAmbiguousTarget      = "L2_AMBIGUOUS_TARGET"       // multiple variants, no context given
	CodeNoEntry              = "L2_NO_ENTRY"               // no entry screen declared
	CodeUnreachable          = "L2_UNREACHABLE"            // screens unreachable from any entry
	CodeChoiceUnguarded      = "L2_CHOICE_UNGUARDED"       // choice transition lacks guard and else
	CodeChoiceMultipleElse   = "L2_CHOICE_MULTIPLE_ELSE"   // more than one else transition on a choice
	CodeChoiceTapTrigger     = "L2_CHOICE_TAP_TRIGGER"     // tap-triggered edge out of a choice screen
	CodeGuardUnknown         = "L2_GUARD_UNKNOWN"          // guard reference not in the registry

	// Navigation info (L2)
	CodeSingleEntry       = "L2_SINGLE_ENTRY"       // exactly one entry screen
	CodeMultipleEntries   = "L2_MULTIPLE_ENTRIES"   // more than one entry screen
	CodeDeadEnd           = "L2_DEAD_END"           // non-exit screen with no outgoing transitions
	CodeGuardUnused       = "L2_GUARD_UNUSED"       // declared guard never referenced
	CodeTransitionUnwired = "L2_TRANSITION_UNWIRED" // transition with no matching state event

	// UI errors (L3)
	CodeUIScreenUnknown = "L3_SCREEN_NOT_IN_L2" // UI document's screen key not in the registry
	CodeActionUnknown   = "L3_ACTION_NOT_IN_L2" // UI action matches no transition id on its screen

	// State errors and info (L4)
	CodeStateScreenUnknown = "L4_SCREEN_NOT_IN_L2"    // state document's screen key not in the registry
	CodeQueryUndeclared    = "L4_QUERY_UNDECLARED"    // callQuery event names an undeclared query
	CodeMutationUndeclared = "L4_MUTATION_UNDECLARED" // callMutation event names an undeclared mutation
	CodeEventUnwired       = "L4_EVENT_UNWIRED"       // event key with no matching transition id

	// Contract errors and info (API)
	CodeOperationIDMissing   = "API_OPERATION_ID_MISSING"   // path/method without an operation id
	CodeOperationIDDuplicate = "API_OPERATION_ID_DUPLICATE" // operation id declared more than once
	CodeUnknownOperation     = "API_UNKNOWN_OPERATION"      // state reference to an undeclared operation
	CodeRootKeyMissing       = "API_ROOT_KEY_MISSING"       // select root absent from resolved root keys
	CodeOperationUnused      = "API_OPERATION_UNUSED"       // operation never referenced by any state doc
	CodeRootKeyUnverified    = "API_ROOT_KEY_UNVERIFIED"    // select root against an unresolved shape

	// Translation info (I18N)
	CodeUntranslated = "I18N_UNTRANSLATED" // referenced text key with no translation
)

// Diagnostic is a single structured finding. Meta carries the affected ids,
// file paths and counts so tooling can re-render output without parsing
// Message.
type Diagnostic struct {
	Code    string         `json:"code"`
	Level   Level          `json:"level"`
	Message string         `json:"message"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s: %s", d.Level, d.Code, d.Message)
}

// Errorf builds an error-level diagnostic. Meta pairs are given as
// alternating key, value arguments.
func Errorf(code string, meta map[string]any, format string, args ...any) Diagnostic {
	return Diagnostic{Code: code, Level: Error, Message: fmt.Sprintf(format, args...), Meta: meta}
}

// Infof builds an info-level diagnostic.
func Infof(code string, meta map[string]any, format string, args ...any) Diagnostic {
	return Diagnostic{Code: code, Level: Info, Message: fmt.Sprintf(format, args...), Meta: meta}
}

// SortedList renders a sorted, comma-joined list for grouped diagnostics.
// Sorting keeps output stable run-to-run regardless of map iteration order.
func SortedList(items []string) string {
	sorted := make([]string, len(items))
	copy(sorted, items)
	sort.Strings(sorted)
	return strings.Join(sorted, ", ")
}
