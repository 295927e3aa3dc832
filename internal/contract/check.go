package contract

import (
	"github.com/strataspec/strata/internal/diag"
	"github.com/strataspec/strata/internal/spec"
)

// CheckStateRefs validates every state-layer query/mutation reference
// against the registry.
//
// An unknown operation id is a hard error. A declared select root is an
// error only when root-key resolution succeeded and the key is absent; an
// unresolved shape yields an informational note, because absence cannot be
// asserted without proof. Operations never referenced by any state document
// are informational: the contract may legitimately be ahead of UI wiring.
func CheckStateRefs(registry *Registry, stateDocs []*spec.StateDoc) []diag.Diagnostic {
	var diags []diag.Diagnostic
	referenced := make(map[string]bool)

	for _, doc := range stateDocs {
		for _, kind := range []struct {
			label string
			refs  []spec.DataRef
		}{
			{"query", doc.Queries},
			{"mutation", doc.Mutations},
		} {
			for _, ref := range kind.refs {
				op, ok := registry.Operations[ref.OperationID]
				if !ok {
					diags = append(diags, diag.Errorf(diag.CodeUnknownOperation,
						map[string]any{"path": doc.Path, "screen": doc.Screen.String(), kind.label: ref.Name, "operationId": ref.OperationID},
						"%s %q on %s references unknown operation %q", kind.label, ref.Name, doc.Screen, ref.OperationID))
					continue
				}
				referenced[op.ID] = true

				if ref.SelectRoot == "" {
					continue
				}
				if !op.RootKeysResolved {
					diags = append(diags, diag.Infof(diag.CodeRootKeyUnverified,
						map[string]any{"path": doc.Path, kind.label: ref.Name, "operationId": op.ID, "selectRoot": ref.SelectRoot},
						"%s %q selects root %q of operation %q whose response shape is unresolved", kind.label, ref.Name, ref.SelectRoot, op.ID))
					continue
				}
				if !op.HasRootKey(ref.SelectRoot) {
					diags = append(diags, diag.Errorf(diag.CodeRootKeyMissing,
						map[string]any{"path": doc.Path, kind.label: ref.Name, "operationId": op.ID, "selectRoot": ref.SelectRoot, "rootKeys": op.RootKeys},
						"%s %q selects root %q which is not a response root key of operation %q (has: %s)", kind.label, ref.Name, ref.SelectRoot, op.ID, diag.SortedList(op.RootKeys)))
				}
			}
		}
	}

	for _, id := range registry.SortedIDs() {
		if !referenced[id] {
			diags = append(diags, diag.Infof(diag.CodeOperationUnused,
				map[string]any{"operationId": id},
				"operation %q is not referenced by any state document", id))
		}
	}

	return diags
}
