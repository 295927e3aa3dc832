// Package engine runs the full validation pipeline over a loaded document
// set: structural validation, navigation graph build, reachability,
// cross-layer checks, contract resolution, and the translation audit, in
// that fixed order.
//
// A run is a pure function of its input documents: given an unchanged set,
// the diagnostic list is identical run-to-run, in order and content. The
// run id is the only varying output and is never part of the diagnostics.
package engine

import (
	"github.com/google/uuid"

	"github.com/strataspec/strata/internal/contract"
	"github.com/strataspec/strata/internal/crossref"
	"github.com/strataspec/strata/internal/diag"
	"github.com/strataspec/strata/internal/i18n"
	"github.com/strataspec/strata/internal/loader"
	"github.com/strataspec/strata/internal/nav"
	"github.com/strataspec/strata/internal/schema"
	"github.com/strataspec/strata/internal/spec"
)

// Engine validates document sets. The schema cache is shared across runs;
// everything else is per-run state.
type Engine struct {
	Schemas *schema.Cache
	Nav     nav.Config
}

// New builds an engine with a fresh schema cache.
func New() (*Engine, error) {
	cache, err := schema.NewCache()
	if err != nil {
		return nil, err
	}
	return &Engine{Schemas: cache}, nil
}

// Result is the outcome of one validation run.
type Result struct {
	RunID  string
	Report *diag.Report
}

// Pass reports the CI gate decision: fail iff any error-level diagnostic.
func (r *Result) Pass() bool {
	return r.Report.OK()
}

// Run validates the document set. contractDoc may be nil, in which case the
// contract stage (and the state→contract cross-check) is skipped.
func (e *Engine) Run(docs []loader.Document, contractDoc *contract.Document) *Result {
	report := diag.NewReport()

	navDocs, uiDocs, stateDocs, i18nDocs := e.decodeAll(docs, report)

	graph, buildDiags := nav.Build(navDocs, e.Nav)
	report.Add(diag.SectionNavigation, buildDiags...)

	report.Add(diag.SectionReachability, nav.Analyze(graph)...)

	report.Add(diag.SectionCrossLayer, crossref.Check(graph, uiDocs, stateDocs)...)

	if contractDoc != nil {
		registry, registryDiags := contract.BuildRegistry(contractDoc)
		report.Add(diag.SectionContract, registryDiags...)
		report.Add(diag.SectionContract, contract.CheckStateRefs(registry, stateDocs)...)
	}

	report.Add(diag.SectionTranslations, i18n.Audit(uiDocs, i18nDocs)...)

	return &Result{
		RunID:  uuid.Must(uuid.NewV7()).String(),
		Report: report,
	}
}

// decodeAll runs structural validation and the typed decode for every
// document. A document that fails either step is excluded from its layer's
// downstream checks; the rest of the run proceeds.
func (e *Engine) decodeAll(docs []loader.Document, report *diag.Report) (
	navDocs []*spec.NavigationDoc,
	uiDocs []*spec.UIDoc,
	stateDocs []*spec.StateDoc,
	i18nDocs []*spec.I18nDoc,
) {
	for _, doc := range docs {
		layer, err := spec.DetectLayer(doc.Path, doc.Raw)
		if err != nil {
			report.Add(diag.SectionStructural, decodeDiagnostic(err))
			continue
		}

		if !e.validateShape(doc, layer, report) {
			continue
		}

		switch layer {
		case spec.LayerNavigation:
			decoded, err := spec.DecodeNavigation(doc.Path, doc.Group, doc.Raw)
			if err != nil {
				report.Add(diag.SectionStructural, decodeDiagnostic(err))
				continue
			}
			navDocs = append(navDocs, decoded)
		case spec.LayerUI:
			decoded, err := spec.DecodeUI(doc.Path, doc.Raw)
			if err != nil {
				report.Add(diag.SectionStructural, decodeDiagnostic(err))
				continue
			}
			uiDocs = append(uiDocs, decoded)
		case spec.LayerState:
			decoded, err := spec.DecodeState(doc.Path, doc.Raw)
			if err != nil {
				report.Add(diag.SectionStructural, decodeDiagnostic(err))
				continue
			}
			stateDocs = append(stateDocs, decoded)
		case spec.LayerI18n:
			decoded, err := spec.DecodeI18n(doc.Path, doc.Raw)
			if err != nil {
				report.Add(diag.SectionStructural, decodeDiagnostic(err))
				continue
			}
			i18nDocs = append(i18nDocs, decoded)
		}
	}
	return navDocs, uiDocs, stateDocs, i18nDocs
}

// validateShape checks the document against its layer schema. Internal
// validator failures become a single structured diagnostic instead of
// aborting the run.
func (e *Engine) validateShape(doc loader.Document, layer spec.Layer, report *diag.Report) bool {
	valid, violations, err := e.Schemas.Validate(string(layer), doc.Raw)
	if err != nil {
		if _, notFound := err.(*schema.NotFoundError); notFound {
			report.Add(diag.SectionStructural, diag.Errorf(diag.CodeSchemaNotFound,
				map[string]any{"path": doc.Path, "schema": string(layer)},
				"document %s: no schema registered for layer %q", doc.Path, layer))
		} else {
			report.Add(diag.SectionStructural, diag.Errorf(diag.CodeBadDocument,
				map[string]any{"path": doc.Path, "schema": string(layer)},
				"document %s: structural validation failed: %v", doc.Path, err))
		}
		return false
	}
	if !valid {
		report.Add(diag.SectionStructural, diag.Errorf(diag.CodeSchemaViolation,
			map[string]any{"path": doc.Path, "schema": string(layer), "violations": violations, "count": len(violations)},
			"document %s violates the %s schema (%d violation(s))", doc.Path, layer, len(violations)))
		return false
	}
	return true
}

// decodeDiagnostic converts a fail-closed decode error into a structural
// diagnostic.
func decodeDiagnostic(err error) diag.Diagnostic {
	if decodeErr, ok := err.(*spec.DecodeError); ok {
		return diag.Errorf(diag.CodeBadDocument,
			map[string]any{"path": decodeErr.Path, "field": decodeErr.Field},
			"document %s: %s: %s", decodeErr.Path, decodeErr.Field, decodeErr.Message)
	}
	return diag.Errorf(diag.CodeBadDocument, nil, "bad document: %v", err)
}
