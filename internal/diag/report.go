package diag

// Section identifies which pipeline stage produced a diagnostic. Sections
// concatenate in a fixed order so a report is deterministic run-to-run given
// identical input.
type Section int

const (
	SectionStructural Section = iota
	SectionNavigation
	SectionReachability
	SectionCrossLayer
	SectionContract
	SectionTranslations
	sectionCount
)

var sectionNames = map[Section]string{
	SectionStructural:   "structural",
	SectionNavigation:   "navigation",
	SectionReachability: "reachability",
	SectionCrossLayer:   "cross-layer",
	SectionContract:     "contract",
	SectionTranslations: "translations",
}

func (s Section) String() string {
	if name, ok := sectionNames[s]; ok {
		return name
	}
	return "unknown"
}

// Report aggregates diagnostics across pipeline stages. Append order within
// a section is preserved; sections always render in declaration order.
type Report struct {
	sections [sectionCount][]Diagnostic
}

// NewReport returns an empty report.
func NewReport() *Report {
	return &Report{}
}

// Add appends diagnostics to a section.
func (r *Report) Add(s Section, ds ...Diagnostic) {
	r.sections[s] = append(r.sections[s], ds...)
}

// All returns every diagnostic in fixed section order.
func (r *Report) All() []Diagnostic {
	var all []Diagnostic
	for s := Section(0); s < sectionCount; s++ {
		all = append(all, r.sections[s]...)
	}
	return all
}

// Errors returns only error-level diagnostics, in section order.
func (r *Report) Errors() []Diagnostic {
	return r.filter(Error)
}

// Infos returns only info-level diagnostics, in section order.
func (r *Report) Infos() []Diagnostic {
	return r.filter(Info)
}

// FirstByCode returns the first diagnostic with the given code, or false if
// none exists.
func (r *Report) FirstByCode(code string) (Diagnostic, bool) {
	for _, d := range r.All() {
		if d.Code == code {
			return d, true
		}
	}
	return Diagnostic{}, false
}

// OK reports pass/fail: the run fails if and only if at least one
// error-level diagnostic exists.
func (r *Report) OK() bool {
	for s := Section(0); s < sectionCount; s++ {
		for _, d := range r.sections[s] {
			if d.Level == Error {
				return false
			}
		}
	}
	return true
}

func (r *Report) filter(level Level) []Diagnostic {
	var out []Diagnostic
	for s := Section(0); s < sectionCount; s++ {
		for _, d := range r.sections[s] {
			if d.Level == level {
				out = append(out, d)
			}
		}
	}
	return out
}
