package domain

// WarningKind classifies a non-fatal condition raised while building a stack.
type WarningKind string

// Warning kinds.
const (
	// WarnMissingDose marks an item kept without numeric dosing guidance.
	WarnMissingDose WarningKind = "missing_dose"
	// WarnCandidateNotFound marks a candidate dropped because no catalog record matched.
	WarnCandidateNotFound WarningKind = "candidate_not_found"
	// WarnContraindication marks a candidate dropped for a matching health condition.
	WarnContraindication WarningKind = "contraindication"
	// WarnCatalogFetchFailure marks a candidate dropped because its catalog lookup failed.
	WarnCatalogFetchFailure WarningKind = "catalog_fetch_failure"
	// WarnCapacityOverflow marks lower-priority items removed by the experience cap.
	WarnCapacityOverflow WarningKind = "capacity_overflow"
	// WarnTimingAdjusted marks a schedule block moved by the conflict resolver.
	WarnTimingAdjusted WarningKind = "timing_adjusted"
	// WarnSynergy flags overlapping active ingredients without changing the stack.
	WarnSynergy WarningKind = "synergy"
	// WarnTemplateMissing marks a selected goal without a template.
	WarnTemplateMissing WarningKind = "template_missing"
)

// Severity captures how loudly a warning should be surfaced.
type Severity string

// Warning severities.
const (
	SeverityInfo Severity = "info"
	SeverityWarn Severity = "warn"
)

// Warning reports a non-fatal condition.
type Warning struct {
	Kind     WarningKind `json:"kind"`
	Severity Severity    `json:"severity"`
	Message  string      `json:"message"`
	Subject  string      `json:"subject,omitempty"`
}

// Result aggregates warnings raised by the engine and its collaborators.
type Result struct {
	Warnings []Warning `json:"warnings"`
}

// Add appends a single warning.
func (r *Result) Add(kind WarningKind, severity Severity, subject, message string) {
	r.Warnings = append(r.Warnings, Warning{Kind: kind, Severity: severity, Subject: subject, Message: message})
}

// Merge appends warnings from another result.
func (r *Result) Merge(other Result) {
	if len(other.Warnings) == 0 {
		return
	}
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// Messages returns the warning messages in order.
func (r Result) Messages() []string {
	out := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		out = append(out, w.Message)
	}
	return out
}

// Count returns how many warnings of the given kind were raised.
func (r Result) Count(kind WarningKind) int {
	n := 0
	for _, w := range r.Warnings {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

// Has reports whether any warning of the given kind was raised.
func (r Result) Has(kind WarningKind) bool {
	return r.Count(kind) > 0
}
