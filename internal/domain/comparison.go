package domain

import "time"

// ComparisonEntry is one model's slot in a comparison run. Exactly one
// of (Model, Err) describes the outcome: a failed fit carries the error
// and nil Model/Diagnostics. Diagnostics may be nil for a fitted model
// whose residual tests could not be computed.
type ComparisonEntry struct {
	Spec        ModelSpec
	Model       *FittedModel
	Diagnostics *DiagnosticResult
	Err         error

	// Elapsed is the wall time spent fitting this spec, including
	// diagnostics. Set on both success and failure.
	Elapsed time.Duration
}

// Failed reports whether the fit for this entry failed outright.
func (e *ComparisonEntry) Failed() bool {
	return e.Err != nil
}

// ComparisonReport is the output of one comparison run over a single
// return series. Entries preserve the order in which specs were
// supplied.
type ComparisonReport struct {
	Symbol      string
	GeneratedAt time.Time
	Stats       *DescriptiveStats
	Entries     []ComparisonEntry
}

// Entry returns the entry for a spec, or nil if the spec was not part
// of the run.
func (r *ComparisonReport) Entry(spec ModelSpec) *ComparisonEntry {
	for i := range r.Entries {
		if r.Entries[i].Spec == spec {
			return &r.Entries[i]
		}
	}
	return nil
}

// Fitted returns the successfully fitted entries in run order.
func (r *ComparisonReport) Fitted() []*ComparisonEntry {
	var out []*ComparisonEntry
	for i := range r.Entries {
		if !r.Entries[i].Failed() {
			out = append(out, &r.Entries[i])
		}
	}
	return out
}
