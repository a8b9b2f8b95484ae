package models

// Confidence is the trust level attached to a resolved date/time.
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// ResolutionResult is the outcome of resolving a natural-language visit date and time.
//
// VisitDatetimeISO is non-nil only when Confidence is high. VisitDate and VisitTime
// keep the generator's raw strings under low confidence when they were strings;
// values of any other JSON kind are kept verbatim in RawDate and RawTime.
type ResolutionResult struct {
	VisitDate        *string    `json:"visit_date"`
	VisitTime        *string    `json:"visit_time"`
	VisitDatetimeISO *string    `json:"visit_datetime_iso"`
	Timezone         string     `json:"timezone"`
	Confidence       Confidence `json:"confidence"`
	RawDate          string     `json:"raw_date,omitempty"`
	RawTime          string     `json:"raw_time,omitempty"`
}

// Committable reports whether the result may be used to book a visit.
func (r ResolutionResult) Committable() bool {
	return r.Confidence == ConfidenceHigh && r.VisitDatetimeISO != nil
}
