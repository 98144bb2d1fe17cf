package models

// OutcomeKind tags the result of extracting one item page.
type OutcomeKind int

const (
	// OutcomeSuccess carries a record.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeNoData means the page had no extractable detail table or no
	// primary identifier. It is a normal outcome, not an error.
	OutcomeNoData
	// OutcomeTransientError means loading or reading the page failed.
	OutcomeTransientError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeNoData:
		return "no_data"
	case OutcomeTransientError:
		return "transient_error"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of an item extraction. Record is set only
// for OutcomeSuccess; Err only for OutcomeTransientError.
type Outcome struct {
	Kind   OutcomeKind
	Record *RawItemRecord
	Reason string
	Err    error
}

// Success wraps a record.
func Success(rec RawItemRecord) Outcome {
	return Outcome{Kind: OutcomeSuccess, Record: &rec}
}

// NoData reports a page without extractable data.
func NoData(reason string) Outcome {
	return Outcome{Kind: OutcomeNoData, Reason: reason}
}

// TransientError reports a failure while loading or reading a page.
func TransientError(err error) Outcome {
	return Outcome{Kind: OutcomeTransientError, Reason: ErrorCode(err), Err: err}
}

// OK reports whether the outcome carries a record.
func (o Outcome) OK() bool {
	return o.Kind == OutcomeSuccess && o.Record != nil
}
