package document

import "errors"

// Outcome reports what a mutating call did to the stored record.
type Outcome int

const (
	// Unchanged: nothing was sent to the store (equal value, empty update,
	// or the call failed before touching memory).
	Unchanged Outcome = iota
	// Applied: the store matched the record and applied the write.
	Applied
	// NoMatchingRecord: the write was sent but matched no record, usually
	// because it was deleted elsewhere. The in-memory mirror was still updated.
	NoMatchingRecord
	// Removed: the document was removed through this instance; no write was sent.
	Removed
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Applied:
		return "applied"
	case NoMatchingRecord:
		return "no_matching_record"
	case Removed:
		return "removed"
	}
	return "unknown"
}

func outcomeOf(matched bool) Outcome {
	if matched {
		return Applied
	}
	return NoMatchingRecord
}

var (
	ErrInvalidID        = errors.New("invalid document identifier")
	ErrImmutableID      = errors.New("_id cannot be changed")
	ErrInvalidFieldName = errors.New("invalid field name")
	ErrUnknownField     = errors.New("unknown field")
	ErrEmptyUpdate      = errors.New("update has no fields")
)

// ErrDetached is returned by a Variable whose field has been removed.
// Callers must not keep using a Variable after Remove.
var ErrDetached = errors.New("variable is detached from its document")
