package report

import "fmt"

// Entity kinds used in MissingReferenceError.
const (
	KindWidget = "widget"
	KindAlgo   = "algo"
)

// MissingReferenceError reports a scan that references a widget or algorithm
// id absent from the entity store. It is a data-integrity fault of the loaded
// snapshot, fatal to that single report row but not to the rest of the set.
type MissingReferenceError struct {
	Kind   string
	ID     int64
	ScanID int64
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("scan %d references %s %d which is not in the entity store", e.ScanID, e.Kind, e.ID)
}

// NonFiniteValueError reports a NaN or infinite predicted value reaching the
// formatter. This indicates corrupt ingestion upstream and aborts the whole
// generation call rather than a single row.
type NonFiniteValueError struct {
	ScanID    int64
	Parameter string
	Value     float64
}

func (e *NonFiniteValueError) Error() string {
	return fmt.Sprintf("scan %d parameter %q has non-finite predicted value %v", e.ScanID, e.Parameter, e.Value)
}
