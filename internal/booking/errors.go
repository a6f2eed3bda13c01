package booking

import "errors"

// Kind classifies booking failures. Every kind maps to a specific,
// user-actionable message at the API boundary; SlotTaken and OutsideHours
// are expected frequent outcomes, not exceptional ones.
type Kind string

const (
	// KindInvalidRange is a local contract violation (start >= end).
	KindInvalidRange Kind = "invalid_range"
	// KindOutsideHours means the range is not covered by the court's
	// operating windows for that weekday.
	KindOutsideHours Kind = "outside_hours"
	// KindSlotTaken means an active reservation overlaps the range, detected
	// either at pre-check or at commit time.
	KindSlotTaken Kind = "slot_taken"
	// KindStorageUnavailable is a transient storage failure.
	KindStorageUnavailable Kind = "storage_unavailable"
)

// Error is the tagged result the gateway returns instead of throwing raw
// storage errors across the API boundary.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Storage sentinels. Implementations translate their driver errors into
// these so the gateway can classify without knowing the engine underneath.
var (
	// ErrConflict is returned by InsertReservation/UpdateReservation when the
	// storage-level overlap guard rejects the write.
	ErrConflict = errors.New("reservation overlaps an active reservation")
	// ErrNotFound is returned when a reservation id does not exist.
	ErrNotFound = errors.New("reservation not found")
)

// KindOf extracts the failure kind, or "" for untagged errors.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

// IsSlotTaken reports whether err is an overlap rejection.
func IsSlotTaken(err error) bool {
	return KindOf(err) == KindSlotTaken
}

// IsOutsideHours reports whether err is an operating-hours rejection.
func IsOutsideHours(err error) bool {
	return KindOf(err) == KindOutsideHours
}

// IsInvalidRange reports whether err is a malformed-range rejection.
func IsInvalidRange(err error) bool {
	return KindOf(err) == KindInvalidRange
}

func invalidRange(message string) *Error {
	return &Error{Kind: KindInvalidRange, Message: message}
}

func outsideHours(message string) *Error {
	return &Error{Kind: KindOutsideHours, Message: message}
}

func slotTaken(message string, err error) *Error {
	return &Error{Kind: KindSlotTaken, Message: message, Err: err}
}

func storageUnavailable(message string, err error) *Error {
	return &Error{Kind: KindStorageUnavailable, Message: message, Err: err}
}
