package occupancy

import (
	"context"
	"errors"
	"fmt"

	"asrama-occupancy-backend/internal/store"
)

// Outcome is the kind of result an engine operation reports. Business rule
// failures are outcomes, not errors.
type Outcome string

const (
	Admitted    Outcome = "ADMITTED"
	Transferred Outcome = "TRANSFERRED"
	Updated     Outcome = "UPDATED"
	Removed     Outcome = "REMOVED"

	// Informational outcomes: the call succeeded without changing anything.
	AlreadyAtDestination Outcome = "ALREADY_AT_DESTINATION"
	NoChangeRequested    Outcome = "NO_CHANGE_REQUESTED"
	NoActualChange       Outcome = "NO_ACTUAL_CHANGE"

	InvalidIdentifier Outcome = "INVALID_IDENTIFIER"
	InvalidName       Outcome = "INVALID_NAME"
	RoomNotFound      Outcome = "ROOM_NOT_FOUND"
	ResidentNotFound  Outcome = "RESIDENT_NOT_FOUND"
	DuplicateResident Outcome = "DUPLICATE_RESIDENT"
	RoomFull          Outcome = "ROOM_FULL"
)

// Applied reports whether the outcome committed a mutation and an audit entry.
func (o Outcome) Applied() bool {
	switch o {
	case Admitted, Transferred, Updated, Removed:
		return true
	}
	return false
}

// Informational reports whether the outcome is a successful no-op.
func (o Outcome) Informational() bool {
	switch o {
	case AlreadyAtDestination, NoChangeRequested, NoActualChange:
		return true
	}
	return false
}

// Rejected reports whether a business rule refused the request.
func (o Outcome) Rejected() bool {
	return o != "" && !o.Applied() && !o.Informational()
}

// ChangeKind names the field an UPDATE audit entry describes. When several
// fields change at once the first of room, faculty, name, NIM wins.
type ChangeKind string

const (
	ChangeRoom    ChangeKind = "ROOM"
	ChangeFaculty ChangeKind = "FACULTY"
	ChangeName    ChangeKind = "NAME"
	ChangeNIM     ChangeKind = "NIM"
	ChangeNone    ChangeKind = ""
)

// Result carries the outcome of a mutating operation and the room context of
// the subject resident.
type Result struct {
	Outcome       Outcome    `json:"outcome"`
	NIM           string     `json:"nim,omitempty"`
	NewNIM        string     `json:"newNim,omitempty"`
	Name          string     `json:"name,omitempty"`
	RoomNumber    int        `json:"roomNumber,omitempty"`
	DormitoryID   int64      `json:"dormitoryId,omitempty"`
	DormitoryName string     `json:"dormitoryName,omitempty"`
	Capacity      int        `json:"capacity,omitempty"`
	Occupancy     int        `json:"occupancy,omitempty"`
	ChangeKind    ChangeKind `json:"changeKind,omitempty"`
	AuditID       int64      `json:"auditId,omitempty"`

	// vacatedRoomID is set when the operation freed a bed in a room that was full.
	vacatedRoomID int64
}

// FaultKind classifies failures that are not business outcomes.
type FaultKind string

const (
	FaultUnavailable FaultKind = "CONNECTION_UNAVAILABLE"
	FaultConstraint  FaultKind = "CONSTRAINT_VIOLATION"
	FaultBusy        FaultKind = "BUSY"
	FaultInternal    FaultKind = "INTERNAL"
)

// ErrLockTimeout is the cause of a BUSY fault.
var ErrLockTimeout = errors.New("timed out waiting for lock")

// Fault is returned when an operation could not complete. The transaction
// has been rolled back and nothing was written.
type Fault struct {
	Kind FaultKind
	Op   string
	Err  error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s: %v", f.Op, f.Kind, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

func newFault(op string, err error) *Fault {
	var f *Fault
	if errors.As(err, &f) {
		return f
	}

	kind := FaultInternal
	switch {
	case errors.Is(err, ErrLockTimeout):
		kind = FaultBusy
	case errors.Is(err, store.ErrUnavailable):
		kind = FaultUnavailable
	case errors.Is(err, store.ErrConstraint):
		kind = FaultConstraint
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = FaultBusy
	}
	return &Fault{Kind: kind, Op: op, Err: err}
}

// FaultKindOf returns the kind of a fault in err's chain, or "" when there is none.
func FaultKindOf(err error) FaultKind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}
