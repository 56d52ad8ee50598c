package occupancy

import (
	"fmt"
	"strconv"

	"asrama-occupancy-backend/internal/model"
)

const notAvailable = "N/A"

// snapshot is the audited view of a resident at one point in time.
type snapshot struct {
	NIM        string
	Name       string
	FacultyID  *int64
	Faculty    *string
	RoomID     int64
	RoomNumber int
	Dormitory  string
}

func snapshotOf(r model.Resident) snapshot {
	return snapshot{
		NIM:        r.NIM,
		Name:       r.Name,
		FacultyID:  r.FacultyID,
		Faculty:    r.FacultyName(),
		RoomID:     r.RoomID,
		RoomNumber: r.Room.Number,
		Dormitory:  r.Room.Dormitory.Name,
	}
}

func (s snapshot) roomLabel() string {
	return fmt.Sprintf("room %d Dormitory %s", s.RoomNumber, s.Dormitory)
}

// changeKindOf picks the single field an update is described by.
func changeKindOf(before, after snapshot) ChangeKind {
	switch {
	case before.RoomID != after.RoomID:
		return ChangeRoom
	case !sameID(before.FacultyID, after.FacultyID):
		return ChangeFaculty
	case before.Name != after.Name:
		return ChangeName
	case before.NIM != after.NIM:
		return ChangeNIM
	}
	return ChangeNone
}

func insertEntry(after snapshot) model.AuditLogEntry {
	return model.AuditLogEntry{
		Action:        model.AuditInsert,
		NIM:           after.NIM,
		NewName:       strPtr(after.Name),
		NewFaculty:    after.Faculty,
		NewRoomID:     int64Ptr(after.RoomID),
		NewRoomNumber: intPtr(after.RoomNumber),
		NewDormitory:  strPtr(after.Dormitory),
		Note:          "Resident admitted to " + after.roomLabel(),
	}
}

func deleteEntry(before snapshot) model.AuditLogEntry {
	return model.AuditLogEntry{
		Action:        model.AuditDelete,
		NIM:           before.NIM,
		OldName:       strPtr(before.Name),
		OldFaculty:    before.Faculty,
		OldRoomID:     int64Ptr(before.RoomID),
		OldRoomNumber: intPtr(before.RoomNumber),
		OldDormitory:  strPtr(before.Dormitory),
		Note:          "Resident removed from " + before.roomLabel(),
	}
}

// updateEntry records full before and after snapshots. The subject NIM is the
// one the row had before the update; a rename fills NewNIM.
func updateEntry(before, after snapshot) (model.AuditLogEntry, ChangeKind) {
	kind := changeKindOf(before, after)

	var note string
	switch kind {
	case ChangeRoom:
		note = fmt.Sprintf("Resident moved from %s to %s.", before.roomLabel(), after.roomLabel())
	case ChangeFaculty:
		note = fmt.Sprintf("Faculty changed from %s to %s.", orNA(before.Faculty), orNA(after.Faculty))
	case ChangeName:
		note = fmt.Sprintf("Name changed from %s to %s.", before.Name, after.Name)
	case ChangeNIM:
		note = fmt.Sprintf("NIM changed from %s to %s.", before.NIM, after.NIM)
	default:
		note = "Resident data changed."
	}

	entry := model.AuditLogEntry{
		Action:        model.AuditUpdate,
		NIM:           before.NIM,
		OldName:       strPtr(before.Name),
		NewName:       strPtr(after.Name),
		OldFaculty:    before.Faculty,
		NewFaculty:    after.Faculty,
		OldRoomID:     int64Ptr(before.RoomID),
		NewRoomID:     int64Ptr(after.RoomID),
		OldRoomNumber: intPtr(before.RoomNumber),
		NewRoomNumber: intPtr(after.RoomNumber),
		OldDormitory:  strPtr(before.Dormitory),
		NewDormitory:  strPtr(after.Dormitory),
		Note:          note,
	}
	if after.NIM != before.NIM {
		entry.NewNIM = strPtr(after.NIM)
	}
	return entry, kind
}

// AuditRecord is an audit entry as shown in the audit trail.
type AuditRecord struct {
	model.AuditLogEntry
	RelatedName string `json:"relatedName"`
	Detail      string `json:"detail"`
}

func auditRecordOf(e model.AuditLogEntry) AuditRecord {
	related := e.NewName
	if related == nil {
		related = e.OldName
	}
	return AuditRecord{
		AuditLogEntry: e,
		RelatedName:   orNA(related),
		Detail:        auditDetail(e),
	}
}

// auditDetail describes where the resident went: destination for INSERT,
// origin for DELETE, both for UPDATE.
func auditDetail(e model.AuditLogEntry) string {
	from := placement(e.OldRoomNumber, e.OldDormitory, e.OldFaculty)
	to := placement(e.NewRoomNumber, e.NewDormitory, e.NewFaculty)
	switch e.Action {
	case model.AuditInsert:
		return "to: " + to
	case model.AuditDelete:
		return "from: " + from
	default:
		return "from: " + from + "; to: " + to
	}
}

func placement(room *int, dormitory, faculty *string) string {
	number := notAvailable
	if room != nil {
		number = strconv.Itoa(*room)
	}
	return fmt.Sprintf("%s (%s) - faculty: %s", number, orNA(dormitory), orNA(faculty))
}

func orNA(s *string) string {
	if s == nil {
		return notAvailable
	}
	return *s
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func int64Ptr(i int64) *int64 { return &i }
