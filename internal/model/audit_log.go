package model

import "time"

// AuditAction is the kind of resident mutation an audit entry records.
type AuditAction string

const (
	AuditInsert AuditAction = "INSERT"
	AuditUpdate AuditAction = "UPDATE"
	AuditDelete AuditAction = "DELETE"
)

// AuditLogEntry is an append-only snapshot of one resident mutation. The Old*
// columns are empty for INSERT, the New* columns are empty for DELETE.
type AuditLogEntry struct {
	ID            int64       `gorm:"primaryKey" json:"id"`
	Action        AuditAction `gorm:"size:10;not null;index" json:"action"`
	NIM           string      `gorm:"column:nim;size:50;not null;index" json:"nim"`
	NewNIM        *string     `gorm:"column:new_nim;size:50" json:"newNim,omitempty"`
	OldName       *string     `gorm:"size:255" json:"oldName,omitempty"`
	NewName       *string     `gorm:"size:255" json:"newName,omitempty"`
	OldFaculty    *string     `gorm:"size:255" json:"oldFaculty,omitempty"`
	NewFaculty    *string     `gorm:"size:255" json:"newFaculty,omitempty"`
	OldRoomID     *int64      `json:"oldRoomId,omitempty"`
	NewRoomID     *int64      `json:"newRoomId,omitempty"`
	OldRoomNumber *int        `json:"oldRoomNumber,omitempty"`
	NewRoomNumber *int        `json:"newRoomNumber,omitempty"`
	OldDormitory  *string     `gorm:"size:255" json:"oldDormitory,omitempty"`
	NewDormitory  *string     `gorm:"size:255" json:"newDormitory,omitempty"`
	Note          string      `gorm:"type:text" json:"note"`
	CreatedAt     time.Time   `gorm:"not null;index" json:"createdAt"`
}

func (AuditLogEntry) TableName() string { return "audit_log_entries" }
