package model

import (
	"time"
)

// Resident is a student assigned to exactly one room. NIM is the primary key;
// renaming it re-keys the row.
type Resident struct {
	NIM       string    `gorm:"column:nim;primaryKey;size:50" json:"nim"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	FacultyID *int64    `gorm:"index" json:"facultyId,omitempty"`
	RoomID    int64     `gorm:"not null;index" json:"roomId"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	// Associations
	Faculty *Faculty `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	Room    Room     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Resident) TableName() string { return "residents" }

// FacultyName returns the resolved faculty name, or nil when the resident has none
// or the association was not loaded.
func (r Resident) FacultyName() *string {
	if r.Faculty == nil {
		return nil
	}
	name := r.Faculty.Name
	return &name
}
