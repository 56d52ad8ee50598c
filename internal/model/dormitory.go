package model

import "time"

// Dormitory represents a dormitory building. IDs are assigned externally by the seed.
type Dormitory struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:255;not null" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`

	// Associations
	Rooms []Room `gorm:"foreignKey:DormitoryID" json:"-"`
}

func (Dormitory) TableName() string { return "dormitories" }
