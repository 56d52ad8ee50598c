package model

import "time"

// Faculty is an academic affiliation. Rows are created lazily the first time a
// resident references an unknown faculty name.
type Faculty struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:255;not null" json:"name"`
	CreatedAt time.Time `json:"-"`
}

func (Faculty) TableName() string { return "faculties" }
