package model

import "time"

// DefaultRoomCapacity is used when a room is created without an explicit capacity.
const DefaultRoomCapacity = 2

// Room is a numbered unit within a dormitory. Its occupancy is never stored;
// it is the number of residents whose RoomID points at it.
type Room struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Number      int       `gorm:"not null;uniqueIndex:idx_rooms_number_dormitory" json:"number"`
	DormitoryID int64     `gorm:"not null;index;uniqueIndex:idx_rooms_number_dormitory" json:"dormitoryId"`
	Capacity    int       `gorm:"not null;default:2;check:chk_rooms_capacity_positive,capacity > 0" json:"capacity"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`

	// Associations
	Dormitory Dormitory `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Room) TableName() string { return "rooms" }
