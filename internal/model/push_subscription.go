package model

import "time"

// PushSubscription holds the information for a browser push subscription
// waiting for a free bed in one or more rooms.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Rooms []*Room `gorm:"many2many:subscription_room_mapping;"`
}

func (PushSubscription) TableName() string { return "push_subscriptions" }
