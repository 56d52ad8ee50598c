package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"asrama-occupancy-backend/internal/model"
)

// RosterEntry is one resident of a room with the names already resolved.
type RosterEntry struct {
	NIM           string  `gorm:"column:nim" json:"nim"`
	Name          string  `gorm:"column:name" json:"name"`
	FacultyName   *string `gorm:"column:faculty_name" json:"facultyName"`
	RoomNumber    int     `gorm:"column:room_number" json:"roomNumber"`
	DormitoryName string  `gorm:"column:dormitory_name" json:"dormitoryName"`
}

// Store is the Resident Store and Audit Log together with the catalog reads.
// All writes go through Transaction.
type Store interface {
	Catalog

	// Transaction runs fn inside one database transaction. The transaction is
	// rolled back when fn returns an error, which is returned as is.
	Transaction(ctx context.Context, fn func(tx Tx) error) error

	FindRoom(ctx context.Context, roomNumber int, dormitoryID int64) (model.Room, error)
	CountOccupants(ctx context.Context, roomID int64) (int, error)
	RoomRoster(ctx context.Context, roomID int64) ([]RosterEntry, error)
	AuditTrail(ctx context.Context, limit int) ([]model.AuditLogEntry, error)

	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Tx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
	return translate(err)
}

// FindRoom returns the room with its dormitory loaded.
func (s *gormStore) FindRoom(ctx context.Context, roomNumber int, dormitoryID int64) (model.Room, error) {
	var room model.Room
	err := s.db.WithContext(ctx).
		Preload("Dormitory").
		Where("number = ? AND dormitory_id = ?", roomNumber, dormitoryID).
		First(&room).Error
	if err != nil {
		return model.Room{}, fmt.Errorf("find room %d/%d: %w", dormitoryID, roomNumber, translate(err))
	}
	return room, nil
}

func (s *gormStore) CountOccupants(ctx context.Context, roomID int64) (int, error) {
	return countOccupants(s.db.WithContext(ctx), roomID)
}

// RoomRoster lists the residents of a room sorted by name.
func (s *gormStore) RoomRoster(ctx context.Context, roomID int64) ([]RosterEntry, error) {
	var entries []RosterEntry
	err := s.db.WithContext(ctx).
		Table("residents").
		Select("residents.nim AS nim, residents.name AS name, faculties.name AS faculty_name, rooms.number AS room_number, dormitories.name AS dormitory_name").
		Joins("JOIN rooms ON rooms.id = residents.room_id").
		Joins("JOIN dormitories ON dormitories.id = rooms.dormitory_id").
		Joins("LEFT JOIN faculties ON faculties.id = residents.faculty_id").
		Where("residents.room_id = ?", roomID).
		Order("residents.name ASC").
		Order("residents.nim ASC").
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("room roster %d: %w", roomID, translate(err))
	}
	return entries, nil
}

// AuditTrail returns the newest entries first.
func (s *gormStore) AuditTrail(ctx context.Context, limit int) ([]model.AuditLogEntry, error) {
	var entries []model.AuditLogEntry
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("audit trail: %w", translate(err))
	}
	return entries, nil
}

func countOccupants(db *gorm.DB, roomID int64) (int, error) {
	var n int64
	if err := db.Model(&model.Resident{}).Where("room_id = ?", roomID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count occupants of room %d: %w", roomID, translate(err))
	}
	return int(n), nil
}
