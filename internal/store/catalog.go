package store

import (
	"context"
	"fmt"
	"strings"

	"asrama-occupancy-backend/internal/model"
)

// RoomOccupancy is a room together with its derived occupant count.
type RoomOccupancy struct {
	RoomID      int64 `gorm:"column:room_id" json:"id"`
	Number      int   `gorm:"column:number" json:"number"`
	DormitoryID int64 `gorm:"column:dormitory_id" json:"dormitoryId"`
	Capacity    int   `gorm:"column:capacity" json:"capacity"`
	Occupancy   int   `gorm:"column:occupancy" json:"occupancy"`
}

// Catalog holds the slow-changing reference data: dormitories, rooms and faculties.
type Catalog interface {
	ListDormitories(ctx context.Context) ([]model.Dormitory, error)
	ListRooms(ctx context.Context, dormitoryID int64) ([]model.Room, error)
	RoomCapacity(ctx context.Context, roomNumber int, dormitoryID int64) (int, error)
	RoomOccupancies(ctx context.Context, dormitoryID int64) ([]RoomOccupancy, error)
	ListFaculties(ctx context.Context) ([]model.Faculty, error)
	FindFacultyByName(ctx context.Context, name string) (model.Faculty, error)
	CreateFaculty(ctx context.Context, name string) (model.Faculty, error)
}

func (s *gormStore) ListDormitories(ctx context.Context) ([]model.Dormitory, error) {
	var dorms []model.Dormitory
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&dorms).Error; err != nil {
		return nil, fmt.Errorf("list dormitories: %w", translate(err))
	}
	return dorms, nil
}

// ListRooms returns the rooms of a dormitory sorted by room number.
func (s *gormStore) ListRooms(ctx context.Context, dormitoryID int64) ([]model.Room, error) {
	var rooms []model.Room
	err := s.db.WithContext(ctx).
		Where("dormitory_id = ?", dormitoryID).
		Order("number ASC").
		Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("list rooms of dormitory %d: %w", dormitoryID, translate(err))
	}
	return rooms, nil
}

func (s *gormStore) RoomCapacity(ctx context.Context, roomNumber int, dormitoryID int64) (int, error) {
	var room model.Room
	err := s.db.WithContext(ctx).
		Select("capacity").
		Where("number = ? AND dormitory_id = ?", roomNumber, dormitoryID).
		First(&room).Error
	if err != nil {
		return 0, fmt.Errorf("room capacity %d/%d: %w", dormitoryID, roomNumber, translate(err))
	}
	return room.Capacity, nil
}

// RoomOccupancies returns every room of a dormitory with its current occupant count.
func (s *gormStore) RoomOccupancies(ctx context.Context, dormitoryID int64) ([]RoomOccupancy, error) {
	var out []RoomOccupancy
	err := s.db.WithContext(ctx).
		Table("rooms").
		Select("rooms.id AS room_id, rooms.number AS number, rooms.dormitory_id AS dormitory_id, rooms.capacity AS capacity, COUNT(residents.nim) AS occupancy").
		Joins("LEFT JOIN residents ON residents.room_id = rooms.id").
		Where("rooms.dormitory_id = ?", dormitoryID).
		Group("rooms.id, rooms.number, rooms.dormitory_id, rooms.capacity").
		Order("rooms.number ASC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("room occupancies of dormitory %d: %w", dormitoryID, translate(err))
	}
	return out, nil
}

func (s *gormStore) ListFaculties(ctx context.Context) ([]model.Faculty, error) {
	var faculties []model.Faculty
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&faculties).Error; err != nil {
		return nil, fmt.Errorf("list faculties: %w", translate(err))
	}
	return faculties, nil
}

func (s *gormStore) FindFacultyByName(ctx context.Context, name string) (model.Faculty, error) {
	var faculty model.Faculty
	if err := s.db.WithContext(ctx).Where("name = ?", strings.TrimSpace(name)).First(&faculty).Error; err != nil {
		return model.Faculty{}, fmt.Errorf("find faculty %q: %w", name, translate(err))
	}
	return faculty, nil
}

// CreateFaculty inserts a new faculty. A name that already exists yields ErrConstraint.
func (s *gormStore) CreateFaculty(ctx context.Context, name string) (model.Faculty, error) {
	faculty := model.Faculty{Name: strings.TrimSpace(name)}
	if err := s.db.WithContext(ctx).Create(&faculty).Error; err != nil {
		return model.Faculty{}, fmt.Errorf("create faculty %q: %w", name, translate(err))
	}
	return faculty, nil
}
