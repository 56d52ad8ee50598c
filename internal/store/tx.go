package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"asrama-occupancy-backend/internal/model"
)

// Tx is the set of reads and writes available inside Store.Transaction.
// Lock* methods take row locks that are held until the transaction ends.
type Tx interface {
	LockResident(nim string) (model.Resident, error)
	LockRoom(roomNumber int, dormitoryID int64) (model.Room, error)
	ResidentExists(nim string) (bool, error)
	CountOccupants(roomID int64) (int, error)
	FindOrCreateFaculty(name string) (model.Faculty, error)
	InsertResident(r *model.Resident) error
	MoveResident(nim string, roomID int64) error
	UpdateResident(nim string, u ResidentUpdate) error
	DeleteResident(nim string) error
	AppendAudit(e *model.AuditLogEntry) error
}

// ResidentUpdate is the full set of profile columns written by UpdateResident.
// Setting NIM to a different value re-keys the row.
type ResidentUpdate struct {
	NIM       string
	Name      string
	FacultyID *int64
}

type gormTx struct {
	db *gorm.DB
}

// forUpdate returns the row-locking query scope. SQLite has no FOR UPDATE and
// serializes writers on its own.
func (t *gormTx) forUpdate() *gorm.DB {
	if t.db.Dialector.Name() == "sqlite" {
		return t.db
	}
	return t.db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// LockResident locks the resident row and loads its faculty and its room with
// the dormitory.
func (t *gormTx) LockResident(nim string) (model.Resident, error) {
	var r model.Resident
	if err := t.forUpdate().Where("nim = ?", nim).First(&r).Error; err != nil {
		return model.Resident{}, fmt.Errorf("lock resident %s: %w", nim, translate(err))
	}

	if r.FacultyID != nil {
		var f model.Faculty
		if err := t.db.First(&f, *r.FacultyID).Error; err != nil {
			return model.Resident{}, fmt.Errorf("load faculty %d: %w", *r.FacultyID, translate(err))
		}
		r.Faculty = &f
	}

	if err := t.db.First(&r.Room, r.RoomID).Error; err != nil {
		return model.Resident{}, fmt.Errorf("load room %d: %w", r.RoomID, translate(err))
	}
	if err := t.db.First(&r.Room.Dormitory, r.Room.DormitoryID).Error; err != nil {
		return model.Resident{}, fmt.Errorf("load dormitory %d: %w", r.Room.DormitoryID, translate(err))
	}
	return r, nil
}

// LockRoom locks the room row and loads its dormitory. Holding the room row is
// what serializes capacity checks across transactions.
func (t *gormTx) LockRoom(roomNumber int, dormitoryID int64) (model.Room, error) {
	var room model.Room
	err := t.forUpdate().
		Where("number = ? AND dormitory_id = ?", roomNumber, dormitoryID).
		First(&room).Error
	if err != nil {
		return model.Room{}, fmt.Errorf("lock room %d/%d: %w", dormitoryID, roomNumber, translate(err))
	}
	if err := t.db.First(&room.Dormitory, room.DormitoryID).Error; err != nil {
		return model.Room{}, fmt.Errorf("load dormitory %d: %w", room.DormitoryID, translate(err))
	}
	return room, nil
}

func (t *gormTx) ResidentExists(nim string) (bool, error) {
	var n int64
	if err := t.db.Model(&model.Resident{}).Where("nim = ?", nim).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check resident %s: %w", nim, translate(err))
	}
	return n > 0, nil
}

func (t *gormTx) CountOccupants(roomID int64) (int, error) {
	return countOccupants(t.db, roomID)
}

// FindOrCreateFaculty returns the faculty with the given name, inserting it
// when missing. A concurrent insert of the same name is absorbed by the
// unique index and the row is read back.
func (t *gormTx) FindOrCreateFaculty(name string) (model.Faculty, error) {
	name = strings.TrimSpace(name)

	var f model.Faculty
	err := t.db.Where("name = ?", name).First(&f).Error
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Faculty{}, fmt.Errorf("find faculty %q: %w", name, translate(err))
	}

	f = model.Faculty{Name: name}
	err = t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&f).Error
	if err != nil {
		return model.Faculty{}, fmt.Errorf("create faculty %q: %w", name, translate(err))
	}
	if f.ID != 0 {
		return f, nil
	}

	if err := t.db.Where("name = ?", name).First(&f).Error; err != nil {
		return model.Faculty{}, fmt.Errorf("reload faculty %q: %w", name, translate(err))
	}
	return f, nil
}

func (t *gormTx) InsertResident(r *model.Resident) error {
	if err := t.db.Omit(clause.Associations).Create(r).Error; err != nil {
		return fmt.Errorf("insert resident %s: %w", r.NIM, translate(err))
	}
	return nil
}

func (t *gormTx) MoveResident(nim string, roomID int64) error {
	res := t.db.Model(&model.Resident{}).Where("nim = ?", nim).Update("room_id", roomID)
	if res.Error != nil {
		return fmt.Errorf("move resident %s: %w", nim, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("move resident %s: %w", nim, ErrNotFound)
	}
	return nil
}

// UpdateResident overwrites the profile columns of the resident keyed by nim.
// The room reference is left untouched.
func (t *gormTx) UpdateResident(nim string, u ResidentUpdate) error {
	res := t.db.Model(&model.Resident{}).Where("nim = ?", nim).Updates(map[string]any{
		"nim":        u.NIM,
		"name":       u.Name,
		"faculty_id": u.FacultyID,
	})
	if res.Error != nil {
		return fmt.Errorf("update resident %s: %w", nim, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update resident %s: %w", nim, ErrNotFound)
	}
	return nil
}

func (t *gormTx) DeleteResident(nim string) error {
	res := t.db.Where("nim = ?", nim).Delete(&model.Resident{})
	if res.Error != nil {
		return fmt.Errorf("delete resident %s: %w", nim, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete resident %s: %w", nim, ErrNotFound)
	}
	return nil
}

// AppendAudit inserts an audit entry. Entries are never updated afterwards.
func (t *gormTx) AppendAudit(e *model.AuditLogEntry) error {
	if err := t.db.Create(e).Error; err != nil {
		return fmt.Errorf("append audit entry for %s: %w", e.NIM, translate(err))
	}
	return nil
}
