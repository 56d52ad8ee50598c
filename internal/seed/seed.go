// Package seed loads the bootstrap catalog of a fresh deployment: the eight
// dormitories, the initial faculty list and the starter rooms of dormitory 1.
package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"asrama-occupancy-backend/internal/logger"
	"asrama-occupancy-backend/internal/model"
)

// Dormitories are seeded with fixed IDs.
var Dormitories = []model.Dormitory{
	{ID: 1, Name: "Aster"},
	{ID: 2, Name: "Soka"},
	{ID: 3, Name: "Tulip"},
	{ID: 4, Name: "Edelweiss"},
	{ID: 5, Name: "Lily"},
	{ID: 6, Name: "Dahlia"},
	{ID: 7, Name: "Melati"},
	{ID: 8, Name: "Anyelir"},
}

var Faculties = []string{
	"Teknik",
	"Ekonomi dan Bisnis",
	"Ilmu Sosial dan Ilmu Politik",
	"Kedokteran",
	"Ilmu Budaya",
	"MIPA",
	"Ilmu Komputer",
	"Ilmu Keolahragaan",
	"Vokasi",
	"Ilmu Pendidikan",
}

// Rooms is the starter set for dormitory 1.
var Rooms = []model.Room{
	{Number: 101, DormitoryID: 1, Capacity: 2},
	{Number: 102, DormitoryID: 1, Capacity: 2},
	{Number: 103, DormitoryID: 1, Capacity: 3},
	{Number: 201, DormitoryID: 1, Capacity: 2},
	{Number: 202, DormitoryID: 1, Capacity: 2},
	{Number: 203, DormitoryID: 1, Capacity: 2},
	{Number: 301, DormitoryID: 1, Capacity: 2},
	{Number: 302, DormitoryID: 1, Capacity: 2},
	{Number: 303, DormitoryID: 1, Capacity: 2},
}

// Run inserts the bootstrap rows that are missing. Existing rows are left alone,
// so it is safe to run on every start.
func Run(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dorms := make([]model.Dormitory, len(Dormitories))
		copy(dorms, Dormitories)
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&dorms).Error; err != nil {
			return fmt.Errorf("seed dormitories: %w", err)
		}

		faculties := make([]model.Faculty, 0, len(Faculties))
		for _, name := range Faculties {
			faculties = append(faculties, model.Faculty{Name: name})
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&faculties).Error; err != nil {
			return fmt.Errorf("seed faculties: %w", err)
		}

		rooms := make([]model.Room, len(Rooms))
		copy(rooms, Rooms)
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "number"}, {Name: "dormitory_id"}},
			DoNothing: true,
		}).Create(&rooms).Error; err != nil {
			return fmt.Errorf("seed rooms: %w", err)
		}

		logger.Info("seed data ensured",
			zap.Int("dormitories", len(dorms)),
			zap.Int("faculties", len(faculties)),
			zap.Int("rooms", len(rooms)),
		)
		return nil
	})
}
