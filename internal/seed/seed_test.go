package seed

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"asrama-occupancy-backend/internal/db"
	"asrama-occupancy-backend/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(testDB))
	return testDB
}

func TestRun_IsIdempotent(t *testing.T) {
	testDB := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, Run(ctx, testDB))
	require.NoError(t, Run(ctx, testDB))

	var dorms, faculties, rooms int64
	testDB.Model(&model.Dormitory{}).Count(&dorms)
	testDB.Model(&model.Faculty{}).Count(&faculties)
	testDB.Model(&model.Room{}).Count(&rooms)

	assert.Equal(t, int64(8), dorms)
	assert.Equal(t, int64(10), faculties)
	assert.Equal(t, int64(9), rooms)

	var room103 model.Room
	require.NoError(t, testDB.Where("number = ? AND dormitory_id = ?", 103, 1).First(&room103).Error)
	assert.Equal(t, 3, room103.Capacity)
}

func TestRun_KeepsExistingRows(t *testing.T) {
	testDB := newTestDB(t)
	require.NoError(t, testDB.Create(&model.Faculty{Name: "Teknik"}).Error)
	require.NoError(t, testDB.Create(&model.Dormitory{ID: 1, Name: "Aster"}).Error)
	require.NoError(t, testDB.Create(&model.Room{Number: 101, DormitoryID: 1, Capacity: 4}).Error)

	require.NoError(t, Run(context.Background(), testDB))

	var room101 model.Room
	require.NoError(t, testDB.Where("number = ? AND dormitory_id = ?", 101, 1).First(&room101).Error)
	assert.Equal(t, 4, room101.Capacity, "seed must not overwrite an existing room")

	var teknik int64
	testDB.Model(&model.Faculty{}).Where("name = ?", "Teknik").Count(&teknik)
	assert.Equal(t, int64(1), teknik)
}
