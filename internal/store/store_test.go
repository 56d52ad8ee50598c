package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"asrama-occupancy-backend/internal/db"
	"asrama-occupancy-backend/internal/model"
)

// A helper function to create a mock postgres connection.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqlDB,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// newSQLiteDB returns a migrated private in-memory database with dormitory 1
// and rooms 101 (capacity 2) and 102 (capacity 1).
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gormDB))
	require.NoError(t, gormDB.Create(&model.Dormitory{ID: 1, Name: "Aster"}).Error)
	require.NoError(t, gormDB.Create(&model.Room{Number: 101, DormitoryID: 1, Capacity: 2}).Error)
	require.NoError(t, gormDB.Create(&model.Room{Number: 102, DormitoryID: 1, Capacity: 1}).Error)
	return gormDB
}

func TestGormTx_LockRoomUsesForUpdateOnPostgres(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "rooms" WHERE number = \$1 AND dormitory_id = \$2 ORDER BY "rooms"."id" LIMIT \$3 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "number", "dormitory_id", "capacity"}).AddRow(7, 101, 1, 2))
	mock.ExpectQuery(`SELECT \* FROM "dormitories" WHERE "dormitories"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Aster"))
	mock.ExpectCommit()

	var room model.Room
	err := s.Transaction(context.Background(), func(tx Tx) error {
		var err error
		room, err = tx.LockRoom(101, 1)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), room.ID)
	assert.Equal(t, "Aster", room.Dormitory.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTx_LockResidentUsesForUpdateOnPostgres(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "residents" WHERE nim = \$1 ORDER BY "residents"."nim" LIMIT \$2 FOR UPDATE`).
		WithArgs("1001", 1).
		WillReturnRows(sqlmock.NewRows([]string{"nim", "name", "faculty_id", "room_id"}).AddRow("1001", "Alice", 3, 7))
	mock.ExpectQuery(`SELECT \* FROM "faculties" WHERE "faculties"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(3, "Teknik"))
	mock.ExpectQuery(`SELECT \* FROM "rooms" WHERE "rooms"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "number", "dormitory_id", "capacity"}).AddRow(7, 101, 1, 2))
	mock.ExpectQuery(`SELECT \* FROM "dormitories" WHERE "dormitories"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Aster"))
	mock.ExpectCommit()

	var r model.Resident
	err := s.Transaction(context.Background(), func(tx Tx) error {
		var err error
		r, err = tx.LockResident("1001")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", r.Name)
	require.NotNil(t, r.FacultyName())
	assert.Equal(t, "Teknik", *r.FacultyName())
	assert.Equal(t, 101, r.Room.Number)
	assert.Equal(t, "Aster", r.Room.Dormitory.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_TransactionRollsBackOnError(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "rooms" .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "number", "dormitory_id", "capacity"}))
	mock.ExpectRollback()

	err := s.Transaction(context.Background(), func(tx Tx) error {
		_, err := tx.LockRoom(999, 1)
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_TransactionBeginFailure(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin().WillReturnError(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")})

	called := false
	err := s.Transaction(context.Background(), func(tx Tx) error {
		called = true
		return nil
	})
	assert.False(t, called)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestTranslate(t *testing.T) {
	custom := errors.New("boom")
	testCases := []struct {
		name string
		in   error
		want error
	}{
		{name: "nil", in: nil, want: nil},
		{name: "not found", in: gorm.ErrRecordNotFound, want: ErrNotFound},
		{name: "duplicate key", in: gorm.ErrDuplicatedKey, want: ErrConstraint},
		{name: "foreign key", in: gorm.ErrForeignKeyViolated, want: ErrConstraint},
		{name: "bad conn", in: driver.ErrBadConn, want: ErrUnavailable},
		{name: "wrapped bad conn", in: fmt.Errorf("query: %w", driver.ErrBadConn), want: ErrUnavailable},
		{name: "sqlite busy", in: sqlite3.Error{Code: sqlite3.ErrBusy}, want: ErrUnavailable},
		{name: "sqlite locked", in: fmt.Errorf("begin: %w", sqlite3.Error{Code: sqlite3.ErrLocked}), want: ErrUnavailable},
		{name: "sqlite constraint passes through", in: sqlite3.Error{Code: sqlite3.ErrConstraint}, want: sqlite3.Error{Code: sqlite3.ErrConstraint}},
		{name: "already translated", in: ErrConstraint, want: ErrConstraint},
		{name: "unknown passes through", in: custom, want: custom},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := translate(tc.in)
			if tc.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.want)
			if tc.in != nil {
				assert.ErrorIs(t, got, tc.in, "original cause must stay in the chain")
			}
		})
	}
}

func TestGormTx_ResidentLifecycle_SQLite(t *testing.T) {
	gormDB := newSQLiteDB(t)
	s := NewGormStore(gormDB)
	ctx := context.Background()

	err := s.Transaction(ctx, func(tx Tx) error {
		room, err := tx.LockRoom(101, 1)
		if err != nil {
			return err
		}
		faculty, err := tx.FindOrCreateFaculty("  Teknik ")
		if err != nil {
			return err
		}
		again, err := tx.FindOrCreateFaculty("Teknik")
		if err != nil {
			return err
		}
		assert.Equal(t, faculty.ID, again.ID)

		return tx.InsertResident(&model.Resident{NIM: "1001", Name: "Alice", FacultyID: &faculty.ID, RoomID: room.ID})
	})
	require.NoError(t, err)

	room101, err := s.FindRoom(ctx, 101, 1)
	require.NoError(t, err)
	n, err := s.CountOccupants(ctx, room101.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	roster, err := s.RoomRoster(ctx, room101.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "1001", roster[0].NIM)
	assert.Equal(t, "Aster", roster[0].DormitoryName)
	assert.Equal(t, 101, roster[0].RoomNumber)
	require.NotNil(t, roster[0].FacultyName)
	assert.Equal(t, "Teknik", *roster[0].FacultyName)

	// Rename and clear the faculty; the room reference must survive.
	err = s.Transaction(ctx, func(tx Tx) error {
		return tx.UpdateResident("1001", ResidentUpdate{NIM: "9999", Name: "Alice B"})
	})
	require.NoError(t, err)

	err = s.Transaction(ctx, func(tx Tx) error {
		r, err := tx.LockResident("9999")
		if err != nil {
			return err
		}
		assert.Equal(t, "Alice B", r.Name)
		assert.Nil(t, r.FacultyID)
		assert.Equal(t, room101.ID, r.RoomID)
		assert.Equal(t, "Aster", r.Room.Dormitory.Name)

		exists, err := tx.ResidentExists("1001")
		if err != nil {
			return err
		}
		assert.False(t, exists)
		return nil
	})
	require.NoError(t, err)

	err = s.Transaction(ctx, func(tx Tx) error {
		room102, err := tx.LockRoom(102, 1)
		if err != nil {
			return err
		}
		return tx.MoveResident("9999", room102.ID)
	})
	require.NoError(t, err)
	n, err = s.CountOccupants(ctx, room101.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	err = s.Transaction(ctx, func(tx Tx) error { return tx.DeleteResident("9999") })
	require.NoError(t, err)

	err = s.Transaction(ctx, func(tx Tx) error { return tx.DeleteResident("9999") })
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.Transaction(ctx, func(tx Tx) error { return tx.MoveResident("9999", room101.ID) })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormTx_InsertDuplicateResidentIsConstraint_SQLite(t *testing.T) {
	gormDB := newSQLiteDB(t)
	s := NewGormStore(gormDB)
	ctx := context.Background()
	room, err := s.FindRoom(ctx, 101, 1)
	require.NoError(t, err)

	insert := func(tx Tx) error {
		return tx.InsertResident(&model.Resident{NIM: "1001", Name: "Alice", RoomID: room.ID})
	}
	require.NoError(t, s.Transaction(ctx, insert))
	assert.ErrorIs(t, s.Transaction(ctx, insert), ErrConstraint)
}

func TestGormTx_RollbackDiscardsWrites_SQLite(t *testing.T) {
	gormDB := newSQLiteDB(t)
	s := NewGormStore(gormDB)
	ctx := context.Background()
	sentinel := errors.New("rollback")

	err := s.Transaction(ctx, func(tx Tx) error {
		if _, err := tx.FindOrCreateFaculty("Vokasi"); err != nil {
			return err
		}
		if err := tx.AppendAudit(&model.AuditLogEntry{Action: model.AuditInsert, NIM: "1"}); err != nil {
			return err
		}
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	_, err = s.FindFacultyByName(ctx, "Vokasi")
	assert.ErrorIs(t, err, ErrNotFound)
	trail, err := s.AuditTrail(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, trail)
}

func TestGormStore_AuditTrailNewestFirst_SQLite(t *testing.T) {
	gormDB := newSQLiteDB(t)
	s := NewGormStore(gormDB)
	ctx := context.Background()

	for _, nim := range []string{"1", "2", "3"} {
		err := s.Transaction(ctx, func(tx Tx) error {
			return tx.AppendAudit(&model.AuditLogEntry{Action: model.AuditInsert, NIM: nim})
		})
		require.NoError(t, err)
	}

	trail, err := s.AuditTrail(ctx, 2)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, "3", trail[0].NIM)
	assert.Equal(t, "2", trail[1].NIM)
}

func TestCatalog_SQLite(t *testing.T) {
	gormDB := newSQLiteDB(t)
	s := NewGormStore(gormDB)
	ctx := context.Background()

	require.NoError(t, gormDB.Create(&model.Dormitory{ID: 2, Name: "Soka"}).Error)
	require.NoError(t, gormDB.Create(&model.Room{Number: 99, DormitoryID: 1, Capacity: 3}).Error)

	dorms, err := s.ListDormitories(ctx)
	require.NoError(t, err)
	require.Len(t, dorms, 2)
	assert.Equal(t, "Aster", dorms[0].Name)

	rooms, err := s.ListRooms(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rooms, 3)
	assert.Equal(t, []int{99, 101, 102}, []int{rooms[0].Number, rooms[1].Number, rooms[2].Number})

	capacity, err := s.RoomCapacity(ctx, 99, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, capacity)
	_, err = s.RoomCapacity(ctx, 404, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.FindFacultyByName(ctx, "MIPA")
	assert.ErrorIs(t, err, ErrNotFound)
	created, err := s.CreateFaculty(ctx, "MIPA")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	_, err = s.CreateFaculty(ctx, "MIPA")
	assert.ErrorIs(t, err, ErrConstraint)
	_, err = s.CreateFaculty(ctx, "Ilmu Budaya")
	require.NoError(t, err)

	faculties, err := s.ListFaculties(ctx)
	require.NoError(t, err)
	require.Len(t, faculties, 2)
	assert.Equal(t, "Ilmu Budaya", faculties[0].Name)

	room101 := rooms[1]
	require.NoError(t, gormDB.Create(&model.Resident{NIM: "1001", Name: "Alice", RoomID: room101.ID}).Error)

	occ, err := s.RoomOccupancies(ctx, 1)
	require.NoError(t, err)
	require.Len(t, occ, 3)
	assert.Equal(t, 101, occ[1].Number)
	assert.Equal(t, 1, occ[1].Occupancy)
	assert.Equal(t, 0, occ[0].Occupancy)
}
