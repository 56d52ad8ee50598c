package notification

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"asrama-occupancy-backend/internal/db"
	"asrama-occupancy-backend/internal/model"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

func response(status int) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewBufferString(""))}
}

// newTestDB returns a migrated in-memory database with room 101 of Aster.
func newTestDB(t *testing.T) (*gorm.DB, model.Room) {
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
	room := model.Room{Number: 101, DormitoryID: 1, Capacity: 2}
	require.NoError(t, gormDB.Create(&room).Error)
	return gormDB, room
}

func subscribe(t *testing.T, gormDB *gorm.DB, endpoint string, rooms ...*model.Room) {
	t.Helper()
	sub := model.PushSubscription{Endpoint: endpoint, P256DH: "p256dh", Auth: "auth", Rooms: rooms}
	require.NoError(t, gormDB.Create(&sub).Error)
}

func TestWorkerPool_SendsToRoomSubscribers(t *testing.T) {
	gormDB, room := newTestDB(t)
	other := model.Room{Number: 102, DormitoryID: 1}
	require.NoError(t, gormDB.Create(&other).Error)
	subscribe(t, gormDB, "https://example.com/push", &room)
	subscribe(t, gormDB, "https://example.com/other", &other)

	wp, err := NewWorkerPool(1, gormDB, &webpush.Options{})
	require.NoError(t, err)
	defer wp.Stop(time.Second)

	sent := make(chan string, 4)
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			assert.Equal(t, "A bed is free in room 101 (Aster)!", string(payload))
			sent <- sub.Endpoint
			return response(http.StatusCreated), nil
		},
	}

	wp.Dispatch(room.ID)

	select {
	case endpoint := <-sent:
		assert.Equal(t, "https://example.com/push", endpoint)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
	select {
	case endpoint := <-sent:
		t.Fatalf("unexpected notification to %s", endpoint)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWorkerPool_DeletesExpiredSubscription(t *testing.T) {
	gormDB, room := newTestDB(t)
	subscribe(t, gormDB, "https://example.com/expired", &room)

	wp, err := NewWorkerPool(1, gormDB, &webpush.Options{})
	require.NoError(t, err)
	defer wp.Stop(time.Second)

	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			return response(http.StatusGone), nil
		},
	}

	wp.Dispatch(room.ID)

	assert.Eventually(t, func() bool {
		var n int64
		gormDB.Model(&model.PushSubscription{}).Where("endpoint = ?", "https://example.com/expired").Count(&n)
		return n == 0
	}, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		var n int64
		gormDB.Table("subscription_room_mapping").Count(&n)
		return n == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWorkerPool_NoSubscribersSendsNothing(t *testing.T) {
	gormDB, room := newTestDB(t)

	wp, err := NewWorkerPool(1, gormDB, &webpush.Options{})
	require.NoError(t, err)

	var called atomic.Bool
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			called.Store(true)
			return response(http.StatusCreated), nil
		},
	}

	wp.Dispatch(room.ID)
	wp.Stop(time.Second)
	assert.False(t, called.Load())
}
