package notification

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"asrama-occupancy-backend/internal/logger"
	"asrama-occupancy-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool delivers vacancy notifications on an ants goroutine pool.
// It satisfies occupancy.VacancyNotifier.
type WorkerPool struct {
	pool    *ants.Pool
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender

	mu  sync.RWMutex
	ctx context.Context
}

// NewWorkerPool creates a pool of size workers. Dispatch never blocks: when
// every worker is busy the notification is dropped and logged.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) (*WorkerPool, error) {
	if size <= 0 {
		size = 1
	}
	pool, err := ants.NewPool(size,
		ants.WithNonblocking(true),
		ants.WithExpiryDuration(30*time.Second),
		ants.WithPanicHandler(func(p any) {
			logger.Error("notification worker panic recovered", zap.Any("panic", p), zap.Stack("stack"))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create notification pool: %w", err)
	}

	return &WorkerPool{
		pool:    pool,
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
		ctx:     context.Background(),
	}, nil
}

// Start binds the pool to the service lifetime. Jobs running when ctx is
// cancelled stop at their next database call.
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.mu.Lock()
	wp.ctx = ctx
	wp.mu.Unlock()
	logger.Info("notification worker pool started", zap.Int("size", wp.pool.Cap()))
}

// Stop waits up to timeout for running jobs and releases the pool.
func (wp *WorkerPool) Stop(timeout time.Duration) {
	if err := wp.pool.ReleaseTimeout(timeout); err != nil {
		logger.Warn("notification worker pool did not drain", zap.Error(err))
	}
}

// Dispatch schedules notifications for subscribers of roomID.
func (wp *WorkerPool) Dispatch(roomID int64) {
	wp.mu.RLock()
	ctx := wp.ctx
	wp.mu.RUnlock()

	err := wp.pool.Submit(func() {
		wp.sendNotificationsForRoom(ctx, roomID)
	})
	switch {
	case errors.Is(err, ants.ErrPoolOverload):
		logger.Warn("notification pool busy, vacancy notification dropped", zap.Int64("room_id", roomID))
	case err != nil:
		logger.Warn("vacancy notification not scheduled", zap.Int64("room_id", roomID), zap.Error(err))
	}
}

// sendNotificationsForRoom fetches subscriptions and sends notifications for a given room.
func (wp *WorkerPool) sendNotificationsForRoom(ctx context.Context, roomID int64) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_room_mapping srm ON srm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("srm.room_id = ?", roomID).
		Find(&subscriptions).Error
	if err != nil {
		logger.Error("fetch subscriptions failed", zap.Int64("room_id", roomID), zap.Error(err))
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	roomLabel := fmt.Sprintf("%d", roomID)
	var room model.Room
	if err := wp.db.WithContext(ctx).Preload("Dormitory").First(&room, roomID).Error; err != nil {
		logger.Warn("fetch room for notification failed", zap.Int64("room_id", roomID), zap.Error(err))
	} else {
		roomLabel = fmt.Sprintf("%d (%s)", room.Number, room.Dormitory.Name)
	}

	logger.Info("sending vacancy notifications",
		zap.Int64("room_id", roomID),
		zap.Int("subscribers", len(subscriptions)),
	)
	message := fmt.Sprintf("A bed is free in room %s!", roomLabel)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		logger.Warn("send notification failed", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		logger.Info("subscription expired, deleting", zap.String("endpoint", sub.Endpoint))
		if err := wp.db.WithContext(ctx).Select("Rooms").Delete(&sub).Error; err != nil {
			logger.Error("delete expired subscription failed", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
	}
}
