// Package occupancy is the occupancy engine: it admits, transfers, updates
// and removes residents while keeping every room within its capacity, and
// appends one audit entry per committed mutation in the same transaction.
package occupancy

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"asrama-occupancy-backend/internal/logger"
	"asrama-occupancy-backend/internal/metrics"
	"asrama-occupancy-backend/internal/store"
)

const (
	opAdmit         = "admit"
	opTransfer      = "transfer"
	opUpdateProfile = "update_profile"
	opRemove        = "remove"
	opRoster        = "roster"
	opRoomOccupancy = "room_occupancy"
	opAuditTrail    = "audit_trail"
)

const (
	defaultLockTimeout     = 5 * time.Second
	defaultAuditTrailLimit = 100
	defaultAuditTrailMax   = 1000
)

// errRollback aborts a transaction whose checks rejected the request.
var errRollback = errors.New("rollback")

// VacancyNotifier is told about rooms that went from full to having a free bed.
type VacancyNotifier interface {
	Dispatch(roomID int64)
}

// Options tune an Engine. Zero values fall back to defaults.
type Options struct {
	LockTimeout            time.Duration
	AuditTrailDefaultLimit int
	AuditTrailMaxLimit     int
	Notifier               VacancyNotifier
}

// Engine runs occupancy operations against a Store. It is safe for concurrent use.
type Engine struct {
	store store.Store
	locks *lockTable
	opts  Options
}

// NewEngine creates an engine on top of s.
func NewEngine(s store.Store, opts Options) *Engine {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = defaultLockTimeout
	}
	if opts.AuditTrailMaxLimit <= 0 {
		opts.AuditTrailMaxLimit = defaultAuditTrailMax
	}
	if opts.AuditTrailDefaultLimit <= 0 {
		opts.AuditTrailDefaultLimit = defaultAuditTrailLimit
	}
	if opts.AuditTrailDefaultLimit > opts.AuditTrailMaxLimit {
		opts.AuditTrailDefaultLimit = opts.AuditTrailMaxLimit
	}
	return &Engine{store: s, locks: newLockTable(), opts: opts}
}

// mutate takes the keyed locks, runs fn in one transaction and commits only
// when fn reports an applied outcome. Everything else is rolled back.
func (e *Engine) mutate(ctx context.Context, op string, keys []string, fn func(tx store.Tx) (Result, error)) (Result, error) {
	start := time.Now()

	lockCtx, cancel := context.WithTimeout(ctx, e.opts.LockTimeout)
	release, err := e.locks.acquire(lockCtx, keys...)
	cancel()
	metrics.ObserveLockWait(time.Since(start))
	if err != nil {
		return e.fail(op, start, err)
	}
	defer release()

	var res Result
	err = e.store.Transaction(ctx, func(tx store.Tx) error {
		r, err := fn(tx)
		if err != nil {
			return err
		}
		res = r
		if !r.Outcome.Applied() {
			return errRollback
		}
		return nil
	})
	release()
	if err != nil && !errors.Is(err, errRollback) {
		return e.fail(op, start, err)
	}

	e.finish(op, start, res)
	if res.vacatedRoomID != 0 && e.opts.Notifier != nil {
		e.opts.Notifier.Dispatch(res.vacatedRoomID)
	}
	return res, nil
}

// reject reports an outcome decided before any lock or transaction was needed.
func (e *Engine) reject(op string, res Result) (Result, error) {
	e.finish(op, time.Now(), res)
	return res, nil
}

func (e *Engine) finish(op string, start time.Time, res Result) {
	metrics.ObserveOperation(op, string(res.Outcome), time.Since(start))

	fields := []zap.Field{
		zap.String("op", op),
		zap.String("outcome", string(res.Outcome)),
		zap.String("nim", res.NIM),
	}
	if res.NewNIM != "" {
		fields = append(fields, zap.String("new_nim", res.NewNIM))
	}
	if res.RoomNumber != 0 {
		fields = append(fields, zap.Int("room", res.RoomNumber), zap.Int64("dormitory_id", res.DormitoryID))
	}

	if res.Outcome.Applied() {
		logger.Info("resident mutation committed", fields...)
		return
	}
	logger.Debug("resident mutation not applied", fields...)
}

func (e *Engine) fail(op string, start time.Time, err error) (Result, error) {
	f := newFault(op, err)
	metrics.ObserveOperation(op, string(f.Kind), time.Since(start))
	logger.Error("occupancy operation failed",
		zap.String("op", op),
		zap.String("kind", string(f.Kind)),
		zap.Error(f.Err),
	)
	return Result{}, f
}
