package occupancy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"asrama-occupancy-backend/internal/metrics"
	"asrama-occupancy-backend/internal/store"
)

// RosterStatus tells a missing room apart from an empty one.
type RosterStatus string

const (
	RosterFound    RosterStatus = "found"
	RosterEmpty    RosterStatus = "empty"
	RosterNotFound RosterStatus = "notFound"
)

// RoomSummary is a room with its derived occupancy.
type RoomSummary struct {
	ID            int64  `json:"id"`
	Number        int    `json:"number"`
	DormitoryID   int64  `json:"dormitoryId"`
	DormitoryName string `json:"dormitoryName"`
	Capacity      int    `json:"capacity"`
	Occupancy     int    `json:"occupancy"`
	Available     int    `json:"available"`
}

// Roster is the answer to a room roster query.
type Roster struct {
	Status    RosterStatus        `json:"status"`
	Room      *RoomSummary        `json:"room,omitempty"`
	Residents []store.RosterEntry `json:"residents,omitempty"`
}

// ErrRoomNotFound is returned by RoomOccupancy for an unknown room.
var ErrRoomNotFound = errors.New("room not found")

// RoomRoster lists the residents of a room sorted by name.
func (e *Engine) RoomRoster(ctx context.Context, roomNumber int, dormitoryID int64) (Roster, error) {
	start := time.Now()
	summary, err := e.roomSummary(ctx, roomNumber, dormitoryID)
	if errors.Is(err, ErrRoomNotFound) {
		metrics.ObserveOperation(opRoster, string(RosterNotFound), time.Since(start))
		return Roster{Status: RosterNotFound}, nil
	}
	if err != nil {
		return Roster{}, e.queryFault(opRoster, start, err)
	}

	residents, err := e.store.RoomRoster(ctx, summary.ID)
	if err != nil {
		return Roster{}, e.queryFault(opRoster, start, err)
	}

	roster := Roster{Status: RosterFound, Room: &summary, Residents: residents}
	if len(residents) == 0 {
		roster.Status = RosterEmpty
		roster.Residents = nil
	}
	metrics.ObserveOperation(opRoster, string(roster.Status), time.Since(start))
	return roster, nil
}

// RoomOccupancy returns the capacity and current occupancy of a room.
func (e *Engine) RoomOccupancy(ctx context.Context, roomNumber int, dormitoryID int64) (RoomSummary, error) {
	start := time.Now()
	summary, err := e.roomSummary(ctx, roomNumber, dormitoryID)
	if errors.Is(err, ErrRoomNotFound) {
		metrics.ObserveOperation(opRoomOccupancy, string(RoomNotFound), time.Since(start))
		return RoomSummary{}, err
	}
	if err != nil {
		return RoomSummary{}, e.queryFault(opRoomOccupancy, start, err)
	}
	metrics.ObserveOperation(opRoomOccupancy, "found", time.Since(start))
	return summary, nil
}

// AuditTrail returns up to limit entries, newest first. A non-positive limit
// uses the configured default; larger limits are capped at the configured maximum.
func (e *Engine) AuditTrail(ctx context.Context, limit int) ([]AuditRecord, error) {
	start := time.Now()
	limit = e.auditLimit(limit)

	entries, err := e.store.AuditTrail(ctx, limit)
	if err != nil {
		return nil, e.queryFault(opAuditTrail, start, err)
	}

	records := make([]AuditRecord, 0, len(entries))
	for _, entry := range entries {
		records = append(records, auditRecordOf(entry))
	}
	metrics.ObserveOperation(opAuditTrail, "found", time.Since(start))
	return records, nil
}

func (e *Engine) auditLimit(limit int) int {
	if limit <= 0 {
		return e.opts.AuditTrailDefaultLimit
	}
	if limit > e.opts.AuditTrailMaxLimit {
		return e.opts.AuditTrailMaxLimit
	}
	return limit
}

func (e *Engine) roomSummary(ctx context.Context, roomNumber int, dormitoryID int64) (RoomSummary, error) {
	room, err := e.store.FindRoom(ctx, roomNumber, dormitoryID)
	if errors.Is(err, store.ErrNotFound) {
		return RoomSummary{}, fmt.Errorf("%w: %d/%d", ErrRoomNotFound, dormitoryID, roomNumber)
	}
	if err != nil {
		return RoomSummary{}, err
	}

	occupants, err := e.store.CountOccupants(ctx, room.ID)
	if err != nil {
		return RoomSummary{}, err
	}
	available := room.Capacity - occupants
	if available < 0 {
		available = 0
	}
	return RoomSummary{
		ID:            room.ID,
		Number:        room.Number,
		DormitoryID:   room.DormitoryID,
		DormitoryName: room.Dormitory.Name,
		Capacity:      room.Capacity,
		Occupancy:     occupants,
		Available:     available,
	}, nil
}

func (e *Engine) queryFault(op string, start time.Time, err error) error {
	_, f := e.fail(op, start, err)
	return f
}
