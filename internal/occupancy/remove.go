package occupancy

import (
	"context"
	"errors"

	"asrama-occupancy-backend/internal/store"
)

// Remove deletes a resident and records their last placement.
func (e *Engine) Remove(ctx context.Context, nim string) (Result, error) {
	res := Result{NIM: nim}

	return e.mutate(ctx, opRemove, []string{residentKey(nim)}, func(tx store.Tx) (Result, error) {
		resident, err := tx.LockResident(nim)
		if errors.Is(err, store.ErrNotFound) {
			res.Outcome = ResidentNotFound
			return res, nil
		}
		if err != nil {
			return Result{}, err
		}

		occupants, err := tx.CountOccupants(resident.RoomID)
		if err != nil {
			return Result{}, err
		}

		if err := tx.DeleteResident(nim); err != nil {
			return Result{}, err
		}
		entry := deleteEntry(snapshotOf(resident))
		if err := tx.AppendAudit(&entry); err != nil {
			return Result{}, err
		}

		res.Outcome = Removed
		res.Name = resident.Name
		res.RoomNumber = resident.Room.Number
		res.DormitoryID = resident.Room.DormitoryID
		res.DormitoryName = resident.Room.Dormitory.Name
		res.Capacity = resident.Room.Capacity
		res.Occupancy = occupants - 1
		res.AuditID = entry.ID
		if occupants >= resident.Room.Capacity {
			res.vacatedRoomID = resident.RoomID
		}
		return res, nil
	})
}
