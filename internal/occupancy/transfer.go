package occupancy

import (
	"context"
	"errors"

	"asrama-occupancy-backend/internal/parse"
	"asrama-occupancy-backend/internal/store"
)

// TransferRequest moves a resident to another room.
type TransferRequest struct {
	NIM         string
	RoomNumber  int
	DormitoryID int64
}

// Transfer moves a resident into the destination room if it has a free bed.
// Moving a resident into the room they already occupy reports
// AlreadyAtDestination and writes nothing. A malformed NIM is rejected
// before any lookup.
func (e *Engine) Transfer(ctx context.Context, req TransferRequest) (Result, error) {
	nim := req.NIM
	res := Result{NIM: nim, RoomNumber: req.RoomNumber, DormitoryID: req.DormitoryID}
	if !parse.ValidNIM(nim) {
		res.Outcome = InvalidIdentifier
		return e.reject(opTransfer, res)
	}
	keys := []string{residentKey(nim), roomKey(req.DormitoryID, req.RoomNumber)}

	return e.mutate(ctx, opTransfer, keys, func(tx store.Tx) (Result, error) {
		resident, err := tx.LockResident(nim)
		if errors.Is(err, store.ErrNotFound) {
			res.Outcome = ResidentNotFound
			return res, nil
		}
		if err != nil {
			return Result{}, err
		}
		res.Name = resident.Name

		dest, err := tx.LockRoom(req.RoomNumber, req.DormitoryID)
		if errors.Is(err, store.ErrNotFound) {
			res.Outcome = RoomNotFound
			return res, nil
		}
		if err != nil {
			return Result{}, err
		}
		res.DormitoryName = dest.Dormitory.Name
		res.Capacity = dest.Capacity

		occupants, err := tx.CountOccupants(dest.ID)
		if err != nil {
			return Result{}, err
		}
		res.Occupancy = occupants

		if dest.ID == resident.RoomID {
			res.Outcome = AlreadyAtDestination
			return res, nil
		}
		if occupants >= dest.Capacity {
			res.Outcome = RoomFull
			return res, nil
		}

		left, err := tx.CountOccupants(resident.RoomID)
		if err != nil {
			return Result{}, err
		}

		if err := tx.MoveResident(nim, dest.ID); err != nil {
			return Result{}, err
		}

		before := snapshotOf(resident)
		after := before
		after.RoomID = dest.ID
		after.RoomNumber = dest.Number
		after.Dormitory = dest.Dormitory.Name

		entry, kind := updateEntry(before, after)
		if err := tx.AppendAudit(&entry); err != nil {
			return Result{}, err
		}

		res.Outcome = Transferred
		res.Occupancy = occupants + 1
		res.ChangeKind = kind
		res.AuditID = entry.ID
		if left >= resident.Room.Capacity {
			res.vacatedRoomID = resident.RoomID
		}
		return res, nil
	})
}
