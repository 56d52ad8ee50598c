package occupancy

import (
	"context"
	"errors"
	"strings"

	"asrama-occupancy-backend/internal/model"
	"asrama-occupancy-backend/internal/parse"
	"asrama-occupancy-backend/internal/store"
)

// AdmitRequest places a new resident in a room. An empty or nil FacultyName
// admits the resident without a faculty.
type AdmitRequest struct {
	NIM         string
	Name        string
	FacultyName *string
	RoomNumber  int
	DormitoryID int64
}

// Admit inserts a new resident. Checks run in this order and the first
// failure is reported: identifier format, name, room existence, capacity,
// identifier uniqueness. An unknown faculty is created on the way.
func (e *Engine) Admit(ctx context.Context, req AdmitRequest) (Result, error) {
	nim := req.NIM
	name := strings.TrimSpace(req.Name)
	faculty := parse.OptionalText(req.FacultyName)

	res := Result{NIM: nim, Name: name, RoomNumber: req.RoomNumber, DormitoryID: req.DormitoryID}
	if !parse.ValidNIM(nim) {
		res.Outcome = InvalidIdentifier
		return e.reject(opAdmit, res)
	}
	if name == "" {
		res.Outcome = InvalidName
		return e.reject(opAdmit, res)
	}

	keys := []string{residentKey(nim), roomKey(req.DormitoryID, req.RoomNumber)}
	if faculty != nil && *faculty != "" {
		keys = append(keys, facultyKey(*faculty))
	}

	return e.mutate(ctx, opAdmit, keys, func(tx store.Tx) (Result, error) {
		var facultyID *int64
		var facultyName *string
		if faculty != nil && *faculty != "" {
			f, err := tx.FindOrCreateFaculty(*faculty)
			if err != nil {
				return Result{}, err
			}
			facultyID, facultyName = &f.ID, &f.Name
		}

		room, err := tx.LockRoom(req.RoomNumber, req.DormitoryID)
		if errors.Is(err, store.ErrNotFound) {
			res.Outcome = RoomNotFound
			return res, nil
		}
		if err != nil {
			return Result{}, err
		}
		res.DormitoryName = room.Dormitory.Name
		res.Capacity = room.Capacity

		occupants, err := tx.CountOccupants(room.ID)
		if err != nil {
			return Result{}, err
		}
		res.Occupancy = occupants
		if occupants >= room.Capacity {
			res.Outcome = RoomFull
			return res, nil
		}

		exists, err := tx.ResidentExists(nim)
		if err != nil {
			return Result{}, err
		}
		if exists {
			res.Outcome = DuplicateResident
			return res, nil
		}

		resident := model.Resident{NIM: nim, Name: name, FacultyID: facultyID, RoomID: room.ID}
		if err := tx.InsertResident(&resident); err != nil {
			return Result{}, err
		}

		entry := insertEntry(snapshot{
			NIM:        nim,
			Name:       name,
			FacultyID:  facultyID,
			Faculty:    facultyName,
			RoomID:     room.ID,
			RoomNumber: room.Number,
			Dormitory:  room.Dormitory.Name,
		})
		if err := tx.AppendAudit(&entry); err != nil {
			return Result{}, err
		}

		res.Outcome = Admitted
		res.Occupancy = occupants + 1
		res.AuditID = entry.ID
		return res, nil
	})
}
