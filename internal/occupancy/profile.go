package occupancy

import (
	"context"
	"errors"
	"strings"

	"asrama-occupancy-backend/internal/parse"
	"asrama-occupancy-backend/internal/store"
)

// UpdateProfileRequest changes the identifier, name or faculty of a resident.
// Nil fields are left alone. An empty NIMNew or NameNew counts as not
// supplied; an empty FacultyNameNew clears the faculty.
type UpdateProfileRequest struct {
	NIMOriginal    string
	NIMNew         *string
	NameNew        *string
	FacultyNameNew *string
}

// UpdateProfile applies a profile change. The room reference is never
// touched; a new NIM re-keys the existing row.
func (e *Engine) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (Result, error) {
	orig := req.NIMOriginal
	newNIM := nonEmpty(req.NIMNew)
	if newNIM != nil && *newNIM == orig {
		newNIM = nil
	}
	newName := nonEmpty(parse.OptionalText(req.NameNew))
	newFaculty := parse.OptionalText(req.FacultyNameNew)

	res := Result{NIM: orig}
	keys := []string{residentKey(orig)}
	if newNIM != nil {
		keys = append(keys, residentKey(*newNIM))
	}
	if newFaculty != nil && *newFaculty != "" {
		keys = append(keys, facultyKey(*newFaculty))
	}

	return e.mutate(ctx, opUpdateProfile, keys, func(tx store.Tx) (Result, error) {
		resident, err := tx.LockResident(orig)
		if errors.Is(err, store.ErrNotFound) {
			res.Outcome = ResidentNotFound
			return res, nil
		}
		if err != nil {
			return Result{}, err
		}
		res.Name = resident.Name
		res.RoomNumber = resident.Room.Number
		res.DormitoryID = resident.Room.DormitoryID
		res.DormitoryName = resident.Room.Dormitory.Name

		if newNIM != nil {
			res.NewNIM = *newNIM
			if !parse.ValidNIM(*newNIM) {
				res.Outcome = InvalidIdentifier
				return res, nil
			}
			taken, err := tx.ResidentExists(*newNIM)
			if err != nil {
				return Result{}, err
			}
			if taken {
				res.Outcome = DuplicateResident
				return res, nil
			}
		}

		if newNIM == nil && newName == nil && newFaculty == nil {
			res.Outcome = NoChangeRequested
			return res, nil
		}

		before := snapshotOf(resident)
		after := before
		if newNIM != nil {
			after.NIM = *newNIM
		}
		if newName != nil {
			after.Name = *newName
		}
		if newFaculty != nil {
			if *newFaculty == "" {
				after.FacultyID, after.Faculty = nil, nil
			} else {
				f, err := tx.FindOrCreateFaculty(*newFaculty)
				if err != nil {
					return Result{}, err
				}
				after.FacultyID, after.Faculty = &f.ID, &f.Name
			}
		}

		kind := changeKindOf(before, after)
		if kind == ChangeNone {
			res.Outcome = NoActualChange
			return res, nil
		}

		err = tx.UpdateResident(orig, store.ResidentUpdate{
			NIM:       after.NIM,
			Name:      after.Name,
			FacultyID: after.FacultyID,
		})
		if err != nil {
			return Result{}, err
		}

		entry, _ := updateEntry(before, after)
		if err := tx.AppendAudit(&entry); err != nil {
			return Result{}, err
		}

		res.Outcome = Updated
		res.Name = after.Name
		res.ChangeKind = kind
		res.AuditID = entry.ID
		return res, nil
	})
}

// nonEmpty treats a blank value as not supplied.
func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
