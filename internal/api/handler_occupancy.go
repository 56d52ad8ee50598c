package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"asrama-occupancy-backend/internal/occupancy"
)

type admitRequest struct {
	NIM         string  `json:"nim" binding:"max=50"`
	Name        string  `json:"name" binding:"max=255"`
	FacultyName *string `json:"facultyName" binding:"omitempty,max=255"`
	RoomNumber  int     `json:"roomNumber" binding:"required,gt=0"`
	DormitoryID int64   `json:"dormitoryId" binding:"required,gt=0"`
}

type transferRequest struct {
	NIM         string `json:"nim" binding:"max=50"`
	RoomNumber  int    `json:"roomNumber" binding:"required,gt=0"`
	DormitoryID int64  `json:"dormitoryId" binding:"required,gt=0"`
}

type updateProfileRequest struct {
	NIMOriginal    string  `json:"nimOriginal" binding:"required,max=50"`
	NIMNew         *string `json:"nimNew" binding:"omitempty,max=50"`
	NameNew        *string `json:"nameNew" binding:"omitempty,max=255"`
	FacultyNameNew *string `json:"facultyNameNew" binding:"omitempty,max=255"`
}

type removeRequest struct {
	NIM string `json:"nim" binding:"max=50"`
}

type outcomeResponse struct {
	occupancy.Result
	Message string `json:"message"`
}

// Admit handles POST /api/admit.
func (h *Handler) Admit(c *gin.Context) {
	var req admitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}

	res, err := h.engine.Admit(c.Request.Context(), occupancy.AdmitRequest{
		NIM:         req.NIM,
		Name:        req.Name,
		FacultyName: req.FacultyName,
		RoomNumber:  req.RoomNumber,
		DormitoryID: req.DormitoryID,
	})
	writeOutcome(c, res, err)
}

// Transfer handles POST /api/transfer.
func (h *Handler) Transfer(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}

	res, err := h.engine.Transfer(c.Request.Context(), occupancy.TransferRequest{
		NIM:         req.NIM,
		RoomNumber:  req.RoomNumber,
		DormitoryID: req.DormitoryID,
	})
	writeOutcome(c, res, err)
}

// UpdateProfile handles POST /api/updateProfile.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}

	res, err := h.engine.UpdateProfile(c.Request.Context(), occupancy.UpdateProfileRequest{
		NIMOriginal:    req.NIMOriginal,
		NIMNew:         req.NIMNew,
		NameNew:        req.NameNew,
		FacultyNameNew: req.FacultyNameNew,
	})
	writeOutcome(c, res, err)
}

// Remove handles POST /api/remove.
func (h *Handler) Remove(c *gin.Context) {
	var req removeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalidRequest(c, err)
		return
	}

	res, err := h.engine.Remove(c.Request.Context(), req.NIM)
	writeOutcome(c, res, err)
}

func writeOutcome(c *gin.Context, res occupancy.Result, err error) {
	if err != nil {
		abortFault(c, err)
		return
	}
	c.JSON(outcomeStatus(res.Outcome), outcomeResponse{Result: res, Message: outcomeMessage(res)})
}

func outcomeStatus(o occupancy.Outcome) int {
	switch o {
	case occupancy.Admitted:
		return http.StatusCreated
	case occupancy.InvalidIdentifier, occupancy.InvalidName:
		return http.StatusBadRequest
	case occupancy.RoomNotFound, occupancy.ResidentNotFound:
		return http.StatusNotFound
	case occupancy.DuplicateResident, occupancy.RoomFull:
		return http.StatusConflict
	}
	return http.StatusOK
}

func outcomeMessage(res occupancy.Result) string {
	room := fmt.Sprintf("room %d", res.RoomNumber)
	if res.DormitoryName != "" {
		room = fmt.Sprintf("room %d (%s)", res.RoomNumber, res.DormitoryName)
	}

	switch res.Outcome {
	case occupancy.Admitted:
		return fmt.Sprintf("resident %s admitted to %s, %d/%d occupied", res.NIM, room, res.Occupancy, res.Capacity)
	case occupancy.Transferred:
		return fmt.Sprintf("resident %s moved to %s", res.NIM, room)
	case occupancy.Updated:
		if res.NewNIM != "" {
			return fmt.Sprintf("resident %s updated, now %s", res.NIM, res.NewNIM)
		}
		return fmt.Sprintf("resident %s updated", res.NIM)
	case occupancy.Removed:
		return fmt.Sprintf("resident %s removed from %s", res.NIM, room)
	case occupancy.AlreadyAtDestination:
		return fmt.Sprintf("resident %s is already in %s", res.NIM, room)
	case occupancy.NoChangeRequested:
		return "no field to update was supplied"
	case occupancy.NoActualChange:
		return "supplied values match the current data"
	case occupancy.InvalidIdentifier:
		return "NIM must be a non-empty string of digits"
	case occupancy.InvalidName:
		return "name must not be empty"
	case occupancy.RoomNotFound:
		return fmt.Sprintf("room %d in dormitory %d does not exist", res.RoomNumber, res.DormitoryID)
	case occupancy.ResidentNotFound:
		return fmt.Sprintf("resident %s not found", res.NIM)
	case occupancy.DuplicateResident:
		if res.NewNIM != "" {
			return fmt.Sprintf("NIM %s is already registered", res.NewNIM)
		}
		return fmt.Sprintf("NIM %s is already registered", res.NIM)
	case occupancy.RoomFull:
		return fmt.Sprintf("%s is full (%d/%d)", room, res.Occupancy, res.Capacity)
	}
	return string(res.Outcome)
}
