package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"asrama-occupancy-backend/internal/occupancy"
	"asrama-occupancy-backend/internal/parse"
)

type roomQuery struct {
	Room      int   `form:"room" binding:"required,gt=0"`
	Dormitory int64 `form:"dormitory" binding:"required,gt=0"`
}

type auditTrailQuery struct {
	Limit int `form:"limit" binding:"omitempty,gte=0"`
}

// GetRoster handles GET /api/roster?room=&dormitory=.
func (h *Handler) GetRoster(c *gin.Context) {
	var q roomQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortInvalidRequest(c, err)
		return
	}
	h.writeRoster(c, q.Room, q.Dormitory)
}

// GetRoomRoster handles GET /api/rooms/:ref/roster where ref is "<dormitory>-<room>".
func (h *Handler) GetRoomRoster(c *gin.Context) {
	ref, err := parse.ParseRoomRef(c.Param("ref"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid room reference"})
		return
	}
	h.writeRoster(c, ref.RoomNumber, ref.DormitoryID)
}

func (h *Handler) writeRoster(c *gin.Context, room int, dormitory int64) {
	roster, err := h.engine.RoomRoster(c.Request.Context(), room, dormitory)
	if err != nil {
		abortFault(c, err)
		return
	}
	c.JSON(http.StatusOK, roster)
}

// GetOccupancy handles GET /api/occupancy?room=&dormitory=.
func (h *Handler) GetOccupancy(c *gin.Context) {
	var q roomQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortInvalidRequest(c, err)
		return
	}

	summary, err := h.engine.RoomOccupancy(c.Request.Context(), q.Room, q.Dormitory)
	if errors.Is(err, occupancy.ErrRoomNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	if err != nil {
		abortFault(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetAuditTrail handles GET /api/auditTrail?limit=.
func (h *Handler) GetAuditTrail(c *gin.Context) {
	var q auditTrailQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortInvalidRequest(c, err)
		return
	}

	records, err := h.engine.AuditTrail(c.Request.Context(), q.Limit)
	if err != nil {
		abortFault(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
