package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"asrama-occupancy-backend/internal/logger"
	"asrama-occupancy-backend/internal/mw"
)

type roomsQuery struct {
	Dormitory     int64 `form:"dormitory" binding:"required,gt=0"`
	WithOccupancy bool  `form:"withOccupancy"`
}

// GetDormitories handles GET /api/dormitories.
func (h *Handler) GetDormitories(c *gin.Context) {
	dorms, err := h.store.ListDormitories(c.Request.Context())
	if err != nil {
		abortCatalog(c, "failed to retrieve dormitories", err)
		return
	}
	c.JSON(http.StatusOK, dorms)
}

// GetRooms handles GET /api/rooms?dormitory=. With withOccupancy=true every
// room carries its live occupant count and the response is not cached.
func (h *Handler) GetRooms(c *gin.Context) {
	var q roomsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortInvalidRequest(c, err)
		return
	}

	if q.WithOccupancy {
		mw.NoStore(c)
		rooms, err := h.store.RoomOccupancies(c.Request.Context(), q.Dormitory)
		if err != nil {
			abortCatalog(c, "failed to retrieve rooms", err)
			return
		}
		c.JSON(http.StatusOK, rooms)
		return
	}

	rooms, err := h.store.ListRooms(c.Request.Context(), q.Dormitory)
	if err != nil {
		abortCatalog(c, "failed to retrieve rooms", err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// GetFaculties handles GET /api/faculties.
func (h *Handler) GetFaculties(c *gin.Context) {
	faculties, err := h.store.ListFaculties(c.Request.Context())
	if err != nil {
		abortCatalog(c, "failed to retrieve faculties", err)
		return
	}
	c.JSON(http.StatusOK, faculties)
}

func abortCatalog(c *gin.Context, message string, err error) {
	logger.Error(message, zap.Error(err), zap.String("request_id", mw.GetRequestID(c.Request.Context())))
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": message})
}
