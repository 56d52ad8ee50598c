package api

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"asrama-occupancy-backend/internal/occupancy"
)

var registerTagNames sync.Once

// useJSONFieldNames makes validation errors report the JSON (or query) name
// of a field instead of the Go one.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	})
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// abortInvalidRequest answers a request that failed binding.
func abortInvalidRequest(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fieldError{Field: fe.Field(), Rule: fe.Tag()})
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": fields})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}

// abortFault answers a request whose operation failed with a fault. The cause
// is logged by the engine and attached to the gin context, never sent back.
func abortFault(c *gin.Context, err error) {
	_ = c.Error(err)

	kind := occupancy.FaultKindOf(err)
	status := http.StatusInternalServerError
	message := "internal error"
	switch kind {
	case occupancy.FaultUnavailable:
		status, message = http.StatusServiceUnavailable, "database unavailable"
	case occupancy.FaultBusy:
		status, message = http.StatusServiceUnavailable, "room or resident is busy, retry later"
	case occupancy.FaultConstraint:
		status, message = http.StatusConflict, "conflicting concurrent change, retry later"
	case "":
		kind = occupancy.FaultInternal
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message, "kind": kind})
}
