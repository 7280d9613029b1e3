package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"unimate/internal/app/busy"
	"unimate/internal/app/realtime"
)

type StatusHTTP interface {
	Busy(c *gin.Context)
}

// StatusHandler reports whether data-access work is in flight.
type StatusHandler struct {
	Tracker *busy.Tracker
}

func (h StatusHandler) Busy(c *gin.Context) {
	if h.Tracker == nil {
		c.JSON(http.StatusOK, realtime.BusyState{})
		return
	}
	c.JSON(http.StatusOK, realtime.BusyState{Busy: h.Tracker.Busy(), InFlight: h.Tracker.InFlight()})
}

var _ StatusHTTP = StatusHandler{}
