package handlers

import (
	"errors"
	"net/http"

	"neohub_controller/internal/neohub"
	"neohub_controller/internal/scheduler"
	"neohub_controller/internal/service"
	"neohub_controller/internal/weather"

	"github.com/gin-gonic/gin"
)

const (
	statusOK        = "ok"
	statusScheduled = "scheduled"
	statusStopped   = "stopped"

	errInvalidBodyPref = "invalid body: "
	errInternal        = "internal error"
)

// httpStatusFor maps domain errors onto HTTP codes. Typed errors carry a
// user-facing message; anything else is reported as an internal error.
func httpStatusFor(err error) (int, string) {
	var (
		se *scheduler.ScheduleError
		ce *neohub.ConnectionError
		pe *neohub.ProtocolError
		de *weather.DataError
	)
	switch {
	case errors.Is(err, neohub.ErrCircuitOpen):
		return http.StatusServiceUnavailable, err.Error()
	case errors.As(err, &se),
		errors.Is(err, service.ErrInvalidCommand),
		errors.Is(err, service.ErrInvalidTimeRange),
		errors.Is(err, neohub.ErrEmptyCommand):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &ce):
		return http.StatusBadGateway, err.Error()
	case errors.As(err, &pe):
		return http.StatusGatewayTimeout, err.Error()
	case errors.As(err, &de):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, errInternal
	}
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	code, msg := httpStatusFor(err)
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err, "status", code}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(code, gin.H{"error": msg})
}
