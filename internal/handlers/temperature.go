package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      Today's minimum temperature
// @Tags         weather
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "min_temp_c, message"
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/temperature [get]
// @Security     BearerAuth
func (h *Handler) getTemperature(c *gin.Context) {
	minC, err := h.services.Weather.MinTemp(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, "temperature_fetch_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"min_temp_c": minC,
		"message":    fmt.Sprintf("The minimum temperature today is %v", minC),
	})
}
