package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"neohub_controller/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errFromInvalid = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid   = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// isDateOnly reports whether the query string represents a date without time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

// @Summary      List recipe runs
// @Description  Filter run history by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD') and recipe name. A date-only 'to' is end-of-day inclusive.
// @Tags         runs
// @Produce      json
// @Param        from    query   string  false  "Start of range"  example(2025-03-01)
// @Param        to      query   string  false  "End of range. Date-only treated as end of day."  example(2025-03-31)
// @Param        recipe  query   string  false  "Recipe name"  example(2am Heating Start.)
// @Success      200     {object}  map[string]interface{}  "count, runs"
// @Failure      400     {object}  map[string]string
// @Failure      401     {object}  map[string]string
// @Failure      500     {object}  map[string]string
// @Router       /api/v1/runs [get]
// @Security     BearerAuth
func (h *Handler) getRuns(c *gin.Context) {
	var (
		from, to time.Time
		err      error
	)
	if qs := c.Query("from"); qs != "" {
		if from, err = parseQueryTime(qs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errFromInvalid})
			return
		}
	}
	if qs := c.Query("to"); qs != "" {
		if to, err = parseQueryTime(qs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errToInvalid})
			return
		}
		if isDateOnly(qs) {
			to = to.Add(24*time.Hour - time.Nanosecond).UTC()
		}
	}

	recipe := c.Query("recipe")
	runs, err := h.services.RunLog.List(c.Request.Context(), service.RunFilter{
		From:   from,
		To:     to,
		Recipe: recipe,
	})
	if err != nil {
		h.logAndJSONError(c, "runs_list_failed", err, "from", from, "to", to, "recipe", recipe)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(runs),
		"runs":  runs,
	})
}

func parseQueryTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf(
		"invalid time format %q, expected one of: "+
			"RFC3339 (e.g. 2025-08-27T15:04:05Z), "+
			"'YYYY-MM-DD HH:MM:SS', "+
			"'YYYY-MM-DD'",
		s,
	)
}
