package handlers

import (
	"net/http"

	cf "neohub_controller"
	"neohub_controller/internal/scheduler"

	"github.com/gin-gonic/gin"
)

// ScheduleRequest arms (run=true) or stops (run=false) the recipe job.
// run must be present; time and thresholds are only read when it is true.
type ScheduleRequest struct {
	Run  *bool  `json:"run" example:"true"`
	Time string `json:"time,omitempty" example:"59 23 * * *"` // cron expression, required when run=true
	// Thresholds in °C, strictly descending
	Threshold1 float64 `json:"threshold_1" example:"9"`
	Threshold2 float64 `json:"threshold_2" example:"5"`
	Threshold3 float64 `json:"threshold_3" example:"1"`
	Threshold4 float64 `json:"threshold_4" example:"-3"`
}

func (r ScheduleRequest) toSchedule() (cf.Schedule, error) {
	if r.Run == nil {
		return cf.Schedule{}, &scheduler.ScheduleError{Field: "run", Reason: "required"}
	}
	return cf.Schedule{
		Run:  *r.Run,
		Time: r.Time,
		Thresholds: cf.ThresholdSet{
			T1: r.Threshold1,
			T2: r.Threshold2,
			T3: r.Threshold3,
			T4: r.Threshold4,
		},
	}, nil
}

// @Summary      Arm or stop the recipe schedule
// @Tags         schedule
// @Accept       json
// @Produce      json
// @Param        body  body      ScheduleRequest  true  "schedule"
// @Success      200   {object}  map[string]interface{}  "status, jobs"
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/schedule [post]
// @Security     BearerAuth
func (h *Handler) postSchedule(c *gin.Context) {
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	sc, err := req.toSchedule()
	if err == nil {
		err = h.services.Schedule.Set(sc)
	}
	if err != nil {
		h.logAndJSONError(c, "schedule_set_failed", err, "run", sc.Run, "time", req.Time)
		return
	}

	status := statusStopped
	if sc.Run {
		status = statusScheduled
	}
	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"jobs":   h.services.Schedule.Jobs(),
	})
}

// @Summary      List armed jobs
// @Tags         schedule
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "jobs"
// @Router       /api/v1/schedule [get]
// @Security     BearerAuth
func (h *Handler) getSchedule(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": h.services.Schedule.Jobs()})
}
