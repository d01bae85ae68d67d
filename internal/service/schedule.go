package service

import (
	"context"
	"strings"

	cf "neohub_controller"
	"neohub_controller/internal/logger"
	"neohub_controller/internal/scheduler"
)

// JobRegistry is satisfied by *scheduler.Registry.
type JobRegistry interface {
	Add(name, expr string, action scheduler.Action) error
	CancelByName(name string) bool
	Jobs() []cf.JobInfo
}

// ActionBuilder is satisfied by *recipes.Engine.
type ActionBuilder interface {
	Action(job string, t cf.ThresholdSet) func(ctx context.Context) error
}

type ScheduleService struct {
	registry JobRegistry
	engine   ActionBuilder
	log      *logger.Logger
}

func NewScheduleService(registry JobRegistry, engine ActionBuilder, log *logger.Logger) *ScheduleService {
	return &ScheduleService{registry: registry, engine: engine, log: log}
}

// Set arms or replaces the recipe job when Run is true and cancels it
// otherwise. A rejected request leaves the current job untouched.
func (s *ScheduleService) Set(sc cf.Schedule) error {
	if !sc.Run {
		removed := s.registry.CancelByName(cf.RecipeJobName)
		if s.log != nil {
			s.log.Infow("schedule_stopped", "job", cf.RecipeJobName, "was_armed", removed)
		}
		return nil
	}

	expr := strings.TrimSpace(sc.Time)
	if expr == "" {
		return &scheduler.ScheduleError{Field: "time", Reason: "required when run is true"}
	}
	if !sc.Thresholds.Descending() {
		return &scheduler.ScheduleError{
			Field:  "thresholds",
			Reason: "threshold_1 > threshold_2 > threshold_3 > threshold_4 is required",
		}
	}

	return s.registry.Add(cf.RecipeJobName, expr, s.engine.Action(cf.RecipeJobName, sc.Thresholds))
}

func (s *ScheduleService) Jobs() []cf.JobInfo {
	return s.registry.Jobs()
}
