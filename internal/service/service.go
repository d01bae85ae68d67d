package service

import (
	"context"

	cf "neohub_controller"
	"neohub_controller/internal/logger"
	"neohub_controller/internal/repository"
)

// Hub forwards ad-hoc commands to the NeoHub and returns the raw reply.
type Hub interface {
	Send(ctx context.Context, cmd cf.Command) (string, error)
}

// Weather exposes today's minimum forecast temperature.
type Weather interface {
	MinTemp(ctx context.Context) (float64, error)
}

// Schedule arms, replaces or cancels the recipe automation job.
type Schedule interface {
	Set(s cf.Schedule) error
	Jobs() []cf.JobInfo
}

// RunLog exposes recipe run history with filtering access.
type RunLog interface {
	List(ctx context.Context, f RunFilter) ([]cf.RecipeRun, error)
}

// Monitoring exposes a read-only snapshot of the automation.
type Monitoring interface {
	Status(ctx context.Context) (cf.Status, error)
}

// Service aggregates all sub-services consumed by the HTTP layer.
type Service struct {
	Hub
	Weather
	Schedule
	RunLog
	Monitoring
}

// Deps are the long-lived components built in main.
type Deps struct {
	Hub      CommandSender
	Weather  Weather
	Registry JobRegistry
	Engine   ActionBuilder
	Log      *logger.Logger
}

// NewService wires repositories and runtime components into concrete services.
func NewService(repos *repository.Repository, d Deps) *Service {
	return &Service{
		Hub:        NewHubService(d.Hub, d.Log),
		Weather:    d.Weather,
		Schedule:   NewScheduleService(d.Registry, d.Engine, d.Log),
		RunLog:     NewRunLogService(repos.RunRepo),
		Monitoring: NewMonitoringService(d.Registry, repos.RunRepo),
	}
}
