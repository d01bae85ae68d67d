package service

import (
	"context"

	cf "neohub_controller"
	"neohub_controller/internal/repository"
)

// JobLister is the read side of the scheduler registry.
type JobLister interface {
	Jobs() []cf.JobInfo
}

type MonitoringService struct {
	jobs    JobLister
	runRepo repository.RunRepo
}

func NewMonitoringService(jobs JobLister, runRepo repository.RunRepo) *MonitoringService {
	return &MonitoringService{jobs: jobs, runRepo: runRepo}
}

// Status returns the armed jobs and the most recent recipe run, if any.
func (s *MonitoringService) Status(ctx context.Context) (cf.Status, error) {
	last, err := s.runRepo.Latest(ctx)
	if err != nil {
		return cf.Status{}, err
	}
	jobs := s.jobs.Jobs()
	if jobs == nil {
		jobs = []cf.JobInfo{}
	}
	return cf.Status{Jobs: jobs, LastRun: last}, nil
}
