package service

import (
	"context"
	"errors"
	"strings"
	"time"

	cf "neohub_controller"
	"neohub_controller/internal/repository"
)

type RunLogService struct {
	runRepo repository.RunRepo
}

func NewRunLogService(runRepo repository.RunRepo) *RunLogService {
	return &RunLogService{runRepo: runRepo}
}

// ErrInvalidTimeRange rejects a filter whose From is after its To.
var ErrInvalidTimeRange = errors.New("invalid time range: From must be <= To")

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f RunFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", ErrInvalidTimeRange
	}
	return from, to, strings.TrimSpace(f.Recipe), nil
}

func (s *RunLogService) List(ctx context.Context, f RunFilter) ([]cf.RecipeRun, error) {
	from, to, recipe, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.runRepo.List(ctx, from, to, recipe)
}
