package service

import (
	"context"
	"time"

	cf "neohub_controller"
	"neohub_controller/internal/scheduler"
)

// fakeRunRepo is a minimal stub that satisfies repository.RunRepo.
type fakeRunRepo struct {
	gotFrom   time.Time
	gotTo     time.Time
	gotRecipe string

	runs      []cf.RecipeRun
	latest    *cf.RecipeRun
	err       error
	latestErr error

	calls int
}

func (f *fakeRunRepo) Append(ctx context.Context, run cf.RecipeRun) error { return nil }

func (f *fakeRunRepo) List(ctx context.Context, from, to time.Time, recipe string) ([]cf.RecipeRun, error) {
	f.calls++
	f.gotFrom = from
	f.gotTo = to
	f.gotRecipe = recipe
	return f.runs, f.err
}

func (f *fakeRunRepo) Latest(ctx context.Context) (*cf.RecipeRun, error) {
	return f.latest, f.latestErr
}

type fakeSender struct {
	reply     string
	err       error
	calls     int
	lastName  string
	lastValue string
}

func (f *fakeSender) Run(ctx context.Context, name, value string) (string, error) {
	f.calls++
	f.lastName = name
	f.lastValue = value
	return f.reply, f.err
}

type fakeEngine struct {
	lastJob string
	lastSet cf.ThresholdSet
}

func (f *fakeEngine) Action(job string, t cf.ThresholdSet) func(ctx context.Context) error {
	f.lastJob = job
	f.lastSet = t
	return func(context.Context) error { return nil }
}

type fakeRegistry struct {
	added     map[string]string
	cancelled []string
	addErr    error
	jobs      []cf.JobInfo
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{added: map[string]string{}}
}

func (f *fakeRegistry) Add(name, expr string, action scheduler.Action) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added[name] = expr
	return nil
}

func (f *fakeRegistry) CancelByName(name string) bool {
	f.cancelled = append(f.cancelled, name)
	_, ok := f.added[name]
	delete(f.added, name)
	return ok
}

func (f *fakeRegistry) Jobs() []cf.JobInfo { return f.jobs }
