package recipes

import (
	"context"
	"errors"
	"fmt"
	"time"

	cf "neohub_controller"
	"neohub_controller/internal/logger"
	"neohub_controller/internal/weather"

	"github.com/google/uuid"
)

// WeatherSource yields today's minimum forecast temperature.
type WeatherSource interface {
	MinTemp(ctx context.Context) (float64, error)
}

// CommandSender delivers one hub command and returns the raw reply.
type CommandSender interface {
	Run(ctx context.Context, name, value string) (string, error)
}

// RunRecorder stores the outcome of each evaluation.
type RunRecorder interface {
	Append(ctx context.Context, run cf.RecipeRun) error
}

// Book names the hub recipe for each threshold band, warmest first.
type Book [4]string

const defaultRunTimeout = 2 * time.Minute

// Select walks the thresholds from highest to lowest and returns the band of
// the first one x exceeds. ok is false when x is at or below every threshold.
func Select(t cf.ThresholdSet, x float64) (band int, ok bool) {
	for i, limit := range t.Values() {
		if x > limit {
			return i, true
		}
	}
	return 0, false
}

// RecipeValue formats a recipe name as the list literal RUN_RECIPE expects.
func RecipeValue(name string) string {
	return fmt.Sprintf("['%s']", name)
}

// Engine evaluates the threshold cascade and dispatches the chosen recipe.
// It keeps no state between runs.
type Engine struct {
	weather WeatherSource
	hub     CommandSender
	runs    RunRecorder
	book    Book
	timeout time.Duration
	log     *logger.Logger
}

// NewEngine wires the engine. runs and log may be nil.
func NewEngine(ws WeatherSource, hub CommandSender, runs RunRecorder, book Book, timeout time.Duration, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	if timeout <= 0 {
		timeout = defaultRunTimeout
	}
	return &Engine{weather: ws, hub: hub, runs: runs, book: book, timeout: timeout, log: log}
}

// Run performs one evaluation: fetch, select, dispatch, record.
// The returned RecipeRun is filled in even when err is non-nil.
func (e *Engine) Run(ctx context.Context, job string, t cf.ThresholdSet) (cf.RecipeRun, error) {
	run := cf.RecipeRun{
		ID:         uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Job:        job,
	}
	defer e.record(ctx, &run)

	temp, err := e.weather.MinTemp(ctx)
	if err != nil {
		run.Outcome = cf.OutcomeWeatherErr
		run.Error = err.Error()
		return run, err
	}
	run.TemperatureC = &temp
	e.log.Infow("recipe_min_temp", "job", job, "min_temp_c", temp)

	band, ok := Select(t, temp)
	if !ok {
		run.Outcome = cf.OutcomeNoRecipe
		e.log.Infow("recipe_none_selected", "job", job, "min_temp_c", temp, "lowest_threshold", t.T4)
		return run, nil
	}

	run.Recipe = e.book[band]
	e.log.Infow("recipe_selected", "job", job, "recipe", run.Recipe, "band", band+1, "min_temp_c", temp)

	reply, err := e.hub.Run(ctx, cf.CmdRunRecipe, RecipeValue(run.Recipe))
	if err != nil {
		run.Outcome = cf.OutcomeHubErr
		run.Error = err.Error()
		return run, err
	}
	run.Outcome = cf.OutcomeDispatched
	run.Response = reply
	return run, nil
}

// Action adapts Run for the scheduler. Weather failures are logged and
// swallowed; hub failures are returned for the scheduler to log. Neither
// affects later fires.
func (e *Engine) Action(job string, t cf.ThresholdSet) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()

		run, err := e.Run(ctx, job, t)
		var de *weather.DataError
		switch {
		case errors.As(err, &de):
			e.log.Warnw("recipe_run_skipped", "job", job, "err", err)
			return nil
		case err != nil:
			return fmt.Errorf("recipe run %s: %w", run.ID, err)
		}
		e.log.Infow("recipe_run_finished", "job", job, "run_id", run.ID, "outcome", run.Outcome, "recipe", run.Recipe)
		return nil
	}
}

// record stores the run with its own short deadline so a timed-out run is still logged.
func (e *Engine) record(ctx context.Context, run *cf.RecipeRun) {
	if e.runs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := e.runs.Append(ctx, *run); err != nil {
		e.log.Errorw("recipe_run_record_failed", "run_id", run.ID, "err", err)
	}
}
