package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	cf "neohub_controller"
	"neohub_controller/internal/logger"

	"github.com/go-co-op/gocron"
	"github.com/robfig/cron/v3"
)

// Action is the work a job performs on each fire.
type Action func(ctx context.Context) error

// ScheduleError rejects a job definition. The registry is left unchanged.
type ScheduleError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ScheduleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid schedule %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid schedule %s: %s", e.Field, e.Reason)
}

func (e *ScheduleError) Unwrap() error { return e.Err }

var secondsParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type entry struct {
	name     string
	expr     string
	schedule cron.Schedule
	job      *gocron.Job
	gen      uint64
	action   Action
	lastRun  time.Time
}

// Registry holds named cron jobs. One instance is built at startup and shared
// by reference; nothing is persisted.
type Registry struct {
	mu   sync.Mutex
	cron *gocron.Scheduler
	jobs map[string]*entry
	gen  uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    *logger.Logger
}

// New creates an idle registry. Call Start to begin firing jobs.
func New(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		cron:   gocron.NewScheduler(time.Local),
		jobs:   make(map[string]*entry),
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}
}

// Start begins firing jobs asynchronously.
func (r *Registry) Start() {
	r.cron.StartAsync()
}

// Stop halts future fires, cancels the context handed to running actions
// and waits for them to return.
func (r *Registry) Stop() {
	r.cron.Stop()
	r.cancel()
	r.wg.Wait()
}

// ParseExpr validates a 5-field cron expression, a 6-field one with leading
// seconds, or a descriptor such as "@daily".
func ParseExpr(expr string) (cron.Schedule, bool, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, false, &ScheduleError{Field: "time", Reason: "cron expression is required"}
	}
	withSeconds := !strings.HasPrefix(expr, "@") && len(strings.Fields(expr)) == 6
	var (
		sched cron.Schedule
		err   error
	)
	if withSeconds {
		sched, err = secondsParser.Parse(expr)
	} else {
		sched, err = cron.ParseStandard(expr)
	}
	if err != nil {
		return nil, false, &ScheduleError{Field: "time", Reason: fmt.Sprintf("cannot parse %q", expr), Err: err}
	}
	return sched, withSeconds, nil
}

// Add arms action under name, replacing any job already registered there.
// An invalid expression returns *ScheduleError and keeps the previous job.
func (r *Registry) Add(name, expr string, action Action) error {
	if strings.TrimSpace(name) == "" {
		return &ScheduleError{Field: "name", Reason: "job name is required"}
	}
	if action == nil {
		return &ScheduleError{Field: "action", Reason: "job action is required"}
	}
	sched, withSeconds, err := ParseExpr(expr)
	if err != nil {
		return err
	}
	expr = strings.TrimSpace(expr)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.gen++
	gen := r.gen

	builder := r.cron
	if withSeconds {
		builder = builder.CronWithSeconds(expr)
	} else {
		builder = builder.Cron(expr)
	}
	job, err := builder.Tag(name).SingletonMode().Do(func() { r.fire(name, gen) })
	if err != nil {
		return &ScheduleError{Field: "time", Reason: "scheduler rejected expression", Err: err}
	}

	if prev, ok := r.jobs[name]; ok {
		r.cron.RemoveByReference(prev.job)
		r.log.Infow("schedule_job_replaced", "job", name, "old_time", prev.expr, "new_time", expr)
	} else {
		r.log.Infow("schedule_job_added", "job", name, "time", expr)
	}

	r.jobs[name] = &entry{
		name:     name,
		expr:     expr,
		schedule: sched,
		job:      job,
		gen:      gen,
		action:   action,
	}
	return nil
}

// CancelByName removes the job if present and reports whether it existed.
// Runs already in flight are not interrupted.
func (r *Registry) CancelByName(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.jobs[name]
	if !ok {
		return false
	}
	r.cron.RemoveByReference(e.job)
	delete(r.jobs, name)
	r.log.Infow("schedule_job_cancelled", "job", name)
	return true
}

// Get returns the job registered under name.
func (r *Registry) Get(name string) (cf.JobInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.jobs[name]
	if !ok {
		return cf.JobInfo{}, false
	}
	return e.info(time.Now()), true
}

// Jobs lists registered jobs sorted by name.
func (r *Registry) Jobs() []cf.JobInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	out := make([]cf.JobInfo, 0, len(r.jobs))
	for _, e := range r.jobs {
		out = append(out, e.info(now))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (e *entry) info(now time.Time) cf.JobInfo {
	return cf.JobInfo{Name: e.name, Expr: e.expr, NextRun: e.schedule.Next(now), LastRun: e.lastRun}
}

// fire runs a job action outside the lock. A stale generation means the job
// was replaced or cancelled after the timer was armed.
func (r *Registry) fire(name string, gen uint64) {
	r.mu.Lock()
	e, ok := r.jobs[name]
	if !ok || e.gen != gen {
		r.mu.Unlock()
		return
	}
	e.lastRun = time.Now()
	action := e.action
	r.wg.Add(1)
	r.mu.Unlock()

	defer r.wg.Done()
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Errorw("schedule_job_panic", "job", name, "panic", rec)
		}
	}()

	if err := action(r.ctx); err != nil {
		r.log.Errorw("schedule_job_failed", "job", name, "err", err)
	}
}
