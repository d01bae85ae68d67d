package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func noop(context.Context) error { return nil }

func TestRegistry_AddTwiceKeepsSecondDefinition(t *testing.T) {
	r := New(nil)
	defer r.Stop()

	if err := r.Add("run_recipes", "0 6 * * *", noop); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := r.Add("run_recipes", "59 23 * * *", noop); err != nil {
		t.Fatalf("second add: %v", err)
	}

	jobs := r.Jobs()
	if len(jobs) != 1 {
		t.Fatalf("jobs = %d, want 1", len(jobs))
	}
	if jobs[0].Name != "run_recipes" || jobs[0].Expr != "59 23 * * *" {
		t.Fatalf("unexpected job: %+v", jobs[0])
	}
	if n := r.cron.Len(); n != 1 {
		t.Fatalf("armed timers = %d, want 1", n)
	}
	if next := jobs[0].NextRun; next.Hour() != 23 || next.Minute() != 59 {
		t.Fatalf("next run = %v, want 23:59", next)
	}
}

func TestRegistry_CancelUnknownIsNoop(t *testing.T) {
	r := New(nil)
	defer r.Stop()
	_ = r.Add("other", "@daily", noop)

	if r.CancelByName("never_added") {
		t.Fatalf("cancel of unknown job reported true")
	}
	if len(r.Jobs()) != 1 {
		t.Fatalf("unrelated job was touched")
	}
}

func TestRegistry_CancelRemovesJob(t *testing.T) {
	r := New(nil)
	defer r.Stop()
	_ = r.Add("run_recipes", "@hourly", noop)

	if !r.CancelByName("run_recipes") {
		t.Fatalf("cancel reported false for existing job")
	}
	if _, ok := r.Get("run_recipes"); ok {
		t.Fatalf("job still registered after cancel")
	}
	if n := r.cron.Len(); n != 0 {
		t.Fatalf("armed timers = %d, want 0", n)
	}
}

func TestRegistry_InvalidExpressionKeepsPreviousJob(t *testing.T) {
	r := New(nil)
	defer r.Stop()
	if err := r.Add("run_recipes", "59 23 * * *", noop); err != nil {
		t.Fatalf("add: %v", err)
	}

	for _, expr := range []string{"", "every day", "61 25 * * *"} {
		err := r.Add("run_recipes", expr, noop)
		var se *ScheduleError
		if !errors.As(err, &se) {
			t.Fatalf("expr %q: expected *ScheduleError, got %v", expr, err)
		}
	}

	job, ok := r.Get("run_recipes")
	if !ok || job.Expr != "59 23 * * *" {
		t.Fatalf("previous job lost: %+v ok=%v", job, ok)
	}
}

func TestParseExpr(t *testing.T) {
	cases := []struct {
		expr        string
		withSeconds bool
		ok          bool
	}{
		{"59 23 * * *", false, true},
		{"*/5 * * * * *", true, true},
		{"@daily", false, true},
		{"1 2 3", false, false},
	}
	for _, tc := range cases {
		_, secs, err := ParseExpr(tc.expr)
		if (err == nil) != tc.ok {
			t.Fatalf("ParseExpr(%q) err=%v, want ok=%v", tc.expr, err, tc.ok)
		}
		if tc.ok && secs != tc.withSeconds {
			t.Fatalf("ParseExpr(%q) withSeconds=%v", tc.expr, secs)
		}
	}
}

func TestRegistry_FailedRunDoesNotStopNextFire(t *testing.T) {
	r := New(nil)
	r.Start()
	defer r.Stop()

	var calls atomic.Int32
	err := r.Add("flaky", "* * * * * *", func(context.Context) error {
		switch calls.Add(1) {
		case 1:
			return errors.New("hub unreachable")
		case 2:
			panic("unexpected reply")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	deadline := time.Now().Add(6 * time.Second)
	for calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if n := calls.Load(); n < 3 {
		t.Fatalf("fires = %d, want at least 3 after an error and a panic", n)
	}
	if job, _ := r.Get("flaky"); job.LastRun.IsZero() {
		t.Fatalf("last run not recorded")
	}
}

func TestRegistry_CancelledJobStopsFiring(t *testing.T) {
	r := New(nil)
	r.Start()
	defer r.Stop()

	var calls atomic.Int32
	_ = r.Add("tick", "* * * * * *", func(context.Context) error {
		calls.Add(1)
		return nil
	})
	deadline := time.Now().Add(3 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	r.CancelByName("tick")
	time.Sleep(100 * time.Millisecond) // let a fire that already passed the check finish
	after := calls.Load()

	time.Sleep(1500 * time.Millisecond)
	if calls.Load() != after {
		t.Fatalf("cancelled job kept firing: %d -> %d", after, calls.Load())
	}
}
