package neohub_controller

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestJobInfo_LastRunOmittedUntilFirstFire(t *testing.T) {
	next := time.Date(2025, 3, 5, 23, 59, 0, 0, time.UTC)

	b, err := json.Marshal(JobInfo{Name: RecipeJobName, Expr: "59 23 * * *", NextRun: next})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(b), "last_run") {
		t.Fatalf("idle job must not report last_run: %s", b)
	}

	b, _ = json.Marshal(JobInfo{Name: RecipeJobName, NextRun: next, LastRun: next.Add(-24 * time.Hour)})
	if !strings.Contains(string(b), `"last_run":"2025-03-04T23:59:00Z"`) {
		t.Fatalf("fired job must report last_run: %s", b)
	}
}

func TestThresholdSet_Descending(t *testing.T) {
	cases := []struct {
		in   ThresholdSet
		want bool
	}{
		{ThresholdSet{9, 5, 1, -3}, true},
		{ThresholdSet{9, 9, 1, -3}, false},
		{ThresholdSet{1, 5, 0, -1}, false},
	}
	for _, tc := range cases {
		if got := tc.in.Descending(); got != tc.want {
			t.Fatalf("%+v.Descending() = %v; want %v", tc.in, got, tc.want)
		}
	}
}
