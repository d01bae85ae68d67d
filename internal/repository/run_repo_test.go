package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	cf "neohub_controller"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRunRepo(t *testing.T) (*RunSQLite, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	repo := NewRunSQLite(db)
	cleanup := func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	}
	return repo, mock, cleanup
}

var runColumns = []string{"id", "occurred_at", "job", "temp_c", "recipe", "outcome", "error", "response"}

func TestRunSQLite_Append(t *testing.T) {
	temp := 7.5
	tests := []struct {
		name           string
		run            cf.RecipeRun
		mockExpect     func(sqlmock.Sqlmock)
		wantErr        bool
		errContainsStr string
	}{
		{
			name: "dispatched run with defaults",
			run: cf.RecipeRun{
				Job:          "run_recipes",
				TemperatureC: &temp,
				Recipe:       "4.30 am Heating Start",
				Outcome:      " dispatched ",
				Response:     `{"result":"ok"}`,
			},
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(insertRunSQL)).
					WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "run_recipes",
						sql.NullFloat64{Float64: 7.5, Valid: true},
						sql.NullString{String: "4.30 am Heating Start", Valid: true},
						"DISPATCHED",
						sql.NullString{},
						sql.NullString{String: `{"result":"ok"}`, Valid: true},
					).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "weather failure stores null temperature",
			run: cf.RecipeRun{
				ID:         "r-1",
				OccurredAt: time.Date(2025, 3, 5, 23, 59, 0, 0, time.UTC),
				Job:        "run_recipes",
				Outcome:    cf.OutcomeWeatherErr,
				Error:      "weather fetch: 503",
			},
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(insertRunSQL)).
					WithArgs("r-1", "2025-03-05 23:59:00", "run_recipes",
						sql.NullFloat64{}, sql.NullString{}, cf.OutcomeWeatherErr,
						sql.NullString{String: "weather fetch: 503", Valid: true}, sql.NullString{},
					).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "exec error",
			run:  cf.RecipeRun{ID: "r-2", Outcome: cf.OutcomeNoRecipe},
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec("INSERT INTO recipe_runs").
					WillReturnError(errors.New("db exec failed"))
			},
			wantErr:        true,
			errContainsStr: "insert recipe run r-2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := newMockRunRepo(t)
			defer cleanup()
			tt.mockExpect(mock)

			err := repo.Append(context.Background(), tt.run)
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), tt.errContainsStr) {
					t.Fatalf("expected error containing %q, got %v", tt.errContainsStr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRunSQLite_List_WithFilters(t *testing.T) {
	repo, mock, cleanup := newMockRunRepo(t)
	defer cleanup()

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)
	query := selectRunsSQL + ` WHERE occurred_at >= ? AND occurred_at <= ? AND recipe = ? ORDER BY occurred_at ASC`

	rows := sqlmock.NewRows(runColumns).
		AddRow("1", from.Add(time.Hour), "run_recipes", 10.0, "6am Start Time.", cf.OutcomeDispatched, nil, "ok").
		AddRow("2", from.Add(2*time.Hour), "run_recipes", 9.5, "6am Start Time.", cf.OutcomeHubErr, "refused", nil)
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("2025-03-01 00:00:00", "2025-03-31 23:59:59", "6am Start Time.").
		WillReturnRows(rows)

	got, err := repo.List(context.Background(), from, to, " 6am Start Time. ")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Fatalf("unexpected runs: %+v", got)
	}
	if got[0].TemperatureC == nil || *got[0].TemperatureC != 10 || got[0].Response != "ok" {
		t.Fatalf("first run not decoded: %+v", got[0])
	}
	if got[1].Error != "refused" || got[1].Response != "" {
		t.Fatalf("second run not decoded: %+v", got[1])
	}
}

func TestRunSQLite_List_QueryError(t *testing.T) {
	repo, mock, cleanup := newMockRunRepo(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(selectRunsSQL + ` ORDER BY occurred_at ASC`)).
		WillReturnError(errors.New("down"))

	if _, err := repo.List(context.Background(), time.Time{}, time.Time{}, ""); err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected query error, got %v", err)
	}
}

func TestRunSQLite_Latest(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		repo, mock, cleanup := newMockRunRepo(t)
		defer cleanup()
		mock.ExpectQuery(regexp.QuoteMeta(selectLastRun)).WillReturnRows(sqlmock.NewRows(runColumns))

		got, err := repo.Latest(context.Background())
		if err != nil || got != nil {
			t.Fatalf("expected (nil, nil), got (%+v, %v)", got, err)
		}
	})

	t.Run("found", func(t *testing.T) {
		repo, mock, cleanup := newMockRunRepo(t)
		defer cleanup()
		at := time.Date(2025, 3, 5, 23, 59, 0, 0, time.UTC)
		mock.ExpectQuery(regexp.QuoteMeta(selectLastRun)).WillReturnRows(
			sqlmock.NewRows(runColumns).AddRow("9", at, "run_recipes", nil, nil, cf.OutcomeNoRecipe, nil, nil))

		got, err := repo.Latest(context.Background())
		if err != nil || got == nil {
			t.Fatalf("Latest: %+v, %v", got, err)
		}
		if got.ID != "9" || got.Outcome != cf.OutcomeNoRecipe || got.TemperatureC != nil || !got.OccurredAt.Equal(at) {
			t.Fatalf("unexpected run: %+v", got)
		}
	})
}
