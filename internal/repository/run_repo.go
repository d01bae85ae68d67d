package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	cf "neohub_controller"

	"github.com/google/uuid"
)

const (
	insertRunSQL = `
		INSERT INTO recipe_runs (id, occurred_at, job, temp_c, recipe, outcome, error, response)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	selectRunsSQL = `SELECT id, occurred_at, job, temp_c, recipe, outcome, error, response FROM recipe_runs`
	selectLastRun = selectRunsSQL + ` ORDER BY occurred_at DESC LIMIT 1`
	sqliteTimeFmt = "2006-01-02 15:04:05"
)

type RunSQLite struct {
	db *sql.DB
}

func NewRunSQLite(db *sql.DB) *RunSQLite { return &RunSQLite{db: db} }

// Ensure implementation of RunRepo interface at compile time.
var _ RunRepo = (*RunSQLite)(nil)

// Append inserts a run. If ID or OccurredAt are empty, they're set.
func (r *RunSQLite) Append(ctx context.Context, run cf.RecipeRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.OccurredAt.IsZero() {
		run.OccurredAt = time.Now().UTC()
	}

	var temp sql.NullFloat64
	if run.TemperatureC != nil {
		temp = sql.NullFloat64{Float64: *run.TemperatureC, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, insertRunSQL,
		run.ID,
		run.OccurredAt.UTC().Format(sqliteTimeFmt),
		run.Job,
		temp,
		nullString(run.Recipe),
		strings.ToUpper(strings.TrimSpace(run.Outcome)),
		nullString(run.Error),
		nullString(run.Response),
	)
	if err != nil {
		return fmt.Errorf("insert recipe run %s: %w", run.ID, err)
	}
	return nil
}

// List returns runs filtered by [from, to] (inclusive) and/or recipe, ordered ASC.
func (r *RunSQLite) List(ctx context.Context, from, to time.Time, recipe string) ([]cf.RecipeRun, error) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC().Format(sqliteTimeFmt))
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC().Format(sqliteTimeFmt))
	}
	if recipe = strings.TrimSpace(recipe); recipe != "" {
		conds = append(conds, "recipe = ?")
		args = append(args, recipe)
	}

	q := selectRunsSQL
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query recipe runs: %w", err)
	}
	defer rows.Close()

	out := make([]cf.RecipeRun, 0, 32)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Latest returns the most recent run, or (nil, nil) when there is none.
func (r *RunSQLite) Latest(ctx context.Context) (*cf.RecipeRun, error) {
	run, err := scanRun(r.db.QueryRowContext(ctx, selectLastRun))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (cf.RecipeRun, error) {
	var (
		run                     cf.RecipeRun
		temp                    sql.NullFloat64
		recipe, errMsg, respStr sql.NullString
	)
	if err := s.Scan(&run.ID, &run.OccurredAt, &run.Job, &temp, &recipe, &run.Outcome, &errMsg, &respStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cf.RecipeRun{}, err
		}
		return cf.RecipeRun{}, fmt.Errorf("scan recipe run: %w", err)
	}
	run.OccurredAt = run.OccurredAt.UTC()
	if temp.Valid {
		v := temp.Float64
		run.TemperatureC = &v
	}
	run.Recipe = recipe.String
	run.Error = errMsg.String
	run.Response = respStr.String
	return run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
