package repository

import (
	"context"
	"database/sql"
	"time"

	cf "neohub_controller"
)

type RunRepo interface {
	Append(ctx context.Context, run cf.RecipeRun) error
	List(ctx context.Context, from, to time.Time, recipe string) ([]cf.RecipeRun, error)
	Latest(ctx context.Context) (*cf.RecipeRun, error)
}

type Repository struct {
	RunRepo RunRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		RunRepo: NewRunSQLite(db),
	}
}
