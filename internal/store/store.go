package store

import (
	"context"
	"errors"

	"routeshadow/internal/model"
)

// Store persists run records.
type Store interface {
	// SaveRun stores run, assigning an ID and CreatedAt when unset.
	SaveRun(ctx context.Context, run model.Run) (model.Run, error)
	GetRun(ctx context.Context, id string) (model.Run, error)
	// ListRuns returns runs newest first. cursor is the ID of the last run of
	// the previous page.
	ListRuns(ctx context.Context, cursor string, limit int) (items []model.Run, nextCursor string, err error)
	Ping(ctx context.Context) error
}

var ErrNotFound = errors.New("not found")

const (
	defaultLimit = 50
	maxLimit     = 500
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
