package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"routeshadow/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }

// MigrateDir applies every *.sql file in dir in lexical order. Migrations must
// be idempotent.
func (p *Postgres) MigrateDir(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return err
	}
	sort.Strings(files)
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		if _, err := p.db.Exec(string(b)); err != nil {
			return fmt.Errorf("migrate %s: %w", filepath.Base(f), err)
		}
	}
	return nil
}

const runColumns = `id::text, name, seed, strategy, distance_type, hard, soft, feasible, constraints, assigned, unassigned, evaluations, verified_moves, duration_ms, created_at`

func (p *Postgres) SaveRun(ctx context.Context, run model.Run) (model.Run, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	cs, err := json.Marshal(run.Constraints)
	if err != nil {
		return model.Run{}, err
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO runs (id, name, seed, strategy, distance_type, hard, soft, feasible, constraints, assigned, unassigned, evaluations, verified_moves, duration_ms, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        ON CONFLICT (id) DO UPDATE SET hard=$6, soft=$7, feasible=$8, constraints=$9, assigned=$10, unassigned=$11, evaluations=$12, verified_moves=$13, duration_ms=$14`,
		run.ID, run.Name, run.Seed, run.Strategy, run.DistanceType, run.Hard, run.Soft, run.Feasible, cs,
		run.Assigned, run.Unassigned, run.Evaluations, run.VerifiedMoves, run.DurationMs, run.CreatedAt)
	if err != nil {
		return model.Run{}, err
	}
	return run, nil
}

func (p *Postgres) GetRun(ctx context.Context, id string) (model.Run, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	row := p.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id=$1`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return run, err
}

func (p *Postgres) ListRuns(ctx context.Context, cursor string, limit int) ([]model.Run, string, error) {
	limit = clampLimit(limit)
	q := `SELECT ` + runColumns + ` FROM runs`
	args := []any{}
	if cursor != "" {
		if _, err := uuid.Parse(cursor); err != nil {
			return nil, "", fmt.Errorf("cursor %q: %w", cursor, ErrNotFound)
		}
		q += ` WHERE (created_at, id) < (SELECT created_at, id FROM runs WHERE id=$1)`
		args = append(args, cursor)
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT %d`, limit+1)
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []model.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	next := ""
	if len(out) > limit {
		out = out[:limit]
		next = out[limit-1].ID
	}
	return out, next, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (model.Run, error) {
	var run model.Run
	var cs []byte
	err := s.Scan(&run.ID, &run.Name, &run.Seed, &run.Strategy, &run.DistanceType, &run.Hard, &run.Soft, &run.Feasible, &cs,
		&run.Assigned, &run.Unassigned, &run.Evaluations, &run.VerifiedMoves, &run.DurationMs, &run.CreatedAt)
	if err != nil {
		return model.Run{}, err
	}
	run.Score = fmt.Sprintf("%dhard/%dsoft", run.Hard, run.Soft)
	if len(cs) > 0 {
		if err := json.Unmarshal(cs, &run.Constraints); err != nil {
			return model.Run{}, err
		}
	}
	return run, nil
}
