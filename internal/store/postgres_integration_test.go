//go:build postgres_integration

package store

import (
	"errors"
	"os"
	"testing"

	"routeshadow/internal/model"
)

func TestPostgresRunRoundTrip(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	p, err := NewPostgres(dsn)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	defer p.Close()
	if err := p.Ping(t.Context()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := p.MigrateDir("../../db/migrations"); err != nil {
		t.Fatalf("MigrateDir: %v", err)
	}
	run, err := p.SaveRun(t.Context(), model.Run{
		Name: "it", Strategy: "matryoshka", DistanceType: "air", Hard: -1, Soft: -900,
		Constraints: []model.ConstraintScore{{Name: "vehicleCapacity", Level: "hard", Hard: -1, MatchCount: 1}},
	})
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	got, err := p.GetRun(t.Context(), run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Score != "-1hard/-900soft" || len(got.Constraints) != 1 {
		t.Fatalf("round trip: %+v", got)
	}
	if _, _, err := p.ListRuns(t.Context(), "", 1); err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if _, err := p.GetRun(t.Context(), "00000000-0000-0000-0000-000000000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
