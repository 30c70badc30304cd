package opt

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"routeshadow/internal/metrics"
	"routeshadow/internal/route"
	"routeshadow/internal/score"
)

// VerifyReport counts the mutations replayed by Verify.
type VerifyReport struct {
	Moves       int
	Assigns     int
	Removes     int
	Relocations int
	Undos       int
	Final       score.HardSoft
	Duration    time.Duration
}

// Verify replays n seeded random mutations on sol. After every mutation it
// checks the shadow invariants and that the incremental score matches a full
// recomputation; about half the mutations are undone again, and the undo must
// restore the previous score exactly. onStep may be nil.
func Verify(ctx context.Context, sol *route.Solution, dir *score.Director, n int, seed int64, onStep func(step int, s score.HardSoft)) (VerifyReport, error) {
	start := time.Now()
	rng := rand.New(rand.NewSource(seed))
	var rep VerifyReport
	customers := sol.Customers()
	vehicles := sol.Vehicles()
	if len(customers) == 0 || len(vehicles) == 0 {
		return rep, nil
	}
	for step := 0; step < n; step++ {
		if err := ctx.Err(); err != nil {
			return rep, fmt.Errorf("verify: %w", err)
		}
		before, err := dir.Score()
		if err != nil {
			return rep, fmt.Errorf("verify step %d: %w", step, err)
		}
		c := customers[rng.Intn(len(customers))]
		v := vehicles[rng.Intn(len(vehicles))]
		undo, err := mutate(sol, rng, c, v, &rep)
		if err != nil {
			metrics.Mutations.WithLabelValues("verify", "error").Inc()
			return rep, fmt.Errorf("verify step %d: %w", step, err)
		}
		rep.Moves++
		if err := check(sol, dir); err != nil {
			return rep, fmt.Errorf("verify step %d: %w", step, err)
		}
		if rng.Intn(2) == 0 {
			if err := undo(); err != nil {
				return rep, fmt.Errorf("verify step %d undo: %w", step, err)
			}
			rep.Undos++
			if err := check(sol, dir); err != nil {
				return rep, fmt.Errorf("verify step %d undo: %w", step, err)
			}
			if after, _ := dir.Score(); after != before {
				metrics.ScoreMismatches.Inc()
				return rep, fmt.Errorf("verify step %d undo: score %s, want %s: %w", step, after, before, score.ErrScoreCorrupted)
			}
		}
		if onStep != nil {
			s, _ := dir.Score()
			onStep(step, s)
		}
	}
	s, err := dir.Score()
	if err != nil {
		return rep, fmt.Errorf("verify: %w", err)
	}
	rep.Final = s
	rep.Duration = time.Since(start)
	metrics.RunDuration.WithLabelValues("verify").Observe(rep.Duration.Seconds())
	return rep, nil
}

// mutate applies one random mutation to c and returns its inverse.
func mutate(sol *route.Solution, rng *rand.Rand, c *route.Customer, v *route.Vehicle, rep *VerifyReport) (func() error, error) {
	if !c.Routed() {
		if err := sol.Assign(c, v, rng.Intn(v.Len()+1)); err != nil {
			return nil, err
		}
		rep.Assigns++
		return func() error { return sol.Remove(c) }, nil
	}
	from := c.Vehicle()
	pos, _ := c.Position()
	if rng.Intn(4) == 0 {
		if err := sol.Remove(c); err != nil {
			return nil, err
		}
		rep.Removes++
		return func() error { return sol.Assign(c, from, pos) }, nil
	}
	limit := v.Len()
	if v == from {
		limit--
	}
	if err := sol.Move(c, v, rng.Intn(limit+1)); err != nil {
		return nil, err
	}
	rep.Relocations++
	return func() error { return sol.Move(c, from, pos) }, nil
}

func check(sol *route.Solution, dir *score.Director) error {
	if err := sol.Validate(); err != nil {
		return err
	}
	metrics.ScoreEvaluations.WithLabelValues("full").Inc()
	err := dir.AssertConsistent()
	if errors.Is(err, score.ErrScoreCorrupted) {
		metrics.ScoreMismatches.Inc()
	}
	return err
}
