// Package opt drives a solution through construction and verification using
// the incremental score director.
package opt

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"routeshadow/internal/difficulty"
	"routeshadow/internal/metrics"
	"routeshadow/internal/route"
	"routeshadow/internal/score"
)

// Options tune Construct.
type Options struct {
	Strategy difficulty.Strategy
	Log      logrus.FieldLogger
	// OnAssign is called after each customer is placed.
	OnAssign func(c *route.Customer, s score.HardSoft)
}

// Metrics summarizes a construction run.
type Metrics struct {
	Assigned    int
	Evaluations int
	Final       score.HardSoft
	Duration    time.Duration
}

// Construct places every unassigned customer, hardest first, at the vehicle
// and position that yields the best score. Each candidate is tried with a real
// Assign and read back from dir, then undone.
func Construct(ctx context.Context, sol *route.Solution, dir *score.Director, opts Options) (Metrics, error) {
	start := time.Now()
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	var m Metrics
	pending := sol.Unassigned()
	if len(pending) == 0 || len(sol.Vehicles()) == 0 {
		s, err := dir.Score()
		m.Final = s
		return m, err
	}
	if err := difficulty.Sort(pending, rankingDepot(sol), opts.Strategy); err != nil {
		return m, fmt.Errorf("construct: %w", err)
	}
	slices.Reverse(pending)

	for _, c := range pending {
		if err := ctx.Err(); err != nil {
			return m, fmt.Errorf("construct: %w", err)
		}
		var (
			bestV   *route.Vehicle
			bestPos int
			best    score.HardSoft
		)
		for _, v := range sol.Vehicles() {
			for pos := 0; pos <= v.Len(); pos++ {
				s, err := tryAssign(sol, dir, c, v, pos)
				if err != nil {
					return m, fmt.Errorf("construct: %w", err)
				}
				m.Evaluations++
				if bestV == nil || s.Compare(best) > 0 {
					bestV, bestPos, best = v, pos, s
				}
			}
		}
		if err := sol.Assign(c, bestV, bestPos); err != nil {
			return m, fmt.Errorf("construct: %w", err)
		}
		m.Assigned++
		log.WithFields(logrus.Fields{
			"customer": c.ID,
			"vehicle":  bestV.ID,
			"position": bestPos,
			"score":    best.String(),
		}).Debug("customer placed")
		if opts.OnAssign != nil {
			opts.OnAssign(c, best)
		}
	}
	metrics.ScoreEvaluations.WithLabelValues("incremental").Add(float64(m.Evaluations))
	s, err := dir.Score()
	if err != nil {
		return m, fmt.Errorf("construct: %w", err)
	}
	m.Final = s
	m.Duration = time.Since(start)
	metrics.RunDuration.WithLabelValues("construct").Observe(m.Duration.Seconds())
	log.WithFields(logrus.Fields{
		"strategy":    opts.Strategy.String(),
		"assigned":    m.Assigned,
		"evaluations": m.Evaluations,
		"score":       s.String(),
	}).Info("construction finished")
	return m, nil
}

// rankingDepot is the first listed depot, or the first vehicle's depot when the
// solution lists none.
func rankingDepot(sol *route.Solution) *route.Depot {
	if ds := sol.Depots(); len(ds) > 0 {
		return ds[0]
	}
	return sol.Vehicles()[0].Depot
}

func tryAssign(sol *route.Solution, dir *score.Director, c *route.Customer, v *route.Vehicle, pos int) (score.HardSoft, error) {
	if err := sol.Assign(c, v, pos); err != nil {
		return score.HardSoft{}, err
	}
	s, scoreErr := dir.Score()
	if err := sol.Remove(c); err != nil {
		return score.HardSoft{}, err
	}
	return s, scoreErr
}
