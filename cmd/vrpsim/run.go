package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"routeshadow/internal/api"
	"routeshadow/internal/config"
	"routeshadow/internal/difficulty"
	"routeshadow/internal/metrics"
	"routeshadow/internal/model"
	"routeshadow/internal/opt"
	"routeshadow/internal/problem"
	"routeshadow/internal/route"
	"routeshadow/internal/score"
)

// progressEvery throttles verify.progress events.
const progressEvery = 25

// execute generates the instance, constructs a solution, verifies the
// incremental score on a clone and records the run. The constructed solution
// becomes the server's snapshot. Every published event is also passed to
// sinks.
func execute(ctx context.Context, cfg config.Config, srv *api.Server, log logrus.FieldLogger, sinks ...func(model.Event)) (model.Run, error) {
	start := time.Now()
	strategy, err := difficulty.ParseStrategy(cfg.Run.Strategy)
	if err != nil {
		return model.Run{}, err
	}
	runID := uuid.NewString()
	log = log.WithField("run", runID)

	sol, err := problem.Generate(cfg.Problem)
	if err != nil {
		return model.Run{}, err
	}
	dir, err := score.NewDirector(sol, score.Defaults(sol)...)
	if err != nil {
		return model.Run{}, fmt.Errorf("score director: %w", err)
	}
	defer dir.Close()
	sol.AddListener(metrics.NewListener(sol))

	publish := func(typ string, s score.HardSoft, step int) {
		evt := model.Event{
			ID:    uuid.NewString(),
			Type:  typ,
			RunID: runID,
			Score: s.String(),
			Hard:  s.Hard,
			Soft:  s.Soft,
			Step:  step,
			At:    time.Now().UTC(),
		}
		srv.Publish(evt)
		for _, sink := range sinks {
			sink(evt)
		}
	}

	assigned := 0
	cm, err := opt.Construct(ctx, sol, dir, opt.Options{
		Strategy: strategy,
		Log:      log,
		OnAssign: func(_ *route.Customer, s score.HardSoft) {
			assigned++
			publish(model.EventCustomerAssigned, s, assigned)
		},
	})
	if err != nil {
		return model.Run{}, err
	}

	res, err := dir.Breakdown()
	if err != nil {
		return model.Run{}, err
	}
	full, err := score.Evaluate(sol, score.Defaults(sol)...)
	if err != nil {
		return model.Run{}, err
	}
	if full.Score != res.Score {
		metrics.ScoreMismatches.Inc()
		return model.Run{}, fmt.Errorf("%w: incremental %s, full %s", score.ErrScoreCorrupted, res.Score, full.Score)
	}
	metrics.ScoreEvaluations.WithLabelValues("full").Inc()

	snap, err := opt.BuildSnapshot(sol, res)
	if err != nil {
		return model.Run{}, err
	}
	srv.SetSnapshot(snap)

	verified := 0
	if cfg.Run.VerifyMoves > 0 {
		verified, err = verify(ctx, sol, cfg.Run, func(step int, s score.HardSoft) {
			if n := step + 1; n%progressEvery == 0 || n == cfg.Run.VerifyMoves {
				publish(model.EventVerifyProgress, s, n)
			}
		})
		if err != nil {
			return model.Run{}, err
		}
	}

	metrics.Score.WithLabelValues("hard").Set(float64(res.Score.Hard))
	metrics.Score.WithLabelValues("soft").Set(float64(res.Score.Soft))

	run, err := srv.Store.SaveRun(ctx, model.Run{
		ID:            runID,
		Name:          sol.Name,
		Seed:          cfg.Problem.Seed,
		Strategy:      strategy.String(),
		DistanceType:  sol.DistanceType.String(),
		Score:         res.Score.String(),
		Hard:          res.Score.Hard,
		Soft:          res.Score.Soft,
		Feasible:      res.Score.IsFeasible(),
		Constraints:   opt.ConstraintViews(res),
		Assigned:      cm.Assigned,
		Unassigned:    len(sol.Unassigned()),
		Evaluations:   cm.Evaluations,
		VerifiedMoves: verified,
		DurationMs:    time.Since(start).Milliseconds(),
	})
	if err != nil {
		return model.Run{}, fmt.Errorf("save run: %w", err)
	}
	publish(model.EventRunCompleted, res.Score, 0)
	log.WithFields(logrus.Fields{
		"score":    run.Score,
		"feasible": run.Feasible,
		"verified": verified,
	}).Info("run finished")
	return run, nil
}

// verify replays random mutations on a clone so the published snapshot stays
// the constructed solution.
func verify(ctx context.Context, sol *route.Solution, rc config.Run, onStep func(int, score.HardSoft)) (int, error) {
	clone, err := sol.Clone()
	if err != nil {
		return 0, err
	}
	dir, err := score.NewDirector(clone, score.Defaults(clone)...)
	if err != nil {
		return 0, err
	}
	defer dir.Close()
	clone.AddListener(metrics.NewListener(clone))
	rep, err := opt.Verify(ctx, clone, dir, rc.VerifyMoves, rc.VerifySeed, onStep)
	return rep.Moves, err
}
