package opt

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"routeshadow/internal/difficulty"
	"routeshadow/internal/geo"
	"routeshadow/internal/problem"
	"routeshadow/internal/route"
	"routeshadow/internal/score"
)

func quietLogger() *logrus.Logger {
	l, _ := test.NewNullLogger()
	return l
}

func TestConstructAssignsEveryCustomer(t *testing.T) {
	for _, s := range []difficulty.Strategy{difficulty.PizzaSlice, difficulty.Matryoshka, difficulty.ZebraCrossing} {
		t.Run(s.String(), func(t *testing.T) {
			sol, err := problem.Generate(problem.Params{Seed: 11, Customers: 12})
			if err != nil {
				t.Fatal(err)
			}
			dir, err := score.NewDirector(sol)
			if err != nil {
				t.Fatal(err)
			}
			placed := 0
			m, err := Construct(context.Background(), sol, dir, Options{
				Strategy: s,
				Log:      quietLogger(),
				OnAssign: func(*route.Customer, score.HardSoft) { placed++ },
			})
			if err != nil {
				t.Fatalf("construct: %v", err)
			}
			if m.Assigned != 12 || placed != 12 || len(sol.Unassigned()) != 0 {
				t.Fatalf("assigned %d, callbacks %d, left %d", m.Assigned, placed, len(sol.Unassigned()))
			}
			if err := sol.Validate(); err != nil {
				t.Fatal(err)
			}
			if err := dir.AssertConsistent(); err != nil {
				t.Fatal(err)
			}
			full, err := score.Evaluate(sol)
			must(t, err)
			if full.Score != m.Final {
				t.Fatalf("final %s, full %s", m.Final, full.Score)
			}
		})
	}
}

func TestConstructPrefersCheapestInsertion(t *testing.T) {
	sol, err := problem.Generate(problem.Params{Seed: 5, Customers: 1, Vehicles: 2})
	if err != nil {
		t.Fatal(err)
	}
	dir, err := score.NewDirector(sol)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Construct(context.Background(), sol, dir, Options{Log: quietLogger()}); err != nil {
		t.Fatal(err)
	}
	// a lone customer goes to the first vehicle; the second would tie
	if sol.Vehicles()[0].Len() != 1 || sol.Vehicles()[1].Len() != 0 {
		t.Fatalf("routes %d/%d", sol.Vehicles()[0].Len(), sol.Vehicles()[1].Len())
	}
}

func TestConstructWithoutListedDepots(t *testing.T) {
	d := &route.Depot{Location: geo.NewAirLocation(0, 0, 0)}
	c1 := &route.Customer{ID: 1, Location: geo.NewAirLocation(1, 0, 1), Demand: 1}
	c2 := &route.Customer{ID: 2, Location: geo.NewAirLocation(2, 1, 0), Demand: 1}
	sol, err := route.NewSolution(nil, []*route.Vehicle{route.NewVehicle(1, 4, d)}, []*route.Customer{c1, c2})
	if err != nil {
		t.Fatal(err)
	}
	dir, err := score.NewDirector(sol)
	if err != nil {
		t.Fatal(err)
	}
	m, err := Construct(context.Background(), sol, dir, Options{Log: quietLogger()})
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	if m.Assigned != 2 || len(sol.Unassigned()) != 0 {
		t.Fatalf("assigned %d, unassigned %d", m.Assigned, len(sol.Unassigned()))
	}
}

func TestConstructHonoursCancellation(t *testing.T) {
	sol, err := problem.Generate(problem.Params{Seed: 1})
	must(t, err)
	dir, err := score.NewDirector(sol)
	must(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Construct(ctx, sol, dir, Options{Log: quietLogger()}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestVerifyReplaysMutations(t *testing.T) {
	for _, dt := range []string{"air", "road", "segmented"} {
		t.Run(dt, func(t *testing.T) {
			sol, err := problem.Generate(problem.Params{Seed: 9, Customers: 15, DistanceName: dt, TimeWindows: true})
			if err != nil {
				t.Fatal(err)
			}
			dir, err := score.NewDirector(sol)
			must(t, err)
			if _, err := Construct(context.Background(), sol, dir, Options{Log: quietLogger()}); err != nil {
				t.Fatal(err)
			}
			steps := 0
			rep, err := Verify(context.Background(), sol, dir, 300, 4, func(int, score.HardSoft) { steps++ })
			if err != nil {
				t.Fatalf("verify: %v", err)
			}
			if rep.Moves != 300 || steps != 300 {
				t.Fatalf("moves %d, steps %d", rep.Moves, steps)
			}
			if rep.Assigns+rep.Removes+rep.Relocations != rep.Moves || rep.Undos == 0 {
				t.Fatalf("report %+v", rep)
			}
		})
	}
}

func TestSnapshotMatchesRoutes(t *testing.T) {
	sol, err := problem.Generate(problem.Params{Seed: 2, Customers: 6, TimeWindows: true})
	must(t, err)
	dir, err := score.NewDirector(sol)
	must(t, err)
	if _, err := Construct(context.Background(), sol, dir, Options{Log: quietLogger()}); err != nil {
		t.Fatal(err)
	}
	must(t, sol.Remove(sol.Customers()[0]))
	res, err := dir.Breakdown()
	if err != nil {
		t.Fatal(err)
	}
	snap, err := BuildSnapshot(sol, res)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Unassigned) != 1 || snap.Unassigned[0] != sol.Customers()[0].ID {
		t.Fatalf("unassigned %v", snap.Unassigned)
	}
	var total int64
	stops := 0
	for _, r := range snap.Routes {
		total += r.Distance
		stops += len(r.Stops)
		for i, s := range r.Stops {
			if s.Position != i || s.Arrival == nil {
				t.Fatalf("stop %+v at index %d", s, i)
			}
		}
	}
	if stops != 5 {
		t.Fatalf("stops = %d", stops)
	}
	if -total != snap.Soft {
		t.Fatalf("route distance %d, soft score %d", total, snap.Soft)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
