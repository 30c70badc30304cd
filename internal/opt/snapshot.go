package opt

import (
	"fmt"
	"time"

	"routeshadow/internal/model"
	"routeshadow/internal/route"
	"routeshadow/internal/score"
)

// ConstraintViews flattens a score breakdown for JSON.
func ConstraintViews(res score.Result) []model.ConstraintScore {
	out := make([]model.ConstraintScore, len(res.Constraints))
	for i, c := range res.Constraints {
		out[i] = model.ConstraintScore{Name: c.Name, Level: c.Level, Hard: c.Score.Hard, Soft: c.Score.Soft, MatchCount: c.MatchCount}
	}
	return out
}

func point(v interface {
	Latitude() float64
	Longitude() float64
}) model.Point {
	return model.Point{Lat: v.Latitude(), Lon: v.Longitude()}
}

// BuildSnapshot renders the routes and shadow fields of sol with the score res.
func BuildSnapshot(sol *route.Solution, res score.Result) (model.Snapshot, error) {
	snap := model.Snapshot{
		Name:         sol.Name,
		DistanceType: sol.DistanceType.String(),
		DistanceUnit: sol.DistanceUnit,
		Score:        res.Score.String(),
		Hard:         res.Score.Hard,
		Soft:         res.Score.Soft,
		Feasible:     res.Score.IsFeasible(),
		Constraints:  ConstraintViews(res),
		Routes:       make([]model.RouteView, 0, len(sol.Vehicles())),
		Unassigned:   []int64{},
		TakenAt:      time.Now().UTC(),
	}
	for _, v := range sol.Vehicles() {
		rv := model.RouteView{
			VehicleID: v.ID,
			Capacity:  v.Capacity,
			Demand:    v.TotalDemand(),
			Depot:     point(v.Location()),
			Stops:     make([]model.StopView, 0, v.Len()),
		}
		for _, c := range v.Customers() {
			leg, err := c.DistanceFromPrevious()
			if err != nil {
				return model.Snapshot{}, fmt.Errorf("snapshot: %w", err)
			}
			pos, _ := c.Position()
			sv := model.StopView{
				CustomerID:  c.ID,
				Name:        c.Location.Name(),
				Position:    pos,
				Location:    point(c.Location),
				Demand:      c.Demand,
				LegDistance: leg,
			}
			if a, ok := c.ArrivalTime(); ok {
				d, _ := c.DepartureTime()
				sv.Arrival, sv.Departure = &a, &d
				late, err := c.Lateness()
				if err != nil {
					return model.Snapshot{}, fmt.Errorf("snapshot: %w", err)
				}
				sv.Lateness = late
			}
			rv.Distance += leg
			if c.Next() == nil {
				back, err := c.DistanceToDepot()
				if err != nil {
					return model.Snapshot{}, fmt.Errorf("snapshot: %w", err)
				}
				rv.Distance += back
			}
			rv.Stops = append(rv.Stops, sv)
		}
		snap.Routes = append(snap.Routes, rv)
	}
	for _, c := range sol.Unassigned() {
		snap.Unassigned = append(snap.Unassigned, c.ID)
	}
	return snap, nil
}
