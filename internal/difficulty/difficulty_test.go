package difficulty

import (
	"errors"
	"testing"

	"routeshadow/internal/geo"
	"routeshadow/internal/route"
)

func customer(id int64, lat, lon float64, demand int) *route.Customer {
	return &route.Customer{ID: id, Location: geo.NewAirLocation(id, lat, lon), Demand: demand}
}

func ids(cs []*route.Customer) []int64 {
	out := make([]int64, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func equal(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSortStrategies(t *testing.T) {
	depot := &route.Depot{Location: geo.NewAirLocation(0, 0, 0)}
	east := customer(1, 0, 1, 3)
	north := customer(2, 1, 0, 1)
	west := customer(3, 0, -2, 1)
	farEast := customer(4, 0, 3, 1)
	twin := customer(5, 1, 0, 1) // same place and demand as north

	tests := []struct {
		strategy Strategy
		want     []int64
	}{
		// angle towards the depot: north -pi/2, west 0, east pi
		{PizzaSlice, []int64{2, 5, 3, 1, 4}},
		{Matryoshka, []int64{2, 5, 1, 3, 4}},
		{ZebraCrossing, []int64{3, 1, 4, 2, 5}},
	}
	for _, tc := range tests {
		t.Run(tc.strategy.String(), func(t *testing.T) {
			cs := []*route.Customer{twin, farEast, west, north, east}
			if err := Sort(cs, depot, tc.strategy); err != nil {
				t.Fatalf("sort: %v", err)
			}
			if got := ids(cs); !equal(got, tc.want) {
				t.Fatalf("order = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestZebraCrossingTieBreaks(t *testing.T) {
	a := customer(7, 2, 2, 5)
	b := customer(3, 2, 2, 5)
	c := customer(9, 2, 2, 1)
	cs := []*route.Customer{a, b, c}
	if err := Sort(cs, nil, ZebraCrossing); err != nil {
		t.Fatal(err)
	}
	if got := ids(cs); !equal(got, []int64{9, 3, 7}) {
		t.Fatalf("order = %v", got)
	}
}

func TestSortSurfacesDistanceErrors(t *testing.T) {
	depot := &route.Depot{Location: geo.NewRoadLocation(0, 0, 0)}
	c := &route.Customer{ID: 1, Location: geo.NewRoadLocation(1, 1, 1)}
	err := Sort([]*route.Customer{c}, depot, Matryoshka)
	if !errors.Is(err, geo.ErrMissingDistanceData) {
		t.Fatalf("expected missing distance, got %v", err)
	}
}

func TestParseStrategy(t *testing.T) {
	for _, s := range []Strategy{PizzaSlice, Matryoshka, ZebraCrossing} {
		got, err := ParseStrategy(s.String())
		if err != nil || got != s {
			t.Fatalf("parse %s: %v, %v", s, got, err)
		}
	}
	if _, err := ParseStrategy("random"); err == nil {
		t.Fatal("expected error")
	}
}
