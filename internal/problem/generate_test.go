package problem

import (
	"testing"

	"routeshadow/internal/geo"
)

func TestGenerateDefaults(t *testing.T) {
	sol, err := Generate(Params{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(sol.Vehicles()) != 3 || len(sol.Customers()) != 10 || len(sol.Depots()) != 1 {
		t.Fatalf("sizes: %d vehicles, %d customers, %d depots", len(sol.Vehicles()), len(sol.Customers()), len(sol.Depots()))
	}
	if sol.DistanceUnit != "km" || sol.DistanceType != geo.AirDistance {
		t.Fatalf("labels: %q %v", sol.DistanceUnit, sol.DistanceType)
	}
	for _, c := range sol.Customers() {
		if c.Routed() {
			t.Fatalf("customer %d routed in a fresh instance", c.ID)
		}
		if c.Demand < 0 || c.Demand > 1 {
			t.Fatalf("customer %d demand %d", c.ID, c.Demand)
		}
		if lat := c.Location.Latitude(); lat < 0 || lat >= 10 {
			t.Fatalf("customer %d latitude %v", c.ID, lat)
		}
	}
	if sol.TimeWindowed() {
		t.Fatal("defaults should not be time windowed")
	}
}

func TestGenerateReproducible(t *testing.T) {
	a, _ := Generate(Params{Seed: 7, Customers: 20})
	b, _ := Generate(Params{Seed: 7, Customers: 20})
	for i := range a.Customers() {
		ca, cb := a.Customers()[i], b.Customers()[i]
		if ca.Demand != cb.Demand || ca.Location.Latitude() != cb.Location.Latitude() || ca.Location.Longitude() != cb.Location.Longitude() {
			t.Fatalf("customer %d differs between runs", i)
		}
	}
}

func TestGenerateDistanceVariants(t *testing.T) {
	for _, name := range []string{"air", "road", "segmented"} {
		t.Run(name, func(t *testing.T) {
			sol, err := Generate(Params{Seed: 3, DistanceName: name, TimeWindows: true})
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			if sol.DistanceType.String() != name || !sol.TimeWindowed() {
				t.Fatalf("type %v, windowed %v", sol.DistanceType, sol.TimeWindowed())
			}
			depot := sol.Depots()[0].Location
			for _, c := range sol.Customers() {
				if _, err := depot.DistanceTo(c.Location); err != nil {
					t.Fatalf("depot -> %d: %v", c.ID, err)
				}
				if _, err := c.Location.DistanceTo(depot); err != nil {
					t.Fatalf("%d -> depot: %v", c.ID, err)
				}
				if w := c.Window; w == nil || w.DueTime <= w.ReadyTime {
					t.Fatalf("customer %d window %+v", c.ID, w)
				}
			}
		})
	}
}

func TestGenerateRejectsUnknownDistance(t *testing.T) {
	if _, err := Generate(Params{DistanceName: "warp"}); err == nil {
		t.Fatal("expected error")
	}
}
