// Package difficulty orders unrouted customers for construction heuristics.
// Every strategy is a total order: ties always fall through to the customer id.
package difficulty

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"routeshadow/internal/route"
)

// Strategy selects one of the customer orderings.
type Strategy int

const (
	// PizzaSlice sweeps around the depot: angle, then round-trip distance.
	PizzaSlice Strategy = iota
	// Matryoshka goes from the depot outwards: round-trip distance, demand, coordinates.
	Matryoshka
	// ZebraCrossing sweeps by latitude, then longitude and demand.
	ZebraCrossing
)

var names = map[Strategy]string{
	PizzaSlice:    "pizza-slice",
	Matryoshka:    "matryoshka",
	ZebraCrossing: "zebra-crossing",
}

func (s Strategy) String() string {
	if n, ok := names[s]; ok {
		return n
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy accepts the String form, case-insensitively.
func ParseStrategy(v string) (Strategy, error) {
	for s, n := range names {
		if strings.EqualFold(v, n) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown difficulty strategy %q", v)
}

// Weight is the precomputed sort key of one customer.
type Weight struct {
	Customer *route.Customer
	// Angle is the direction from the customer towards the depot.
	Angle     float64
	RoundTrip int64
}

// NewWeight measures c against depot. Distance errors are returned as is.
func NewWeight(c *route.Customer, depot *route.Depot) (Weight, error) {
	out, err := c.Location.DistanceTo(depot.Location)
	if err != nil {
		return Weight{}, fmt.Errorf("difficulty weight customer %d: %w", c.ID, err)
	}
	back, err := depot.Location.DistanceTo(c.Location)
	if err != nil {
		return Weight{}, fmt.Errorf("difficulty weight customer %d: %w", c.ID, err)
	}
	return Weight{Customer: c, Angle: c.Location.AngleTo(depot.Location), RoundTrip: out + back}, nil
}

// ComparePizzaSlice orders by depot angle, round trip, id.
func ComparePizzaSlice(a, b Weight) int {
	if c := cmp.Compare(a.Angle, b.Angle); c != 0 {
		return c
	}
	if c := cmp.Compare(a.RoundTrip, b.RoundTrip); c != 0 {
		return c
	}
	return cmp.Compare(a.Customer.ID, b.Customer.ID)
}

// CompareMatryoshka orders by round trip, demand, latitude, longitude, id.
func CompareMatryoshka(a, b Weight) int {
	if c := cmp.Compare(a.RoundTrip, b.RoundTrip); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Customer.Demand, b.Customer.Demand); c != 0 {
		return c
	}
	return compareCoordinates(a.Customer, b.Customer, false)
}

// CompareZebraCrossing orders by latitude, longitude, demand, id.
func CompareZebraCrossing(a, b *route.Customer) int {
	return compareCoordinates(a, b, true)
}

func compareCoordinates(a, b *route.Customer, demand bool) int {
	if c := cmp.Compare(a.Location.Latitude(), b.Location.Latitude()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Location.Longitude(), b.Location.Longitude()); c != 0 {
		return c
	}
	if demand {
		if c := cmp.Compare(a.Demand, b.Demand); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.ID, b.ID)
}

// Sort orders customers in place, easiest first. Weights are computed once per
// customer against depot, which is normally the solution's first depot.
func Sort(customers []*route.Customer, depot *route.Depot, s Strategy) error {
	if s == ZebraCrossing {
		slices.SortFunc(customers, CompareZebraCrossing)
		return nil
	}
	var less func(a, b Weight) int
	switch s {
	case PizzaSlice:
		less = ComparePizzaSlice
	case Matryoshka:
		less = CompareMatryoshka
	default:
		return fmt.Errorf("sort: unknown strategy %d", int(s))
	}
	if depot == nil {
		return fmt.Errorf("sort %s: no depot", s)
	}
	weights := make([]Weight, len(customers))
	for i, c := range customers {
		w, err := NewWeight(c, depot)
		if err != nil {
			return fmt.Errorf("sort %s: %w", s, err)
		}
		weights[i] = w
	}
	slices.SortFunc(weights, less)
	for i, w := range weights {
		customers[i] = w.Customer
	}
	return nil
}
