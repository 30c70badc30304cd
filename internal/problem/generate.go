// Package problem builds reproducible random routing instances.
package problem

import (
	"fmt"
	"math"
	"math/rand"

	"routeshadow/internal/geo"
	"routeshadow/internal/route"
)

// Params describes a random instance. Zero values fall back to Defaults.
type Params struct {
	Seed         int64            `yaml:"seed"`
	Locations    int              `yaml:"locations"`
	Customers    int              `yaml:"customers"`
	Vehicles     int              `yaml:"vehicles"`
	Capacity     int              `yaml:"capacity"`
	MaxDemand    int              `yaml:"max_demand"`
	Extent       float64          `yaml:"extent"`
	DistanceType geo.DistanceType `yaml:"-"`
	DistanceName string           `yaml:"distance_type"`
	DistanceUnit string           `yaml:"distance_unit"`
	// TimeWindows gives every customer a window within Horizon.
	TimeWindows bool  `yaml:"time_windows"`
	Horizon     int64 `yaml:"horizon"`
	Service     int64 `yaml:"service"`
	// Hubs and NearbyRadius only apply to segmented distances.
	Hubs         int     `yaml:"hubs"`
	NearbyRadius float64 `yaml:"nearby_radius"`
}

// Defaults is ten locations in a 10x10 square served by three vehicles of
// capacity four from a depot at the origin.
func Defaults() Params {
	return Params{
		Seed:         32,
		Locations:    10,
		Customers:    10,
		Vehicles:     3,
		Capacity:     4,
		MaxDemand:    2,
		Extent:       10,
		DistanceUnit: "km",
		Horizon:      40000,
		Service:      500,
		Hubs:         3,
		NearbyRadius: 3,
	}
}

func (p Params) withDefaults() Params {
	d := Defaults()
	if p.Locations <= 0 {
		p.Locations = d.Locations
	}
	if p.Customers <= 0 {
		p.Customers = d.Customers
	}
	if p.Vehicles <= 0 {
		p.Vehicles = d.Vehicles
	}
	if p.Capacity <= 0 {
		p.Capacity = d.Capacity
	}
	if p.MaxDemand <= 0 {
		p.MaxDemand = d.MaxDemand
	}
	if p.Extent <= 0 {
		p.Extent = d.Extent
	}
	if p.DistanceUnit == "" {
		p.DistanceUnit = d.DistanceUnit
	}
	if p.Horizon <= 0 {
		p.Horizon = d.Horizon
	}
	if p.Hubs <= 0 {
		p.Hubs = d.Hubs
	}
	if p.NearbyRadius <= 0 {
		p.NearbyRadius = d.NearbyRadius
	}
	return p
}

// Generate builds an unrouted solution. The same Params always yield the same
// instance.
func Generate(p Params) (*route.Solution, error) {
	p = p.withDefaults()
	if p.DistanceName != "" {
		dt, err := geo.ParseDistanceType(p.DistanceName)
		if err != nil {
			return nil, fmt.Errorf("generate: %w", err)
		}
		p.DistanceType = dt
	}
	r := rand.New(rand.NewSource(p.Seed))

	coords := make([][2]float64, p.Locations+1)
	coords[0] = [2]float64{0, 0}
	for i := 1; i <= p.Locations; i++ {
		coords[i] = [2]float64{r.Float64() * p.Extent, r.Float64() * p.Extent}
	}
	locs, err := build(p, coords, r)
	if err != nil {
		return nil, err
	}
	depot := &route.Depot{ID: 0, Location: locs[0]}
	if n, ok := depot.Location.(namer); ok {
		n.SetName("depot")
	}

	vehicles := make([]*route.Vehicle, p.Vehicles)
	for i := range vehicles {
		vehicles[i] = route.NewVehicle(int64(i), p.Capacity, depot)
	}
	customers := make([]*route.Customer, p.Customers)
	for i := range customers {
		c := &route.Customer{
			ID:       int64(i),
			Location: locs[1+r.Intn(p.Locations)],
			Demand:   r.Intn(p.MaxDemand),
		}
		if p.TimeWindows {
			ready := r.Int63n(p.Horizon / 2)
			width := p.Horizon/8 + r.Int63n(p.Horizon/4)
			c.Window = &route.TimeWindow{ReadyTime: ready, DueTime: ready + width, ServiceDuration: p.Service}
		}
		customers[i] = c
	}
	sol, err := route.NewSolution([]*route.Depot{depot}, vehicles, customers)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	sol.Name = fmt.Sprintf("random-%d", p.Seed)
	sol.DistanceType = p.DistanceType
	sol.DistanceUnit = p.DistanceUnit
	return sol, nil
}

type namer interface{ SetName(string) }

func euclid(a, b [2]float64) float64 {
	return math.Hypot(a[0]-b[0], a[1]-b[1])
}

// build creates one location per coordinate. Index 0 is the depot.
func build(p Params, coords [][2]float64, r *rand.Rand) ([]geo.Location, error) {
	locs := make([]geo.Location, len(coords))
	switch p.DistanceType {
	case geo.AirDistance:
		for i, c := range coords {
			locs[i] = geo.NewAirLocation(int64(i), c[0], c[1])
		}
	case geo.RoadDistance:
		roads := make([]*geo.RoadLocation, len(coords))
		for i, c := range coords {
			roads[i] = geo.NewRoadLocation(int64(i), c[0], c[1])
			locs[i] = roads[i]
		}
		// roads detour by up to 30%, independently per direction
		for i, a := range roads {
			for j, b := range roads {
				if i != j {
					a.SetTravelDistance(b, euclid(coords[i], coords[j])*(1+0.3*r.Float64()))
				}
			}
		}
	case geo.SegmentedRoadDistance:
		segs := make([]*geo.RoadSegmentLocation, len(coords))
		for i, c := range coords {
			segs[i] = geo.NewRoadSegmentLocation(int64(i), c[0], c[1])
			locs[i] = segs[i]
		}
		hubs := make([]*geo.HubSegmentLocation, p.Hubs)
		hubCoords := make([][2]float64, p.Hubs)
		for h := range hubs {
			hubCoords[h] = [2]float64{r.Float64() * p.Extent, r.Float64() * p.Extent}
			hubs[h] = geo.NewHubSegmentLocation(int64(len(coords)+h), hubCoords[h][0], hubCoords[h][1])
		}
		// every location reaches every hub, so relay paths always exist
		for i, s := range segs {
			for h, hub := range hubs {
				d := euclid(coords[i], hubCoords[h])
				s.SetHubDistance(hub, d)
				hub.SetNearbyDistance(s, d)
			}
			for j, o := range segs {
				if i != j && euclid(coords[i], coords[j]) <= p.NearbyRadius {
					s.SetNearbyDistance(o, euclid(coords[i], coords[j]))
				}
			}
		}
	default:
		return nil, fmt.Errorf("generate: distance type %s: %w", p.DistanceType, geo.ErrLocationType)
	}
	if err := p.DistanceType.Check(locs); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	return locs, nil
}
