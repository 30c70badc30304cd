// Package geo computes distances and angles between located points.
//
// Every distance is returned as a non-negative integer: the true distance
// multiplied by 1000 and rounded, so that summing many legs never drifts the
// way floating point accumulation does. Distances are not assumed symmetric;
// callers ask for the direction they need.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// ErrMissingDistanceData is returned when a table lookup finds neither a
// direct entry nor any relay path to the target.
var ErrMissingDistanceData = errors.New("missing distance data")

// Location is the capability shared by every location variant.
type Location interface {
	ID() int64
	Name() string
	Latitude() float64
	Longitude() float64
	// DistanceTo returns the scaled distance from this location to other.
	DistanceTo(other Location) (int64, error)
	// AngleTo returns the angle of other relative to east, in radians.
	AngleTo(other Location) float64
}

// point holds the identity and coordinates common to all variants.
type point struct {
	id   int64
	name string
	lat  float64
	lon  float64
}

func (p *point) ID() int64          { return p.id }
func (p *point) Name() string       { return p.name }
func (p *point) Latitude() float64  { return p.lat }
func (p *point) Longitude() float64 { return p.lon }

// SetName attaches a human readable label.
func (p *point) SetName(name string) { p.name = name }

func (p *point) AngleTo(other Location) float64 {
	return math.Atan2(other.Latitude()-p.lat, other.Longitude()-p.lon)
}

// airDistance is the planar Euclidean distance; not correct on a sphere.
func (p *point) airDistance(other Location) float64 {
	dLat := other.Latitude() - p.lat
	dLon := other.Longitude() - p.lon
	return math.Sqrt(dLat*dLat + dLon*dLon)
}

func (p *point) String() string {
	if p.name != "" {
		return p.name
	}
	return fmt.Sprintf("location-%d", p.id)
}

// scale converts a raw distance into the integer unit used for scoring.
func scale(d float64) int64 {
	return int64(math.Round(d * 1000))
}

// AirLocation measures straight-line distance.
type AirLocation struct {
	point
}

// NewAirLocation returns a location using direct Euclidean distance.
func NewAirLocation(id int64, lat, lon float64) *AirLocation {
	return &AirLocation{point: point{id: id, lat: lat, lon: lon}}
}

func (a *AirLocation) DistanceTo(other Location) (int64, error) {
	return scale(a.airDistance(other)), nil
}

// RoadLocation looks distances up in a precomputed road distance table.
type RoadLocation struct {
	point
	travel map[int64]float64
}

// NewRoadLocation returns a location with an empty distance table.
func NewRoadLocation(id int64, lat, lon float64) *RoadLocation {
	return &RoadLocation{point: point{id: id, lat: lat, lon: lon}, travel: map[int64]float64{}}
}

// SetTravelDistance records the raw road distance from r to target.
func (r *RoadLocation) SetTravelDistance(target Location, distance float64) {
	r.travel[target.ID()] = distance
}

func (r *RoadLocation) DistanceTo(other Location) (int64, error) {
	if other.ID() == r.id {
		return 0, nil
	}
	d, ok := r.travel[other.ID()]
	if !ok {
		return 0, fmt.Errorf("road distance %d -> %d: %w", r.id, other.ID(), ErrMissingDistanceData)
	}
	return scale(d), nil
}

// NearbyDistance is the distance meter used when ranking candidate
// neighbours: the scaled distance as a float.
func NearbyDistance(origin, destination Location) (float64, error) {
	d, err := origin.DistanceTo(destination)
	if err != nil {
		return 0, fmt.Errorf("nearby distance: %w", err)
	}
	return float64(d), nil
}
