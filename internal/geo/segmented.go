package geo

import (
	"fmt"
	"math"
)

// segment backs the segmented road variants. Only nearby locations are kept
// in the table; anything further away is reached through a hub.
type segment struct {
	point
	nearby map[int64]float64
	hubs   map[*HubSegmentLocation]float64
}

func newSegment(id int64, lat, lon float64) segment {
	return segment{
		point:  point{id: id, lat: lat, lon: lon},
		nearby: map[int64]float64{},
		hubs:   map[*HubSegmentLocation]float64{},
	}
}

// SetNearbyDistance records the raw distance to a nearby location.
func (s *segment) SetNearbyDistance(target Location, distance float64) {
	s.nearby[target.ID()] = distance
}

// SetHubDistance records the raw distance to a hub used for relaying.
func (s *segment) SetHubDistance(hub *HubSegmentLocation, distance float64) {
	s.hubs[hub] = distance
}

func (s *segment) direct(target Location) (float64, bool) {
	if target.ID() == s.id {
		return 0, true
	}
	d, ok := s.nearby[target.ID()]
	return d, ok
}

// DistanceTo returns the nearby table entry when present. Otherwise it relays
// through exactly one hub and returns the shortest such path. The relayed
// value is an approximation: a shorter path through several hubs or through
// non-hub locations is never considered.
func (s *segment) DistanceTo(other Location) (int64, error) {
	if d, ok := s.direct(other); ok {
		return scale(d), nil
	}
	best := math.Inf(1)
	for hub, toHub := range s.hubs {
		fromHub, ok := hub.direct(other)
		if !ok {
			continue
		}
		if d := toHub + fromHub; d < best {
			best = d
		}
	}
	if math.IsInf(best, 1) {
		return 0, fmt.Errorf("segmented distance %d -> %d: %w", s.id, other.ID(), ErrMissingDistanceData)
	}
	return scale(best), nil
}

// RoadSegmentLocation is a road location for instances too large for an
// all-pairs distance matrix.
type RoadSegmentLocation struct {
	segment
}

func NewRoadSegmentLocation(id int64, lat, lon float64) *RoadSegmentLocation {
	return &RoadSegmentLocation{segment: newSegment(id, lat, lon)}
}

// HubSegmentLocation is a shared relay point for segmented lookups.
type HubSegmentLocation struct {
	segment
}

func NewHubSegmentLocation(id int64, lat, lon float64) *HubSegmentLocation {
	return &HubSegmentLocation{segment: newSegment(id, lat, lon)}
}
