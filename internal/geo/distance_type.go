package geo

import (
	"errors"
	"fmt"
	"strings"
)

// ErrLocationType is returned when a location does not match the selected
// distance type.
var ErrLocationType = errors.New("location type does not match distance type")

// DistanceType selects which Location variant a problem uses.
type DistanceType int

const (
	// AirDistance requires every location to be an *AirLocation.
	AirDistance DistanceType = iota
	// RoadDistance requires every location to be a *RoadLocation.
	RoadDistance
	// SegmentedRoadDistance requires *RoadSegmentLocation or *HubSegmentLocation.
	SegmentedRoadDistance
)

func (t DistanceType) String() string {
	switch t {
	case AirDistance:
		return "air"
	case RoadDistance:
		return "road"
	case SegmentedRoadDistance:
		return "segmented"
	default:
		return fmt.Sprintf("DistanceType(%d)", int(t))
	}
}

// ParseDistanceType accepts the names produced by String.
func ParseDistanceType(s string) (DistanceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "air":
		return AirDistance, nil
	case "road":
		return RoadDistance, nil
	case "segmented":
		return SegmentedRoadDistance, nil
	}
	return 0, fmt.Errorf("parse distance type %q: unknown", s)
}

// Check verifies that every location is of the variant t requires.
func (t DistanceType) Check(locations []Location) error {
	for _, l := range locations {
		ok := false
		switch l.(type) {
		case *AirLocation:
			ok = t == AirDistance
		case *RoadLocation:
			ok = t == RoadDistance
		case *RoadSegmentLocation, *HubSegmentLocation:
			ok = t == SegmentedRoadDistance
		}
		if !ok {
			return fmt.Errorf("check %s locations: location %d is %T: %w", t, l.ID(), l, ErrLocationType)
		}
	}
	return nil
}
