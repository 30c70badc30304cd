package score

import (
	"routeshadow/internal/route"
)

// Level selects which half of the score a constraint penalizes.
type Level int

const (
	Hard Level = iota
	Soft
)

func (l Level) String() string {
	if l == Hard {
		return "hard"
	}
	return "soft"
}

// weigh turns a positive penalty into a score contribution.
func (l Level) weigh(penalty int64) HardSoft {
	if l == Hard {
		return HardSoft{Hard: -penalty}
	}
	return HardSoft{Soft: -penalty}
}

// Constraint is one pure scoring rule. Exactly one of PerVehicle and
// PerCustomer is set. PerCustomer only sees routed customers. A rule returns
// its positive penalty and whether the entity matched at all.
type Constraint struct {
	Name        string
	Level       Level
	PerVehicle  func(v *route.Vehicle) (int64, bool, error)
	PerCustomer func(c *route.Customer) (int64, bool, error)
}

// VehicleCapacity penalizes demand above capacity, per non-empty route.
var VehicleCapacity = Constraint{
	Name:  "vehicleCapacity",
	Level: Hard,
	PerVehicle: func(v *route.Vehicle) (int64, bool, error) {
		if v.Len() == 0 {
			return 0, false, nil
		}
		over := int64(v.TotalDemand() - v.Capacity)
		if over <= 0 {
			return 0, false, nil
		}
		return over, true, nil
	},
}

// DistanceToPreviousStandstill charges every leg, the first one from the depot.
var DistanceToPreviousStandstill = Constraint{
	Name:  "distanceToPreviousStandstill",
	Level: Soft,
	PerCustomer: func(c *route.Customer) (int64, bool, error) {
		d, err := c.DistanceFromPrevious()
		if err != nil {
			return 0, false, err
		}
		return d, true, nil
	},
}

// DistanceFromLastCustomerToDepot charges the trip home from each route's tail.
var DistanceFromLastCustomerToDepot = Constraint{
	Name:  "distanceFromLastCustomerToDepot",
	Level: Soft,
	PerCustomer: func(c *route.Customer) (int64, bool, error) {
		if c.Next() != nil {
			return 0, false, nil
		}
		d, err := c.DistanceToDepot()
		if err != nil {
			return 0, false, err
		}
		return d, true, nil
	},
}

// ArrivalAfterDueTime penalizes lateness at time-windowed customers.
var ArrivalAfterDueTime = Constraint{
	Name:  "arrivalAfterDueTime",
	Level: Hard,
	PerCustomer: func(c *route.Customer) (int64, bool, error) {
		if c.Window == nil {
			return 0, false, nil
		}
		late, err := c.Lateness()
		if err != nil {
			return 0, false, err
		}
		return late, late > 0, nil
	},
}

// Defaults returns the rules for sol in their fixed order.
func Defaults(sol *route.Solution) []Constraint {
	cs := []Constraint{VehicleCapacity, DistanceToPreviousStandstill, DistanceFromLastCustomerToDepot}
	if sol.TimeWindowed() {
		cs = append(cs, ArrivalAfterDueTime)
	}
	return cs
}
