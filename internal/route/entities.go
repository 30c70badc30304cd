package route

import (
	"fmt"

	"routeshadow/internal/geo"
)

// Depot is where vehicles start and end. Immutable after load.
type Depot struct {
	ID       int64
	Location geo.Location
	// ReadyTime is when vehicles may leave the depot; only time-windowed
	// problems read it.
	ReadyTime int64
}

func (d *Depot) String() string {
	if d.Location != nil && d.Location.Name() != "" {
		return d.Location.Name()
	}
	return fmt.Sprintf("depot-%d", d.ID)
}

// TimeWindow turns a customer into a time-windowed stop.
type TimeWindow struct {
	ReadyTime       int64
	DueTime         int64
	ServiceDuration int64
}

// Vehicle owns an ordered route of customers. Capacity is only enforced
// through scoring.
type Vehicle struct {
	ID       int64
	Capacity int
	Depot    *Depot

	sol       *Solution
	customers []*Customer
	demand    int
}

// NewVehicle returns a vehicle whose route is pre-populated with route.
// Shadow fields of those customers are established by NewSolution.
func NewVehicle(id int64, capacity int, depot *Depot, route ...*Customer) *Vehicle {
	return &Vehicle{ID: id, Capacity: capacity, Depot: depot, customers: append([]*Customer(nil), route...)}
}

// Location is the depot location.
func (v *Vehicle) Location() geo.Location { return v.Depot.Location }

// Len is the number of customers on the route.
func (v *Vehicle) Len() int { return len(v.customers) }

// At returns the customer at index i.
func (v *Vehicle) At(i int) *Customer { return v.customers[i] }

// Customers returns a copy of the route.
func (v *Vehicle) Customers() []*Customer { return append([]*Customer(nil), v.customers...) }

// TotalDemand is the summed demand of the route, maintained on every mutation.
func (v *Vehicle) TotalDemand() int { return v.demand }

func (v *Vehicle) String() string {
	return fmt.Sprintf("%s/vehicle-%d", v.Depot, v.ID)
}

func (v *Vehicle) insert(c *Customer, i int) {
	v.customers = append(v.customers, nil)
	copy(v.customers[i+1:], v.customers[i:])
	v.customers[i] = c
	v.demand += c.Demand
}

func (v *Vehicle) removeAt(i int) *Customer {
	c := v.customers[i]
	copy(v.customers[i:], v.customers[i+1:])
	v.customers[len(v.customers)-1] = nil
	v.customers = v.customers[:len(v.customers)-1]
	v.demand -= c.Demand
	return c
}

// Customer is a routable stop. The unexported fields are shadow state owned
// by the Propagator; callers only read them.
type Customer struct {
	ID       int64
	Location geo.Location
	Demand   int
	// Window is nil for customers without a time window.
	Window *TimeWindow

	sol        *Solution
	propagated bool
	vehicle    *Vehicle
	previous   *Customer
	next       *Customer
	position   int
	arrival    int64
	hasArrival bool
}

// Vehicle is the vehicle whose route contains c, or nil.
func (c *Customer) Vehicle() *Vehicle { return c.vehicle }

// Previous is the stop before c, nil when c is first or unrouted.
func (c *Customer) Previous() *Customer { return c.previous }

// Next is the stop after c, nil when c is last or unrouted.
func (c *Customer) Next() *Customer { return c.next }

// Position is the 0-based index of c in its route.
func (c *Customer) Position() (int, bool) {
	if c.vehicle == nil {
		return 0, false
	}
	return c.position, true
}

// Routed reports whether c is on some route.
func (c *Customer) Routed() bool { return c.vehicle != nil }

// Propagated reports whether shadow fields have been established at least once.
func (c *Customer) Propagated() bool { return c.propagated }

// ArrivalTime is set for routed time-windowed customers.
func (c *Customer) ArrivalTime() (int64, bool) { return c.arrival, c.hasArrival }

// DepartureTime is the arrival, delayed to the ready time, plus service.
func (c *Customer) DepartureTime() (int64, bool) {
	if !c.hasArrival {
		return 0, false
	}
	return departure(c, c.arrival), true
}

func departure(c *Customer, arrival int64) int64 {
	if c.Window == nil {
		return arrival
	}
	start := arrival
	if c.Window.ReadyTime > start {
		start = c.Window.ReadyTime
	}
	return start + c.Window.ServiceDuration
}

func (c *Customer) requireRouted(op string) error {
	if !c.propagated {
		return fmt.Errorf("%s customer %d: %w", op, c.ID, ErrPreconditionViolated)
	}
	if c.vehicle == nil {
		return fmt.Errorf("%s customer %d: not routed: %w", op, c.ID, ErrInvalidState)
	}
	return nil
}

// DistanceFromPrevious is the leg distance from the previous stop, or from
// the depot for the first stop.
func (c *Customer) DistanceFromPrevious() (int64, error) {
	if err := c.requireRouted("distance from previous"); err != nil {
		return 0, err
	}
	from := c.vehicle.Location()
	if c.previous != nil {
		from = c.previous.Location
	}
	return from.DistanceTo(c.Location)
}

// DistanceToDepot is the distance from c back to its vehicle's depot.
func (c *Customer) DistanceToDepot() (int64, error) {
	if err := c.requireRouted("distance to depot"); err != nil {
		return 0, err
	}
	return c.Location.DistanceTo(c.vehicle.Location())
}

// Lateness is how far past its due time c is reached; 0 when on time or
// when c has no time window.
func (c *Customer) Lateness() (int64, error) {
	if err := c.requireRouted("lateness"); err != nil {
		return 0, err
	}
	if c.Window == nil {
		return 0, nil
	}
	if !c.hasArrival {
		return 0, fmt.Errorf("lateness customer %d: arrival time unset: %w", c.ID, ErrPreconditionViolated)
	}
	if late := c.arrival - c.Window.DueTime; late > 0 {
		return late, nil
	}
	return 0, nil
}

func (c *Customer) String() string {
	if c.Location != nil && c.Location.Name() != "" {
		return c.Location.Name()
	}
	return fmt.Sprintf("customer-%d", c.ID)
}
