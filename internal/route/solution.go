// Package route is the mutable routing model: depots, vehicles and customers,
// the mutation primitives that reorder customers across routes, and the
// propagator that keeps every customer's shadow fields in step with the
// routes.
//
// # Concurrency
//
// A Solution has a single writer. It holds no locks and performs no I/O.
// Parallel evaluation works on independent copies made with Clone.
package route

import (
	"errors"
	"fmt"

	"routeshadow/internal/geo"
)

// Solution is one planning state: the problem entities plus the routes.
type Solution struct {
	Name         string
	DistanceType geo.DistanceType
	DistanceUnit string

	depots       []*Depot
	vehicles     []*Vehicle
	customers    []*Customer
	timeWindowed bool

	propagator *Propagator
	listeners  []Listener
}

// NewSolution validates the entities, takes ownership of them and runs the
// initial propagation for every pre-populated route.
func NewSolution(depots []*Depot, vehicles []*Vehicle, customers []*Customer) (*Solution, error) {
	s := &Solution{
		depots:    append([]*Depot(nil), depots...),
		vehicles:  append([]*Vehicle(nil), vehicles...),
		customers: append([]*Customer(nil), customers...),
	}
	// Validate everything before claiming anything, so a rejected input can be
	// corrected and passed again.
	known := make(map[*Customer]bool, len(s.customers))
	for _, c := range s.customers {
		if c.Location == nil {
			return nil, fmt.Errorf("new solution: customer %d has no location: %w", c.ID, ErrInvalidState)
		}
		if c.sol != nil || known[c] {
			return nil, fmt.Errorf("new solution: customer %d already owned: %w", c.ID, ErrInvalidState)
		}
		known[c] = true
	}
	routedOn := make(map[*Customer]*Vehicle, len(s.customers))
	seenVehicle := make(map[*Vehicle]bool, len(s.vehicles))
	for _, v := range s.vehicles {
		if v.Depot == nil || v.Depot.Location == nil {
			return nil, fmt.Errorf("new solution: vehicle %d has no depot location: %w", v.ID, ErrInvalidState)
		}
		if v.sol != nil || seenVehicle[v] {
			return nil, fmt.Errorf("new solution: vehicle %d already owned: %w", v.ID, ErrInvalidState)
		}
		seenVehicle[v] = true
		for _, c := range v.customers {
			if !known[c] {
				return nil, fmt.Errorf("new solution: vehicle %d routes unknown customer %d: %w", v.ID, c.ID, ErrInvalidState)
			}
			if w, ok := routedOn[c]; ok {
				return nil, fmt.Errorf("new solution: customer %d on vehicles %d and %d: %w", c.ID, w.ID, v.ID, ErrInvalidState)
			}
			routedOn[c] = v
		}
	}

	for _, c := range s.customers {
		c.sol = s
		c.vehicle = nil
		if c.Window != nil {
			s.timeWindowed = true
		}
	}
	for _, v := range s.vehicles {
		v.sol = s
		v.demand = 0
		for _, c := range v.customers {
			c.vehicle = v
			v.demand += c.Demand
		}
	}
	s.propagator = &Propagator{timeWindowed: s.timeWindowed}
	s.listeners = []Listener{s.propagator}
	if err := s.Repropagate(); err != nil {
		s.release()
		return nil, fmt.Errorf("new solution: %w", err)
	}
	return s, nil
}

// release hands the entities back after a failed NewSolution.
func (s *Solution) release() {
	for _, c := range s.customers {
		c.sol, c.vehicle = nil, nil
		c.previous, c.next = nil, nil
		c.position, c.propagated = 0, false
		c.arrival, c.hasArrival = 0, false
	}
	for _, v := range s.vehicles {
		v.sol = nil
		v.demand = 0
	}
}

func (s *Solution) Depots() []*Depot       { return s.depots }
func (s *Solution) Vehicles() []*Vehicle   { return s.vehicles }
func (s *Solution) Customers() []*Customer { return s.customers }

// TimeWindowed reports whether any customer carries a time window.
func (s *Solution) TimeWindowed() bool { return s.timeWindowed }

// Propagator returns the shadow-state propagator bound to s.
func (s *Solution) Propagator() *Propagator { return s.propagator }

// AddListener registers l to run after the propagator on every mutation.
func (s *Solution) AddListener(l Listener) {
	s.listeners = append(s.listeners, l)
}

// RemoveListener unregisters l. The propagator cannot be removed.
func (s *Solution) RemoveListener(l Listener) {
	for i, x := range s.listeners {
		if i > 0 && x == l {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// Unassigned returns the customers that are on no route.
func (s *Solution) Unassigned() []*Customer {
	var out []*Customer
	for _, c := range s.customers {
		if c.vehicle == nil {
			out = append(out, c)
		}
	}
	return out
}

// Repropagate runs a full propagation pass. With no intervening mutation it
// changes nothing.
func (s *Solution) Repropagate() error {
	ch := Change{Kind: KindInit, Segments: make([]Segment, len(s.vehicles))}
	for i, v := range s.vehicles {
		ch.Segments[i] = Segment{Vehicle: v}
	}
	return s.apply(ch, func() {})
}

// Assign inserts an unrouted customer into v's route at index.
func (s *Solution) Assign(c *Customer, v *Vehicle, index int) error {
	if err := s.owns(c, v); err != nil {
		return fmt.Errorf("assign: %w", err)
	}
	if c.vehicle != nil {
		return fmt.Errorf("assign customer %d: already on vehicle %d: %w", c.ID, c.vehicle.ID, ErrInvalidState)
	}
	if index < 0 || index > len(v.customers) {
		return fmt.Errorf("assign customer %d: index %d not in [0, %d]: %w", c.ID, index, len(v.customers), ErrOutOfRange)
	}
	ch := Change{Kind: KindAssign, Customer: c, Segments: []Segment{{Vehicle: v, From: index}}}
	return s.apply(ch, func() {
		v.insert(c, index)
		c.vehicle = v
	})
}

// Remove takes a routed customer off its route.
func (s *Solution) Remove(c *Customer) error {
	if err := s.owns(c, nil); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	v, i, err := s.locate(c)
	if err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	ch := Change{Kind: KindRemove, Customer: c, Segments: []Segment{{Vehicle: v, From: i}}}
	return s.apply(ch, func() {
		v.removeAt(i)
		c.vehicle = nil
	})
}

// Move relocates a routed customer to index in target's route. index counts
// positions in target's route without c, so for a move within one route it
// ranges over [0, len-1].
func (s *Solution) Move(c *Customer, target *Vehicle, index int) error {
	if err := s.owns(c, target); err != nil {
		return fmt.Errorf("move: %w", err)
	}
	v, i, err := s.locate(c)
	if err != nil {
		return fmt.Errorf("move: %w", err)
	}
	limit := len(target.customers)
	if target == v {
		limit--
	}
	if index < 0 || index > limit {
		return fmt.Errorf("move customer %d: index %d not in [0, %d]: %w", c.ID, index, limit, ErrOutOfRange)
	}
	var segs []Segment
	if target == v {
		segs = []Segment{{Vehicle: v, From: min(i, index)}}
	} else {
		segs = []Segment{{Vehicle: v, From: i}, {Vehicle: target, From: index}}
	}
	ch := Change{Kind: KindMove, Customer: c, Segments: segs}
	return s.apply(ch, func() {
		v.removeAt(i)
		target.insert(c, index)
		c.vehicle = target
	})
}

func (s *Solution) apply(ch Change, mutate func()) error {
	for _, l := range s.listeners {
		l.BeforeChange(s, ch)
	}
	mutate()
	var errs []error
	for _, l := range s.listeners {
		if err := l.AfterChange(s, ch); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		if ch.Customer != nil {
			return fmt.Errorf("%s customer %d: %w", ch.Kind, ch.Customer.ID, err)
		}
		return fmt.Errorf("%s: %w", ch.Kind, err)
	}
	return nil
}

func (s *Solution) owns(c *Customer, v *Vehicle) error {
	if c == nil {
		return fmt.Errorf("nil customer: %w", ErrInvalidState)
	}
	if c.sol != s {
		return fmt.Errorf("customer %d belongs to another solution: %w", c.ID, ErrInvalidState)
	}
	if v != nil && v.sol != s {
		return fmt.Errorf("vehicle %d belongs to another solution: %w", v.ID, ErrInvalidState)
	}
	return nil
}

func (s *Solution) locate(c *Customer) (*Vehicle, int, error) {
	v := c.vehicle
	if v == nil {
		return nil, 0, fmt.Errorf("customer %d is not routed: %w", c.ID, ErrInvalidState)
	}
	i := c.position
	if i < 0 || i >= len(v.customers) || v.customers[i] != c {
		return nil, 0, fmt.Errorf("customer %d: stale position %d on vehicle %d: %w", c.ID, i, v.ID, ErrInvalidState)
	}
	return v, i, nil
}

// Clone returns an independent copy sharing only depots and locations. The
// copy has its own propagator and no other listeners.
func (s *Solution) Clone() (*Solution, error) {
	cm := make(map[*Customer]*Customer, len(s.customers))
	customers := make([]*Customer, len(s.customers))
	for i, c := range s.customers {
		nc := &Customer{ID: c.ID, Location: c.Location, Demand: c.Demand}
		if c.Window != nil {
			w := *c.Window
			nc.Window = &w
		}
		cm[c] = nc
		customers[i] = nc
	}
	vehicles := make([]*Vehicle, len(s.vehicles))
	for i, v := range s.vehicles {
		route := make([]*Customer, len(v.customers))
		for k, c := range v.customers {
			route[k] = cm[c]
		}
		vehicles[i] = NewVehicle(v.ID, v.Capacity, v.Depot, route...)
	}
	out, err := NewSolution(s.depots, vehicles, customers)
	if err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}
	out.Name, out.DistanceType, out.DistanceUnit = s.Name, s.DistanceType, s.DistanceUnit
	return out, nil
}
