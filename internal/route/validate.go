package route

import "fmt"

// Validate recomputes every shadow field from scratch and compares it with
// the stored value. It returns ErrInvalidState on the first mismatch.
func (s *Solution) Validate() error {
	seen := make(map[*Customer]bool, len(s.customers))
	for _, v := range s.vehicles {
		demand := 0
		depart := v.Depot.ReadyTime
		for k, c := range v.customers {
			if seen[c] {
				return fmt.Errorf("validate: customer %d routed twice: %w", c.ID, ErrInvalidState)
			}
			seen[c] = true
			demand += c.Demand
			var prev, next *Customer
			if k > 0 {
				prev = v.customers[k-1]
			}
			if k+1 < len(v.customers) {
				next = v.customers[k+1]
			}
			switch {
			case !c.propagated:
				return fmt.Errorf("validate: customer %d not propagated: %w", c.ID, ErrInvalidState)
			case c.vehicle != v:
				return fmt.Errorf("validate: customer %d vehicle mismatch on vehicle %d: %w", c.ID, v.ID, ErrInvalidState)
			case c.position != k:
				return fmt.Errorf("validate: customer %d position %d, want %d: %w", c.ID, c.position, k, ErrInvalidState)
			case c.previous != prev || c.next != next:
				return fmt.Errorf("validate: customer %d neighbours stale: %w", c.ID, ErrInvalidState)
			}
			if !s.timeWindowed {
				continue
			}
			leg, err := c.DistanceFromPrevious()
			if err != nil {
				return fmt.Errorf("validate: %w", err)
			}
			want := depart + leg
			if !c.hasArrival || c.arrival != want {
				return fmt.Errorf("validate: customer %d arrival %d, want %d: %w", c.ID, c.arrival, want, ErrInvalidState)
			}
			depart = departure(c, want)
		}
		if demand != v.demand {
			return fmt.Errorf("validate: vehicle %d demand %d, want %d: %w", v.ID, v.demand, demand, ErrInvalidState)
		}
	}
	for _, c := range s.customers {
		if seen[c] {
			continue
		}
		if c.vehicle != nil || c.previous != nil || c.next != nil || c.hasArrival {
			return fmt.Errorf("validate: unrouted customer %d has shadow state: %w", c.ID, ErrInvalidState)
		}
	}
	return nil
}
