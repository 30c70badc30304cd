package route

import "errors"

// PropagationStats counts the work done by a Propagator.
type PropagationStats struct {
	Changes         int64
	StopsRevisited  int64
	ArrivalsUpdated int64
}

// Propagator keeps shadow fields consistent with the routes. It only revisits
// the tail of each touched route, starting one stop before the mutation.
type Propagator struct {
	timeWindowed bool
	stats        PropagationStats
}

// Stats returns cumulative counters since the solution was built.
func (p *Propagator) Stats() PropagationStats { return p.stats }

func (p *Propagator) BeforeChange(*Solution, Change) {}

func (p *Propagator) AfterChange(s *Solution, ch Change) error {
	p.stats.Changes++
	if ch.Kind == KindInit {
		for _, c := range s.customers {
			if c.vehicle == nil {
				p.clear(c)
			}
		}
	} else if ch.Customer != nil && ch.Customer.vehicle == nil {
		p.clear(ch.Customer)
	}
	// Relinking cannot fail, so every segment is relinked before any arrival
	// pass runs. A distance error then leaves stale arrivals but never stale
	// links.
	relinked := make([]int, len(ch.Segments))
	for i, seg := range ch.Segments {
		relinked[i] = p.relink(seg, ch)
	}
	if !p.timeWindowed {
		return nil
	}
	var errs []error
	for i, seg := range ch.Segments {
		if err := p.arrivals(seg, relinked[i], ch.Kind == KindInit); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Propagator) clear(c *Customer) {
	c.previous, c.next = nil, nil
	c.position = 0
	c.arrival, c.hasArrival = 0, false
	c.propagated = true
}

// relink rewrites vehicle, previous, next and position for the segment tail and
// returns the last index whose predecessor changed, or -1.
func (p *Propagator) relink(seg Segment, ch Change) int {
	v := seg.Vehicle
	last := -1
	for k := max(seg.From-1, 0); k < len(v.customers); k++ {
		c := v.customers[k]
		var prev, next *Customer
		if k > 0 {
			prev = v.customers[k-1]
		}
		if k+1 < len(v.customers) {
			next = v.customers[k+1]
		}
		if !c.propagated || c.previous != prev || c == ch.Customer {
			last = k
		}
		c.vehicle = v
		c.previous, c.next = prev, next
		c.position = k
		c.propagated = true
		p.stats.StopsRevisited++
	}
	return last
}

// arrivals recomputes arrival times from seg.From to the end of the route. It
// stops early once a stop past the last relinked one keeps its old arrival,
// since every later stop then keeps its arrival too.
func (p *Propagator) arrivals(seg Segment, relinked int, force bool) error {
	v := seg.Vehicle
	k := seg.From
	if k >= len(v.customers) {
		return nil
	}
	depart := v.Depot.ReadyTime
	if k > 0 {
		prev := v.customers[k-1]
		if !prev.hasArrival {
			// predecessor was never timed; restart from the depot
			k = 0
		} else {
			depart = departure(prev, prev.arrival)
		}
	}
	for ; k < len(v.customers); k++ {
		c := v.customers[k]
		leg, err := c.DistanceFromPrevious()
		if err != nil {
			return err
		}
		arrival := depart + leg
		if !force && k > relinked && c.hasArrival && c.arrival == arrival {
			break
		}
		c.arrival, c.hasArrival = arrival, true
		p.stats.ArrivalsUpdated++
		depart = departure(c, arrival)
	}
	return nil
}
