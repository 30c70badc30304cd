package score

import (
	"fmt"
	"strings"

	"routeshadow/internal/route"
)

type match struct {
	penalty int64
	matched bool
}

// Director keeps the score of a solution up to date as it is mutated. It caches
// each vehicle's and each customer's contribution per rule and, on every
// change, re-scores only the stops the propagator revisited.
type Director struct {
	sol   *route.Solution
	rules []Constraint

	vehicles  map[*route.Vehicle][]match
	customers map[*route.Customer][]match
	totals    []ConstraintScore

	pending []*route.Customer
	updates int64
	err     error
}

// NewDirector scores sol in full and registers the director as a listener.
func NewDirector(sol *route.Solution, rules ...Constraint) (*Director, error) {
	if len(rules) == 0 {
		rules = Defaults(sol)
	}
	d := &Director{sol: sol, rules: rules}
	if err := d.reset(); err != nil {
		return nil, fmt.Errorf("new director: %w", err)
	}
	sol.AddListener(d)
	return d, nil
}

// Close detaches the director from its solution.
func (d *Director) Close() { d.sol.RemoveListener(d) }

// Score is the current total. It fails once any incremental update has failed.
func (d *Director) Score() (HardSoft, error) {
	if d.err != nil {
		return HardSoft{}, d.err
	}
	var s HardSoft
	for _, t := range d.totals {
		s = s.Add(t.Score)
	}
	return s, nil
}

// Breakdown returns the current total with per-rule shares.
func (d *Director) Breakdown() (Result, error) {
	s, err := d.Score()
	if err != nil {
		return Result{}, err
	}
	return Result{Score: s, Constraints: append([]ConstraintScore(nil), d.totals...)}, nil
}

// Updates counts entity re-scorings since construction.
func (d *Director) Updates() int64 { return d.updates }

// AssertConsistent recomputes the score in full and compares it rule by rule.
func (d *Director) AssertConsistent() error {
	inc, err := d.Breakdown()
	if err != nil {
		return err
	}
	full, err := Evaluate(d.sol, d.rules...)
	if err != nil {
		return fmt.Errorf("assert consistent: %w", err)
	}
	var bad []string
	for i, c := range full.Constraints {
		if inc.Constraints[i] != c {
			bad = append(bad, fmt.Sprintf("%s (incremental %s x%d, full %s x%d)",
				c.Name, inc.Constraints[i].Score, inc.Constraints[i].MatchCount, c.Score, c.MatchCount))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("assert consistent: %s: %w", strings.Join(bad, ", "), ErrScoreCorrupted)
	}
	return nil
}

func (d *Director) reset() error {
	d.vehicles = make(map[*route.Vehicle][]match, len(d.sol.Vehicles()))
	d.customers = make(map[*route.Customer][]match, len(d.sol.Customers()))
	d.totals = make([]ConstraintScore, len(d.rules))
	for i, r := range d.rules {
		d.totals[i] = ConstraintScore{Name: r.Name, Level: r.Level.String()}
	}
	d.err = nil
	for _, v := range d.sol.Vehicles() {
		if err := d.rescoreVehicle(v); err != nil {
			return err
		}
		for k := 0; k < v.Len(); k++ {
			if err := d.rescoreCustomer(v.At(k)); err != nil {
				return err
			}
		}
	}
	return nil
}

// touched lists the customers whose contributions may depend on ch in the
// current structure.
func touched(ch route.Change, out []*route.Customer) []*route.Customer {
	if ch.Customer != nil {
		out = append(out, ch.Customer)
	}
	for _, seg := range ch.Segments {
		for k := max(seg.From-1, 0); k < seg.Vehicle.Len(); k++ {
			out = append(out, seg.Vehicle.At(k))
		}
	}
	return out
}

func (d *Director) BeforeChange(_ *route.Solution, ch route.Change) {
	if ch.Kind == route.KindInit {
		return
	}
	d.pending = touched(ch, d.pending[:0])
}

func (d *Director) AfterChange(_ *route.Solution, ch route.Change) error {
	if ch.Kind == route.KindInit {
		if err := d.reset(); err != nil {
			d.err = err
			return fmt.Errorf("director: %w", err)
		}
		return nil
	}
	if d.err != nil {
		return d.err
	}
	d.pending = touched(ch, d.pending)
	seen := make(map[*route.Customer]bool, len(d.pending))
	for _, c := range d.pending {
		if seen[c] {
			continue
		}
		seen[c] = true
		if err := d.rescoreCustomer(c); err != nil {
			d.err = fmt.Errorf("director: %w", err)
			return d.err
		}
	}
	for _, seg := range ch.Segments {
		if err := d.rescoreVehicle(seg.Vehicle); err != nil {
			d.err = fmt.Errorf("director: %w", err)
			return d.err
		}
	}
	d.pending = d.pending[:0]
	return nil
}

func (d *Director) rescoreVehicle(v *route.Vehicle) error {
	next := make([]match, len(d.rules))
	for i, r := range d.rules {
		if r.PerVehicle == nil {
			continue
		}
		p, ok, err := r.PerVehicle(v)
		if err != nil {
			return fmt.Errorf("%s: vehicle %d: %w", r.Name, v.ID, err)
		}
		next[i] = match{p, ok}
	}
	d.swap(d.vehicles[v], next)
	d.vehicles[v] = next
	return nil
}

func (d *Director) rescoreCustomer(c *route.Customer) error {
	next := make([]match, len(d.rules))
	if c.Routed() {
		for i, r := range d.rules {
			if r.PerCustomer == nil {
				continue
			}
			p, ok, err := r.PerCustomer(c)
			if err != nil {
				return fmt.Errorf("%s: customer %d: %w", r.Name, c.ID, err)
			}
			next[i] = match{p, ok}
		}
	}
	d.swap(d.customers[c], next)
	d.customers[c] = next
	return nil
}

// swap retracts old and inserts next into the per-rule totals.
func (d *Director) swap(old, next []match) {
	d.updates++
	for i, r := range d.rules {
		t := &d.totals[i]
		if i < len(old) && old[i].matched {
			t.Score = t.Score.Sub(r.Level.weigh(old[i].penalty))
			t.MatchCount--
		}
		if next[i].matched {
			t.Score = t.Score.Add(r.Level.weigh(next[i].penalty))
			t.MatchCount++
		}
	}
}
