package score

import (
	"fmt"

	"routeshadow/internal/route"
)

// ConstraintScore is one rule's share of the total.
type ConstraintScore struct {
	Name       string   `json:"name"`
	Level      string   `json:"level"`
	Score      HardSoft `json:"score"`
	MatchCount int      `json:"matchCount"`
}

// Result is a score with its per-rule breakdown in rule order.
type Result struct {
	Score       HardSoft          `json:"score"`
	Constraints []ConstraintScore `json:"constraints"`
}

// Constraint looks up a rule's share by name.
func (r Result) Constraint(name string) (ConstraintScore, bool) {
	for _, c := range r.Constraints {
		if c.Name == name {
			return c, true
		}
	}
	return ConstraintScore{}, false
}

// Evaluate recomputes the score of sol from scratch. With no rules given it
// uses Defaults.
func Evaluate(sol *route.Solution, rules ...Constraint) (Result, error) {
	if len(rules) == 0 {
		rules = Defaults(sol)
	}
	res := Result{Constraints: make([]ConstraintScore, len(rules))}
	for i, r := range rules {
		cs := ConstraintScore{Name: r.Name, Level: r.Level.String()}
		for _, v := range sol.Vehicles() {
			if r.PerVehicle != nil {
				p, ok, err := r.PerVehicle(v)
				if err != nil {
					return Result{}, fmt.Errorf("evaluate %s: vehicle %d: %w", r.Name, v.ID, err)
				}
				if ok {
					cs.Score = cs.Score.Add(r.Level.weigh(p))
					cs.MatchCount++
				}
			}
			if r.PerCustomer == nil {
				continue
			}
			for k := 0; k < v.Len(); k++ {
				c := v.At(k)
				p, ok, err := r.PerCustomer(c)
				if err != nil {
					return Result{}, fmt.Errorf("evaluate %s: customer %d: %w", r.Name, c.ID, err)
				}
				if ok {
					cs.Score = cs.Score.Add(r.Level.weigh(p))
					cs.MatchCount++
				}
			}
		}
		res.Constraints[i] = cs
		res.Score = res.Score.Add(cs.Score)
	}
	return res, nil
}
