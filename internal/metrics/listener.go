package metrics

import (
	"routeshadow/internal/route"
)

// Listener feeds route mutations into the collectors. Register it after the
// score director so it sees the settled state.
type Listener struct {
	last int64
}

func NewListener(sol *route.Solution) *Listener {
	return &Listener{last: sol.Propagator().Stats().StopsRevisited}
}

func (l *Listener) BeforeChange(*route.Solution, route.Change) {}

func (l *Listener) AfterChange(sol *route.Solution, ch route.Change) error {
	stats := sol.Propagator().Stats()
	StopsRevisited.Observe(float64(stats.StopsRevisited - l.last))
	l.last = stats.StopsRevisited
	Mutations.WithLabelValues(ch.Kind.String(), "ok").Inc()
	return nil
}
