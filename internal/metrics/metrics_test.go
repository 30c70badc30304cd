package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"routeshadow/internal/problem"
)

func TestListenerCountsMutations(t *testing.T) {
	RegisterDefault()
	RegisterDefault() // idempotent

	sol, err := problem.Generate(problem.Defaults())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	sol.AddListener(NewListener(sol))

	assign := Mutations.WithLabelValues("assign", "ok")
	remove := Mutations.WithLabelValues("remove", "ok")
	beforeAssign := testutil.ToFloat64(assign)
	beforeRemove := testutil.ToFloat64(remove)

	c := sol.Customers()[0]
	v := sol.Vehicles()[0]
	if err := sol.Assign(c, v, 0); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := sol.Remove(c); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := testutil.ToFloat64(assign) - beforeAssign; got != 1 {
		t.Fatalf("assign count delta = %v", got)
	}
	if got := testutil.ToFloat64(remove) - beforeRemove; got != 1 {
		t.Fatalf("remove count delta = %v", got)
	}
	if n, err := testutil.GatherAndCount(Registry, "route_mutations_total"); err != nil || n < 2 {
		t.Fatalf("gathered %d series, err %v", n, err)
	}
	if n := testutil.CollectAndCount(StopsRevisited); n != 1 {
		t.Fatalf("stops revisited series = %d", n)
	}
}
