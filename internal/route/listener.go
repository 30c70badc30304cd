package route

// Kind names the structural mutation behind a Change.
type Kind int

const (
	// KindInit is a full propagation pass over every route.
	KindInit Kind = iota
	KindAssign
	KindRemove
	KindMove
)

func (k Kind) String() string {
	switch k {
	case KindInit:
		return "init"
	case KindAssign:
		return "assign"
	case KindRemove:
		return "remove"
	case KindMove:
		return "move"
	}
	return "unknown"
}

// Segment marks the part of one route touched by a mutation: every stop at
// index From-1 or later may have new shadow values. From is valid against the
// route both before and after the mutation.
type Segment struct {
	Vehicle *Vehicle
	From    int
}

// Change describes one structural mutation.
type Change struct {
	Kind Kind
	// Customer is the mutated stop; nil for KindInit.
	Customer *Customer
	Segments []Segment
}

// Listener observes structural mutations. BeforeChange runs against the old
// structure, AfterChange against the new one. Listeners run synchronously in
// registration order; the Propagator is always first.
type Listener interface {
	BeforeChange(s *Solution, ch Change)
	AfterChange(s *Solution, ch Change) error
}
