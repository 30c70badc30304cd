package model

import "time"

// JSON views of solutions and runs, shared by the store and the API.

type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type ConstraintScore struct {
	Name       string `json:"name"`
	Level      string `json:"level"`
	Hard       int64  `json:"hard"`
	Soft       int64  `json:"soft"`
	MatchCount int    `json:"matchCount"`
}

type StopView struct {
	CustomerID int64  `json:"customerId"`
	Name       string `json:"name,omitempty"`
	Position   int    `json:"position"`
	Location   Point  `json:"location"`
	Demand     int    `json:"demand"`
	Arrival    *int64 `json:"arrival,omitempty"`
	Departure  *int64 `json:"departure,omitempty"`
	Lateness   int64  `json:"lateness,omitempty"`
	// LegDistance is the scaled distance from the previous stop or depot.
	LegDistance int64 `json:"legDistance"`
}

type RouteView struct {
	VehicleID int64      `json:"vehicleId"`
	Capacity  int        `json:"capacity"`
	Demand    int        `json:"demand"`
	Depot     Point      `json:"depot"`
	Distance  int64      `json:"distance"`
	Stops     []StopView `json:"stops"`
}

// Snapshot is the full observable state of a solution at one point in time.
type Snapshot struct {
	Name         string            `json:"name"`
	DistanceType string            `json:"distanceType"`
	DistanceUnit string            `json:"distanceUnit,omitempty"`
	Score        string            `json:"score"`
	Hard         int64             `json:"hard"`
	Soft         int64             `json:"soft"`
	Feasible     bool              `json:"feasible"`
	Constraints  []ConstraintScore `json:"constraints"`
	Routes       []RouteView       `json:"routes"`
	Unassigned   []int64           `json:"unassigned"`
	TakenAt      time.Time         `json:"takenAt"`
}

// Run is the persisted record of one construct-and-verify run.
type Run struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Seed          int64             `json:"seed"`
	Strategy      string            `json:"strategy"`
	DistanceType  string            `json:"distanceType"`
	Score         string            `json:"score"`
	Hard          int64             `json:"hard"`
	Soft          int64             `json:"soft"`
	Feasible      bool              `json:"feasible"`
	Constraints   []ConstraintScore `json:"constraints"`
	Assigned      int               `json:"assigned"`
	Unassigned    int               `json:"unassigned"`
	Evaluations   int               `json:"evaluations"`
	VerifiedMoves int               `json:"verifiedMoves"`
	DurationMs    int64             `json:"durationMs"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// Event is a score change published to subscribers.
type Event struct {
	ID    string    `json:"id"`
	Type  string    `json:"type"`
	RunID string    `json:"runId,omitempty"`
	Score string    `json:"score"`
	Hard  int64     `json:"hard"`
	Soft  int64     `json:"soft"`
	Step  int       `json:"step,omitempty"`
	At    time.Time `json:"at"`
}

const (
	EventCustomerAssigned = "customer.assigned"
	EventVerifyProgress   = "verify.progress"
	EventRunCompleted     = "run.completed"
)
