// Package travel holds the per-robot Travel State and the stateless
// Estimation Functions that update it from a fresh telemetry snapshot.
package travel

import (
	"time"

	"github.com/golang/geo/r3"

	"github.com/sauk2/rmf-ros2/graph"
	"github.com/sauk2/rmf-ros2/updater"
)

// Checkpoint marks progress along one scheduled route.
type Checkpoint struct {
	RouteID      string
	CheckpointID int
}

// PlanWaypoint is one point of a planner-issued path: a timed pose,
// optionally anchored to a graph waypoint, optionally carrying an entry
// event, the lanes taken to approach it, and the schedule checkpoints it
// satisfies on arrival.
type PlanWaypoint struct {
	Pos                r3.Vector
	Yaw                float64
	Time               time.Time
	GraphWaypoint      *int
	Event              *graph.Event
	ApproachLanes      []int
	ArrivalCheckpoints []Checkpoint
}

// ArrivalTolerance is the distance below which a robot's reported
// position is considered co-located with a plan waypoint or graph
// waypoint. Not specified numerically by the protocol; 0.5 m matches the
// footprint-scale tolerances used elsewhere in fleet-adapter-style
// systems for waypoint arrival.
const ArrivalTolerance = 0.5

// State is the per-robot mutable plan record (spec.md §3 TravelState).
// Reset on every FollowNewPath/Stop/Dock.
type State struct {
	Waypoints            []PlanWaypoint
	TargetPlanIndex      *int
	NextArrivalEstimator func(index int, eta time.Duration)
	PathFinishedCallback func()
	LastKnownWaypoint    *int
	Updater              updater.RobotUpdater
}

// Reset clears the plan and callbacks, e.g. on FollowNewPath/Stop/Dock.
func (s *State) Reset(waypoints []PlanWaypoint, arrivalEstimator func(int, time.Duration), finished func()) {
	s.Waypoints = waypoints
	s.TargetPlanIndex = nil
	s.NextArrivalEstimator = arrivalEstimator
	s.PathFinishedCallback = finished
}
