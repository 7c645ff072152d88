// Package updater declares the external collaborator interfaces this
// module consumes (spec.md §6): the per-robot and per-fleet planner
// integration, planner utilities, and the optional lift clearance
// service. The traffic planner/negotiator and the shared schedule
// database that implement these interfaces live outside this module.
package updater

import (
	"context"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/sauk2/rmf-ros2/graph"
)

// Pose is a 2D position and heading.
type Pose struct {
	X, Y, Yaw float64
}

// PositionKind distinguishes the three ways a position estimate can be
// anchored to the graph.
type PositionKind int

const (
	PositionPoseOnly PositionKind = iota
	PositionOnLane
	PositionAtWaypoint
)

// Position is a robot position estimate, optionally anchored to a lane or
// waypoint in the navigation graph.
type Position struct {
	Kind          PositionKind
	Pose          Pose
	LaneIndex     int
	WaypointIndex int
}

// ResumeHandle is returned by Interrupt and invoked later to resume a
// previously interrupted robot.
type ResumeHandle interface {
	Resume(labels []string)
}

// ActionExecution is handed to an ActionExecutor so it can signal
// completion of the action it was asked to run.
type ActionExecution struct {
	Finished func()
}

// ActionExecutor is registered with a RobotUpdater via SetActionExecutor.
// The updater invokes it when the task layer wants this robot to run a
// custom action; the handle enters Teleop until CompleteRobotAction is
// called, which in turn calls execution.Finished.
type ActionExecutor func(ctx context.Context, category string, parameters map[string]*structpb.Value, execution *ActionExecution)

// LiftDecision is the outcome of a lift clearance check.
type LiftDecision int

const (
	LiftUndefined LiftDecision = iota
	LiftClear
	LiftCrowded
)

// LiftEntryWatchdog is invoked by the updater before a robot enters a
// lift; it returns whether the robot may proceed.
type LiftEntryWatchdog func(ctx context.Context, robotName, liftName string) LiftDecision

// Route is one leg of a robot's intended itinerary, pushed into the
// shared schedule.
type Route struct {
	Map       string
	Waypoints []RouteWaypoint
}

// RouteWaypoint is one timed, positioned point of a Route.
type RouteWaypoint struct {
	Time time.Time
	Pose Pose
}

// ScheduleParticipant is the per-robot handle into the shared traffic
// schedule.
type ScheduleParticipant interface {
	AssignPlanID() string
	Set(planID string, routes []Route)
	// ReachCheckpoint marks one arrival checkpoint of a previously Set
	// route as reached, so the schedule can retire it.
	ReachCheckpoint(routeID string, checkpointID int)
}

// RobotUpdater is the per-robot planner integration surface.
type RobotUpdater interface {
	UpdateBatterySOC(soc float64)
	UpdatePosition(pos Position)
	Replan()
	Interrupt(labels []string, onInterrupted func()) ResumeHandle
	EnableResponsiveWait(enable bool)
	SetActionExecutor(executor ActionExecutor)
	SetLiftEntryWatchdog(watchdog LiftEntryWatchdog)
	ScheduleParticipant() ScheduleParticipant
}

// PlanStart is one candidate initial state the planner may extend a
// route from.
type PlanStart struct {
	WaypointIndex int
	Pose          Pose
	Time          time.Time
}

// RobotProfile carries kinematic traits (max speed/acceleration, footprint
// radius) used to interpolate docking trajectories for the schedule.
type RobotProfile struct {
	NominalVelocity     float64
	NominalAcceleration float64
	FootprintRadius     float64
}

// FleetUpdater is the fleet-wide planner integration surface.
type FleetUpdater interface {
	AddRobot(ctx context.Context, name string, profile RobotProfile, startSet []PlanStart, onAdded func(RobotUpdater))
	OpenLanes(indices []int)
	CloseLanes(indices []int)
	LimitLaneSpeeds(limits map[int]float64)
	RemoveSpeedLimits(indices []int)
}

// PlannerUtilities is the set of planner-side helper computations this
// module calls but does not implement.
type PlannerUtilities interface {
	// ComputePlanStarts returns the possible plan starts for a robot
	// reporting pose on mapName at time t. An empty result means the
	// robot could not be located on the graph.
	ComputePlanStarts(g *graph.Graph, mapName string, pose Pose, t time.Time) []PlanStart
}

// LiftClearanceService is the optional external advisory for lift entry.
// A service that cannot answer (unreachable, malformed response) should
// be wrapped so it returns LiftUndefined rather than propagating an
// error into the control loop.
type LiftClearanceService interface {
	RequestClearance(ctx context.Context, robotName, liftName string) LiftDecision
}
