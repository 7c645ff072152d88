package travel

import (
	"time"

	"github.com/golang/geo/r3"

	"github.com/sauk2/rmf-ros2/graph"
	"github.com/sauk2/rmf-ros2/rmfproto"
	"github.com/sauk2/rmf-ros2/updater"
)

// ProjectPosition projects a reported location onto the navigation graph,
// anchoring to the nearest waypoint or lane when one is within tolerance
// and falling back to a pose-only estimate otherwise. It is best-effort:
// used for diagnostics and for Idle/Teleop/ack-pending robots, never for
// plan-following progress (AdvancePlanProgress handles that).
func ProjectPosition(g *graph.Graph, loc rmfproto.Location) updater.Position {
	pose := updater.Pose{X: loc.X, Y: loc.Y, Yaw: loc.Yaw}
	res, ok := graph.Nearest(g, graph.Location{Map: loc.Map, Pos: r3.Vector{X: loc.X, Y: loc.Y}})
	if !ok || res.Distance > ArrivalTolerance {
		return updater.Position{Kind: updater.PositionPoseOnly, Pose: pose}
	}
	switch res.Kind {
	case graph.KindWaypoint:
		return updater.Position{Kind: updater.PositionAtWaypoint, Pose: pose, WaypointIndex: res.Index}
	case graph.KindLane:
		return updater.Position{Kind: updater.PositionOnLane, Pose: pose, LaneIndex: res.Index}
	default:
		return updater.Position{Kind: updater.PositionPoseOnly, Pose: pose}
	}
}

// AdvancePlanProgress advances state.TargetPlanIndex to the next plan
// waypoint the robot has not yet reached: scanning forward from the
// previous target, it skips to the first waypoint the robot is within
// ArrivalTolerance of (if any), then takes the first waypoint after that
// whose distance from the reported location exceeds ArrivalTolerance
// (the final waypoint if none does). It invokes NextArrivalEstimator with the
// residual-time estimate for that waypoint, and updates
// LastKnownWaypoint when the robot is co-located with a graph waypoint.
func AdvancePlanProgress(state *State, loc rmfproto.Location, now time.Time) {
	if len(state.Waypoints) == 0 {
		return
	}
	start := 0
	if state.TargetPlanIndex != nil {
		start = *state.TargetPlanIndex
	}
	pos := r3.Vector{X: loc.X, Y: loc.Y}

	// Skip waypoints already passed: resume from the first one the robot
	// is currently co-located with, if any.
	for i := start; i < len(state.Waypoints); i++ {
		if state.Waypoints[i].Pos.Sub(pos).Norm() <= ArrivalTolerance {
			start = i
			break
		}
	}

	target := len(state.Waypoints) - 1
	for i := start; i < len(state.Waypoints); i++ {
		if state.Waypoints[i].Pos.Sub(pos).Norm() > ArrivalTolerance {
			target = i
			break
		}
		// Co-located with this waypoint: if it is a graph waypoint, that
		// becomes the robot's last known graph position.
		if state.Waypoints[i].GraphWaypoint != nil {
			wp := *state.Waypoints[i].GraphWaypoint
			state.LastKnownWaypoint = &wp
		}
		if i == len(state.Waypoints)-1 {
			target = i
		}
	}

	state.TargetPlanIndex = &target
	if state.NextArrivalEstimator != nil {
		eta := state.Waypoints[target].Time.Sub(now)
		if eta < 0 {
			eta = 0
		}
		state.NextArrivalEstimator(target, eta)
	}
}

// CheckArrival reports whether the final reported position matches the
// final plan waypoint within ArrivalTolerance, and the set of arrival
// checkpoints to mark reached if so.
func CheckArrival(state *State, finalLoc rmfproto.Location) ([]Checkpoint, bool) {
	if len(state.Waypoints) == 0 {
		return nil, false
	}
	last := state.Waypoints[len(state.Waypoints)-1]
	pos := r3.Vector{X: finalLoc.X, Y: finalLoc.Y}
	if last.Pos.Sub(pos).Norm() > ArrivalTolerance {
		return nil, false
	}
	return last.ArrivalCheckpoints, true
}

// SingleShotWaypointEstimate anchors the robot at a known graph waypoint,
// used when a command (e.g. docking) completes and the robot's position
// is known exactly rather than estimated from a reported pose.
func SingleShotWaypointEstimate(g *graph.Graph, waypointIdx int) updater.Position {
	wp, _ := g.Waypoint(waypointIdx)
	return updater.Position{
		Kind:          updater.PositionAtWaypoint,
		Pose:          updater.Pose{X: wp.Pos.X, Y: wp.Pos.Y},
		WaypointIndex: waypointIdx,
	}
}
