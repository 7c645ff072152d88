package fleetctl

import (
	"fmt"
	"time"

	"github.com/golang/geo/r3"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/sauk2/rmf-ros2/graph"
	"github.com/sauk2/rmf-ros2/rmfproto"
	"github.com/sauk2/rmf-ros2/travel"
)

// FollowNewPath commands the robot to follow waypoints, invoking
// arrivalEstimator as each one is approached and finished once the final
// one is reached (spec.md §4.2.1).
func (h *Handle) FollowNewPath(waypoints []travel.PlanWaypoint, arrivalEstimator func(int, time.Duration), finished func()) {
	h.do(func() {
		h.plan.Reset(waypoints, arrivalEstimator, finished)
		h.cmd.dockFinishedCallback = nil
		h.cmd.dockTargetWaypoint = nil
		h.cmd.interrupted = false
		h.state = StateFollowing
		h.cmd.pathTaskID = h.nextTaskIDLocked()

		path := make([]rmfproto.PathLocation, len(waypoints))
		for i, wp := range waypoints {
			loc := rmfproto.Location{Time: wp.Time, X: wp.Pos.X, Y: wp.Pos.Y, Yaw: wp.Yaw}
			if wp.GraphWaypoint != nil {
				if gwp, ok := h.graph.Waypoint(*wp.GraphWaypoint); ok {
					loc.Map = gwp.Map
				}
			}
			pl := rmfproto.PathLocation{Location: loc}
			if limit, ok := minApproachSpeedLimit(h.graph, wp.ApproachLanes); ok {
				pl.ApproachSpeedLimit = &limit
			}
			path[i] = pl
		}

		now := h.clk.Now()
		h.cmd.lastPublish = now
		h.cmd.lastProgress = now
		if h.driver != nil {
			h.driver.SendPathRequest(rmfproto.PathRequest{
				RobotName: h.Name,
				TaskID:    h.cmd.pathTaskID,
				Path:      path,
			})
		}
	})
}

// Stop halts the robot in place. Per spec.md §9's preserved open
// question, this publishes a single-waypoint path equal to the last
// known location but installs no path-finished callback, so the handle
// lands in Idle rather than a trivial Following — observably odd (the
// driver may still be moving when we call it Idle) but the documented
// behavior. If no telemetry has ever been received there is no "last
// known location" to stop at; Stop logs a warning and does nothing.
func (h *Handle) Stop() {
	h.do(func() {
		if h.cmd.lastTelemetry == nil {
			h.logger.Warnw("stop requested before any telemetry received; ignoring", "robot", h.Name)
			return
		}

		h.plan.Reset(nil, nil, nil)
		h.cmd.dockFinishedCallback = nil
		h.cmd.dockTargetWaypoint = nil
		h.cmd.interrupted = false
		h.state = StateIdle
		h.cmd.pathTaskID = h.nextTaskIDLocked()

		loc := h.cmd.lastTelemetry.Location
		h.plan.Waypoints = []travel.PlanWaypoint{{
			Pos: r3.Vector{X: loc.X, Y: loc.Y}, Yaw: loc.Yaw, Time: loc.Time,
		}}

		now := h.clk.Now()
		h.cmd.lastPublish = now
		h.cmd.lastProgress = now
		if h.driver != nil {
			h.driver.SendPathRequest(rmfproto.PathRequest{
				RobotName: h.Name,
				TaskID:    h.cmd.pathTaskID,
				Path:      []rmfproto.PathLocation{{Location: loc}},
			})
		}
	})
}

// Dock commands the robot to dock at dockName, invoking finished once
// the driver reports it is no longer in Docking mode (spec.md §4.2.2).
// It is an implementation error for dockName to not match any lane's
// entry event — dock names should be validated against the nav graph at
// startup (spec.md §9 Open Question), so a mismatch here indicates a
// configuration bug rather than a runtime condition to recover from.
func (h *Handle) Dock(dockName string, finished func()) {
	h.do(func() {
		h.plan.Reset(nil, nil, nil)
		h.cmd.dockFinishedCallback = finished
		h.cmd.interrupted = false
		h.state = StateDocking
		h.cmd.dockTaskID = h.nextTaskIDLocked()

		laneIdx, ok := graph.FindDockLane(h.graph, dockName)
		if !ok {
			panic(fmt.Sprintf("fleetctl: no lane docks at %q; dock names must be validated against the nav graph at startup", dockName))
		}
		lane, _ := h.graph.Lane(laneIdx)
		target := lane.Exit
		h.cmd.dockTargetWaypoint = &target
		h.cmd.lastDockSchedulePush = time.Time{}

		now := h.clk.Now()
		h.cmd.lastPublish = now
		h.cmd.lastProgress = now
		if h.driver != nil {
			h.driver.SendModeRequest(rmfproto.ModeRequest{
				RobotName: h.Name,
				TaskID:    h.cmd.dockTaskID,
				Mode:      rmfproto.ModeDocking,
				Parameters: map[string]*structpb.Value{
					"dock_name": structpb.NewStringValue(dockName),
				},
			})
		}
	})
}

// minApproachSpeedLimit returns the minimum speed limit over laneIdxs'
// lanes that carry one, and whether any did.
func minApproachSpeedLimit(g *graph.Graph, laneIdxs []int) (float64, bool) {
	var min float64
	found := false
	for _, idx := range laneIdxs {
		lane, ok := g.Lane(idx)
		if !ok || lane.SpeedLimit == nil {
			continue
		}
		if !found || *lane.SpeedLimit < min {
			min = *lane.SpeedLimit
			found = true
		}
	}
	return min, found
}
