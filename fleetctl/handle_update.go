package fleetctl

import (
	"time"

	"github.com/golang/geo/r3"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/sauk2/rmf-ros2/rmfproto"
	"github.com/sauk2/rmf-ros2/travel"
	"github.com/sauk2/rmf-ros2/updater"
)

// UpdateState reconciles a fresh telemetry snapshot into the handle
// (spec.md §4.2.4): it records the snapshot, forwards the battery level to
// the updater when it lies in [0,100], then dispatches on the current
// RunState to report position, drive plan progress, resend unacknowledged
// commands, and detect arrival. Stalls are detected by CheckStall.
func (h *Handle) UpdateState(state rmfproto.RobotState) {
	h.do(func() {
		h.cmd.lastTelemetry = &state
		h.cmd.lastProgress = h.clk.Now()

		if state.BatteryPercent < 0 || state.BatteryPercent > 100 {
			h.logger.Errorw("dropping telemetry with out-of-range battery percent", "robot", h.Name, "battery_percent", state.BatteryPercent)
		} else if h.updater != nil {
			h.updater.UpdateBatterySOC(state.BatteryPercent / 100)
		}

		switch h.state {
		case StateFollowing:
			h.updateFollowing(state)
		case StateDocking:
			h.updateDocking(state)
		case StateTeleop:
			h.updateTeleop(state)
		default: // StateIdle
			if h.updater != nil {
				h.updater.UpdatePosition(travel.ProjectPosition(h.graph, state.Location))
			}
		}
	})
}

// handleAdapterError reacts to the driver reporting it cannot make
// progress (spec.md §7 DriverDivergence/AdapterError): the in-flight
// command is treated as dropped and the robot is replanned. Idempotent —
// repeated AdapterError reports while already interrupted trigger no
// further replans.
func (h *Handle) handleAdapterError(state rmfproto.RobotState) {
	if h.updater != nil {
		h.updater.UpdatePosition(travel.ProjectPosition(h.graph, state.Location))
	}
	if h.cmd.interrupted {
		return
	}
	h.cmd.interrupted = true
	h.logger.Warnw("driver reported adapter_error; replanning", "robot", h.Name, "task_id", state.TaskID)
	if h.stats != nil {
		h.stats.RecordReplan()
	}
	if h.updater != nil {
		h.updater.Replan()
	}
}

// updateFollowing dispatches on the driver's echoed task-id and mode
// (spec.md §4.2.3 "Following"): an unacknowledged command is resent and
// the robot is only position-estimated; a matching task-id that reports
// AdapterError hands off to replanning; a matching task-id with an empty
// residual path runs the arrival check; otherwise the plan-progress
// estimator advances the robot's position within its assigned plan.
func (h *Handle) updateFollowing(state rmfproto.RobotState) {
	now := h.clk.Now()

	if state.TaskID != h.cmd.pathTaskID {
		if now.Sub(h.cmd.lastPublish) >= ResendInterval {
			h.resendPath()
		}
		if h.updater != nil {
			h.updater.UpdatePosition(travel.ProjectPosition(h.graph, state.Location))
		}
		return
	}

	if state.Mode == rmfproto.ModeAdapterError {
		h.handleAdapterError(state)
		return
	}

	if len(state.Path) == 0 {
		if checkpoints, arrived := travel.CheckArrival(&h.plan, state.Location); arrived {
			h.markCheckpointsReached(checkpoints)
			cb := h.plan.PathFinishedCallback
			h.plan.PathFinishedCallback = nil
			h.state = StateIdle
			if h.updater != nil {
				h.updater.UpdatePosition(travel.ProjectPosition(h.graph, state.Location))
			}
			if cb != nil {
				cb()
			}
		}
		return
	}

	travel.AdvancePlanProgress(&h.plan, state.Location, now)

	pos := travel.ProjectPosition(h.graph, state.Location)
	if h.plan.LastKnownWaypoint != nil {
		pos = travel.SingleShotWaypointEstimate(h.graph, *h.plan.LastKnownWaypoint)
	}
	if h.updater != nil {
		h.updater.UpdatePosition(pos)
	}
}

// updateDocking resends the docking mode request until acknowledged,
// periodically pushes an interpolated docking trajectory into the
// schedule (spec.md §4.2.3), and finishes once the driver leaves Docking
// mode.
func (h *Handle) updateDocking(state rmfproto.RobotState) {
	now := h.clk.Now()

	if state.TaskID != h.cmd.dockTaskID {
		if now.Sub(h.cmd.lastPublish) >= ResendInterval {
			h.resendDock()
		}
		return
	}

	if state.Mode != rmfproto.ModeDocking {
		target := h.cmd.dockTargetWaypoint
		h.cmd.dockTargetWaypoint = nil
		cb := h.cmd.dockFinishedCallback
		h.cmd.dockFinishedCallback = nil
		h.state = StateIdle
		if target != nil && h.updater != nil {
			h.updater.UpdatePosition(travel.SingleShotWaypointEstimate(h.graph, *target))
		}
		if h.stats != nil {
			h.stats.RecordDock(h.Name)
		}
		if cb != nil {
			cb()
		}
		return
	}

	if h.updater != nil {
		h.updater.UpdatePosition(travel.ProjectPosition(h.graph, state.Location))
	}

	if now.Sub(h.cmd.lastDockSchedulePush) >= DockSchedulePushInterval {
		h.pushDockingSchedule(state, now)
		h.cmd.lastDockSchedulePush = now
	}
}

// updateTeleop just forwards position/battery while an external action
// executor owns the robot; CompleteRobotAction is what ends Teleop.
func (h *Handle) updateTeleop(state rmfproto.RobotState) {
	if h.updater != nil {
		h.updater.UpdatePosition(travel.ProjectPosition(h.graph, state.Location))
	}
}

func vec(loc rmfproto.Location) r3.Vector {
	return r3.Vector{X: loc.X, Y: loc.Y}
}

func (h *Handle) resendPath() {
	now := h.clk.Now()
	h.cmd.lastPublish = now
	if h.stats != nil {
		h.stats.RecordResend(h.Name)
	}
	if h.driver == nil {
		return
	}
	path := make([]rmfproto.PathLocation, len(h.plan.Waypoints))
	for i, wp := range h.plan.Waypoints {
		path[i] = rmfproto.PathLocation{Location: rmfproto.Location{
			Time: wp.Time, X: wp.Pos.X, Y: wp.Pos.Y, Yaw: wp.Yaw,
		}}
	}
	h.driver.SendPathRequest(rmfproto.PathRequest{
		RobotName: h.Name,
		TaskID:    h.cmd.pathTaskID,
		Path:      path,
	})
}

func (h *Handle) resendDock() {
	now := h.clk.Now()
	h.cmd.lastPublish = now
	if h.stats != nil {
		h.stats.RecordResend(h.Name)
	}
	if h.driver == nil {
		return
	}
	h.driver.SendModeRequest(rmfproto.ModeRequest{
		RobotName:  h.Name,
		TaskID:     h.cmd.dockTaskID,
		Mode:       rmfproto.ModeDocking,
		Parameters: map[string]*structpb.Value{},
	})
}

// pushDockingSchedule interpolates a constant-velocity trajectory from
// the robot's current reported location to the docking target and pushes
// it into the schedule participant, so other robots' planning accounts
// for the docking robot's approach (spec.md §4.2.3). A full trapezoidal
// velocity profile is possible future work; constant-velocity is a
// grounded simplification documented in DESIGN.md.
func (h *Handle) pushDockingSchedule(state rmfproto.RobotState, now time.Time) {
	if h.cmd.dockTargetWaypoint == nil || h.plan.Updater == nil {
		return
	}
	participant := h.plan.Updater.ScheduleParticipant()
	if participant == nil {
		return
	}
	target, ok := h.graph.Waypoint(*h.cmd.dockTargetWaypoint)
	if !ok {
		return
	}
	route := interpolateRoute(state.Location, target.Map, target.Pos, h.profile, now)
	planID := participant.AssignPlanID()
	participant.Set(planID, []updater.Route{route})
}

// interpolateRoute builds a two-point constant-velocity Route from from
// to the target position, timed using profile.NominalVelocity. Used to
// project where a docking robot will be for the shared schedule.
func interpolateRoute(from rmfproto.Location, targetMap string, target r3.Vector, profile updater.RobotProfile, now time.Time) updater.Route {
	fromVec := r3.Vector{X: from.X, Y: from.Y}
	dist := target.Sub(fromVec).Norm()
	velocity := profile.NominalVelocity
	if velocity <= 0 {
		velocity = 0.5
	}
	travelTime := time.Duration(dist/velocity*1000) * time.Millisecond

	mapName := from.Map
	if mapName == "" {
		mapName = targetMap
	}

	return updater.Route{
		Map: mapName,
		Waypoints: []updater.RouteWaypoint{
			{Time: now, Pose: updater.Pose{X: from.X, Y: from.Y, Yaw: from.Yaw}},
			{Time: now.Add(travelTime), Pose: updater.Pose{X: target.X, Y: target.Y}},
		},
	}
}

// markCheckpointsReached notifies the schedule participant of every
// arrival checkpoint satisfied by the plan waypoint just reached.
func (h *Handle) markCheckpointsReached(checkpoints []travel.Checkpoint) {
	if h.plan.Updater == nil || len(checkpoints) == 0 {
		return
	}
	participant := h.plan.Updater.ScheduleParticipant()
	if participant == nil {
		return
	}
	for _, c := range checkpoints {
		participant.ReachCheckpoint(c.RouteID, c.CheckpointID)
	}
}
