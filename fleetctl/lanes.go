package fleetctl

import (
	"github.com/sauk2/rmf-ros2/graph"
	"github.com/sauk2/rmf-ros2/updater"
)

// NewlyClosedLanes reacts to a set of lanes transitioning to closed
// (spec.md §4.2.5). If none of the robot's remaining approach lanes are
// affected, nothing happens. If they are and the robot is already
// strictly between the two waypoints of a now-closed lane, it first
// tries to recover by reversing onto the lane running the opposite
// direction (spec.md invariant: reverse-lane recovery); if no such lane
// exists the robot is Stranded and the handle escalates via Replan so
// the planner can intervene. Otherwise — the robot has not yet entered
// the closed lane — a Replan is requested so the planner routes around
// it.
func (h *Handle) NewlyClosedLanes(closedLaneIndices []int) {
	h.do(func() {
		if h.state != StateFollowing || len(h.plan.Waypoints) == 0 {
			return
		}
		closed := make(map[int]struct{}, len(closedLaneIndices))
		for _, idx := range closedLaneIndices {
			closed[idx] = struct{}{}
		}

		target := 0
		if h.plan.TargetPlanIndex != nil {
			target = *h.plan.TargetPlanIndex
		}
		affected := false
		for i := target; i < len(h.plan.Waypoints); i++ {
			if len(graph.ApproachLanes(h.plan.Waypoints[i].ApproachLanes, closed)) > 0 {
				affected = true
				break
			}
		}
		if !affected {
			return
		}

		if h.strandedOnClosedLane(closed) {
			h.attemptReverseRecovery(closed)
			return
		}

		h.logger.Infow("newly closed lane affects remaining path; requesting replan", "robot", h.Name)
		if h.stats != nil {
			h.stats.RecordReplan()
		}
		if h.updater != nil {
			h.updater.Replan()
		}
	})
}

// strandedOnClosedLane reports whether the robot's last known telemetry
// places it strictly between the endpoints of one of the closed lanes.
func (h *Handle) strandedOnClosedLane(closed map[int]struct{}) bool {
	if h.cmd.lastTelemetry == nil {
		return false
	}
	loc := h.cmd.lastTelemetry.Location
	res, ok := graph.Nearest(h.graph, graph.Location{Map: loc.Map, Pos: vec(loc)})
	if !ok || res.Kind != graph.KindLane {
		return false
	}
	if _, isClosed := closed[res.Index]; !isClosed {
		return false
	}
	_, strict := graph.LaneParam(h.graph, res.Index, vec(loc))
	return strict
}

// attemptReverseRecovery repositions a robot stranded strictly between the
// endpoints of a newly-closed lane (spec.md §4.2.4 step 1a): if the reverse
// lane exists and is not among the lanes just closed, the updater is told
// the robot is on that
// reverse lane at its current position; otherwise the updater is told the
// robot's best-reachable position is the closed lane's entry waypoint.
// Exactly one of these two updater calls happens (spec.md invariant 7), and
// a Replan is always requested afterward so the planner can route around
// the closure.
func (h *Handle) attemptReverseRecovery(closed map[int]struct{}) {
	loc := h.cmd.lastTelemetry.Location
	res, ok := graph.Nearest(h.graph, graph.Location{Map: loc.Map, Pos: vec(loc)})
	if !ok || res.Kind != graph.KindLane {
		return
	}
	lane, _ := h.graph.Lane(res.Index)

	reverseIdx, hasReverse := graph.ReverseLane(h.graph, lane.Entry, lane.Exit)
	if hasReverse {
		if _, stillClosed := closed[reverseIdx]; stillClosed {
			hasReverse = false
		}
	}

	if hasReverse {
		u, _ := graph.LaneParam(h.graph, res.Index, vec(loc))
		entryWp, _ := h.graph.Waypoint(lane.Entry)
		exitWp, _ := h.graph.Waypoint(lane.Exit)
		laneLen := exitWp.Pos.Sub(entryWp.Pos).Norm()
		reversePos := graph.PositionAlongLane(h.graph, reverseIdx, laneLen-u)
		h.logger.Infow("reversing off closed lane", "robot", h.Name, "lane", res.Index, "reverse_lane", reverseIdx)
		if h.updater != nil {
			h.updater.UpdatePosition(updater.Position{
				Kind:      updater.PositionOnLane,
				Pose:      updater.Pose{X: reversePos.X, Y: reversePos.Y},
				LaneIndex: reverseIdx,
			})
		}
	} else {
		h.logger.Warnw("robot stranded on closed lane with no reverse path; anchoring at entry", "robot", h.Name, "lane", res.Index)
		entryWp, _ := h.graph.Waypoint(lane.Entry)
		if h.updater != nil {
			h.updater.UpdatePosition(updater.Position{
				Kind:          updater.PositionAtWaypoint,
				Pose:          updater.Pose{X: entryWp.Pos.X, Y: entryWp.Pos.Y},
				WaypointIndex: lane.Entry,
			})
		}
	}

	if h.stats != nil {
		h.stats.RecordReplan()
	}
	if h.updater != nil {
		h.updater.Replan()
	}
}
