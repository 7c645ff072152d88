// Package fleetctl's Coordinator implements the Fleet Coordinator
// (spec.md §4.3): it owns the map of robot handles keyed by name,
// creates one on first telemetry for a robot it can place on the graph,
// and fans lane-closure / speed-limit / interrupt / action-idle events
// out to the affected handles.
package fleetctl

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/sauk2/rmf-ros2/adapterstats"
	"github.com/sauk2/rmf-ros2/graph"
	"github.com/sauk2/rmf-ros2/logging"
	"github.com/sauk2/rmf-ros2/rmfproto"
	"github.com/sauk2/rmf-ros2/updater"
)

// CoordinatorArgs bundles Coordinator's construction-time collaborators.
type CoordinatorArgs struct {
	FleetName string
	Graph     *graph.Graph
	Fleet     updater.FleetUpdater
	Planner   updater.PlannerUtilities
	LiftWatch updater.LiftClearanceService // optional; nil disables lift-entry watchdogs
	Driver    DriverCommander
	Profile   updater.RobotProfile
	Logger    *logging.Logger
	Clock     clock.Clock
	Stats     *adapterstats.Recorder
}

// Coordinator is the Fleet Coordinator: the fleet-wide event dispatcher
// sitting above the per-robot Handles.
type Coordinator struct {
	args CoordinatorArgs
	clk  clock.Clock

	mu          sync.Mutex
	handles     map[string]*Handle
	closedLanes map[int]struct{}
}

// NewCoordinator builds a Coordinator for one fleet.
func NewCoordinator(args CoordinatorArgs) *Coordinator {
	clk := args.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Coordinator{
		args:        args,
		clk:         clk,
		handles:     make(map[string]*Handle),
		closedLanes: make(map[int]struct{}),
	}
}

// OnTelemetry routes each robot in a telemetry batch to its handle,
// registering one on first sight if its pose can be placed on the graph
// (spec.md §4.3 "On telemetry batch").
func (c *Coordinator) OnTelemetry(ctx context.Context, batch rmfproto.FleetState) {
	if batch.FleetName != c.args.FleetName {
		return
	}
	for _, robot := range batch.Robots {
		h := c.lookupOrRegister(ctx, robot)
		if h == nil {
			continue
		}
		h.UpdateState(robot)
	}
}

func (c *Coordinator) lookupOrRegister(ctx context.Context, robot rmfproto.RobotState) *Handle {
	c.mu.Lock()
	if h, ok := c.handles[robot.Name]; ok {
		c.mu.Unlock()
		return h
	}
	c.mu.Unlock()

	pose := updater.Pose{X: robot.Location.X, Y: robot.Location.Y, Yaw: robot.Location.Yaw}
	var starts []updater.PlanStart
	if c.args.Planner != nil {
		starts = c.args.Planner.ComputePlanStarts(c.args.Graph, robot.Location.Map, pose, c.clk.Now())
	}
	if len(starts) == 0 {
		nearest, ok := graph.Nearest(c.args.Graph, graph.Location{
			Map: robot.Location.Map,
			Pos: vec(robot.Location),
		})
		if !ok {
			nearest, ok = graph.NearestAny(c.args.Graph, vec(robot.Location))
		}
		if ok {
			c.args.Logger.Warnw("robot unlocatable on graph; not registering",
				"robot", robot.Name, "nearest_kind", nearest.Kind, "nearest_index", nearest.Index, "distance", nearest.Distance)
		} else {
			c.args.Logger.Warnw("robot unlocatable on graph; empty graph", "robot", robot.Name, "map", robot.Location.Map)
		}
		return nil
	}

	var handle *Handle
	done := make(chan struct{})
	c.args.Fleet.AddRobot(ctx, robot.Name, c.args.Profile, starts, func(ru updater.RobotUpdater) {
		h := NewHandle(robot.Name, c.args.Graph, NewHandleArgs{
			Updater: ru,
			Driver:  c.args.Driver,
			Profile: c.args.Profile,
			Logger:  c.args.Logger,
			Clock:   c.clk,
			Stats:   c.args.Stats,
		})
		if c.args.LiftWatch != nil {
			ru.SetLiftEntryWatchdog(func(ctx context.Context, robotName, liftName string) updater.LiftDecision {
				return c.args.LiftWatch.RequestClearance(ctx, robotName, liftName)
			})
		}
		handle = h
		close(done)
	})
	<-done

	c.mu.Lock()
	c.handles[robot.Name] = handle
	c.mu.Unlock()
	return handle
}

// OnLaneClosureRequest updates the fleet-wide closed-lane set, fans the
// newly-closed subset out to every handle, and returns the broadcast
// status message the caller should publish (spec.md §4.3 "On
// lane-closure request").
func (c *Coordinator) OnLaneClosureRequest(req rmfproto.LaneRequest) rmfproto.ClosedLanes {
	if req.FleetName != c.args.FleetName {
		return rmfproto.ClosedLanes{}
	}
	if c.args.Fleet != nil {
		c.args.Fleet.OpenLanes(req.OpenLanes)
		c.args.Fleet.CloseLanes(req.CloseLanes)
	}

	c.mu.Lock()
	var newlyClosed []int
	for _, idx := range req.CloseLanes {
		if _, already := c.closedLanes[idx]; !already {
			newlyClosed = append(newlyClosed, idx)
		}
		c.closedLanes[idx] = struct{}{}
	}
	for _, idx := range req.OpenLanes {
		delete(c.closedLanes, idx)
	}
	current := make([]int, 0, len(c.closedLanes))
	for idx := range c.closedLanes {
		current = append(current, idx)
	}
	handles := make([]*Handle, 0, len(c.handles))
	for _, h := range c.handles {
		handles = append(handles, h)
	}
	c.mu.Unlock()

	if len(newlyClosed) > 0 {
		for _, h := range handles {
			h.NewlyClosedLanes(newlyClosed)
		}
	}

	return rmfproto.ClosedLanes{FleetName: c.args.FleetName, ClosedLanes: current}
}

// OnSpeedLimitRequest forwards a speed-limit change to the updater
// (spec.md §4.3 "On speed-limit request").
func (c *Coordinator) OnSpeedLimitRequest(req rmfproto.SpeedLimitRequest) {
	if req.FleetName != c.args.FleetName || c.args.Fleet == nil {
		return
	}
	if len(req.SpeedLimits) > 0 {
		c.args.Fleet.LimitLaneSpeeds(req.SpeedLimits)
	}
	if len(req.RemoveLimits) > 0 {
		c.args.Fleet.RemoveSpeedLimits(req.RemoveLimits)
	}
}

// OnInterruptRequest dispatches an interrupt/resume to the named robot
// (spec.md §4.3 "On interrupt request").
func (c *Coordinator) OnInterruptRequest(req rmfproto.InterruptRequest) {
	if req.FleetName != c.args.FleetName {
		return
	}
	c.mu.Lock()
	h, ok := c.handles[req.RobotName]
	c.mu.Unlock()
	if !ok {
		c.args.Logger.Warnw("interrupt request for unknown robot", "robot", req.RobotName)
		return
	}
	h.HandleInterruptRequest(req)
}

// OnActionIdle dispatches complete_robot_action to robotName when the
// driver reports it is idle after having run an external action
// (spec.md §4.3 "On action-idle notice").
func (c *Coordinator) OnActionIdle(robotName string) {
	c.mu.Lock()
	h, ok := c.handles[robotName]
	c.mu.Unlock()
	if !ok {
		return
	}
	h.CompleteRobotAction()
}

// Snapshot returns a diagnostic snapshot of every registered robot.
func (c *Coordinator) Snapshot() []RobotStatus {
	c.mu.Lock()
	handles := make([]*Handle, 0, len(c.handles))
	for _, h := range c.handles {
		handles = append(handles, h)
	}
	c.mu.Unlock()

	statuses := make([]RobotStatus, len(handles))
	for i, h := range handles {
		statuses[i] = h.Status()
	}
	return statuses
}

// RunStallWatchdog blocks, polling every StallThreshold/2 until ctx is
// canceled, calling CheckStall on every handle (spec.md §4.4 update-stall
// watchdog). Intended to run in its own goroutine for the process
// lifetime.
func (c *Coordinator) RunStallWatchdog(ctx context.Context) {
	ticker := c.clk.Ticker(StallThreshold / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.mu.Lock()
			handles := make([]*Handle, 0, len(c.handles))
			for _, h := range c.handles {
				handles = append(handles, h)
			}
			c.mu.Unlock()
			for _, h := range handles {
				if h.CheckStall(now) {
					c.args.Logger.Warnw("robot stalled", "robot", h.Name)
				}
			}
		}
	}
}
