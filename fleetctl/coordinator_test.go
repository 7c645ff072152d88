package fleetctl

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"

	"github.com/sauk2/rmf-ros2/graph"
	"github.com/sauk2/rmf-ros2/logging"
	"github.com/sauk2/rmf-ros2/rmfproto"
	"github.com/sauk2/rmf-ros2/updater"
	"github.com/sauk2/rmf-ros2/updater/fake"
)

func newTestCoordinator(t *testing.T, computeStarts func(pose updater.Pose) []updater.PlanStart) (*Coordinator, *fake.FleetUpdater) {
	t.Helper()
	fleetUpdater := fake.NewFleetUpdater()
	planner := &fake.PlannerUtilities{
		ComputePlanStartsFunc: func(g *graph.Graph, mapName string, pose updater.Pose, t time.Time) []updater.PlanStart {
			return computeStarts(pose)
		},
	}
	c := NewCoordinator(CoordinatorArgs{
		FleetName: "fleet1",
		Graph:     testGraph(),
		Fleet:     fleetUpdater,
		Planner:   planner,
		Logger:    logging.NewTestLogger(),
		Clock:     clock.NewMock(),
	})
	return c, fleetUpdater
}

// S1 Fresh registration.
func TestOnTelemetryRegistersNewRobot(t *testing.T) {
	c, fleetUpdater := newTestCoordinator(t, func(pose updater.Pose) []updater.PlanStart {
		return []updater.PlanStart{{WaypointIndex: 0, Pose: pose}}
	})

	c.OnTelemetry(context.Background(), rmfproto.FleetState{
		FleetName: "fleet1",
		Robots: []rmfproto.RobotState{{
			Name: "r1", Mode: rmfproto.ModeIdle, BatteryPercent: 50,
			Location: rmfproto.Location{Map: "L1", X: 0.05, Y: 0},
		}},
	})

	test.That(t, fleetUpdater.AddRobotCalls, test.ShouldHaveLength, 1)
	ru := fleetUpdater.RobotsByName["r1"]
	test.That(t, ru, test.ShouldNotBeNil)
	test.That(t, ru.BatterySOCUpdates, test.ShouldHaveLength, 1)
	test.That(t, ru.BatterySOCUpdates[0], test.ShouldAlmostEqual, 0.5)

	statuses := c.Snapshot()
	test.That(t, statuses, test.ShouldHaveLength, 1)
	test.That(t, statuses[0].Name, test.ShouldEqual, "r1")
}

// S2 Unlocatable.
func TestOnTelemetryUnlocatableRobotNotRegistered(t *testing.T) {
	c, fleetUpdater := newTestCoordinator(t, func(pose updater.Pose) []updater.PlanStart {
		return nil
	})

	c.OnTelemetry(context.Background(), rmfproto.FleetState{
		FleetName: "fleet1",
		Robots: []rmfproto.RobotState{{
			Name: "r1", Mode: rmfproto.ModeIdle,
			Location: rmfproto.Location{Map: "L2", X: 0, Y: 0},
		}},
	})

	test.That(t, fleetUpdater.AddRobotCalls, test.ShouldHaveLength, 0)
	test.That(t, c.Snapshot(), test.ShouldHaveLength, 0)
}

func TestOnTelemetryWrongFleetIgnored(t *testing.T) {
	c, fleetUpdater := newTestCoordinator(t, func(pose updater.Pose) []updater.PlanStart {
		return []updater.PlanStart{{WaypointIndex: 0, Pose: pose}}
	})
	c.OnTelemetry(context.Background(), rmfproto.FleetState{
		FleetName: "other-fleet",
		Robots:    []rmfproto.RobotState{{Name: "r1"}},
	})
	test.That(t, fleetUpdater.AddRobotCalls, test.ShouldHaveLength, 0)
}

func TestOnLaneClosureFansOutAndTracksSet(t *testing.T) {
	c, fleetUpdater := newTestCoordinator(t, func(pose updater.Pose) []updater.PlanStart {
		return []updater.PlanStart{{WaypointIndex: 0, Pose: pose}}
	})
	c.OnTelemetry(context.Background(), rmfproto.FleetState{
		FleetName: "fleet1",
		Robots: []rmfproto.RobotState{{
			Name: "r1", Mode: rmfproto.ModeIdle,
			Location: rmfproto.Location{Map: "L1", X: 0, Y: 0},
		}},
	})

	status := c.OnLaneClosureRequest(rmfproto.LaneRequest{FleetName: "fleet1", CloseLanes: []int{0}})
	test.That(t, status.ClosedLanes, test.ShouldHaveLength, 1)
	test.That(t, fleetUpdater.ClosedLanes, test.ShouldHaveLength, 1)

	// Closing the same lane again yields no newly-closed delta but keeps
	// the set.
	status2 := c.OnLaneClosureRequest(rmfproto.LaneRequest{FleetName: "fleet1", CloseLanes: []int{0}})
	test.That(t, status2.ClosedLanes, test.ShouldHaveLength, 1)

	status3 := c.OnLaneClosureRequest(rmfproto.LaneRequest{FleetName: "fleet1", OpenLanes: []int{0}})
	test.That(t, status3.ClosedLanes, test.ShouldHaveLength, 0)
}

func TestOnInterruptRequestUnknownRobotWarnsNoCrash(t *testing.T) {
	c, _ := newTestCoordinator(t, func(pose updater.Pose) []updater.PlanStart { return nil })
	c.OnInterruptRequest(rmfproto.InterruptRequest{FleetName: "fleet1", RobotName: "ghost", InterruptID: "x"})
}
