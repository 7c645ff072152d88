package fleetctl

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/sauk2/rmf-ros2/graph"
	"github.com/sauk2/rmf-ros2/rmfproto"
	"github.com/sauk2/rmf-ros2/travel"
	"github.com/sauk2/rmf-ros2/updater"
)

// S4 Lane closed behind: robot straddling the closed lane recovers via
// the reverse lane.
func TestNewlyClosedLanesReverseRecovery(t *testing.T) {
	h, ru, _, _ := newTestHandle(t)

	h.FollowNewPath([]travel.PlanWaypoint{
		{Pos: r3.Vector{X: 10, Y: 0}, ApproachLanes: []int{0}},
	}, nil, nil)
	task := h.Status().PathTaskID

	h.UpdateState(rmfproto.RobotState{
		Name: "r1", TaskID: task, Mode: rmfproto.ModeMoving,
		Location: rmfproto.Location{Map: "L1", X: 5, Y: 0},
	})

	h.NewlyClosedLanes([]int{0})

	test.That(t, ru.Positions, test.ShouldNotBeEmpty)
	last := ru.Positions[len(ru.Positions)-1]
	test.That(t, last.Kind, test.ShouldEqual, updater.PositionOnLane)
	test.That(t, last.LaneIndex, test.ShouldEqual, 1) // lane 1 is the W1->W0 reverse of lane 0
	test.That(t, last.Pose.X, test.ShouldAlmostEqual, 5.0)
	test.That(t, last.Pose.Y, test.ShouldAlmostEqual, 0.0)
	test.That(t, ru.ReplanCalls, test.ShouldEqual, 1)
}

// Stranded with no reverse lane available: the handle escalates to Replan.
func TestNewlyClosedLanesStrandedNoReverse(t *testing.T) {
	g := &graph.Graph{
		Waypoints: []graph.Waypoint{
			{Name: "W0", Map: "L1", Pos: r3.Vector{X: 0, Y: 0}},
			{Name: "W1", Map: "L1", Pos: r3.Vector{X: 10, Y: 0}},
		},
		Lanes: []graph.Lane{{Entry: 0, Exit: 1}},
	}
	ru, driver := newFakeUpdater(), &testDriver{}
	h := newHandleWithGraph(t, g, ru, driver)

	h.FollowNewPath([]travel.PlanWaypoint{
		{Pos: r3.Vector{X: 10, Y: 0}, ApproachLanes: []int{0}},
	}, nil, nil)
	task := h.Status().PathTaskID
	h.UpdateState(rmfproto.RobotState{
		Name: "r1", TaskID: task, Mode: rmfproto.ModeMoving,
		Location: rmfproto.Location{Map: "L1", X: 5, Y: 0},
	})

	h.NewlyClosedLanes([]int{0})
	test.That(t, ru.ReplanCalls, test.ShouldEqual, 1)
}

func TestNewlyClosedLanesUnaffectedIsNoop(t *testing.T) {
	h, ru, driver, _ := newTestHandle(t)
	h.FollowNewPath([]travel.PlanWaypoint{
		{Pos: r3.Vector{X: 10, Y: 0}, ApproachLanes: []int{0}},
	}, nil, nil)

	h.NewlyClosedLanes([]int{99})
	test.That(t, ru.ReplanCalls, test.ShouldEqual, 0)
	test.That(t, driver.paths, test.ShouldHaveLength, 1) // only the initial follow_new_path publish
}
