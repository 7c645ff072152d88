package travel

import (
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/sauk2/rmf-ros2/graph"
	"github.com/sauk2/rmf-ros2/rmfproto"
	"github.com/sauk2/rmf-ros2/updater"
)

func samplePlan(base time.Time) []PlanWaypoint {
	wp0, wp1 := 0, 1
	return []PlanWaypoint{
		{Pos: r3.Vector{X: 0, Y: 0}, Time: base, GraphWaypoint: &wp0},
		{Pos: r3.Vector{X: 10, Y: 0}, Time: base.Add(10 * time.Second), GraphWaypoint: &wp1},
	}
}

func TestAdvancePlanProgressAtStart(t *testing.T) {
	base := time.Unix(1000, 0)
	st := &State{Waypoints: samplePlan(base)}
	var gotIdx int
	var gotETA time.Duration
	st.NextArrivalEstimator = func(idx int, eta time.Duration) { gotIdx, gotETA = idx, eta }

	AdvancePlanProgress(st, rmfproto.Location{X: 0, Y: 0}, base)

	test.That(t, *st.TargetPlanIndex, test.ShouldEqual, 1)
	test.That(t, gotIdx, test.ShouldEqual, 1)
	test.That(t, gotETA, test.ShouldEqual, 10*time.Second)
	test.That(t, *st.LastKnownWaypoint, test.ShouldEqual, 0)
}

func TestAdvancePlanProgressNearFinal(t *testing.T) {
	base := time.Unix(1000, 0)
	st := &State{Waypoints: samplePlan(base)}
	now := base.Add(9 * time.Second)
	AdvancePlanProgress(st, rmfproto.Location{X: 9.9, Y: 0}, now)
	test.That(t, *st.TargetPlanIndex, test.ShouldEqual, 1)
}

func TestCheckArrival(t *testing.T) {
	base := time.Unix(1000, 0)
	st := &State{Waypoints: samplePlan(base)}

	_, arrived := CheckArrival(st, rmfproto.Location{X: 10, Y: 0})
	test.That(t, arrived, test.ShouldBeTrue)

	_, arrived = CheckArrival(st, rmfproto.Location{X: 3, Y: 0})
	test.That(t, arrived, test.ShouldBeFalse)
}

func TestProjectPosition(t *testing.T) {
	g := &graph.Graph{
		Waypoints: []graph.Waypoint{{Name: "W0", Map: "L1", Pos: r3.Vector{X: 0, Y: 0}}},
	}
	pos := ProjectPosition(g, rmfproto.Location{Map: "L1", X: 0.01, Y: 0})
	test.That(t, pos.Kind, test.ShouldEqual, updater.PositionAtWaypoint)
	test.That(t, pos.WaypointIndex, test.ShouldEqual, 0)

	pos = ProjectPosition(g, rmfproto.Location{Map: "L1", X: 50, Y: 50})
	test.That(t, pos.Kind, test.ShouldEqual, updater.PositionPoseOnly)
}

func TestSingleShotWaypointEstimate(t *testing.T) {
	g := &graph.Graph{
		Waypoints: []graph.Waypoint{{Name: "W0", Map: "L1", Pos: r3.Vector{X: 5, Y: 5}}},
	}
	pos := SingleShotWaypointEstimate(g, 0)
	test.That(t, pos.Kind, test.ShouldEqual, updater.PositionAtWaypoint)
	test.That(t, pos.Pose.X, test.ShouldEqual, 5.0)
}
