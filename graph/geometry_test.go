package graph

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func testGraph() *Graph {
	dockEvent := &Event{Kind: EventDock, DockName: "charger1"}
	return &Graph{
		Waypoints: []Waypoint{
			{Name: "W0", Map: "L1", Pos: r3.Vector{X: 0, Y: 0}},
			{Name: "W1", Map: "L1", Pos: r3.Vector{X: 10, Y: 0}},
			{Name: "W2", Map: "L1", Pos: r3.Vector{X: 10, Y: 10}},
		},
		Lanes: []Lane{
			{Entry: 0, Exit: 1},
			{Entry: 1, Exit: 0},
			{Entry: 1, Exit: 2, Event: dockEvent},
		},
	}
}

func TestNearestWaypoint(t *testing.T) {
	g := testGraph()
	// (-0.05, 0) sits just outside lane 0's span, so W0 is the nearest element.
	res, ok := Nearest(g, Location{Map: "L1", Pos: r3.Vector{X: -0.05, Y: 0}})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, res.Kind, test.ShouldEqual, KindWaypoint)
	test.That(t, res.Index, test.ShouldEqual, 0)
}

func TestNearestLane(t *testing.T) {
	g := testGraph()
	// (5, 1) projects onto lane 0 (W0->W1) at u=5, perpendicular distance 1.
	res, ok := Nearest(g, Location{Map: "L1", Pos: r3.Vector{X: 5, Y: 1}})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, res.Kind, test.ShouldEqual, KindLane)
	test.That(t, res.Distance, test.ShouldAlmostEqual, 1.0)
}

func TestNearestUnknownMap(t *testing.T) {
	g := testGraph()
	_, ok := Nearest(g, Location{Map: "L2", Pos: r3.Vector{X: 0, Y: 0}})
	test.That(t, ok, test.ShouldBeFalse)
}

func TestNearestSkipsDegenerateLane(t *testing.T) {
	g := testGraph()
	g.Waypoints = append(g.Waypoints, Waypoint{Name: "W3", Map: "L1", Pos: r3.Vector{X: 10, Y: 0}})
	g.Lanes = append(g.Lanes, Lane{Entry: 1, Exit: 3}) // zero-length lane
	// (10.001, -0.001) is off every non-degenerate lane's span.
	res, ok := Nearest(g, Location{Map: "L1", Pos: r3.Vector{X: 10.001, Y: -0.001}})
	test.That(t, ok, test.ShouldBeTrue)
	// Should land on waypoint 1 or 3, never resolve via the degenerate lane 3.
	test.That(t, res.Kind, test.ShouldNotEqual, KindLane)
}

func TestNearestAnyIgnoresMap(t *testing.T) {
	g := testGraph()
	// No waypoint lives on "L2"; NearestAny should still resolve against
	// the graph's only map instead of failing like Nearest does.
	res, ok := NearestAny(g, r3.Vector{X: -0.05, Y: 0})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, res.Kind, test.ShouldEqual, KindWaypoint)
	test.That(t, res.Index, test.ShouldEqual, 0)
}

func TestFindDockLane(t *testing.T) {
	g := testGraph()
	idx, ok := FindDockLane(g, "charger1")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, idx, test.ShouldEqual, 2)

	_, ok = FindDockLane(g, "unknown-dock")
	test.That(t, ok, test.ShouldBeFalse)
}

func TestReverseLane(t *testing.T) {
	g := testGraph()
	idx, ok := ReverseLane(g, 0, 1)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, idx, test.ShouldEqual, 1)

	_, ok = ReverseLane(g, 1, 2)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestLaneParam(t *testing.T) {
	g := testGraph()
	u, between := LaneParam(g, 0, r3.Vector{X: 5, Y: 0})
	test.That(t, u, test.ShouldAlmostEqual, 5.0)
	test.That(t, between, test.ShouldBeTrue)

	u, between = LaneParam(g, 0, r3.Vector{X: 0, Y: 0})
	test.That(t, u, test.ShouldAlmostEqual, 0.0)
	test.That(t, between, test.ShouldBeFalse)
}
