// Package graph holds the immutable navigation graph and the pure
// geometry utilities used to project robot positions onto it.
package graph

import "github.com/golang/geo/r3"

// EventKind tags the kind of action a robot performs on entering a lane.
type EventKind int

const (
	EventNone EventKind = iota
	EventDock
	EventDoorOpen
	EventDoorClose
	EventLiftSessionBegin
	EventLiftMove
	EventLiftDoorOpen
	EventLiftSessionEnd
	EventWait
)

// Event is a lane's optional entry event. DockName is only meaningful when
// Kind is EventDock.
type Event struct {
	Kind     EventKind
	DockName string
}

// IsDock reports whether this event docks the robot at the named dock.
func (e *Event) IsDock(dockName string) bool {
	return e != nil && e.Kind == EventDock && e.DockName == dockName
}

// Waypoint is a named, mapped 2D location in the navigation graph.
type Waypoint struct {
	Name string
	Map  string
	Pos  r3.Vector // Z is always 0; planar graph.
}

// Lane is a directed edge between two waypoint indices, with an optional
// entry event and an optional speed limit (meters/second).
type Lane struct {
	Entry      int
	Exit       int
	Event      *Event
	SpeedLimit *float64
}

// Graph is the immutable, shared navigation graph: waypoints plus the
// directed lanes between them. Built once at startup; never mutated
// afterward.
type Graph struct {
	Waypoints []Waypoint
	Lanes     []Lane
}

// Waypoint returns the waypoint at index i, or the zero value and false if
// i is out of range.
func (g *Graph) Waypoint(i int) (Waypoint, bool) {
	if i < 0 || i >= len(g.Waypoints) {
		return Waypoint{}, false
	}
	return g.Waypoints[i], true
}

// Lane returns the lane at index i, or the zero value and false if i is
// out of range.
func (g *Graph) Lane(i int) (Lane, bool) {
	if i < 0 || i >= len(g.Lanes) {
		return Lane{}, false
	}
	return g.Lanes[i], true
}

// LaneLength returns the Euclidean length of lane i.
func (g *Graph) LaneLength(i int) float64 {
	lane := g.Lanes[i]
	p0 := g.Waypoints[lane.Entry].Pos
	p1 := g.Waypoints[lane.Exit].Pos
	return p1.Sub(p0).Norm()
}
