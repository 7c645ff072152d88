package graph

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/samber/lo"
)

// minLaneLength below which a lane is skipped for nearest-element and
// projection purposes: degenerate lanes carry no useful direction.
const minLaneLength = 1e-8

// Kind distinguishes the two things a position can be nearest to.
type Kind int

const (
	KindWaypoint Kind = iota
	KindLane
)

// NearestResult is the outcome of projecting a location onto the graph.
type NearestResult struct {
	Kind     Kind
	Index    int
	Distance float64
}

// Location is a point to project, restricted to a single map/level.
type Location struct {
	Map string
	Pos r3.Vector
}

// Nearest finds the closest graph element (waypoint or lane) to loc,
// restricted to elements on loc.Map. Waypoints are tried before lanes;
// ties are broken in iteration order, waypoints winning over lanes.
// Returns false if the map has no candidate elements at all.
func Nearest(g *Graph, loc Location) (NearestResult, bool) {
	best := NearestResult{Distance: math.Inf(1)}
	found := false

	for i, wp := range g.Waypoints {
		if wp.Map != loc.Map {
			continue
		}
		d := wp.Pos.Sub(loc.Pos).Norm()
		if !found || d < best.Distance {
			best = NearestResult{Kind: KindWaypoint, Index: i, Distance: d}
			found = true
		}
	}

	for i, lane := range g.Lanes {
		p0 := g.Waypoints[lane.Entry]
		p1 := g.Waypoints[lane.Exit]
		if p0.Map != loc.Map && p1.Map != loc.Map {
			continue
		}
		d, ok := laneDistance(p0.Pos, p1.Pos, loc.Pos)
		if !ok {
			continue
		}
		if !found || d < best.Distance {
			best = NearestResult{Kind: KindLane, Index: i, Distance: d}
			found = true
		}
	}

	return best, found
}

// NearestAny is Nearest without the map restriction: used only for
// diagnostics when a robot's reported map has no candidate elements at
// all, so the operator still gets a useful "closest thing anywhere"
// hint instead of no hint.
func NearestAny(g *Graph, pos r3.Vector) (NearestResult, bool) {
	best := NearestResult{Distance: math.Inf(1)}
	found := false

	for i, wp := range g.Waypoints {
		d := wp.Pos.Sub(pos).Norm()
		if !found || d < best.Distance {
			best = NearestResult{Kind: KindWaypoint, Index: i, Distance: d}
			found = true
		}
	}
	for i, lane := range g.Lanes {
		p0 := g.Waypoints[lane.Entry].Pos
		p1 := g.Waypoints[lane.Exit].Pos
		d, ok := laneDistance(p0, p1, pos)
		if !ok {
			continue
		}
		if !found || d < best.Distance {
			best = NearestResult{Kind: KindLane, Index: i, Distance: d}
			found = true
		}
	}
	return best, found
}

// laneDistance computes the perpendicular distance from q to the segment
// p0->p1, admitting only points whose projection falls within the segment
// (u in [0, len]). Lanes shorter than minLaneLength are skipped entirely.
func laneDistance(p0, p1, q r3.Vector) (float64, bool) {
	along := p1.Sub(p0)
	length := along.Norm()
	if length < minLaneLength {
		return 0, false
	}
	unit := along.Mul(1 / length)
	u := q.Sub(p0).Dot(unit)
	if u < 0 || u > length {
		return 0, false
	}
	proj := p0.Add(unit.Mul(u))
	return q.Sub(proj).Norm(), true
}

// LaneParam returns the parameter u (distance along the lane from its
// entry waypoint) of q's projection onto lane i, and whether q falls
// strictly between the lane's endpoints (0 < u < length).
func LaneParam(g *Graph, laneIdx int, q r3.Vector) (u float64, strictlyBetween bool) {
	lane := g.Lanes[laneIdx]
	p0 := g.Waypoints[lane.Entry].Pos
	p1 := g.Waypoints[lane.Exit].Pos
	along := p1.Sub(p0)
	length := along.Norm()
	if length < minLaneLength {
		return 0, false
	}
	unit := along.Mul(1 / length)
	u = q.Sub(p0).Dot(unit)
	return u, u > 0 && u < length
}

// PositionAlongLane returns the position at parameter u along lane i.
func PositionAlongLane(g *Graph, laneIdx int, u float64) r3.Vector {
	lane := g.Lanes[laneIdx]
	p0 := g.Waypoints[lane.Entry].Pos
	p1 := g.Waypoints[lane.Exit].Pos
	along := p1.Sub(p0)
	length := along.Norm()
	if length < minLaneLength {
		return p0
	}
	unit := along.Mul(1 / length)
	return p0.Add(unit.Mul(u))
}

// FindDockLane returns the index of the first lane whose entry event docks
// at dockName, or false if none match.
func FindDockLane(g *Graph, dockName string) (int, bool) {
	_, idx, ok := lo.FindIndexOf(g.Lanes, func(l Lane) bool {
		return l.Event.IsDock(dockName)
	})
	if !ok {
		return 0, false
	}
	return idx, true
}

// ReverseLane returns the index of the lane whose entry/exit run the
// opposite direction of fromWp->toWp, i.e. the lane toWp->fromWp.
func ReverseLane(g *Graph, fromWp, toWp int) (int, bool) {
	_, idx, ok := lo.FindIndexOf(g.Lanes, func(l Lane) bool {
		return l.Entry == toWp && l.Exit == fromWp
	})
	if !ok {
		return 0, false
	}
	return idx, true
}

// ApproachLanes returns the subset of laneIndices that are present in
// closed, preserving order.
func ApproachLanes(laneIndices []int, closed map[int]struct{}) []int {
	return lo.Filter(laneIndices, func(idx int, _ int) bool {
		_, ok := closed[idx]
		return ok
	})
}
