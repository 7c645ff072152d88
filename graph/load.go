package graph

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// waypointJSON and laneJSON mirror the on-disk nav_graph_file format: a
// flat list of named, mapped waypoints and a flat list of lanes
// referencing them by name.
type waypointJSON struct {
	Name string  `json:"name"`
	Map  string  `json:"map"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type eventJSON struct {
	Kind     string `json:"kind"`
	DockName string `json:"dock_name,omitempty"`
}

type laneJSON struct {
	Entry      string     `json:"entry"`
	Exit       string     `json:"exit"`
	Event      *eventJSON `json:"event,omitempty"`
	SpeedLimit *float64   `json:"speed_limit,omitempty"`
}

type graphJSON struct {
	Waypoints []waypointJSON `json:"waypoints"`
	Lanes     []laneJSON     `json:"lanes"`
}

var eventKinds = map[string]EventKind{
	"dock":               EventDock,
	"door_open":          EventDoorOpen,
	"door_close":         EventDoorClose,
	"lift_session_begin": EventLiftSessionBegin,
	"lift_move":          EventLiftMove,
	"lift_door_open":     EventLiftDoorOpen,
	"lift_session_end":   EventLiftSessionEnd,
	"wait":               EventWait,
}

// Load parses a nav_graph_file into an immutable Graph, validating that
// every lane's endpoints reference existing waypoints. A malformed graph
// is a configuration error, fatal at startup per the error taxonomy.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading nav graph file %q", path)
	}
	return Parse(data)
}

// Parse decodes raw nav-graph JSON bytes into a Graph.
func Parse(data []byte) (*Graph, error) {
	var raw graphJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parsing nav graph json")
	}

	byName := make(map[string]int, len(raw.Waypoints))
	g := &Graph{Waypoints: make([]Waypoint, len(raw.Waypoints))}
	for i, wp := range raw.Waypoints {
		if _, dup := byName[wp.Name]; dup {
			return nil, fmt.Errorf("duplicate waypoint name %q", wp.Name)
		}
		byName[wp.Name] = i
		g.Waypoints[i] = Waypoint{Name: wp.Name, Map: wp.Map, Pos: r3.Vector{X: wp.X, Y: wp.Y}}
	}

	g.Lanes = make([]Lane, len(raw.Lanes))
	for i, ln := range raw.Lanes {
		entryIdx, ok := byName[ln.Entry]
		if !ok {
			return nil, fmt.Errorf("lane %d: unknown entry waypoint %q", i, ln.Entry)
		}
		exitIdx, ok := byName[ln.Exit]
		if !ok {
			return nil, fmt.Errorf("lane %d: unknown exit waypoint %q", i, ln.Exit)
		}
		if g.Waypoints[entryIdx].Map != g.Waypoints[exitIdx].Map && ln.Event == nil {
			return nil, fmt.Errorf(
				"lane %d (%s -> %s): cross-map lane must carry a transition event", i, ln.Entry, ln.Exit)
		}
		lane := Lane{Entry: entryIdx, Exit: exitIdx, SpeedLimit: ln.SpeedLimit}
		if ln.Event != nil {
			kind, ok := eventKinds[ln.Event.Kind]
			if !ok {
				return nil, fmt.Errorf("lane %d: unknown event kind %q", i, ln.Event.Kind)
			}
			lane.Event = &Event{Kind: kind, DockName: ln.Event.DockName}
		}
		g.Lanes[i] = lane
	}

	return g, nil
}
