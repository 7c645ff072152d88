// Package rmfproto holds the boundary message types exchanged between the
// fleet driver, the planner, and this adapter. Field semantics match
// spec.md §6; bit-compatibility with any particular wire encoding is not
// required, so these are plain Go structs except for the one genuinely
// heterogeneous field (ModeRequest parameters), which uses structpb the
// way the teacher's component packages encode opaque Do() parameters.
package rmfproto

import (
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// Mode mirrors the driver-reported operating mode of a robot.
type Mode int

const (
	ModeIdle Mode = iota
	ModeMoving
	ModePaused
	ModeDocking
	ModeAdapterError
	ModeCharging
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeMoving:
		return "moving"
	case ModePaused:
		return "paused"
	case ModeDocking:
		return "docking"
	case ModeAdapterError:
		return "adapter_error"
	case ModeCharging:
		return "charging"
	default:
		return "unknown"
	}
}

// Location is a timestamped pose on a named map.
type Location struct {
	Time      time.Time
	Map       string
	X, Y, Yaw float64
}

// PathLocation is a single entry of an outbound PathRequest, optionally
// carrying an approach speed limit for the lane used to reach it.
type PathLocation struct {
	Location
	ApproachSpeedLimit *float64
}

// RobotState is one robot's telemetry snapshot as reported by the driver.
type RobotState struct {
	Name           string
	TaskID         string
	Mode           Mode
	BatteryPercent float64
	Location       Location
	Path           []Location
}

// FleetState is a telemetry batch for every robot in one fleet.
type FleetState struct {
	FleetName string
	Robots    []RobotState
}

// PathRequest commands a robot to follow a sequence of locations.
type PathRequest struct {
	FleetName string
	RobotName string
	TaskID    string
	Path      []PathLocation
}

// ModeRequest commands a mode change (e.g. docking) with opaque
// parameters.
type ModeRequest struct {
	FleetName  string
	RobotName  string
	TaskID     string
	Mode       Mode
	Parameters map[string]*structpb.Value
}

// LaneRequest opens and/or closes a set of lanes, by index.
type LaneRequest struct {
	FleetName  string
	CloseLanes []int
	OpenLanes  []int
}

// ClosedLanes is the fleet-wide status broadcast of currently closed
// lanes.
type ClosedLanes struct {
	FleetName   string
	ClosedLanes []int
}

// SpeedLimitRequest adds or removes per-lane speed limits.
type SpeedLimitRequest struct {
	FleetName    string
	SpeedLimits  map[int]float64
	RemoveLimits []int
}

// InterruptType distinguishes the two messages of the interrupt protocol.
type InterruptType int

const (
	InterruptStart InterruptType = iota
	InterruptResume
)

// InterruptRequest is one half of the two-message INTERRUPT/RESUME
// protocol for a single robot.
type InterruptRequest struct {
	FleetName   string
	RobotName   string
	InterruptID string
	Type        InterruptType
	Labels      []string
}
