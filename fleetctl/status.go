package fleetctl

import "github.com/sauk2/rmf-ros2/rmfproto"

// RobotStatus is a read-only snapshot of a Handle for diagnostics and
// the operator shell (cmd/fleetshell).
type RobotStatus struct {
	Name          string
	State         RunState
	PathTaskID    string
	DockTaskID    string
	LastTelemetry *rmfproto.RobotState
	Interrupted   bool
}

// Status returns a snapshot of the handle's current state.
func (h *Handle) Status() RobotStatus {
	var s RobotStatus
	h.do(func() {
		s = RobotStatus{
			Name:          h.Name,
			State:         h.state,
			PathTaskID:    h.cmd.pathTaskID,
			DockTaskID:    h.cmd.dockTaskID,
			LastTelemetry: h.cmd.lastTelemetry,
			Interrupted:   h.cmd.interrupted,
		}
	})
	return s
}
