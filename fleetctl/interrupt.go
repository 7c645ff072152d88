package fleetctl

import (
	"context"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/sauk2/rmf-ros2/rmfproto"
	"github.com/sauk2/rmf-ros2/updater"
)

// HandleInterruptRequest implements the two-message INTERRUPT/RESUME
// protocol (spec.md §4.2.6). InterruptStart asks the updater to pause
// whatever plan this robot is following and records the resulting
// ResumeHandle under req.InterruptID; InterruptResume looks that handle
// back up and resumes it. A Resume for an unknown or already-resumed id
// is a no-op — the protocol is not required to be exactly-once on the
// sender side.
func (h *Handle) HandleInterruptRequest(req rmfproto.InterruptRequest) {
	h.do(func() {
		switch req.Type {
		case rmfproto.InterruptStart:
			if _, exists := h.cmd.interruptRegistry[req.InterruptID]; exists {
				return
			}
			if h.updater == nil {
				return
			}
			resumeHandle := h.updater.Interrupt(req.Labels, func() {
				h.cmd.interrupted = true
			})
			h.cmd.interruptRegistry[req.InterruptID] = resumeHandle
		case rmfproto.InterruptResume:
			resumeHandle, ok := h.cmd.interruptRegistry[req.InterruptID]
			if !ok {
				h.logger.Warnw("resume for unknown interrupt id", "robot", h.Name, "interrupt_id", req.InterruptID)
				return
			}
			delete(h.cmd.interruptRegistry, req.InterruptID)
			resumeHandle.Resume(req.Labels)
			h.cmd.interrupted = false
		}
	})
}

// CompleteRobotAction signals that an externally-executed action
// (installed via executeAction/SetActionExecutor) has finished, ending
// Teleop and returning the handle to Idle so the next FollowNewPath/Dock
// can be accepted (spec.md §4.2.7).
func (h *Handle) CompleteRobotAction() {
	h.do(func() {
		if h.state != StateTeleop {
			return
		}
		execution := h.cmd.actionExecution
		h.cmd.actionExecution = nil
		h.state = StateIdle
		if execution != nil && execution.Finished != nil {
			execution.Finished()
		}
	})
}

// executeAction is registered with the updater as this robot's
// ActionExecutor. It transitions the handle into Teleop, clearing any
// in-flight plan, and stashes execution so CompleteRobotAction can end
// Teleop later and call execution.Finished. Calling execution.Finished
// directly does not change the handle's state.
func (h *Handle) executeAction(ctx context.Context, category string, parameters map[string]*structpb.Value, execution *updater.ActionExecution) {
	h.do(func() {
		h.plan.Reset(nil, nil, nil)
		h.cmd.dockFinishedCallback = nil
		h.cmd.dockTargetWaypoint = nil
		h.state = StateTeleop
		h.cmd.actionExecution = execution
		h.cmd.lastProgress = h.clk.Now()
		h.logger.Infow("entering teleop for external action", "robot", h.Name, "category", category)
	})
}

// CheckStall reports whether this robot has gone longer than
// StallThreshold without a telemetry update (spec.md §7 Stall), and
// records it to stats if so. Intended to be invoked periodically by the
// Fleet Coordinator's watchdog ticker, not from the telemetry path
// itself — UpdateState always refreshes lastProgress, so a handle that
// is actively receiving telemetry never stalls even if the robot itself
// is physically not moving.
func (h *Handle) CheckStall(now time.Time) bool {
	var stalled bool
	h.do(func() {
		if h.cmd.lastProgress.IsZero() {
			return
		}
		if now.Sub(h.cmd.lastProgress) >= StallThreshold {
			stalled = true
			if h.stats != nil {
				h.stats.RecordStall(h.Name)
				h.stats.RecordReplan()
			}
			if h.updater != nil {
				h.updater.Replan()
			}
		}
	})
	return stalled
}
