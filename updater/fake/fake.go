// Package fake provides deterministic in-memory updater.RobotUpdater /
// updater.FleetUpdater / updater.PlannerUtilities implementations for
// tests, in the style of the teacher's testutils/inject package: the
// RobotUpdater, FleetUpdater and ScheduleParticipant fakes record every
// call, and RobotUpdater.UpdatePosition and
// PlannerUtilities.ComputePlanStarts delegate to a settable *Func field so
// a test can override one behavior without re-implementing the whole
// interface.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/sauk2/rmf-ros2/graph"
	"github.com/sauk2/rmf-ros2/updater"
)

// ScheduleParticipant records every Set call and hands out incrementing
// plan ids.
type ScheduleParticipant struct {
	mu          sync.Mutex
	nextPlan    int
	Sets        []SetCall
	Checkpoints []CheckpointReached
}

// SetCall is one recorded ScheduleParticipant.Set invocation.
type SetCall struct {
	PlanID string
	Routes []updater.Route
}

func (p *ScheduleParticipant) AssignPlanID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextPlan++
	return planIDString(p.nextPlan)
}

func (p *ScheduleParticipant) Set(planID string, routes []updater.Route) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Sets = append(p.Sets, SetCall{PlanID: planID, Routes: routes})
}

// CheckpointReached is one recorded ReachCheckpoint invocation.
type CheckpointReached struct {
	RouteID      string
	CheckpointID int
}

func (p *ScheduleParticipant) ReachCheckpoint(routeID string, checkpointID int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Checkpoints = append(p.Checkpoints, CheckpointReached{RouteID: routeID, CheckpointID: checkpointID})
}

// LastSet returns the most recently recorded Set call, or the zero value
// and false if none happened yet.
func (p *ScheduleParticipant) LastSet() (SetCall, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Sets) == 0 {
		return SetCall{}, false
	}
	return p.Sets[len(p.Sets)-1], true
}

func planIDString(n int) string {
	const digits = "0123456789"
	if n == 0 {
		return "plan-0"
	}
	buf := make([]byte, 0, 8)
	for n > 0 {
		buf = append([]byte{digits[n%10]}, buf...)
		n /= 10
	}
	return "plan-" + string(buf)
}

// ResumeRecord is a recorded resume invocation.
type ResumeRecord struct {
	Labels []string
}

type resumeHandle struct {
	owner         *RobotUpdater
	onInterrupted func()
}

func (h *resumeHandle) Resume(labels []string) {
	h.owner.mu.Lock()
	h.owner.ResumeCalls = append(h.owner.ResumeCalls, ResumeRecord{Labels: labels})
	h.owner.mu.Unlock()
}

// RobotUpdater is a recording fake of updater.RobotUpdater.
type RobotUpdater struct {
	mu sync.Mutex

	BatterySOCUpdates []float64
	Positions         []updater.Position
	ReplanCalls       int
	InterruptCalls    int
	ResumeCalls       []ResumeRecord
	ResponsiveWait    bool
	ActionExecutor    updater.ActionExecutor
	LiftWatchdog      updater.LiftEntryWatchdog
	Participant       *ScheduleParticipant

	// UpdatePositionFunc, if set, is called instead of just recording.
	UpdatePositionFunc func(updater.Position)
}

func NewRobotUpdater() *RobotUpdater {
	return &RobotUpdater{Participant: &ScheduleParticipant{}}
}

func (r *RobotUpdater) UpdateBatterySOC(soc float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.BatterySOCUpdates = append(r.BatterySOCUpdates, soc)
}

func (r *RobotUpdater) UpdatePosition(pos updater.Position) {
	r.mu.Lock()
	r.Positions = append(r.Positions, pos)
	fn := r.UpdatePositionFunc
	r.mu.Unlock()
	if fn != nil {
		fn(pos)
	}
}

func (r *RobotUpdater) Replan() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ReplanCalls++
}

func (r *RobotUpdater) Interrupt(labels []string, onInterrupted func()) updater.ResumeHandle {
	r.mu.Lock()
	r.InterruptCalls++
	r.mu.Unlock()
	if onInterrupted != nil {
		onInterrupted()
	}
	return &resumeHandle{owner: r, onInterrupted: onInterrupted}
}

func (r *RobotUpdater) EnableResponsiveWait(enable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ResponsiveWait = enable
}

func (r *RobotUpdater) SetActionExecutor(executor updater.ActionExecutor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ActionExecutor = executor
}

func (r *RobotUpdater) SetLiftEntryWatchdog(watchdog updater.LiftEntryWatchdog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.LiftWatchdog = watchdog
}

func (r *RobotUpdater) ScheduleParticipant() updater.ScheduleParticipant {
	return r.Participant
}

// LastPosition returns the most recently recorded position update.
func (r *RobotUpdater) LastPosition() (updater.Position, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Positions) == 0 {
		return updater.Position{}, false
	}
	return r.Positions[len(r.Positions)-1], true
}

// AddRobotCall is one recorded FleetUpdater.AddRobot invocation.
type AddRobotCall struct {
	Name     string
	Profile  updater.RobotProfile
	StartSet []updater.PlanStart
}

// FleetUpdater is a recording fake of updater.FleetUpdater.
type FleetUpdater struct {
	mu sync.Mutex

	AddRobotCalls   []AddRobotCall
	OpenedLanes     [][]int
	ClosedLanes     [][]int
	SpeedLimitCalls []map[int]float64
	RemovedLimits   [][]int

	// RobotsByName is populated by AddRobot so tests can fetch the fake
	// RobotUpdater created for a given robot.
	RobotsByName map[string]*RobotUpdater
}

func NewFleetUpdater() *FleetUpdater {
	return &FleetUpdater{RobotsByName: map[string]*RobotUpdater{}}
}

func (f *FleetUpdater) AddRobot(
	ctx context.Context,
	name string,
	profile updater.RobotProfile,
	startSet []updater.PlanStart,
	onAdded func(updater.RobotUpdater),
) {
	f.mu.Lock()
	f.AddRobotCalls = append(f.AddRobotCalls, AddRobotCall{Name: name, Profile: profile, StartSet: startSet})
	ru := NewRobotUpdater()
	f.RobotsByName[name] = ru
	f.mu.Unlock()
	onAdded(ru)
}

func (f *FleetUpdater) OpenLanes(indices []int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.OpenedLanes = append(f.OpenedLanes, indices)
}

func (f *FleetUpdater) CloseLanes(indices []int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ClosedLanes = append(f.ClosedLanes, indices)
}

func (f *FleetUpdater) LimitLaneSpeeds(limits map[int]float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SpeedLimitCalls = append(f.SpeedLimitCalls, limits)
}

func (f *FleetUpdater) RemoveSpeedLimits(indices []int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RemovedLimits = append(f.RemovedLimits, indices)
}

// PlannerUtilities is a fake updater.PlannerUtilities whose
// ComputePlanStartsFunc a test sets to control the outcome of
// registration.
type PlannerUtilities struct {
	ComputePlanStartsFunc func(g *graph.Graph, mapName string, pose updater.Pose, t time.Time) []updater.PlanStart
}

func (p *PlannerUtilities) ComputePlanStarts(g *graph.Graph, mapName string, pose updater.Pose, t time.Time) []updater.PlanStart {
	if p.ComputePlanStartsFunc == nil {
		return nil
	}
	return p.ComputePlanStartsFunc(g, mapName, pose, t)
}

// LiftClearanceService is a fake updater.LiftClearanceService.
type LiftClearanceService struct {
	Decision updater.LiftDecision
}

func (s *LiftClearanceService) RequestClearance(ctx context.Context, robotName, liftName string) updater.LiftDecision {
	if s.Decision == updater.LiftUndefined {
		return updater.LiftUndefined
	}
	return s.Decision
}
