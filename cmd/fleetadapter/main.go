// Command fleetadapter is the Adapter Glue (spec.md §2 item 6): it binds
// a fleetctl.Coordinator to a planner/schedule implementation and to
// publish/subscribe endpoints, modeled as plain channels since the
// transport itself is out of scope (spec.md §1).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"github.com/sauk2/rmf-ros2/adapterstats"
	"github.com/sauk2/rmf-ros2/config"
	"github.com/sauk2/rmf-ros2/fleetctl"
	"github.com/sauk2/rmf-ros2/graph"
	"github.com/sauk2/rmf-ros2/logging"
	"github.com/sauk2/rmf-ros2/rmfproto"
	"github.com/sauk2/rmf-ros2/updater"
)

// Endpoints is the pub/sub seam this binary needs from its caller:
// inbound channels the adapter reads, outbound channels it writes.
// Wiring these to an actual transport (ROS 2, MQTT, gRPC, ...) is
// explicitly out of scope (spec.md §1); a real deployment supplies its
// own adapter between its transport and these channels.
type Endpoints struct {
	Telemetry     <-chan rmfproto.FleetState
	LaneRequests  <-chan rmfproto.LaneRequest
	SpeedRequests <-chan rmfproto.SpeedLimitRequest
	Interrupts    <-chan rmfproto.InterruptRequest
	ActionIdle    <-chan string

	ClosedLaneStatus chan<- rmfproto.ClosedLanes
}

// Deps bundles the external collaborators this binary does not
// implement (spec.md §6): the per-fleet updater, planner utilities, the
// optional lift clearance service, and the driver transport.
type Deps struct {
	Fleet     updater.FleetUpdater
	Planner   updater.PlannerUtilities
	LiftWatch updater.LiftClearanceService
	Driver    fleetctl.DriverCommander
	Profile   updater.RobotProfile
}

func main() {
	app := &cli.App{
		Name:  "fleetadapter",
		Usage: "full-control fleet adapter reconciliation core",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Required: true, Usage: "path to adapter config JSON"},
			&cli.StringFlag{Name: "dotenv", Usage: "optional .env file to load before startup"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	logger := logging.NewLogger("fleetadapter", logging.INFO)

	if dotenv := c.String("dotenv"); dotenv != "" {
		if err := config.LoadDotEnv(dotenv); err != nil {
			return err
		}
	}

	cfg, err := config.Load(c.String("config"), logger)
	if err != nil {
		// Config errors are fatal at startup only (spec.md §7).
		return err
	}

	navGraph, err := graph.Load(cfg.NavGraphFile)
	if err != nil {
		return err
	}

	return runAdapter(c.Context, logger, cfg, navGraph, Deps{}, Endpoints{})
}

// runAdapter wires a Coordinator to deps/endpoints and blocks until ctx
// is canceled. Split out from run so tests can call it directly with
// fakes instead of real cli.Context flag parsing.
func runAdapter(ctx context.Context, logger *logging.Logger, cfg *config.Config, navGraph *graph.Graph, deps Deps, endpoints Endpoints) error {
	stats := adapterstats.NewRecorder(prometheusRegistererOrNoop())

	coordinator := fleetctl.NewCoordinator(fleetctl.CoordinatorArgs{
		FleetName: cfg.FleetName,
		Graph:     navGraph,
		Fleet:     deps.Fleet,
		Planner:   deps.Planner,
		LiftWatch: deps.LiftWatch,
		Driver:    deps.Driver,
		Profile:   deps.Profile,
		Logger:    logger,
		Stats:     stats,
	})

	workers := goutils.NewBackgroundStoppableWorkers(
		func(ctx context.Context) { dispatchTelemetry(ctx, coordinator, endpoints.Telemetry) },
		func(ctx context.Context) { dispatchLaneRequests(ctx, coordinator, endpoints) },
		func(ctx context.Context) { dispatchSpeedRequests(ctx, coordinator, endpoints.SpeedRequests) },
		func(ctx context.Context) { dispatchInterrupts(ctx, coordinator, endpoints.Interrupts) },
		func(ctx context.Context) { dispatchActionIdle(ctx, coordinator, endpoints.ActionIdle) },
		coordinator.RunStallWatchdog,
	)
	defer workers.Stop()

	if cfg.ServerURI != "" {
		srv := newDiagnosticsServer(coordinator, logger)
		goutils.PanicCapturingGo(func() { serveDiagnostics(ctx, srv, cfg.ServerURI, logger) })
	}

	<-ctx.Done()
	return nil
}

func dispatchTelemetry(ctx context.Context, c *fleetctl.Coordinator, in <-chan rmfproto.FleetState) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-in:
			if !ok {
				return
			}
			c.OnTelemetry(ctx, batch)
		}
	}
}

func dispatchLaneRequests(ctx context.Context, c *fleetctl.Coordinator, endpoints Endpoints) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-endpoints.LaneRequests:
			if !ok {
				return
			}
			status := c.OnLaneClosureRequest(req)
			if endpoints.ClosedLaneStatus != nil {
				select {
				case endpoints.ClosedLaneStatus <- status:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func dispatchSpeedRequests(ctx context.Context, c *fleetctl.Coordinator, in <-chan rmfproto.SpeedLimitRequest) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-in:
			if !ok {
				return
			}
			c.OnSpeedLimitRequest(req)
		}
	}
}

func dispatchInterrupts(ctx context.Context, c *fleetctl.Coordinator, in <-chan rmfproto.InterruptRequest) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-in:
			if !ok {
				return
			}
			c.OnInterruptRequest(req)
		}
	}
}

func dispatchActionIdle(ctx context.Context, c *fleetctl.Coordinator, in <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case name, ok := <-in:
			if !ok {
				return
			}
			c.OnActionIdle(name)
		}
	}
}
