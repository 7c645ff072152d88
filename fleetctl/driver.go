package fleetctl

import "github.com/sauk2/rmf-ros2/rmfproto"

// DriverCommander is the downstream fleet driver boundary: the transport
// that actually delivers PathRequest/ModeRequest messages to a robot.
// The transport itself (pub/sub, gRPC, ...) is out of scope (spec.md
// §1); this is the one seam the core needs to translate a command into
// an outbound message, modeled as a typed-channel-friendly interface per
// the §9 design note on Observable/subscriber patterns.
type DriverCommander interface {
	SendPathRequest(req rmfproto.PathRequest)
	SendModeRequest(req rmfproto.ModeRequest)
}
